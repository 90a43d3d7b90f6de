package messages

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
)

// Repository implements the store's Persister over database/sql.
type Repository struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// NewRepository returns a Repository bound to db.
func NewRepository(db *sql.DB, d dbx.Dialect) *Repository {
	return &Repository{db: db, dialect: d}
}

const selectAll = `SELECT id, text, type, created_at, is_read, is_completed, reminder_date,
	notification_id, calendar_event_id, links, encrypted
	FROM messages ORDER BY seq`

const insertOne = `INSERT INTO messages (id, seq, text, type, created_at, is_read, is_completed,
	reminder_date, notification_id, calendar_event_id, links, encrypted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Load reads every stored record.
func (r *Repository) Load(ctx context.Context) ([]models.Message, error) {
	rows, err := dbx.WithDialect(r.db, r.dialect).QueryContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return result, nil
}

// Save replaces the stored collection with msgs.
func (r *Repository) Save(ctx context.Context, msgs []models.Message) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tx = dbx.WithDialect(tx, r.dialect)

		if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
			return fmt.Errorf("failed to clear messages: %w", err)
		}

		for i, m := range msgs {
			args, err := rowArgs(i, m)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, insertOne, args...); err != nil {
				return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func rowArgs(seq int, m models.Message) ([]any, error) {
	links := m.Links
	if links == nil {
		links = []models.LinkPreview{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("failed to encode links of %s: %w", m.ID, err)
	}

	var reminder sql.NullString
	if m.ReminderDate != nil {
		reminder = sql.NullString{String: m.ReminderDate.Format(time.RFC3339Nano), Valid: true}
	}

	return []any{
		m.ID, seq, m.Text, string(m.Type), m.CreatedAt.Format(common.TimestampLayout),
		m.IsRead, m.IsCompleted, reminder, m.NotificationID, m.CalendarEventID,
		string(linksJSON), m.Encrypted,
	}, nil
}

func scanMessage(rows *sql.Rows) (models.Message, error) {
	var (
		m         models.Message
		typ       string
		createdAt string
		reminder  sql.NullString
		links     string
	)
	err := rows.Scan(&m.ID, &m.Text, &typ, &createdAt, &m.IsRead, &m.IsCompleted, &reminder,
		&m.NotificationID, &m.CalendarEventID, &links, &m.Encrypted)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to scan message: %w", err)
	}

	m.Type = models.MessageType(typ)
	if err := m.Type.Validate(); err != nil {
		return models.Message{}, fmt.Errorf("message %s: %w", m.ID, err)
	}

	m.CreatedAt, err = time.ParseInLocation(common.TimestampLayout, createdAt, time.Local)
	if err != nil {
		return models.Message{}, fmt.Errorf("message %s: bad created_at: %w", m.ID, err)
	}

	if reminder.Valid {
		d, err := time.Parse(time.RFC3339Nano, reminder.String)
		if err != nil {
			return models.Message{}, fmt.Errorf("message %s: bad reminder_date: %w", m.ID, err)
		}
		d = d.Local()
		m.ReminderDate = &d
	}

	if links != "" {
		if err := json.Unmarshal([]byte(links), &m.Links); err != nil {
			return models.Message{}, fmt.Errorf("message %s: bad links: %w", m.ID, err)
		}
		if len(m.Links) == 0 {
			m.Links = nil
		}
	}
	return m, nil
}
