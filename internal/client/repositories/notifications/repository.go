// Package notifications persists queued alerts for the native scheduler.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
)

// Repository is the queue used by notify.QueueScheduler.
type Repository interface {
	Insert(ctx context.Context, n models.QueuedNotification) error
	Delete(ctx context.Context, id string) error
	Due(ctx context.Context, now time.Time) ([]models.QueuedNotification, error)
	MarkDelivered(ctx context.Context, id string) error
	Pending(ctx context.Context) ([]models.QueuedNotification, error)
}

// SQLRepository implements Repository over a DBTX. Fire times are stored
// as unix seconds.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Insert(ctx context.Context, n models.QueuedNotification) error {
	query := `INSERT INTO notifications (id, title, body, data, fire_at, delivered) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, n.ID, n.Title, n.Body, n.Data, n.FireAt.Unix(), n.Delivered)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// Delete removes a notification. Unknown ids are not an error.
func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	return nil
}

// Due lists undelivered notifications whose fire time is not after now,
// oldest first.
func (r *SQLRepository) Due(ctx context.Context, now time.Time) ([]models.QueuedNotification, error) {
	query := `SELECT id, title, body, data, fire_at, delivered FROM notifications
		WHERE delivered = ? AND fire_at <= ? ORDER BY fire_at, id`
	return r.list(ctx, query, false, now.Unix())
}

// Pending lists every undelivered notification.
func (r *SQLRepository) Pending(ctx context.Context) ([]models.QueuedNotification, error) {
	query := `SELECT id, title, body, data, fire_at, delivered FROM notifications
		WHERE delivered = ? ORDER BY fire_at, id`
	return r.list(ctx, query, false)
}

func (r *SQLRepository) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET delivered = ? WHERE id = ?`, true, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s delivered: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]models.QueuedNotification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notifications: %w", err)
	}
	defer rows.Close()

	var result []models.QueuedNotification
	for rows.Next() {
		var (
			n      models.QueuedNotification
			fireAt int64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Data, &fireAt, &n.Delivered); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.FireAt = time.Unix(fireAt, 0)
		result = append(result, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return result, nil
}
