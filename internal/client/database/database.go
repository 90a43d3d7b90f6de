// Package database opens the local store, runs the embedded migrations and
// hands out repositories bound to the connection.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chatkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/messages"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/notifications"
	"github.com/dmitrijs2005/chatkeeper/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// DialectFor picks the backend from the DSN: postgres:// and postgresql://
// URLs use pgx, anything else is a SQLite path or URI.
func DialectFor(dsn string) dbx.Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return dbx.DialectPostgres
	}
	return dbx.DialectSQLite
}

func driverName(d dbx.Dialect) string {
	if d == dbx.DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// RunMigrations applies the embedded migrations for dialect d.
func RunMigrations(ctx context.Context, db *sql.DB, d dbx.Dialect) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(string(d)); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, migrationDir(d)); err != nil {
		return err
	}
	return nil
}

func migrationDir(d dbx.Dialect) string {
	if d == dbx.DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Manager owns the connection and vends repositories for it.
type Manager struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, dsn string) (*Manager, error) {
	d := DialectFor(dsn)

	db, err := sql.Open(driverName(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if d == dbx.DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Manager{db: db, dialect: d}, nil
}

// NewManager wraps an already migrated connection.
func NewManager(db *sql.DB, d dbx.Dialect) *Manager {
	return &Manager{db: db, dialect: d}
}

func (m *Manager) Conn() *sql.DB {
	return m.db
}

func (m *Manager) Dialect() dbx.Dialect {
	return m.dialect
}

func (m *Manager) Messages() *messages.Repository {
	return messages.NewRepository(m.db, m.dialect)
}

func (m *Manager) Metadata() *metadata.SQLRepository {
	return metadata.NewSQLRepository(dbx.WithDialect(m.db, m.dialect))
}

func (m *Manager) Notifications() *notifications.SQLRepository {
	return notifications.NewSQLRepository(dbx.WithDialect(m.db, m.dialect))
}

func (m *Manager) Close() error {
	return m.db.Close()
}
