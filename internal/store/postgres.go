// Package store holds the best-effort stores that sit behind the primary
// persistence sink: a relational archive and a recent-madlib cache.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"madlib-engine/internal/common/config"
	"madlib-engine/internal/madlib"
)

// MadlibArchive is the relational archive of completed madlibs.
type MadlibArchive struct {
	db *sql.DB
}

// OpenPostgres opens the archive database from config.
func OpenPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func NewMadlibArchive(db *sql.DB) *MadlibArchive {
	return &MadlibArchive{db: db}
}

// Ping tests the archive connection.
func (a *MadlibArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the underlying database.
func (a *MadlibArchive) Close() error {
	return a.db.Close()
}

// Insert archives a completed madlib under the sink's identifier.
func (a *MadlibArchive) Insert(ctx context.Context, id string, m *madlib.CompletedMadlib) error {
	placeholders, err := json.Marshal(m.Placeholders)
	if err != nil {
		return fmt.Errorf("marshal placeholders: %w", err)
	}

	const query = `
		INSERT INTO madlibs (id, topic, template_text, filled_text, placeholders, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := a.db.ExecContext(ctx, query,
		id, m.Topic, m.TemplateText, m.FilledText, placeholders, m.CreatedAt, m.CompletedAt,
	); err != nil {
		return fmt.Errorf("insert madlib: %w", err)
	}
	return nil
}

// Get fetches an archived madlib by identifier.
func (a *MadlibArchive) Get(ctx context.Context, id string) (*madlib.CompletedMadlib, error) {
	const query = `
		SELECT topic, template_text, filled_text, placeholders, created_at, completed_at
		FROM madlibs WHERE id = $1`

	var m madlib.CompletedMadlib
	var placeholders []byte
	err := a.db.QueryRowContext(ctx, query, id).Scan(
		&m.Topic, &m.TemplateText, &m.FilledText, &placeholders, &m.CreatedAt, &m.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch madlib %s: %w", id, err)
	}

	if err := json.Unmarshal(placeholders, &m.Placeholders); err != nil {
		return nil, fmt.Errorf("unmarshal placeholders: %w", err)
	}
	return &m, nil
}
