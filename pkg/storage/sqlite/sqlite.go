// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/demoforge/demoforge/pkg/storage"
)

// Driver implements storage.Driver on a SQLite database.
type Driver struct {
	db *sql.DB
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver opens (and migrates) a SQLite database. The dbPath can be a file
// path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Driver{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return d, nil
}

func (d *Driver) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id                TEXT PRIMARY KEY,
		company_name      TEXT NOT NULL,
		domain            TEXT NOT NULL,
		vertical          TEXT NOT NULL,
		sub_vertical      TEXT NOT NULL DEFAULT '',
		audience          TEXT NOT NULL,
		records_per_table INTEGER NOT NULL,
		logo_url          TEXT NOT NULL DEFAULT '',
		color_hex         TEXT NOT NULL DEFAULT '',
		state             TEXT NOT NULL,
		created_at        TIMESTAMP NOT NULL,
		updated_at        TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id),
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		thinking   TEXT NOT NULL DEFAULT '',
		charts     TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, created_at);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Driver) PutSession(ctx context.Context, s *storage.Session) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sessions (id, company_name, domain, vertical, sub_vertical, audience,
			records_per_table, logo_url, color_hex, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_name = excluded.company_name,
			domain = excluded.domain,
			vertical = excluded.vertical,
			sub_vertical = excluded.sub_vertical,
			audience = excluded.audience,
			records_per_table = excluded.records_per_table,
			logo_url = excluded.logo_url,
			color_hex = excluded.color_hex,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		s.ID, s.CompanyName, s.Domain, s.Vertical, s.SubVertical, s.Audience,
		s.RecordsPerTable, s.LogoURL, s.ColorHex, s.State, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

func (d *Driver) GetSession(ctx context.Context, id string) (*storage.Session, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, company_name, domain, vertical, sub_vertical, audience,
			records_per_table, logo_url, color_hex, state, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var s storage.Session
	err := row.Scan(&s.ID, &s.CompanyName, &s.Domain, &s.Vertical, &s.SubVertical, &s.Audience,
		&s.RecordsPerTable, &s.LogoURL, &s.ColorHex, &s.State, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (d *Driver) ListSessions(ctx context.Context) ([]*storage.Session, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, company_name, domain, vertical, sub_vertical, audience,
			records_per_table, logo_url, color_hex, state, created_at, updated_at
		FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*storage.Session
	for rows.Next() {
		var s storage.Session
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.Domain, &s.Vertical, &s.SubVertical, &s.Audience,
			&s.RecordsPerTable, &s.LogoURL, &s.ColorHex, &s.State, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func (d *Driver) PutTurn(ctx context.Context, t *storage.Turn) error {
	charts, err := json.Marshal(t.Charts)
	if err != nil {
		return fmt.Errorf("failed to encode charts: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO turns (id, session_id, question, answer, thinking, charts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SessionID, t.Question, t.Answer, t.Thinking, string(charts), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to put turn: %w", err)
	}
	return nil
}

func (d *Driver) ListTurns(ctx context.Context, sessionID string) ([]*storage.Turn, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, session_id, question, answer, thinking, charts, created_at
		FROM turns WHERE session_id = ? ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

func (d *Driver) Close() error {
	return d.db.Close()
}

func scanTurns(rows *sql.Rows) ([]*storage.Turn, error) {
	var turns []*storage.Turn
	for rows.Next() {
		var t storage.Turn
		var charts string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Question, &t.Answer, &t.Thinking, &charts, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(charts), &t.Charts); err != nil {
			return nil, fmt.Errorf("failed to decode charts: %w", err)
		}
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}
