// Package storage persists wizard sessions and their chat turns.
package storage

import (
	"context"
	"time"
)

// Session is one wizard run as stored.
type Session struct {
	ID              string
	CompanyName     string
	Domain          string
	Vertical        string
	SubVertical     string
	Audience        string
	RecordsPerTable int
	LogoURL         string
	ColorHex        string
	State           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Turn is one completed question/answer exchange. Charts hold compact JSON
// chart specifications in arrival order.
type Turn struct {
	ID        string
	SessionID string
	Question  string
	Answer    string
	Thinking  string
	Charts    []string
	CreatedAt time.Time
}

// Driver is the persistence interface for sessions and turns.
type Driver interface {
	// PutSession inserts or updates a session by ID.
	PutSession(ctx context.Context, session *Session) error

	// GetSession retrieves a session by ID. Returns ErrNotFound when the
	// session does not exist.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]*Session, error)

	// PutTurn appends a completed turn.
	PutTurn(ctx context.Context, turn *Turn) error

	// ListTurns returns a session's turns in chronological order.
	ListTurns(ctx context.Context, sessionID string) ([]*Turn, error)

	// Close closes the store and releases any resources.
	Close() error
}
