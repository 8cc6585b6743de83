// Package inmemory provides a map-backed storage driver for tests and
// ephemeral servers.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/demoforge/demoforge/pkg/storage"
)

// Driver implements storage.Driver with in-process maps.
type Driver struct {
	mu       sync.RWMutex
	sessions map[string]storage.Session
	turns    map[string][]storage.Turn
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates an empty in-memory store.
func NewDriver() *Driver {
	return &Driver{
		sessions: make(map[string]storage.Session),
		turns:    make(map[string][]storage.Turn),
	}
}

func (d *Driver) PutSession(_ context.Context, session *storage.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[session.ID] = *session
	return nil
}

func (d *Driver) GetSession(_ context.Context, id string) (*storage.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	session, ok := d.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound{ID: id}
	}
	return &session, nil
}

func (d *Driver) ListSessions(_ context.Context) ([]*storage.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sessions := make([]*storage.Session, 0, len(d.sessions))
	for id := range d.sessions {
		session := d.sessions[id]
		sessions = append(sessions, &session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (d *Driver) PutTurn(_ context.Context, turn *storage.Turn) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[turn.SessionID]; !ok {
		return storage.ErrNotFound{ID: turn.SessionID}
	}
	d.turns[turn.SessionID] = append(d.turns[turn.SessionID], *turn)
	return nil
}

func (d *Driver) ListTurns(_ context.Context, sessionID string) ([]*storage.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored := d.turns[sessionID]
	turns := make([]*storage.Turn, 0, len(stored))
	for i := range stored {
		turn := stored[i]
		turns = append(turns, &turn)
	}
	return turns, nil
}

func (d *Driver) Close() error {
	return nil
}
