// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral game sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Snapshots are deep-copied on the way in and out, so callers never
//     share mutable state with the store.
//   - Preconditions are evaluated under the write lock, which makes each
//     conditional put atomic (single-writer-at-a-time per process).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"

	"github.com/wordrelay/go-server/internal/game"
)

type memory struct {
	mu       sync.RWMutex
	games    map[string]game.Snapshot // keyed by game id
	bindings map[string]Binding       // keyed by connection id
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		games:    make(map[string]game.Snapshot),
		bindings: make(map[string]Binding),
	}
}

// copySnapshot deep-copies a snapshot's map and slice fields.
func copySnapshot(s game.Snapshot) game.Snapshot {
	out := s
	out.Clients = make(map[string]game.Client, len(s.Clients))
	for id, c := range s.Clients {
		out.Clients[id] = c
	}
	out.Words = make([]string, len(s.Words))
	copy(out.Words, s.Words)
	return out
}

func (m *memory) Get(ctx context.Context, gameID string) (game.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.games[gameID]; ok {
		return copySnapshot(s), nil
	}
	return game.Snapshot{}, ErrNotFound
}

func (m *memory) Put(ctx context.Context, snap game.Snapshot, pre Precondition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putLocked(snap, pre)
}

func (m *memory) putLocked(snap game.Snapshot, pre Precondition) error {
	cur, exists := m.games[snap.GameID]
	if !pre.holds(exists, cur) {
		return ErrConflict
	}
	m.games[snap.GameID] = copySnapshot(snap)
	return nil
}

func (m *memory) PutWithBinding(ctx context.Context, snap game.Snapshot, pre Precondition, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.putLocked(snap, pre); err != nil {
		return err
	}
	b := m.bindings[connectionID]
	b.ConnectionID = connectionID
	b.GameID = snap.GameID
	m.bindings[connectionID] = b
	return nil
}

func (m *memory) PutBinding(ctx context.Context, b Binding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[b.ConnectionID] = b
	return nil
}

func (m *memory) GetBinding(ctx context.Context, connectionID string) (Binding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.bindings[connectionID]; ok {
		return b, nil
	}
	return Binding{}, ErrNotFound
}

func (m *memory) ClearBindingGame(ctx context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bindings[connectionID]; ok {
		b.GameID = ""
		m.bindings[connectionID] = b
	}
	return nil
}

func (m *memory) DeleteBinding(ctx context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, connectionID)
	return nil
}
