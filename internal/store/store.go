// internal/store/store.go
//
// Conditioned key/value storage for game records and connection bindings.
//
// Every game mutation in this server is a read → pure transform → conditioned
// write cycle: the commit carries a Precondition over the stored record and
// fails with ErrConflict when the record changed underneath the caller. That
// compare-and-swap contract is the only concurrency control in the system —
// there is no per-game lock.
//
// Two implementations exist:
//   - memory: map + RWMutex, for development and tests.
//   - sqlite: durable, precondition evaluated inside a transaction.

package store

import (
	"context"
	"errors"

	"github.com/wordrelay/go-server/internal/game"
)

var (
	// ErrNotFound is returned by Get for an unknown game id.
	ErrNotFound = errors.New("store: game not found")
	// ErrConflict is returned by conditional puts when the precondition does
	// not hold against the current stored record. The caller's intent is
	// stale and must not be retried blindly.
	ErrConflict = errors.New("store: precondition failed")
)

// Precondition is the predicate a conditional put asserts over the record
// currently in storage. The zero value requires only that the record exists.
type Precondition struct {
	// MustNotExist inverts the existence check: the put succeeds only if no
	// record with this game id is stored yet (create path).
	MustNotExist bool
	// IsOver, when set, requires the stored record's isOver to equal it.
	IsOver *bool
	// TurnIs, when set, requires the stored record's turn to equal it.
	TurnIs *string
	// PlayersBelow, when > 0, requires the stored roster to have fewer than
	// this many players (join path).
	PlayersBelow int
}

// Bool returns a *bool for use in Precondition literals.
func Bool(b bool) *bool { return &b }

// String returns a *string for use in Precondition literals.
func String(s string) *string { return &s }

// holds evaluates the precondition against the current stored state.
func (p Precondition) holds(exists bool, cur game.Snapshot) bool {
	if p.MustNotExist {
		return !exists
	}
	if !exists {
		return false
	}
	if p.IsOver != nil && cur.IsOver != *p.IsOver {
		return false
	}
	if p.TurnIs != nil && cur.Turn != *p.TurnIs {
		return false
	}
	if p.PlayersBelow > 0 && cur.NumPlayers >= p.PlayersBelow {
		return false
	}
	return true
}

// Binding maps an ephemeral connection id to its user and, once the player
// has created or joined a game, the bound game id.
type Binding struct {
	ConnectionID string
	UserID       string
	GameID       string // "" while no game is bound
}

// Store is the persistence interface for game records and connection
// bindings. Implementations must make each conditional put atomic with
// respect to concurrent puts for the same game id.
type Store interface {
	// Get retrieves a game snapshot by id, or ErrNotFound.
	Get(ctx context.Context, gameID string) (game.Snapshot, error)

	// Put writes the full snapshot if the precondition holds against the
	// currently stored record, or returns ErrConflict.
	Put(ctx context.Context, snap game.Snapshot, pre Precondition) error

	// PutWithBinding is Put plus an update of the connection's bound game id
	// in the same atomic unit (create/join paths).
	PutWithBinding(ctx context.Context, snap game.Snapshot, pre Precondition, connectionID string) error

	// PutBinding inserts or replaces a connection binding (connect path).
	PutBinding(ctx context.Context, b Binding) error

	// GetBinding retrieves a connection binding, or ErrNotFound.
	GetBinding(ctx context.Context, connectionID string) (Binding, error)

	// ClearBindingGame unbinds the connection from its game, keeping the
	// binding row. Missing bindings are not an error.
	ClearBindingGame(ctx context.Context, connectionID string) error

	// DeleteBinding removes the binding entirely (disconnect path).
	DeleteBinding(ctx context.Context, connectionID string) error
}
