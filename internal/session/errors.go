// internal/session/errors.go
//
// Error taxonomy for the session coordinator. Every failure an intent can
// produce is classified as exactly one of:
//   - store.ErrNotFound      unknown game id
//   - store.ErrConflict      lost the optimistic-concurrency race (transient;
//                            the caller may re-submit, which re-reads state)
//   - ErrRuleViolation       the game state machine rejected the transition
//   - ErrRetriesExhausted    create-game id collision bound reached
//   - ErrStaleConnection     push delivery failed (non-fatal, never unwinds
//                            a committed mutation)
//
// Rule violations and not-found are reported to the originating request
// only, never broadcast.

package session

import "errors"

var (
	// ErrRuleViolation means the requested transition is illegal for the
	// current game state (duplicate join, out-of-turn word, full roster,
	// duplicate quit signal, ...). Terminal for that request.
	ErrRuleViolation = errors.New("session: rule violation")

	// ErrRetriesExhausted means create-game could not find a free id within
	// the collision bound. Fatal for that request.
	ErrRetriesExhausted = errors.New("session: game id collisions exhausted")

	// ErrStaleConnection is returned by delivery sinks for connections that
	// are no longer reachable.
	ErrStaleConnection = errors.New("session: stale connection")
)
