// internal/session/coordinator.go
//
// Session coordinator: translates one inbound intent into at most one
// committed game mutation plus a best-effort broadcast.
//
// Every mutation follows the same cycle:
//   load snapshot → delegate to the game state machine → conditioned commit
//   → fan out the new snapshot to connected players.
//
// The conditioned commit is the only concurrency control: the precondition
// restates the field values the mutation was computed from (existence,
// isOver, turn, roster room), so a racing intent that changed the record
// first turns this one into a conflict. Conflicts are never retried here —
// the rule evaluation is not re-run against fresh state on the caller's
// behalf.
//
// Delivery failures never unwind a committed mutation; the stored record is
// the source of truth and a disconnected player resyncs on reconnect.

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wordrelay/go-server/internal/game"
	"github.com/wordrelay/go-server/internal/store"
)

// maxCollisions bounds the number of fresh game ids create tries before
// giving up.
const maxCollisions = 10

// minWordLen is the hardcoded minimum word length (see Config).
const minWordLen = 6

// Sink pushes a game snapshot to one connection. Best-effort: a failed
// delivery (typically ErrStaleConnection) is logged and ignored.
type Sink interface {
	Deliver(ctx context.Context, connectionID string, snap game.Snapshot) error
}

// WordChecker is the dictionary oracle, queried only after the local shape
// check passes.
type WordChecker interface {
	IsWord(ctx context.Context, word string) (bool, error)
}

// Coordinator orchestrates game mutations against shared storage and fans
// out committed snapshots. It holds no per-game state of its own, so any
// number of coordinators (or processes) can serve the same store.
type Coordinator struct {
	store store.Store
	sink  Sink
	words WordChecker
}

// New constructs a Coordinator.
func New(st store.Store, sink Sink, words WordChecker) *Coordinator {
	return &Coordinator{store: st, sink: sink, words: words}
}

// Dispatch routes a tagged intent to the matching operation.
func (c *Coordinator) Dispatch(ctx context.Context, actor Actor, in Intent) (game.Snapshot, error) {
	switch in.Method {
	case MethodCreate:
		return c.Create(ctx, actor, in.Config)
	case MethodJoin:
		return c.Join(ctx, actor, in.GameID)
	case MethodWord:
		return c.SubmitWord(ctx, actor, in.GameID, in.Word)
	case MethodQuit:
		return c.Quit(ctx, actor, in.GameID, true)
	default:
		return game.Snapshot{}, fmt.Errorf("%w: unknown method %q", ErrRuleViolation, in.Method)
	}
}

// Create starts a new game with the actor already joined and delivers the
// snapshot to the requester alone. Id uniqueness is enforced by the
// conditioned insert; on collision a fresh id is drawn, up to maxCollisions.
func (c *Coordinator) Create(ctx context.Context, actor Actor, cfg *Config) (game.Snapshot, error) {
	if cfg != nil {
		// Accepted but unused: rules stay hardcoded.
		log.Debug().Interface("config", cfg).Msg("ignoring per-game config")
	}

	for i := 0; i < maxCollisions; i++ {
		g := game.New(game.NewGameID())
		g.Join(actor.UserID, actor.Username, actor.ConnectionID)
		snap := g.Snapshot()

		err := c.store.PutWithBinding(ctx, snap, store.Precondition{MustNotExist: true}, actor.ConnectionID)
		if errors.Is(err, store.ErrConflict) {
			log.Info().Str("gameId", snap.GameID).Int("collisions", i+1).Msg("game id collision")
			continue
		}
		if err != nil {
			return game.Snapshot{}, fmt.Errorf("create game: %w", err)
		}

		if err := c.sink.Deliver(ctx, actor.ConnectionID, snap); err != nil {
			log.Warn().Err(err).Str("gameId", snap.GameID).
				Str("connectionId", actor.ConnectionID).Msg("deliver to creator failed")
		}
		log.Info().Str("gameId", snap.GameID).Str("userId", actor.UserID).Msg("game created")
		return snap, nil
	}
	return game.Snapshot{}, fmt.Errorf("create game after %d collisions: %w", maxCollisions, ErrRetriesExhausted)
}

// Join adds the actor to an existing game. The commit is conditioned on the
// game still being open and having room, which is the authoritative guard
// against two opponents joining the same seat concurrently.
func (c *Coordinator) Join(ctx context.Context, actor Actor, gameID string) (game.Snapshot, error) {
	snap, err := c.store.Get(ctx, gameID)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("join game %s: %w", gameID, err)
	}
	g := game.FromSnapshot(snap)

	if g.IsOver || g.NumPlayers >= 2 {
		return game.Snapshot{}, fmt.Errorf("%w: game %s is closed", ErrRuleViolation, gameID)
	}
	// With one seated player, Join only reports full=false for a duplicate
	// player id (the creator re-joining their own game).
	if !g.Join(actor.UserID, actor.Username, actor.ConnectionID) {
		return game.Snapshot{}, fmt.Errorf("%w: player %s already in game %s", ErrRuleViolation, actor.UserID, gameID)
	}

	next := g.Snapshot()
	pre := store.Precondition{IsOver: store.Bool(false), PlayersBelow: 2}
	if err := c.store.PutWithBinding(ctx, next, pre, actor.ConnectionID); err != nil {
		return game.Snapshot{}, fmt.Errorf("join game %s: %w", gameID, err)
	}

	c.broadcast(ctx, g)
	log.Info().Str("gameId", gameID).Str("userId", actor.UserID).Msg("player joined")
	return next, nil
}

// SubmitWord validates and plays one word. A word that fails the shape or
// dictionary check is not an error: the unchanged snapshot is delivered back
// to the requester only, and the client interprets the no-op. A word the
// state machine rejects (turn, chaining, duplicate) is a rule violation.
func (c *Coordinator) SubmitWord(ctx context.Context, actor Actor, gameID, word string) (game.Snapshot, error) {
	snap, err := c.store.Get(ctx, gameID)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("send word in game %s: %w", gameID, err)
	}

	word = strings.ToLower(strings.TrimSpace(word))
	ok, err := c.checkWord(ctx, word)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("check word %q: %w", word, err)
	}
	if !ok {
		if err := c.sink.Deliver(ctx, actor.ConnectionID, snap); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("deliver non-word echo failed")
		}
		log.Debug().Str("gameId", gameID).Str("word", word).Msg("not a word")
		return snap, nil
	}

	g := game.FromSnapshot(snap)
	if !g.AddWord(word, actor.UserID) {
		return game.Snapshot{}, fmt.Errorf("%w: word %q rejected in game %s", ErrRuleViolation, word, gameID)
	}

	next := g.Snapshot()
	pre := store.Precondition{IsOver: store.Bool(false), TurnIs: store.String(actor.UserID)}
	if err := c.store.Put(ctx, next, pre); err != nil {
		return game.Snapshot{}, fmt.Errorf("send word in game %s: %w", gameID, err)
	}

	c.broadcast(ctx, g)
	log.Info().Str("gameId", gameID).Str("userId", actor.UserID).Str("word", word).Msg("word played")
	return next, nil
}

// Quit hands the win to the opponent (first quit only) and marks the actor
// disconnected. The commit asserts the pre-mutation isOver value, so of two
// racing quits only the one that actually flipped the game to over commits
// a winner. clearBinding distinguishes explicit quits (true) from
// disconnect-synthesized ones (false), where the binding row is being
// deleted by the connection teardown anyway.
func (c *Coordinator) Quit(ctx context.Context, actor Actor, gameID string, clearBinding bool) (game.Snapshot, error) {
	snap, err := c.store.Get(ctx, gameID)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("quit game %s: %w", gameID, err)
	}
	g := game.FromSnapshot(snap)

	if !g.HasConnection(actor.ConnectionID) {
		// Duplicate quit signal (explicit quit racing the disconnect sweep).
		return game.Snapshot{}, fmt.Errorf("%w: connection %s already disconnected from game %s",
			ErrRuleViolation, actor.ConnectionID, gameID)
	}

	madeWinner := g.Quit(actor.UserID)
	next := g.Snapshot()
	pre := store.Precondition{IsOver: store.Bool(!madeWinner)}
	if err := c.store.Put(ctx, next, pre); err != nil {
		return game.Snapshot{}, fmt.Errorf("quit game %s: %w", gameID, err)
	}

	if clearBinding {
		if err := c.store.ClearBindingGame(ctx, actor.ConnectionID); err != nil {
			log.Warn().Err(err).Str("connectionId", actor.ConnectionID).Msg("clear binding failed")
		}
	}

	c.broadcast(ctx, g)
	log.Info().Str("gameId", gameID).Str("userId", actor.UserID).
		Bool("madeWinner", madeWinner).Msg("player quit")
	return next, nil
}

// checkWord applies the local shape check, then asks the dictionary oracle.
func (c *Coordinator) checkWord(ctx context.Context, word string) (bool, error) {
	if len(word) < minWordLen || !isAlpha(word) {
		return false, nil
	}
	return c.words.IsWord(ctx, word)
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// broadcast pushes the snapshot to every connected player of the game.
// Failures are logged and swallowed: the commit already happened.
func (c *Coordinator) broadcast(ctx context.Context, g *game.Game) {
	snap := g.Snapshot()
	for _, cid := range g.ActiveConnectionIDs() {
		if err := c.sink.Deliver(ctx, cid, snap); err != nil {
			// TODO: delete the stale connection binding so later broadcasts
			// stop attempting it.
			log.Warn().Err(err).Str("gameId", g.GameID).
				Str("connectionId", cid).Msg("broadcast delivery failed")
		}
	}
}
