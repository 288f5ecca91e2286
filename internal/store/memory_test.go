package store

import (
	"context"
	"errors"
	"testing"

	"github.com/wordrelay/go-server/internal/game"
)

func snapWith(turn string, numPlayers int, isOver bool) game.Snapshot {
	return game.Snapshot{
		GameID:     "ABCDEF",
		Turn:       turn,
		Clients:    map[string]game.Client{},
		Words:      []string{},
		NumPlayers: numPlayers,
		IsOver:     isOver,
	}
}

func TestGetMissing(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Get(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestPutMustNotExist(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if err := m.Put(ctx, snapWith("", 1, false), Precondition{MustNotExist: true}); err != nil {
		t.Fatalf("initial insert: %v", err)
	}
	// Same id again must conflict: this is the create-collision guard.
	err := m.Put(ctx, snapWith("", 1, false), Precondition{MustNotExist: true})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate insert = %v, want ErrConflict", err)
	}
}

func TestPutRequiresExistence(t *testing.T) {
	m := NewMemoryStore()
	err := m.Put(context.Background(), snapWith("p1", 2, false), Precondition{})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("put against missing record = %v, want ErrConflict", err)
	}
}

func TestPutTurnGuard(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.Put(ctx, snapWith("p1", 2, false), Precondition{MustNotExist: true}); err != nil {
		t.Fatal(err)
	}

	// A submit computed from a stale read (turn already flipped to p1) must
	// fail when it asserts turn=p2.
	err := m.Put(ctx, snapWith("p2", 2, false), Precondition{IsOver: Bool(false), TurnIs: String("p2")})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("stale turn put = %v, want ErrConflict", err)
	}

	if err := m.Put(ctx, snapWith("p2", 2, false), Precondition{IsOver: Bool(false), TurnIs: String("p1")}); err != nil {
		t.Errorf("current turn put = %v, want success", err)
	}
}

func TestPutIsOverGuard(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.Put(ctx, snapWith("p1", 2, true), Precondition{MustNotExist: true}); err != nil {
		t.Fatal(err)
	}

	// First-quit semantics: asserting isOver=false against a decided game
	// must lose the race.
	err := m.Put(ctx, snapWith("", 2, true), Precondition{IsOver: Bool(false)})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("quit against decided game = %v, want ErrConflict", err)
	}
}

func TestPutRoomGuard(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.Put(ctx, snapWith("p1", 2, false), Precondition{MustNotExist: true}); err != nil {
		t.Fatal(err)
	}

	// Two racing joiners both computed from the one-player snapshot; the
	// second commit sees a full roster and must conflict.
	err := m.Put(ctx, snapWith("p1", 2, false), Precondition{IsOver: Bool(false), PlayersBelow: 2})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("join against full game = %v, want ErrConflict", err)
	}
}

func TestPutWithBindingUpdatesBoth(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.PutBinding(ctx, Binding{ConnectionID: "conn-1", UserID: "p1"}); err != nil {
		t.Fatal(err)
	}

	if err := m.PutWithBinding(ctx, snapWith("", 1, false), Precondition{MustNotExist: true}, "conn-1"); err != nil {
		t.Fatalf("PutWithBinding: %v", err)
	}

	b, err := m.GetBinding(ctx, "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if b.GameID != "ABCDEF" || b.UserID != "p1" {
		t.Errorf("binding = %+v, want game ABCDEF for p1", b)
	}
	if _, err := m.Get(ctx, "ABCDEF"); err != nil {
		t.Errorf("game not stored: %v", err)
	}
}

func TestPutWithBindingConflictLeavesBinding(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if err := m.Put(ctx, snapWith("", 1, false), Precondition{MustNotExist: true}); err != nil {
		t.Fatal(err)
	}
	if err := m.PutBinding(ctx, Binding{ConnectionID: "conn-2", UserID: "p2"}); err != nil {
		t.Fatal(err)
	}

	err := m.PutWithBinding(ctx, snapWith("", 1, false), Precondition{MustNotExist: true}, "conn-2")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("conflicting PutWithBinding = %v, want ErrConflict", err)
	}
	b, _ := m.GetBinding(ctx, "conn-2")
	if b.GameID != "" {
		t.Errorf("failed commit still bound game %q", b.GameID)
	}
}

func TestBindingLifecycle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if err := m.PutBinding(ctx, Binding{ConnectionID: "conn-1", UserID: "p1", GameID: "ABCDEF"}); err != nil {
		t.Fatal(err)
	}
	if err := m.ClearBindingGame(ctx, "conn-1"); err != nil {
		t.Fatal(err)
	}
	b, err := m.GetBinding(ctx, "conn-1")
	if err != nil {
		t.Fatal(err)
	}
	if b.GameID != "" || b.UserID != "p1" {
		t.Errorf("cleared binding = %+v", b)
	}

	if err := m.DeleteBinding(ctx, "conn-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.GetBinding(ctx, "conn-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted binding lookup = %v, want ErrNotFound", err)
	}
}

func TestStoredSnapshotsDoNotAlias(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	s := snapWith("p1", 2, false)
	s.Words = []string{"worldly"}
	if err := m.Put(ctx, s, Precondition{MustNotExist: true}); err != nil {
		t.Fatal(err)
	}
	s.Words[0] = "mutated"

	got, err := m.Get(ctx, "ABCDEF")
	if err != nil {
		t.Fatal(err)
	}
	if got.Words[0] != "worldly" {
		t.Errorf("stored word = %q, caller mutation leaked in", got.Words[0])
	}
	got.Words[0] = "mutated-again"
	again, _ := m.Get(ctx, "ABCDEF")
	if again.Words[0] != "worldly" {
		t.Errorf("stored word = %q, reader mutation leaked in", again.Words[0])
	}
}
