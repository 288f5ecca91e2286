package game

import "testing"

func twoPlayerGame(t *testing.T) *Game {
	t.Helper()
	g := New("ABCDEF")
	if full := g.Join("p1", "alice", "conn-1"); full {
		t.Fatalf("first join reported game full")
	}
	if full := g.Join("p2", "bob", "conn-2"); !full {
		t.Fatalf("second join did not report game full")
	}
	return g
}

func TestJoinFirstPlayer(t *testing.T) {
	g := New("ABCDEF")
	g.Join("p1", "alice", "conn-1")

	if g.NumPlayers != 1 {
		t.Errorf("numPlayers = %d, want 1", g.NumPlayers)
	}
	if g.Turn != "" {
		t.Errorf("turn = %q, want unassigned", g.Turn)
	}
	if g.IsOver {
		t.Errorf("game over after single join")
	}
}

func TestJoinSecondPlayerAssignsTurnToFirst(t *testing.T) {
	g := twoPlayerGame(t)

	if g.NumPlayers != 2 {
		t.Errorf("numPlayers = %d, want 2", g.NumPlayers)
	}
	if g.Turn != "p1" {
		t.Errorf("turn = %q, want p1 (earliest joiner moves first)", g.Turn)
	}
}

func TestJoinDuplicatePlayerRejected(t *testing.T) {
	g := New("ABCDEF")
	g.Join("p1", "alice", "conn-1")
	if g.Join("p1", "alice", "conn-9") {
		t.Errorf("duplicate join reported game full")
	}
	if g.NumPlayers != 1 {
		t.Errorf("numPlayers = %d after duplicate join, want 1", g.NumPlayers)
	}
	if g.Clients["p1"].ConnectionID != "conn-1" {
		t.Errorf("duplicate join replaced connection id")
	}
}

func TestAddWordChainingAndTurnFlip(t *testing.T) {
	g := twoPlayerGame(t)

	if !g.AddWord("worldly", "p1") {
		t.Fatalf("first word rejected")
	}
	if g.Turn != "p2" {
		t.Errorf("turn = %q after p1's word, want p2", g.Turn)
	}

	// Does not chain: "validation" does not start with 'y'.
	if g.AddWord("validation", "p2") {
		t.Errorf("non-chaining word accepted")
	}
	if len(g.Words) != 1 || g.Turn != "p2" {
		t.Errorf("rejected word mutated state: words=%v turn=%q", g.Words, g.Turn)
	}

	if !g.AddWord("yellow", "p2") {
		t.Fatalf("chaining word rejected")
	}
	if g.Turn != "p1" {
		t.Errorf("turn = %q after p2's word, want p1", g.Turn)
	}
	if len(g.Words) != 2 || g.Words[0] != "worldly" || g.Words[1] != "yellow" {
		t.Errorf("words = %v, want [worldly yellow]", g.Words)
	}
}

func TestAddWordOutOfTurnRejected(t *testing.T) {
	g := twoPlayerGame(t)
	if g.AddWord("worldly", "p2") {
		t.Errorf("word accepted out of turn")
	}
	if len(g.Words) != 0 {
		t.Errorf("out-of-turn word mutated history")
	}
}

func TestAddWordBeforeOpponentRejected(t *testing.T) {
	g := New("ABCDEF")
	g.Join("p1", "alice", "conn-1")
	if g.AddWord("worldly", "p1") {
		t.Errorf("word accepted with no turn assigned")
	}
}

func TestAddWordDuplicateRejected(t *testing.T) {
	g := twoPlayerGame(t)
	g.AddWord("worldly", "p1")
	g.AddWord("yearly", "p2")
	if g.AddWord("yearly", "p1") {
		t.Errorf("duplicate word accepted")
	}
	if g.Turn != "p1" {
		t.Errorf("rejected duplicate flipped turn")
	}
}

func TestAddWordAfterGameOverRejected(t *testing.T) {
	g := twoPlayerGame(t)
	g.Quit("p2")
	if g.AddWord("worldly", "p1") {
		t.Errorf("word accepted after game over")
	}
}

// Turn must alternate strictly between the two players and every adjacent
// pair of accepted words must chain last letter to first letter.
func TestAcceptedSequenceInvariants(t *testing.T) {
	g := twoPlayerGame(t)
	seq := []string{"worldly", "yonder", "replay", "yellow", "wander"}
	players := []string{"p1", "p2"}
	for i, w := range seq {
		mover := players[i%2]
		if g.Turn != mover {
			t.Fatalf("word %d: turn = %q, want %q", i, g.Turn, mover)
		}
		if !g.AddWord(w, mover) {
			t.Fatalf("word %d (%q) rejected", i, w)
		}
	}
	seen := map[string]bool{}
	for i, w := range g.Words {
		if seen[w] {
			t.Errorf("duplicate word %q in history", w)
		}
		seen[w] = true
		if i > 0 {
			prev := g.Words[i-1]
			if w[0] != prev[len(prev)-1] {
				t.Errorf("words %q -> %q do not chain", prev, w)
			}
		}
	}
}

func TestQuitAwardsWinOnce(t *testing.T) {
	g := twoPlayerGame(t)

	if !g.Quit("p1") {
		t.Fatalf("first quit did not set winner")
	}
	if g.Winner != "p2" || !g.IsOver {
		t.Errorf("winner = %q isOver = %v, want p2/true", g.Winner, g.IsOver)
	}
	if g.Clients["p1"].Connected {
		t.Errorf("quitter still marked connected")
	}

	// The second quitter must not overwrite the outcome.
	if g.Quit("p2") {
		t.Errorf("second quit claimed the win")
	}
	if g.Winner != "p2" {
		t.Errorf("winner changed to %q after second quit", g.Winner)
	}
}

func TestConnectionQueries(t *testing.T) {
	g := twoPlayerGame(t)

	ids := g.ActiveConnectionIDs()
	if len(ids) != 2 {
		t.Fatalf("active connections = %v, want 2", ids)
	}
	if !g.HasConnection("conn-1") || !g.HasConnection("conn-2") {
		t.Errorf("missing live connection")
	}

	g.Quit("p1")
	ids = g.ActiveConnectionIDs()
	if len(ids) != 1 || ids[0] != "conn-2" {
		t.Errorf("active connections after quit = %v, want [conn-2]", ids)
	}
	if g.HasConnection("conn-1") {
		t.Errorf("quit connection still reported present")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := twoPlayerGame(t)
	g.AddWord("worldly", "p1")
	g.AddWord("yellow", "p2")

	restored := FromSnapshot(g.Snapshot())

	if restored.GameID != g.GameID || restored.Turn != g.Turn ||
		restored.Winner != g.Winner || restored.DateCreated != g.DateCreated ||
		restored.NumPlayers != g.NumPlayers || restored.IsOver != g.IsOver {
		t.Errorf("scalar fields not preserved: %+v vs %+v", restored, g)
	}
	if len(restored.Words) != len(g.Words) {
		t.Fatalf("words not preserved: %v", restored.Words)
	}
	for i := range g.Words {
		if restored.Words[i] != g.Words[i] {
			t.Errorf("word %d = %q, want %q", i, restored.Words[i], g.Words[i])
		}
	}
	for id, c := range g.Clients {
		if restored.Clients[id] != c {
			t.Errorf("client %q = %+v, want %+v", id, restored.Clients[id], c)
		}
	}

	// The rebuilt duplicate set must still reject replayed words.
	if restored.AddWord("worldly", restored.Turn) {
		t.Errorf("restored game accepted an already-played word")
	}
}

func TestSnapshotDoesNotAliasGame(t *testing.T) {
	g := twoPlayerGame(t)
	g.AddWord("worldly", "p1")
	snap := g.Snapshot()
	g.AddWord("yellow", "p2")
	if len(snap.Words) != 1 {
		t.Errorf("snapshot mutated by later play: %v", snap.Words)
	}
}

func TestNewGameID(t *testing.T) {
	id := NewGameID()
	if len(id) != 6 {
		t.Fatalf("id %q length = %d, want 6", id, len(id))
	}
	for _, r := range id {
		if r < 'A' || r > 'Z' {
			t.Errorf("id %q contains non-uppercase rune %q", id, r)
		}
	}
}
