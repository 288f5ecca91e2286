// internal/game/game.go
//
// State machine for a two-player word-relay match.
// Responsibilities:
//   - Roster management: up to two players, joined once, never removed.
//   - Turn-taking: the earliest joiner moves first, turn flips on every
//     accepted word.
//   - Word chaining: each word must start with the last letter of the
//     previous one and must not repeat.
//   - Termination: the first quit hands the win to the other player;
//     the outcome is write-once.
//
// Notes:
//   - This package is pure logic with no I/O. Capacity (numPlayers < 2) is
//     enforced by the session layer's conditioned commit, not by Join.
//   - Word shape (length, alphabet) and dictionary membership are checked by
//     the caller before AddWord; AddWord only enforces turn/order/duplicates.

package game

import (
	"crypto/rand"
	"math/big"
	"time"
)

const gameIDLen = 6

// New constructs an empty game with the given id.
func New(gameID string) *Game {
	return &Game{
		GameID:      gameID,
		Clients:     map[string]Client{},
		Words:       []string{},
		DateCreated: time.Now().UnixMilli(),
		wordsSet:    map[string]struct{}{},
	}
}

// NewGameID returns a random 6-letter uppercase game code.
// Uniqueness is confirmed against storage at create time, not here.
func NewGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, gameIDLen)
	for i := range b {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		b[i] = letters[n.Int64()]
	}
	return string(b)
}

// other returns the roster userId that is not the given one.
func (g *Game) other(userID string) string {
	for id := range g.Clients {
		if id != userID {
			return id
		}
	}
	return ""
}

// Join adds a player to the roster. Returns true if the game became full
// (two players, turn assigned) and false otherwise — including the failure
// case where the player is already in the roster, which is a no-op.
func (g *Game) Join(userID, username, connectionID string) bool {
	if _, ok := g.Clients[userID]; ok {
		return false
	}
	g.Clients[userID] = Client{
		Username:     username,
		ConnectionID: connectionID,
		Connected:    true,
	}
	g.NumPlayers++
	if len(g.Clients) > 1 {
		// The player who joined first moves first.
		g.Turn = g.other(userID)
		return true
	}
	return false
}

// AddWord appends a word to the history and flips the turn. Returns false
// with no mutation when the game is decided, the word was already played,
// the turn is unassigned, it is not this player's turn, or the word does not
// chain on the previous word's last letter.
//
// Precondition: word is a real word of valid shape (caller-checked).
func (g *Game) AddWord(word, userID string) bool {
	if g.Winner != "" || g.Turn == "" || userID != g.Turn {
		return false
	}
	if _, played := g.wordsSet[word]; played {
		return false
	}
	if n := len(g.Words); n > 0 {
		last := g.Words[n-1]
		if word[0] != last[len(last)-1] {
			return false
		}
	}
	g.Words = append(g.Words, word)
	g.wordsSet[word] = struct{}{}
	g.Turn = g.other(g.Turn)
	return true
}

// Quit marks the player disconnected and, if the game is still undecided,
// awards the win to the other player. Returns true only when this call is
// the one that set the winner; later quits are no-ops on the outcome.
//
// Precondition: userID is in the roster.
func (g *Game) Quit(userID string) bool {
	c := g.Clients[userID]
	c.Connected = false
	g.Clients[userID] = c
	if g.Winner != "" {
		return false
	}
	g.Winner = g.other(userID)
	g.IsOver = true
	return true
}

// ActiveConnectionIDs returns the connection ids of currently connected
// roster entries (at most two).
func (g *Game) ActiveConnectionIDs() []string {
	out := []string{}
	for _, c := range g.Clients {
		if c.Connected {
			out = append(out, c.ConnectionID)
		}
	}
	return out
}

// HasConnection reports whether the connection id belongs to a currently
// connected player of this game.
func (g *Game) HasConnection(connectionID string) bool {
	for _, c := range g.Clients {
		if c.Connected && c.ConnectionID == connectionID {
			return true
		}
	}
	return false
}

// Snapshot produces the serializable projection of the game. The maps and
// slices are copied so the snapshot does not alias live state.
func (g *Game) Snapshot() Snapshot {
	clients := make(map[string]Client, len(g.Clients))
	for id, c := range g.Clients {
		clients[id] = c
	}
	words := make([]string, len(g.Words))
	copy(words, g.Words)
	return Snapshot{
		GameID:      g.GameID,
		Turn:        g.Turn,
		Winner:      g.Winner,
		Clients:     clients,
		Words:       words,
		DateCreated: g.DateCreated,
		NumPlayers:  g.NumPlayers,
		IsOver:      g.IsOver,
	}
}

// FromSnapshot rebuilds a Game from its stored projection, including the
// duplicate-check set derived from the word list.
func FromSnapshot(s Snapshot) *Game {
	g := &Game{
		GameID:      s.GameID,
		Turn:        s.Turn,
		Winner:      s.Winner,
		Clients:     make(map[string]Client, len(s.Clients)),
		Words:       make([]string, len(s.Words)),
		DateCreated: s.DateCreated,
		NumPlayers:  s.NumPlayers,
		IsOver:      s.IsOver,
		wordsSet:    make(map[string]struct{}, len(s.Words)),
	}
	for id, c := range s.Clients {
		g.Clients[id] = c
	}
	copy(g.Words, s.Words)
	for _, w := range s.Words {
		g.wordsSet[w] = struct{}{}
	}
	return g
}
