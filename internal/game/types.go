// internal/game/types.go
//
// Core type definitions for the word-relay game entity.
// Defines:
//   - Client: one player's roster entry (name, connection, connected flag).
//   - Snapshot: the full client-visible / stored projection of a game.
//   - Game: the authoritative in-memory state of a single match.

package game

// Client is one player's entry in a game roster.
type Client struct {
	Username     string `json:"username"`
	ConnectionID string `json:"connectionId"`
	Connected    bool   `json:"connected"`
}

// Snapshot is the serializable projection of a Game. It is what gets written
// to storage and what gets pushed to clients; the two shapes are identical.
// The duplicate-check set is not part of it — it is rebuilt from Words.
type Snapshot struct {
	GameID      string            `json:"gameId"`
	Turn        string            `json:"turn"`   // userId to move next, "" until two players
	Winner      string            `json:"winner"` // userId, "" until the game ends
	Clients     map[string]Client `json:"clients"`
	Words       []string          `json:"words"`
	DateCreated int64             `json:"dateCreated"` // epoch millis
	NumPlayers  int               `json:"numPlayers"`
	IsOver      bool              `json:"isOver"`
}

// Game holds the state of a single match. All rule invariants (turn order,
// word chaining, duplicate words, write-once winner) are owned here; callers
// are responsible for dictionary and word-shape checks before AddWord.
type Game struct {
	GameID      string
	Turn        string // userId of the player to move, "" until two players joined
	Winner      string // userId of the winner, "" while the game is live
	Clients     map[string]Client
	Words       []string
	DateCreated int64
	NumPlayers  int
	IsOver      bool

	wordsSet map[string]struct{}
}
