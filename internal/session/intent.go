// internal/session/intent.go
//
// Wire shapes for the four client intents. An Intent is a tagged union
// dispatched on Method; each variant only reads the fields it needs. The
// actor (user id, display name, connection id) is never taken from the
// intent body — the transport attributes it from the authenticated
// connection.

package session

// Intent method tags.
const (
	MethodCreate = "create-game"
	MethodJoin   = "join-game"
	MethodWord   = "send-word"
	MethodQuit   = "quit-game"
)

// Config is the optional per-game configuration block threaded through the
// create path. It is accepted and logged but not consulted by rule logic:
// the 6-letter minimum and dictionary check are hardcoded.
type Config struct {
	MinChars  int    `json:"minChars"`
	Countdown int    `json:"countdown"` // seconds per turn, client-enforced
	WordGroup string `json:"wordGroup"` // "noun" | "adjective" | "verb"
}

// Intent is one client-originated request to mutate a game.
type Intent struct {
	Method string  `json:"method"`
	GameID string  `json:"gameId,omitempty"` // join, send-word, quit
	Word   string  `json:"word,omitempty"`   // send-word
	Config *Config `json:"config,omitempty"` // create
}

// Actor identifies the authenticated player behind an intent, as attributed
// by the transport layer.
type Actor struct {
	UserID       string
	Username     string
	ConnectionID string
}
