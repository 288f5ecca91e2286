// internal/words/words.go
//
// Dictionary for the word-relay game.
//
// Responsibilities:
//   - Load the word list from an environment-provided file or fall back to a
//     small embedded default.
//   - Maintain a set for O(1) membership lookups.
//   - Provide checkers satisfying the session layer's oracle interface:
//     ListChecker (in-memory set) and TableChecker (sqlite words table).
//
// Initialization behavior (Init):
//   1. If WORDS_FILE is set, load one word per line from that file.
//   2. Otherwise fall back to the embedded default list.
//
// Constraints:
//   • Only lowercase alphabetic words of at least 6 letters are kept;
//     shorter or malformed lines are dropped during load.
//   • Lists are normalized to lowercase.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"strings"
	"sync"
)

// minLen mirrors the game's minimum word length; shorter dictionary entries
// could never be played.
const minLen = 6

//go:embed default_small_words.txt
var embeddedWords string

var (
	initOnce   sync.Once
	wordSet    map[string]struct{}
	initialErr error
)

// Init loads the word list exactly once.
// Returns an error if the list ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []string
		if path := os.Getenv("WORDS_FILE"); path != "" {
			var err error
			list, err = readWordFile(path)
			if err != nil {
				initialErr = err
				return
			}
		} else {
			list = normalizeLines(embeddedWords)
		}
		wordSet = toSet(list)
		if len(wordSet) == 0 {
			initialErr = errors.New("words: word list is empty")
		}
	})
	return initialErr
}

// readWordFile loads one word per line from a file, lowercases, trims, and
// keeps only valid entries.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.TrimSpace(strings.ToLower(sc.Text()))
		if len(w) >= minLen && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}

// normalizeLines processes an embedded multiline string into valid entries.
func normalizeLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		w := strings.TrimSpace(strings.ToLower(line))
		if len(w) >= minLen && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

// toSet converts a list of strings into a lookup set.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, w := range list {
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Contains reports whether w is in the loaded list.
func Contains(w string) bool {
	_, ok := wordSet[strings.ToLower(w)]
	return ok
}

// Count returns the number of loaded words.
func Count() int { return len(wordSet) }

// ListChecker answers dictionary queries from the loaded in-memory list.
type ListChecker struct{}

func (ListChecker) IsWord(ctx context.Context, word string) (bool, error) {
	return Contains(word), nil
}

// TableChecker answers dictionary queries from the words table, for
// deployments that seed the full dictionary into the database instead of
// shipping a file.
type TableChecker struct {
	DB *sql.DB
}

func (t TableChecker) IsWord(ctx context.Context, word string) (bool, error) {
	var one int
	err := t.DB.QueryRowContext(ctx,
		`SELECT 1 FROM words WHERE word=?`, word,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// TableCount returns the number of rows in the words table; used at startup
// to decide whether the table is seeded.
func TableCount(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM words`).Scan(&n)
	return n, err
}
