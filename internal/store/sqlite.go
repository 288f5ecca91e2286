// internal/store/sqlite.go
//
// SQLite-backed implementation of the Store interface.
//
// Layout (see sql/001_init.sql):
//   - games: one row per game. The full snapshot is stored as JSON; is_over,
//     turn and num_players are mirrored into columns so preconditions can be
//     evaluated without decoding the snapshot.
//   - connections: one row per live connection (connection_id, user_id,
//     game_id).
//
// Each conditional put runs inside a single transaction: read the condition
// columns, evaluate the precondition, then insert/update. The database's
// transaction isolation is what makes the compare-and-swap atomic across
// processes.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wordrelay/go-server/internal/game"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database handle. The schema must already be
// migrated (see main.go).
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Get(ctx context.Context, gameID string) (game.Snapshot, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM games WHERE game_id=?`, gameID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return game.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return snap, nil
}

func (s *sqliteStore) Put(ctx context.Context, snap game.Snapshot, pre Precondition) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putTx(ctx, tx, snap, pre)
	})
}

func (s *sqliteStore) PutWithBinding(ctx context.Context, snap game.Snapshot, pre Precondition, connectionID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := putTx(ctx, tx, snap, pre); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE connections SET game_id=? WHERE connection_id=?`,
			snap.GameID, connectionID)
		if err != nil {
			return fmt.Errorf("bind connection %s: %w", connectionID, err)
		}
		return nil
	})
}

// inTx runs fn inside a transaction, committing on success.
func (s *sqliteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// putTx evaluates the precondition against the stored row and writes the
// snapshot, all within the caller's transaction.
func putTx(ctx context.Context, tx *sql.Tx, snap game.Snapshot, pre Precondition) error {
	var cur game.Snapshot
	exists := true
	err := tx.QueryRowContext(ctx,
		`SELECT is_over, turn, num_players FROM games WHERE game_id=?`,
		snap.GameID,
	).Scan(&cur.IsOver, &cur.Turn, &cur.NumPlayers)
	if err == sql.ErrNoRows {
		exists = false
	} else if err != nil {
		return fmt.Errorf("read game %s: %w", snap.GameID, err)
	}

	if !pre.holds(exists, cur) {
		return ErrConflict
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", snap.GameID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (game_id, snapshot, is_over, turn, num_players)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			snapshot=excluded.snapshot,
			is_over=excluded.is_over,
			turn=excluded.turn,
			num_players=excluded.num_players`,
		snap.GameID, raw, snap.IsOver, snap.Turn, snap.NumPlayers)
	if err != nil {
		return fmt.Errorf("write game %s: %w", snap.GameID, err)
	}
	return nil
}

func (s *sqliteStore) PutBinding(ctx context.Context, b Binding) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connections (connection_id, user_id, game_id)
		VALUES (?, ?, ?)
		ON CONFLICT(connection_id) DO UPDATE SET
			user_id=excluded.user_id,
			game_id=excluded.game_id`,
		b.ConnectionID, b.UserID, b.GameID)
	return err
}

func (s *sqliteStore) GetBinding(ctx context.Context, connectionID string) (Binding, error) {
	var b Binding
	b.ConnectionID = connectionID
	var gameID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, game_id FROM connections WHERE connection_id=?`,
		connectionID,
	).Scan(&b.UserID, &gameID)
	if err == sql.ErrNoRows {
		return Binding{}, ErrNotFound
	}
	if err != nil {
		return Binding{}, fmt.Errorf("get binding %s: %w", connectionID, err)
	}
	b.GameID = gameID.String
	return b, nil
}

func (s *sqliteStore) ClearBindingGame(ctx context.Context, connectionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE connections SET game_id='' WHERE connection_id=?`, connectionID)
	return err
}

func (s *sqliteStore) DeleteBinding(ctx context.Context, connectionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM connections WHERE connection_id=?`, connectionID)
	return err
}
