package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect captures the few places Postgres and SQLite disagree.
type dialect struct {
	name       string
	idColumn   string
	forUpdate  string
	isConflict func(error) bool
	isUnique   func(error) bool
}

var postgresDialect = dialect{
	name:      "postgres",
	idColumn:  "BIGSERIAL PRIMARY KEY",
	forUpdate: " FOR UPDATE",
	isConflict: func(err error) bool {
		var pqErr *pq.Error
		if !errors.As(err, &pqErr) {
			return false
		}
		// serialization_failure, deadlock_detected
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	},
	isUnique: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	},
}

// SQLite has no row locks; the connection opens transactions with BEGIN
// IMMEDIATE, which takes the database write lock up front.
var sqliteDialect = dialect{
	name:      "sqlite",
	idColumn:  "INTEGER PRIMARY KEY AUTOINCREMENT",
	forUpdate: "",
	isConflict: func(err error) bool {
		code, ok := sqliteCode(err)
		return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
	},
	isUnique: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	// primary result code lives in the low byte
	return sqliteErr.Code() & 0xff, true
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect, nil
	case "sqlite":
		return sqliteDialect, nil
	}
	return dialect{}, fmt.Errorf("no dialect for driver %q", driver)
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + d.idColumn + `,
			username VARCHAR(30) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name VARCHAR(50) NOT NULL DEFAULT '',
			profile_photo_url TEXT NOT NULL DEFAULT '',
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			draws INTEGER NOT NULL DEFAULT 0,
			games_played INTEGER NOT NULL DEFAULT 0,
			total_moves BIGINT NOT NULL DEFAULT 0,
			best_streak INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			device_id TEXT NOT NULL DEFAULT '',
			device_name TEXT NOT NULL DEFAULT '',
			theme_preference TEXT NOT NULL DEFAULT 'dark',
			joined_at BIGINT NOT NULL,
			last_login BIGINT NOT NULL,
			CHECK (games_played = wins + losses + draws),
			CHECK (best_streak >= current_streak)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_leaderboard ON users (wins DESC, joined_at ASC, id ASC)`,
		`CREATE TABLE IF NOT EXISTS game_records (
			id ` + d.idColumn + `,
			user_id BIGINT NOT NULL REFERENCES users(id),
			opponent_type VARCHAR(16) NOT NULL,
			game_mode VARCHAR(16) NOT NULL,
			result VARCHAR(8) NOT NULL,
			total_moves INTEGER NOT NULL DEFAULT 0,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			pgn TEXT NOT NULL DEFAULT '',
			blunder_count INTEGER NOT NULL DEFAULT 0,
			accuracy_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			played_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_records_user ON game_records (user_id, played_at DESC)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			id ` + d.idColumn + `,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			fen TEXT NOT NULL,
			solution_moves TEXT NOT NULL DEFAULT '',
			difficulty VARCHAR(16) NOT NULL,
			points INTEGER NOT NULL DEFAULT 10,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}
}
