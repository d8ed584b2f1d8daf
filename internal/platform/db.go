// db.go : used for connecting to the relational store (Postgres in production, SQLite locally)

package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Import the PostgreSQL driver (blank import)
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// ConnectDB opens and pings the database for driver.
//
// For SQLite, dsn is a file path. Writers are funnelled through one connection
// and transactions start with BEGIN IMMEDIATE so read-modify-write cycles on a
// row cannot interleave.
func ConnectDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("connection string for %s is required", driver)
	}

	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		dsn = filepath.Clean(dsn) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	// Ping the database to ensure the connection is good.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
