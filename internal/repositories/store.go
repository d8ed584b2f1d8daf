package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// txAttempts bounds WithinTx: the first attempt plus one retry on conflict.
const txAttempts = 2

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// SQLStore implements Store over sqlx for Postgres and SQLite
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
	sqlRepositories
}

// NewSQLStore wraps db, picking the SQL dialect from its driver name.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	d, err := dialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	return &SQLStore{
		db:              db,
		dialect:         d,
		sqlRepositories: sqlRepositories{q: db, d: d},
	}, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside a transaction, retrying once on a serialization conflict.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx Repositories) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}

func (s *SQLStore) runTx(ctx context.Context, fn func(tx Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.classify(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(sqlRepositories{q: tx, d: s.dialect}); err != nil {
		return s.classify(err)
	}

	if err = tx.Commit(); err != nil {
		return s.classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// classify tags retryable backend errors with ErrConflict.
func (s *SQLStore) classify(err error) error {
	if err != nil && !errors.Is(err, ErrConflict) && s.dialect.isConflict(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// sqlRepositories binds the entity repositories to a connection or a transaction.
type sqlRepositories struct {
	q sqlx.ExtContext
	d dialect
}

func (r sqlRepositories) Users() UserRepository {
	return &SQLUserRepository{q: r.q, d: r.d}
}

func (r sqlRepositories) Games() GameRepository {
	return &SQLGameRepository{q: r.q}
}

func (r sqlRepositories) Challenges() ChallengeRepository {
	return &SQLChallengeRepository{q: r.q}
}

// insertReturningID runs a named INSERT ... RETURNING id and returns the id.
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, arg any) (int64, error) {
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(bound), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
