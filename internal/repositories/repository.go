package repositories

import (
	"context"
	"errors"

	"chessmistry-api/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrConflict reports a serialization or lock conflict that a retry may resolve.
	ErrConflict = errors.New("transaction conflict")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByUsernameForUpdate loads the user and holds its row lock until the
	// surrounding transaction ends.
	GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	// ListByWins returns users ordered by wins desc, then joined_at asc, then id asc.
	ListByWins(ctx context.Context, limit int) ([]*models.User, error)
}

// GameRepository defines the interface for the append-only game log
type GameRepository interface {
	Create(ctx context.Context, record *models.GameRecord) error
	// ListByUser returns the user's records newest first.
	ListByUser(ctx context.Context, userID int64) ([]*models.GameRecord, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// ChallengeRepository defines the interface for the static challenge catalog
type ChallengeRepository interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, challenge *models.Challenge) error
	ListActive(ctx context.Context) ([]*models.Challenge, error)
	ListActiveByDifficulty(ctx context.Context, difficulty models.Difficulty) ([]*models.Challenge, error)
}

// Repositories groups the entity repositories bound to one connection or transaction.
type Repositories interface {
	Users() UserRepository
	Games() GameRepository
	Challenges() ChallengeRepository
}

// Store is the relational store the services run against.
type Store interface {
	Repositories
	// WithinTx runs fn in a single transaction. fn may run twice when the first
	// attempt hits ErrConflict, so it must not have side effects outside tx.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
	Ping(ctx context.Context) error
}
