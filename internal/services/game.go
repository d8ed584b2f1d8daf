package services

import (
	"context"
	"math"

	"chessmistry-api/internal/apperrors"
	"chessmistry-api/internal/models"
	"chessmistry-api/internal/repositories"
	"chessmistry-api/internal/stats"

	"go.uber.org/zap"
)

// DefaultLeaderboardLimit is used when the caller does not ask for a size.
const DefaultLeaderboardLimit = 100

// Upper bounds for a single reported game. They keep every counter inside
// a 32-bit column.
const (
	maxGameMoves    = 10_000
	maxGameDuration = 7 * 24 * 60 * 60
)

// GameService records finished games and serves the derived views
type GameService struct {
	store            repositories.Store
	notifier         Notifier
	metrics          *stats.Collector
	logger           *zap.Logger
	leaderboardLimit int
}

// NewGameService creates a new game service
func NewGameService(
	store repositories.Store,
	notifier Notifier,
	metrics *stats.Collector,
	logger *zap.Logger,
	leaderboardLimit int,
) *GameService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if leaderboardLimit <= 0 {
		leaderboardLimit = DefaultLeaderboardLimit
	}
	return &GameService{
		store:            store,
		notifier:         notifier,
		metrics:          metrics,
		logger:           logger.Named("game"),
		leaderboardLimit: leaderboardLimit,
	}
}

// RecordGame folds a finished game into the user's totals and appends it to
// their history in one transaction.
func (s *GameService) RecordGame(ctx context.Context, username string, in models.GameInput) (*models.GameRecord, error) {
	if err := validateGameInput(in); err != nil {
		return nil, err
	}
	username = NormalizeUsername(username)

	var record *models.GameRecord
	user, err := updateUser(ctx, s.store, username, func(tx repositories.Repositories, u *models.User) error {
		u.ApplyResult(in.Result, in.TotalMoves)
		// A retried attempt builds a fresh record.
		record = models.NewGameRecord(u.ID, in, utcNow())
		return tx.Games().Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveGame(string(in.Result))
	s.logger.Debug("game recorded",
		zap.String("username", username),
		zap.Int64("game_id", record.ID),
		zap.String("result", string(in.Result)),
		zap.Int("wins", user.Wins),
		zap.Int("games_played", user.GamesPlayed),
	)
	s.notifier.Notify(*user)

	return record, nil
}

func validateGameInput(in models.GameInput) error {
	switch {
	case !in.Result.Valid():
		return apperrors.Validation("unknown result %q", in.Result)
	case !in.OpponentType.Valid():
		return apperrors.Validation("unknown opponent type %q", in.OpponentType)
	case !in.GameMode.Valid():
		return apperrors.Validation("unknown game mode %q", in.GameMode)
	case in.TotalMoves < 0 || in.TotalMoves > maxGameMoves:
		return apperrors.Validation("total moves must be between 0 and %d", maxGameMoves)
	case in.DurationSeconds < 0 || in.DurationSeconds > maxGameDuration:
		return apperrors.Validation("duration must be between 0 and %d seconds", maxGameDuration)
	case in.BlunderCount < 0 || in.BlunderCount > maxGameMoves:
		return apperrors.Validation("blunder count must be between 0 and %d", maxGameMoves)
	case math.IsNaN(in.AccuracyScore) || in.AccuracyScore < 0 || in.AccuracyScore > 100:
		return apperrors.Validation("accuracy must be between 0 and 100")
	}
	return nil
}

// History returns the user's games, newest first
func (s *GameService) History(ctx context.Context, username string) ([]*models.GameRecord, error) {
	user, err := s.store.Users().GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, storeError(err)
	}

	records, err := s.store.Games().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return records, nil
}

// Leaderboard ranks users by wins. limit <= 0 uses the configured default.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > s.leaderboardLimit {
		limit = s.leaderboardLimit
	}

	users, err := s.store.Users().ListByWins(ctx, limit)
	if err != nil {
		return nil, storeError(err)
	}

	entries := make([]models.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = models.NewLeaderboardEntry(i+1, u)
	}
	return entries, nil
}
