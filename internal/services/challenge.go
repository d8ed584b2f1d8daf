package services

import (
	"context"
	"fmt"

	"chessmistry-api/internal/models"
	"chessmistry-api/internal/repositories"

	"go.uber.org/zap"
)

// ChallengeService serves the built-in puzzle catalog
type ChallengeService struct {
	store  repositories.Store
	logger *zap.Logger
}

func NewChallengeService(store repositories.Store, logger *zap.Logger) *ChallengeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChallengeService{store: store, logger: logger.Named("challenge")}
}

// Seed inserts the default challenges when the catalog is empty. A default
// with an unparsable FEN fails the whole seed.
func (s *ChallengeService) Seed(ctx context.Context) error {
	defaults := models.DefaultChallenges()
	for _, c := range defaults {
		if _, err := models.SideToMove(c.FEN); err != nil {
			return fmt.Errorf("challenge %q: %w", c.Title, err)
		}
	}

	seeded := false
	err := s.store.WithinTx(ctx, func(tx repositories.Repositories) error {
		seeded = false
		count, err := tx.Challenges().Count(ctx)
		if err != nil || count > 0 {
			return err
		}
		for _, c := range models.DefaultChallenges() {
			if err := tx.Challenges().Create(ctx, c); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return storeError(err)
	}

	if seeded {
		s.logger.Info("seeded challenges", zap.Int("count", len(defaults)))
	}
	return nil
}

// ListActive returns every active challenge
func (s *ChallengeService) ListActive(ctx context.Context) ([]*models.Challenge, error) {
	challenges, err := s.store.Challenges().ListActive(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return s.withTurn(challenges), nil
}

// ListByDifficulty returns the active challenges of one tier. level is
// case-insensitive.
func (s *ChallengeService) ListByDifficulty(ctx context.Context, level string) ([]*models.Challenge, error) {
	difficulty, err := models.ParseDifficulty(level)
	if err != nil {
		return nil, validationError(err)
	}

	challenges, err := s.store.Challenges().ListActiveByDifficulty(ctx, difficulty)
	if err != nil {
		return nil, storeError(err)
	}
	return s.withTurn(challenges), nil
}

func (s *ChallengeService) withTurn(challenges []*models.Challenge) []*models.Challenge {
	for _, c := range challenges {
		turn, err := models.SideToMove(c.FEN)
		if err != nil {
			s.logger.Warn("stored challenge has an invalid position", zap.Int64("challenge_id", c.ID), zap.Error(err))
			continue
		}
		c.Turn = turn
	}
	return challenges
}
