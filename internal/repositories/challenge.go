package repositories

import (
	"context"

	"chessmistry-api/internal/models"

	"github.com/jmoiron/sqlx"
)

type challengeRow struct {
	ID            int64  `db:"id"`
	Title         string `db:"title"`
	Description   string `db:"description"`
	FEN           string `db:"fen"`
	SolutionMoves string `db:"solution_moves"`
	Difficulty    string `db:"difficulty"`
	Points        int    `db:"points"`
	Active        bool   `db:"active"`
}

func (r challengeRow) toModel() *models.Challenge {
	return &models.Challenge{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		FEN:           r.FEN,
		SolutionMoves: r.SolutionMoves,
		Difficulty:    models.Difficulty(r.Difficulty),
		Points:        r.Points,
		Active:        r.Active,
	}
}

// SQLChallengeRepository implements ChallengeRepository
type SQLChallengeRepository struct {
	q sqlx.ExtContext
}

// Count returns the number of stored challenges, active or not
func (r *SQLChallengeRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM challenges`); err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a challenge and sets its ID
func (r *SQLChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	query := `
		INSERT INTO challenges (title, description, fen, solution_moves, difficulty, points, active)
		VALUES (:title, :description, :fen, :solution_moves, :difficulty, :points, :active)
		RETURNING id
	`
	row := challengeRow{
		Title:         c.Title,
		Description:   c.Description,
		FEN:           c.FEN,
		SolutionMoves: c.SolutionMoves,
		Difficulty:    string(c.Difficulty),
		Points:        c.Points,
		Active:        c.Active,
	}

	id, err := insertReturningID(ctx, r.q, query, row)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// ListActive returns every active challenge in insertion order
func (r *SQLChallengeRepository) ListActive(ctx context.Context) ([]*models.Challenge, error) {
	return r.list(ctx, `SELECT * FROM challenges WHERE active = ? ORDER BY id`, true)
}

// ListActiveByDifficulty returns active challenges of one tier
func (r *SQLChallengeRepository) ListActiveByDifficulty(ctx context.Context, difficulty models.Difficulty) ([]*models.Challenge, error) {
	return r.list(ctx, `SELECT * FROM challenges WHERE active = ? AND difficulty = ? ORDER BY id`, true, string(difficulty))
}

func (r *SQLChallengeRepository) list(ctx context.Context, query string, args ...any) ([]*models.Challenge, error) {
	var rows []challengeRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}

	challenges := make([]*models.Challenge, 0, len(rows))
	for _, row := range rows {
		challenges = append(challenges, row.toModel())
	}
	return challenges, nil
}
