package repositories

import (
	"context"

	"chessmistry-api/internal/models"

	"github.com/jmoiron/sqlx"
)

type gameRow struct {
	ID              int64   `db:"id"`
	UserID          int64   `db:"user_id"`
	OpponentType    string  `db:"opponent_type"`
	GameMode        string  `db:"game_mode"`
	Result          string  `db:"result"`
	TotalMoves      int     `db:"total_moves"`
	DurationSeconds int     `db:"duration_seconds"`
	PGN             string  `db:"pgn"`
	BlunderCount    int     `db:"blunder_count"`
	AccuracyScore   float64 `db:"accuracy_score"`
	PlayedAt        int64   `db:"played_at"`
}

func gameToRow(g *models.GameRecord) gameRow {
	return gameRow{
		ID:              g.ID,
		UserID:          g.UserID,
		OpponentType:    string(g.OpponentType),
		GameMode:        string(g.GameMode),
		Result:          string(g.Result),
		TotalMoves:      g.TotalMoves,
		DurationSeconds: g.DurationSeconds,
		PGN:             g.PGN,
		BlunderCount:    g.BlunderCount,
		AccuracyScore:   g.AccuracyScore,
		PlayedAt:        toMillis(g.PlayedAt),
	}
}

func (r gameRow) toModel() *models.GameRecord {
	return &models.GameRecord{
		ID:              r.ID,
		UserID:          r.UserID,
		OpponentType:    models.OpponentType(r.OpponentType),
		GameMode:        models.GameMode(r.GameMode),
		Result:          models.GameResult(r.Result),
		TotalMoves:      r.TotalMoves,
		DurationSeconds: r.DurationSeconds,
		PGN:             r.PGN,
		BlunderCount:    r.BlunderCount,
		AccuracyScore:   r.AccuracyScore,
		PlayedAt:        fromMillis(r.PlayedAt),
	}
}

// SQLGameRepository implements GameRepository. Records are insert-only.
type SQLGameRepository struct {
	q sqlx.ExtContext
}

// Create appends a record and sets its ID
func (r *SQLGameRepository) Create(ctx context.Context, record *models.GameRecord) error {
	query := `
		INSERT INTO game_records (
			user_id, opponent_type, game_mode, result, total_moves,
			duration_seconds, pgn, blunder_count, accuracy_score, played_at
		) VALUES (
			:user_id, :opponent_type, :game_mode, :result, :total_moves,
			:duration_seconds, :pgn, :blunder_count, :accuracy_score, :played_at
		)
		RETURNING id
	`

	id, err := insertReturningID(ctx, r.q, query, gameToRow(record))
	if err != nil {
		return err
	}
	record.ID = id
	return nil
}

// ListByUser returns the user's history newest first
func (r *SQLGameRepository) ListByUser(ctx context.Context, userID int64) ([]*models.GameRecord, error) {
	var rows []gameRow

	query := r.q.Rebind(`
		SELECT id, user_id, opponent_type, game_mode, result, total_moves,
			duration_seconds, pgn, blunder_count, accuracy_score, played_at
		FROM game_records
		WHERE user_id = ?
		ORDER BY played_at DESC, id DESC
	`)

	if err := sqlx.SelectContext(ctx, r.q, &rows, query, userID); err != nil {
		return nil, err
	}

	records := make([]*models.GameRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toModel())
	}
	return records, nil
}

// CountByUser returns how many records the user owns
func (r *SQLGameRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	query := r.q.Rebind(`SELECT COUNT(*) FROM game_records WHERE user_id = ?`)
	if err := sqlx.GetContext(ctx, r.q, &count, query, userID); err != nil {
		return 0, err
	}
	return count, nil
}
