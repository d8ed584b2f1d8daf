package repositories

import (
	"context"
	"database/sql"
	"errors"

	"chessmistry-api/internal/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, password_hash, display_name, profile_photo_url,
	wins, losses, draws, games_played, total_moves, best_streak, current_streak,
	device_id, device_name, theme_preference, joined_at, last_login`

// userRow is the storage encoding of models.User
type userRow struct {
	ID              int64  `db:"id"`
	Username        string `db:"username"`
	PasswordHash    string `db:"password_hash"`
	DisplayName     string `db:"display_name"`
	ProfilePhotoURL string `db:"profile_photo_url"`
	Wins            int    `db:"wins"`
	Losses          int    `db:"losses"`
	Draws           int    `db:"draws"`
	GamesPlayed     int    `db:"games_played"`
	TotalMoves      int    `db:"total_moves"`
	BestStreak      int    `db:"best_streak"`
	CurrentStreak   int    `db:"current_streak"`
	DeviceID        string `db:"device_id"`
	DeviceName      string `db:"device_name"`
	ThemePreference string `db:"theme_preference"`
	JoinedAt        int64  `db:"joined_at"`
	LastLogin       int64  `db:"last_login"`
}

func userToRow(u *models.User) userRow {
	return userRow{
		ID:              u.ID,
		Username:        u.Username,
		PasswordHash:    u.PasswordHash,
		DisplayName:     u.DisplayName,
		ProfilePhotoURL: u.ProfilePhotoURL,
		Wins:            u.Wins,
		Losses:          u.Losses,
		Draws:           u.Draws,
		GamesPlayed:     u.GamesPlayed,
		TotalMoves:      u.TotalMoves,
		BestStreak:      u.BestStreak,
		CurrentStreak:   u.CurrentStreak,
		DeviceID:        u.DeviceID,
		DeviceName:      u.DeviceName,
		ThemePreference: u.ThemePreference,
		JoinedAt:        toMillis(u.JoinedAt),
		LastLogin:       toMillis(u.LastLogin),
	}
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:              r.ID,
		Username:        r.Username,
		PasswordHash:    r.PasswordHash,
		DisplayName:     r.DisplayName,
		ProfilePhotoURL: r.ProfilePhotoURL,
		Wins:            r.Wins,
		Losses:          r.Losses,
		Draws:           r.Draws,
		GamesPlayed:     r.GamesPlayed,
		TotalMoves:      r.TotalMoves,
		BestStreak:      r.BestStreak,
		CurrentStreak:   r.CurrentStreak,
		DeviceID:        r.DeviceID,
		DeviceName:      r.DeviceName,
		ThemePreference: r.ThemePreference,
		JoinedAt:        fromMillis(r.JoinedAt),
		LastLogin:       fromMillis(r.LastLogin),
	}
}

// SQLUserRepository implements UserRepository using SQL database
type SQLUserRepository struct {
	q sqlx.ExtContext
	d dialect
}

// Create adds a new user to the database and sets its ID
func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			username, password_hash, display_name, profile_photo_url,
			wins, losses, draws, games_played, total_moves, best_streak, current_streak,
			device_id, device_name, theme_preference, joined_at, last_login
		) VALUES (
			:username, :password_hash, :display_name, :profile_photo_url,
			:wins, :losses, :draws, :games_played, :total_moves, :best_streak, :current_streak,
			:device_id, :device_name, :theme_preference, :joined_at, :last_login
		)
		RETURNING id
	`

	id, err := insertReturningID(ctx, r.q, query, userToRow(user))
	if err != nil {
		if r.d.isUnique(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	user.ID = id
	return nil
}

// GetByUsername retrieves a user by username
func (r *SQLUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByUsernameForUpdate retrieves a user by username and locks the row
func (r *SQLUserRepository) GetByUsernameForUpdate(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`+r.d.forUpdate, username)
}

func (r *SQLUserRepository) get(ctx context.Context, query string, args ...any) (*models.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// Exists reports whether username is taken
func (r *SQLUserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := r.q.Rebind(`SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`)
	if err := sqlx.GetContext(ctx, r.q, &exists, query, username); err != nil {
		return false, err
	}
	return exists, nil
}

// Update updates an existing user. The username is immutable and used as key.
func (r *SQLUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			password_hash = :password_hash,
			display_name = :display_name,
			profile_photo_url = :profile_photo_url,
			wins = :wins,
			losses = :losses,
			draws = :draws,
			games_played = :games_played,
			total_moves = :total_moves,
			best_streak = :best_streak,
			current_streak = :current_streak,
			device_id = :device_id,
			device_name = :device_name,
			theme_preference = :theme_preference,
			last_login = :last_login
		WHERE username = :username
	`

	result, err := sqlx.NamedExecContext(ctx, r.q, query, userToRow(user))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListByWins returns at most limit users for the leaderboard
func (r *SQLUserRepository) ListByWins(ctx context.Context, limit int) ([]*models.User, error) {
	var rows []userRow

	query := r.q.Rebind(`
		SELECT ` + userColumns + ` FROM users
		ORDER BY wins DESC, joined_at ASC, id ASC
		LIMIT ?
	`)

	if err := sqlx.SelectContext(ctx, r.q, &rows, query, limit); err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}
