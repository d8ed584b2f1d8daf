package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"chessmistry-api/internal/models"
	"chessmistry-api/internal/platform"
	"chessmistry-api/internal/repositories"
	"chessmistry-api/internal/repositories/repotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)
	users := store.Users()

	u := models.NewUser("alice", "hash", "Alice")
	u.SetDevice("dev-1", "Pixel 8")
	require.NoError(t, users.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "dev-1", got.DeviceID)
	assert.Equal(t, models.DefaultTheme, got.ThemePreference)
	assert.WithinDuration(t, u.JoinedAt, got.JoinedAt, time.Millisecond)

	exists, err := users.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.Exists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepositoryDuplicate(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)

	require.NoError(t, store.Users().Create(ctx, models.NewUser("bob", "h", "")))
	err := store.Users().Create(ctx, models.NewUser("bob", "h2", ""))
	assert.ErrorIs(t, err, repositories.ErrUserAlreadyExists)
}

func TestUserRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)

	_, err := store.Users().GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)

	err = store.Users().Update(ctx, models.NewUser("ghost", "h", ""))
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestListByWinsOrdering(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)
	users := store.Users()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		name string
		wins int
	}{{"three", 3}, {"five", 5}, {"tie-late", 1}, {"tie-early", 1}} {
		u := models.NewUser(tc.name, "h", "")
		u.Wins = tc.wins
		u.GamesPlayed = tc.wins
		u.JoinedAt = base.Add(time.Duration(i) * time.Hour)
		if tc.name == "tie-early" {
			u.JoinedAt = base.Add(-time.Hour)
		}
		require.NoError(t, users.Create(ctx, u))
	}

	list, err := users.ListByWins(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []string{"five", "three", "tie-early", "tie-late"},
		[]string{list[0].Username, list[1].Username, list[2].Username, list[3].Username})

	limited, err := users.ListByWins(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGameRepositoryHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)

	u := models.NewUser("dana", "h", "")
	require.NoError(t, store.Users().Create(ctx, u))

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := models.NewGameRecord(u.ID, models.GameInput{
			OpponentType: models.OpponentBot,
			GameMode:     models.ModeEasy,
			Result:       models.ResultWin,
			TotalMoves:   10 + i,
		}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Games().Create(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	history, err := store.Games().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 12, history[0].TotalMoves)
	assert.Equal(t, 10, history[2].TotalMoves)
	assert.True(t, history[0].PlayedAt.After(history[1].PlayedAt))

	count, err := store.Games().CountByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)

	u := models.NewUser("erin", "h", "")
	require.NoError(t, store.Users().Create(ctx, u))

	boom := errors.New("insert failed")
	err := store.WithinTx(ctx, func(tx repositories.Repositories) error {
		locked, err := tx.Users().GetByUsernameForUpdate(ctx, "erin")
		if err != nil {
			return err
		}
		locked.ApplyResult(models.ResultWin, 20)
		if err := tx.Users().Update(ctx, locked); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Users().GetByUsername(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Wins)
	assert.Equal(t, 0, got.GamesPlayed)
}

func TestWithinTxRetriesConflictOnce(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)

	calls := 0
	err := store.WithinTx(ctx, func(tx repositories.Repositories) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("update: %w", repositories.ErrConflict)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = store.WithinTx(ctx, func(tx repositories.Repositories) error {
		calls++
		return repositories.ErrConflict
	})
	assert.ErrorIs(t, err, repositories.ErrConflict)
	assert.Equal(t, 2, calls)
}

func TestChallengeRepository(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewSQLiteStore(t)
	challenges := store.Challenges()

	count, err := challenges.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	for _, c := range models.DefaultChallenges() {
		require.NoError(t, challenges.Create(ctx, c))
	}
	inactive := models.DefaultChallenges()[0]
	inactive.Active = false
	require.NoError(t, challenges.Create(ctx, inactive))

	active, err := challenges.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 8)
	assert.Equal(t, "Fool's Mate", active[0].Title)

	advanced, err := challenges.ListActiveByDifficulty(ctx, models.DifficultyAdvanced)
	require.NoError(t, err)
	assert.Len(t, advanced, 3)
	for _, c := range advanced {
		assert.Equal(t, models.DifficultyAdvanced, c.Difficulty)
	}
}

// TestPostgresUserRepository runs against a real server when TEST_DATABASE_URL is set.
func TestPostgresUserRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := platform.ConnectDB(ctx, platform.DriverPostgres, dsn)
	require.NoError(t, err)
	store, err := repositories.NewSQLStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	name := "pg_" + uuid.New().String()[:8]
	u := models.NewUser(name, "h", "")
	require.NoError(t, store.Users().Create(ctx, u))
	assert.ErrorIs(t, store.Users().Create(ctx, models.NewUser(name, "h", "")), repositories.ErrUserAlreadyExists)

	err = store.WithinTx(ctx, func(tx repositories.Repositories) error {
		locked, err := tx.Users().GetByUsernameForUpdate(ctx, name)
		if err != nil {
			return err
		}
		locked.ApplyResult(models.ResultWin, 12)
		return tx.Users().Update(ctx, locked)
	})
	require.NoError(t, err)

	got, err := store.Users().GetByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Wins)
	assert.Equal(t, 1, got.GamesPlayed)
}
