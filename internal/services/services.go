package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"chessmistry-api/internal/apperrors"
	"chessmistry-api/internal/models"
	"chessmistry-api/internal/repositories"
)

const (
	minPasswordLength  = 6
	maxDisplayNameRune = 50
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.-]{3,30}$`)

// Notifier receives a snapshot of a user after a committed change.
// Implementations must not block.
type Notifier interface {
	Notify(user models.User)
}

type noopNotifier struct{}

func (noopNotifier) Notify(models.User) {}

// NormalizeUsername trims and lowercases a username as every lookup expects.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperrors.Validation("username must be 3-30 characters of a-z, 0-9, '_', '.' or '-'")
	}
	return nil
}

func validateDisplayName(name string) error {
	if name == "" {
		return apperrors.Validation("display name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameRune {
		return apperrors.Validation("display name must be at most %d characters", maxDisplayNameRune)
	}
	return nil
}

// storeError maps repository failures onto application errors.
func storeError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.Error
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, repositories.ErrUserAlreadyExists):
		return apperrors.ErrDuplicateUsername
	case errors.As(err, &appErr):
		return err
	default:
		return apperrors.Storage(err)
	}
}

// updateUser loads username under a row lock, lets apply mutate it (and write
// anything else through tx), then persists it. The returned user is what was
// committed.
func updateUser(
	ctx context.Context,
	store repositories.Store,
	username string,
	apply func(tx repositories.Repositories, user *models.User) error,
) (*models.User, error) {
	var updated *models.User
	err := store.WithinTx(ctx, func(tx repositories.Repositories) error {
		user, err := tx.Users().GetByUsernameForUpdate(ctx, username)
		if err != nil {
			return err
		}
		if err := apply(tx, user); err != nil {
			return err
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func validationError(err error) error {
	return apperrors.New(apperrors.KindValidation, err.Error())
}
