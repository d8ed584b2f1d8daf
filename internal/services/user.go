package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"chessmistry-api/internal/apperrors"
	"chessmistry-api/internal/models"
	"chessmistry-api/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhotoURLPrefix is where uploaded profile photos are served from.
const PhotoURLPrefix = "/uploads/profiles/"

const defaultMaxUploadBytes = 5 << 20

var photoExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

// UploadConfig controls where profile photos are written
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// UserService handles profile reads and edits
type UserService struct {
	store    repositories.Store
	uploads  UploadConfig
	notifier Notifier
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store repositories.Store, uploads UploadConfig, notifier Notifier, logger *zap.Logger) *UserService {
	if uploads.MaxBytes <= 0 {
		uploads.MaxBytes = defaultMaxUploadBytes
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		store:    store,
		uploads:  uploads,
		notifier: notifier,
		logger:   logger.Named("user"),
	}
}

// MaxUploadBytes is the largest photo UploadPhoto accepts.
func (s *UserService) MaxUploadBytes() int64 {
	return s.uploads.MaxBytes
}

// Profile returns the full profile of username
func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

// UpdateTheme stores a new theme preference. Any non-empty value is accepted.
func (s *UserService) UpdateTheme(ctx context.Context, username, theme string) (*models.User, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, apperrors.Validation("theme must not be empty")
	}

	return s.mutate(ctx, username, func(u *models.User) {
		u.ThemePreference = theme
	})
}

// UpdateDisplayName changes the name shown on the leaderboard
func (s *UserService) UpdateDisplayName(ctx context.Context, username, displayName string) (*models.User, error) {
	displayName = strings.TrimSpace(displayName)
	if err := validateDisplayName(displayName); err != nil {
		return nil, err
	}

	return s.mutate(ctx, username, func(u *models.User) {
		u.DisplayName = displayName
	})
}

// UploadPhoto writes the image read from r to the upload dir and points the
// profile at it. The returned URL is relative to the server root.
func (s *UserService) UploadPhoto(ctx context.Context, username, filename string, r io.Reader) (string, error) {
	username = NormalizeUsername(username)
	ext, err := photoExtension(filename)
	if err != nil {
		return "", err
	}

	// Resolve the user first so nothing is written for a stale session.
	if _, err := s.store.Users().GetByUsername(ctx, username); err != nil {
		return "", storeError(err)
	}

	name := fmt.Sprintf("%s_%s.%s", username, uuid.NewString()[:8], ext)
	if err := s.writePhoto(name, r); err != nil {
		return "", err
	}

	photoURL := PhotoURLPrefix + name
	_, err = s.mutate(ctx, username, func(u *models.User) {
		u.ProfilePhotoURL = photoURL
	})
	if err != nil {
		_ = os.Remove(filepath.Join(s.uploads.Dir, name))
		return "", err
	}

	s.logger.Info("profile photo updated", zap.String("username", username), zap.String("file", name))
	return photoURL, nil
}

func (s *UserService) writePhoto(name string, r io.Reader) error {
	if err := os.MkdirAll(s.uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	dst := filepath.Join(s.uploads.Dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create photo file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.uploads.MaxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("write photo file: %w", err)
	case closeErr != nil:
		err = fmt.Errorf("close photo file: %w", closeErr)
	case n == 0:
		err = apperrors.Validation("photo is empty")
	case n > s.uploads.MaxBytes:
		err = apperrors.Validation("photo must be at most %d bytes", s.uploads.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

func photoExtension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return "jpg", nil
	}
	if !photoExtensions[ext] {
		return "", apperrors.Validation("unsupported photo type %q", ext)
	}
	return ext, nil
}

func (s *UserService) mutate(ctx context.Context, username string, apply func(u *models.User)) (*models.User, error) {
	user, err := updateUser(ctx, s.store, NormalizeUsername(username), func(_ repositories.Repositories, u *models.User) error {
		apply(u)
		u.Touch(utcNow())
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Warn("profile update for missing user", zap.String("username", username))
		}
		return nil, err
	}

	s.notifier.Notify(*user)
	return user, nil
}
