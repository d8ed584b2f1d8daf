package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chessmistry-api/internal/apperrors"
	"chessmistry-api/internal/auth"
	"chessmistry-api/internal/models"
	"chessmistry-api/internal/repositories"
	"chessmistry-api/internal/stats"

	"go.uber.org/zap"
)

const registerMessage = "Welcome to rChessMistry! 🎉"

// RegisterInput is a sign-up request. DisplayName and the device fields are optional.
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	DeviceID    string
	DeviceName  string
}

// LoginInput is a sign-in request. The device is only recorded when DeviceID is set.
type LoginInput struct {
	Username   string
	Password   string
	DeviceID   string
	DeviceName string
}

// SessionResult is returned by a successful register or login
type SessionResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
	Message   string
}

// AuthService handles registration, login and session verification
type AuthService struct {
	store    repositories.Store
	hasher   *auth.PasswordHasher
	tokens   *auth.JWTMaker
	notifier Notifier
	metrics  *stats.Collector
	logger   *zap.Logger

	// dummyHash is checked in place of a real hash when the user does not exist.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store repositories.Store,
	hasher *auth.PasswordHasher,
	tokens *auth.JWTMaker,
	notifier Notifier,
	metrics *stats.Collector,
	logger *zap.Logger,
) *AuthService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.Named("auth"),
	}
}

// Register creates a new account and opens a session for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*SessionResult, error) {
	username := NormalizeUsername(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.DisplayName != "" {
		if err := validateDisplayName(in.DisplayName); err != nil {
			return nil, err
		}
	}

	exists, err := s.store.Users().Exists(ctx, username)
	if err != nil {
		return nil, storeError(err)
	}
	if exists {
		return nil, apperrors.ErrDuplicateUsername
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.NewUser(username, passwordHash, in.DisplayName)
	user.SetDevice(in.DeviceID, in.DeviceName)

	// Create still reports a duplicate if another request won the race.
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, storeError(err)
	}

	s.metrics.IncRegistrations()
	s.logger.Info("user registered", zap.String("username", username), zap.Int64("user_id", user.ID))
	s.notifier.Notify(*user)

	return s.openSession(user, registerMessage)
}

// Login checks the credentials and opens a fresh session.
//
// Unknown users and wrong passwords both return apperrors.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*SessionResult, error) {
	username := NormalizeUsername(in.Username)

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			_, _ = s.hasher.Verify(in.Password, s.placeholderHash())
			return nil, s.loginFailed(username, "unknown user")
		}
		return nil, storeError(err)
	}

	match, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.String("username", username), zap.Error(err))
		return nil, s.loginFailed(username, "unreadable hash")
	}
	if !match {
		return nil, s.loginFailed(username, "wrong password")
	}

	user, err = updateUser(ctx, s.store, username, func(_ repositories.Repositories, u *models.User) error {
		u.SetDevice(in.DeviceID, in.DeviceName)
		u.Touch(utcNow())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLogin(true)
	s.notifier.Notify(*user)

	return s.openSession(user, fmt.Sprintf("Welcome back, %s! ♟️", user.DisplayName))
}

func (s *AuthService) loginFailed(username, reason string) error {
	s.metrics.ObserveLogin(false)
	s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", reason))
	return apperrors.ErrInvalidCredentials
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("placeholder-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func (s *AuthService) openSession(user *models.User, message string) (*SessionResult, error) {
	token, expiresAt, err := s.tokens.CreateToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("create session token: %w", err)
	}
	return &SessionResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
		Message:   message,
	}, nil
}

// UsernameAvailable reports whether the normalized username is free
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return false, apperrors.Validation("username must not be empty")
	}

	exists, err := s.store.Users().Exists(ctx, username)
	if err != nil {
		return false, storeError(err)
	}
	return !exists, nil
}

// VerifySession resolves a session token to its username
func (s *AuthService) VerifySession(token string) (string, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindInvalidSession, apperrors.ErrInvalidSession.Message, err)
	}
	return claims.Username(), nil
}
