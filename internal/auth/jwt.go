package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// DefaultSessionTTL is how long a session token stays valid
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims represents the claims in the session token. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Username returns the subject the token was issued to
func (c *Claims) Username() string {
	return c.Subject
}

type JWTMaker struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewJWTMaker(secretKey string, ttl time.Duration) *JWTMaker {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &JWTMaker{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

// CreateToken creates a new session token for username
func (maker *JWTMaker) CreateToken(username string) (string, time.Time, error) {
	now := maker.now()
	expiresAt := now.Add(maker.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(maker.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyToken checks if the token is valid
func (maker *JWTMaker) VerifyToken(tokenString string) (*Claims, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok {
			return nil, ErrInvalidToken
		}
		return maker.secretKey, nil
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(maker.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
