package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"chessmistry-api/internal/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UsernameKey is the gin context key holding the verified session username.
const UsernameKey = "username"

const (
	visitorIdleTTL  = 10 * time.Minute
	visitorPruneLen = 1024
)

// SessionVerifier resolves a bearer token to a username
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter for credential endpoints, keyed by client IP
type AuthRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewAuthRateLimiter(r rate.Limit, b int) *AuthRateLimiter {
	return &AuthRateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
}

// PerMinute allows n attempts per minute with a burst of n.
func PerMinute(n int) *AuthRateLimiter {
	if n <= 0 {
		n = 1
	}
	return NewAuthRateLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

func (rl *AuthRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if len(rl.visitors) >= visitorPruneLen {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(rl.visitors, key)
			}
		}
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

// Limit rejects requests from an IP that exceeded its budget with 429
func (rl *AuthRateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, try again in a minute",
			})
			return
		}
		c.Next()
	}
}

// AuthMiddleware requires a valid bearer session and stores its username
// under UsernameKey.
func AuthMiddleware(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "no authorization token provided",
			})
			return
		}

		username, err := verifier.VerifySession(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": apperrors.ErrInvalidSession.Message,
			})
			return
		}

		c.Set(UsernameKey, username)
		c.Next()
	}
}

// Username returns the session username set by AuthMiddleware.
func Username(c *gin.Context) string {
	return c.GetString(UsernameKey)
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}
