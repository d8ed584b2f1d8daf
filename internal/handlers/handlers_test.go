package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessmistry-api/internal/auth"
	"chessmistry-api/internal/handlers"
	"chessmistry-api/internal/middleware"
	"chessmistry-api/internal/repositories/repotest"
	"chessmistry-api/internal/services"
	"chessmistry-api/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	router http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWith(t, nil)
}

func newAPIWith(t *testing.T, configure func(*handlers.RouterConfig)) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repotest.NewSQLiteStore(t)
	reg := prometheus.NewRegistry()
	metrics := stats.NewCollector(reg)
	hasher := auth.NewPasswordHasher(auth.PasswordConfig{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32})
	tokens := auth.NewJWTMaker("handler-test-secret-123", time.Hour)
	uploadDir := filepath.Join(t.TempDir(), "profiles")

	challenges := services.NewChallengeService(store, nil)
	require.NoError(t, challenges.Seed(context.Background()))

	cfg := handlers.RouterConfig{
		AllowedOrigins:     []string{"*"},
		UploadDir:          uploadDir,
		LoginRatePerMinute: 1000,
		HTTPMetrics:        middleware.NewHTTPMetrics(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if configure != nil {
		configure(&cfg)
	}

	router := handlers.NewRouter(cfg, handlers.Services{
		Auth:       services.NewAuthService(store, hasher, tokens, nil, metrics, nil),
		Users:      services.NewUserService(store, services.UploadConfig{Dir: uploadDir, MaxBytes: 1024}, nil, nil),
		Games:      services.NewGameService(store, nil, metrics, nil, 0),
		Challenges: challenges,
		Store:      store,
		Metrics:    metrics,
	})
	return &api{router: router}
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) register(t *testing.T, username string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res handlers.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPing(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/api/auth/ping", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "rChessMistry", body["app"])
}

func TestRegisterAndLoginFlow(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "Alice", "password": "secret123", "deviceId": "d1"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[handlers.AuthResponse](t, w)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, "Welcome to rChessMistry! 🎉", res.Message)
	assert.Equal(t, "dark", res.ThemePreference)
	assert.NotEmpty(t, res.Token)

	w = a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "al", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password.", decode[map[string]string](t, w)["error"])

	w = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "nobody", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password.", decode[map[string]string](t, w)["error"])

	w = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Welcome back, alice! ♟️", decode[handlers.AuthResponse](t, w).Message)
}

func TestLoginLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	a := newAPIWith(t, func(cfg *handlers.RouterConfig) {
		cfg.LoginRatePerMinute = 2
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		body, err := json.Marshal(map[string]string{"username": "nobody", "password": "wrong-pass"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.RemoteAddr = "203.0.113.9:4000"
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestCheckUsername(t *testing.T) {
	a := newAPI(t)
	a.register(t, "alice")

	body := decode[map[string]any](t, a.do(t, http.MethodGet, "/api/auth/check-username/ALICE", "", nil))
	assert.Equal(t, false, body["available"])
	assert.Equal(t, "Username is taken. Try another. ❌", body["message"])

	body = decode[map[string]any](t, a.do(t, http.MethodGet, "/api/auth/check-username/bob", "", nil))
	assert.Equal(t, true, body["available"])
}

func TestUserRoutesRequireSession(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/user/profile", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/user/profile", "forged", nil).Code)
}

func TestProfileAndSettings(t *testing.T) {
	a := newAPI(t)
	token := a.register(t, "alice")

	w := a.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "alice", decode[map[string]any](t, w)["username"])

	w = a.do(t, http.MethodPut, "/api/user/theme", token, gin.H{"theme": "light"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", decode[map[string]string](t, w)["theme"])

	w = a.do(t, http.MethodPut, "/api/user/display-name", token, gin.H{"displayName": "Alice W."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Name updated!", decode[map[string]string](t, w)["message"])

	w = a.do(t, http.MethodPut, "/api/user/display-name", token, gin.H{"displayName": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveGameHistoryAndLeaderboard(t *testing.T) {
	a := newAPI(t)
	alice := a.register(t, "alice")
	bob := a.register(t, "bob")

	game := func(result string) gin.H {
		return gin.H{"opponentType": "BOT", "gameMode": "easy", "result": result, "totalMoves": 24, "accuracyScore": 75.5}
	}

	for _, r := range []string{"WIN", "LOSS", "WIN"} {
		w := a.do(t, http.MethodPost, "/api/user/save-game", alice, game(r))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode[map[string]any](t, w)
		assert.Equal(t, "Game saved!", body["message"])
		assert.NotZero(t, body["gameId"])
	}
	w := a.do(t, http.MethodPost, "/api/user/save-game", bob, game("WIN"))
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/user/save-game", alice, game("FORFEIT"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := game("WIN")
	bad["accuracyScore"] = 120
	w = a.do(t, http.MethodPost, "/api/user/save-game", alice, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/user/game-history", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]map[string]any](t, w)
	require.Len(t, history, 3)
	assert.Equal(t, "WIN", history[0]["result"])
	assert.Equal(t, "LOSS", history[1]["result"])
	assert.Equal(t, "EASY", history[0]["gameMode"])

	w = a.do(t, http.MethodGet, "/api/user/leaderboard", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[[]map[string]any](t, w)
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0]["username"])
	assert.Equal(t, float64(1), board[0]["rank"])
	assert.Equal(t, float64(2), board[0]["wins"])

	w = a.do(t, http.MethodGet, "/api/user/leaderboard?limit=abc", bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPhoto(t *testing.T) {
	a := newAPI(t)
	token := a.register(t, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/upload-photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	photoURL := decode[map[string]string](t, w)["photoUrl"]
	assert.True(t, strings.HasPrefix(photoURL, "/uploads/profiles/alice_"))

	w = a.do(t, http.MethodGet, photoURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())

	w = a.do(t, http.MethodPost, "/api/user/upload-photo", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPhotoRejectsOversizedBody(t *testing.T) {
	a := newAPI(t)
	token := a.register(t, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xff}, 256<<10))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/user/upload-photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string]any](t, w)["profilePhotoUrl"])
}

func TestChallenges(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/api/challenges/public", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]map[string]any](t, w)
	require.Len(t, all, 8)
	assert.Equal(t, "black", all[0]["turn"])

	w = a.do(t, http.MethodGet, "/api/challenges/difficulty/advanced", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 3)

	w = a.do(t, http.MethodGet, "/api/challenges/difficulty/impossible", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Accept", "text/plain")
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, "health_status 1\ndatabase_status 1\n", w.Body.String())

	a.register(t, "alice")
	w = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chessmistry_registrations_total 1")
	assert.Contains(t, w.Body.String(), "chessmistry_http_requests_total")
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthReportsDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", handlers.NewHealthHandler(downStore{}, nil).HealthCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
}
