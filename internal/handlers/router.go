package handlers

import (
	"net/http"
	"slices"
	"strings"

	"chessmistry-api/internal/middleware"
	"chessmistry-api/internal/services"
	"chessmistry-api/internal/stats"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries the transport settings of the HTTP API
type RouterConfig struct {
	AllowedOrigins     []string
	TrustedProxies     []string
	UploadDir          string
	LoginRatePerMinute int
	Logger             *zap.Logger
	HTTPMetrics        *middleware.HTTPMetrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// Services are the application services behind the routes
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Games      *services.GameService
	Challenges *services.ChallengeService
	Store      Pinger
	Metrics    *stats.Collector
}

// NewRouter builds the gin engine with every API route
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies(cfg.TrustedProxies)); err != nil {
		cfg.Logger.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		router.Use(cfg.HTTPMetrics.Handler())
	}
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users)
	gameHandler := NewGameHandler(svc.Games)
	challengeHandler := NewChallengeHandler(svc.Challenges)
	healthHandler := NewHealthHandler(svc.Store, svc.Metrics)

	limiter := middleware.PerMinute(cfg.LoginRatePerMinute)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.GET("/ping", authHandler.Ping)
		authGroup.POST("/register", limiter.Limit(), authHandler.Register)
		authGroup.POST("/login", limiter.Limit(), authHandler.Login)
		authGroup.GET("/check-username/:username", authHandler.CheckUsername)

		user := api.Group("/user", middleware.AuthMiddleware(svc.Auth))
		user.GET("/profile", userHandler.Profile)
		user.PUT("/theme", userHandler.UpdateTheme)
		user.PUT("/display-name", userHandler.UpdateDisplayName)
		user.POST("/upload-photo", userHandler.UploadPhoto)
		user.POST("/save-game", gameHandler.SaveGame)
		user.GET("/game-history", gameHandler.GameHistory)
		user.GET("/leaderboard", gameHandler.Leaderboard)

		challenges := api.Group("/challenges")
		challenges.GET("/public", challengeHandler.Public)
		challenges.GET("/difficulty/:level", challengeHandler.ByDifficulty)
	}

	router.GET("/health", healthHandler.HealthCheck)
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.UploadDir != "" {
		router.Static(services.PhotoURLPrefix, cfg.UploadDir)
	}

	return router
}

// trustedProxies returns nil for an empty list so gin stops trusting every proxy.
func trustedProxies(proxies []string) []string {
	var out []string
	for _, p := range proxies {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	config.ExposeHeaders = []string{"X-Request-ID"}
	return config
}
