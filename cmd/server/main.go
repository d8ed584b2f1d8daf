package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessmistry-api/internal/auth"
	"chessmistry-api/internal/config"
	"chessmistry-api/internal/handlers"
	"chessmistry-api/internal/middleware"
	"chessmistry-api/internal/mirror"
	"chessmistry-api/internal/platform"
	"chessmistry-api/internal/repositories"
	"chessmistry-api/internal/services"
	"chessmistry-api/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func NewServer(
	cfg *config.Config,
	store *repositories.SQLStore,
	notifier services.Notifier,
	metrics *stats.Collector,
	reg *prometheus.Registry,
	logger *zap.Logger,
) (http.Handler, *services.ChallengeService) {
	hasher := auth.NewPasswordHasher(auth.PasswordConfig{
		Time:    cfg.Password.Time,
		Memory:  cfg.Password.MemoryKB,
		Threads: cfg.Password.Threads,
	})
	tokens := auth.NewJWTMaker(cfg.JWT.SecretKey, cfg.JWT.TTL)

	challenges := services.NewChallengeService(store, logger)

	router := handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins:     cfg.Origins(),
		TrustedProxies:     cfg.TrustedProxies,
		UploadDir:          cfg.Upload.Dir,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		Logger:             logger.Named("http"),
		HTTPMetrics:        middleware.NewHTTPMetrics(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, handlers.Services{
		Auth:       services.NewAuthService(store, hasher, tokens, notifier, metrics, logger),
		Users:      services.NewUserService(store, services.UploadConfig{Dir: cfg.Upload.Dir, MaxBytes: cfg.Upload.MaxBytes}, notifier, logger),
		Games:      services.NewGameService(store, notifier, metrics, logger, cfg.LeaderboardLimit),
		Challenges: challenges,
		Store:      store,
		Metrics:    metrics,
	})

	return router, challenges
}

// newSink picks the mirror sink for SYNC_DRIVER. A sink that cannot start
// is logged and replaced by the noop sink.
func newSink(ctx context.Context, cfg config.SyncConfig, logger *zap.Logger) mirror.Sink {
	var (
		sink mirror.Sink
		err  error
	)
	switch cfg.Driver {
	case config.SyncSheets:
		sink, err = mirror.NewSheetsSink(ctx, mirror.SheetsConfig{
			SpreadsheetID:   cfg.SheetsSpreadsheetID,
			CredentialsPath: cfg.SheetsCredentialsPath,
			SheetName:       cfg.SheetsSheetName,
		}, logger)
	case config.SyncRedis:
		sink, err = mirror.NewRedisSink(ctx, mirror.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	default:
		return mirror.NoopSink{}
	}

	if err != nil {
		logger.Warn("stats mirror disabled", zap.String("driver", cfg.Driver), zap.Error(err))
		return mirror.NoopSink{}
	}
	logger.Info("stats mirror enabled", zap.String("driver", sink.Name()))
	return sink
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// logger is not configured yet
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("error loading config", zap.Error(err))
	}

	logger, err := platform.NewLogger(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Platform initialization (Database connection)
	db, err := platform.ConnectDB(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		logger.Fatal("error connecting to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close() // Close the database connection when the server exits

	store, err := repositories.NewSQLStore(db)
	if err != nil {
		logger.Fatal("error creating store", zap.Error(err))
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("error applying schema", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := stats.NewCollector(reg)

	statsMirror := mirror.New(newSink(ctx, cfg.Sync, logger), cfg.Sync.QueueSize, logger, metrics)
	handler, challenges := NewServer(cfg, store, statsMirror, metrics, reg, logger)

	if err := challenges.Seed(ctx); err != nil {
		logger.Fatal("error seeding challenges", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ServerAddress), zap.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := statsMirror.Close(shutdownCtx); err != nil {
		logger.Warn("stats mirror did not drain", zap.Error(err))
	}
}
