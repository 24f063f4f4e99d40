package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	_ "github.com/tbourn/fandom-backend/docs" // registers the OpenAPI document served at /swagger

	"github.com/tbourn/fandom-backend/internal/auth"
	"github.com/tbourn/fandom-backend/internal/cache"
	"github.com/tbourn/fandom-backend/internal/config"
	httpapi "github.com/tbourn/fandom-backend/internal/http"
	"github.com/tbourn/fandom-backend/internal/observability"
	"github.com/tbourn/fandom-backend/internal/repo"
	"github.com/tbourn/fandom-backend/internal/services"
	"github.com/tbourn/fandom-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title                      Fandom API
// @version                    1.0
// @description                Social backend for sports fans: profiles, friends, posts, ratings, leaderboards and sweepstakes.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.Open(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := observability.InstrumentGORM(db); err != nil {
			logger.Fatal().Err(err).Msg("instrument gorm")
		}
	}
	if !sysutil.IsTruthy(os.Getenv("DB_SKIP_MIGRATE")) {
		if err := repo.AutoMigrate(db); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}

	var lb services.LeaderboardCache = cache.Noop{}
	var rdb *cache.Redis
	if cfg.Redis.Addr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err = cache.Dial(dialCtx, cfg.Redis)
		cancel()
		if err != nil {
			// the cache is an optimization; serve uncached rather than fail
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, leaderboard cache disabled")
		} else {
			lb = rdb
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, db, lb, auth.NewVerifier(cfg.Auth), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("version", appVersion).Str("base_path", cfg.APIBasePath).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close")
		}
	}
	if err := repo.Close(db); err != nil {
		logger.Error().Err(err).Msg("db close")
	}
	if err := shutdownOTel(drainCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
}
