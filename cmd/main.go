package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/surrlabs/surr/internal/api/http/handler"
	"github.com/surrlabs/surr/internal/api/http/middleware"
	"github.com/surrlabs/surr/internal/api/http/router"
	httpserver "github.com/surrlabs/surr/internal/api/http/server"
	"github.com/surrlabs/surr/internal/config"
	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/password"
	"github.com/surrlabs/surr/internal/ratelimit"
	"github.com/surrlabs/surr/internal/repository/postgres"
	"github.com/surrlabs/surr/internal/service"
	"github.com/surrlabs/surr/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	// The sweeper runs on its own pool so it never contends with
	// request-scoped connections.
	sweepDB, err := postgres.NewConnectionWithoutMigrations(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize sweeper storage", "error", err)
	}
	defer sweepDB.Close()

	userRepo := postgres.NewUserRepository(db)
	blacklistRepo := postgres.NewBlacklistRepository(db)
	rateLimitRepo := postgres.NewRateLimitRepository(db)

	hasher, err := password.NewHasher()
	if err != nil {
		logger.Fatal("failed to initialize password hasher", "error", err)
	}

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	tokenService := service.NewTokenService(tokenManager, blacklistRepo, logger)
	authService := service.NewAuth(userRepo, hasher, tokenService, logger)

	limiter := ratelimit.NewLimiter(rateLimitRepo, logger)
	sweeper := ratelimit.NewSweeper(
		postgres.NewRateLimitRepository(sweepDB),
		postgres.NewBlacklistRepository(sweepDB),
		cfg.RateLimit.SweepInterval,
		logger,
	)

	authHandler := handler.NewAuth(authService, cfg.JWT.RefreshTokenTTL, logger)
	authenticate := middleware.NewAuthenticate(tokenService, logger)
	rateLimitMW := middleware.NewRateLimit(limiter, logger)

	r := router.New(authHandler, authenticate, rateLimitMW, cfg.RateLimit, logger)
	srv := httpserver.NewHTTPServer(r.Register(), cfg.HTTP)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "address", srv.Address(), "version", buildVersion, "build_date", buildDate)
		if err := srv.Start(); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}
