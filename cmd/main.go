package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/beachcomp/tournament-engine/config"
	"github.com/beachcomp/tournament-engine/db"
	"github.com/beachcomp/tournament-engine/events"
	"github.com/beachcomp/tournament-engine/handlers"
	"github.com/beachcomp/tournament-engine/repositories"
	api "github.com/beachcomp/tournament-engine/routes"
	"github.com/beachcomp/tournament-engine/services"
	"github.com/beachcomp/tournament-engine/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	handlers.SetLogger(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	redisClient, err := db.ConnectRedis(cfg.RedisURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", slog.Any("error", err))
		}
	}()
	logger.Info("redis connection established")

	var uploader storage.FileUploader
	if cfg.CrestStorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize crest storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("crest storage initialized")
	} else {
		logger.Info("crest storage not configured, uploads disabled")
	}

	wsHub := events.NewHub()
	go wsHub.Run()
	logger.Info("event hub started")

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	formatRepo := repositories.NewPostgresFormatRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	overrideRepo := repositories.NewPostgresOverrideRepository(dbConn)
	scoreboardRepo := repositories.NewRedisScoreboardRepository(redisClient)
	logger.Info("repositories initialized")

	formatService := services.NewFormatService(formatRepo)
	teamService := services.NewTeamService(teamRepo, matchRepo, uploader)
	tournamentService := services.NewTournamentService(tournamentRepo, formatRepo, teamRepo, poolRepo, matchRepo)
	poolService := services.NewPoolService(poolRepo, teamRepo, matchRepo, tournamentRepo, formatRepo, wsHub)
	generationService := services.NewGenerationService(
		matchRepo, poolRepo, teamRepo, scoreboardRepo, tournamentRepo, formatRepo, wsHub, logger)
	matchService := services.NewMatchService(
		matchRepo, scoreboardRepo, teamRepo, tournamentRepo, formatRepo, wsHub, logger)
	standingsService := services.NewStandingsService(matchRepo, poolRepo, teamRepo, overrideRepo, wsHub)
	logger.Info("services initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewTeamHandler(teamService),
		handlers.NewPoolHandler(poolService),
		handlers.NewMatchHandler(matchService, generationService),
		handlers.NewStandingsHandler(standingsService),
		handlers.NewFormatHandler(formatService),
		handlers.NewWebSocketHandler(wsHub),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
