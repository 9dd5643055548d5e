package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clmates/wesnoth-tournament-manager-sub001/brackets"
	"github.com/clmates/wesnoth-tournament-manager-sub001/config"
	"github.com/clmates/wesnoth-tournament-manager-sub001/db"
	"github.com/clmates/wesnoth-tournament-manager-sub001/handlers"
	"github.com/clmates/wesnoth-tournament-manager-sub001/middleware"
	"github.com/clmates/wesnoth-tournament-manager-sub001/repositories"
	api "github.com/clmates/wesnoth-tournament-manager-sub001/routes"
	"github.com/clmates/wesnoth-tournament-manager-sub001/services"
	"github.com/clmates/wesnoth-tournament-manager-sub001/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

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

	var uploader storage.FileUploader
	if cfg.R2Bucket != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2Bucket,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize replay storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("replay storage initialized", slog.String("bucket", cfg.R2Bucket))
	} else {
		logger.Warn("replay storage not configured, replay uploads disabled")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	seriesRepo := repositories.NewPostgresSeriesRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)

	txRunner := services.NewTxRunner(dbConn)
	bus := services.NewEventBus(logger)
	ratingGate := &sync.Mutex{}

	seed := cfg.PairingSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	userService := services.NewUserService(userRepo)
	seriesService := services.NewSeriesService(seriesRepo, matchRepo, participantRepo, logger)
	recalcService := services.NewRecalcService(txRunner, matchRepo, userRepo, logger, ratingGate)
	matchService := services.NewMatchService(txRunner, matchRepo, userRepo, seriesService, recalcService, bus, logger, ratingGate)
	tournamentService := services.NewTournamentService(txRunner, tournamentRepo, roundRepo, participantRepo, logger)
	roundService := services.NewRoundService(txRunner, roundRepo, seriesRepo, participantRepo, tournamentRepo, seriesService, bus, logger, rng)

	bus.Subscribe(services.NewSeriesProgressNotifier(roundService, roundRepo, logger))
	bus.Subscribe(services.NewWebSocketNotifier(wsHub))
	bus.Subscribe(services.NewEmailService(cfg, userRepo, logger))

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, matchService)
	matchHandler := handlers.NewMatchHandler(matchService, uploader)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, roundService)
	seriesHandler := handlers.NewSeriesHandler(seriesService)
	adminHandler := handlers.NewAdminHandler(recalcService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	router := chi.NewRouter()
	api.SetupRoutes(router, authenticator,
		authHandler, userHandler, matchHandler, tournamentHandler,
		seriesHandler, adminHandler, webSocketHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
