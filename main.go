package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/routines-api/internal/api"
	"github.com/isdelr/routines-api/internal/auth"
	"github.com/isdelr/routines-api/internal/config"
	"github.com/isdelr/routines-api/internal/database"
	"github.com/isdelr/routines-api/internal/logger"
	"github.com/isdelr/routines-api/internal/maintenance"
	"github.com/isdelr/routines-api/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db, cfg.DatabaseDriver)
	cancelMigrate()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token issuer")
	}

	// Set up services
	userService := services.NewUserService(db, cfg.DatabaseDriver, cfg.BcryptCost)
	routineService := services.NewRoutineService(db, cfg.DatabaseDriver)
	eventService := services.NewEventService(db, cfg.DatabaseDriver)

	// Start background event retention
	scheduler, err := maintenance.NewScheduler(eventService, cfg.PruneSchedule, cfg.EventRetention, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event retention scheduler")
	}
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go scheduler.Run(bgCtx)

	// Set up router
	router := api.NewRouter(cfg, db, issuer, userService, routineService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
