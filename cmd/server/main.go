package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/config"
	"github.com/myrobot/academy/internal/logger"
	"github.com/myrobot/academy/internal/reminders"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
	"github.com/myrobot/academy/internal/validator"
	"github.com/myrobot/academy/internal/web"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("addr", cfg.Addr).
		Str("store", cfg.StoreBackend).
		Str("log_level", cfg.LogLevel).
		Msg("Starting MyRobot Academy")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := store.OpenBackend(ctx, store.BackendConfig{
		Kind:         cfg.StoreBackend,
		DatabasePath: cfg.DatabasePath,
		RedisURL:     cfg.RedisURL,
		RedisPrefix:  cfg.RedisPrefix,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer closeBackend()

	st := store.New(backend)
	authSvc := auth.NewService(auth.Config{
		Secret:        cfg.JWTSecret,
		TTL:           cfg.SessionTTL,
		BcryptCost:    cfg.BcryptCost,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	}, st)

	v := validator.Default()
	pay := services.NewPaymentSimulator(cfg.PaymentDelay)
	mail := services.NewConsoleMailer(log.With().Str("component", "mailer").Logger(), "MyRobot Academy")

	if cfg.RemindersEnabled {
		runner := reminders.NewRunner(st, mail, cfg.RemindOffsets, cfg.Location(),
			log.With().Str("component", "reminders").Logger())
		runner.Start(ctx)
		log.Info().Interface("offsets", cfg.RemindOffsets).Msg("Reminders enabled")
	}

	r := web.Router(ctx, web.Deps{
		Store:           st,
		Auth:            authSvc,
		Enrollments:     services.NewEnrollments(st, v, pay, mail, log),
		Checkout:        services.NewCheckout(st, v, pay, mail, log),
		Log:             log,
		AllowedOrigins:  cfg.AllowedOrigins,
		PublicBaseURL:   cfg.PublicBaseURL,
		DefaultDialCode: cfg.DefaultDialCode,
		LoginRate:       10,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
