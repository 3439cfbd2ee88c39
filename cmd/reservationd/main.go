package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-reservations/internal/application"
	"github.com/example/campus-reservations/internal/config"
	httptransport "github.com/example/campus-reservations/internal/http"
	"github.com/example/campus-reservations/internal/persistence/sqlite"
)

func main() {
	sweepOnce := flag.Bool("sweep", false, "mark overdue no-shows once and exit")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	resourceRepo := sqlite.NewResourceRepository(pool)
	ruleRepo := sqlite.NewRuleRepository(pool)
	reservationRepo := sqlite.NewReservationRepository(pool)
	sanctionRepo := sqlite.NewSanctionRepository(pool)

	sanctionService := application.NewSanctionServiceWithLogger(sanctionRepo, cfg.NoShowSuspension, idGenerator, now, logger)
	reservationService := application.NewReservationServiceWithLogger(reservationRepo, resourceRepo, ruleRepo, sanctionService, cfg.CheckInGrace, idGenerator, now, logger)
	resourceService := application.NewResourceServiceWithLogger(resourceRepo, idGenerator, now, logger)
	ruleService := application.NewRuleServiceWithLogger(ruleRepo, resourceRepo, idGenerator, now, logger)

	if *sweepOnce {
		marked, err := reservationService.SweepNoShows(ctx)
		if err != nil {
			logger.Error("no-show sweep failed", "error", err)
			os.Exit(1)
		}
		logger.Info("no-show sweep completed", "marked", marked)
		return
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Resources:    httptransport.NewResourceHandler(resourceService, logger),
		Rules:        httptransport.NewRuleHandler(ruleService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Sanctions:    httptransport.NewSanctionHandler(sanctionService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequirePrincipal(logger),
		},
	})

	go runNoShowSweeper(ctx, reservationService, cfg.SweepInterval, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// runNoShowSweeper periodically marks approved reservations whose check-in
// window has lapsed as no-shows, applying the automatic sanction for each.
func runNoShowSweeper(ctx context.Context, reservations *application.ReservationService, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			marked, err := reservations.SweepNoShows(ctx)
			if err != nil {
				logger.Error("no-show sweep failed", "error", err)
				continue
			}
			if marked > 0 {
				logger.Info("no-show sweep completed", "marked", marked)
			}
		}
	}
}
