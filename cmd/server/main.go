// Command server runs the portfolio frontier service: it keeps daily price
// history in sync and serves Monte Carlo frontier simulations, max-Sharpe
// optimizations and charts over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/frontier"
	frontierhandlers "github.com/aristath/frontier/internal/modules/frontier/handlers"
	"github.com/aristath/frontier/internal/modules/history"
	historyhandlers "github.com/aristath/frontier/internal/modules/history/handlers"
	"github.com/aristath/frontier/internal/scheduler"
	"github.com/aristath/frontier/internal/server"
	"github.com/aristath/frontier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().
		Strs("symbols", cfg.Symbols).
		Int("trials", cfg.Trials).
		Int("port", cfg.Port).
		Msg("Starting frontier service")

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	if err := historyDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate history database")
	}

	// Wiring
	priceRepo := history.NewPriceRepository(historyDB, log)
	yahooClient := yahoo.NewClient(log)
	syncService := history.NewSyncService(yahooClient, priceRepo, log)

	runRepo := frontier.NewRunRepository(historyDB, log)
	optimizer := analysis.NewOptimizer(cfg.MaxIterations, cfg.Tolerance, log)
	frontierService := frontier.NewService(priceRepo, runRepo, optimizer, frontier.Config{
		Symbols:            cfg.Symbols,
		Trials:             cfg.Trials,
		Seed:               cfg.Seed,
		LookbackDays:       cfg.LookbackDays,
		TradingDaysPerYear: cfg.TradingDaysPerYear,
	}, log)

	chartsService := charts.NewService(log)

	srv := server.New(server.Config{
		Log:     log,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Modules: []server.RouteRegistrar{
			frontierhandlers.NewHandler(frontierService, chartsService, log),
			historyhandlers.NewHandler(syncService, priceRepo, chartsService, cfg.Symbols, cfg.LookbackDays, log),
		},
	})

	// Background jobs
	sched := scheduler.New(log)
	syncJob := scheduler.NewSyncPricesJob(syncService, cfg.Symbols, cfg.LookbackDays, log)
	if err := sched.AddJob(cfg.SyncSchedule, syncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price sync job")
	}
	sched.Start()

	// Seed the store on first boot so the engine has data before the first
	// scheduled sync.
	go func() {
		if date, err := priceRepo.LatestDate(cfg.Symbols[0]); err == nil && date == "" {
			log.Info().Msg("Empty price store, running initial sync")
			if err := sched.RunNow(syncJob); err != nil {
				log.Error().Err(err).Msg("Initial price sync failed")
			}
		}
	}()

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server stopped")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}

	log.Info().Msg("Frontier service stopped")
}
