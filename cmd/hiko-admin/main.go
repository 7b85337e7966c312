package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hiko-crawler/api"
	"hiko-crawler/app"
	"hiko-crawler/buyforme"
	"hiko-crawler/config"
	"hiko-crawler/metrics"
	"hiko-crawler/scraper"
	"hiko-crawler/services"
	"hiko-crawler/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	overrides, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		logger.Error("Failed to load source overrides: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backing services: %v", err)
		os.Exit(1)
	}
	defer stack.Close()

	db, err := buyforme.OpenPostgres(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect buy-for-me database: %v", err)
		os.Exit(1)
	}
	repo, err := buyforme.NewRepository(db)
	if err != nil {
		logger.Error("Failed to migrate buy-for-me table: %v", err)
		os.Exit(1)
	}

	fetcher, err := scraper.NewBrowserFetcher(cfg, logger)
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		os.Exit(1)
	}
	defer fetcher.Close()

	reg := metrics.NewRegistry()
	crawler := scraper.New(cfg, overrides, scraper.Deps{
		Fetcher:   fetcher,
		Store:     stack.Store,
		Publisher: stack.Publisher,
		Locker:    stack.Locker,
		States:    stack.States,
		Metrics:   reg,
	}, logger)
	sweeper := services.NewSweeper(stack.Store, stack.Publisher, reg, logger)

	srv := api.NewServer(api.Options{
		Crawler:   crawler,
		Store:     stack.Store,
		States:    stack.States,
		Sweeper:   sweeper,
		BuyForMe:  repo,
		Publisher: stack.Publisher,
		Metrics:   reg,
		Logger:    logger,
	})

	if cfg.SweepIntervalMin > 0 {
		go sweeper.Run(ctx, time.Duration(cfg.SweepIntervalMin)*time.Minute)
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HiKo admin listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down admin server...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("Error closing database: %v", err)
		}
	}
	logger.Info("HiKo admin exited")
}
