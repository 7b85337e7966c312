package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hiko-crawler/app"
	"hiko-crawler/config"
	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/scraper"
	"hiko-crawler/services"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

// crawlFetcher is the page fetcher the batch job drives and shuts down.
type crawlFetcher interface {
	scraper.Fetcher
	Close()
}

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logger, func(cfg *config.Config, logger *utils.Logger) (crawlFetcher, error) {
		return scraper.NewBrowserFetcher(cfg, logger)
	})
	stop()
	os.Exit(code)
}

// run executes one batch and returns the process exit code. Everything it
// opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *utils.Logger,
	newFetcher func(*config.Config, *utils.Logger) (crawlFetcher, error)) int {
	logger.Info("=== HiKo hotdeal crawler starting ===")
	logger.Info("Config: pages %d | concurrency %d | rate %dms | window %dh | ttl %dd",
		cfg.PagesToScrape, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.TimeFilterHours, cfg.DealTTLDays)

	overrides, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		logger.Error("Failed to load source overrides: %v", err)
		return 1
	}

	stack, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backing services: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return 1
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Error("Closing backing services failed: %v", err)
		}
	}()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		return 1
	}

	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		logger.Error("Failed to start browser: %v", err)
		_ = csvWriter.Close()
		return 1
	}
	defer fetcher.Close()

	reg := metrics.NewRegistry()
	crawler := scraper.New(cfg, overrides, scraper.Deps{
		Fetcher:   fetcher,
		Store:     stack.Store,
		Publisher: stack.Publisher,
		Locker:    stack.Locker,
		States:    stack.States,
		RawWriter: csvWriter,
		Metrics:   reg,
	}, logger)

	results := crawler.RunAll(ctx, cfg.SourcesToCrawl())

	if err := csvWriter.Close(); err != nil {
		logger.Error("CSV close failed: %v", err)
	}

	if len(results) == 0 {
		logger.Error("No source crawled successfully. Exiting.")
		return 1
	}

	var crawled []*models.HotDeal
	for _, res := range results {
		logger.Info("[%s] crawled %d | new %d | updated %d | skipped %d | filtered %d | errors %d | %v",
			res.Source, res.TotalCrawled, res.NewDeals, res.UpdatedDeals, res.Skipped, res.Filtered, res.Errors,
			res.Duration.Round(time.Millisecond))
		crawled = append(crawled, res.HotDeals...)
	}

	sweeper := services.NewSweeper(stack.Store, stack.Publisher, reg, logger)
	if _, err := sweeper.SweepExpired(ctx, time.Now()); err != nil {
		logger.Error("Expiry sweep failed: %v", err)
	}

	archived := ""
	if cfg.S3Bucket != "" {
		archived = archiveCSV(ctx, cfg, logger)
	}

	deals, err := stack.Store.List(ctx, storage.ListFilter{Status: models.StatusActive, Limit: 1000})
	if err != nil {
		logger.Error("Failed to fetch hotdeals for insights: %v", err)
		deals = crawled
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(deals)
	insightSvc.Print(report)

	fmt.Printf("  Done. Raw CSV → %s", cfg.CSVOutputPath)
	if archived != "" {
		fmt.Printf(" (archived to %s)", archived)
	}
	fmt.Printf(" | Hotdeals → %s store\n\n", cfg.StoreDriver)
	return 0
}

func archiveCSV(ctx context.Context, cfg *config.Config, logger *utils.Logger) string {
	uploader, err := storage.NewS3Uploader(storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		logger.Error("S3 setup failed: %v", err)
		return ""
	}

	key, err := uploader.UploadFile(ctx, cfg.CSVOutputPath, time.Now())
	if err != nil {
		logger.Error("S3 upload failed: %v", err)
		return ""
	}
	logger.Info("Raw CSV archived to s3://%s/%s", cfg.S3Bucket, key)
	return "s3://" + cfg.S3Bucket + "/" + key
}
