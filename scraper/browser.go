package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"hiko-crawler/config"
	"hiko-crawler/models"
	"hiko-crawler/scraper/sources"
	"hiko-crawler/utils"
)

// Fetcher loads listing and detail pages for an adapter.
type Fetcher interface {
	FetchListingPage(ctx context.Context, adapter sources.Adapter, page int) ([]*models.RawListing, error)
	FetchDetail(ctx context.Context, adapter sources.Adapter, url string) (*models.DealDetail, error)
}

// BrowserFetcher renders pages in headless Chrome and hands the resulting
// HTML to the adapter's parser.
type BrowserFetcher struct {
	logger     *utils.Logger
	retry      *utils.RetryConfig
	navTimeout time.Duration
	loc        *time.Location

	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewBrowserFetcher starts a headless browser. Close must be called to
// shut it down.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) (*BrowserFetcher, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	navTimeout := time.Duration(cfg.NavTimeoutSec) * time.Second
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 2
	}

	return &BrowserFetcher{
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: attempts,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		navTimeout:    navTimeout,
		loc:           cfg.Location(),
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

func (b *BrowserFetcher) FetchListingPage(ctx context.Context, adapter sources.Adapter, page int) ([]*models.RawListing, error) {
	url := adapter.ListURL(page)
	b.logger.Info("[browser] %s page %d: %s", adapter.Name(), page, url)

	doc, err := b.load(ctx, url, fmt.Sprintf("%s-page-%d", adapter.Name(), page))
	if err != nil {
		return nil, err
	}
	rows := adapter.ParseListing(doc, time.Now().In(b.loc))
	b.logger.Debug("[browser] %s page %d: %d rows", adapter.Name(), page, len(rows))
	return rows, nil
}

func (b *BrowserFetcher) FetchDetail(ctx context.Context, adapter sources.Adapter, url string) (*models.DealDetail, error) {
	doc, err := b.load(ctx, url, fmt.Sprintf("%s-detail", adapter.Name()))
	if err != nil {
		return nil, err
	}
	return sources.ParseDetail(doc, adapter.DetailSelectors()), nil
}

// load opens url in a fresh tab with the per-request timeout and returns
// the rendered document. A failed navigation is retried.
func (b *BrowserFetcher) load(ctx context.Context, url, op string) (*goquery.Document, error) {
	var html string

	err := b.retry.Do(ctx, op, func() error {
		tabCtx, cancel := chromedp.NewContext(b.browserCtx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.navTimeout)
		defer cancelTimeout()

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("chromedp navigate %s: %w", url, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser: parse %s: %w", url, err)
	}
	return doc, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
