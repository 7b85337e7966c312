package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hiko-crawler/config"
	"hiko-crawler/events"
	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/scraper/sources"
	"hiko-crawler/services"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

var (
	// ErrCrawlInProgress is returned when another crawl holds the source's lock.
	ErrCrawlInProgress = errors.New("crawl already in progress")
	ErrUnknownSource   = sources.ErrUnknownSource
)

const (
	lockTTL = 30 * time.Minute

	// staleRunLimit consecutive posts older than the time filter end paging.
	staleRunLimit = 5
)

// Deps are the collaborators a Crawler writes through. Publisher, RawWriter
// and Metrics may be nil.
type Deps struct {
	Fetcher   Fetcher
	Store     storage.HotDealStore
	Publisher events.Publisher
	Locker    storage.Locker
	States    storage.StateStore
	RawWriter storage.RawListingWriter
	Metrics   *metrics.Registry
}

// Crawler drives one crawl per source: fetch pages, extract, enrich,
// audit, ingest and checkpoint.
type Crawler struct {
	cfg       *config.Config
	overrides config.SourceOverrides
	deps      Deps
	cleaner   *services.Cleaner
	ingester  *services.Ingester
	logger    *utils.Logger
	now       func() time.Time
}

// New creates a Crawler. Missing locker and state store default to
// in-process implementations.
func New(cfg *config.Config, overrides config.SourceOverrides, deps Deps, logger *utils.Logger) *Crawler {
	if deps.Locker == nil {
		deps.Locker = storage.NewMemoryLocker()
	}
	if deps.States == nil {
		deps.States = storage.NewMemoryStateStore()
	}
	loc := cfg.Location()
	return &Crawler{
		cfg:       cfg,
		overrides: overrides,
		deps:      deps,
		cleaner:   services.NewCleaner(logger, deps.Metrics),
		ingester:  services.NewIngester(deps.Store, deps.Publisher, deps.Metrics, logger),
		logger:    logger,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

// Settings returns the effective crawl settings for source.
func (c *Crawler) Settings(source models.Source) config.CrawlSettings {
	return c.overrides.Resolve(c.cfg, source)
}

// Run crawls one source. It fails only when the lock is held, the source
// is unknown or the first listing page cannot be fetched; every later
// problem is logged and reflected in the returned summary.
func (c *Crawler) Run(ctx context.Context, source models.Source) (*models.IngestResult, error) {
	adapter, err := sources.ForSource(source)
	if err != nil {
		return nil, fmt.Errorf("crawler: %w", err)
	}
	settings := c.Settings(source)

	release, ok, err := c.deps.Locker.TryLock(ctx, string(source), lockTTL)
	if err != nil {
		return nil, fmt.Errorf("crawler: lock %s: %w", source, err)
	}
	if !ok {
		return nil, fmt.Errorf("crawler: %s: %w", source, ErrCrawlInProgress)
	}
	defer release()

	start := c.now()
	state := c.loadState(ctx, source)
	state.Running = true
	state.LastStartedAt = start
	c.saveState(ctx, state)

	c.logger.Info("[crawler] %s: starting, up to %d pages, %dms between pages",
		source, settings.MaxPages, settings.DelayMs)

	batch, err := c.collect(ctx, adapter, settings, start)
	if err != nil {
		state.Running = false
		state.LastFinishedAt = c.now()
		state.LastError = err.Error()
		c.saveState(ctx, state)
		return nil, err
	}

	if settings.FetchDetails {
		c.enrich(ctx, adapter, batch.posts, settings.DelayMs)
	}

	if c.deps.RawWriter != nil && len(batch.raw) > 0 {
		if err := c.deps.RawWriter.WriteRaw(batch.raw); err != nil {
			c.logger.Warn("[crawler] %s: raw audit write failed: %v", source, err)
		}
	}

	res := c.ingester.Ingest(ctx, source, batch.posts, services.IngestOptions{
		Cutoff:  hours(settings.TimeFilterHours),
		Now:     start,
		DealTTL: c.cfg.DealTTL(),
	})
	res.Skipped += batch.missingID
	res.Pages = batch.pages
	res.Duration = c.now().Sub(start)
	c.deps.Metrics.ObserveCrawl(string(source), res.Duration.Seconds(), batch.pages)

	state.Running = false
	state.LastFinishedAt = c.now()
	state.PagesFetched = batch.pages
	if batch.newest != "" {
		state.NewestPostID = batch.newest
	}
	state.TotalCrawled = res.TotalCrawled
	state.NewDeals = res.NewDeals
	state.UpdatedDeals = res.UpdatedDeals
	state.Errors = res.Errors
	state.LastError = ""
	c.saveState(ctx, state)

	c.logger.Info("[crawler] %s: done in %v, %d pages, %d new, %d updated, %d errors",
		source, res.Duration.Round(time.Millisecond), res.Pages, res.NewDeals, res.UpdatedDeals, res.Errors)
	return res, nil
}

// RunAll crawls sources one after another. Disabled and failing sources
// are logged and left out of the results.
func (c *Crawler) RunAll(ctx context.Context, srcs []models.Source) []*models.IngestResult {
	results := make([]*models.IngestResult, 0, len(srcs))
	for _, src := range srcs {
		if ctx.Err() != nil {
			c.logger.Warn("[crawler] stopping: %v", ctx.Err())
			break
		}
		if !c.Settings(src).Enabled {
			c.logger.Info("[crawler] %s: disabled, skipping", src)
			continue
		}
		res, err := c.Run(ctx, src)
		if err != nil {
			c.logger.Error("[crawler] %s failed: %v", src, err)
			continue
		}
		results = append(results, res)
	}
	return results
}

type crawlBatch struct {
	raw       []*models.RawListing
	posts     []*models.NormalizedPost
	pages     int
	missingID int
	newest    string
}

// collect pages through the listing. Only a first-page failure is
// returned. Later failures and empty pages end paging early, and so does
// a run of staleRunLimit posts older than the cutoff.
func (c *Crawler) collect(ctx context.Context, adapter sources.Adapter, settings config.CrawlSettings, now time.Time) (*crawlBatch, error) {
	source := adapter.Name()
	batch := &crawlBatch{}
	seen := utils.NewPostSet()
	pace := utils.NewPaceLimiter(time.Duration(settings.DelayMs) * time.Millisecond)
	cutoff := hours(settings.TimeFilterHours)
	staleRun := 0

	for page := 1; page <= settings.MaxPages; page++ {
		if err := pace.Wait(ctx); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("crawler: %s: %w", source, err)
			}
			break
		}

		rows, err := c.deps.Fetcher.FetchListingPage(ctx, adapter, page)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("crawler: %s page 1: %w", source, err)
			}
			c.logger.Warn("[crawler] %s page %d failed, keeping %d posts: %v", source, page, len(batch.posts), err)
			break
		}
		if len(rows) == 0 {
			c.logger.Info("[crawler] %s page %d: no posts, stopping", source, page)
			break
		}

		batch.pages++
		batch.raw = append(batch.raw, rows...)
		cleaned := c.cleaner.Clean(adapter, rows, seen, now)
		batch.missingID += cleaned.MissingID
		if batch.newest == "" && len(cleaned.Posts) > 0 {
			batch.newest = cleaned.Posts[0].PostID
		}
		stale := false
		for _, p := range cleaned.Posts {
			batch.posts = append(batch.posts, p)
			if cutoff <= 0 {
				continue
			}
			if p.PostDate.Before(now.Add(-cutoff)) {
				staleRun++
			} else {
				staleRun = 0
			}
			if staleRun >= staleRunLimit {
				stale = true
				break
			}
		}
		if stale {
			c.logger.Info("[crawler] %s: %d consecutive posts older than %v, stopping at page %d",
				source, staleRun, cutoff, page)
			break
		}
	}
	return batch, nil
}

// enrich fetches detail pages with bounded concurrency. A failed detail
// leaves the post without one.
func (c *Crawler) enrich(ctx context.Context, adapter sources.Adapter, posts []*models.NormalizedPost, delayMs int) {
	pool := utils.NewWorkerPool(c.cfg.MaxConcurrency, delayMs)
	for _, post := range posts {
		p := post
		if p.URL == "" {
			continue
		}
		pool.Submit(ctx, func() {
			detail, err := c.deps.Fetcher.FetchDetail(ctx, adapter, p.URL)
			if err != nil {
				c.logger.Warn("[crawler] %s: detail %s failed: %v", adapter.Name(), p.PostID, err)
				return
			}
			p.Detail = detail
			c.logger.Debug("[crawler] %s: enriched %s", adapter.Name(), p.PostID)
		})
	}
	pool.Wait()
}

func (c *Crawler) loadState(ctx context.Context, source models.Source) *models.CrawlState {
	state, err := c.deps.States.LoadState(ctx, source)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("[crawler] %s: load state: %v", source, err)
		}
		return &models.CrawlState{Source: source}
	}
	return state
}

func (c *Crawler) saveState(ctx context.Context, state *models.CrawlState) {
	if err := c.deps.States.SaveState(ctx, state); err != nil {
		c.logger.Warn("[crawler] %s: save state: %v", state.Source, err)
	}
}

func hours(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Hour
}
