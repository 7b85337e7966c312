package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hiko-crawler/events"
	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

// IngestOptions tunes one Ingest call.
type IngestOptions struct {
	// Cutoff drops posts older than Now-Cutoff. Zero disables the filter.
	Cutoff  time.Duration
	Now     time.Time
	DealTTL time.Duration
}

// Ingester turns extracted posts into created or updated HotDeal rows.
// It keeps no state between calls and may be used for several sources
// concurrently.
type Ingester struct {
	store     storage.HotDealStore
	publisher events.Publisher
	metrics   *metrics.Registry
	logger    *utils.Logger
}

func NewIngester(store storage.HotDealStore, publisher events.Publisher, reg *metrics.Registry, logger *utils.Logger) *Ingester {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Ingester{store: store, publisher: publisher, metrics: reg, logger: logger}
}

// Ingest processes posts sequentially. Every post with an id ends in
// exactly one of new, updated or error; a failing post never stops the
// ones after it.
func (in *Ingester) Ingest(ctx context.Context, source models.Source, posts []*models.NormalizedPost, opts IngestOptions) *models.IngestResult {
	start := time.Now()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	res := &models.IngestResult{Source: source, HotDeals: make([]*models.HotDeal, 0, len(posts))}
	label := string(source)

	for _, post := range posts {
		if post == nil || strings.TrimSpace(post.PostID) == "" {
			res.Skipped++
			in.metrics.IncIngest(label, metrics.OutcomeSkipped)
			continue
		}
		if opts.Cutoff > 0 && post.PostDate.Before(now.Add(-opts.Cutoff)) {
			res.Filtered++
			in.metrics.IncIngest(label, metrics.OutcomeFiltered)
			continue
		}

		res.TotalCrawled++
		deal := ToHotDeal(source, post, nil, NormalizeOptions{Now: now, DealTTL: opts.DealTTL})
		res.HotDeals = append(res.HotDeals, deal)

		outcome, err := in.persist(ctx, deal)
		if err != nil {
			res.Errors++
			in.metrics.IncIngest(label, metrics.OutcomeError)
			in.logger.Error("[ingest] %s/%s save failed: %v", source, post.PostID, err)
			continue
		}

		switch outcome {
		case events.TypeCreated:
			res.NewDeals++
			in.metrics.IncIngest(label, metrics.OutcomeNew)
			in.logger.Debug("[ingest] new %s/%s: %s", source, deal.SourceID, deal.Title)
		case events.TypeUpdated:
			res.UpdatedDeals++
			in.metrics.IncIngest(label, metrics.OutcomeUpdated)
			in.logger.Debug("[ingest] updated %s/%s", source, deal.SourceID)
		}
	}

	res.Duration = time.Since(start)
	in.logger.Info("[ingest] %s: %d attempted, %d new, %d updated, %d errors, %d skipped, %d filtered",
		source, res.TotalCrawled, res.NewDeals, res.UpdatedDeals, res.Errors, res.Skipped, res.Filtered)
	return res
}

// persist runs the lookup-then-write for one deal and reports which event
// it produced. A panic inside the store is turned into an error so it is
// counted like any other per-item failure.
func (in *Ingester) persist(ctx context.Context, deal *models.HotDeal) (outcome string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	existing, err := in.store.FindBySourceAndPostID(ctx, deal.Source, deal.SourceID)
	if err != nil {
		return "", fmt.Errorf("lookup: %w", err)
	}

	var saved *models.HotDeal
	if existing == nil {
		saved, err = in.store.Create(ctx, deal)
		if err != nil {
			return "", fmt.Errorf("create: %w", err)
		}
		outcome = events.TypeCreated
	} else {
		merged := MergeForUpdate(existing, deal)
		saved, err = in.store.Update(ctx, existing.ID, merged)
		if err != nil {
			return "", fmt.Errorf("update %s: %w", existing.ID, err)
		}
		outcome = events.TypeUpdated
	}
	deal.ID = saved.ID

	if perr := in.publisher.Publish(ctx, events.ForDeal(outcome, saved, saved.UpdatedAt)); perr != nil {
		in.logger.Warn("[ingest] publish %s %s/%s: %v", outcome, deal.Source, deal.SourceID, perr)
	}
	return outcome, nil
}
