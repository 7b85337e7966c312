package services

import (
	"context"
	"fmt"
	"time"

	"hiko-crawler/events"
	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

// Sweeper moves active deals past their end date to expired.
type Sweeper struct {
	store     storage.HotDealStore
	publisher events.Publisher
	metrics   *metrics.Registry
	logger    *utils.Logger
}

func NewSweeper(store storage.HotDealStore, publisher events.Publisher, reg *metrics.Registry, logger *utils.Logger) *Sweeper {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Sweeper{store: store, publisher: publisher, metrics: reg, logger: logger}
}

// SweepExpired expires every live active deal with end_date < now and
// returns how many rows changed. Running it twice with the same now
// changes nothing the second time.
func (s *Sweeper) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.ExpireBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweeper: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	s.metrics.AddSweepExpired(len(ids))
	evts := make([]events.Event, 0, len(ids))
	for _, id := range ids {
		evts = append(evts, events.Event{
			Type:       events.TypeExpired,
			DealID:     id,
			Status:     models.StatusExpired,
			OccurredAt: now,
		})
	}
	if err := s.publisher.Publish(ctx, evts...); err != nil {
		s.logger.Warn("[sweeper] publish %d expiry events: %v", len(evts), err)
	}

	s.logger.Info("[sweeper] expired %d deals", len(ids))
	return len(ids), nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if _, err := s.SweepExpired(ctx, time.Now()); err != nil {
		s.logger.Error("%v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if _, err := s.SweepExpired(ctx, t); err != nil {
				s.logger.Error("%v", err)
			}
		}
	}
}
