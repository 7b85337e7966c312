package storage

import (
	"context"
	"errors"
	"time"

	"hiko-crawler/models"
)

var (
	ErrNotFound          = errors.New("storage: not found")
	ErrInvalidTransition = errors.New("storage: invalid status transition")
	ErrDuplicate         = errors.New("storage: duplicate (source, source_id)")
)

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	Source models.Source
	Status models.DealStatus
	Limit  int
}

// HotDealStore is the persistence service for hotdeals. It is the only
// source of truth for dedup decisions.
type HotDealStore interface {
	// FindBySourceAndPostID returns nil, nil when no live row matches.
	FindBySourceAndPostID(ctx context.Context, source models.Source, postID string) (*models.HotDeal, error)
	Create(ctx context.Context, deal *models.HotDeal) (*models.HotDeal, error)
	Update(ctx context.Context, id string, deal *models.HotDeal) (*models.HotDeal, error)
	// ExpireBefore flips every live active row with end_date < now to
	// expired and returns the affected ids.
	ExpireBefore(ctx context.Context, now time.Time) ([]string, error)
	SoftDelete(ctx context.Context, id string, now time.Time) (*models.HotDeal, error)
	List(ctx context.Context, filter ListFilter) ([]*models.HotDeal, error)
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}

// StateStore keeps one CrawlState per source.
type StateStore interface {
	SaveState(ctx context.Context, state *models.CrawlState) error
	// LoadState returns ErrNotFound when the source has never been crawled.
	LoadState(ctx context.Context, source models.Source) (*models.CrawlState, error)
	Close() error
}

// Locker guards a crawl so only one runs per source at a time.
type Locker interface {
	// TryLock returns a release func and true when the lock was taken.
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

const defaultListLimit = 100

func effectiveLimit(n int) int {
	if n <= 0 || n > 1000 {
		return defaultListLimit
	}
	return n
}
