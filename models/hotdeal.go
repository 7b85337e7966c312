package models

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the community board a deal was scraped from.
type Source string

const (
	SourcePpomppu    Source = "ppomppu"
	SourceRuliweb    Source = "ruliweb"
	SourceClien      Source = "clien"
	SourceQuasarzone Source = "quasarzone"
	SourceEomisae    Source = "eomisae"
	SourceCoolenjoy  Source = "coolenjoy"
)

// AllSources returns every supported source in crawl order.
func AllSources() []Source {
	return []Source{
		SourcePpomppu,
		SourceRuliweb,
		SourceClien,
		SourceQuasarzone,
		SourceEomisae,
		SourceCoolenjoy,
	}
}

// ParseSource converts a user-supplied identifier into a Source.
func ParseSource(s string) (Source, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, src := range AllSources() {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// DealStatus is the lifecycle state of a persisted HotDeal.
type DealStatus string

const (
	StatusActive  DealStatus = "active"
	StatusExpired DealStatus = "expired"
	StatusDeleted DealStatus = "deleted"
)

var statusRank = map[DealStatus]int{
	StatusActive:  0,
	StatusExpired: 1,
	StatusDeleted: 2,
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic: active -> expired -> deleted, or active -> deleted.
// Staying in the same state is allowed.
func (s DealStatus) CanTransitionTo(next DealStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Category is the product category tag assigned to a deal.
type Category string

const (
	CategoryClothing    Category = "패션의류"
	CategoryFootwear    Category = "신발"
	CategoryBag         Category = "가방"
	CategoryAccessories Category = "모자/액세서리"
	CategoryDigital     Category = "가전/디지털"
	CategoryFood        Category = "식품/건강"
	CategoryBeauty      Category = "화장품/미용"
	CategoryLiving      Category = "생활/주방"
	CategoryBaby        Category = "유아"
	CategorySports      Category = "스포츠/레저"
	CategoryOther       Category = "기타"
)

// RawListing holds one unprocessed row exactly as it was read off a
// listing page. Numeric fields stay as text until extraction.
type RawListing struct {
	Source       Source
	PostID       string
	Title        string
	URL          string
	Author       string
	DateText     string
	Views        string
	Likes        string
	Comments     string
	PriceText    string
	Store        string
	Category     string
	ShippingText string
	StatusText   string
	ImageURL     string
	ScrapedAt    time.Time
}

// DealDetail is the optional enrichment fetched from a post's detail page.
type DealDetail struct {
	Content string
	Images  []string
}

// NormalizedPost is a listing row after field extraction.
type NormalizedPost struct {
	PostID        string
	Title         string
	URL           string
	Author        string
	Category      Category
	Price         int
	OriginalPrice int
	Store         string
	ShippingFree  bool
	Views         int
	LikeCount     int
	CommentCount  int
	PostDate      time.Time
	EndDate       time.Time
	RawStatus     string
	ImageURL      string
	Detail        *DealDetail

	// DateFallback is set when the date text matched no known format and
	// PostDate defaulted to the crawl time.
	DateFallback bool
}

// HotDeal is the canonical persisted deal.
type HotDeal struct {
	ID              string     `json:"id"`
	Source          Source     `json:"source"`
	SourceID        string     `json:"source_id"`
	Category        Category   `json:"category"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	OriginalPrice   int        `json:"original_price"`
	SalePrice       int        `json:"sale_price"`
	DiscountRate    int        `json:"discount_rate"`
	Seller          string     `json:"seller"`
	OriginalURL     string     `json:"original_url"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	ImageURL        string     `json:"image_url"`
	IsFreeShipping  bool       `json:"is_free_shipping"`
	Status          DealStatus `json:"status"`
	EndDate         time.Time  `json:"end_date"`
	Views           int        `json:"views"`
	CommentCount    int        `json:"comment_count"`
	LikeCount       int        `json:"like_count"`
	AuthorName      string     `json:"author_name"`
	ShoppingComment string     `json:"shopping_comment"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Clone returns a copy that shares no pointers with d.
func (d *HotDeal) Clone() *HotDeal {
	c := *d
	if d.DeletedAt != nil {
		t := *d.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// IngestResult is the per-invocation tally returned by the ingestion pipeline.
type IngestResult struct {
	Source       Source        `json:"source"`
	TotalCrawled int           `json:"total_crawled"`
	NewDeals     int           `json:"new_deals"`
	UpdatedDeals int           `json:"updated_deals"`
	Errors       int           `json:"errors"`
	Skipped      int           `json:"skipped"`
	Filtered     int           `json:"filtered"`
	Pages        int           `json:"pages"`
	Duration     time.Duration `json:"duration"`
	HotDeals     []*HotDeal    `json:"hotdeals"`
}

// CrawlState is the last known crawl checkpoint for one source.
type CrawlState struct {
	Source         Source    `json:"source"`
	Running        bool      `json:"running"`
	LastStartedAt  time.Time `json:"last_started_at"`
	LastFinishedAt time.Time `json:"last_finished_at"`
	PagesFetched   int       `json:"pages_fetched"`
	NewestPostID   string    `json:"newest_post_id"`
	TotalCrawled   int       `json:"total_crawled"`
	NewDeals       int       `json:"new_deals"`
	UpdatedDeals   int       `json:"updated_deals"`
	Errors         int       `json:"errors"`
	LastError      string    `json:"last_error,omitempty"`
}

// CrawlStatistics summarises a set of deals for the terminal report.
type CrawlStatistics struct {
	TotalDeals        int
	ActiveDeals       int
	ExpiredDeals      int
	FreeShippingCount int
	ImagesCount       int
	ContentCount      int
	AveragePrice      float64
	MinPrice          int
	MaxPrice          int
	CategoryCounts    map[Category]int
	StoreCounts       map[string]int
	SourceCounts      map[Source]int
	TopLiked          []*HotDeal
}
