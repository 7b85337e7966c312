package services

import (
	"strings"
	"time"

	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/utils"
)

// Extractor turns one raw listing row into a NormalizedPost. It returns
// false when the row has no post identifier.
type Extractor interface {
	Name() models.Source
	Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool)
}

// CleanResult is what one Clean call kept and dropped.
type CleanResult struct {
	Posts         []*models.NormalizedPost
	MissingID     int
	Duplicates    int
	DateFallbacks int
}

// Cleaner transforms RawListings into extracted, de-duplicated posts.
type Cleaner struct {
	logger  *utils.Logger
	metrics *metrics.Registry
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger, reg *metrics.Registry) *Cleaner {
	return &Cleaner{logger: logger, metrics: reg}
}

// Clean extracts every raw row with ex. Rows without an id are dropped.
// Rows whose id is already in seen are dropped as duplicates; seen may be
// shared across the pages of one crawl. A nil seen disables that check.
func (c *Cleaner) Clean(ex Extractor, raw []*models.RawListing, seen *utils.PostSet, now time.Time) *CleanResult {
	res := &CleanResult{Posts: make([]*models.NormalizedPost, 0, len(raw))}
	source := ex.Name()

	for _, r := range raw {
		r.Title = CollapseSpace(r.Title)
		r.Author = strings.TrimSpace(r.Author)

		post, ok := ex.Extract(r, now)
		if !ok || post == nil {
			res.MissingID++
			c.logger.Warn("[cleaner] %s: dropping row without post id: %s", source, r.Title)
			continue
		}

		if seen != nil && !seen.Add(post.PostID) {
			res.Duplicates++
			c.logger.Debug("[cleaner] %s: duplicate post %s skipped", source, post.PostID)
			continue
		}

		if post.DateFallback {
			res.DateFallbacks++
			c.metrics.IncDateFallback(string(source))
			c.logger.Debug("[cleaner] %s: unrecognised date %q on post %s, using crawl time",
				source, r.DateText, post.PostID)
		}

		res.Posts = append(res.Posts, post)
	}

	c.logger.Info("[cleaner] %s: cleaned %d → %d posts (no id %d, duplicates %d)",
		source, len(raw), len(res.Posts), res.MissingID, res.Duplicates)
	return res
}
