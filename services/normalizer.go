package services

import (
	"math"
	"strings"
	"time"

	"hiko-crawler/models"
)

// DefaultDealTTL is how long a deal stays active when the board gives no
// explicit end date.
const DefaultDealTTL = 7 * 24 * time.Hour

var expiredTokens = []string{"종료", "ended", "closed", "sold_out", "품절"}

// NormalizeOptions controls ToHotDeal.
type NormalizeOptions struct {
	Now     time.Time
	DealTTL time.Duration
}

// ToHotDeal maps an extracted post (plus optional detail enrichment) to the
// canonical HotDeal. It never fails: missing detail leaves description and
// image empty.
func ToHotDeal(source models.Source, post *models.NormalizedPost, detail *models.DealDetail, opts NormalizeOptions) *models.HotDeal {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	ttl := opts.DealTTL
	if ttl <= 0 {
		ttl = DefaultDealTTL
	}
	if detail == nil {
		detail = post.Detail
	}

	var description string
	var images []string
	if detail != nil {
		description = detail.Content
		images = detail.Images
	}

	thumbnail := absoluteImageURL(post.ImageURL)
	image := thumbnail
	if len(images) > 0 && images[0] != "" {
		image = absoluteImageURL(images[0])
	}

	sale := post.Price
	if sale < 0 {
		sale = 0
	}
	original := post.OriginalPrice
	if original <= 0 {
		original = sale
	}

	endDate := post.EndDate
	if endDate.IsZero() {
		endDate = now.Add(ttl)
	}

	created := post.PostDate
	if created.IsZero() {
		created = now
	}

	return &models.HotDeal{
		Source:         source,
		SourceID:       post.PostID,
		Category:       post.Category,
		Title:          post.Title,
		Description:    description,
		OriginalPrice:  original,
		SalePrice:      sale,
		DiscountRate:   DiscountRate(original, sale),
		Seller:         post.Store,
		OriginalURL:    post.URL,
		ThumbnailURL:   thumbnail,
		ImageURL:       image,
		IsFreeShipping: post.ShippingFree,
		Status:         StatusFromToken(post.RawStatus),
		EndDate:        endDate,
		Views:          nonNegative(post.Views),
		CommentCount:   nonNegative(post.CommentCount),
		LikeCount:      nonNegative(post.LikeCount),
		AuthorName:     post.Author,
		CreatedAt:      created,
		UpdatedAt:      now,
	}
}

// DiscountRate returns round((original-sale)/original*100) clamped to 0..100.
// A zero original price yields 0.
func DiscountRate(original, sale int) int {
	if original <= 0 {
		return 0
	}
	rate := int(math.Round(float64(original-sale) / float64(original) * 100))
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// StatusFromToken maps a board's status token to a DealStatus. The token
// must start with an expiry marker; "[종료]" and "종료됨" count, "not ended
// yet" does not.
func StatusFromToken(token string) models.DealStatus {
	token = strings.ToLower(strings.Trim(token, " \t[]()"))
	if token == "" {
		return models.StatusActive
	}
	for _, t := range expiredTokens {
		if strings.HasPrefix(token, t) {
			return models.StatusExpired
		}
	}
	return models.StatusActive
}

// MergeForUpdate folds a re-sighted deal into the stored one. Identity,
// creation time and end date stay; counters, prices and shipping refresh;
// description and images are only replaced by non-empty values; status
// only moves forward.
func MergeForUpdate(existing, incoming *models.HotDeal) *models.HotDeal {
	merged := existing.Clone()

	merged.Title = incoming.Title
	merged.Category = incoming.Category
	merged.OriginalPrice = incoming.OriginalPrice
	merged.SalePrice = incoming.SalePrice
	merged.DiscountRate = incoming.DiscountRate
	merged.IsFreeShipping = incoming.IsFreeShipping
	merged.Views = incoming.Views
	merged.CommentCount = incoming.CommentCount
	merged.LikeCount = incoming.LikeCount
	merged.UpdatedAt = incoming.UpdatedAt

	if incoming.Seller != "" {
		merged.Seller = incoming.Seller
	}
	if incoming.OriginalURL != "" {
		merged.OriginalURL = incoming.OriginalURL
	}
	if incoming.AuthorName != "" {
		merged.AuthorName = incoming.AuthorName
	}
	if incoming.Description != "" {
		merged.Description = incoming.Description
	}
	if incoming.ThumbnailURL != "" {
		merged.ThumbnailURL = incoming.ThumbnailURL
	}
	// an image equal to the thumbnail is only the listing fallback; it must
	// not replace a detail image found on an earlier sighting
	if incoming.ImageURL != "" && (incoming.ImageURL != incoming.ThumbnailURL || existing.ImageURL == "") {
		merged.ImageURL = incoming.ImageURL
	}
	if existing.Status.CanTransitionTo(incoming.Status) {
		merged.Status = incoming.Status
	}
	return merged
}

func absoluteImageURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
