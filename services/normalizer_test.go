package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hiko-crawler/models"
)

var normNow = time.Date(2025, 7, 11, 10, 0, 0, 0, kst)

func samplePost() *models.NormalizedPost {
	return &models.NormalizedPost{
		PostID:       "635672",
		Title:        "[쿠팡]청우 참깨스틱 진 220g, 3개 (6,620/와우무료)",
		URL:          "https://www.ppomppu.co.kr/zboard/view.php?id=ppomppu&no=635672",
		Author:       "참깨왕",
		Category:     models.CategoryFood,
		Price:        6620,
		Store:        "쿠팡",
		ShippingFree: true,
		Views:        9887,
		LikeCount:    14,
		PostDate:     time.Date(2025, 7, 11, 1, 16, 3, 0, kst),
		ImageURL:     "//cdn.ppomppu.co.kr/thumb.jpg",
	}
}

func TestToHotDealDefaults(t *testing.T) {
	d := ToHotDeal(models.SourcePpomppu, samplePost(), nil, NormalizeOptions{Now: normNow})

	assert.Equal(t, "", d.ID)
	assert.Equal(t, "635672", d.SourceID)
	assert.Equal(t, "쿠팡", d.Seller)
	assert.Equal(t, 6620, d.SalePrice)
	assert.Equal(t, 6620, d.OriginalPrice)
	assert.Equal(t, 0, d.DiscountRate)
	assert.True(t, d.IsFreeShipping)
	assert.Equal(t, models.StatusActive, d.Status)
	assert.Equal(t, "", d.Description)
	assert.Equal(t, "https://cdn.ppomppu.co.kr/thumb.jpg", d.ThumbnailURL)
	assert.Equal(t, d.ThumbnailURL, d.ImageURL)
	assert.True(t, d.EndDate.Equal(normNow.Add(7*24*time.Hour)))
	assert.True(t, d.CreatedAt.Equal(samplePost().PostDate))
	assert.True(t, d.UpdatedAt.Equal(normNow))
}

func TestToHotDealWithDetail(t *testing.T) {
	detail := &models.DealDetail{Content: "본문 내용", Images: []string{"https://img.example.com/a.webp"}}
	d := ToHotDeal(models.SourcePpomppu, samplePost(), detail, NormalizeOptions{Now: normNow, DealTTL: 24 * time.Hour})

	assert.Equal(t, "본문 내용", d.Description)
	assert.Equal(t, "https://img.example.com/a.webp", d.ImageURL)
	assert.True(t, d.EndDate.Equal(normNow.Add(24*time.Hour)))
}

func TestToHotDealZeroPrice(t *testing.T) {
	p := samplePost()
	p.Price = 0
	p.OriginalPrice = 0

	d := ToHotDeal(models.SourceQuasarzone, p, nil, NormalizeOptions{Now: normNow})
	assert.Equal(t, 0, d.DiscountRate)
	assert.Equal(t, 0, d.SalePrice)
}

func TestToHotDealStatusTokens(t *testing.T) {
	for _, tok := range []string{"종료", "ended", "Closed", "sold_out", "품절", "[종료]", "종료됨", " Sold_Out "} {
		p := samplePost()
		p.RawStatus = tok
		if got := ToHotDeal(models.SourceClien, p, nil, NormalizeOptions{Now: normNow}).Status; got != models.StatusExpired {
			t.Errorf("status for %q: got %s, want expired", tok, got)
		}
	}
	for _, tok := range []string{"진행중", "not ended yet", "open, closed soon", "미종료"} {
		p := samplePost()
		p.RawStatus = tok
		assert.Equal(t, models.StatusActive, ToHotDeal(models.SourceClien, p, nil, NormalizeOptions{Now: normNow}).Status, tok)
	}
}

func TestDiscountRate(t *testing.T) {
	tests := []struct {
		orig, sale, want int
	}{
		{0, 0, 0},
		{0, 1000, 0},
		{10000, 7500, 25},
		{30000, 19900, 34},
		{1000, 1500, 0},
		{1000, 0, 100},
	}
	for _, tt := range tests {
		if got := DiscountRate(tt.orig, tt.sale); got != tt.want {
			t.Errorf("DiscountRate(%d, %d) = %d; want %d", tt.orig, tt.sale, got, tt.want)
		}
	}
}

func TestMergeForUpdate(t *testing.T) {
	existing := ToHotDeal(models.SourcePpomppu, samplePost(), &models.DealDetail{Content: "old body", Images: []string{"https://img/old.jpg"}}, NormalizeOptions{Now: normNow})
	existing.ID = "id-1"

	later := normNow.Add(time.Hour)
	p := samplePost()
	p.LikeCount = 20
	p.Views = 12000
	incoming := ToHotDeal(models.SourcePpomppu, p, nil, NormalizeOptions{Now: later})

	merged := MergeForUpdate(existing, incoming)
	assert.Equal(t, "id-1", merged.ID)
	assert.Equal(t, 20, merged.LikeCount)
	assert.Equal(t, 12000, merged.Views)
	assert.Equal(t, "old body", merged.Description)
	assert.Equal(t, "https://img/old.jpg", merged.ImageURL)
	assert.True(t, merged.EndDate.Equal(existing.EndDate))
	assert.True(t, merged.CreatedAt.Equal(existing.CreatedAt))
	assert.True(t, merged.UpdatedAt.Equal(later))

	// expired rows never come back to active
	existing.Status = models.StatusExpired
	assert.Equal(t, models.StatusExpired, MergeForUpdate(existing, incoming).Status)
}
