package services

import (
	"testing"

	"hiko-crawler/models"
	"hiko-crawler/utils"
)

func sampleDeals() []*models.HotDeal {
	return []*models.HotDeal{
		{Source: models.SourcePpomppu, Title: "[쿠팡] 참깨스틱", SalePrice: 6620, Seller: "쿠팡", Category: models.CategoryFood, Status: models.StatusActive, IsFreeShipping: true, LikeCount: 14, ImageURL: "https://img/1.jpg"},
		{Source: models.SourcePpomppu, Title: "[G마켓] 운동화", SalePrice: 39000, Seller: "G마켓", Category: models.CategoryFootwear, Status: models.StatusActive, LikeCount: 30},
		{Source: models.SourceClien, Title: "[쿠팡] SSD 1TB", SalePrice: 89000, Seller: "쿠팡", Category: models.CategoryDigital, Status: models.StatusExpired, LikeCount: 5, Description: "본문"},
		{Source: models.SourceQuasarzone, Title: "무료 게임 배포", SalePrice: 0, Seller: "에픽", Category: models.CategoryOther, Status: models.StatusActive, IsFreeShipping: true, LikeCount: 50},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDeals())
	if r.TotalDeals != 4 {
		t.Errorf("TotalDeals: got %d, want 4", r.TotalDeals)
	}
	if r.ActiveDeals != 3 || r.ExpiredDeals != 1 {
		t.Errorf("active/expired: got %d/%d, want 3/1", r.ActiveDeals, r.ExpiredDeals)
	}
	if r.FreeShippingCount != 2 {
		t.Errorf("FreeShippingCount: got %d, want 2", r.FreeShippingCount)
	}
	if r.ImagesCount != 1 || r.ContentCount != 1 {
		t.Errorf("images/content: got %d/%d, want 1/1", r.ImagesCount, r.ContentCount)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDeals())
	wantAvg := 44873.33
	if r.AveragePrice != wantAvg {
		t.Errorf("AveragePrice: got %.2f, want %.2f", r.AveragePrice, wantAvg)
	}
	if r.MinPrice != 6620 {
		t.Errorf("MinPrice: got %d, want 6620", r.MinPrice)
	}
	if r.MaxPrice != 89000 {
		t.Errorf("MaxPrice: got %d, want 89000", r.MaxPrice)
	}
}

func TestInsightTopLiked(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDeals())
	if len(r.TopLiked) != 4 {
		t.Fatalf("TopLiked len: got %d, want 4", len(r.TopLiked))
	}
	if r.TopLiked[0].LikeCount != 50 {
		t.Errorf("TopLiked[0].LikeCount: got %d, want 50", r.TopLiked[0].LikeCount)
	}
}

func TestInsightGrouping(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDeals())
	if r.StoreCounts["쿠팡"] != 2 {
		t.Errorf("쿠팡 count: got %d, want 2", r.StoreCounts["쿠팡"])
	}
	if r.SourceCounts[models.SourcePpomppu] != 2 {
		t.Errorf("ppomppu count: got %d, want 2", r.SourceCounts[models.SourcePpomppu])
	}
	if r.CategoryCounts[models.CategoryFootwear] != 1 {
		t.Errorf("신발 count: got %d, want 1", r.CategoryCounts[models.CategoryFootwear])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(nil)
	if r.TotalDeals != 0 {
		t.Errorf("expected 0 total deals for empty input")
	}
}

func TestTruncateIsRuneSafe(t *testing.T) {
	got := truncate("청우 참깨스틱 진 220g 3개 묶음", 8)
	if got != "청우 참깨..." {
		t.Errorf("truncate: got %q", got)
	}
}
