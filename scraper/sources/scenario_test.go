package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiko-crawler/metrics"
	"hiko-crawler/models"
	"hiko-crawler/services"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

func sampleRecord(recommend string) *models.RawListing {
	return &models.RawListing{
		Source:   models.SourcePpomppu,
		PostID:   "635672",
		Title:    "[쿠팡]청우 참깨스틱 진 220g, 3개 (6,620/와우무료)",
		DateText: "01:16:03",
		Views:    "9887",
		Likes:    recommend,
		Comments: "0",
	}
}

func TestPpomppuSampleIngestedThenUpdated(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ingester := services.NewIngester(store, nil, metrics.NewRegistry(), utils.NewDiscardLogger())
	p := NewPpomppu()

	post, ok := p.Extract(sampleRecord("14 - 0"), testNow)
	require.True(t, ok)

	first := ingester.Ingest(ctx, models.SourcePpomppu, []*models.NormalizedPost{post}, services.IngestOptions{Now: testNow})
	assert.Equal(t, 1, first.NewDeals)
	assert.Equal(t, 0, first.UpdatedDeals)
	assert.Equal(t, 0, first.Errors)

	deal, err := store.FindBySourceAndPostID(ctx, models.SourcePpomppu, "635672")
	require.NoError(t, err)
	require.NotNil(t, deal)
	assert.Equal(t, "635672", deal.SourceID)
	assert.Equal(t, "쿠팡", deal.Seller)
	assert.True(t, deal.IsFreeShipping)
	assert.Equal(t, models.StatusActive, deal.Status)
	assert.Equal(t, 14, deal.LikeCount)
	assert.Equal(t, 6620, deal.SalePrice)

	later := testNow.Add(10 * time.Minute)
	post, ok = p.Extract(sampleRecord("21 - 1"), later)
	require.True(t, ok)

	second := ingester.Ingest(ctx, models.SourcePpomppu, []*models.NormalizedPost{post}, services.IngestOptions{Now: later})
	assert.Equal(t, 0, second.NewDeals)
	assert.Equal(t, 1, second.UpdatedDeals)
	assert.Equal(t, 1, store.Len())

	updated, err := store.FindBySourceAndPostID(ctx, models.SourcePpomppu, "635672")
	require.NoError(t, err)
	assert.Equal(t, deal.ID, updated.ID)
	assert.Equal(t, 21, updated.LikeCount)
}
