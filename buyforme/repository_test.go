package buyforme

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hiko-crawler/models"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	repo, err := NewRepository(db)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return repo
}

func newRequest() *models.BuyForMeRequest {
	return &models.BuyForMeRequest{
		UserID:      "user-1",
		HotDealID:   "deal-1",
		ProductURL:  "https://www.coupang.com/vp/products/123",
		ProductName: "참깨스틱",
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.BuyForMeStatus
		want     bool
	}{
		{models.BuyForMePendingReview, models.BuyForMeQuoteSent, true},
		{models.BuyForMeQuoteSent, models.BuyForMeQuoteApproved, true},
		{models.BuyForMePurchasing, models.BuyForMeShipping, true},
		{models.BuyForMeShipping, models.BuyForMeDelivered, true},
		{models.BuyForMePendingReview, models.BuyForMeQuoteApproved, false},
		{models.BuyForMeQuoteApproved, models.BuyForMeQuoteSent, false},
		{models.BuyForMePendingReview, models.BuyForMePendingReview, false},
		{models.BuyForMePendingReview, models.BuyForMeCancelled, true},
		{models.BuyForMePaymentPending, models.BuyForMeCancelled, true},
		{models.BuyForMePaymentCompleted, models.BuyForMeCancelled, false},
		{models.BuyForMeShipping, models.BuyForMeCancelled, false},
		{models.BuyForMeDelivered, models.BuyForMeCancelled, false},
		{models.BuyForMeCancelled, models.BuyForMePendingReview, false},
		{models.BuyForMeCancelled, models.BuyForMeCancelled, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown(models.BuyForMeShipping))
	assert.True(t, IsKnown(models.BuyForMeCancelled))
	assert.False(t, IsKnown("refunded"))
}

func TestCreateStartsPending(t *testing.T) {
	repo := setupTestRepo(t)
	req := newRequest()
	req.Status = models.BuyForMeDelivered
	req.QuotedPrice = 5000

	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotZero(t, req.ID)

	got, err := repo.FindByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BuyForMePendingReview, got.Status)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, 0, got.QuotedPrice)
}

func TestCreateValidates(t *testing.T) {
	repo := setupTestRepo(t)

	req := newRequest()
	req.ProductURL = "  "
	assert.ErrorIs(t, repo.Create(context.Background(), req), ErrInvalidRequest)

	req = newRequest()
	req.UserID = ""
	assert.ErrorIs(t, repo.Create(context.Background(), req), ErrInvalidRequest)

	req = newRequest()
	req.Quantity = -1
	assert.ErrorIs(t, repo.Create(context.Background(), req), ErrInvalidRequest)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	_, err := repo.FindByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateStatusWalksTheFlow(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	req := newRequest()
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.UpdateStatus(ctx, req.ID, models.BuyForMeQuoteSent, 12900)
	require.NoError(t, err)
	assert.Equal(t, models.BuyForMeQuoteSent, got.Status)
	assert.Equal(t, 12900, got.QuotedPrice)

	_, err = repo.UpdateStatus(ctx, req.ID, models.BuyForMePaymentPending, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition, "skipping quote_approved")

	for _, next := range []models.BuyForMeStatus{
		models.BuyForMeQuoteApproved,
		models.BuyForMePaymentPending,
		models.BuyForMePaymentCompleted,
		models.BuyForMePurchasing,
		models.BuyForMeShipping,
		models.BuyForMeDelivered,
	} {
		got, err = repo.UpdateStatus(ctx, req.ID, next, 0)
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status)
	}
	assert.Equal(t, 12900, got.QuotedPrice)

	_, err = repo.UpdateStatus(ctx, req.ID, models.BuyForMeCancelled, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition, "delivered is terminal")
}

func TestUpdateStatusCancel(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	req := newRequest()
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.UpdateStatus(ctx, req.ID, models.BuyForMeCancelled, 0)
	require.NoError(t, err)
	assert.Equal(t, models.BuyForMeCancelled, got.Status)

	_, err = repo.UpdateStatus(ctx, req.ID, models.BuyForMeQuoteSent, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = repo.UpdateStatus(ctx, 999, models.BuyForMeQuoteSent, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByUser(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newRequest()))
	}
	other := newRequest()
	other.UserID = "user-2"
	require.NoError(t, repo.Create(ctx, other))

	reqs, err := repo.ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, reqs, 3)
	assert.Greater(t, reqs[0].ID, reqs[2].ID)
}
