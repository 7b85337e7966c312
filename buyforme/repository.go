package buyforme

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hiko-crawler/models"
)

// OpenPostgres opens the gorm connection used for buy-for-me requests.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("buyforme: open: %w", err)
	}
	return db, nil
}

// Repository handles buy-for-me request persistence
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a Repository and migrates its table
func NewRepository(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&models.BuyForMeRequest{}); err != nil {
		return nil, fmt.Errorf("buyforme: migrate: %w", err)
	}
	return &Repository{db: db}, nil
}

// Create validates and inserts a new request. New requests always start
// in pending_review.
func (r *Repository) Create(ctx context.Context, req *models.BuyForMeRequest) error {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ProductURL = strings.TrimSpace(req.ProductURL)
	if req.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if req.ProductURL == "" {
		return fmt.Errorf("%w: product_url is required", ErrInvalidRequest)
	}
	if req.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	req.ID = 0
	req.QuotedPrice = 0
	req.Status = models.BuyForMePendingReview

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("buyforme: create: %w", err)
	}
	return nil
}

// FindByID finds a request by ID
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.BuyForMeRequest, error) {
	var req models.BuyForMeRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("buyforme: find %d: %w", id, err)
	}
	return &req, nil
}

// ListByUser lists a user's requests, newest first
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]models.BuyForMeRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var reqs []models.BuyForMeRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("buyforme: list %s: %w", userID, err)
	}
	return reqs, nil
}

// UpdateStatus moves a request to next. A positive quotedPrice is recorded
// when the quote is sent.
func (r *Repository) UpdateStatus(ctx context.Context, id uint64, next models.BuyForMeStatus, quotedPrice int) (*models.BuyForMeRequest, error) {
	var out models.BuyForMeRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !CanTransition(out.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, out.Status, next)
		}

		updates := map[string]any{"status": next}
		if next == models.BuyForMeQuoteSent && quotedPrice > 0 {
			updates["quoted_price"] = quotedPrice
		}
		res := tx.Model(&models.BuyForMeRequest{}).
			Where("id = ? AND status = ?", id, out.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d changed concurrently", ErrInvalidTransition, id)
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("buyforme: update %d: %w", id, err)
	}
	return &out, nil
}
