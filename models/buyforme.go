package models

import "time"

// BuyForMeStatus is the proxy-purchase request state.
type BuyForMeStatus string

const (
	BuyForMePendingReview    BuyForMeStatus = "pending_review"
	BuyForMeQuoteSent        BuyForMeStatus = "quote_sent"
	BuyForMeQuoteApproved    BuyForMeStatus = "quote_approved"
	BuyForMePaymentPending   BuyForMeStatus = "payment_pending"
	BuyForMePaymentCompleted BuyForMeStatus = "payment_completed"
	BuyForMePurchasing       BuyForMeStatus = "purchasing"
	BuyForMeShipping         BuyForMeStatus = "shipping"
	BuyForMeDelivered        BuyForMeStatus = "delivered"
	BuyForMeCancelled        BuyForMeStatus = "cancelled"
)

// BuyForMeRequest is a user request asking staff to purchase an item.
type BuyForMeRequest struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	HotDealID   string         `gorm:"column:hotdeal_id;size:64" json:"hotdeal_id,omitempty"`
	ProductURL  string         `gorm:"column:product_url;size:1000;not null" json:"product_url"`
	ProductName string         `gorm:"column:product_name;size:500" json:"product_name"`
	Quantity    int            `gorm:"default:1" json:"quantity"`
	Options     string         `gorm:"type:text" json:"options,omitempty"`
	QuotedPrice int            `gorm:"column:quoted_price;default:0" json:"quoted_price"`
	Status      BuyForMeStatus `gorm:"size:32;default:'pending_review';index" json:"status"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

// TableName GORM table name
func (BuyForMeRequest) TableName() string {
	return "buy_for_me_requests"
}
