package buyforme

import (
	"errors"

	"hiko-crawler/models"
)

var (
	ErrInvalidTransition = errors.New("invalid buy-for-me status transition")
	ErrNotFound          = errors.New("buy-for-me request not found")
	ErrInvalidRequest    = errors.New("invalid buy-for-me request")
)

// flow is the forward order of a request's life.
var flow = []models.BuyForMeStatus{
	models.BuyForMePendingReview,
	models.BuyForMeQuoteSent,
	models.BuyForMeQuoteApproved,
	models.BuyForMePaymentPending,
	models.BuyForMePaymentCompleted,
	models.BuyForMePurchasing,
	models.BuyForMeShipping,
	models.BuyForMeDelivered,
}

// cancellable states are those before payment completes.
var cancellable = map[models.BuyForMeStatus]bool{
	models.BuyForMePendingReview:  true,
	models.BuyForMeQuoteSent:      true,
	models.BuyForMeQuoteApproved:  true,
	models.BuyForMePaymentPending: true,
}

// CanTransition reports whether a request may move from one status to the
// next. Each step advances exactly one state; delivered and cancelled are
// terminal.
func CanTransition(from, to models.BuyForMeStatus) bool {
	if to == models.BuyForMeCancelled {
		return cancellable[from]
	}
	for i := 0; i < len(flow)-1; i++ {
		if flow[i] == from {
			return flow[i+1] == to
		}
	}
	return false
}

// IsKnown reports whether s is a valid status value.
func IsKnown(s models.BuyForMeStatus) bool {
	if s == models.BuyForMeCancelled {
		return true
	}
	for _, f := range flow {
		if f == s {
			return true
		}
	}
	return false
}
