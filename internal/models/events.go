package models

import "time"

// Event types
const (
	EventTypePurchaseCompleted = "PURCHASE_COMPLETED"
	EventTypeCreditsPurchased  = "CREDITS_PURCHASED"
	EventTypeCreatorSale       = "CREATOR_SALE"
	EventTypePayoutSent        = "PAYOUT_SENT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseCompletedEvent published after a marketplace order is created
type PurchaseCompletedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	BuyerID     int64  `json:"buyer_id"`
	ListingID   int64  `json:"listing_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// CreditsPurchasedEvent published after a credit package is credited
type CreditsPurchasedEvent struct {
	BaseEvent
	BuyerID      int64 `json:"buyer_id"`
	PackageID    int64 `json:"package_id"`
	Credits      int64 `json:"credits"`
	BonusCredits int64 `json:"bonus_credits"`
}

// CreatorSaleEvent published so the creator can be notified of a sale
type CreatorSaleEvent struct {
	BaseEvent
	CreatorID    int64 `json:"creator_id"`
	ListingID    int64 `json:"listing_id"`
	OrderID      int64 `json:"order_id"`
	SaleAmount   int64 `json:"sale_amount"`
	CreatorShare int64 `json:"creator_share"`
}

// PayoutSentEvent published after a payout batch transfers successfully
type PayoutSentEvent struct {
	BaseEvent
	CreatorID     int64 `json:"creator_id"`
	PayoutID      int64 `json:"payout_id"`
	Amount        int64 `json:"amount"`
	EarningsCount int   `json:"earnings_count"`
}
