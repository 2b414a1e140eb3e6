package models

import (
	"database/sql"
	"time"
)

// User represents a platform account (buyer and/or creator)
type User struct {
	ID                int64          `db:"id" json:"id"`
	Email             string         `db:"email" json:"email"`
	DisplayName       string         `db:"display_name" json:"display_name"`
	PaymentCustomerID sql.NullString `db:"payment_customer_id" json:"-"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// Wallet holds a user's spendable credits, split into paid balance and
// non-transferable bonus credits
type Wallet struct {
	UserID         int64     `db:"user_id" json:"user_id"`
	Balance        int64     `db:"balance" json:"balance"`
	BonusCredits   int64     `db:"bonus_credits" json:"bonus_credits"`
	LifetimeEarned int64     `db:"lifetime_earned" json:"lifetime_earned"`
	LifetimeSpent  int64     `db:"lifetime_spent" json:"lifetime_spent"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Total returns the spendable total across both buckets
func (w *Wallet) Total() int64 {
	return w.Balance + w.BonusCredits
}

// LedgerEntry is one immutable, signed record of a wallet balance change.
// Rows are append-only: never updated, never deleted.
type LedgerEntry struct {
	ID           int64          `db:"id" json:"id"`
	UserID       int64          `db:"user_id" json:"user_id"`
	Type         string         `db:"type" json:"type"`
	Amount       int64          `db:"amount" json:"amount"`
	BalanceAfter int64          `db:"balance_after" json:"balance_after"`
	Description  string         `db:"description" json:"description"`
	Feature      string         `db:"feature" json:"feature"`
	Metadata     sql.NullString `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// Ledger entry types
const (
	LedgerTypePurchase  = "purchase"
	LedgerTypeRefund    = "refund"
	LedgerTypeBonus     = "bonus"
	LedgerTypeEarning   = "earning"
	LedgerTypeDeduction = "deduction"
)

// Listing is a marketplace item offered by a creator
type Listing struct {
	ID           int64     `db:"id" json:"id"`
	CreatorID    int64     `db:"creator_id" json:"creator_id"`
	Title        string    `db:"title" json:"title"`
	Status       string    `db:"status" json:"status"`
	SalesCount   int64     `db:"sales_count" json:"sales_count"`
	RevenueTotal int64     `db:"revenue_total" json:"revenue_total"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Listing statuses
const (
	ListingStatusDraft     = "draft"
	ListingStatusPublished = "published"
	ListingStatusArchived  = "archived"
)

// Purchasable reports whether checkout may be started for the listing
func (l *Listing) Purchasable() bool {
	return l.Status == ListingStatusPublished
}

// Edition is a concrete purchasable variant of a listing (digital download
// or physical print-on-demand)
type Edition struct {
	ID             int64          `db:"id" json:"id"`
	ListingID      int64          `db:"listing_id" json:"listing_id"`
	Type           string         `db:"type" json:"type"`
	Price          int64          `db:"price" json:"price"`
	ProductionCost int64          `db:"production_cost" json:"production_cost"`
	Active         bool           `db:"active" json:"active"`
	FileURL        sql.NullString `db:"file_url" json:"-"`
	InteriorURL    sql.NullString `db:"interior_url" json:"-"`
	CoverURL       sql.NullString `db:"cover_url" json:"-"`
	PackageSpec    sql.NullString `db:"package_spec" json:"-"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// Edition types
const (
	EditionTypeDigital  = "digital"
	EditionTypePhysical = "physical"
)

// CreditPackage is a fixed bundle of credits sold for real money
type CreditPackage struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Credits      int64  `db:"credits" json:"credits"`
	BonusCredits int64  `db:"bonus_credits" json:"bonus_credits"`
	Price        int64  `db:"price" json:"price"`
	Active       bool   `db:"active" json:"active"`
}

// Order is a completed purchase awaiting or undergoing fulfillment
type Order struct {
	ID                int64        `db:"id" json:"id"`
	OrderNumber       string       `db:"order_number" json:"order_number"`
	BuyerID           int64        `db:"buyer_id" json:"buyer_id"`
	Status            string       `db:"status" json:"status"`
	TotalAmount       int64        `db:"total_amount" json:"total_amount"`
	Currency          string       `db:"currency" json:"currency"`
	ProviderSessionID string       `db:"provider_session_id" json:"provider_session_id,omitempty"`
	PaidAt            time.Time    `db:"paid_at" json:"paid_at"`
	ShippedAt         sql.NullTime `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt       sql.NullTime `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusPaid               = "paid"
	OrderStatusProcessing         = "processing"
	OrderStatusPartiallyFulfilled = "partially_fulfilled"
	OrderStatusShipped            = "shipped"
	OrderStatusDelivered          = "delivered"
	OrderStatusFulfillmentFailed  = "fulfillment_failed"
)

// OrderItem is one purchased edition within an order
type OrderItem struct {
	ID                int64          `db:"id" json:"id"`
	OrderID           int64          `db:"order_id" json:"order_id"`
	ListingID         int64          `db:"listing_id" json:"listing_id"`
	EditionID         int64          `db:"edition_id" json:"edition_id"`
	Quantity          int            `db:"quantity" json:"quantity"`
	UnitPrice         int64          `db:"unit_price" json:"unit_price"`
	Royalty           int64          `db:"royalty" json:"royalty"`
	DownloadURL       sql.NullString `db:"download_url" json:"download_url,omitempty"`
	DownloadExpiresAt sql.NullTime   `db:"download_expires_at" json:"download_expires_at,omitempty"`
}

// Earning is a creator's share of one sale, aging through a maturation
// window before it is eligible for payout
type Earning struct {
	ID             int64         `db:"id" json:"id"`
	CreatorID      int64         `db:"creator_id" json:"creator_id"`
	OrderID        int64         `db:"order_id" json:"order_id"`
	OrderItemID    int64         `db:"order_item_id" json:"order_item_id"`
	SaleAmount     int64         `db:"sale_amount" json:"sale_amount"`
	ProductionCost int64         `db:"production_cost" json:"production_cost"`
	PlatformFee    int64         `db:"platform_fee" json:"platform_fee"`
	CreatorShare   int64         `db:"creator_share" json:"creator_share"`
	Status         string        `db:"status" json:"status"`
	AvailableAt    time.Time     `db:"available_at" json:"available_at"`
	PayoutID       sql.NullInt64 `db:"payout_id" json:"payout_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// Earning statuses
const (
	EarningStatusPending   = "pending"
	EarningStatusAvailable = "available"
	EarningStatusPaid      = "paid"
)

// Payout is one external transfer covering a batch of available earnings.
// Immutable once paid.
type Payout struct {
	ID                 int64     `db:"id" json:"id"`
	CreatorID          int64     `db:"creator_id" json:"creator_id"`
	Amount             int64     `db:"amount" json:"amount"`
	Status             string    `db:"status" json:"status"`
	EarningsCount      int       `db:"earnings_count" json:"earnings_count"`
	ProviderTransferID string    `db:"provider_transfer_id" json:"provider_transfer_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Payout statuses
const (
	PayoutStatusProcessing = "processing"
	PayoutStatusPaid       = "paid"
	PayoutStatusFailed     = "failed"
)

// PayoutAccount is a creator's external transfer destination
type PayoutAccount struct {
	UserID             int64     `db:"user_id" json:"user_id"`
	ProviderAccountID  string    `db:"provider_account_id" json:"provider_account_id"`
	OnboardingComplete bool      `db:"onboarding_complete" json:"onboarding_complete"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// PrintJob tracks one physical order item through the print-on-demand provider
type PrintJob struct {
	ID                int64          `db:"id" json:"id"`
	OrderItemID       int64          `db:"order_item_id" json:"order_item_id"`
	Status            string         `db:"status" json:"status"`
	ProviderOrderID   sql.NullString `db:"provider_order_id" json:"provider_order_id,omitempty"`
	TrackingNumber    sql.NullString `db:"tracking_number" json:"tracking_number,omitempty"`
	TrackingURL       sql.NullString `db:"tracking_url" json:"tracking_url,omitempty"`
	Carrier           sql.NullString `db:"carrier" json:"carrier,omitempty"`
	ProductionCost    int64          `db:"production_cost" json:"production_cost"`
	ShippingCost      int64          `db:"shipping_cost" json:"shipping_cost"`
	FailureReason     sql.NullString `db:"failure_reason" json:"failure_reason,omitempty"`
	EstimatedShipDate sql.NullTime   `db:"estimated_ship_date" json:"estimated_ship_date,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Print job statuses
const (
	PrintJobStatusPending   = "pending"
	PrintJobStatusSubmitted = "submitted"
	PrintJobStatusShipped   = "shipped"
	PrintJobStatusDelivered = "delivered"
	PrintJobStatusFailed    = "failed"
	PrintJobStatusCancelled = "cancelled"
)

// PrintJobTerminal reports whether a print job status can no longer change
func PrintJobTerminal(status string) bool {
	switch status {
	case PrintJobStatusDelivered, PrintJobStatusFailed, PrintJobStatusCancelled:
		return true
	}
	return false
}

// ShippingAddress is the buyer's delivery destination for physical items
type ShippingAddress struct {
	Name        string `db:"name" json:"name"`
	Street1     string `db:"street1" json:"street1"`
	Street2     string `db:"street2" json:"street2,omitempty"`
	City        string `db:"city" json:"city"`
	State       string `db:"state" json:"state,omitempty"`
	PostalCode  string `db:"postal_code" json:"postal_code"`
	CountryCode string `db:"country_code" json:"country_code"`
	Email       string `db:"email" json:"email"`
}

// ProcessedEvent for webhook idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
