// Package provider defines the contracts for the external collaborators the
// commerce core depends on: the payment processor, the print-on-demand
// provider and the email sender.
package provider

import "context"

// CheckoutSessionParams describes a hosted payment session. Metadata must be
// fully self-describing: the completion webhook is handled with no other
// context.
type CheckoutSessionParams struct {
	CustomerID  string
	LineItem    LineItem
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// LineItem is the single charged line of a checkout session
type LineItem struct {
	Name     string
	Amount   int64
	Currency string
	Quantity int
}

// CheckoutSession is the provider's hosted session handle
type CheckoutSession struct {
	ID  string
	URL string
}

// Transfer is a Connect-style transfer to a creator's payout account
type Transfer struct {
	ID     string
	Amount int64
}

// TransferParams describes one payout transfer
type TransferParams struct {
	DestinationAccountID string
	Amount               int64
	Currency             string
	Description          string
	IdempotencyKey       string
}

// AccountLink is an onboarding or dashboard login URL for a payout account
type AccountLink struct {
	URL string
}

// PaymentProcessor is the payment collaborator contract
type PaymentProcessor interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error)
}

// CheckoutCompletedEvent is the webhook payload delivered by the payment
// processor when a hosted session finishes. SessionID doubles as the
// idempotency key for processing.
type CheckoutCompletedEvent struct {
	EventID     string            `json:"id"`
	SessionID   string            `json:"session_id"`
	CustomerID  string            `json:"customer_id"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}
