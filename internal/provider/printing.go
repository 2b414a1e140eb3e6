package provider

import (
	"context"
	"time"

	"commerce-service/internal/models"
)

// PrintableParams describes the compiled book artifact the provider builds
// from source files before a job can be placed
type PrintableParams struct {
	Title       string
	InteriorURL string
	CoverURL    string
	PackageSpec string
}

// PrintJobParams places a physical production order from a printable
type PrintJobParams struct {
	PrintableID   string
	Quantity      int
	ShippingLevel string
	Address       models.ShippingAddress
	ContactEmail  string
}

// PrintJobResult is the provider's acknowledgement of a placed job
type PrintJobResult struct {
	OrderID           string
	EstimatedShipDate time.Time
	ProductionCost    int64
	ShippingCost      int64
}

// PrintJobStatus is the provider-side view of a job in flight
type PrintJobStatus struct {
	Status         string
	TrackingNumber string
	TrackingURL    string
	Carrier        string
}

// PrintProvider is the print-on-demand collaborator contract
type PrintProvider interface {
	CreatePrintable(ctx context.Context, params PrintableParams) (string, error)
	CreatePrintJob(ctx context.Context, params PrintJobParams) (*PrintJobResult, error)
	GetPrintJobStatus(ctx context.Context, providerOrderID string) (*PrintJobStatus, error)
	CancelPrintJob(ctx context.Context, providerOrderID string) error
}

// Provider-side job statuses, mapped onto models.PrintJob statuses during sync
const (
	ProviderStatusCreated    = "CREATED"
	ProviderStatusAccepted   = "ACCEPTED"
	ProviderStatusInProd     = "IN_PRODUCTION"
	ProviderStatusShipped    = "SHIPPED"
	ProviderStatusDelivered  = "DELIVERED"
	ProviderStatusRejected   = "REJECTED"
	ProviderStatusCancelled  = "CANCELED"
)

// MapPrintStatus translates a provider status onto the local print job enum.
// Unknown statuses map to submitted so sync stays non-terminal and retries.
func MapPrintStatus(providerStatus string) string {
	switch providerStatus {
	case ProviderStatusShipped:
		return models.PrintJobStatusShipped
	case ProviderStatusDelivered:
		return models.PrintJobStatusDelivered
	case ProviderStatusRejected:
		return models.PrintJobStatusFailed
	case ProviderStatusCancelled:
		return models.PrintJobStatusCancelled
	default:
		return models.PrintJobStatusSubmitted
	}
}
