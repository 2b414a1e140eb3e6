package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"commerce-service/internal/models"
	"commerce-service/internal/provider"
	"commerce-service/internal/util"
)

type fulfillmentStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetEditionByID(ctx context.Context, id int64) (*models.Edition, error)
	GetListingByID(ctx context.Context, id int64) (*models.Listing, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetShippingAddress(ctx context.Context, userID int64) (*models.ShippingAddress, error)
	SetOrderItemDownload(ctx context.Context, itemID int64, url string, expiresAt sql.NullTime) error
	CreatePrintJob(ctx context.Context, job *models.PrintJob) error
	GetPrintJobsByOrderID(ctx context.Context, orderID int64) ([]models.PrintJob, error)
	UpdatePrintJobTracking(ctx context.Context, jobID int64, status string, trackingNumber, trackingURL, carrier sql.NullString) error
	UpdatePrintJobStatus(ctx context.Context, jobID int64, status string) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	MarkOrderShipped(ctx context.Context, orderID int64) error
	MarkOrderDelivered(ctx context.Context, orderID int64) error
}

type earningRecorder interface {
	RecordEarning(ctx context.Context, order *models.Order, item *models.OrderItem, edition *models.Edition, listing *models.Listing) (*models.Earning, error)
}

// FulfillmentEngine turns paid orders into digital deliveries or physical
// print jobs, and reconciles provider status over time. A nil print provider
// means print-on-demand is not configured; physical items then degrade to
// pending placeholders instead of failing the order.
type FulfillmentEngine struct {
	store          fulfillmentStore
	printer        provider.PrintProvider
	earnings       earningRecorder
	downloadExpiry time.Duration
	shippingLevel  string
	logger         *zap.Logger
}

// NewFulfillmentEngine creates a new fulfillment engine
func NewFulfillmentEngine(store fulfillmentStore, printer provider.PrintProvider, earnings earningRecorder, downloadExpiry time.Duration, shippingLevel string) *FulfillmentEngine {
	return &FulfillmentEngine{
		store:          store,
		printer:        printer,
		earnings:       earnings,
		downloadExpiry: downloadExpiry,
		shippingLevel:  shippingLevel,
		logger:         util.GetLogger(),
	}
}

// FulfillmentResult reports the best-effort outcome of fulfilling an order.
// Some items may succeed while others fail in the same call.
type FulfillmentResult struct {
	OrderID          int64    `json:"order_id"`
	DigitalDelivered bool     `json:"digital_delivered"`
	PrintJobsCreated int      `json:"print_jobs_created"`
	ItemFailures     []string `json:"item_failures,omitempty"`
	OrderStatus      string   `json:"order_status"`
}

// FulfillOrder processes every item of a paid order: digital items get a
// download reference with an expiry, physical items become print jobs. One
// earning is recorded per item regardless of delivery outcome. The order
// status reflects the mix of per-item results.
func (fe *FulfillmentEngine) FulfillOrder(ctx context.Context, orderID int64) (*FulfillmentResult, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentEngine.FulfillOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.FulfillmentLatency.Observe(time.Since(start).Seconds())
	}()

	order, err := fe.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := fe.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &FulfillmentResult{OrderID: orderID}
	succeeded := 0

	for i := range items {
		item := &items[i]

		edition, err := fe.store.GetEditionByID(ctx, item.EditionID)
		if err != nil {
			result.ItemFailures = append(result.ItemFailures, fmt.Sprintf("item %d: %v", item.ID, err))
			continue
		}

		listing, err := fe.store.GetListingByID(ctx, item.ListingID)
		if err != nil {
			result.ItemFailures = append(result.ItemFailures, fmt.Sprintf("item %d: %v", item.ID, err))
			continue
		}

		var itemErr error
		switch edition.Type {
		case models.EditionTypeDigital:
			itemErr = fe.deliverDigital(ctx, order, item, edition)
			if itemErr == nil {
				result.DigitalDelivered = true
			}
		case models.EditionTypePhysical:
			var created bool
			created, itemErr = fe.createPhysicalJob(ctx, order, item, edition, listing)
			if created {
				result.PrintJobsCreated++
			}
		default:
			itemErr = fmt.Errorf("unknown edition type %q", edition.Type)
		}

		if itemErr != nil {
			fe.logger.Warn("Order item fulfillment failed",
				zap.Int64("order_id", orderID),
				zap.Int64("item_id", item.ID),
				zap.Error(itemErr))
			result.ItemFailures = append(result.ItemFailures, fmt.Sprintf("item %d: %v", item.ID, itemErr))
		} else {
			succeeded++
		}

		// the creator earns on every sold item, delivered or not; failed
		// deliveries are resolved operationally, not by withholding earnings
		if _, err := fe.earnings.RecordEarning(ctx, order, item, edition, listing); err != nil {
			fe.logger.Error("Failed to record earning",
				zap.Int64("order_id", orderID),
				zap.Int64("item_id", item.ID),
				zap.Error(err))
		}
	}

	result.OrderStatus = deriveFulfillmentStatus(len(items), succeeded, result.PrintJobsCreated)
	if err := fe.store.UpdateOrderStatus(ctx, orderID, result.OrderStatus); err != nil {
		fe.logger.Error("Failed to update order status", zap.Int64("order_id", orderID), zap.Error(err))
	}

	util.OrdersFulfilledTotal.WithLabelValues(result.OrderStatus).Inc()
	fe.logger.Info("Order fulfillment finished",
		zap.Int64("order_id", orderID),
		zap.String("status", result.OrderStatus),
		zap.Bool("digital_delivered", result.DigitalDelivered),
		zap.Int("print_jobs_created", result.PrintJobsCreated),
		zap.Int("failures", len(result.ItemFailures)))

	return result, nil
}

// deliverDigital attaches the download reference and its expiry to the item.
// Fails only when the edition has no digital source file.
func (fe *FulfillmentEngine) deliverDigital(ctx context.Context, order *models.Order, item *models.OrderItem, edition *models.Edition) error {
	if !edition.FileURL.Valid || edition.FileURL.String == "" {
		return models.ErrMissingSourceFiles
	}

	expiresAt := sql.NullTime{Time: order.PaidAt.Add(fe.downloadExpiry), Valid: true}
	return fe.store.SetOrderItemDownload(ctx, item.ID, edition.FileURL.String, expiresAt)
}

// createPhysicalJob delegates a physical item to the print provider:
// printable first, then the job itself. Returns whether a PrintJob row was
// created (pending placeholders count) and the per-item failure, if any.
func (fe *FulfillmentEngine) createPhysicalJob(ctx context.Context, order *models.Order, item *models.OrderItem, edition *models.Edition, listing *models.Listing) (bool, error) {
	if !edition.InteriorURL.Valid || !edition.CoverURL.Valid {
		job := &models.PrintJob{
			OrderItemID:   item.ID,
			Status:        models.PrintJobStatusFailed,
			FailureReason: sql.NullString{String: "interior or cover source file missing", Valid: true},
		}
		if err := fe.store.CreatePrintJob(ctx, job); err != nil {
			return false, err
		}
		util.PrintJobsCreatedTotal.WithLabelValues(models.PrintJobStatusFailed).Inc()
		return false, models.ErrMissingSourceFiles
	}

	if fe.printer == nil {
		// provider not configured: record a placeholder so the order is not
		// lost; an operator resubmits once printing is available
		job := &models.PrintJob{
			OrderItemID: item.ID,
			Status:      models.PrintJobStatusPending,
		}
		if err := fe.store.CreatePrintJob(ctx, job); err != nil {
			return false, err
		}
		util.PrintJobsCreatedTotal.WithLabelValues(models.PrintJobStatusPending).Inc()
		fe.logger.Warn("Print provider not configured, recorded pending print job",
			zap.Int64("item_id", item.ID))
		return true, nil
	}

	address, err := fe.store.GetShippingAddress(ctx, order.BuyerID)
	if err != nil {
		job := &models.PrintJob{
			OrderItemID:   item.ID,
			Status:        models.PrintJobStatusFailed,
			FailureReason: sql.NullString{String: "no shipping address on file", Valid: true},
		}
		if createErr := fe.store.CreatePrintJob(ctx, job); createErr != nil {
			return false, createErr
		}
		util.PrintJobsCreatedTotal.WithLabelValues(models.PrintJobStatusFailed).Inc()
		return false, fmt.Errorf("shipping address: %w", err)
	}

	buyer, err := fe.store.GetUserByID(ctx, order.BuyerID)
	if err != nil {
		return false, err
	}

	printableID, err := fe.printer.CreatePrintable(ctx, provider.PrintableParams{
		Title:       listing.Title,
		InteriorURL: edition.InteriorURL.String,
		CoverURL:    edition.CoverURL.String,
		PackageSpec: edition.PackageSpec.String,
	})
	if err != nil {
		return fe.recordPendingPlaceholder(ctx, item, err)
	}

	placed, err := fe.printer.CreatePrintJob(ctx, provider.PrintJobParams{
		PrintableID:   printableID,
		Quantity:      item.Quantity,
		ShippingLevel: fe.shippingLevel,
		Address:       *address,
		ContactEmail:  buyer.Email,
	})
	if err != nil {
		return fe.recordPendingPlaceholder(ctx, item, err)
	}

	job := &models.PrintJob{
		OrderItemID:       item.ID,
		Status:            models.PrintJobStatusSubmitted,
		ProviderOrderID:   sql.NullString{String: placed.OrderID, Valid: true},
		ProductionCost:    placed.ProductionCost,
		ShippingCost:      placed.ShippingCost,
		EstimatedShipDate: sql.NullTime{Time: placed.EstimatedShipDate, Valid: !placed.EstimatedShipDate.IsZero()},
	}
	if err := fe.store.CreatePrintJob(ctx, job); err != nil {
		return false, err
	}

	util.PrintJobsCreatedTotal.WithLabelValues(models.PrintJobStatusSubmitted).Inc()
	fe.logger.Info("Print job submitted",
		zap.Int64("item_id", item.ID),
		zap.String("provider_order_id", placed.OrderID))
	return true, nil
}

// recordPendingPlaceholder keeps an unreachable provider from failing the
// order: the job stays pending and retryable
func (fe *FulfillmentEngine) recordPendingPlaceholder(ctx context.Context, item *models.OrderItem, cause error) (bool, error) {
	fe.logger.Warn("Print provider unreachable, recording pending print job",
		zap.Int64("item_id", item.ID),
		zap.Error(cause))

	job := &models.PrintJob{
		OrderItemID: item.ID,
		Status:      models.PrintJobStatusPending,
	}
	if err := fe.store.CreatePrintJob(ctx, job); err != nil {
		return false, err
	}
	util.PrintJobsCreatedTotal.WithLabelValues(models.PrintJobStatusPending).Inc()
	return true, nil
}

// SyncPrintJobStatus polls the provider for every non-terminal print job of
// an order and upserts status and tracking. Order status is derived: shipped
// once any job has shipped, delivered only once all jobs are delivered.
// Safe to run repeatedly and concurrently.
func (fe *FulfillmentEngine) SyncPrintJobStatus(ctx context.Context, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "FulfillmentEngine.SyncPrintJobStatus")
	defer span.End()

	jobs, err := fe.store.GetPrintJobsByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	if fe.printer == nil {
		fe.logger.Warn("Print provider not configured, skipping status sync",
			zap.Int64("order_id", orderID))
		return nil
	}

	anyShipped := false
	allDelivered := true

	for i := range jobs {
		job := &jobs[i]

		if !models.PrintJobTerminal(job.Status) && job.ProviderOrderID.Valid {
			status, err := fe.printer.GetPrintJobStatus(ctx, job.ProviderOrderID.String)
			if err != nil {
				util.PrintSyncTotal.WithLabelValues("error").Inc()
				fe.logger.Warn("Print status poll failed",
					zap.Int64("job_id", job.ID),
					zap.Error(err))
				allDelivered = false
				continue
			}

			mapped := provider.MapPrintStatus(status.Status)
			if err := fe.store.UpdatePrintJobTracking(ctx, job.ID, mapped,
				nullableString(status.TrackingNumber),
				nullableString(status.TrackingURL),
				nullableString(status.Carrier)); err != nil {
				return err
			}
			job.Status = mapped
			util.PrintSyncTotal.WithLabelValues("updated").Inc()
		}

		if job.Status == models.PrintJobStatusShipped {
			anyShipped = true
		}
		if job.Status != models.PrintJobStatusDelivered {
			allDelivered = false
		}
	}

	if allDelivered {
		return fe.store.MarkOrderDelivered(ctx, orderID)
	}
	if anyShipped {
		return fe.store.MarkOrderShipped(ctx, orderID)
	}
	return nil
}

// CancelOrderPrintJobs cancels every print job of an order that has not
// entered a terminal state. Jobs already placed with the provider need a
// remote cancel first; local placeholders are just marked. Returns how many
// jobs were cancelled.
func (fe *FulfillmentEngine) CancelOrderPrintJobs(ctx context.Context, orderID int64) (int, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentEngine.CancelOrderPrintJobs")
	defer span.End()

	jobs, err := fe.store.GetPrintJobsByOrderID(ctx, orderID)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range jobs {
		job := &jobs[i]
		if models.PrintJobTerminal(job.Status) || job.Status == models.PrintJobStatusShipped {
			continue
		}

		if job.ProviderOrderID.Valid {
			if fe.printer == nil {
				return cancelled, models.ErrPrintUnavailable
			}
			if err := fe.printer.CancelPrintJob(ctx, job.ProviderOrderID.String); err != nil {
				return cancelled, fmt.Errorf("cancel provider job %s: %w", job.ProviderOrderID.String, err)
			}
		}

		if err := fe.store.UpdatePrintJobStatus(ctx, job.ID, models.PrintJobStatusCancelled); err != nil {
			return cancelled, err
		}
		cancelled++

		fe.logger.Info("Print job cancelled",
			zap.Int64("order_id", orderID),
			zap.Int64("job_id", job.ID))
	}

	return cancelled, nil
}

// deriveFulfillmentStatus maps per-item outcomes onto the order status
func deriveFulfillmentStatus(total, succeeded, printJobs int) string {
	switch {
	case total == 0 || succeeded == 0:
		return models.OrderStatusFulfillmentFailed
	case succeeded < total:
		return models.OrderStatusPartiallyFulfilled
	case printJobs > 0:
		return models.OrderStatusProcessing
	default:
		// every item was digital and delivered immediately
		return models.OrderStatusDelivered
	}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
