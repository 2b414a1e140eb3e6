package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"commerce-service/internal/models"
	"commerce-service/internal/provider"
	"commerce-service/internal/util"
)

type webhookStore interface {
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
	UnmarkEventProcessed(ctx context.Context, eventID string) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetListingByID(ctx context.Context, id int64) (*models.Listing, error)
	IncrementListingStats(ctx context.Context, listingID, revenue int64) error
}

type eventClaimer interface {
	ClaimEvent(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
}

type orderFulfiller interface {
	FulfillOrder(ctx context.Context, orderID int64) (*FulfillmentResult, error)
}

type creditWallet interface {
	GetBalance(ctx context.Context, userID int64) (*Balance, error)
	AddCredits(ctx context.Context, userID, amount int64, entryType, description string, metadata map[string]any) (*Balance, error)
}

type webhookPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error
	PublishCreditsPurchased(ctx context.Context, event *models.CreditsPurchasedEvent) error
	PublishCreatorSale(ctx context.Context, event *models.CreatorSaleEvent) error
}

// Webhook processing outcomes
const (
	WebhookResultProcessed = "processed"
	WebhookResultDuplicate = "duplicate"
	WebhookResultRejected  = "rejected"
	WebhookResultFailed    = "failed"
)

// WebhookResult is the structured outcome of one delivery. The caller
// acknowledges the webhook regardless of the business outcome.
type WebhookResult struct {
	Result  string `json:"result"`
	Reason  string `json:"reason,omitempty"`
	OrderID int64  `json:"order_id,omitempty"`
}

// WebhookProcessor turns checkout-completed events into orders, earnings and
// wallet credits. It is the exception boundary of the pipeline: nothing a
// handler does may escape, because an unacknowledged delivery makes the
// provider retry the whole event.
type WebhookProcessor struct {
	store       webhookStore
	claims      eventClaimer
	wallet      creditWallet
	fulfillment orderFulfiller
	publisher   webhookPublisher
	logger      *zap.Logger
}

// NewWebhookProcessor creates a new webhook processor. claims and publisher
// may be nil (no redis fast path, no notifications).
func NewWebhookProcessor(store webhookStore, claims eventClaimer, wallet creditWallet, fulfillment orderFulfiller, publisher webhookPublisher) *WebhookProcessor {
	return &WebhookProcessor{
		store:       store,
		claims:      claims,
		wallet:      wallet,
		fulfillment: fulfillment,
		publisher:   publisher,
		logger:      util.GetLogger(),
	}
}

// HandleCheckoutCompleted processes one checkout-completed delivery. It
// never returns an error and never panics outward; every failure becomes a
// structured result.
func (wp *WebhookProcessor) HandleCheckoutCompleted(ctx context.Context, event *provider.CheckoutCompletedEvent) (result *WebhookResult) {
	ctx, span := util.StartSpan(ctx, "WebhookProcessor.HandleCheckoutCompleted")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Panic in webhook handler",
				zap.String("session_id", event.SessionID),
				zap.Any("panic", r))
			util.WebhookEventsTotal.WithLabelValues("unknown", WebhookResultFailed).Inc()
			result = &WebhookResult{Result: WebhookResultFailed, Reason: "internal error"}
		}
	}()

	if event.SessionID == "" {
		util.WebhookEventsTotal.WithLabelValues("unknown", WebhookResultRejected).Inc()
		return &WebhookResult{Result: WebhookResultRejected, Reason: "missing session id"}
	}

	// validate metadata before any side effect
	metadata, err := models.ParseCheckoutMetadata(event.Metadata)
	if err != nil {
		wp.logger.Warn("Rejected webhook with invalid metadata",
			zap.String("session_id", event.SessionID),
			zap.Error(err))
		util.WebhookEventsTotal.WithLabelValues("unknown", WebhookResultRejected).Inc()
		return &WebhookResult{Result: WebhookResultRejected, Reason: err.Error()}
	}

	// deduplicate by the provider's session id before creating any rows;
	// redis is only a fast path, the processed_events insert is the claim
	if wp.claims != nil {
		if claimed, err := wp.claims.ClaimEvent(ctx, event.SessionID, 24*time.Hour); err == nil && !claimed {
			util.WebhookEventsTotal.WithLabelValues(metadata.PurchaseType, WebhookResultDuplicate).Inc()
			return wp.duplicateResult(ctx, event.SessionID)
		}
	}

	claimed, err := wp.store.MarkEventProcessed(ctx, event.SessionID, metadata.PurchaseType)
	if err != nil {
		wp.logger.Error("Failed to claim webhook event",
			zap.String("session_id", event.SessionID),
			zap.Error(err))
		wp.releaseClaim(ctx, event.SessionID, false)
		util.WebhookEventsTotal.WithLabelValues(metadata.PurchaseType, WebhookResultFailed).Inc()
		return &WebhookResult{Result: WebhookResultFailed, Reason: "dedup check failed"}
	}
	if !claimed {
		wp.logger.Info("Duplicate webhook delivery",
			zap.String("session_id", event.SessionID))
		util.WebhookEventsTotal.WithLabelValues(metadata.PurchaseType, WebhookResultDuplicate).Inc()
		return wp.duplicateResult(ctx, event.SessionID)
	}

	switch metadata.PurchaseType {
	case models.PurchaseTypeListing:
		result = wp.handleListingPurchase(ctx, event, metadata)
	case models.PurchaseTypeCredits:
		result = wp.handleCreditPurchase(ctx, event, metadata)
	}

	if result.Result == WebhookResultFailed && result.OrderID == 0 {
		// nothing durable was written, so give the claim back and let the
		// provider's redelivery retry from scratch
		wp.releaseClaim(ctx, event.SessionID, true)
	}

	util.WebhookEventsTotal.WithLabelValues(metadata.PurchaseType, result.Result).Inc()
	return result
}

// duplicateResult points the retried delivery at the order the first delivery
// created, when there is one
func (wp *WebhookProcessor) duplicateResult(ctx context.Context, sessionID string) *WebhookResult {
	result := &WebhookResult{Result: WebhookResultDuplicate}
	if order, err := wp.store.GetOrderBySessionID(ctx, sessionID); err == nil && order != nil {
		result.OrderID = order.ID
	}
	return result
}

func (wp *WebhookProcessor) releaseClaim(ctx context.Context, sessionID string, dropRow bool) {
	if wp.claims != nil {
		if err := wp.claims.ReleaseEvent(ctx, sessionID); err != nil {
			wp.logger.Error("Failed to release event claim",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
	if dropRow {
		if err := wp.store.UnmarkEventProcessed(ctx, sessionID); err != nil {
			wp.logger.Error("Failed to unmark processed event",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}
}

// handleListingPurchase creates the order, bumps listing stats and hands the
// order to the fulfillment engine
func (wp *WebhookProcessor) handleListingPurchase(ctx context.Context, event *provider.CheckoutCompletedEvent, md *models.CheckoutMetadata) *WebhookResult {
	order := &models.Order{
		OrderNumber:       newOrderNumber(),
		BuyerID:           md.BuyerID,
		Status:            models.OrderStatusPaid,
		TotalAmount:       md.SaleAmount,
		Currency:          md.Currency,
		ProviderSessionID: event.SessionID,
		PaidAt:            time.Now(),
	}

	if err := wp.store.CreateOrder(ctx, order); err != nil {
		wp.logger.Error("Failed to create order",
			zap.String("session_id", event.SessionID),
			zap.Error(err))
		return &WebhookResult{Result: WebhookResultFailed, Reason: "order creation failed"}
	}

	item := &models.OrderItem{
		OrderID:   order.ID,
		ListingID: md.ListingID,
		EditionID: md.EditionID,
		Quantity:  1,
		UnitPrice: md.SaleAmount,
		Royalty:   md.CreatorShare,
	}
	if err := wp.store.CreateOrderItem(ctx, item); err != nil {
		wp.logger.Error("Failed to create order item",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return &WebhookResult{Result: WebhookResultFailed, Reason: "order item creation failed", OrderID: order.ID}
	}

	if err := wp.store.IncrementListingStats(ctx, md.ListingID, md.SaleAmount); err != nil {
		wp.logger.Error("Failed to increment listing stats",
			zap.Int64("listing_id", md.ListingID),
			zap.Error(err))
	}

	if _, err := wp.fulfillment.FulfillOrder(ctx, order.ID); err != nil {
		// fulfillment is best-effort; the order stays retryable
		wp.logger.Error("Fulfillment failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}

	wp.publishPurchaseEvents(ctx, order, md)

	wp.logger.Info("Marketplace purchase processed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("buyer_id", md.BuyerID))

	return &WebhookResult{Result: WebhookResultProcessed, OrderID: order.ID}
}

// handleCreditPurchase initializes the wallet if needed and credits the
// purchased package
func (wp *WebhookProcessor) handleCreditPurchase(ctx context.Context, event *provider.CheckoutCompletedEvent, md *models.CheckoutMetadata) *WebhookResult {
	if _, err := wp.wallet.GetBalance(ctx, md.BuyerID); err != nil {
		wp.logger.Error("Failed to initialize wallet",
			zap.Int64("buyer_id", md.BuyerID),
			zap.Error(err))
		return &WebhookResult{Result: WebhookResultFailed, Reason: "wallet init failed"}
	}

	description := fmt.Sprintf("Credit package purchase (%d credits)", md.Credits)
	meta := map[string]any{"session_id": event.SessionID, "package_id": md.PackageID}

	if _, err := wp.wallet.AddCredits(ctx, md.BuyerID, md.Credits, models.LedgerTypePurchase, description, meta); err != nil {
		wp.logger.Error("Failed to add purchased credits",
			zap.Int64("buyer_id", md.BuyerID),
			zap.Error(err))
		return &WebhookResult{Result: WebhookResultFailed, Reason: "credit grant failed"}
	}

	if md.BonusCredits > 0 {
		if _, err := wp.wallet.AddCredits(ctx, md.BuyerID, md.BonusCredits, models.LedgerTypeBonus, "Package bonus credits", meta); err != nil {
			wp.logger.Error("Failed to add package bonus credits",
				zap.Int64("buyer_id", md.BuyerID),
				zap.Error(err))
		}
	}

	if wp.publisher != nil {
		event := &models.CreditsPurchasedEvent{
			BaseEvent:    newBaseEvent(models.EventTypeCreditsPurchased),
			BuyerID:      md.BuyerID,
			PackageID:    md.PackageID,
			Credits:      md.Credits,
			BonusCredits: md.BonusCredits,
		}
		if err := wp.publisher.PublishCreditsPurchased(ctx, event); err != nil {
			wp.logger.Error("Failed to publish CreditsPurchased event", zap.Error(err))
		}
	}

	wp.logger.Info("Credit purchase processed",
		zap.Int64("buyer_id", md.BuyerID),
		zap.Int64("credits", md.Credits))

	return &WebhookResult{Result: WebhookResultProcessed}
}

func (wp *WebhookProcessor) publishPurchaseEvents(ctx context.Context, order *models.Order, md *models.CheckoutMetadata) {
	if wp.publisher == nil {
		return
	}

	purchase := &models.PurchaseCompletedEvent{
		BaseEvent:   newBaseEvent(models.EventTypePurchaseCompleted),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		ListingID:   md.ListingID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}
	if err := wp.publisher.PublishPurchaseCompleted(ctx, purchase); err != nil {
		wp.logger.Error("Failed to publish PurchaseCompleted event", zap.Error(err))
	}

	sale := &models.CreatorSaleEvent{
		BaseEvent:    newBaseEvent(models.EventTypeCreatorSale),
		CreatorID:    md.SellerID,
		ListingID:    md.ListingID,
		OrderID:      order.ID,
		SaleAmount:   md.SaleAmount,
		CreatorShare: md.CreatorShare,
	}
	if err := wp.publisher.PublishCreatorSale(ctx, sale); err != nil {
		wp.logger.Error("Failed to publish CreatorSale event", zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
