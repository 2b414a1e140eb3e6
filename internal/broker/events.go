package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"commerce-service/internal/models"
)

// EventPublisher handles publishing notification events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPurchaseCompleted publishes a PurchaseCompleted event
func (ep *EventPublisher) PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCreditsPurchased publishes a CreditsPurchased event
func (ep *EventPublisher) PublishCreditsPurchased(ctx context.Context, event *models.CreditsPurchasedEvent) error {
	key := fmt.Sprintf("user-%d", event.BuyerID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCreatorSale publishes a CreatorSale event
func (ep *EventPublisher) PublishCreatorSale(ctx context.Context, event *models.CreatorSaleEvent) error {
	key := fmt.Sprintf("creator-%d", event.CreatorID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPayoutSent publishes a PayoutSent event
func (ep *EventPublisher) PublishPayoutSent(ctx context.Context, event *models.PayoutSentEvent) error {
	key := fmt.Sprintf("creator-%d", event.CreatorID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler dispatches incoming notification events by their type tag
type EventHandler struct {
	onPurchaseCompleted func(context.Context, *models.PurchaseCompletedEvent) error
	onCreditsPurchased  func(context.Context, *models.CreditsPurchasedEvent) error
	onCreatorSale       func(context.Context, *models.CreatorSaleEvent) error
	onPayoutSent        func(context.Context, *models.PayoutSentEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPurchaseCompleted registers a handler for PurchaseCompleted events
func (eh *EventHandler) OnPurchaseCompleted(handler func(context.Context, *models.PurchaseCompletedEvent) error) {
	eh.onPurchaseCompleted = handler
}

// OnCreditsPurchased registers a handler for CreditsPurchased events
func (eh *EventHandler) OnCreditsPurchased(handler func(context.Context, *models.CreditsPurchasedEvent) error) {
	eh.onCreditsPurchased = handler
}

// OnCreatorSale registers a handler for CreatorSale events
func (eh *EventHandler) OnCreatorSale(handler func(context.Context, *models.CreatorSaleEvent) error) {
	eh.onCreatorSale = handler
}

// OnPayoutSent registers a handler for PayoutSent events
func (eh *EventHandler) OnPayoutSent(handler func(context.Context, *models.PayoutSentEvent) error) {
	eh.onPayoutSent = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypePurchaseCompleted:
		if eh.onPurchaseCompleted != nil {
			var event models.PurchaseCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PurchaseCompleted event: %w", err)
			}
			return eh.onPurchaseCompleted(ctx, &event)
		}

	case models.EventTypeCreditsPurchased:
		if eh.onCreditsPurchased != nil {
			var event models.CreditsPurchasedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CreditsPurchased event: %w", err)
			}
			return eh.onCreditsPurchased(ctx, &event)
		}

	case models.EventTypeCreatorSale:
		if eh.onCreatorSale != nil {
			var event models.CreatorSaleEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CreatorSale event: %w", err)
			}
			return eh.onCreatorSale(ctx, &event)
		}

	case models.EventTypePayoutSent:
		if eh.onPayoutSent != nil {
			var event models.PayoutSentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PayoutSent event: %w", err)
			}
			return eh.onPayoutSent(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
