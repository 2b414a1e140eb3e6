package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/models"
)

func message(t *testing.T, event any) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: payload}
}

func TestEventHandlerDispatch(t *testing.T) {
	handler := NewEventHandler()

	var gotPurchase *models.PurchaseCompletedEvent
	var gotPayout *models.PayoutSentEvent
	handler.OnPurchaseCompleted(func(ctx context.Context, event *models.PurchaseCompletedEvent) error {
		gotPurchase = event
		return nil
	})
	handler.OnPayoutSent(func(ctx context.Context, event *models.PayoutSentEvent) error {
		gotPayout = event
		return nil
	})

	purchase := &models.PurchaseCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypePurchaseCompleted,
			Timestamp: time.Now(),
		},
		OrderID:     1,
		OrderNumber: "ORD-ABCD1234",
		BuyerID:     42,
	}
	require.NoError(t, handler.HandleMessage(context.Background(), message(t, purchase)))

	require.NotNil(t, gotPurchase)
	assert.Equal(t, "ORD-ABCD1234", gotPurchase.OrderNumber)
	assert.Equal(t, int64(42), gotPurchase.BuyerID)
	assert.Nil(t, gotPayout)
}

func TestEventHandlerUnregisteredType(t *testing.T) {
	handler := NewEventHandler()

	sale := &models.CreatorSaleEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeCreatorSale},
	}
	// no handler registered: the message is consumed without error
	assert.NoError(t, handler.HandleMessage(context.Background(), message(t, sale)))
}

func TestEventHandlerUnknownType(t *testing.T) {
	handler := NewEventHandler()
	msg := kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)}
	assert.NoError(t, handler.HandleMessage(context.Background(), msg))
}

func TestEventHandlerMalformedPayload(t *testing.T) {
	handler := NewEventHandler()
	msg := kafka.Message{Value: []byte(`not json`)}
	assert.Error(t, handler.HandleMessage(context.Background(), msg))
}
