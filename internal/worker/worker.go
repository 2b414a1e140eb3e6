package worker

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"commerce-service/internal/broker"
	"commerce-service/internal/models"
	"commerce-service/internal/provider"
	"commerce-service/internal/service"
	"commerce-service/internal/store"
	"commerce-service/internal/util"
)

// NotificationWorker consumes notification events and hands them to the
// email collaborator. Delivery is fire-and-forget: a failed send is logged
// and the message is still committed.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, email provider.EmailSender) *NotificationWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPurchaseCompleted(func(ctx context.Context, event *models.PurchaseCompletedEvent) error {
		if err := email.SendPurchaseConfirmation(ctx, event); err != nil {
			logger.Error("Failed to send purchase confirmation", zap.Error(err))
		}
		return nil
	})
	eventHandler.OnCreditsPurchased(func(ctx context.Context, event *models.CreditsPurchasedEvent) error {
		if err := email.SendCreditsReceipt(ctx, event); err != nil {
			logger.Error("Failed to send credits receipt", zap.Error(err))
		}
		return nil
	})
	eventHandler.OnCreatorSale(func(ctx context.Context, event *models.CreatorSaleEvent) error {
		if err := email.SendCreatorSaleAlert(ctx, event); err != nil {
			logger.Error("Failed to send creator sale alert", zap.Error(err))
		}
		return nil
	})
	eventHandler.OnPayoutSent(func(ctx context.Context, event *models.PayoutSentEvent) error {
		if err := email.SendPayoutSent(ctx, event); err != nil {
			logger.Error("Failed to send payout notification", zap.Error(err))
		}
		return nil
	})

	return &NotificationWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

// MaturationWorker is the scheduled sweep that transitions pending earnings
// to available once their maturation window elapses. The earnings ledger
// never self-schedules; this worker is its external trigger.
type MaturationWorker struct {
	earnings *service.EarningsService
	interval time.Duration
	logger   *zap.Logger
}

// NewMaturationWorker creates a new maturation worker
func NewMaturationWorker(earnings *service.EarningsService, interval time.Duration) *MaturationWorker {
	return &MaturationWorker{
		earnings: earnings,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the sweep until the context is cancelled
func (w *MaturationWorker) Start(ctx context.Context) error {
	log.Printf("Starting earnings maturation worker (interval %s)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.earnings.MatureEarnings(ctx); err != nil {
				w.logger.Error("Earnings maturation sweep failed", zap.Error(err))
			}
		}
	}
}

// PrintSyncWorker periodically reconciles print job statuses for orders
// that still have jobs in flight
type PrintSyncWorker struct {
	store       *store.Store
	fulfillment *service.FulfillmentEngine
	interval    time.Duration
	batchSize   int
	logger      *zap.Logger
}

// NewPrintSyncWorker creates a new print sync worker
func NewPrintSyncWorker(store *store.Store, fulfillment *service.FulfillmentEngine, interval time.Duration) *PrintSyncWorker {
	return &PrintSyncWorker{
		store:       store,
		fulfillment: fulfillment,
		interval:    interval,
		batchSize:   100,
		logger:      util.GetLogger(),
	}
}

// Start runs the sync loop until the context is cancelled
func (w *PrintSyncWorker) Start(ctx context.Context) error {
	log.Printf("Starting print status sync worker (interval %s)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.syncOnce(ctx)
		}
	}
}

func (w *PrintSyncWorker) syncOnce(ctx context.Context) {
	orderIDs, err := w.store.ListOrdersWithOpenPrintJobs(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to list orders with open print jobs", zap.Error(err))
		return
	}

	for _, orderID := range orderIDs {
		if err := w.fulfillment.SyncPrintJobStatus(ctx, orderID); err != nil {
			w.logger.Error("Print status sync failed",
				zap.Int64("order_id", orderID),
				zap.Error(err))
		}
	}

	if len(orderIDs) > 0 {
		w.logger.Info("Print status sync completed", zap.Int("orders", len(orderIDs)))
	}
}
