package provider

import (
	"context"

	"go.uber.org/zap"

	"commerce-service/internal/models"
)

// EmailSender is the notification collaborator contract. All sends are
// fire-and-forget: never part of the success contract of checkout,
// fulfillment or payout.
type EmailSender interface {
	SendPurchaseConfirmation(ctx context.Context, event *models.PurchaseCompletedEvent) error
	SendCreditsReceipt(ctx context.Context, event *models.CreditsPurchasedEvent) error
	SendCreatorSaleAlert(ctx context.Context, event *models.CreatorSaleEvent) error
	SendPayoutSent(ctx context.Context, event *models.PayoutSentEvent) error
}

// LogEmailSender records notifications in the log instead of delivering
// them. Used when no mail provider is configured.
type LogEmailSender struct {
	logger *zap.Logger
}

// NewLogEmailSender creates a log-only email sender
func NewLogEmailSender(logger *zap.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) SendPurchaseConfirmation(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	s.logger.Info("Email: purchase confirmation",
		zap.Int64("buyer_id", event.BuyerID),
		zap.String("order_number", event.OrderNumber))
	return nil
}

func (s *LogEmailSender) SendCreditsReceipt(ctx context.Context, event *models.CreditsPurchasedEvent) error {
	s.logger.Info("Email: credits receipt",
		zap.Int64("buyer_id", event.BuyerID),
		zap.Int64("credits", event.Credits))
	return nil
}

func (s *LogEmailSender) SendCreatorSaleAlert(ctx context.Context, event *models.CreatorSaleEvent) error {
	s.logger.Info("Email: creator sale alert",
		zap.Int64("creator_id", event.CreatorID),
		zap.Int64("creator_share", event.CreatorShare))
	return nil
}

func (s *LogEmailSender) SendPayoutSent(ctx context.Context, event *models.PayoutSentEvent) error {
	s.logger.Info("Email: payout sent",
		zap.Int64("creator_id", event.CreatorID),
		zap.Int64("amount", event.Amount))
	return nil
}
