package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"commerce-service/internal/models"
	"commerce-service/internal/util"
)

type earningsStore interface {
	CreateEarning(ctx context.Context, earning *models.Earning) error
	MarkEarningsAvailable(ctx context.Context, ids []int64) (int64, error)
	MatureEarnings(ctx context.Context, now time.Time) (int64, error)
}

// EarningsService owns per-sale earning records and their
// pending -> available -> paid lifecycle
type EarningsService struct {
	store      earningsStore
	feePercent float64
	maturation time.Duration
	logger     *zap.Logger
}

// NewEarningsService creates a new earnings service
func NewEarningsService(store earningsStore, feePercent float64, maturation time.Duration) *EarningsService {
	return &EarningsService{
		store:      store,
		feePercent: feePercent,
		maturation: maturation,
		logger:     util.GetLogger(),
	}
}

// RecordEarning writes the creator's share of one sale. The earning starts
// pending and matures after the maturation window, which absorbs refund and
// chargeback risk before payout eligibility.
func (es *EarningsService) RecordEarning(ctx context.Context, order *models.Order, item *models.OrderItem, edition *models.Edition, listing *models.Listing) (*models.Earning, error) {
	ctx, span := util.StartSpan(ctx, "EarningsService.RecordEarning")
	defer span.End()

	qty := int64(item.Quantity)
	saleAmount := item.UnitPrice * qty
	productionCost := edition.ProductionCost * qty
	split := models.ComputeFeeSplit(saleAmount, productionCost, es.feePercent)

	earning := &models.Earning{
		CreatorID:      listing.CreatorID,
		OrderID:        order.ID,
		OrderItemID:    item.ID,
		SaleAmount:     saleAmount,
		ProductionCost: productionCost,
		PlatformFee:    split.PlatformFee,
		CreatorShare:   split.CreatorShare,
		Status:         models.EarningStatusPending,
		AvailableAt:    time.Now().Add(es.maturation),
	}

	if err := es.store.CreateEarning(ctx, earning); err != nil {
		return nil, err
	}

	util.EarningsRecordedTotal.Inc()
	es.logger.Info("Earning recorded",
		zap.Int64("creator_id", earning.CreatorID),
		zap.Int64("order_id", order.ID),
		zap.Int64("creator_share", earning.CreatorShare))

	return earning, nil
}

// MarkEarningsAvailable transitions the given earnings from pending to
// available. Earnings in any other status are untouched, so repeated calls
// are idempotent.
func (es *EarningsService) MarkEarningsAvailable(ctx context.Context, ids []int64) (int64, error) {
	return es.store.MarkEarningsAvailable(ctx, ids)
}

// MatureEarnings makes every pending earning whose maturation window has
// elapsed available for payout. Called by the scheduled sweep; the ledger
// never self-schedules.
func (es *EarningsService) MatureEarnings(ctx context.Context) (int64, error) {
	ctx, span := util.StartSpan(ctx, "EarningsService.MatureEarnings")
	defer span.End()

	n, err := es.store.MatureEarnings(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		util.EarningsMaturedTotal.Add(float64(n))
		es.logger.Info("Earnings matured", zap.Int64("count", n))
	}
	return n, nil
}
