package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"commerce-service/internal/models"
	"commerce-service/internal/provider"
	"commerce-service/internal/util"
)

type payoutStore interface {
	GetPayoutAccount(ctx context.Context, userID int64) (*models.PayoutAccount, error)
	GetAvailableEarnings(ctx context.Context, creatorID int64) ([]models.Earning, error)
	SettlePayout(ctx context.Context, creatorID, amount int64, transferID string, earningIDs []int64) (*models.Payout, error)
	GetPayoutByID(ctx context.Context, id int64) (*models.Payout, error)
	GetEarningsByPayoutID(ctx context.Context, payoutID int64) ([]models.Earning, error)
}

type payoutLocker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

type transferClient interface {
	CreateTransfer(ctx context.Context, params provider.TransferParams) (*provider.Transfer, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*provider.AccountLink, error)
}

type payoutPublisher interface {
	PublishPayoutSent(ctx context.Context, event *models.PayoutSentEvent) error
}

// payoutLockTTL bounds how long a crashed payout can block a creator
const payoutLockTTL = 2 * time.Minute

// PayoutService aggregates a creator's available earnings into a single
// external transfer
type PayoutService struct {
	store         payoutStore
	payments      transferClient
	locks         payoutLocker
	publisher     payoutPublisher
	currency      string
	onboardingURL OnboardingURLs
	logger        *zap.Logger
}

// OnboardingURLs are the redirect targets for payout account onboarding links
type OnboardingURLs struct {
	Refresh string
	Return  string
}

// NewPayoutService creates a new payout service. locks and publisher may be
// nil.
func NewPayoutService(store payoutStore, payments transferClient, locks payoutLocker, publisher payoutPublisher, currency string, onboarding OnboardingURLs) *PayoutService {
	return &PayoutService{
		store:         store,
		payments:      payments,
		locks:         locks,
		publisher:     publisher,
		currency:      currency,
		onboardingURL: onboarding,
		logger:        util.GetLogger(),
	}
}

// ProcessCreatorPayout batches every currently available earning of the
// creator into one transfer. The per-creator lock holds for the whole
// select + transfer + settle sequence so a concurrent call cannot pick an
// overlapping earning set; transfer failure changes nothing.
func (ps *PayoutService) ProcessCreatorPayout(ctx context.Context, creatorID int64) (*models.Payout, error) {
	ctx, span := util.StartSpan(ctx, "PayoutService.ProcessCreatorPayout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PayoutLatency.Observe(time.Since(start).Seconds())
	}()

	if ps.locks != nil {
		lockKey := fmt.Sprintf("payout:creator:%d", creatorID)
		acquired, err := ps.locks.AcquireLock(ctx, lockKey, payoutLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire payout lock: %w", err)
		}
		if !acquired {
			util.PayoutsTotal.WithLabelValues("locked").Inc()
			return nil, models.ErrPayoutLocked
		}
		defer func() {
			if err := ps.locks.ReleaseLock(ctx, lockKey); err != nil {
				ps.logger.Error("Failed to release payout lock",
					zap.Int64("creator_id", creatorID),
					zap.Error(err))
			}
		}()
	}

	account, err := ps.store.GetPayoutAccount(ctx, creatorID)
	if err != nil {
		util.PayoutsTotal.WithLabelValues("not_configured").Inc()
		return nil, err
	}
	if !account.OnboardingComplete {
		util.PayoutsTotal.WithLabelValues("not_configured").Inc()
		return nil, models.ErrPayoutNotConfigured
	}

	earnings, err := ps.store.GetAvailableEarnings(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if len(earnings) == 0 {
		util.PayoutsTotal.WithLabelValues("empty").Inc()
		return nil, models.ErrNoAvailableEarnings
	}

	var total int64
	ids := make([]int64, len(earnings))
	for i, earning := range earnings {
		total += earning.CreatorShare
		ids[i] = earning.ID
	}

	transfer, err := ps.payments.CreateTransfer(ctx, provider.TransferParams{
		DestinationAccountID: account.ProviderAccountID,
		Amount:               total,
		Currency:             ps.currency,
		Description:          fmt.Sprintf("Creator payout (%d earnings)", len(ids)),
		IdempotencyKey:       uuid.New().String(),
	})
	if err != nil {
		util.PayoutsTotal.WithLabelValues("transfer_failed").Inc()
		ps.logger.Error("Payout transfer failed",
			zap.Int64("creator_id", creatorID),
			zap.Int64("amount", total),
			zap.Error(err))
		return nil, fmt.Errorf("create transfer: %w", err)
	}

	payout, err := ps.store.SettlePayout(ctx, creatorID, total, transfer.ID, ids)
	if err != nil {
		// money moved but settlement did not record: surface loudly, the
		// transfer id is the reconciliation handle
		util.PayoutsTotal.WithLabelValues("settle_failed").Inc()
		ps.logger.Error("Payout settlement failed after transfer",
			zap.Int64("creator_id", creatorID),
			zap.String("transfer_id", transfer.ID),
			zap.Error(err))
		return nil, fmt.Errorf("settle payout (transfer %s): %w", transfer.ID, err)
	}

	util.PayoutsTotal.WithLabelValues("paid").Inc()
	util.PayoutAmountTotal.Add(float64(total))

	if ps.publisher != nil {
		event := &models.PayoutSentEvent{
			BaseEvent:     newBaseEvent(models.EventTypePayoutSent),
			CreatorID:     creatorID,
			PayoutID:      payout.ID,
			Amount:        payout.Amount,
			EarningsCount: payout.EarningsCount,
		}
		if err := ps.publisher.PublishPayoutSent(ctx, event); err != nil {
			ps.logger.Error("Failed to publish PayoutSent event", zap.Error(err))
		}
	}

	ps.logger.Info("Creator payout completed",
		zap.Int64("creator_id", creatorID),
		zap.Int64("payout_id", payout.ID),
		zap.Int64("amount", payout.Amount),
		zap.Int("earnings_count", payout.EarningsCount))

	return payout, nil
}

// PayoutDetail is one payout with the exact earning set it covered
type PayoutDetail struct {
	Payout   *models.Payout   `json:"payout"`
	Earnings []models.Earning `json:"earnings"`
}

// GetPayout returns a payout and the earnings it settled
func (ps *PayoutService) GetPayout(ctx context.Context, payoutID int64) (*PayoutDetail, error) {
	payout, err := ps.store.GetPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	earnings, err := ps.store.GetEarningsByPayoutID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	return &PayoutDetail{Payout: payout, Earnings: earnings}, nil
}

// CreateOnboardingLink returns a fresh provider onboarding URL for a creator
// whose payout account is not fully set up. Links are single-use on the
// provider side, so each call mints a new one.
func (ps *PayoutService) CreateOnboardingLink(ctx context.Context, creatorID int64) (string, error) {
	account, err := ps.store.GetPayoutAccount(ctx, creatorID)
	if err != nil {
		return "", err
	}

	link, err := ps.payments.CreateAccountLink(ctx, account.ProviderAccountID,
		ps.onboardingURL.Refresh, ps.onboardingURL.Return)
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}
