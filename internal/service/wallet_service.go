package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"commerce-service/internal/models"
	"commerce-service/internal/util"
)

// walletStore is the persistence surface the wallet manager needs. The
// store's wallet mutations are transactional and row-locked per user.
type walletStore interface {
	GetOrCreateWallet(ctx context.Context, userID, starterBonus int64) (*models.Wallet, error)
	DeductCredits(ctx context.Context, userID, amount int64, description, feature string, metadata sql.NullString) (*models.Wallet, *models.LedgerEntry, error)
	AddCredits(ctx context.Context, userID, amount int64, entryType, description string, metadata sql.NullString) (*models.Wallet, *models.LedgerEntry, error)
	GetLedgerEntries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error)
}

// WalletService owns per-user credit balances and the append-only ledger
type WalletService struct {
	store        walletStore
	starterBonus int64
	logger       *zap.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(store walletStore, starterBonus int64) *WalletService {
	return &WalletService{
		store:        store,
		starterBonus: starterBonus,
		logger:       util.GetLogger(),
	}
}

// Balance is the wallet view returned to callers
type Balance struct {
	Balance        int64 `json:"balance"`
	BonusCredits   int64 `json:"bonus_credits"`
	Total          int64 `json:"total"`
	LifetimeEarned int64 `json:"lifetime_earned"`
	LifetimeSpent  int64 `json:"lifetime_spent"`
}

// GetBalance returns the user's balance, lazily initializing the wallet with
// the one-time starter grant on first read
func (ws *WalletService) GetBalance(ctx context.Context, userID int64) (*Balance, error) {
	ctx, span := util.StartSpan(ctx, "WalletService.GetBalance")
	defer span.End()

	wallet, err := ws.store.GetOrCreateWallet(ctx, userID, ws.starterBonus)
	if err != nil {
		return nil, err
	}

	return &Balance{
		Balance:        wallet.Balance,
		BonusCredits:   wallet.BonusCredits,
		Total:          wallet.Total(),
		LifetimeEarned: wallet.LifetimeEarned,
		LifetimeSpent:  wallet.LifetimeSpent,
	}, nil
}

// HasEnoughCredits reports whether the user can afford the given amount
func (ws *WalletService) HasEnoughCredits(ctx context.Context, userID, amount int64) (bool, error) {
	balance, err := ws.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance.Total >= amount, nil
}

// DeductCredits spends credits, bonus bucket first. Insufficient funds
// leaves the wallet untouched and writes no ledger entry.
func (ws *WalletService) DeductCredits(ctx context.Context, userID, amount int64, description, feature string, metadata map[string]any) (*Balance, error) {
	ctx, span := util.StartSpan(ctx, "WalletService.DeductCredits")
	defer span.End()

	// ensure the wallet (and any starter grant) exists before locking it
	if _, err := ws.store.GetOrCreateWallet(ctx, userID, ws.starterBonus); err != nil {
		return nil, err
	}

	wallet, entry, err := ws.store.DeductCredits(ctx, userID, amount, description, feature, encodeMetadata(metadata))
	if err != nil {
		if err == models.ErrInsufficientFunds {
			util.WalletInsufficientTotal.Inc()
		}
		return nil, err
	}

	util.WalletDeductionsTotal.Inc()
	ws.logger.Info("Credits deducted",
		zap.Int64("user_id", userID),
		zap.Int64("amount", amount),
		zap.String("feature", feature),
		zap.Int64("balance_after", entry.BalanceAfter))

	return &Balance{
		Balance:        wallet.Balance,
		BonusCredits:   wallet.BonusCredits,
		Total:          wallet.Total(),
		LifetimeEarned: wallet.LifetimeEarned,
		LifetimeSpent:  wallet.LifetimeSpent,
	}, nil
}

// AddCredits credits the wallet. Bonus-type credits land in the
// non-transferable bucket; all other types credit the paid balance.
func (ws *WalletService) AddCredits(ctx context.Context, userID, amount int64, entryType, description string, metadata map[string]any) (*Balance, error) {
	ctx, span := util.StartSpan(ctx, "WalletService.AddCredits")
	defer span.End()

	if _, err := ws.store.GetOrCreateWallet(ctx, userID, ws.starterBonus); err != nil {
		return nil, err
	}

	wallet, _, err := ws.store.AddCredits(ctx, userID, amount, entryType, description, encodeMetadata(metadata))
	if err != nil {
		return nil, err
	}

	util.WalletCreditsAddedTotal.WithLabelValues(entryType).Inc()
	ws.logger.Info("Credits added",
		zap.Int64("user_id", userID),
		zap.Int64("amount", amount),
		zap.String("type", entryType))

	return &Balance{
		Balance:        wallet.Balance,
		BonusCredits:   wallet.BonusCredits,
		Total:          wallet.Total(),
		LifetimeEarned: wallet.LifetimeEarned,
		LifetimeSpent:  wallet.LifetimeSpent,
	}, nil
}

// GetTransactionHistory returns the user's ledger entries newest-first
func (ws *WalletService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return ws.store.GetLedgerEntries(ctx, userID, limit)
}

func encodeMetadata(metadata map[string]any) sql.NullString {
	if len(metadata) == 0 {
		return sql.NullString{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
