package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/models"
)

// fakeWalletStore applies the same bucket arithmetic as the real store but
// entirely in memory
type fakeWalletStore struct {
	wallets map[int64]*models.Wallet
	entries []models.LedgerEntry
	grants  int
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{wallets: make(map[int64]*models.Wallet)}
}

func (f *fakeWalletStore) GetOrCreateWallet(ctx context.Context, userID, starterBonus int64) (*models.Wallet, error) {
	if w, ok := f.wallets[userID]; ok {
		return w, nil
	}
	w := &models.Wallet{UserID: userID, BonusCredits: starterBonus, LifetimeEarned: starterBonus}
	f.wallets[userID] = w
	if starterBonus > 0 {
		f.grants++
		f.entries = append(f.entries, models.LedgerEntry{
			UserID: userID, Type: models.LedgerTypeBonus, Amount: starterBonus, BalanceAfter: starterBonus,
		})
	}
	return w, nil
}

func (f *fakeWalletStore) DeductCredits(ctx context.Context, userID, amount int64, description, feature string, metadata sql.NullString) (*models.Wallet, *models.LedgerEntry, error) {
	w := f.wallets[userID]
	if w.Total() < amount {
		return nil, nil, models.ErrInsufficientFunds
	}
	split := models.SplitDeduction(w.Balance, w.BonusCredits, amount)
	w.Balance = split.NewBalance
	w.BonusCredits = split.NewBonus
	w.LifetimeSpent += amount
	entry := models.LedgerEntry{
		UserID: userID, Type: models.LedgerTypeDeduction, Amount: -amount,
		BalanceAfter: w.Total(), Description: description, Feature: feature, Metadata: metadata,
	}
	f.entries = append(f.entries, entry)
	return w, &entry, nil
}

func (f *fakeWalletStore) AddCredits(ctx context.Context, userID, amount int64, entryType, description string, metadata sql.NullString) (*models.Wallet, *models.LedgerEntry, error) {
	w := f.wallets[userID]
	if entryType == models.LedgerTypeBonus {
		w.BonusCredits += amount
	} else {
		w.Balance += amount
	}
	w.LifetimeEarned += amount
	entry := models.LedgerEntry{
		UserID: userID, Type: entryType, Amount: amount,
		BalanceAfter: w.Total(), Description: description, Metadata: metadata,
	}
	f.entries = append(f.entries, entry)
	return w, &entry, nil
}

func (f *fakeWalletStore) GetLedgerEntries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func TestGetBalanceInitializesWalletOnce(t *testing.T) {
	store := newFakeWalletStore()
	ws := NewWalletService(store, 50)
	ctx := context.Background()

	balance, err := ws.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.Balance)
	assert.Equal(t, int64(50), balance.BonusCredits)
	assert.Equal(t, int64(50), balance.Total)

	// second read must not grant again
	balance, err = ws.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.Total)
	assert.Equal(t, 1, store.grants)
}

func TestDeductCreditsSpendsBonusFirst(t *testing.T) {
	store := newFakeWalletStore()
	ws := NewWalletService(store, 20)
	ctx := context.Background()

	_, err := ws.AddCredits(ctx, 1, 100, models.LedgerTypePurchase, "top up", nil)
	require.NoError(t, err)

	balance, err := ws.DeductCredits(ctx, 1, 25, "render", "image_gen", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(0), balance.BonusCredits)
	assert.Equal(t, int64(95), balance.Balance)
	assert.Equal(t, int64(95), balance.Total)
}

func TestDeductCreditsInsufficientFunds(t *testing.T) {
	store := newFakeWalletStore()
	ws := NewWalletService(store, 10)
	ctx := context.Background()

	_, err := ws.DeductCredits(ctx, 1, 500, "render", "image_gen", nil)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	// wallet untouched, no deduction entry written
	balance, err := ws.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance.Total)

	entries, err := ws.GetTransactionHistory(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LedgerTypeBonus, entries[0].Type)
}

func TestHasEnoughCredits(t *testing.T) {
	store := newFakeWalletStore()
	ws := NewWalletService(store, 30)
	ctx := context.Background()

	ok, err := ws.HasEnoughCredits(ctx, 1, 30)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ws.HasEnoughCredits(ctx, 1, 31)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionHistoryNewestFirst(t *testing.T) {
	store := newFakeWalletStore()
	ws := NewWalletService(store, 0)
	ctx := context.Background()

	_, err := ws.GetBalance(ctx, 1)
	require.NoError(t, err)

	_, err = ws.AddCredits(ctx, 1, 100, models.LedgerTypePurchase, "first", nil)
	require.NoError(t, err)
	_, err = ws.DeductCredits(ctx, 1, 40, "second", "image_gen", nil)
	require.NoError(t, err)

	entries, err := ws.GetTransactionHistory(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Description)
	assert.Equal(t, int64(-40), entries[0].Amount)
	assert.Equal(t, "first", entries[1].Description)
}

func TestEncodeMetadata(t *testing.T) {
	assert.False(t, encodeMetadata(nil).Valid)
	assert.False(t, encodeMetadata(map[string]any{}).Valid)

	encoded := encodeMetadata(map[string]any{"session_id": "cs_123"})
	assert.True(t, encoded.Valid)
	assert.JSONEq(t, `{"session_id":"cs_123"}`, encoded.String)
}
