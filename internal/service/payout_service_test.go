package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/models"
	"commerce-service/internal/provider"
)

type fakePayoutStore struct {
	accounts map[int64]*models.PayoutAccount
	earnings map[int64][]models.Earning

	settled     []*models.Payout
	settledIDs  []int64
	settlements int
	settleErr   error
}

func newFakePayoutStore() *fakePayoutStore {
	return &fakePayoutStore{
		accounts: make(map[int64]*models.PayoutAccount),
		earnings: make(map[int64][]models.Earning),
	}
}

func (f *fakePayoutStore) GetPayoutAccount(ctx context.Context, userID int64) (*models.PayoutAccount, error) {
	if a, ok := f.accounts[userID]; ok {
		return a, nil
	}
	return nil, models.ErrPayoutNotConfigured
}

func (f *fakePayoutStore) GetAvailableEarnings(ctx context.Context, creatorID int64) ([]models.Earning, error) {
	return f.earnings[creatorID], nil
}

func (f *fakePayoutStore) GetPayoutByID(ctx context.Context, id int64) (*models.Payout, error) {
	for _, p := range f.settled {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakePayoutStore) GetEarningsByPayoutID(ctx context.Context, payoutID int64) ([]models.Earning, error) {
	var out []models.Earning
	for _, ids := range f.settledIDs {
		out = append(out, models.Earning{ID: ids, Status: models.EarningStatusPaid,
			PayoutID: sql.NullInt64{Int64: payoutID, Valid: true}})
	}
	return out, nil
}

func (f *fakePayoutStore) SettlePayout(ctx context.Context, creatorID, amount int64, transferID string, earningIDs []int64) (*models.Payout, error) {
	if f.settleErr != nil {
		return nil, f.settleErr
	}
	f.settlements++
	f.settledIDs = append(f.settledIDs, earningIDs...)
	payout := &models.Payout{
		ID:                 int64(f.settlements),
		CreatorID:          creatorID,
		Amount:             amount,
		Status:             models.PayoutStatusPaid,
		EarningsCount:      len(earningIDs),
		ProviderTransferID: transferID,
	}
	f.settled = append(f.settled, payout)
	return payout, nil
}

type fakeTransferClient struct {
	transfers []provider.TransferParams
	links     []string
	err       error
}

func (f *fakeTransferClient) CreateTransfer(ctx context.Context, params provider.TransferParams) (*provider.Transfer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.transfers = append(f.transfers, params)
	return &provider.Transfer{ID: "tr_1", Amount: params.Amount}, nil
}

func (f *fakeTransferClient) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*provider.AccountLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.links = append(f.links, accountID)
	return &provider.AccountLink{URL: "https://pay.example.com/onboard/" + accountID}, nil
}

type fakeLocker struct {
	held     map[string]bool
	acquired []string
	released []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (f *fakeLocker) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	if f.held[lockKey] {
		return false, nil
	}
	f.held[lockKey] = true
	f.acquired = append(f.acquired, lockKey)
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, lockKey string) error {
	delete(f.held, lockKey)
	f.released = append(f.released, lockKey)
	return nil
}

func payoutFixture(store *fakePayoutStore) {
	store.accounts[99] = &models.PayoutAccount{
		UserID: 99, ProviderAccountID: "acct_99", OnboardingComplete: true,
	}
	store.earnings[99] = []models.Earning{
		{ID: 1, CreatorID: 99, CreatorShare: 1700, Status: models.EarningStatusAvailable},
		{ID: 2, CreatorID: 99, CreatorShare: 1955, Status: models.EarningStatusAvailable},
		{ID: 3, CreatorID: 99, CreatorShare: 850, Status: models.EarningStatusAvailable},
	}
}

func TestProcessCreatorPayout(t *testing.T) {
	store := newFakePayoutStore()
	payoutFixture(store)
	transfers := &fakeTransferClient{}
	locker := newFakeLocker()
	ps := NewPayoutService(store, transfers, locker, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	payout, err := ps.ProcessCreatorPayout(context.Background(), 99)
	require.NoError(t, err)

	assert.Equal(t, int64(1700+1955+850), payout.Amount)
	assert.Equal(t, 3, payout.EarningsCount)
	assert.Equal(t, models.PayoutStatusPaid, payout.Status)
	assert.Equal(t, "tr_1", payout.ProviderTransferID)

	require.Len(t, transfers.transfers, 1)
	assert.Equal(t, "acct_99", transfers.transfers[0].DestinationAccountID)
	assert.Equal(t, payout.Amount, transfers.transfers[0].Amount)
	assert.Equal(t, "usd", transfers.transfers[0].Currency)
	assert.NotEmpty(t, transfers.transfers[0].IdempotencyKey)

	assert.Equal(t, []int64{1, 2, 3}, store.settledIDs)

	// lock released after the run
	assert.Equal(t, []string{"payout:creator:99"}, locker.acquired)
	assert.Equal(t, []string{"payout:creator:99"}, locker.released)
}

func TestProcessCreatorPayoutNoEarnings(t *testing.T) {
	store := newFakePayoutStore()
	store.accounts[99] = &models.PayoutAccount{UserID: 99, ProviderAccountID: "acct_99", OnboardingComplete: true}
	transfers := &fakeTransferClient{}
	ps := NewPayoutService(store, transfers, nil, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	_, err := ps.ProcessCreatorPayout(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrNoAvailableEarnings)
	assert.Empty(t, transfers.transfers)
	assert.Zero(t, store.settlements)
}

func TestProcessCreatorPayoutNotConfigured(t *testing.T) {
	ps := NewPayoutService(newFakePayoutStore(), &fakeTransferClient{}, nil, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	_, err := ps.ProcessCreatorPayout(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrPayoutNotConfigured)
}

func TestProcessCreatorPayoutOnboardingIncomplete(t *testing.T) {
	store := newFakePayoutStore()
	payoutFixture(store)
	store.accounts[99].OnboardingComplete = false
	transfers := &fakeTransferClient{}
	ps := NewPayoutService(store, transfers, nil, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	_, err := ps.ProcessCreatorPayout(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrPayoutNotConfigured)
	assert.Empty(t, transfers.transfers)
}

func TestProcessCreatorPayoutTransferFailure(t *testing.T) {
	store := newFakePayoutStore()
	payoutFixture(store)
	transfers := &fakeTransferClient{err: errors.New("provider unavailable")}
	ps := NewPayoutService(store, transfers, nil, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	_, err := ps.ProcessCreatorPayout(context.Background(), 99)
	require.Error(t, err)

	// no settlement, earnings untouched
	assert.Zero(t, store.settlements)
	for _, e := range store.earnings[99] {
		assert.Equal(t, models.EarningStatusAvailable, e.Status)
	}
}

func TestProcessCreatorPayoutLocked(t *testing.T) {
	store := newFakePayoutStore()
	payoutFixture(store)
	locker := newFakeLocker()
	locker.held["payout:creator:99"] = true
	transfers := &fakeTransferClient{}
	ps := NewPayoutService(store, transfers, locker, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	_, err := ps.ProcessCreatorPayout(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrPayoutLocked)
	assert.Empty(t, transfers.transfers)
}

func TestGetPayoutDetail(t *testing.T) {
	store := newFakePayoutStore()
	payoutFixture(store)
	ps := NewPayoutService(store, &fakeTransferClient{}, nil, nil, "usd", OnboardingURLs{})

	paid, err := ps.ProcessCreatorPayout(context.Background(), 99)
	require.NoError(t, err)

	detail, err := ps.GetPayout(context.Background(), paid.ID)
	require.NoError(t, err)
	assert.Equal(t, paid.ID, detail.Payout.ID)
	assert.Len(t, detail.Earnings, 3)
}

func TestCreateOnboardingLink(t *testing.T) {
	store := newFakePayoutStore()
	store.accounts[99] = &models.PayoutAccount{UserID: 99, ProviderAccountID: "acct_99"}
	transfers := &fakeTransferClient{}
	ps := NewPayoutService(store, transfers, nil, nil, "usd",
		OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	url, err := ps.CreateOnboardingLink(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/onboard/acct_99", url)

	// a creator with no provider account yet cannot get a link
	_, err = ps.CreateOnboardingLink(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrPayoutNotConfigured)
}

func TestProcessCreatorPayoutSettleFailureSurfacesTransferID(t *testing.T) {
	store := newFakePayoutStore()
	payoutFixture(store)
	store.settleErr = errors.New("deadlock")
	ps := NewPayoutService(store, &fakeTransferClient{}, nil, nil, "usd", OnboardingURLs{Refresh: "https://app/payout/refresh", Return: "https://app/payout/done"})

	_, err := ps.ProcessCreatorPayout(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tr_1")
}
