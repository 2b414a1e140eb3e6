package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/models"
)

type fakeEarningsStore struct {
	earnings []*models.Earning
	matured  []time.Time
}

func (f *fakeEarningsStore) CreateEarning(ctx context.Context, earning *models.Earning) error {
	earning.ID = int64(len(f.earnings) + 1)
	f.earnings = append(f.earnings, earning)
	return nil
}

func (f *fakeEarningsStore) MarkEarningsAvailable(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for _, e := range f.earnings {
		for _, id := range ids {
			if e.ID == id && e.Status == models.EarningStatusPending {
				e.Status = models.EarningStatusAvailable
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeEarningsStore) MatureEarnings(ctx context.Context, now time.Time) (int64, error) {
	f.matured = append(f.matured, now)
	var n int64
	for _, e := range f.earnings {
		if e.Status == models.EarningStatusPending && !e.AvailableAt.After(now) {
			e.Status = models.EarningStatusAvailable
			n++
		}
	}
	return n, nil
}

func TestRecordEarningDigitalSale(t *testing.T) {
	store := &fakeEarningsStore{}
	es := NewEarningsService(store, 0.15, 14*24*time.Hour)

	order := &models.Order{ID: 1, BuyerID: 42}
	item := &models.OrderItem{ID: 10, OrderID: 1, Quantity: 1, UnitPrice: 2000}
	edition := &models.Edition{ID: 11, Type: models.EditionTypeDigital}
	listing := &models.Listing{ID: 7, CreatorID: 99}

	before := time.Now()
	earning, err := es.RecordEarning(context.Background(), order, item, edition, listing)
	require.NoError(t, err)

	assert.Equal(t, int64(99), earning.CreatorID)
	assert.Equal(t, int64(2000), earning.SaleAmount)
	assert.Equal(t, int64(0), earning.ProductionCost)
	assert.Equal(t, int64(300), earning.PlatformFee)
	assert.Equal(t, int64(1700), earning.CreatorShare)
	assert.Equal(t, models.EarningStatusPending, earning.Status)

	// matures two weeks out
	assert.WithinDuration(t, before.Add(14*24*time.Hour), earning.AvailableAt, 5*time.Second)
}

func TestRecordEarningPhysicalQuantity(t *testing.T) {
	store := &fakeEarningsStore{}
	es := NewEarningsService(store, 0.15, 14*24*time.Hour)

	order := &models.Order{ID: 1}
	item := &models.OrderItem{ID: 10, OrderID: 1, Quantity: 2, UnitPrice: 3500}
	edition := &models.Edition{ID: 12, Type: models.EditionTypePhysical, ProductionCost: 1200}
	listing := &models.Listing{ID: 7, CreatorID: 99}

	earning, err := es.RecordEarning(context.Background(), order, item, edition, listing)
	require.NoError(t, err)

	// both sale amount and production cost scale by quantity
	assert.Equal(t, int64(7000), earning.SaleAmount)
	assert.Equal(t, int64(2400), earning.ProductionCost)
	assert.Equal(t, earning.SaleAmount-earning.ProductionCost, earning.PlatformFee+earning.CreatorShare)
}

func TestMarkEarningsAvailableIdempotent(t *testing.T) {
	store := &fakeEarningsStore{
		earnings: []*models.Earning{
			{ID: 1, Status: models.EarningStatusPending},
			{ID: 2, Status: models.EarningStatusPaid},
		},
	}
	es := NewEarningsService(store, 0.15, 0)

	n, err := es.MarkEarningsAvailable(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// paid earning untouched, repeat is a no-op
	assert.Equal(t, models.EarningStatusPaid, store.earnings[1].Status)
	n, err = es.MarkEarningsAvailable(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMatureEarnings(t *testing.T) {
	now := time.Now()
	store := &fakeEarningsStore{
		earnings: []*models.Earning{
			{ID: 1, Status: models.EarningStatusPending, AvailableAt: now.Add(-time.Hour)},
			{ID: 2, Status: models.EarningStatusPending, AvailableAt: now.Add(24 * time.Hour)},
		},
	}
	es := NewEarningsService(store, 0.15, 0)

	n, err := es.MatureEarnings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.EarningStatusAvailable, store.earnings[0].Status)
	assert.Equal(t, models.EarningStatusPending, store.earnings[1].Status)
}
