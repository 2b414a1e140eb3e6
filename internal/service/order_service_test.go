package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/models"
)

type fakeOrderStore struct {
	orders map[int64]*models.Order
	items  map[int64][]models.OrderItem
	jobs   map[int64][]models.PrintJob
}

func (f *fakeOrderStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeOrderStore) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) GetPrintJobsByOrderID(ctx context.Context, orderID int64) ([]models.PrintJob, error) {
	return f.jobs[orderID], nil
}

func (f *fakeOrderStore) GetOrdersByBuyerID(ctx context.Context, buyerID int64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func TestGetOrderDetail(t *testing.T) {
	store := &fakeOrderStore{
		orders: map[int64]*models.Order{
			1: {ID: 1, BuyerID: 42, Status: models.OrderStatusProcessing},
		},
		items: map[int64][]models.OrderItem{
			1: {{ID: 10, OrderID: 1, ListingID: 7}},
		},
		jobs: map[int64][]models.PrintJob{
			1: {{ID: 5, OrderItemID: 10, Status: models.PrintJobStatusSubmitted,
				ProviderOrderID: sql.NullString{String: "lp-100", Valid: true}}},
		},
	}
	os := NewOrderService(store)

	detail, err := os.GetOrder(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), detail.Order.ID)
	require.Len(t, detail.Items, 1)
	require.Len(t, detail.PrintJobs, 1)
	assert.Equal(t, "lp-100", detail.PrintJobs[0].ProviderOrderID.String)
}

func TestGetOrderNotFound(t *testing.T) {
	os := NewOrderService(&fakeOrderStore{orders: map[int64]*models.Order{}})

	_, err := os.GetOrder(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListBuyerOrders(t *testing.T) {
	store := &fakeOrderStore{
		orders: map[int64]*models.Order{
			1: {ID: 1, BuyerID: 42},
			2: {ID: 2, BuyerID: 7},
		},
	}
	os := NewOrderService(store)

	orders, err := os.ListBuyerOrders(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].ID)
}
