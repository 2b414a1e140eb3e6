package service

import (
	"context"

	"commerce-service/internal/models"
	"commerce-service/internal/util"
)

type orderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetPrintJobsByOrderID(ctx context.Context, orderID int64) ([]models.PrintJob, error)
	GetOrdersByBuyerID(ctx context.Context, buyerID int64) ([]models.Order, error)
}

// OrderService serves read access to orders and their fulfillment state
type OrderService struct {
	store orderStore
}

// NewOrderService creates a new order service
func NewOrderService(store orderStore) *OrderService {
	return &OrderService{store: store}
}

// OrderDetail is the full view of one order: the items bought and any print
// jobs fulfilling them
type OrderDetail struct {
	Order     *models.Order      `json:"order"`
	Items     []models.OrderItem `json:"items"`
	PrintJobs []models.PrintJob  `json:"print_jobs,omitempty"`
}

// GetOrder returns an order with its items and print jobs
func (os *OrderService) GetOrder(ctx context.Context, orderID int64) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := os.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := os.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	jobs, err := os.store.GetPrintJobsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, Items: items, PrintJobs: jobs}, nil
}

// ListBuyerOrders returns a buyer's orders, newest first
func (os *OrderService) ListBuyerOrders(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return os.store.GetOrdersByBuyerID(ctx, buyerID)
}
