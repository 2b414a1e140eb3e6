package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commerce-service/internal/models"
)

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (order_number, buyer_id, status, total_amount, currency, provider_session_id, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.OrderNumber, order.BuyerID, order.Status, order.TotalAmount,
		order.Currency, order.ProviderSessionID, order.PaidAt)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderBySessionID retrieves an order by the provider's session id
func (s *Store) GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE provider_session_id = $1", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// MarkOrderShipped sets the shipped status and timestamp once
func (s *Store) MarkOrderShipped(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, shipped_at = COALESCE(shipped_at, NOW()), updated_at = NOW()
		WHERE id = $2`,
		models.OrderStatusShipped, orderID)
	return err
}

// MarkOrderDelivered sets the delivered status and timestamp once
func (s *Store) MarkOrderDelivered(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, delivered_at = COALESCE(delivered_at, NOW()), updated_at = NOW()
		WHERE id = $2`,
		models.OrderStatusDelivered, orderID)
	return err
}

// GetOrdersByBuyerID retrieves orders for a buyer
func (s *Store) GetOrdersByBuyerID(ctx context.Context, buyerID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC", buyerID)
	return orders, err
}

// ListOrdersWithOpenPrintJobs returns ids of orders that still have
// non-terminal print jobs, for the periodic status sync
func (s *Store) ListOrdersWithOpenPrintJobs(ctx context.Context, limit int) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT oi.order_id
		FROM print_jobs pj
		JOIN order_items oi ON oi.id = pj.order_item_id
		WHERE pj.status NOT IN ($1, $2, $3)
		LIMIT $4`,
		models.PrintJobStatusDelivered, models.PrintJobStatusFailed,
		models.PrintJobStatusCancelled, limit)
	return ids, err
}

// CreateOrderItem creates a new order item
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, listing_id, edition_id, quantity, unit_price, royalty)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return s.db.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ListingID, item.EditionID, item.Quantity, item.UnitPrice, item.Royalty)
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// SetOrderItemDownload attaches the digital delivery reference and its expiry
func (s *Store) SetOrderItemDownload(ctx context.Context, itemID int64, url string, expiresAt sql.NullTime) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE order_items SET download_url = $1, download_expires_at = $2 WHERE id = $3",
		url, expiresAt, itemID)
	return err
}
