package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commerce-service/internal/models"
)

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetPaymentCustomerID persists the processor customer id for a user. Only
// the first writer wins, which keeps concurrent ensure-customer calls
// idempotent; the stored id is re-read afterwards.
func (s *Store) SetPaymentCustomerID(ctx context.Context, userID int64, customerID string) (string, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET payment_customer_id = $1
		WHERE id = $2 AND (payment_customer_id IS NULL OR payment_customer_id = '')`,
		customerID, userID)
	if err != nil {
		return "", err
	}

	var stored string
	err = s.db.GetContext(ctx, &stored,
		"SELECT payment_customer_id FROM users WHERE id = $1", userID)
	return stored, err
}

// GetListingByID retrieves a listing by ID
func (s *Store) GetListingByID(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.GetContext(ctx, &listing, "SELECT * FROM listings WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetActiveEditions retrieves the active editions for a listing
func (s *Store) GetActiveEditions(ctx context.Context, listingID int64) ([]models.Edition, error) {
	var editions []models.Edition
	err := s.db.SelectContext(ctx, &editions,
		"SELECT * FROM editions WHERE listing_id = $1 AND active = TRUE ORDER BY id", listingID)
	return editions, err
}

// GetEditionByID retrieves an edition by ID
func (s *Store) GetEditionByID(ctx context.Context, id int64) (*models.Edition, error) {
	var edition models.Edition
	err := s.db.GetContext(ctx, &edition, "SELECT * FROM editions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("edition %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &edition, nil
}

// IncrementListingStats bumps the listing's aggregate sales counters
func (s *Store) IncrementListingStats(ctx context.Context, listingID, revenue int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE listings
		SET sales_count = sales_count + 1, revenue_total = revenue_total + $1, updated_at = NOW()
		WHERE id = $2`,
		revenue, listingID)
	return err
}

// GetCreditPackageByID retrieves an active credit package
func (s *Store) GetCreditPackageByID(ctx context.Context, id int64) (*models.CreditPackage, error) {
	var pkg models.CreditPackage
	err := s.db.GetContext(ctx, &pkg,
		"SELECT * FROM credit_packages WHERE id = $1 AND active = TRUE", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credit package %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetPayoutAccount retrieves a creator's payout destination, if any
func (s *Store) GetPayoutAccount(ctx context.Context, userID int64) (*models.PayoutAccount, error) {
	var account models.PayoutAccount
	err := s.db.GetContext(ctx, &account,
		"SELECT * FROM payout_accounts WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPayoutNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetShippingAddress retrieves the buyer's shipping address for physical
// fulfillment
func (s *Store) GetShippingAddress(ctx context.Context, userID int64) (*models.ShippingAddress, error) {
	var addr models.ShippingAddress
	err := s.db.GetContext(ctx, &addr,
		"SELECT name, street1, street2, city, state, postal_code, country_code, email FROM shipping_addresses WHERE user_id = $1",
		userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shipping address for user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
