package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"commerce-service/internal/models"
)

// CreateEarning inserts a new earning row
func (s *Store) CreateEarning(ctx context.Context, earning *models.Earning) error {
	query := `
		INSERT INTO earnings (creator_id, order_id, order_item_id, sale_amount, production_cost,
			platform_fee, creator_share, status, available_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, earning, query,
		earning.CreatorID, earning.OrderID, earning.OrderItemID, earning.SaleAmount,
		earning.ProductionCost, earning.PlatformFee, earning.CreatorShare,
		earning.Status, earning.AvailableAt)
}

// MarkEarningsAvailable transitions the given earnings from pending to
// available. Earnings in any other status are left untouched, so repeated
// calls are no-ops. Returns the number transitioned.
func (s *Store) MarkEarningsAvailable(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE earnings SET status = $1
		WHERE id = ANY($2) AND status = $3`,
		models.EarningStatusAvailable, pq.Array(ids), models.EarningStatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MatureEarnings transitions every pending earning whose maturation window
// has elapsed. Safe to run repeatedly; drives the pending -> available sweep.
func (s *Store) MatureEarnings(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE earnings SET status = $1
		WHERE status = $2 AND available_at <= $3`,
		models.EarningStatusAvailable, models.EarningStatusPending, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetAvailableEarnings returns all earnings currently eligible for payout
// for a creator
func (s *Store) GetAvailableEarnings(ctx context.Context, creatorID int64) ([]models.Earning, error) {
	var earnings []models.Earning
	err := s.db.SelectContext(ctx, &earnings,
		"SELECT * FROM earnings WHERE creator_id = $1 AND status = $2 ORDER BY id",
		creatorID, models.EarningStatusAvailable)
	return earnings, err
}

// GetEarningsByPayoutID returns the exact earning set a payout covered
func (s *Store) GetEarningsByPayoutID(ctx context.Context, payoutID int64) ([]models.Earning, error) {
	var earnings []models.Earning
	err := s.db.SelectContext(ctx, &earnings,
		"SELECT * FROM earnings WHERE payout_id = $1 ORDER BY id", payoutID)
	return earnings, err
}

// SettlePayout records a successful transfer: one payout row plus the atomic
// paid transition of exactly the included earnings. The earning rows are
// locked and re-checked against the selection made before the transfer; if
// any slipped out of available in the meantime the whole settlement rolls
// back rather than recording a payout that no longer matches its batch.
func (s *Store) SettlePayout(ctx context.Context, creatorID, amount int64, transferID string, earningIDs []int64) (*models.Payout, error) {
	var payout models.Payout
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked []int64
		if err := tx.SelectContext(ctx, &locked, `
			SELECT id FROM earnings
			WHERE id = ANY($1) AND status = $2
			FOR UPDATE`,
			pq.Array(earningIDs), models.EarningStatusAvailable); err != nil {
			return fmt.Errorf("lock earnings: %w", err)
		}
		if len(locked) != len(earningIDs) {
			return fmt.Errorf("earnings changed during payout: locked %d of %d", len(locked), len(earningIDs))
		}

		if err := tx.GetContext(ctx, &payout, `
			INSERT INTO payouts (creator_id, amount, status, earnings_count, provider_transfer_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING *`,
			creatorID, amount, models.PayoutStatusPaid, len(earningIDs), transferID); err != nil {
			return fmt.Errorf("insert payout: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE earnings SET status = $1, payout_id = $2
			WHERE id = ANY($3)`,
			models.EarningStatusPaid, payout.ID, pq.Array(earningIDs)); err != nil {
			return fmt.Errorf("mark earnings paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetPayoutByID retrieves a payout by ID
func (s *Store) GetPayoutByID(ctx context.Context, id int64) (*models.Payout, error) {
	var payout models.Payout
	err := s.db.GetContext(ctx, &payout, "SELECT * FROM payouts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payout %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}
