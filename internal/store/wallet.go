package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"commerce-service/internal/models"
)

// GetOrCreateWallet returns the user's wallet, creating it with the one-time
// starter bonus grant on first read. The INSERT .. ON CONFLICT DO NOTHING
// guarantees a concurrent second initialization cannot double-grant: only the
// transaction that created the row writes the grant ledger entry.
func (s *Store) GetOrCreateWallet(ctx context.Context, userID, starterBonus int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO wallets (user_id, balance, bonus_credits, lifetime_earned, lifetime_spent)
			VALUES ($1, 0, $2, $2, 0)
			ON CONFLICT (user_id) DO NOTHING`,
			userID, starterBonus)
		if err != nil {
			return fmt.Errorf("insert wallet: %w", err)
		}

		created, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if created > 0 && starterBonus > 0 {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO ledger_entries (user_id, type, amount, balance_after, description, feature)
				VALUES ($1, $2, $3, $3, 'Welcome bonus credits', 'signup')`,
				userID, models.LedgerTypeBonus, starterBonus)
			if err != nil {
				return fmt.Errorf("insert starter grant entry: %w", err)
			}
		}

		return tx.GetContext(ctx, &wallet, "SELECT * FROM wallets WHERE user_id = $1", userID)
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// DeductCredits spends credits from the user's wallet, bonus bucket first.
// The wallet row is locked for the duration so two concurrent deductions
// never read the same starting balance. On insufficient funds nothing is
// written and models.ErrInsufficientFunds is returned.
func (s *Store) DeductCredits(ctx context.Context, userID, amount int64, description, feature string, metadata sql.NullString) (*models.Wallet, *models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, nil, models.ErrInvalidAmount
	}

	var wallet models.Wallet
	var entry models.LedgerEntry
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &wallet,
			"SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE", userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("lock wallet: %w", err)
		}

		if wallet.Total() < amount {
			return models.ErrInsufficientFunds
		}

		split := models.SplitDeduction(wallet.Balance, wallet.BonusCredits, amount)

		if _, err := tx.ExecContext(ctx, `
			UPDATE wallets
			SET balance = $1, bonus_credits = $2, lifetime_spent = lifetime_spent + $3, updated_at = NOW()
			WHERE user_id = $4`,
			split.NewBalance, split.NewBonus, amount, userID); err != nil {
			return fmt.Errorf("update wallet: %w", err)
		}

		wallet.Balance = split.NewBalance
		wallet.BonusCredits = split.NewBonus
		wallet.LifetimeSpent += amount

		if err := tx.GetContext(ctx, &entry, `
			INSERT INTO ledger_entries (user_id, type, amount, balance_after, description, feature, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *`,
			userID, models.LedgerTypeDeduction, -amount, wallet.Total(), description, feature, metadata); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &wallet, &entry, nil
}

// AddCredits credits the user's wallet and appends one ledger entry. Bonus
// type entries credit the bonus bucket, every other type credits the paid
// balance; lifetimeEarned always increases. The wallet must already exist.
func (s *Store) AddCredits(ctx context.Context, userID, amount int64, entryType, description string, metadata sql.NullString) (*models.Wallet, *models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, nil, models.ErrInvalidAmount
	}

	var wallet models.Wallet
	var entry models.LedgerEntry
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &wallet,
			"SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE", userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("lock wallet: %w", err)
		}

		if entryType == models.LedgerTypeBonus {
			wallet.BonusCredits += amount
		} else {
			wallet.Balance += amount
		}
		wallet.LifetimeEarned += amount

		if _, err := tx.ExecContext(ctx, `
			UPDATE wallets
			SET balance = $1, bonus_credits = $2, lifetime_earned = $3, updated_at = NOW()
			WHERE user_id = $4`,
			wallet.Balance, wallet.BonusCredits, wallet.LifetimeEarned, userID); err != nil {
			return fmt.Errorf("update wallet: %w", err)
		}

		if err := tx.GetContext(ctx, &entry, `
			INSERT INTO ledger_entries (user_id, type, amount, balance_after, description, feature, metadata)
			VALUES ($1, $2, $3, $4, $5, 'wallet', $6)
			RETURNING *`,
			userID, entryType, amount, wallet.Total(), description, metadata); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &wallet, &entry, nil
}

// GetLedgerEntries returns the user's ledger entries newest-first
func (s *Store) GetLedgerEntries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM ledger_entries WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
		userID, limit)
	return entries, err
}
