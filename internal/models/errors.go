package models

import "errors"

// Business errors. Callers branch with errors.Is; anything else coming out of
// a service is a transport or provider failure.
var (
	ErrNotFound            = errors.New("not found")
	ErrNotPurchasable      = errors.New("listing is not purchasable")
	ErrInsufficientFunds   = errors.New("insufficient credits")
	ErrNoAvailableEarnings = errors.New("no available earnings")
	ErrPayoutNotConfigured = errors.New("payout account missing or not onboarded")
	ErrUnknownPurchaseType = errors.New("unknown purchase type in metadata")
	ErrPrintUnavailable    = errors.New("print provider not configured")
	ErrMissingSourceFiles  = errors.New("edition source files missing")
	ErrPayoutLocked        = errors.New("payout already in progress for creator")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
