package models

import (
	"fmt"
	"strconv"
)

// Purchase type tags carried in checkout session metadata
const (
	PurchaseTypeListing = "listing_purchase"
	PurchaseTypeCredits = "credit_purchase"
)

// CheckoutMetadata is the single source of truth for the asynchronous
// completion handler. It is encoded into the payment provider's string-map
// session metadata and parsed back when the checkout-completed webhook
// arrives; the handler has no other context, so every field it needs must
// round-trip here.
type CheckoutMetadata struct {
	PurchaseType string
	BuyerID      int64
	Currency     string

	// listing purchase
	ListingID    int64
	EditionID    int64
	SellerID     int64
	SaleAmount   int64
	PlatformFee  int64
	CreatorShare int64

	// credit purchase
	PackageID    int64
	Credits      int64
	BonusCredits int64
}

// Encode flattens the metadata into the provider's string map
func (m CheckoutMetadata) Encode() map[string]string {
	md := map[string]string{
		"purchase_type": m.PurchaseType,
		"buyer_id":      strconv.FormatInt(m.BuyerID, 10),
		"currency":      m.Currency,
	}
	switch m.PurchaseType {
	case PurchaseTypeListing:
		md["listing_id"] = strconv.FormatInt(m.ListingID, 10)
		md["edition_id"] = strconv.FormatInt(m.EditionID, 10)
		md["seller_id"] = strconv.FormatInt(m.SellerID, 10)
		md["sale_amount"] = strconv.FormatInt(m.SaleAmount, 10)
		md["platform_fee"] = strconv.FormatInt(m.PlatformFee, 10)
		md["creator_share"] = strconv.FormatInt(m.CreatorShare, 10)
	case PurchaseTypeCredits:
		md["package_id"] = strconv.FormatInt(m.PackageID, 10)
		md["credits"] = strconv.FormatInt(m.Credits, 10)
		md["bonus_credits"] = strconv.FormatInt(m.BonusCredits, 10)
	}
	return md
}

// ParseCheckoutMetadata validates and decodes session metadata at the webhook
// boundary. Unknown or missing purchase types are rejected here, before any
// side effect.
func ParseCheckoutMetadata(md map[string]string) (*CheckoutMetadata, error) {
	out := &CheckoutMetadata{
		PurchaseType: md["purchase_type"],
		Currency:     md["currency"],
	}

	var err error
	if out.BuyerID, err = parseID(md, "buyer_id"); err != nil {
		return nil, err
	}

	switch out.PurchaseType {
	case PurchaseTypeListing:
		fields := map[string]*int64{
			"listing_id":    &out.ListingID,
			"edition_id":    &out.EditionID,
			"seller_id":     &out.SellerID,
			"sale_amount":   &out.SaleAmount,
			"platform_fee":  &out.PlatformFee,
			"creator_share": &out.CreatorShare,
		}
		for key, dst := range fields {
			if *dst, err = parseID(md, key); err != nil {
				return nil, err
			}
		}
	case PurchaseTypeCredits:
		fields := map[string]*int64{
			"package_id": &out.PackageID,
			"credits":    &out.Credits,
		}
		for key, dst := range fields {
			if *dst, err = parseID(md, key); err != nil {
				return nil, err
			}
		}
		// bonus credits are optional on older sessions
		if raw, ok := md["bonus_credits"]; ok {
			if out.BonusCredits, err = strconv.ParseInt(raw, 10, 64); err != nil {
				return nil, fmt.Errorf("metadata field bonus_credits: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPurchaseType, out.PurchaseType)
	}

	return out, nil
}

func parseID(md map[string]string, key string) (int64, error) {
	raw, ok := md[key]
	if !ok || raw == "" {
		return 0, fmt.Errorf("metadata field %s missing", key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metadata field %s: %w", key, err)
	}
	return v, nil
}
