package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"commerce-service/internal/locale"
	"commerce-service/internal/models"
	"commerce-service/internal/provider"
	"commerce-service/internal/util"
)

type checkoutStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	SetPaymentCustomerID(ctx context.Context, userID int64, customerID string) (string, error)
	GetListingByID(ctx context.Context, id int64) (*models.Listing, error)
	GetActiveEditions(ctx context.Context, listingID int64) ([]models.Edition, error)
	GetCreditPackageByID(ctx context.Context, id int64) (*models.CreditPackage, error)
}

// CheckoutService builds hosted payment sessions for listing and credit
// package purchases
type CheckoutService struct {
	store      checkoutStore
	payments   provider.PaymentProcessor
	feePercent float64
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store checkoutStore, payments provider.PaymentProcessor, feePercent float64, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		store:      store,
		payments:   payments,
		feePercent: feePercent,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     util.GetLogger(),
	}
}

// CheckoutResponse is returned to the client to redirect into the hosted
// session
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// CreateListingCheckout starts a checkout session for a marketplace listing.
// Validation happens before any external call; the session metadata carries
// everything the completion webhook needs.
func (cs *CheckoutService) CreateListingCheckout(ctx context.Context, userID, listingID, editionID int64, buyerLocale string) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateListingCheckout")
	defer span.End()

	listing, err := cs.store.GetListingByID(ctx, listingID)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("listing_not_found").Inc()
		return nil, err
	}
	if !listing.Purchasable() {
		util.CheckoutFailedTotal.WithLabelValues("not_purchasable").Inc()
		return nil, fmt.Errorf("listing %d: %w", listingID, models.ErrNotPurchasable)
	}

	editions, err := cs.store.GetActiveEditions(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if len(editions) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("no_active_edition").Inc()
		return nil, fmt.Errorf("listing %d has no active edition: %w", listingID, models.ErrNotPurchasable)
	}

	edition := pickEdition(editions, editionID)
	if edition == nil {
		util.CheckoutFailedTotal.WithLabelValues("edition_not_found").Inc()
		return nil, fmt.Errorf("edition %d: %w", editionID, models.ErrNotFound)
	}

	currency := locale.CurrencyFor(buyerLocale)
	split := models.ComputeFeeSplit(edition.Price, 0, cs.feePercent)

	customerID, err := cs.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	metadata := models.CheckoutMetadata{
		PurchaseType: models.PurchaseTypeListing,
		BuyerID:      userID,
		Currency:     currency,
		ListingID:    listing.ID,
		EditionID:    edition.ID,
		SellerID:     listing.CreatorID,
		SaleAmount:   edition.Price,
		PlatformFee:  split.PlatformFee,
		CreatorShare: split.CreatorShare,
	}

	session, err := cs.payments.CreateCheckoutSession(ctx, provider.CheckoutSessionParams{
		CustomerID: customerID,
		LineItem: provider.LineItem{
			Name:     listing.Title,
			Amount:   edition.Price,
			Currency: currency,
			Quantity: 1,
		},
		Metadata:   metadata.Encode(),
		SuccessURL: cs.successURL,
		CancelURL:  cs.cancelURL,
	})
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	util.CheckoutSessionsTotal.WithLabelValues(models.PurchaseTypeListing).Inc()
	cs.logger.Info("Listing checkout session created",
		zap.Int64("buyer_id", userID),
		zap.Int64("listing_id", listingID),
		zap.String("session_id", session.ID))

	return &CheckoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		Amount:      edition.Price,
		Currency:    currency,
	}, nil
}

// CreateCreditCheckout starts a checkout session for a fixed credit package
func (cs *CheckoutService) CreateCreditCheckout(ctx context.Context, userID, packageID int64, buyerLocale string) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateCreditCheckout")
	defer span.End()

	pkg, err := cs.store.GetCreditPackageByID(ctx, packageID)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("package_not_found").Inc()
		return nil, err
	}

	currency := locale.CurrencyFor(buyerLocale)

	customerID, err := cs.ensureCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	metadata := models.CheckoutMetadata{
		PurchaseType: models.PurchaseTypeCredits,
		BuyerID:      userID,
		Currency:     currency,
		PackageID:    pkg.ID,
		Credits:      pkg.Credits,
		BonusCredits: pkg.BonusCredits,
	}

	session, err := cs.payments.CreateCheckoutSession(ctx, provider.CheckoutSessionParams{
		CustomerID: customerID,
		LineItem: provider.LineItem{
			Name:     pkg.Name,
			Amount:   pkg.Price,
			Currency: currency,
			Quantity: 1,
		},
		Metadata:   metadata.Encode(),
		SuccessURL: cs.successURL,
		CancelURL:  cs.cancelURL,
	})
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("provider_error").Inc()
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	util.CheckoutSessionsTotal.WithLabelValues(models.PurchaseTypeCredits).Inc()
	cs.logger.Info("Credit checkout session created",
		zap.Int64("buyer_id", userID),
		zap.Int64("package_id", packageID),
		zap.String("session_id", session.ID))

	return &CheckoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		Amount:      pkg.Price,
		Currency:    currency,
	}, nil
}

// ensureCustomer returns the user's payment processor customer id, creating
// and persisting one if missing. First writer wins in the store, so
// concurrent calls converge on a single id.
func (cs *CheckoutService) ensureCustomer(ctx context.Context, userID int64) (string, error) {
	user, err := cs.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.PaymentCustomerID.Valid && user.PaymentCustomerID.String != "" {
		return user.PaymentCustomerID.String, nil
	}

	customerID, err := cs.payments.CreateCustomer(ctx, user.Email, user.DisplayName)
	if err != nil {
		return "", fmt.Errorf("create payment customer: %w", err)
	}

	stored, err := cs.store.SetPaymentCustomerID(ctx, userID, customerID)
	if err != nil {
		return "", err
	}
	return stored, nil
}

func pickEdition(editions []models.Edition, editionID int64) *models.Edition {
	if editionID == 0 {
		return &editions[0]
	}
	for i := range editions {
		if editions[i].ID == editionID {
			return &editions[i]
		}
	}
	return nil
}
