package paymentapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/provider"
)

func TestCreateCheckoutSession(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":  "cs_1",
			"url": "https://pay.example.com/cs_1",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123", 5*time.Second)
	session, err := client.CreateCheckoutSession(context.Background(), provider.CheckoutSessionParams{
		CustomerID: "cus_1",
		LineItem:   provider.LineItem{Name: "Field Notes", Amount: 2000, Currency: "usd", Quantity: 1},
		Metadata:   map[string]string{"purchase_type": "listing_purchase"},
		SuccessURL: "https://app/success",
		CancelURL:  "https://app/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://pay.example.com/cs_1", session.URL)
	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "cus_1", gotBody["customer"])
}

func TestCreateTransferSendsIdempotencyKey(t *testing.T) {
	var gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "tr_1", "amount": 4505})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123", 5*time.Second)
	transfer, err := client.CreateTransfer(context.Background(), provider.TransferParams{
		DestinationAccountID: "acct_99",
		Amount:               4505,
		Currency:             "usd",
		IdempotencyKey:       "payout-abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "tr_1", transfer.ID)
	assert.Equal(t, int64(4505), transfer.Amount)
	assert.Equal(t, "payout-abc", gotKey)
}

func TestErrorResponseSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"no such customer"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123", 5*time.Second)
	_, err := client.CreateCustomer(context.Background(), "buyer@example.com", "Buyer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
