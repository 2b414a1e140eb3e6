package printapi

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

func newTestServer(t *testing.T, tokenExpiresIn int) (*httptest.Server, *int) {
	t.Helper()
	tokenFetches := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		key, secret, ok := r.BasicAuth()
		if !ok || key != "test-key" || secret != "test-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		tokenFetches++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"expires_in":   tokenExpiresIn,
		})
	})
	mux.HandleFunc("/printables", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "printable-9"})
	})
	mux.HandleFunc("/print-jobs", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ShippingLevel string `json:"shipping_level"`
			LineItems     []struct {
				PrintableID string `json:"printable_id"`
				Quantity    int    `json:"quantity"`
			} `json:"line_items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "MAIL", body.ShippingLevel)
		require.Len(t, body.LineItems, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "lp-100",
			"costs": map[string]any{
				"production": 1200,
				"shipping":   400,
			},
		})
	})
	mux.HandleFunc("/print-jobs/lp-100", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "SHIPPED",
			"tracking": map[string]any{
				"number":  "TRACK123",
				"carrier": "USPS",
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &tokenFetches
}

func TestTokenFetchedOnce(t *testing.T) {
	server, fetches := newTestServer(t, 3600)
	client := NewClient(server.URL, "test-key", "test-secret", 5*time.Second)
	ctx := context.Background()

	id, err := client.CreatePrintable(ctx, provider.PrintableParams{Title: "Field Notes"})
	require.NoError(t, err)
	assert.Equal(t, "printable-9", id)

	status, err := client.GetPrintJobStatus(ctx, "lp-100")
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", status.Status)
	assert.Equal(t, "TRACK123", status.TrackingNumber)

	// both calls shared one cached token
	assert.Equal(t, 1, *fetches)
}

func TestTokenRefetchedWhenExpired(t *testing.T) {
	// expires_in shorter than the refresh slack forces a refetch per call
	server, fetches := newTestServer(t, 1)
	client := NewClient(server.URL, "test-key", "test-secret", 5*time.Second)
	ctx := context.Background()

	_, err := client.CreatePrintable(ctx, provider.PrintableParams{Title: "Field Notes"})
	require.NoError(t, err)
	_, err = client.GetPrintJobStatus(ctx, "lp-100")
	require.NoError(t, err)

	assert.Equal(t, 2, *fetches)
}

func TestCreatePrintJob(t *testing.T) {
	server, _ := newTestServer(t, 3600)
	client := NewClient(server.URL, "test-key", "test-secret", 5*time.Second)

	result, err := client.CreatePrintJob(context.Background(), provider.PrintJobParams{
		PrintableID:   "printable-9",
		Quantity:      1,
		ShippingLevel: "MAIL",
		ContactEmail:  "buyer@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "lp-100", result.OrderID)
	assert.Equal(t, int64(1200), result.ProductionCost)
	assert.Equal(t, int64(400), result.ShippingCost)
}

func TestErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 3600})
			return
		}
		http.Error(w, `{"error":"invalid package id"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s", 5*time.Second)
	_, err := client.CreatePrintable(context.Background(), provider.PrintableParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
