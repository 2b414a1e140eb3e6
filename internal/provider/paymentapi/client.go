// Package paymentapi is a REST client for the hosted payment processor.
package paymentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"commerce-service/internal/provider"
)

// Client talks to the payment processor's REST API with a bearer API key.
// All calls use the bounded client timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a payment API client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateCustomer creates (or returns) a processor customer record
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/v1/customers", map[string]any{
		"email": email,
		"name":  name,
	}, "", &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreateCheckoutSession creates a hosted checkout session
func (c *Client) CreateCheckoutSession(ctx context.Context, params provider.CheckoutSessionParams) (*provider.CheckoutSession, error) {
	var resp provider.CheckoutSession
	err := c.post(ctx, "/v1/checkout/sessions", map[string]any{
		"customer":    params.CustomerID,
		"success_url": params.SuccessURL,
		"cancel_url":  params.CancelURL,
		"metadata":    params.Metadata,
		"line_items": []map[string]any{{
			"name":     params.LineItem.Name,
			"amount":   params.LineItem.Amount,
			"currency": params.LineItem.Currency,
			"quantity": params.LineItem.Quantity,
		}},
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTransfer issues a Connect-style transfer to a payout account. The
// idempotency key makes retried calls safe against double transfers.
func (c *Client) CreateTransfer(ctx context.Context, params provider.TransferParams) (*provider.Transfer, error) {
	var resp provider.Transfer
	err := c.post(ctx, "/v1/transfers", map[string]any{
		"destination": params.DestinationAccountID,
		"amount":      params.Amount,
		"currency":    params.Currency,
		"description": params.Description,
	}, params.IdempotencyKey, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateAccountLink creates an onboarding/login link for a payout account
func (c *Client) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*provider.AccountLink, error) {
	var resp provider.AccountLink
	err := c.post(ctx, "/v1/account_links", map[string]any{
		"account":     accountID,
		"refresh_url": refreshURL,
		"return_url":  returnURL,
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]any, idempotencyKey string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("payment api %s: status %d: %s", path, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payment api %s: decode response: %w", path, err)
	}
	return nil
}
