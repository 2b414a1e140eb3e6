// Package printapi is a REST client for the print-on-demand provider.
package printapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"commerce-service/internal/provider"
)

// tokenExpirySlack refreshes the token slightly before the provider expires it
const tokenExpirySlack = 30 * time.Second

// Client talks to the print provider's REST API using an OAuth
// client-credentials token. The token is memoized with its expiry and
// re-fetched under a lock when stale or absent.
type Client struct {
	baseURL      string
	clientKey    string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a print API client
func NewClient(baseURL, clientKey, clientSecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      baseURL,
		clientKey:    clientKey,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreatePrintable compiles interior and cover source files into a printable
// artifact and returns its provider id
func (c *Client) CreatePrintable(ctx context.Context, params provider.PrintableParams) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/printables", map[string]any{
		"title":        params.Title,
		"interior_url": params.InteriorURL,
		"cover_url":    params.CoverURL,
		"package_id":   params.PackageSpec,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// CreatePrintJob places a physical production order from a printable
func (c *Client) CreatePrintJob(ctx context.Context, params provider.PrintJobParams) (*provider.PrintJobResult, error) {
	var resp struct {
		ID                string    `json:"id"`
		EstimatedShipDate time.Time `json:"estimated_ship_date"`
		Costs             struct {
			Production int64 `json:"production"`
			Shipping   int64 `json:"shipping"`
		} `json:"costs"`
	}
	err := c.do(ctx, http.MethodPost, "/print-jobs", map[string]any{
		"contact_email":  params.ContactEmail,
		"shipping_level": params.ShippingLevel,
		"line_items": []map[string]any{{
			"printable_id": params.PrintableID,
			"quantity":     params.Quantity,
		}},
		"shipping_address": map[string]any{
			"name":         params.Address.Name,
			"street1":      params.Address.Street1,
			"street2":      params.Address.Street2,
			"city":         params.Address.City,
			"state_code":   params.Address.State,
			"postcode":     params.Address.PostalCode,
			"country_code": params.Address.CountryCode,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &provider.PrintJobResult{
		OrderID:           resp.ID,
		EstimatedShipDate: resp.EstimatedShipDate,
		ProductionCost:    resp.Costs.Production,
		ShippingCost:      resp.Costs.Shipping,
	}, nil
}

// GetPrintJobStatus polls the provider for a job's current status
func (c *Client) GetPrintJobStatus(ctx context.Context, providerOrderID string) (*provider.PrintJobStatus, error) {
	var resp struct {
		Status   string `json:"status"`
		Tracking struct {
			Number  string `json:"number"`
			URL     string `json:"url"`
			Carrier string `json:"carrier"`
		} `json:"tracking"`
	}
	path := "/print-jobs/" + url.PathEscape(providerOrderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &provider.PrintJobStatus{
		Status:         resp.Status,
		TrackingNumber: resp.Tracking.Number,
		TrackingURL:    resp.Tracking.URL,
		Carrier:        resp.Tracking.Carrier,
	}, nil
}

// CancelPrintJob cancels a job that has not entered production
func (c *Client) CancelPrintJob(ctx context.Context, providerOrderID string) error {
	path := "/print-jobs/" + url.PathEscape(providerOrderID) + "/cancel"
	return c.do(ctx, http.MethodPost, path, map[string]any{}, &struct{}{})
}

// token returns a valid access token, fetching a new one if the cached token
// is missing or within the expiry slack
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(tokenExpirySlack).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientKey, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("print api token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("print api token: status %d: %s", resp.StatusCode, msg)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("print api token: decode: %w", err)
	}

	c.accessToken = body.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("print api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("print api %s: status %d: %s", path, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("print api %s: decode response: %w", path, err)
	}
	return nil
}
