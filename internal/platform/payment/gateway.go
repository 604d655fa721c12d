package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Gateway order states.
const (
	StatePending   = "PENDING"
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
)

// Config carries the merchant credentials and endpoints.
type Config struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	ClientVersion string
	Timeout       time.Duration
}

// Client is a standard-checkout client with an OAuth token cache.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// PayParams for starting a checkout.
type PayParams struct {
	MerchantOrderID string
	AmountMinor     int64
	RedirectURL     string
}

// PayResponse is the gateway answer to a pay request.
type PayResponse struct {
	OrderID     string `json:"orderId"`
	State       string `json:"state"`
	RedirectURL string `json:"redirectUrl"`
	ExpireAt    int64  `json:"expireAt"`
}

// Success reports whether the payer can be handed off.
func (r *PayResponse) Success() bool {
	return r.RedirectURL != ""
}

type PaymentDetail struct {
	TransactionID string `json:"transactionId"`
	State         string `json:"state"`
	Amount        int64  `json:"amount"`
}

// StatusResponse is the gateway view of one order.
type StatusResponse struct {
	OrderID        string          `json:"orderId"`
	State          string          `json:"state"`
	Amount         int64           `json:"amount"`
	PaymentDetails []PaymentDetail `json:"paymentDetails"`
}

// TransactionID returns the id of the completed attempt, or of the last one
// when none completed.
func (r *StatusResponse) TransactionID() string {
	for _, d := range r.PaymentDetails {
		if d.State == StateCompleted {
			return d.TransactionID
		}
	}
	if n := len(r.PaymentDetails); n > 0 {
		return r.PaymentDetails[n-1].TransactionID
	}
	return ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

// authorization returns a cached token, refreshing it a little before expiry.
func (c *Client) authorization(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(time.Minute).Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_version", c.cfg.ClientVersion)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	if err := c.do(req, &tr); err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response has no access token")
	}
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "O-Bearer"
	}
	c.token = tokenType + " " + tr.AccessToken
	c.expiresAt = time.Unix(tr.ExpiresAt, 0)
	return c.token, nil
}

// Pay asks the gateway for a hosted checkout page.
func (c *Client) Pay(ctx context.Context, p PayParams) (*PayResponse, error) {
	auth, err := c.authorization(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"merchantOrderId": p.MerchantOrderID,
		"amount":          p.AmountMinor,
		"paymentFlow": map[string]interface{}{
			"type": "PG_CHECKOUT",
			"merchantUrls": map[string]string{
				"redirectUrl": p.RedirectURL,
			},
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/checkout/v2/pay", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to create pay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	var pr PayResponse
	if err := c.do(req, &pr); err != nil {
		return nil, fmt.Errorf("pay %s: %w", p.MerchantOrderID, err)
	}
	return &pr, nil
}

// OrderStatus polls the state of a merchant order.
func (c *Client) OrderStatus(ctx context.Context, merchantOrderID string) (*StatusResponse, error) {
	auth, err := c.authorization(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.cfg.BaseURL + "/checkout/v2/order/" + url.PathEscape(merchantOrderID) + "/status?details=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Authorization", auth)

	var sr StatusResponse
	if err := c.do(req, &sr); err != nil {
		return nil, fmt.Errorf("status %s: %w", merchantOrderID, err)
	}
	return &sr, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
