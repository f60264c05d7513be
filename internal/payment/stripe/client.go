// Package stripe implements payment.Processor against the Stripe
// payment-intents REST API.
package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/hilltop-eats/hilltop/internal/domain/payment"
)

const defaultBaseURL = "https://api.stripe.com"

// Config holds client settings.
type Config struct {
	// SecretKey authenticates API requests (sk_... key).
	SecretKey string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
	// Timeout bounds every processor call.
	Timeout time.Duration
}

// Client talks to the payment-intents API over HTTP with a bounded timeout.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

var _ payment.Processor = (*Client)(nil)

// NewClient creates a Client from cfg, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimSuffix(base, "/"),
		secretKey: cfg.SecretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// intentJSON mirrors the fields of the API's payment-intent object we use.
type intentJSON struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent opens a payment intent for the given amount in minor units.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*payment.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// GetIntent fetches the current state of an intent by id. Used to verify
// client-reported confirmations server-side.
func (c *Client) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*payment.Intent, error) {
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(payment.ErrUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(payment.ErrUnavailable, "read response")
	}

	var parsed intentJSON
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrapf(payment.ErrUnavailable, "unexpected response (status %d)", resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return &payment.Intent{
			ID:           parsed.ID,
			ClientSecret: parsed.ClientSecret,
			AmountMinor:  parsed.Amount,
			Currency:     parsed.Currency,
			Status:       parsed.Status,
		}, nil
	case resp.StatusCode == http.StatusPaymentRequired,
		resp.StatusCode == http.StatusConflict:
		return nil, payment.ErrDeclined
	case resp.StatusCode >= 500:
		return nil, errors.Wrapf(payment.ErrUnavailable, "status %d", resp.StatusCode)
	default:
		msg := "request rejected"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, errors.Wrapf(payment.ErrDeclined, "%s (status %d)", msg, resp.StatusCode)
	}
}
