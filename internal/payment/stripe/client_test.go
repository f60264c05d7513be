package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilltop-eats/hilltop/internal/domain/payment"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		SecretKey: "sk_test_123",
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
	})
}

func TestCreateIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "sk_test_123", user)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "pi_123",
			"client_secret": "pi_123_secret_456",
			"amount":        2000,
			"currency":      "usd",
			"status":        "requires_payment_method",
		})
	})

	intent, err := client.CreateIntent(context.Background(), 2000, "usd")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_456", intent.ClientSecret)
	assert.Equal(t, int64(2000), intent.AmountMinor)
}

func TestGetIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "pi_123",
			"amount":   2000,
			"currency": "usd",
			"status":   "succeeded",
		})
	})

	intent, err := client.GetIntent(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, intent.Status)
}

func TestCreateIntent_Declined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "card declined"},
		})
	})

	_, err := client.CreateIntent(context.Background(), 100, "usd")
	require.ErrorIs(t, err, payment.ErrDeclined)
}

func TestCreateIntent_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("{}"))
	})

	_, err := client.CreateIntent(context.Background(), 100, "usd")
	require.ErrorIs(t, err, payment.ErrUnavailable)
}

func TestCreateIntent_Unreachable(t *testing.T) {
	client := NewClient(Config{
		SecretKey: "sk_test_123",
		BaseURL:   "http://127.0.0.1:1",
		Timeout:   500 * time.Millisecond,
	})

	_, err := client.CreateIntent(context.Background(), 100, "usd")
	require.ErrorIs(t, err, payment.ErrUnavailable)
}
