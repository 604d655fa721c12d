package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	tokenCalls atomic.Int32
	expiresAt  int64
	lastPay    map[string]interface{}
	state      string
}

func (f *fakeGateway) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "merchant", r.PostForm.Get("client_id"))
		f.tokenCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok", "token_type": "O-Bearer", "expires_at": f.expiresAt,
		})
	})
	mux.HandleFunc("POST /checkout/v2/pay", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "O-Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastPay))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"orderId": "OMO1", "state": "PENDING", "redirectUrl": "https://pay.example/checkout/OMO1",
		})
	})
	mux.HandleFunc("GET /checkout/v2/order/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "ORD-missing" {
			http.Error(w, `{"code":"ORDER_NOT_FOUND"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"orderId": "OMO1", "state": f.state, "amount": 49900,
			"paymentDetails": []map[string]interface{}{
				{"transactionId": "TX-failed", "state": "FAILED"},
				{"transactionId": "TX-ok", "state": "COMPLETED"},
			},
		})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeGateway) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, ClientID: "merchant", ClientSecret: "secret", ClientVersion: "1", Timeout: time.Second})
}

func TestClient_PayAndStatus(t *testing.T) {
	f := &fakeGateway{expiresAt: time.Now().Add(time.Hour).Unix(), state: StateCompleted}
	c := newTestClient(t, f)
	ctx := context.Background()

	pr, err := c.Pay(ctx, PayParams{MerchantOrderID: "ORD-1", AmountMinor: 49900, RedirectURL: "http://app/callback?merchant_order_id=ORD-1"})
	require.NoError(t, err)
	assert.True(t, pr.Success())
	assert.Equal(t, "https://pay.example/checkout/OMO1", pr.RedirectURL)
	assert.Equal(t, "ORD-1", f.lastPay["merchantOrderId"])
	assert.EqualValues(t, 49900, f.lastPay["amount"])
	flow := f.lastPay["paymentFlow"].(map[string]interface{})
	assert.Equal(t, "PG_CHECKOUT", flow["type"])

	sr, err := c.OrderStatus(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, sr.State)
	assert.Equal(t, "TX-ok", sr.TransactionID())

	assert.EqualValues(t, 1, f.tokenCalls.Load(), "token must be reused until it nears expiry")

	_, err = c.OrderStatus(ctx, "ORD-missing")
	assert.Error(t, err)
}

func TestClient_RefreshesExpiringToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := &fakeGateway{expiresAt: now.Add(30 * time.Minute).Unix(), state: StatePending}
	c := newTestClient(t, f)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.OrderStatus(ctx, "ORD-1")
	require.NoError(t, err)
	_, err = c.OrderStatus(ctx, "ORD-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.tokenCalls.Load())

	now = now.Add(29*time.Minute + 30*time.Second)
	_, err = c.OrderStatus(ctx, "ORD-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.tokenCalls.Load())
}

func TestStatusResponse_TransactionID(t *testing.T) {
	assert.Equal(t, "", (&StatusResponse{}).TransactionID())
	assert.Equal(t, "B", (&StatusResponse{PaymentDetails: []PaymentDetail{{TransactionID: "A", State: "FAILED"}, {TransactionID: "B", State: "PENDING"}}}).TransactionID())
}
