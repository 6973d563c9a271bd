package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner("secret")
	sig := s.Sign("order_1", "pay_1")

	assert.Len(t, sig, 64)
	assert.True(t, s.Verify("order_1", "pay_1", sig))
	assert.False(t, s.Verify("order_1", "pay_2", sig))
	assert.False(t, s.Verify("order_1", "pay_1", ""))
	assert.False(t, NewSigner("other").Verify("order_1", "pay_1", sig))
	assert.False(t, NewSigner("").Verify("order_1", "pay_1", NewSigner("").Sign("order_1", "pay_1")))
}

func TestNewRazorpayRequiresCredentials(t *testing.T) {
	_, err := NewRazorpay("", "secret")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = NewRazorpay("key", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

type sentOrder struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type fakeOrders struct {
	got  map[string]interface{}
	resp map[string]interface{}
	err  error
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = data
	return f.resp, f.err
}

func TestRazorpayCreateIntentMapsOrder(t *testing.T) {
	rp, err := NewRazorpay("k", "s")
	require.NoError(t, err)
	orders := &fakeOrders{resp: map[string]interface{}{
		"id": "order_xyz", "amount": float64(999), "currency": "INR", "receipt": "order_rcpt_9", "status": "created",
	}}
	rp.orders = orders

	intent, err := rp.CreateIntent(context.Background(), decimal.RequireFromString("9.99"), "INR", "order_rcpt_9")
	require.NoError(t, err)
	assert.Equal(t, int64(999), orders.got["amount"])
	assert.Equal(t, "INR", orders.got["currency"])
	assert.Equal(t, "order_rcpt_9", orders.got["receipt"])
	assert.Equal(t, "order_xyz", intent.ID)
	assert.Equal(t, int64(999), intent.AmountMinor)
	assert.JSONEq(t, `{"id":"order_xyz","amount":999,"currency":"INR","receipt":"order_rcpt_9","status":"created"}`, string(intent.Raw))

	orders.err = errors.New("BAD_REQUEST_ERROR: amount too small")
	_, err = rp.CreateIntent(context.Background(), decimal.NewFromInt(1), "INR", "r")
	assert.ErrorIs(t, err, ErrProvider)

	orders.err = nil
	orders.resp = map[string]interface{}{"amount": float64(100)}
	_, err = rp.CreateIntent(context.Background(), decimal.NewFromInt(1), "INR", "r")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestRazorpayTimeoutRoundsUpToSeconds(t *testing.T) {
	rp, err := NewRazorpay("k", "s", WithTimeout(1500*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, rp.client.Order.Request.HTTPClient.Timeout)
}

func TestRazorpayCreateIntent(t *testing.T) {
	var got sentOrder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","amount":12550,"currency":"INR","receipt":"order_rcpt_1","status":"created","attempts":0}`))
	}))
	defer srv.Close()

	rp, err := NewRazorpay("key_id", "key_secret", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	intent, err := rp.CreateIntent(context.Background(), decimal.RequireFromString("125.50"), "INR", "order_rcpt_1")
	require.NoError(t, err)

	assert.Equal(t, int64(12550), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "order_rcpt_1", got.Receipt)

	assert.Equal(t, "order_abc", intent.ID)
	assert.Equal(t, int64(12550), intent.AmountMinor)
	assert.Equal(t, "created", intent.Status)
	assert.Contains(t, string(intent.Raw), `"attempts":0`)
}

func TestRazorpayCreateIntentFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "provider rejects", status: http.StatusBadRequest, body: `{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`, wantErr: ErrProvider},
		{name: "missing id", status: http.StatusOK, body: `{"amount":100}`, wantErr: ErrProvider},
		{name: "garbage", status: http.StatusOK, body: `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			rp, err := NewRazorpay("k", "s", WithBaseURL(srv.URL))
			require.NoError(t, err)
			_, err = rp.CreateIntent(context.Background(), decimal.NewFromInt(1), "INR", "r")
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestRazorpayHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rp, err := NewRazorpay("k", "s", WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = rp.CreateIntent(ctx, decimal.NewFromInt(1), "INR", "r")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSandbox(t *testing.T) {
	sb := NewSandbox("dev-secret")

	a, err := sb.CreateIntent(context.Background(), decimal.RequireFromString("10.05"), "INR", "order_rcpt_x")
	require.NoError(t, err)
	b, err := sb.CreateIntent(context.Background(), decimal.RequireFromString("1"), "INR", "order_rcpt_y")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(1005), a.AmountMinor)
	assert.Equal(t, "order_rcpt_x", a.Receipt)
	assert.JSONEq(t, `{"id":"`+a.ID+`","amount":1005,"currency":"INR","receipt":"order_rcpt_x","status":"created"}`, string(a.Raw))

	sig := sb.Sign(a.ID, "pay_1")
	assert.True(t, sb.VerifySignature(a.ID, "pay_1", sig))
	assert.False(t, sb.VerifySignature(a.ID, "pay_1", "deadbeef"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sb.CreateIntent(ctx, decimal.NewFromInt(1), "INR", "r")
	assert.ErrorIs(t, err, context.Canceled)
}
