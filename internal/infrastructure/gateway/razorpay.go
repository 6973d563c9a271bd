// Package gateway holds the outbound payment provider adapters.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

const DefaultBaseURL = "https://api.razorpay.com"

var (
	ErrMissingCredentials = errors.New("gateway: key id and secret are required")
	ErrProvider           = errors.New("gateway: provider error")
)

var _ dompayment.Gateway = (*Razorpay)(nil)

// orderCreator is the part of the SDK order resource CreateIntent needs.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay talks to the Orders API through the provider SDK. The SDK has no
// context support, so a call abandoned by its context keeps running until the
// client timeout set with WithTimeout.
type Razorpay struct {
	client *razorpay.Client
	orders orderCreator
	signer Signer
}

type RazorpayOption func(*Razorpay)

func WithBaseURL(u string) RazorpayOption {
	return func(r *Razorpay) {
		if u != "" {
			r.client.Order.Request.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) RazorpayOption {
	return func(r *Razorpay) {
		if c != nil {
			r.client.Order.Request.HTTPClient = c
		}
	}
}

// WithTimeout bounds every SDK request. The SDK counts whole seconds, so d is rounded up.
func WithTimeout(d time.Duration) RazorpayOption {
	return func(r *Razorpay) {
		if d <= 0 {
			return
		}
		secs := math.Ceil(d.Seconds())
		if secs > math.MaxInt16 {
			secs = math.MaxInt16
		}
		r.client.Order.Request.SetTimeout(int16(secs))
	}
}

func NewRazorpay(keyID, secret string, opts ...RazorpayOption) (*Razorpay, error) {
	if keyID == "" || secret == "" {
		return nil, ErrMissingCredentials
	}
	client := razorpay.NewClient(keyID, secret)
	r := &Razorpay{
		client: client,
		orders: client.Order,
		signer: NewSigner(secret),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type createResult struct {
	body map[string]interface{}
	err  error
}

func (r *Razorpay) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*dompayment.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data := map[string]interface{}{
		"amount":   dompayment.MinorUnits(amount),
		"currency": currency,
		"receipt":  receipt,
	}

	done := make(chan createResult, 1)
	go func() {
		body, err := r.orders.Create(data, nil)
		done <- createResult{body: body, err: err}
	}()

	var res createResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, res.err)
	}

	raw, err := json.Marshal(res.body)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var intent dompayment.Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrProvider, err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("%w: response without order id", ErrProvider)
	}
	intent.Raw = json.RawMessage(raw)
	return &intent, nil
}

func (r *Razorpay) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return r.signer.Verify(gatewayOrderID, gatewayPaymentID, signature)
}
