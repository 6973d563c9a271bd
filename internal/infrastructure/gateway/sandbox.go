package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

var _ dompayment.Gateway = (*Sandbox)(nil)

// Sandbox issues intents locally and verifies signatures with the shared
// secret, so a development client can sign its own captures.
type Sandbox struct {
	Signer
	seq atomic.Uint64
}

func NewSandbox(secret string) *Sandbox {
	return &Sandbox{Signer: NewSigner(secret)}
}

func (s *Sandbox) CreateIntent(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*dompayment.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	intent := &dompayment.Intent{
		ID:          fmt.Sprintf("order_sandbox_%d", s.seq.Add(1)),
		AmountMinor: dompayment.MinorUnits(amount),
		Currency:    currency,
		Receipt:     receipt,
		Status:      "created",
	}
	raw, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("marshal intent: %w", err)
	}
	intent.Raw = raw
	return intent, nil
}

func (s *Sandbox) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return s.Verify(gatewayOrderID, gatewayPaymentID, signature)
}
