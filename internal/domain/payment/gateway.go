package payment

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Intent is the provider's answer to an intent request. Raw is handed to the
// client unchanged so it can open the provider checkout.
type Intent struct {
	ID          string          `json:"id"`
	AmountMinor int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Receipt     string          `json:"receipt"`
	Status      string          `json:"status"`
	Raw         json.RawMessage `json:"-"`
}

// Gateway is the outbound port to the payment provider.
type Gateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*Intent, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// MinorUnits converts a decimal amount to the provider's integer minor units (paise, cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
