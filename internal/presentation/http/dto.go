package httppresentation

import (
	"time"

	"github.com/shopspring/decimal"

	dominv "github.com/Zhima-Mochi/marketplace-orders/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
)

// Money leaves the service as a fixed two-decimal string.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

type createOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	UserID string            `json:"user_id"`
	Items  []createOrderItem `json:"items"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type makePaymentRequest struct {
	OrderID string          `json:"order_id"`
	UserID  string          `json:"user_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

type initiatePaymentRequest struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

type capturePaymentRequest struct {
	RazorpayOrderID   string          `json:"razorpay_order_id"`
	RazorpayPaymentID string          `json:"razorpay_payment_id"`
	RazorpaySignature string          `json:"razorpay_signature"`
	OrderID           string          `json:"order_id"`
	UserID            string          `json:"user_id"`
	Amount            decimal.Decimal `json:"amount"`
}

type createProductRequest struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type repriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type itemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Items         []itemResponse `json:"items"`
	TotalPrice    string         `json:"total_price"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type cancelOrderResponse struct {
	Order            orderResponse `json:"order"`
	StockRestored    bool          `json:"stock_restored"`
	AlreadyCancelled bool          `json:"already_cancelled"`
}

type paymentResponse struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	UserID           string    `json:"user_id"`
	Amount           string    `json:"amount"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	GatewayOrderID   string    `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	FailureReason    string    `json:"failure_reason,omitempty"`
	PaidAt           time.Time `json:"paid_at"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Held      int       `json:"held"`
	Available int       `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error     string `json:"error"`
	PaymentID string `json:"payment_id,omitempty"`
}

func toItems(items []domorder.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, itemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: money(it.UnitPrice),
			Subtotal:  money(it.Subtotal()),
		})
	}
	return out
}

func toOrder(o *domorder.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		UserID:        o.UserID,
		Items:         toItems(o.Items),
		TotalPrice:    money(o.TotalPrice),
		Status:        string(o.Status),
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrders(orders []*domorder.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	return out
}

func toPayment(p *dompayment.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		UserID:           p.UserID,
		Amount:           money(p.Amount),
		Method:           string(p.Method),
		Status:           string(p.Status),
		GatewayOrderID:   p.Gateway.OrderID,
		GatewayPaymentID: p.Gateway.PaymentID,
		FailureReason:    p.FailureReason,
		PaidAt:           p.PaidAt,
	}
}

func toPayments(ps []*dompayment.Payment) []paymentResponse {
	out := make([]paymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPayment(p))
	}
	return out
}

func toProduct(p *dominv.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     money(p.Price),
		Stock:     p.Stock,
		Held:      p.Held,
		Available: p.Available(),
		UpdatedAt: p.UpdatedAt,
	}
}

func toProducts(ps []*dominv.Product) []productResponse {
	out := make([]productResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProduct(p))
	}
	return out
}
