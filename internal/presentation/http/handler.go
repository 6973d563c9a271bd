package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Zhima-Mochi/marketplace-orders/internal/application"
	appinv "github.com/Zhima-Mochi/marketplace-orders/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/marketplace-orders/internal/application/order"
	apppayment "github.com/Zhima-Mochi/marketplace-orders/internal/application/payment"
	domorder "github.com/Zhima-Mochi/marketplace-orders/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/marketplace-orders/internal/domain/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	maxBodyBytes         = 1 << 20
)

var errBadRequest = errors.New("bad request")

// Services is everything the HTTP surface dispatches to.
type Services struct {
	CreateOrder    application.UseCase[apporder.CreateOrderInput, *domorder.Order]
	CancelOrder    application.UseCase[apporder.CancelOrderInput, *apporder.CancelOrderResult]
	SetOrderStatus application.UseCase[apporder.SetOrderStatusInput, *domorder.Order]
	Orders         *apporder.Queries

	MakePayment     application.UseCase[apppayment.MakePaymentInput, *dompayment.Payment]
	InitiatePayment application.UseCase[apppayment.InitiatePaymentInput, *apppayment.InitiatePaymentResult]
	CapturePayment  application.UseCase[apppayment.CapturePaymentInput, *dompayment.Payment]
	Payments        *apppayment.Queries

	Catalog *appinv.Catalog
}

type Handler struct {
	svc     Services
	log     observability.Logger
	metrics observability.Metrics
	scrape  http.Handler
}

// NewHandler builds the API. scrape serves /metrics when non-nil.
func NewHandler(svc Services, tel observability.Observability, scrape http.Handler) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		svc:     svc,
		log:     tel.Logger().With(observability.F("component", componentHTTPHandler)),
		metrics: tel.Metrics(),
		scrape:  scrape,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Use(ObservabilityMiddleware(h.log, h.metrics))

	r.Get("/health", h.handleHealth)
	if h.scrape != nil {
		r.Method(http.MethodGet, "/metrics", h.scrape)
	}

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.handleCreateOrder)
		r.Get("/", h.handleListOrders)
		r.Get("/user/{userID}", h.handleListOrdersByUser)
		r.Get("/{id}", h.handleGetOrder)
		r.Get("/{id}/items", h.handleGetOrderItems)
		r.Put("/{id}/cancel", h.handleCancelOrder)
		r.Put("/{id}/status", h.handleSetOrderStatus)
	})
	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.handleMakePayment)
		r.Get("/", h.handleListPayments)
		r.Post("/initiate", h.handleInitiatePayment)
		r.Post("/capture", h.handleCapturePayment)
		r.Get("/{id}", h.handleGetPayment)
	})
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.handleListProducts)
		r.Post("/", h.handleCreateProduct)
		r.Get("/{id}", h.handleGetProduct)
		r.Put("/{id}/price", h.handleRepriceProduct)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// --- orders

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]apporder.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, apporder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.svc.CreateOrder.Execute(r.Context(), apporder.CreateOrderInput{UserID: req.UserID, Items: items})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrder(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

func (h *Handler) handleListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (h *Handler) handleGetOrderItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Orders.Items(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItems(items))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CancelOrder.Execute(r.Context(), apporder.CancelOrderInput{OrderID: chi.URLParam(r, "id")})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelOrderResponse{
		Order:            toOrder(res.Order),
		StockRestored:    res.StockRestored,
		AlreadyCancelled: res.AlreadyCancelled,
	})
}

func (h *Handler) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.svc.SetOrderStatus.Execute(r.Context(), apporder.SetOrderStatusInput{
		OrderID: chi.URLParam(r, "id"),
		Status:  req.Status,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

// --- payments

func (h *Handler) handleMakePayment(w http.ResponseWriter, r *http.Request) {
	var req makePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.MakePayment.Execute(r.Context(), apppayment.MakePaymentInput{
		OrderID: req.OrderID,
		UserID:  req.UserID,
		Amount:  req.Amount,
		Method:  req.Method,
	})
	h.writePaymentResult(w, r, p, err)
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.InitiatePayment.Execute(r.Context(), apppayment.InitiatePaymentInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	raw := res.Intent.Raw
	if len(raw) == 0 {
		var merr error
		if raw, merr = json.Marshal(res.Intent); merr != nil {
			h.writeError(w, r, merr)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *Handler) handleCapturePayment(w http.ResponseWriter, r *http.Request) {
	var req capturePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.CapturePayment.Execute(r.Context(), apppayment.CapturePaymentInput{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
		OrderID:          req.OrderID,
		UserID:           req.UserID,
		Amount:           req.Amount,
	})
	h.writePaymentResult(w, r, p, err)
}

// writePaymentResult reports a recorded failed payment alongside its error so
// the client can reference it when the charge is refunded.
func (h *Handler) writePaymentResult(w http.ResponseWriter, r *http.Request, p *dompayment.Payment, err error) {
	if err != nil {
		body := errorResponse{}
		if p != nil {
			body.PaymentID = p.ID
		}
		h.writeErrorBody(w, r, err, body)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.Payments.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayments(ps))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

// --- products

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.Catalog.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProducts(ps))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.Create(r.Context(), appinv.CreateProductInput{
		ID:    req.ID,
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProduct(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func (h *Handler) handleRepriceProduct(w http.ResponseWriter, r *http.Request) {
	var req repriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.Reprice(r.Context(), appinv.RepriceInput{
		ProductID: chi.URLParam(r, "id"),
		Price:     req.Price,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
