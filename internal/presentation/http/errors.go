package httppresentation

import (
	"errors"
	"net/http"

	appinv "github.com/Zhima-Mochi/marketplace-orders/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/marketplace-orders/internal/application/order"
	apppayment "github.com/Zhima-Mochi/marketplace-orders/internal/application/payment"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability/logctx"
)

const internalErrorMessage = "internal error"

// statusFor maps application errors to HTTP status codes. Anything unknown is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apporder.ErrRepository),
		errors.Is(err, apppayment.ErrRepository),
		errors.Is(err, appinv.ErrRepository):
		return http.StatusInternalServerError
	case errors.Is(err, apporder.ErrNotFound),
		errors.Is(err, apporder.ErrProductNotFound),
		errors.Is(err, apppayment.ErrNotFound),
		errors.Is(err, apppayment.ErrOrderNotFound),
		errors.Is(err, appinv.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apporder.ErrValidation),
		errors.Is(err, apppayment.ErrValidation),
		errors.Is(err, appinv.ErrValidation),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apppayment.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, apporder.ErrInsufficientStock),
		errors.Is(err, apporder.ErrInvalidStateTransition),
		errors.Is(err, apppayment.ErrAmountMismatch),
		errors.Is(err, apppayment.ErrAlreadyPaid),
		errors.Is(err, apppayment.ErrOrderNotPayable),
		errors.Is(err, apppayment.ErrGatewayOrderMismatch),
		errors.Is(err, apppayment.ErrStockExhaustedAfterPayment),
		errors.Is(err, appinv.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apppayment.ErrGatewayUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeErrorBody(w, r, err, errorResponse{})
}

// writeErrorBody hides the cause of every 500 from the client and logs it instead.
func (h *Handler) writeErrorBody(w http.ResponseWriter, r *http.Request, err error, body errorResponse) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error",
			observability.F("route", routePattern(r)),
			observability.F("error", err),
		)
		body = errorResponse{Error: internalErrorMessage}
	} else {
		body.Error = err.Error()
	}
	writeJSON(w, status, body)
}
