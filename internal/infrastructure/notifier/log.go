package notifier

import (
	"context"

	"github.com/Zhima-Mochi/marketplace-orders/internal/domain/notification"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability/logctx"
)

var _ notification.Notifier = (*Log)(nil)

// Log writes notifications to the request logger. Used when no delivery
// backend is configured.
type Log struct {
	logger observability.Logger
}

func NewLog(logger observability.Logger) *Log {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Log{logger: logger}
}

func (n *Log) Notify(ctx context.Context, userID, message string, typ notification.Type) error {
	logctx.FromOr(ctx, n.logger).Info("user_notification",
		observability.F("user_id", userID),
		observability.F("message", message),
		observability.F("type", string(typ)),
	)
	return nil
}
