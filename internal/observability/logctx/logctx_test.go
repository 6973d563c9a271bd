package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field{}, r.fields...), fields...)}
}

func TestFromOr(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}
	assert.Same(t, fallback, FromOr(context.Background(), fallback))
	assert.NotNil(t, FromOr(context.Background(), nil))

	scoped := &recordingLogger{Logger: observability.NopLogger()}
	ctx := With(context.Background(), scoped)
	assert.Same(t, scoped, FromOr(ctx, fallback))
}

func TestEnrichStoresChild(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}
	ctx, logger := Enrich(context.Background(), base, observability.F("order_id", "o-1"))

	got, ok := From(ctx).(*recordingLogger)
	require.True(t, ok)
	assert.Same(t, logger, observability.Logger(got))
	require.Len(t, got.fields, 1)
	assert.Equal(t, "order_id", got.fields[0].Key)
}
