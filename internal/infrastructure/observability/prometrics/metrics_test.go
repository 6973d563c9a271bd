package prometrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

func TestCounterRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "orders")
	spec := observability.MetricSpec{Key: "things_total", Help: "things", Labels: []string{"outcome"}}

	c1 := r.Counter(spec)
	c2 := r.Counter(spec)
	c1.Add(1, observability.L("outcome", "success"))
	c2.Add(2, observability.L("outcome", "success"))

	n, err := testutil.GatherAndCount(reg, "orders_things_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cv := r.counters[spec.Key]
	assert.Equal(t, 3.0, testutil.ToFloat64(cv.WithLabelValues("success")))
}

func TestMissingLabelsDoNotPanic(t *testing.T) {
	r := New(prometheus.NewRegistry(), "")
	h := r.Histogram(observability.MetricSpec{Key: "lat_seconds", Help: "lat", Labels: []string{"peer", "endpoint"}})
	assert.NotPanics(t, func() {
		h.Observe(0.1, observability.L("peer", "gateway"), observability.L("bogus", "x"))
	})
}
