package prometrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

// Registry creates Prometheus-backed instruments from metric specs.
type Registry struct {
	reg        prometheus.Registerer
	namespace  string
	buckets    []float64
	mu         sync.Mutex
	counters   map[observability.MetricKey]*prometheus.CounterVec
	histograms map[observability.MetricKey]*prometheus.HistogramVec
}

// New returns a registry registering into reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{
		reg:        reg,
		namespace:  namespace,
		buckets:    prometheus.DefBuckets,
		counters:   map[observability.MetricKey]*prometheus.CounterVec{},
		histograms: map[observability.MetricKey]*prometheus.HistogramVec{},
	}
}

type counter struct {
	v    *prometheus.CounterVec
	keys []string
}

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(c.keys, labels)).Add(d)
}

type histogram struct {
	v    *prometheus.HistogramVec
	keys []string
}

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(h.keys, labels)).Observe(v)
}

// labelMap fills every declared key so a missing label never panics; unknown keys are dropped.
func labelMap(keys []string, ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(keys))
	for _, k := range keys {
		m[k] = ""
	}
	for _, l := range ls {
		if _, ok := m[l.Key]; ok {
			m[l.Key] = l.Value
		}
	}
	return m
}

// Counter registers (once) and returns the counter for spec.
func (r *Registry) Counter(spec observability.MetricSpec) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.counters[spec.Key]; ok {
		return &counter{v: v, keys: spec.Labels}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: string(spec.Key), Help: spec.Help,
	}, spec.Labels)
	r.reg.MustRegister(cv)
	r.counters[spec.Key] = cv
	return &counter{v: cv, keys: spec.Labels}
}

// Histogram registers (once) and returns the histogram for spec.
func (r *Registry) Histogram(spec observability.MetricSpec) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.histograms[spec.Key]; ok {
		return &histogram{v: v, keys: spec.Labels}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: string(spec.Key), Help: spec.Help, Buckets: r.buckets,
	}, spec.Labels)
	r.reg.MustRegister(hv)
	r.histograms[spec.Key] = hv
	return &histogram{v: hv, keys: spec.Labels}
}
