package observability

import (
	"github.com/Zhima-Mochi/marketplace-orders/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

type registeredMetrics struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m *registeredMetrics) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok && c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m *registeredMetrics) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok && h != nil {
		return h
	}
	return observability.NopHistogram()
}

// Instruments registers one counter or histogram per key.
type Instruments interface {
	Counter(spec observability.MetricSpec) observability.Counter
	Histogram(spec observability.MetricSpec) observability.Histogram
}

// BuildMetrics registers every known metric spec against the supplied instruments.
func BuildMetrics(in Instruments) observability.Metrics {
	if in == nil {
		return observability.NopMetrics()
	}
	m := &registeredMetrics{
		counters:   make(map[observability.MetricKey]observability.Counter, len(observability.CounterSpecs)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(observability.HistogramSpecs)),
	}
	for _, s := range observability.CounterSpecs {
		m.counters[s.Key] = in.Counter(s)
	}
	for _, s := range observability.HistogramSpecs {
		m.histograms[s.Key] = in.Histogram(s)
	}
	return m
}

// New assembles an Observability provider backed by the supplied tracer, logger and metrics.
func New(tracer observability.Tracer, logger observability.Logger, metrics observability.Metrics) observability.Observability {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &provider{tracer: tracer, logger: logger, metrics: metrics}
}

func (p *provider) Tracer() observability.Tracer {
	return p.tracer
}

func (p *provider) Logger() observability.Logger {
	return p.logger
}

func (p *provider) Metrics() observability.Metrics {
	return p.metrics
}
