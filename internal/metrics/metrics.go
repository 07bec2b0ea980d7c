// Package metrics collects the storefront's Prometheus metrics.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GreenNest/GreenNest/internal/identity"
)

// ResultOK labels a successful operation.
const ResultOK = "ok"

// Recorder is the metrics surface used by the web layer.
type Recorder interface {
	RecordAuth(operation string, err error)
	RecordConsultation()
	RecordResolveWait(d time.Duration, resolved bool)
	SetVisitors(n int)
}

// Collector implements Recorder with Prometheus collectors.
type Collector struct {
	authOperations *prometheus.CounterVec
	consultations  prometheus.Counter
	resolveWait    *prometheus.HistogramVec
	visitors       prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "greennest",
			Name:      "auth_operations_total",
			Help:      "Auth operations, differentiated by operation and result kind.",
		}, []string{"operation", "result"}),
		consultations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "greennest",
			Name:      "consultations_total",
			Help:      "Booked plant consultations.",
		}),
		resolveWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "greennest",
			Name:      "identity_resolve_wait_seconds",
			Help:      "Time guarded requests waited for the visitor identity to resolve.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"resolved"}),
		visitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "greennest",
			Name:      "visitors_live",
			Help:      "Visitor identity providers currently cached.",
		}),
	}

	reg.MustRegister(
		c.authOperations,
		c.consultations,
		c.resolveWait,
		c.visitors,
	)

	return c
}

// RecordAuth counts one auth operation with its error kind as result.
func (c *Collector) RecordAuth(operation string, err error) {
	c.authOperations.WithLabelValues(operation, Result(err)).Inc()
}

// RecordConsultation counts a stored consultation request.
func (c *Collector) RecordConsultation() {
	c.consultations.Inc()
}

// RecordResolveWait observes how long a guarded request waited.
func (c *Collector) RecordResolveWait(d time.Duration, resolved bool) {
	label := "false"
	if resolved {
		label = "true"
	}

	c.resolveWait.WithLabelValues(label).Observe(d.Seconds())
}

// SetVisitors sets the number of live visitor providers.
func (c *Collector) SetVisitors(n int) {
	c.visitors.Set(float64(n))
}

// Result maps an auth error to its metric label, e.g. "invalid_credentials".
func Result(err error) string {
	if err == nil {
		return ResultOK
	}

	kind := identity.Kind(err)
	if kind == nil {
		kind = identity.ErrUnknown
	}

	return strings.ReplaceAll(kind.Error(), " ", "_")
}

// Nop discards every metric.
type Nop struct{}

// RecordAuth implements Recorder.
func (Nop) RecordAuth(string, error) {}

// RecordConsultation implements Recorder.
func (Nop) RecordConsultation() {}

// RecordResolveWait implements Recorder.
func (Nop) RecordResolveWait(time.Duration, bool) {}

// SetVisitors implements Recorder.
func (Nop) SetVisitors(int) {}
