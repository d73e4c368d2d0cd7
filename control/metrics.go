// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Interception counters exported through a dedicated Prometheus registry.
// A nil *Metrics is valid and records nothing.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sockhook"

// Write paths.
const (
	PathOverride = "override"
	PathReal     = "real"
)

// Write operations.
const (
	OpWritev  = "writev"
	OpSendmsg = "sendmsg"
)

// Handle origins.
const (
	OriginMakeSocket = "make_socket"
	OriginAccept     = "accept"
	OriginDuplicate  = "duplicate"
)

// Activation outcomes.
const (
	ActivationPosted    = "posted"
	ActivationDelivered = "delivered"
	ActivationDropped   = "dropped"
)

// Metrics holds the interception counters.
type Metrics struct {
	registry       *prometheus.Registry
	writes         *prometheus.CounterVec
	handlesCreated *prometheus.CounterVec
	activations    *prometheus.CounterVec
	tasks          prometheus.Counter
}

// NewMetrics creates the counters on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Write-family calls by operation and the path that served them.",
		}, []string{"op", "path"}),
		handlesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handles_created_total",
			Help:      "Interceptable handles created, by origin.",
		}, []string{"origin"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Cross-goroutine activations by outcome.",
		}, []string{"result"}),
		tasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatcher_tasks_total",
			Help:      "Posted tasks executed by dispatchers.",
		}),
	}
	m.registry.MustRegister(m.writes, m.handlesCreated, m.activations, m.tasks)
	return m
}

// Registry exposes the underlying registry for scraping or gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Write records one write-family call.
func (m *Metrics) Write(op, path string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(op, path).Inc()
}

// HandleCreated records one new handle.
func (m *Metrics) HandleCreated(origin string) {
	if m == nil {
		return
	}
	m.handlesCreated.WithLabelValues(origin).Inc()
}

// Activation records one activation outcome.
func (m *Metrics) Activation(result string) {
	if m == nil {
		return
	}
	m.activations.WithLabelValues(result).Inc()
}

// TaskRun records one executed dispatcher task.
func (m *Metrics) TaskRun() {
	if m == nil {
		return
	}
	m.tasks.Inc()
}

// Writes returns the current count for op and path.
func (m *Metrics) Writes(op, path string) prometheus.Counter {
	return m.writes.WithLabelValues(op, path)
}

// HandlesCreated returns the counter for origin.
func (m *Metrics) HandlesCreated(origin string) prometheus.Counter {
	return m.handlesCreated.WithLabelValues(origin)
}

// Activations returns the counter for result.
func (m *Metrics) Activations(result string) prometheus.Counter {
	return m.activations.WithLabelValues(result)
}

// Tasks returns the executed-task counter.
func (m *Metrics) Tasks() prometheus.Counter {
	return m.tasks
}
