package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InstructionMetrics records processor activity segmented by operation.
type InstructionMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	instructionOnce     sync.Once
	instructionRegistry *InstructionMetrics
)

// Instructions returns the lazily-initialised instruction metrics registry.
func Instructions() *InstructionMetrics {
	instructionOnce.Do(func() {
		instructionRegistry = &InstructionMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swapvault",
				Subsystem: "processor",
				Name:      "instructions_total",
				Help:      "Total instructions processed segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swapvault",
				Subsystem: "processor",
				Name:      "instruction_errors_total",
				Help:      "Total instruction failures segmented by operation and error kind.",
			}, []string{"operation", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "swapvault",
				Subsystem: "processor",
				Name:      "instruction_duration_seconds",
				Help:      "Latency distribution for instruction execution.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			instructionRegistry.requests,
			instructionRegistry.errors,
			instructionRegistry.latency,
		)
	})
	return instructionRegistry
}

// Observe records one processed instruction.
func (m *InstructionMetrics) Observe(operation string, start time.Time, err error, kind string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(operation, kind).Inc()
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
