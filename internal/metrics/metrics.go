// Package metrics exposes submission outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/aidledger/internal/submit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records submission lifecycles. It implements submit.NotificationSink
// so it can sit alongside the console sink.
type Metrics struct {
	// Submissions by label and outcome (success, duplicate, error)
	Submissions *prometheus.CounterVec

	// Failures by classified error kind
	Errors *prometheus.CounterVec

	// Time from processing to settled, by label
	Duration *prometheus.HistogramVec

	// Base units returned to pools by the sweeper
	Reclaimed prometheus.Counter

	started map[string]time.Time
	now     func() time.Time
	mu      sync.Mutex
}

// New creates Metrics registered with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates Metrics registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_submissions_total",
			Help: "Total settled submissions by label and outcome",
		}, []string{"label", "outcome"}),

		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_submission_errors_total",
			Help: "Total failed submissions by classified error kind",
		}, []string{"kind"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aidledger_submission_duration_seconds",
			Help:    "Duration of submissions from dispatch to confirmation or failure",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"label"}),

		Reclaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "aidledger_reclaimed_base_units_total",
			Help: "Total base units returned to pools from expired distributions",
		}),

		started: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Notify implements submit.NotificationSink.
func (m *Metrics) Notify(_ context.Context, n submit.Notification) {
	if m == nil {
		return
	}

	switch n.Kind {
	case submit.NotifyProcessing:
		m.mu.Lock()
		m.started[n.ID] = m.now()
		m.mu.Unlock()
		return
	case submit.NotifySuccess:
		outcome := "success"
		if n.Duplicate {
			outcome = "duplicate"
		}
		m.Submissions.WithLabelValues(n.Label, outcome).Inc()
	case submit.NotifyError:
		m.Submissions.WithLabelValues(n.Label, "error").Inc()
		m.Errors.WithLabelValues(string(n.ErrorKind)).Inc()
	}

	m.mu.Lock()
	start, ok := m.started[n.ID]
	delete(m.started, n.ID)
	m.mu.Unlock()
	if ok {
		m.Duration.WithLabelValues(n.Label).Observe(m.now().Sub(start).Seconds())
	}
}

// AddReclaimed records base units returned to a pool.
func (m *Metrics) AddReclaimed(amount uint64) {
	if m != nil {
		m.Reclaimed.Add(float64(amount))
	}
}

var _ submit.NotificationSink = (*Metrics)(nil)
