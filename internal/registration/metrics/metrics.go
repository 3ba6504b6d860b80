package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module.
type Metrics struct {
	// UIDs issued, split by fresh issuance vs idempotent re-read
	UIDsIssued *prometheus.CounterVec

	// Candidate collisions retried during issuance
	UIDCollisions prometheus.Counter

	// Scan outcomes: marked, already_marked, not_found, invalid_format
	ScanOutcome *prometheus.CounterVec

	// Full verify-and-mark latency
	VerifyLatency prometheus.Histogram
}

// New creates a new Metrics instance with all registration module metrics registered.
func New() *Metrics {
	return &Metrics{
		UIDsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_uids_issued_total",
			Help: "Total UID issuance requests by result",
		}, []string{"result"}), // result: "issued", "existing"

		UIDCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_uid_collisions_total",
			Help: "Total UID candidate collisions retried during issuance",
		}),

		ScanOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_scan_outcomes_total",
			Help: "Total scan verification outcomes",
		}, []string{"outcome"}),

		VerifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatepass_verify_duration_seconds",
			Help:    "Duration of verify-and-mark including the attendance write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementUIDIssued records a UID issuance result.
func (m *Metrics) IncrementUIDIssued(result string) {
	if m != nil {
		m.UIDsIssued.WithLabelValues(result).Inc()
	}
}

// IncrementUIDCollision records a retried candidate collision.
func (m *Metrics) IncrementUIDCollision() {
	if m != nil {
		m.UIDCollisions.Inc()
	}
}

// IncrementScanOutcome records a scan verification outcome.
func (m *Metrics) IncrementScanOutcome(outcome string) {
	if m != nil {
		m.ScanOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveVerifyLatency records the total verify-and-mark duration.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}
