package qrcode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for payload rendering and caching.
type Metrics struct {
	// Render attempts per renderer and result
	Renders *prometheus.CounterVec

	// Image cache lookups: hit, miss, error
	CacheLookups *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all rendering metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		Renders: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_qr_renders_total",
			Help: "Total QR render attempts by renderer and result",
		}, []string{"renderer", "result"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_qr_cache_lookups_total",
			Help: "Total rendered-image cache lookups by result",
		}, []string{"result"}),
	}
}

// IncrementRender records one render attempt.
func (m *Metrics) IncrementRender(renderer, result string) {
	if m != nil {
		m.Renders.WithLabelValues(renderer, result).Inc()
	}
}

// IncrementCache records one image cache lookup.
func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}
