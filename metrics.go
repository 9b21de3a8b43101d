package rescache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reasonBudget   = "budget"
	reasonExpired  = "expired"
	reasonPressure = "pressure"
)

// metrics holds the optional prometheus instrumentation. All methods are
// safe on a nil receiver so that an unregistered cache costs nothing.
type metrics struct {
	hits, misses  prometheus.Counter
	evictions     *prometheus.CounterVec
	entryCount    prometheus.Gauge
	residentBytes prometheus.Gauge
}

func newMetrics(r prometheus.Registerer) *metrics {
	if r == nil {
		return nil
	}

	f := promauto.With(r)
	return &metrics{
		hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rescache",
			Name:      "hits_total",
			Help:      "Total number of cache hits.",
		}),
		misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rescache",
			Name:      "misses_total",
			Help:      "Total number of cache misses.",
		}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rescache",
			Name:      "evictions_total",
			Help:      "Total number of payloads removed by the cache, by reason.",
		}, []string{"reason"}),
		entryCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rescache",
			Name:      "entries",
			Help:      "Current number of stored payloads.",
		}),
		residentBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rescache",
			Name:      "resident_bytes",
			Help:      "Current sum of the stored payload sizes.",
		}),
	}
}

func (m *metrics) hit() {
	if m == nil {
		return
	}

	m.hits.Inc()
}

func (m *metrics) miss() {
	if m == nil {
		return
	}

	m.misses.Inc()
}

func (m *metrics) evicted(typ EventType) {
	if m == nil {
		return
	}

	switch {
	case typ.Is(Pressure):
		m.evictions.WithLabelValues(reasonPressure).Inc()
	case typ.Is(Expire):
		m.evictions.WithLabelValues(reasonExpired).Inc()
	default:
		m.evictions.WithLabelValues(reasonBudget).Inc()
	}
}

func (m *metrics) gauges(entryCount, totalBytes int) {
	if m == nil {
		return
	}

	m.entryCount.Set(float64(entryCount))
	m.residentBytes.Set(float64(totalBytes))
}
