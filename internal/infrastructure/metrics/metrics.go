package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "localdrop"

func NewCounter() *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "general_counters",
		},
		[]string{"result"})
}

// NewSessionsGauge tracks open viewer sessions.
func NewSessionsGauge() prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "viewer_sessions",
		Help:      "Number of connected gallery viewers.",
	})
}

// NewSubscribersGauge reports the live subscriber count of the event bus at
// scrape time.
func NewSubscribersGauge(count func() int) prometheus.GaugeFunc {
	return promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bus_subscribers",
		Help:      "Subscriptions currently registered on the event bus.",
	}, func() float64 { return float64(count()) })
}
