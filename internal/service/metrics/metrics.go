package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	RiskLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hedgedesk",
			Subsystem: "risk",
			Name:      "latency_seconds",
			Help:      "Latency of risk endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RiskErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hedgedesk",
			Subsystem: "risk",
			Name:      "errors_total",
			Help:      "Errors by risk endpoint",
		},
		[]string{"endpoint"},
	)

	TimelinePoints = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hedgedesk",
			Subsystem: "risk",
			Name:      "timeline_points",
			Help:      "Number of evaluation points per timeline build",
			Buckets:   []float64{2, 4, 8, 12, 24, 36, 48, 72},
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(RiskLatency, RiskErrors, TimelinePoints)
	})
}
