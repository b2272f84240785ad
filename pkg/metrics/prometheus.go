package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	rebuilds     *prometheus.CounterVec
	portfolioVaR *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgedesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgedesk_last_price",
				Help: "Last observed price for a commodity",
			},
			[]string{"commodity"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hedgedesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		rebuilds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hedgedesk_exposure_rebuilds_total",
				Help: "Exposure bucket rebuilds by outcome",
			},
			[]string{"outcome"},
		),
		portfolioVaR: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hedgedesk_portfolio_var",
				Help: "Most recently computed portfolio VaR per tenant and scenario",
			},
			[]string{"tenant", "scenario"},
		),
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last observed price for a commodity.
func (r *Recorder) RecordLastPrice(commodity string, price float64) {
	r.lastPrice.WithLabelValues(commodity).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordRebuild records an exposure rebuild attempt.
func (r *Recorder) RecordRebuild(outcome string) {
	r.rebuilds.WithLabelValues(outcome).Inc()
}

// RecordPortfolioVaR records the latest portfolio VaR for a tenant.
func (r *Recorder) RecordPortfolioVaR(tenant, scenario string, value float64) {
	r.portfolioVaR.WithLabelValues(tenant, scenario).Set(value)
}
