package metrics

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "turtle_sentinel"

// Metrics holds the Prometheus metrics of the evaluation cycle on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec // labels: outcome
	NotificationsTotal *prometheus.CounterVec // labels: result
	FetchDuration      prometheus.Histogram
	LastClose          prometheus.Gauge
	LastSuccess        prometheus.Gauge

	pushURL string
}

// New registers and returns all metrics. pushURL may be empty.
func New(pushURL string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turtle_evaluations_total",
			Help: "Evaluation runs by outcome",
		}, []string{"outcome"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turtle_notifications_total",
			Help: "Notification attempts by result",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "turtle_fetch_duration_seconds",
			Help:    "Market data fetch latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastClose: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "turtle_last_close",
			Help: "Close of the last evaluated bar",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "turtle_last_success_timestamp_seconds",
			Help: "Unix time of the last run that produced a decision",
		}),
		pushURL: pushURL,
	}
	m.Registry.MustRegister(
		m.EvaluationsTotal,
		m.NotificationsTotal,
		m.FetchDuration,
		m.LastClose,
		m.LastSuccess,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// PushEnabled reports whether a Pushgateway is configured.
func (m *Metrics) PushEnabled() bool { return m.pushURL != "" }

// Push sends the current values to the Pushgateway. One-shot runs exit
// before any scrape, so this is how their metrics leave the process.
func (m *Metrics) Push(ctx context.Context) error {
	if !m.PushEnabled() {
		return nil
	}
	err := push.New(m.pushURL, jobName).Gatherer(m.Registry).PushContext(ctx)
	return errors.Wrap(err, "push metrics")
}
