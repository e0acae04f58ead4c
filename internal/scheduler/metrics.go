package scheduler

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus-метрики планировщика.
// Nil *Metrics допустим: все методы становятся no-op.
type Metrics struct {
	sweeps        prometheus.Counter
	checked       prometheus.Counter
	executed      prometheus.Counter
	sweepDuration prometheus.Histogram
	runs          *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
}

// NewMetrics создаёт и регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_sweeps_total",
			Help: "Total scheduler sweeps",
		}),
		checked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_schedules_checked_total",
			Help: "Enabled schedules checked for due occurrences",
		}),
		executed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadence_schedules_executed_total",
			Help: "Due schedules executed with a recorded run",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cadence_sweep_duration_seconds",
			Help:    "Duration of a full sweep",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_runs_total",
			Help: "Finished runs by status",
		}, []string{"status"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadence_webhook_deliveries_total",
			Help: "Webhook deliveries by status class (0 = transport error)",
		}, []string{"class"}),
	}

	if reg != nil {
		reg.MustRegister(m.sweeps, m.checked, m.executed, m.sweepDuration, m.runs, m.webhooks)
	}
	return m
}

func (m *Metrics) observeSweep(checked, executed int, seconds float64) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.checked.Add(float64(checked))
	m.executed.Add(float64(executed))
	m.sweepDuration.Observe(seconds)
}

func (m *Metrics) observeRun(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) observeWebhook(status int) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(statusClass(status)).Inc()
}

// statusClass группирует HTTP-коды: "0", "2xx", "4xx", "5xx".
func statusClass(status int) string {
	if status <= 0 {
		return "0"
	}
	return strconv.Itoa(status/100) + "xx"
}
