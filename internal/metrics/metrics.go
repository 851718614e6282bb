// Package metrics exposes reconciliation and notification counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rpggio/projmon/internal/domain/reconcile"
)

// Metrics holds the monitor's collectors on a private registry.
//
// Metrics:
//   - projmon_reconcile_runs_total{outcome} - runs by ok/partial
//   - projmon_reconcile_changes_total{kind} - updated/deleted/transitioned/assigned projects
//   - projmon_reconcile_live_projects - live projects seen by the last run
//   - projmon_reconcile_last_run_timestamp_seconds - completion time of the last run
//   - projmon_notifications_total{outcome} - emails by sent/failed
type Metrics struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	changes       *prometheus.CounterVec
	liveProjects  prometheus.Gauge
	lastRun       prometheus.Gauge
	notifications *prometheus.CounterVec

	now func() time.Time
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projmon_reconcile_runs_total",
			Help: "Reconciliation runs by outcome",
		}, []string{"outcome"}),
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projmon_reconcile_changes_total",
			Help: "Projects changed by reconciliation, by kind",
		}, []string{"kind"}),
		liveProjects: factory.NewGauge(prometheus.GaugeOpts{
			Name: "projmon_reconcile_live_projects",
			Help: "Live projects read by the last reconciliation",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "projmon_reconcile_last_run_timestamp_seconds",
			Help: "Unix time the last reconciliation finished",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projmon_notifications_total",
			Help: "Designated contact emails by outcome",
		}, []string{"outcome"}),
		now: time.Now,
	}
}

// ObserveRun records a finished reconciliation. Safe on a nil receiver.
func (m *Metrics) ObserveRun(res reconcile.Result, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "partial"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.changes.WithLabelValues("updated").Add(float64(res.Updated))
	m.changes.WithLabelValues("deleted").Add(float64(res.Deleted))
	m.changes.WithLabelValues("transitioned").Add(float64(res.Transitioned))
	m.changes.WithLabelValues("assigned").Add(float64(res.Assigned))
	m.liveProjects.Set(float64(res.Live))
	m.lastRun.Set(float64(m.now().Unix()))
}

// ObserveNotification records one email attempt. Safe on a nil receiver.
func (m *Metrics) ObserveNotification(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.notifications.WithLabelValues("sent").Inc()
		return
	}
	m.notifications.WithLabelValues("failed").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
