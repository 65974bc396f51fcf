// Package metrics holds the Prometheus collectors of the API process.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "violetear"

// Metrics owns a private registry so tests and multiple App instances do not
// collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	ReportsSubmitted prometheus.Counter
	TasksCreated     prometheus.Counter
	NotifyFailures   prometheus.Counter
	FilesDiscarded   prometheus.Counter
	AuthFailures     *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ReportsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reports_submitted_total",
			Help:      "Reports committed together with their tasks.",
		}),
		TasksCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tasks_created_total",
			Help:      "Tasks created by report fan-out.",
		}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notify_failures_total",
			Help:      "Work-available signals that could not be delivered after retries.",
		}),
		FilesDiscarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "files_discarded_total",
			Help:      "Report payloads cleared from the database.",
		}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected credentials by operation.",
		}, []string{"op"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RegisterDB exports the connection pool statistics of db.
func (m *Metrics) RegisterDB(db *sql.DB) error {
	return m.Registry.Register(collectors.NewDBStatsCollector(db, Namespace))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
