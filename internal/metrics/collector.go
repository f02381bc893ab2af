// Package metrics exposes Prometheus metrics for scans, git invocations and
// HTTP requests.
//
// All recording methods are safe on a nil *Collector, so components can take
// an optional collector without guarding every call site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes.
const (
	OutcomeChanges   = "changes"
	OutcomeNoChanges = "no_changes"
)

// Config controls naming of the exported metrics.
type Config struct {
	Namespace string
	Subsystem string
}

// Collector owns a private registry and the service's metric vectors.
type Collector struct {
	registry *prometheus.Registry

	scansTotal        *prometheus.CounterVec
	logsGenerated     prometheus.Counter
	gitDuration       *prometheus.HistogramVec
	gitErrors         *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	digestRuns        *prometheus.CounterVec
	notifierConnected prometheus.Gauge
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "autolog"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry: reg,
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "scans_total",
			Help:      "Project scans by project and outcome.",
		}, []string{"project", "outcome"}),
		logsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "log_entries_generated_total",
			Help:      "Log entries synthesized from project changes.",
		}),
		gitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "git_command_duration_seconds",
			Help:      "Duration of git invocations by subcommand.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"command"}),
		gitErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "git_command_errors_total",
			Help:      "Failed git invocations by subcommand.",
		}, []string{"command"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		digestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "digest_runs_total",
			Help:      "Scheduled digest runs by result.",
		}, []string{"result"}),
		notifierConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "notifier_connected",
			Help:      "1 when the WhatsApp notifier holds a live session.",
		}),
	}

	reg.MustRegister(
		c.scansTotal,
		c.logsGenerated,
		c.gitDuration,
		c.gitErrors,
		c.httpRequests,
		c.httpDuration,
		c.digestRuns,
		c.notifierConnected,
	)

	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// RecordScan counts a project scan.
func (c *Collector) RecordScan(projectID string, hasChanges bool) {
	if c == nil {
		return
	}
	outcome := OutcomeNoChanges
	if hasChanges {
		outcome = OutcomeChanges
	}
	c.scansTotal.WithLabelValues(projectID, outcome).Inc()
}

// RecordLogEntries adds n generated log entries.
func (c *Collector) RecordLogEntries(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.logsGenerated.Add(float64(n))
}

// ObserveGit records a git invocation. Its signature matches gitlog.ObserveFunc.
func (c *Collector) ObserveGit(command string, d time.Duration, err error) {
	if c == nil {
		return
	}
	c.gitDuration.WithLabelValues(command).Observe(d.Seconds())
	if err != nil {
		c.gitErrors.WithLabelValues(command).Inc()
	}
}

// RecordHTTP records a finished HTTP request.
func (c *Collector) RecordHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordDigest counts a digest run; result is "sent", "logged", "empty" or "error".
func (c *Collector) RecordDigest(result string) {
	if c == nil {
		return
	}
	c.digestRuns.WithLabelValues(result).Inc()
}

// SetNotifierConnected mirrors the notifier session state.
func (c *Collector) SetNotifierConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.notifierConnected.Set(1)
		return
	}
	c.notifierConnected.Set(0)
}
