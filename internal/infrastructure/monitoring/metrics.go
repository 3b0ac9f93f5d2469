package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/notebook/internal/editor"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Editor metrics
	SessionsActive  prometheus.Gauge
	SavesTotal      *prometheus.CounterVec
	SaveDuration    *prometheus.HistogramVec
	SyscallsTotal   *prometheus.CounterVec
	MessagesDropped *prometheus.CounterVec

	// Content metrics
	ScansTotal     prometheus.Counter
	ScanDuration   prometheus.Histogram
	WidgetsEmitted *prometheus.CounterVec
	HeightReports  *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	ActiveSessions int64   `json:"active_sessions"`
	SavesAcked     int64   `json:"saves_acknowledged"`
	SavesAbandoned int64   `json:"saves_abandoned"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered with reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		gatherer:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notebook_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notebook_editor_sessions_active",
			Help: "Number of open editor sessions",
		}),
		SavesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_editor_saves_total",
				Help: "Settled save transactions by outcome",
			},
			[]string{"editor", "outcome"},
		),
		SaveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notebook_editor_save_duration_seconds",
				Help:    "Time from request-save to settlement",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"editor", "outcome"},
		),
		SyscallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_editor_syscalls_total",
				Help: "Syscalls handled for editors",
			},
			[]string{"syscall", "status"},
		),
		MessagesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_editor_messages_dropped_total",
				Help: "Frame messages dropped as malformed or unknown",
			},
			[]string{"type"},
		),

		ScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "notebook_decoration_scans_total",
			Help: "Decoration scans performed",
		}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "notebook_decoration_scan_duration_seconds",
			Help:    "Decoration scan latency",
			Buckets: prometheus.DefBuckets,
		}),
		WidgetsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_widgets_emitted_total",
				Help: "Widgets emitted by decoration scans",
			},
			[]string{"kind"},
		),
		HeightReports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebook_widget_height_reports_total",
				Help: "Widget height reports by whether the cache changed",
			},
			[]string{"changed"},
		),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notebook_frame_connections_active",
			Help: "Number of attached frame websockets",
		}),
		Uptime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notebook_uptime_seconds",
			Help: "Backend uptime in seconds",
		}),
	}

	return m
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
		h.ServeHTTP(w, r)
	})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if len(status) > 0 && status[0] >= '4' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SaveSettled implements editor.Metrics.
func (m *Metrics) SaveSettled(editorName string, outcome editor.SaveOutcome, elapsed time.Duration) {
	m.SavesTotal.WithLabelValues(editorName, outcome.String()).Inc()
	m.SaveDuration.WithLabelValues(editorName, outcome.String()).Observe(elapsed.Seconds())

	m.mu.Lock()
	switch outcome {
	case editor.SaveAcknowledged:
		m.snapshot.SavesAcked++
	case editor.SaveAbandoned:
		m.snapshot.SavesAbandoned++
	}
	m.mu.Unlock()
}

// SyscallHandled implements editor.Metrics.
func (m *Metrics) SyscallHandled(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SyscallsTotal.WithLabelValues(name, status).Inc()
}

// MessageDropped implements editor.Metrics.
func (m *Metrics) MessageDropped(msgType string) {
	m.MessagesDropped.WithLabelValues(msgType).Inc()
}

// RecordScan records a decoration scan and the widgets it produced
func (m *Metrics) RecordScan(duration time.Duration, media, pages int) {
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(duration.Seconds())
	m.WidgetsEmitted.WithLabelValues("media").Add(float64(media))
	m.WidgetsEmitted.WithLabelValues("page").Add(float64(pages))
}

// RecordHeightReport records a widget height report
func (m *Metrics) RecordHeightReport(changed bool) {
	label := "false"
	if changed {
		label = "true"
	}
	m.HeightReports.WithLabelValues(label).Inc()
}

// SetSessionsActive sets the open editor session count
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))

	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncWSConnections increments attached frame connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements attached frame connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

var _ editor.Metrics = (*Metrics)(nil)
