// Package metrics exposes Prometheus collectors for the HTTP layer and the
// domain events worth counting (ideas posted, implementations moderated,
// bot messages handled).
//
// Each Metrics value owns its own registry, so tests and the two binaries
// can build as many as they like without duplicate-registration panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reqimple"

// Metrics holds every collector the application records into.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	usersRegistered          *prometheus.CounterVec
	ideasCreated             *prometheus.CounterVec
	implementationsSubmitted prometheus.Counter
	implementationsModerated *prometheus.CounterVec
	commentsPosted           *prometheus.CounterVec
	botMessages              *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),

		usersRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Accounts created, by source (web, bot).",
		}, []string{"source"}),
		ideasCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ideas_created_total",
			Help:      "Ideas posted, by source (web, api, bot).",
		}, []string{"source"}),
		implementationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "implementations_submitted_total",
			Help:      "Implementations submitted for moderation.",
		}),
		implementationsModerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "implementations_moderated_total",
			Help:      "Moderation toggles, by resulting status.",
		}, []string{"status"}),
		commentsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_posted_total",
			Help:      "Comments posted, by parent kind.",
		}, []string{"parent"}),
		botMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "messages_total",
			Help:      "Chat messages handled, by command and outcome.",
		}, []string{"command", "outcome"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.usersRegistered,
		m.ideasCreated,
		m.implementationsSubmitted,
		m.implementationsModerated,
		m.commentsPosted,
		m.botMessages,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Instrument records request count, duration and in-flight gauge. The
// route label is chi's route pattern ("/ideas/{id}"), so ids never explode
// the label cardinality. Must be mounted on the chi router.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// UserRegistered counts a new account; source is "web" or "bot".
func (m *Metrics) UserRegistered(source string) {
	m.usersRegistered.WithLabelValues(source).Inc()
}

// IdeaCreated counts a new idea; source is "web", "api" or "bot".
func (m *Metrics) IdeaCreated(source string) {
	m.ideasCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) ImplementationSubmitted() {
	m.implementationsSubmitted.Inc()
}

// ImplementationModerated counts a verification toggle landing on status.
func (m *Metrics) ImplementationModerated(status string) {
	m.implementationsModerated.WithLabelValues(status).Inc()
}

func (m *Metrics) CommentPosted(parent string) {
	m.commentsPosted.WithLabelValues(parent).Inc()
}

// BotMessage counts one handled chat message.
func (m *Metrics) BotMessage(command, outcome string) {
	m.botMessages.WithLabelValues(command, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
