// Package metrics exposes Prometheus counters for stream and API activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "consultant"

// Event sources
const (
	SourcePoll = "poll"
	SourcePush = "push"
)

type Metrics struct {
	registry *prometheus.Registry

	EventsReceived  *prometheus.CounterVec
	EventDuplicates prometheus.Counter
	Reconnects      prometheus.Counter
	ParseFailures   prometheus.Counter
	APIRequests     *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_received_total",
			Help:      "Events received, by source.",
		}, []string{"source"}),
		EventDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "event_duplicates_total",
			Help:      "Events dropped or merged because their id was already seen.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Event stream reconnect attempts.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "parse_failures_total",
			Help:      "Stream frames that did not match the event schema.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend requests, by method and status code.",
		}, []string{"method", "code"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Upload attempts, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.EventsReceived,
		m.EventDuplicates,
		m.Reconnects,
		m.ParseFailures,
		m.APIRequests,
		m.Uploads,
	)
	return m
}

func (m *Metrics) ObserveEvent(source string, duplicate bool) {
	if m == nil {
		return
	}
	m.EventsReceived.WithLabelValues(source).Inc()
	if duplicate {
		m.EventDuplicates.Inc()
	}
}

func (m *Metrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.Reconnects.Inc()
}

func (m *Metrics) ObserveParseFailure() {
	if m == nil {
		return
	}
	m.ParseFailures.Inc()
}

func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result).Inc()
}

// InstrumentTransport counts requests made through next
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.APIRequests, next)
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
