// Package metrics exposes Prometheus collectors for generation, persistence
// and HTTP traffic.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records
// nothing, so services can be built without a registry in tests.
type Metrics struct {
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	proposalsGenerated *prometheus.CounterVec
	setSavesTotal      *prometheus.CounterVec
	cardsSavedTotal    prometheus.Counter
	errorLogWrites     *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cards_generations_total",
				Help: "Total number of flashcard generation attempts",
			},
			[]string{"provider", "outcome"}, // outcome: success, validation, api, service_unavailable, configuration, timeout
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cards_generation_duration_seconds",
				Help:    "Time taken by the model call, including response validation",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 11), // 50ms to ~51s
			},
			[]string{"provider"},
		),
		proposalsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cards_proposals_generated_total",
				Help: "Total number of flashcard proposals returned to clients",
			},
			[]string{"provider"},
		),
		setSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cards_set_saves_total",
				Help: "Total number of flashcard set save attempts",
			},
			[]string{"status"}, // status: created, conflict, failed
		),
		cardsSavedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cards_flashcards_saved_total",
				Help: "Total number of flashcards persisted",
			},
		),
		errorLogWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cards_error_log_writes_total",
				Help: "Total number of error log writes",
			},
			[]string{"status"},
		),
		rateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cards_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cards_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cards_http_request_duration_seconds",
				Help:    "Time taken for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.generationsTotal,
		m.generationDuration,
		m.proposalsGenerated,
		m.setSavesTotal,
		m.cardsSavedTotal,
		m.errorLogWrites,
		m.rateLimitedTotal,
		m.httpRequestsTotal,
		m.httpDuration,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordGeneration records one generation attempt.
func (m *Metrics) RecordGeneration(provider, outcome string, seconds float64, proposals int) {
	if m == nil {
		return
	}
	m.generationsTotal.WithLabelValues(provider, outcome).Inc()
	m.generationDuration.WithLabelValues(provider).Observe(seconds)
	if proposals > 0 {
		m.proposalsGenerated.WithLabelValues(provider).Add(float64(proposals))
	}
}

// RecordSetSave records a set creation attempt and, on success, its card count.
func (m *Metrics) RecordSetSave(status string, cards int) {
	if m == nil {
		return
	}
	m.setSavesTotal.WithLabelValues(status).Inc()
	if cards > 0 {
		m.cardsSavedTotal.Add(float64(cards))
	}
}

// RecordErrorLogWrite records the outcome of a best-effort error log insert.
func (m *Metrics) RecordErrorLogWrite(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "error"
	}
	m.errorLogWrites.WithLabelValues(status).Inc()
}

// RecordRateLimited records a rejected request.
func (m *Metrics) RecordRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(route).Inc()
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
