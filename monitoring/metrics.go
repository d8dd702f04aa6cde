package monitoring

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"premiumcalc/ml"
)

// Quote outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeInputError     = "input_error"
	OutcomeInferenceError = "inference_error"
)

// Metrics holds the Prometheus collectors of one server. Each instance owns
// its registry so tests can build as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	quotes          *prometheus.CounterVec
	quoteLatency    prometheus.Histogram
	cacheHits       prometheus.Counter
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	artifactChanges prometheus.Counter
}

// NewMetrics registers all collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "premiumcalc",
			Name:      "quotes_total",
			Help:      "Premium quotes by garaging location and outcome.",
		}, []string{"location", "outcome"}),
		quoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "premiumcalc",
			Name:      "quote_duration_seconds",
			Help:      "Time spent encoding, predicting and converting one quote.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "premiumcalc",
			Name:      "quote_cache_hits_total",
			Help:      "Quotes answered from the in-memory result cache.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "premiumcalc",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "premiumcalc",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		artifactChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "premiumcalc",
			Name:      "model_artifact_changes_total",
			Help:      "Changes to the model artifact seen since the model was loaded.",
		}),
	}
	m.registry.MustRegister(
		m.quotes,
		m.quoteLatency,
		m.cacheHits,
		m.requests,
		m.requestLatency,
		m.artifactChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveQuote(location string, elapsed time.Duration, err error) {
	if location == "" {
		location = "invalid"
	}
	m.quotes.WithLabelValues(location, Outcome(err)).Inc()
	if err == nil {
		m.quoteLatency.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveCacheHit() {
	m.cacheHits.Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveArtifactChange() {
	m.artifactChanges.Inc()
}

// Outcome classifies a quote error for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ml.ErrInvalidLocation), errors.Is(err, ml.ErrOutOfRange):
		return OutcomeInputError
	default:
		return OutcomeInferenceError
	}
}
