// Package metrics exposes Prometheus collectors for ontology loads, SPARQL
// queries and HTTP requests. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ontoscope"

// Metrics holds the collectors of one process
type Metrics struct {
	registry *prometheus.Registry

	loads         *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	loadedTriples prometheus.Histogram
	queries       *prometheus.CounterVec
	queryDuration prometheus.Histogram
	requests      *prometheus.CounterVec
	reqDuration   *prometheus.HistogramVec
}

// New creates collectors registered on a private registry, together with
// the Go runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ontology_loads_total",
			Help:      "Ontology loads by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ontology_load_duration_seconds",
			Help:      "Time to fetch, decode and index an ontology.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		loadedTriples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ontology_triples",
			Help:      "Distinct triples per loaded ontology.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sparql_queries_total",
			Help:      "SPARQL queries by form and result.",
		}, []string{"form", "result"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sparql_query_duration_seconds",
			Help:      "Time to parse and evaluate a SPARQL query.",
			Buckets:   prometheus.DefBuckets,
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loads, m.loadDuration, m.loadedTriples,
		m.queries, m.queryDuration,
		m.requests, m.reqDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveLoad records one ontology load
func (m *Metrics) ObserveLoad(d time.Duration, triples int, err error) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result(err)).Inc()
	m.loadDuration.Observe(d.Seconds())
	if err == nil {
		m.loadedTriples.Observe(float64(triples))
	}
}

// ObserveQuery records one SPARQL query. form is empty when the query
// did not parse.
func (m *Metrics) ObserveQuery(form string, d time.Duration, err error) {
	if m == nil {
		return
	}
	if form == "" {
		form = "unknown"
	}
	m.queries.WithLabelValues(form, result(err)).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.reqDuration.WithLabelValues(method).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
