// Package metrics holds the prometheus collectors of the workspace service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tonide"

type Metrics struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	buildFiles    prometheus.Histogram
	imports       *prometheus.CounterVec
	importedNodes prometheus.Counter
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Builds by result (ok, compile_error, error).",
		}, []string{"result"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time from resolution start to persisted build output.",
			Buckets:   prometheus.DefBuckets,
		}),
		buildFiles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_closure_files",
			Help:      "Number of files in the resolved compile unit.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_creations_total",
			Help:      "Created projects by template.",
		}, []string{"template"}),
		importedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_nodes_total",
			Help:      "Tree nodes created from uploaded archives.",
		}),
	}
	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	m.requestTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route"})
	if reg != nil {
		reg.MustRegister(m.builds, m.buildDuration, m.buildFiles, m.imports, m.importedNodes, m.requests, m.requestTime)
	}
	return m
}

func (m *Metrics) ObserveBuild(result string, files int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(elapsed.Seconds())
	if files > 0 {
		m.buildFiles.Observe(float64(files))
	}
}

func (m *Metrics) ObserveProjectCreated(template string, importedNodes int) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(template).Inc()
	if importedNodes > 0 {
		m.importedNodes.Add(float64(importedNodes))
	}
}

// ObserveRequest records one served HTTP request. route must come from a
// fixed set (procedure names, static paths) to keep label cardinality low.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(route).Observe(elapsed.Seconds())
}
