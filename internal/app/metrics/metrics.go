// Package metrics exposes Prometheus collectors for transcription work. One
// Metrics instance is shared by the batch processor and the HTTP server so
// a single scrape endpoint covers both.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"green-needle/internal/app/batch"
	"green-needle/internal/app/model"
)

const namespace = "green_needle"

type Metrics struct {
	registry *prometheus.Registry

	filesTotal   *prometheus.CounterVec
	fileSeconds  prometheus.Histogram
	audioSeconds prometheus.Counter

	requestsTotal  *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
}

var _ batch.MetricsSink = (*Metrics)(nil)

// New builds a registry with process, Go runtime and transcription
// collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		filesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Processed files by outcome.",
		}, []string{"status"}),
		fileSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_processing_seconds",
			Help:      "Wall time spent per file.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		audioSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Seconds of audio transcribed.",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveFile records one finished batch input.
func (m *Metrics) ObserveFile(status model.FileStatus, elapsed time.Duration, audioSeconds float64) {
	m.filesTotal.WithLabelValues(string(status)).Inc()
	m.fileSeconds.Observe(elapsed.Seconds())
	if audioSeconds > 0 {
		m.audioSeconds.Add(audioSeconds)
	}
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
