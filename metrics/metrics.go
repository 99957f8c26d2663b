// path: metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the service.
type Metrics struct {
	Submissions       *prometheus.CounterVec
	SoldiersDetected  prometheus.Counter
	RAGQueries        *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
	LLMDuration       *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers and returns the service metrics.
func New(serviceName string) *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "submissions_total",
				Help:      "Image submissions by outcome",
			},
			[]string{"outcome"}, // detected, no_detection, invalid, detection_failed, persistence_failed, timeout
		),
		SoldiersDetected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "soldiers_detected_total",
				Help:      "Total camouflaged soldiers counted across reports",
			},
		),
		RAGQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "rag_queries_total",
				Help:      "Moraqib queries by outcome",
			},
			[]string{"outcome"}, // answered, no_data, error
		),
		InferenceDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "inference_duration_seconds",
				Help:      "Segmentation model latency",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		LLMDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "llm_request_duration_seconds",
				Help:      "Gemini request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"}, // analyze, generate
		),
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mirqab",
				Subsystem: serviceName,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveInference records one model run.
func (m *Metrics) ObserveInference(d time.Duration) {
	if m == nil {
		return
	}
	m.InferenceDuration.Observe(d.Seconds())
}

// ObserveLLM records one Gemini round trip.
func (m *Metrics) ObserveLLM(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.LLMDuration.WithLabelValues(op).Observe(d.Seconds())
}

// CountSubmission bumps the submission outcome counter.
func (m *Metrics) CountSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// CountSoldiers adds n to the running soldier total.
func (m *Metrics) CountSoldiers(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SoldiersDetected.Add(float64(n))
}

// CountRAG bumps the Moraqib outcome counter.
func (m *Metrics) CountRAG(outcome string) {
	if m == nil {
		return
	}
	m.RAGQueries.WithLabelValues(outcome).Inc()
}
