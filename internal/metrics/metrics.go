package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	providerReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendplanner",
			Name:      "provider_requests_total",
			Help:      "Total structuring provider requests by provider, model and result",
		},
		[]string{"provider", "model", "result"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "attendplanner",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of structuring provider requests by provider and model",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "model"},
	)

	breakerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendplanner",
			Name:      "breaker_events_total",
			Help:      "Circuit breaker events by provider, model and action",
		},
		[]string{"provider", "model", "action"},
	)

	structuringOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendplanner",
			Name:      "structuring_outcomes_total",
			Help:      "Structured attendance results by source (ai, fallback) and fallback reason",
		},
		[]string{"source", "reason"},
	)

	tokensRecognized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attendplanner",
			Name:      "ocr_tokens_total",
			Help:      "Tokens returned by the recognizer across all variants",
		},
	)

	recordsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendplanner",
			Name:      "records_extracted_total",
			Help:      "Attendance records produced, by source",
		},
		[]string{"source"},
	)

	plans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attendplanner",
			Name:      "plans_total",
			Help:      "Skip plan calculations by result",
		},
		[]string{"result"},
	)

	analyzeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "attendplanner",
			Name:      "analyze_duration_seconds",
			Help:      "End-to-end duration of screenshot analysis",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
	)

	registerOnce sync.Once
)

// Init registers collectors.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(providerReqs, providerLatency, breakerEvents, structuringOutcomes,
			tokensRecognized, recordsExtracted, plans, analyzeLatency)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
	providerReqs.WithLabelValues(provider, model, result).Inc()
	providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

func BreakerOpened(provider, model string) { breakerEvents.WithLabelValues(provider, model, "opened").Inc() }
func BreakerClosed(provider, model string) { breakerEvents.WithLabelValues(provider, model, "closed").Inc() }

func IncStructuring(source, reason string) { structuringOutcomes.WithLabelValues(source, reason).Inc() }
func AddTokens(n int)                      { tokensRecognized.Add(float64(n)) }
func AddRecords(source string, n int)      { recordsExtracted.WithLabelValues(source).Add(float64(n)) }
func IncPlan(result string)                { plans.WithLabelValues(result).Inc() }
func ObserveAnalyze(dur time.Duration)     { analyzeLatency.Observe(dur.Seconds()) }
