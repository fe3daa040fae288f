// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tryangel"

var (
	// RequestsTotal counts HTTP requests.
	// Labels: method, route, status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration tracks HTTP latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RateLimitedTotal counts /speak requests rejected by the per-user limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the per-user rate limiter",
		},
	)

	// RepliesTotal counts replies by the source that produced them.
	// Labels: source (joke, tip, reassurance, llm, template)
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "companion",
			Name:      "replies_total",
			Help:      "Total replies by source",
		},
		[]string{"source"},
	)

	// SpeechSynthesisTotal counts TTS calls.
	// Labels: result (success, error, disabled)
	SpeechSynthesisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "companion",
			Name:      "speech_synthesis_total",
			Help:      "Total speech synthesis attempts by result",
		},
		[]string{"result"},
	)

	// FeedbackTotal counts recorded feedback by polarity.
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "feedback_total",
			Help:      "Total feedback records by polarity",
		},
		[]string{"polarity"},
	)

	// AtRiskUsers is the number of users above the alert threshold at the last sweep.
	AtRiskUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "at_risk_users",
			Help:      "Users whose dropout risk exceeded the alert threshold at the last sweep",
		},
	)

	// RiskSweepDuration tracks how long a risk sweep takes.
	RiskSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "risk_sweep_duration_seconds",
			Help:      "Duration of dropout risk sweeps in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RiskSweepTotal counts sweeps.
	// Labels: result (success, error)
	RiskSweepTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "risk_sweeps_total",
			Help:      "Total dropout risk sweeps by result",
		},
		[]string{"result"},
	)
)

// RecordReply counts a reply produced by source.
func RecordReply(source string) {
	RepliesTotal.WithLabelValues(source).Inc()
}

// RecordSpeech counts a synthesis attempt.
func RecordSpeech(result string) {
	SpeechSynthesisTotal.WithLabelValues(result).Inc()
}

// RecordFeedback counts a feedback record by polarity.
func RecordFeedback(polarity string) {
	FeedbackTotal.WithLabelValues(polarity).Inc()
}

// RecordSweep records the outcome of a risk sweep.
func RecordSweep(success bool, atRisk int, elapsed time.Duration) {
	RiskSweepDuration.Observe(elapsed.Seconds())
	if !success {
		RiskSweepTotal.WithLabelValues("error").Inc()
		return
	}
	RiskSweepTotal.WithLabelValues("success").Inc()
	AtRiskUsers.Set(float64(atRisk))
}

// Middleware records request counts and latency per route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			RequestsTotal.WithLabelValues(method, route, status).Inc()
			RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
