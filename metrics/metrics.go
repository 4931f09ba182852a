// Package metrics provides Prometheus metrics for the HTTP server and the case engine.
//
// HTTP metrics are recorded by the Metrics middleware. Engine metrics are recorded by
// the session store, the handlers and the knowledge reload job:
//   - questions_categorized_total: learner questions by topic and specificity
//   - followup_prompts_total: follow-up prompts fired, by topic
//   - submit_nudges_total: on-submit suggestions returned, by topic
//   - hints_revealed_total: hints opened by learners, by topic
//   - case_enhancements_total: case variants enhanced
//   - active_sessions: learner sessions currently held
//   - knowledge_reloads_total: knowledge reload attempts by outcome
//
// All metrics are registered with the Prometheus default registry during package
// initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	QuestionsCategorized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questions_categorized_total",
			Help: "Learner questions categorized, by topic and specificity",
		},
		[]string{"topic", "specificity"},
	)

	FollowUpPrompts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "followup_prompts_total",
			Help: "Follow-up prompts fired",
		},
		[]string{"topic"},
	)

	SubmitNudges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submit_nudges_total",
			Help: "On-submit follow-up suggestions returned",
		},
		[]string{"topic"},
	)

	HintsRevealed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hints_revealed_total",
			Help: "Follow-up hints revealed by learners",
		},
		[]string{"topic"},
	)

	CaseEnhancements = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "case_enhancements_total",
			Help: "Case variants enhanced",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Learner sessions currently held in memory",
		},
	)

	KnowledgeReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_reloads_total",
			Help: "Knowledge table reload attempts",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(QuestionsCategorized)
	prometheus.MustRegister(FollowUpPrompts)
	prometheus.MustRegister(SubmitNudges)
	prometheus.MustRegister(HintsRevealed)
	prometheus.MustRegister(CaseEnhancements)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(KnowledgeReloads)
}

// Specificity returns the specificity label of a categorized question
func Specificity(general bool) string {
	if general {
		return "general"
	}
	return "specific"
}
