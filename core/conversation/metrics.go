package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	questionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palmistry_followup_questions_total",
			Help: "Follow-up questions by outcome",
		},
		[]string{"result"},
	)

	policyRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "palmistry_content_policy_rejections_total",
			Help: "Follow-up questions rejected by the content policy",
		},
		[]string{"reason"},
	)

	llmTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "palmistry_llm_tokens_total",
			Help: "Tokens consumed by follow-up completions",
		},
	)

	llmDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "palmistry_llm_request_duration_seconds",
			Help:    "Follow-up completion latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
)
