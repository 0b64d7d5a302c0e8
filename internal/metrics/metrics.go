// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Pipeline Observability
// This package instruments every stage of a matching run:
// - Candidate-pair generation volume
// - Combiner decisions by tier and outcome
// - Cluster size distribution and coherence flags
// - AI resolver cache hit ratio, token usage, and cost
// - Persistence-transaction duration

var (
	// Candidate Generation Metrics
	CandidatePairsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventdedupe_candidate_pairs_generated_total",
			Help: "Total number of candidate pairs emitted by the blocking stage",
		},
	)

	BlockingBucketSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventdedupe_blocking_bucket_size",
			Help:    "Number of source events sharing a blocking key",
			Buckets: []float64{2, 3, 5, 10, 25, 50, 100},
		},
	)

	// Combiner / Decision Metrics
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdedupe_decisions_total",
			Help: "Total number of MatchDecision records by decision and tier",
		},
		[]string{"decision", "tier"}, // decision: match|ambiguous|no_match; tier: deterministic|ai|ai_low_confidence|ai_unexpected
	)

	CombinedScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventdedupe_combined_score",
			Help:    "Distribution of combined scores across all evaluated pairs",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.35, 0.45, 0.55, 0.65, 0.75, 0.85, 1.0},
		},
	)

	// AI Resolver Metrics
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdedupe_ai_requests_total",
			Help: "Total number of AI resolver invocations by outcome",
		},
		[]string{"outcome"}, // outcome: success|transport_error|schema_error|low_confidence|circuit_open
	)

	AICacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventdedupe_ai_cache_hits_total",
			Help: "Total number of AI resolver cache hits keyed by pair content hash",
		},
	)

	AICacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventdedupe_ai_cache_misses_total",
			Help: "Total number of AI resolver cache misses",
		},
	)

	AITokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdedupe_ai_tokens_total",
			Help: "Total number of LLM tokens consumed",
		},
		[]string{"direction"}, // direction: input|output
	)

	AIEstimatedCostTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventdedupe_ai_estimated_cost_usd_total",
			Help: "Running estimate of AI resolver spend in USD",
		},
	)

	AICircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventdedupe_ai_circuit_breaker_state",
			Help: "AI resolver circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Cluster Metrics
	ClusterSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventdedupe_cluster_size",
			Help:    "Number of source events per canonical cluster",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15},
		},
	)

	ClustersFlaggedForReview = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventdedupe_clusters_flagged_for_review_total",
			Help: "Total number of clusters failing a coherence check",
		},
	)

	// Persistence Metrics
	PersistenceTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventdedupe_persistence_transaction_duration_seconds",
			Help:    "Duration of the clear-and-replace persistence transaction",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // outcome: committed|rolled_back
	)

	CanonicalEventsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventdedupe_canonical_events_written_total",
			Help: "Total number of canonical events written in the most recent run",
		},
	)

	// Pipeline Run Metrics
	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventdedupe_pipeline_run_duration_seconds",
			Help:    "End-to-end duration of a process_batch run",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventdedupe_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"}, // outcome: success|config_error|storage_error|persistence_error
	)
)

// RecordDecision records a single MatchDecision's outcome and score.
func RecordDecision(decision, tier string, combined float64) {
	DecisionsTotal.WithLabelValues(decision, tier).Inc()
	CombinedScore.Observe(combined)
}

// RecordAIRequest records the outcome of one AI resolver invocation.
func RecordAIRequest(outcome string, cacheHit bool, tokensIn, tokensOut int, estimatedCost float64) {
	AIRequestsTotal.WithLabelValues(outcome).Inc()
	if cacheHit {
		AICacheHits.Inc()
	} else {
		AICacheMisses.Inc()
	}
	AITokensTotal.WithLabelValues("input").Add(float64(tokensIn))
	AITokensTotal.WithLabelValues("output").Add(float64(tokensOut))
	AIEstimatedCostTotal.Add(estimatedCost)
}

// RecordCluster records the size of a produced cluster and whether it was
// flagged for review during coherence validation.
func RecordCluster(size int, flagged bool) {
	ClusterSize.Observe(float64(size))
	if flagged {
		ClustersFlaggedForReview.Inc()
	}
}

// RecordPersistenceTransaction records the duration of the clear-and-replace
// transaction and how many canonical events it wrote, if it committed.
func RecordPersistenceTransaction(duration time.Duration, committed bool, canonicalCount int) {
	outcome := "committed"
	if !committed {
		outcome = "rolled_back"
	}
	PersistenceTransactionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if committed {
		CanonicalEventsWritten.Add(float64(canonicalCount))
	}
}

// RecordPipelineRun records the end-to-end duration and outcome of a run.
func RecordPipelineRun(duration time.Duration, outcome string) {
	PipelineRunDuration.Observe(duration.Seconds())
	PipelineRunsTotal.WithLabelValues(outcome).Inc()
}
