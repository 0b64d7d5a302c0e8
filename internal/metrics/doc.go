// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus instrumentation for a matching pipeline
run. The pipeline already emits a structured log record per stage; this
package gives every stage a concrete observability surface to match.

# Overview

The package exposes metrics for:
  - Candidate-pair generation volume and blocking bucket sizes
  - Combiner decisions by outcome and tier
  - AI resolver cache hit ratio, token usage, cost, and circuit breaker state
  - Cluster size distribution and coherence-review flags
  - Persistence-transaction duration and canonical event counts
  - End-to-end pipeline run duration and outcome

# Metrics Endpoint

A collaborator embedding this package registers metrics.io's default
registry with promhttp:

	http.Handle("/metrics", promhttp.Handler())

# Usage Example

	func runBatch(ctx context.Context, fileIDs []string) error {
	    start := time.Now()
	    result, err := pipeline.ProcessBatch(ctx, fileIDs)
	    outcome := "success"
	    if err != nil {
	        outcome = classifyOutcome(err)
	    }
	    metrics.RecordPipelineRun(time.Since(start), outcome)
	    return err
	}

Recording a combiner decision:

	metrics.RecordDecision(string(decision.Decision), string(decision.Tier), decision.Combined)

Recording an AI resolver call:

	metrics.RecordAIRequest("success", cacheHit, tokensIn, tokensOut, estimatedCost)

# Cardinality Management

Label sets are bounded by construction: decision/tier/outcome are fixed
enums, never free-form strings derived from user input or LLM output.

# Thread Safety

All metric recording functions are thread-safe; the Prometheus client
library handles synchronization internally.
*/
package metrics
