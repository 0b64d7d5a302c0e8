// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package airesolver arbitrates ambiguous pairwise decisions through an
// external LLM collaborator. Callers gate concurrent calls through a
// bounded pool; the resolver itself caches resolutions by content hash
// (internal/aicache, backed by internal/store's table of record) and trips
// a circuit breaker on sustained transport failure rather than hammering a
// degraded collaborator.
package airesolver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/dedupecore/eventdedupe/internal/aicache"
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/logging"
	"github.com/dedupecore/eventdedupe/internal/metrics"
	"github.com/dedupecore/eventdedupe/internal/models"
)

// PairContext is the structured request sent to the LLM collaborator: the
// two events' matching-relevant fields, their source types, and the four
// deterministic signal scores.
type PairContext struct {
	TitleA, TitleB             string
	DescriptionA, DescriptionB string
	LocationA, LocationB       string
	SourceTypeA, SourceTypeB   models.SourceType
	Scores                     models.SignalScores
}

// Response is the LLM collaborator's structured verdict.
type Response struct {
	Decision   models.AIDecision
	Confidence float64
	Reasoning  string
	TokensIn   int
	TokensOut  int
}

// LLMClient is the contract with the external LLM collaborator.
// Implementations are expected to manage their own retries on 429/5xx;
// the resolver issues exactly one call per cache miss.
type LLMClient interface {
	Resolve(ctx context.Context, req PairContext) (Response, error)
}

// MatchCacheStore is the DuckDB-backed table of record for AI resolutions,
// keyed by content hash. internal/aicache's BadgerDB instance is a hot
// front over this store: a miss there falls through to MatchCacheStore
// before the LLM is called, and every fresh resolution is written through
// to both. Implemented by internal/store.Store.
type MatchCacheStore interface {
	GetAIMatchCache(ctx context.Context, contentHash, modelID string) (models.AIResolutionCacheEntry, error)
	UpsertAIMatchCache(ctx context.Context, entry models.AIResolutionCacheEntry) error
}

// Resolver arbitrates ambiguous candidate pairs through an LLMClient.
type Resolver struct {
	client   LLMClient
	cache    *aicache.Cache
	sqlCache MatchCacheStore
	cfg      config.AIConfig
	modelID  string
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[Response]
}

// New constructs a Resolver. cache and sqlCache may each be nil: a nil cache
// disables the Badger hot front, and a nil sqlCache disables write-through
// to the DuckDB table of record (ai.cache_enabled=false disables both).
func New(client LLMClient, cache *aicache.Cache, sqlCache MatchCacheStore, cfg config.AIConfig) *Resolver {
	return &Resolver{
		client:   client,
		cache:    cache,
		sqlCache: sqlCache,
		cfg:      cfg,
		modelID:  cfg.Model,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.MaxConcurrentRequests),
		breaker: newCircuitBreaker(CircuitBreakerConfig{
			Name:             "airesolver",
			MaxRequests:      1,
			FailureThreshold: cfg.CircuitBreakerMaxFailures,
			Timeout:          cfg.CircuitBreakerOpenTimeout,
		}),
	}
}

// CircuitState reports the resolver's current circuit breaker state for
// the eventdedupe_ai_circuit_breaker_state gauge.
func (r *Resolver) CircuitState() float64 {
	return breakerState(r.breaker)
}

// Resolve arbitrates one ambiguous pair, updating decision in place with
// the AI tier/decision outcome, and returns a ledger entry recording the
// call's cost for append to the AI usage ledger.
func (r *Resolver) Resolve(ctx context.Context, batchID string, a, b *models.SourceEvent, decision models.MatchDecision) (models.MatchDecision, models.AIUsageLedgerEntry) {
	contentHash := ContentHash(a, b)
	log := logging.LoggerFromContext(ctx)

	ledger := models.AIUsageLedgerEntry{
		BatchID: batchID,
		IDA:     decision.IDA,
		IDB:     decision.IDB,
	}

	if r.cfg.CacheEnabled {
		if entry, ok := r.lookupCache(ctx, contentHash, log); ok {
			ledger.CacheHit = true
			metrics.RecordAIRequest("success", true, 0, 0, 0)
			return applyVerdict(decision, Response{
				Decision:   entry.Decision,
				Confidence: entry.Confidence,
				Reasoning:  entry.Reasoning,
			}, r.cfg.ConfidenceThreshold), ledger
		}
	}

	req := PairContext{
		TitleA: a.Title.Normalized, TitleB: b.Title.Normalized,
		DescriptionA: bestDescription(a), DescriptionB: bestDescription(b),
		LocationA: a.Location.City, LocationB: b.Location.City,
		SourceTypeA: a.SourceType, SourceTypeB: b.SourceType,
		Scores: decision.Scores,
	}

	if err := r.limiter.Wait(ctx); err != nil {
		metrics.RecordAIRequest("transport_error", false, 0, 0, 0)
		decision.Tier = models.TierAIUnexpected
		log.Warn().Err(err).Str("content_hash", contentHash).Msg("ai resolver rate limiter wait failed")
		return decision, ledger
	}

	resp, err := r.breaker.Execute(func() (Response, error) {
		return r.client.Resolve(ctx, req)
	})

	if err != nil {
		outcome := "transport_error"
		if errors.Is(err, gobreaker.ErrOpenState) {
			outcome = "circuit_open"
		}
		metrics.RecordAIRequest(outcome, false, 0, 0, 0)
		decision.Tier = models.TierAIUnexpected
		log.Warn().Err(err).Str("content_hash", contentHash).Str("outcome", outcome).Msg("ai resolver call failed")
		return decision, ledger
	}

	ledger.TokensIn = resp.TokensIn
	ledger.TokensOut = resp.TokensOut
	ledger.EstimatedCost = estimateCost(resp.TokensIn, resp.TokensOut, r.cfg)

	metrics.RecordAIRequest("success", false, resp.TokensIn, resp.TokensOut, ledger.EstimatedCost)

	if r.cfg.CacheEnabled {
		entry := models.AIResolutionCacheEntry{
			ContentHash: contentHash,
			Decision:    resp.Decision,
			Confidence:  resp.Confidence,
			Reasoning:   resp.Reasoning,
			ModelID:     r.modelID,
		}
		if r.cache != nil {
			if cacheErr := r.cache.Put(entry); cacheErr != nil {
				log.Warn().Err(cacheErr).Str("content_hash", contentHash).Msg("failed to persist ai resolution to cache")
			}
		}
		if r.sqlCache != nil {
			if sqlErr := r.sqlCache.UpsertAIMatchCache(ctx, entry); sqlErr != nil {
				log.Warn().Err(sqlErr).Str("content_hash", contentHash).Msg("failed to write ai resolution through to table of record")
			}
		}
	}

	return applyVerdict(decision, resp, r.cfg.ConfidenceThreshold), ledger
}

// lookupCache checks the Badger hot front first, falling through to the
// DuckDB table of record on a miss there (or when Badger is disabled). A
// sqlCache hit is backfilled into the Badger front so the next lookup for
// the same pair avoids the DuckDB round trip.
func (r *Resolver) lookupCache(ctx context.Context, contentHash string, log zerolog.Logger) (models.AIResolutionCacheEntry, bool) {
	if r.cache != nil {
		entry, err := r.cache.Get(contentHash, r.modelID)
		if err == nil {
			return entry, true
		}
		if !errors.Is(err, aicache.ErrNotFound) {
			log.Warn().Err(err).Str("content_hash", contentHash).Msg("ai cache lookup failed, treating as miss")
		}
	}

	if r.sqlCache == nil {
		return models.AIResolutionCacheEntry{}, false
	}
	entry, err := r.sqlCache.GetAIMatchCache(ctx, contentHash, r.modelID)
	if err != nil {
		return models.AIResolutionCacheEntry{}, false
	}
	if r.cache != nil {
		if putErr := r.cache.Put(entry); putErr != nil {
			log.Warn().Err(putErr).Str("content_hash", contentHash).Msg("failed to backfill ai cache from table of record")
		}
	}
	return entry, true
}

// applyVerdict maps an LLM response onto a decision: below the confidence
// threshold the pair stays ambiguous with an ai_low_confidence tier;
// otherwise the reported same/different verdict resolves it to match or
// no_match.
func applyVerdict(decision models.MatchDecision, resp Response, confidenceThreshold float64) models.MatchDecision {
	if resp.Confidence < confidenceThreshold {
		decision.Tier = models.TierAILowConfidence
		decision.AIReasoning = resp.Reasoning
		return decision
	}

	decision.Tier = models.TierAI
	decision.AIReasoning = resp.Reasoning
	switch resp.Decision {
	case models.AIDecisionSame:
		decision.Decision = models.DecisionMatch
	case models.AIDecisionDifferent:
		decision.Decision = models.DecisionNoMatch
	}
	return decision
}

func estimateCost(tokensIn, tokensOut int, cfg config.AIConfig) float64 {
	const million = 1_000_000
	return float64(tokensIn)/million*cfg.CostPerMillionInputTokens +
		float64(tokensOut)/million*cfg.CostPerMillionOutputTokens
}

func bestDescription(e *models.SourceEvent) string {
	if e.LongDescription != nil && e.LongDescription.Normalized != "" {
		return e.LongDescription.Normalized
	}
	if e.ShortDescription != nil {
		return e.ShortDescription.Normalized
	}
	return ""
}

// InBand reports whether combined lies in the AI resolver's configurable
// inner ambiguous band: the outer ambiguous band is reserved for human
// review and never reaches the resolver.
func InBand(combined float64, cfg config.AIConfig) bool {
	return combined >= cfg.MinCombinedScore && combined <= cfg.MaxCombinedScore
}
