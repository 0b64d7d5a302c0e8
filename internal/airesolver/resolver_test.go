// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package airesolver

import (
	"context"
	"errors"
	"testing"

	"github.com/dedupecore/eventdedupe/internal/aicache"
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/models"
)

type fakeClient struct {
	resp Response
	err  error
	n    int
}

func (f *fakeClient) Resolve(ctx context.Context, req PairContext) (Response, error) {
	f.n++
	return f.resp, f.err
}

func testConfig() config.AIConfig {
	return config.AIConfig{
		Enabled:                    true,
		Model:                      "test-model",
		MaxConcurrentRequests:      4,
		RequestsPerSecond:          1000,
		ConfidenceThreshold:        0.70,
		MinCombinedScore:           0.35,
		MaxCombinedScore:           0.75,
		CacheEnabled:               true,
		CostPerMillionInputTokens:  1.0,
		CostPerMillionOutputTokens: 2.0,
		CircuitBreakerMaxFailures:  2,
	}
}

func pair() (*models.SourceEvent, *models.SourceEvent, models.MatchDecision) {
	a := &models.SourceEvent{ID: "a1", Title: models.TextField{Normalized: "frühlingsfest"}}
	b := &models.SourceEvent{ID: "b1", Title: models.TextField{Normalized: "frühlingsfest am markt"}}
	return a, b, models.MatchDecision{IDA: "a1", IDB: "b1", Decision: models.DecisionAmbiguous, Tier: models.TierDeterministic}
}

func TestResolve_HighConfidenceSameMapsToMatch(t *testing.T) {
	client := &fakeClient{resp: Response{Decision: models.AIDecisionSame, Confidence: 0.9, TokensIn: 100, TokensOut: 20}}
	r := New(client, nil, nil, testConfig())
	a, b, decision := pair()

	out, ledger := r.Resolve(context.Background(), "batch1", a, b, decision)
	if out.Decision != models.DecisionMatch {
		t.Fatalf("expected match, got %v", out.Decision)
	}
	if out.Tier != models.TierAI {
		t.Fatalf("expected ai tier, got %v", out.Tier)
	}
	if ledger.TokensIn != 100 || ledger.TokensOut != 20 {
		t.Fatalf("unexpected ledger token counts: %+v", ledger)
	}
	if ledger.EstimatedCost <= 0 {
		t.Fatalf("expected positive estimated cost, got %v", ledger.EstimatedCost)
	}
}

func TestResolve_HighConfidenceDifferentMapsToNoMatch(t *testing.T) {
	client := &fakeClient{resp: Response{Decision: models.AIDecisionDifferent, Confidence: 0.95}}
	r := New(client, nil, nil, testConfig())
	a, b, decision := pair()

	out, _ := r.Resolve(context.Background(), "batch1", a, b, decision)
	if out.Decision != models.DecisionNoMatch {
		t.Fatalf("expected no_match, got %v", out.Decision)
	}
}

func TestResolve_LowConfidenceStaysAmbiguous(t *testing.T) {
	client := &fakeClient{resp: Response{Decision: models.AIDecisionSame, Confidence: 0.3}}
	r := New(client, nil, nil, testConfig())
	a, b, decision := pair()

	out, _ := r.Resolve(context.Background(), "batch1", a, b, decision)
	if out.Decision != models.DecisionAmbiguous {
		t.Fatalf("expected ambiguous, got %v", out.Decision)
	}
	if out.Tier != models.TierAILowConfidence {
		t.Fatalf("expected ai_low_confidence tier, got %v", out.Tier)
	}
}

func TestResolve_TransportFailureStaysAmbiguousWithUnexpectedTier(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	r := New(client, nil, nil, testConfig())
	a, b, decision := pair()

	out, _ := r.Resolve(context.Background(), "batch1", a, b, decision)
	if out.Decision != models.DecisionAmbiguous {
		t.Fatalf("expected decision to remain ambiguous, got %v", out.Decision)
	}
	if out.Tier != models.TierAIUnexpected {
		t.Fatalf("expected ai_unexpected tier, got %v", out.Tier)
	}
}

func TestResolve_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	r := New(client, nil, nil, testConfig())
	a, b, decision := pair()
	ctx := context.Background()

	r.Resolve(ctx, "batch1", a, b, decision)
	r.Resolve(ctx, "batch1", a, b, decision)

	callsBefore := client.n
	out, _ := r.Resolve(ctx, "batch1", a, b, decision)
	if client.n != callsBefore {
		t.Fatalf("expected circuit open to short-circuit the client call")
	}
	if out.Tier != models.TierAIUnexpected {
		t.Fatalf("expected ai_unexpected tier while circuit open, got %v", out.Tier)
	}
}

func TestResolve_CacheHitAvoidsClientCall(t *testing.T) {
	cache, err := aicache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	a, b, decision := pair()
	hash := ContentHash(a, b)
	if err := cache.Put(models.AIResolutionCacheEntry{
		ContentHash: hash,
		Decision:    models.AIDecisionSame,
		Confidence:  0.9,
		ModelID:     "test-model",
	}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	client := &fakeClient{resp: Response{Decision: models.AIDecisionDifferent, Confidence: 0.99}}
	r := New(client, cache, nil, testConfig())

	out, ledger := r.Resolve(context.Background(), "batch1", a, b, decision)
	if client.n != 0 {
		t.Fatalf("expected cache hit to avoid calling the client, got %d calls", client.n)
	}
	if !ledger.CacheHit {
		t.Fatalf("expected ledger to record a cache hit")
	}
	if out.Decision != models.DecisionMatch {
		t.Fatalf("expected cached 'same' verdict to map to match, got %v", out.Decision)
	}
}

type fakeSQLCache struct {
	entries map[string]models.AIResolutionCacheEntry
	gets    int
	puts    int
}

func newFakeSQLCache() *fakeSQLCache {
	return &fakeSQLCache{entries: make(map[string]models.AIResolutionCacheEntry)}
}

func (f *fakeSQLCache) GetAIMatchCache(ctx context.Context, contentHash, modelID string) (models.AIResolutionCacheEntry, error) {
	f.gets++
	entry, ok := f.entries[contentHash]
	if !ok || entry.ModelID != modelID {
		return models.AIResolutionCacheEntry{}, errors.New("not found")
	}
	return entry, nil
}

func (f *fakeSQLCache) UpsertAIMatchCache(ctx context.Context, entry models.AIResolutionCacheEntry) error {
	f.puts++
	f.entries[entry.ContentHash] = entry
	return nil
}

func TestResolve_SQLCacheHitBackfillsBadgerFront(t *testing.T) {
	badger, err := aicache.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { badger.Close() })

	a, b, decision := pair()
	hash := ContentHash(a, b)
	sqlCache := newFakeSQLCache()
	sqlCache.entries[hash] = models.AIResolutionCacheEntry{
		ContentHash: hash,
		Decision:    models.AIDecisionSame,
		Confidence:  0.9,
		ModelID:     "test-model",
	}

	client := &fakeClient{resp: Response{Decision: models.AIDecisionDifferent, Confidence: 0.99}}
	r := New(client, badger, sqlCache, testConfig())

	out, ledger := r.Resolve(context.Background(), "batch1", a, b, decision)
	if client.n != 0 {
		t.Fatalf("expected sql cache hit to avoid calling the client, got %d calls", client.n)
	}
	if !ledger.CacheHit {
		t.Fatalf("expected ledger to record a cache hit")
	}
	if out.Decision != models.DecisionMatch {
		t.Fatalf("expected cached 'same' verdict to map to match, got %v", out.Decision)
	}
	if sqlCache.gets != 1 {
		t.Fatalf("expected exactly one sql cache lookup, got %d", sqlCache.gets)
	}

	if _, err := badger.Get(hash, "test-model"); err != nil {
		t.Fatalf("expected sql cache hit to backfill the badger front, got error: %v", err)
	}
}

func TestResolve_FreshResolutionWritesThroughToSQLCache(t *testing.T) {
	a, b, decision := pair()
	hash := ContentHash(a, b)
	sqlCache := newFakeSQLCache()

	client := &fakeClient{resp: Response{Decision: models.AIDecisionSame, Confidence: 0.9}}
	r := New(client, nil, sqlCache, testConfig())

	r.Resolve(context.Background(), "batch1", a, b, decision)

	if sqlCache.puts != 1 {
		t.Fatalf("expected exactly one sql cache write-through, got %d", sqlCache.puts)
	}
	entry, ok := sqlCache.entries[hash]
	if !ok {
		t.Fatalf("expected sql cache to contain an entry for the resolved pair")
	}
	if entry.Decision != models.AIDecisionSame || entry.ModelID != "test-model" {
		t.Fatalf("unexpected sql cache entry: %+v", entry)
	}
}

func TestContentHash_OrderIndependent(t *testing.T) {
	a, b, _ := pair()
	if ContentHash(a, b) != ContentHash(b, a) {
		t.Fatalf("expected content hash to be independent of argument order")
	}
}

func TestInBand(t *testing.T) {
	cfg := testConfig()
	if !InBand(0.5, cfg) {
		t.Fatalf("expected 0.5 to be in band [%v,%v]", cfg.MinCombinedScore, cfg.MaxCombinedScore)
	}
	if InBand(0.1, cfg) {
		t.Fatalf("expected 0.1 to be outside the inner band")
	}
}
