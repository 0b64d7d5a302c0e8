// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline is the driver: it orchestrates normalization through
// persistence for one batch of file ids, exposing a single operation,
// process_batch, realized here as (*Driver).ProcessBatch. Pure with respect
// to the event store except for the clear-and-replace transaction and the
// AI usage ledger append.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dedupecore/eventdedupe/internal/airesolver"
	"github.com/dedupecore/eventdedupe/internal/candidates"
	"github.com/dedupecore/eventdedupe/internal/cluster"
	"github.com/dedupecore/eventdedupe/internal/combiner"
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/logging"
	"github.com/dedupecore/eventdedupe/internal/metrics"
	"github.com/dedupecore/eventdedupe/internal/models"
	"github.com/dedupecore/eventdedupe/internal/scoring"
	"github.com/dedupecore/eventdedupe/internal/store"
	"github.com/dedupecore/eventdedupe/internal/synth"
)

// EventLoader loads the SourceEvent rows persisted by the ingestion
// collaborator for a batch of file ids. That collaborator owns parsing raw
// JSON into SourceEvent rows and persisting them transactionally before
// invoking the pipeline; the driver only reads what it already wrote.
type EventLoader interface {
	LoadEvents(ctx context.Context, fileIDs []string) ([]*models.SourceEvent, error)
}

// PipelineResult is the outcome of one process_batch invocation.
type PipelineResult struct {
	RunID                         string
	MatchCount                    int
	AmbiguousCount                int
	CanonicalCount                int
	FlaggedCount                  int
	CandidatePairReductionPercent float64
	Error                         *PipelineError
}

// Driver owns one pipeline run at a time; exactly one pipeline run may be
// active at a time, enforced by the driver's collaborator.
type Driver struct {
	loader   EventLoader
	store    *store.Store
	resolver *airesolver.Resolver
	cfg      *config.MatchingConfig
	bus      *eventBus
}

// New constructs a Driver. resolver may be nil, which disables AI
// arbitration regardless of cfg.AI.Enabled (e.g. no credential configured).
func New(loader EventLoader, st *store.Store, resolver *airesolver.Resolver, cfg *config.MatchingConfig) *Driver {
	return &Driver{loader: loader, store: st, resolver: resolver, cfg: cfg, bus: newEventBus()}
}

// Close releases the driver's in-process event bus.
func (d *Driver) Close() error {
	return d.bus.Close()
}

// ProcessBatch runs normalization through persistence for one batch of file
// ids and returns a PipelineResult. AI failures are per-pair and never
// abort the run; it returns early with a PipelineError on source-load or
// persistence failure, leaving the previous canonical state intact.
func (d *Driver) ProcessBatch(ctx context.Context, batchFileIDs []string) PipelineResult {
	runID := uuid.NewString()
	ctx = logging.ContextWithCorrelationID(ctx, runID)
	if err := d.bus.startLoggingSink(ctx); err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("stage event logging sink unavailable")
	}

	start := time.Now()
	result := PipelineResult{RunID: runID}

	events, err := d.loader.LoadEvents(ctx, batchFileIDs)
	if err != nil {
		return d.fail(ctx, result, start, ErrStorageRead, "load source events for batch", err)
	}
	d.bus.publishStage(runID, "file_ingested", map[string]interface{}{"file_count": len(batchFileIDs)})

	d.bus.publishStage(runID, "events_loaded", map[string]interface{}{"event_count": len(events)})

	eventByID := make(map[string]*models.SourceEvent, len(events))
	for _, e := range events {
		eventByID[e.ID] = e
	}

	pairs := candidates.Generate(events)
	reductionPercent := candidatePairReduction(len(events), len(pairs))

	decisions, ledgerEntries, matchCount, ambiguousCount := d.scoreAndResolve(ctx, runID, pairs, eventByID)

	clusters := cluster.Build(events, decisions, nil, d.cfg.Cluster)
	groups := make([]store.Group, 0, len(clusters))
	flaggedCount := 0
	for _, c := range clusters {
		metrics.RecordCluster(len(c.Members), !c.Valid)
		if !c.Valid {
			flaggedCount++
			logging.CtxInfo(ctx).Strs("members", c.Members).Msg("cluster coherence violation flagged for review")
		}
		groups = append(groups, store.Group{
			Event:     synth.Synthesize(c, eventByID, decisions, d.cfg.Canonical),
			MemberIDs: c.Members,
		})
	}

	d.bus.publishStage(runID, "matching_complete", map[string]interface{}{
		"match_count":                      matchCount,
		"ambiguous_count":                  ambiguousCount,
		"canonical_count":                  len(groups),
		"flagged_count":                    flaggedCount,
		"candidate_pair_reduction_percent": reductionPercent,
	})

	if err := d.store.RunClearAndReplace(ctx, decisions, groups); err != nil {
		return d.fail(ctx, result, start, ErrPersistenceTransaction, "clear-and-replace transaction", err)
	}

	if len(ledgerEntries) > 0 {
		if err := d.store.AppendAIUsageLedger(ctx, ledgerEntries); err != nil {
			logging.CtxErr(ctx, err).Msg("ai usage ledger append failed, continuing (non-fatal)")
		}
	}

	result.MatchCount = matchCount
	result.AmbiguousCount = ambiguousCount
	result.CanonicalCount = len(groups)
	result.FlaggedCount = flaggedCount
	result.CandidatePairReductionPercent = reductionPercent

	metrics.RecordPipelineRun(time.Since(start), "success")
	d.bus.publishStage(runID, "pipeline_complete", map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})

	return result
}

// scoreAndResolve scores every candidate pair and combines/decides
// sequentially, since that work is CPU-bound, then fans the in-band
// ambiguous pairs out to the AI resolver concurrently under a bounded pool
// sized by ai.max_concurrent_requests. Responses may arrive out of
// submission order; each is written back to its own pair's slot, so the
// decisions slice is reassembled by pair id before clustering regardless of
// completion order.
func (d *Driver) scoreAndResolve(ctx context.Context, runID string, pairs []candidates.Pair, eventByID map[string]*models.SourceEvent) ([]models.MatchDecision, []models.AIUsageLedgerEntry, int, int) {
	decisions := make([]models.MatchDecision, len(pairs))

	dateCfg := d.cfg.Date.ToDateConfig()
	geoCfg := d.cfg.Geo.ToGeoConfig()
	titleCfg := d.cfg.Title.ToTitleConfig()

	var aiIndices []int
	for i, p := range pairs {
		a, b := eventByID[p.IDA], eventByID[p.IDB]
		scores := models.SignalScores{
			Date:        scoring.DateScore(a, b, dateCfg),
			Geo:         scoring.GeoScore(a, b, geoCfg),
			Title:       scoring.TitleScore(a, b, titleCfg),
			Description: scoring.DescriptionScore(a, b),
		}

		decision := combiner.Decide(a, b, scores, d.cfg)
		decisions[i] = decision

		if decision.Decision == models.DecisionAmbiguous && d.resolver != nil && d.cfg.AI.Enabled && airesolver.InBand(decision.Combined, d.cfg.AI) {
			aiIndices = append(aiIndices, i)
		}
	}

	ledgerEntries := d.resolveConcurrently(ctx, runID, aiIndices, pairs, eventByID, decisions)

	matchCount, ambiguousCount := 0, 0
	for _, decision := range decisions {
		metrics.RecordDecision(string(decision.Decision), string(decision.Tier), decision.Combined)
		switch decision.Decision {
		case models.DecisionMatch:
			matchCount++
		case models.DecisionAmbiguous:
			ambiguousCount++
		}
	}

	return decisions, ledgerEntries, matchCount, ambiguousCount
}

// resolveConcurrently arbitrates the pairs named by aiIndices through a
// semaphore-guarded goroutine pool sized by ai.max_concurrent_requests,
// writing each resolved decision back to decisions[i] in place. Ledger
// entries are collected per worker slot and flattened in pair-index order,
// so ledger ordering stays deterministic even though resolution itself is
// not.
func (d *Driver) resolveConcurrently(ctx context.Context, runID string, aiIndices []int, pairs []candidates.Pair, eventByID map[string]*models.SourceEvent, decisions []models.MatchDecision) []models.AIUsageLedgerEntry {
	if len(aiIndices) == 0 {
		return nil
	}

	poolSize := d.cfg.AI.MaxConcurrentRequests
	if poolSize <= 0 {
		poolSize = 1
	}

	ledgerByIndex := make([]*models.AIUsageLedgerEntry, len(decisions))
	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for _, i := range aiIndices {
		i := i
		p := pairs[i]
		a, b := eventByID[p.IDA], eventByID[p.IDB]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			resolved, ledgerEntry := d.resolver.Resolve(ctx, runID, a, b, decisions[i])
			decisions[i] = resolved
			ledgerByIndex[i] = &ledgerEntry
		}()
	}
	wg.Wait()

	ledgerEntries := make([]models.AIUsageLedgerEntry, 0, len(aiIndices))
	for _, entry := range ledgerByIndex {
		if entry != nil {
			ledgerEntries = append(ledgerEntries, *entry)
		}
	}
	return ledgerEntries
}

func candidatePairReduction(eventCount, pairCount int) float64 {
	totalPossible := eventCount * (eventCount - 1) / 2
	if totalPossible <= 0 {
		return 0
	}
	return (1 - float64(pairCount)/float64(totalPossible)) * 100
}

func (d *Driver) fail(ctx context.Context, result PipelineResult, start time.Time, kind error, message string, cause error) PipelineResult {
	result.Error = &PipelineError{Kind: kind, Message: message, Cause: cause}
	metrics.RecordPipelineRun(time.Since(start), "failure")
	d.bus.publishStage(result.RunID, "pipeline_failed", map[string]interface{}{"kind": kind.Error(), "message": message})
	logging.CtxErr(ctx, cause).Str("run_id", result.RunID).Msg("pipeline_failed")
	return result
}
