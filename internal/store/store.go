// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the persistence orchestrator. It owns the DuckDB-backed
// analytical store that a pipeline run rebuilds wholesale:
// every MatchDecision, CanonicalEvent, and CanonicalSourceLink produced by a
// run replaces the prior run's rows in a single transaction. Source events
// and the AI cache/ledger are never touched by that transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/logging"
	"github.com/dedupecore/eventdedupe/internal/metrics"
	"github.com/dedupecore/eventdedupe/internal/models"
)

// ErrAIMatchCacheMiss is returned by GetAIMatchCache when no row exists for
// the given content hash and model id.
var ErrAIMatchCacheMiss = errors.New("store: ai match cache entry not found")

// Store wraps the DuckDB connection used to persist pipeline results.
type Store struct {
	conn *sql.DB
}

// Group is one synthesized canonical event together with the source event
// ids that contributed to it.
type Group struct {
	Event     models.CanonicalEvent
	MemberIDs []string
}

// Open connects to the DuckDB file named by cfg.Path, creating the parent
// directory and the schema on first use.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
		}
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	preserveOrder := "false"
	if cfg.PreserveOrder {
		preserveOrder = "true"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}
	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return s.conn.Close()
}

func (s *Store) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS canonical_event_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS canonical_events (
			id BIGINT PRIMARY KEY DEFAULT nextval('canonical_event_id_seq'),
			title_raw TEXT,
			title_normalized TEXT,
			short_description_raw TEXT,
			short_description_normalized TEXT,
			long_description_raw TEXT,
			long_description_normalized TEXT,
			highlights JSON,
			location_name TEXT,
			location_city TEXT,
			location_district TEXT,
			location_street TEXT,
			location_zipcode TEXT,
			geo_latitude DOUBLE,
			geo_longitude DOUBLE,
			geo_confidence DOUBLE,
			categories JSON,
			is_family BOOLEAN,
			is_child_focused BOOLEAN,
			admission_free BOOLEAN,
			dates JSON,
			source_count INTEGER,
			match_confidence DOUBLE,
			needs_review BOOLEAN,
			ai_assisted BOOLEAN,
			field_provenance JSON,
			version INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS canonical_source_links (
			canonical_id BIGINT,
			source_event_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS match_decisions (
			id_a TEXT,
			id_b TEXT,
			date_score DOUBLE,
			geo_score DOUBLE,
			title_score DOUBLE,
			description_score DOUBLE,
			combined DOUBLE,
			decision TEXT,
			tier TEXT,
			ai_reasoning TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ai_usage_ledger (
			batch_id TEXT,
			id_a TEXT,
			id_b TEXT,
			tokens_in INTEGER,
			tokens_out INTEGER,
			estimated_cost DOUBLE,
			cache_hit BOOLEAN,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ai_match_cache (
			content_hash TEXT PRIMARY KEY,
			model_id TEXT,
			decision TEXT,
			confidence DOUBLE,
			reasoning TEXT,
			recorded_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_source_links_canonical ON canonical_source_links(canonical_id)`,
		`CREATE INDEX IF NOT EXISTS idx_source_links_source ON canonical_source_links(source_event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_match_cache_hash ON ai_match_cache(content_hash)`,
	}

	for _, stmt := range stmts {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// RunClearAndReplace executes the mandated five-step transaction (spec
// §4.9): delete all match decisions, delete all source links, delete all
// canonical events, insert the new canonical events and their source links,
// then insert the new match decisions. Child tables are deleted explicitly
// since DuckDB does not cascade.
func (s *Store) RunClearAndReplace(ctx context.Context, decisions []models.MatchDecision, groups []Group) (err error) {
	start := time.Now()
	committed := false
	defer func() {
		metrics.RecordPersistenceTransaction(time.Since(start), committed, len(groups))
	}()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				logging.Warn().Err(rbErr).Msg("rollback after failed clear-and-replace")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM match_decisions"); err != nil {
		return fmt.Errorf("delete match_decisions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM canonical_source_links"); err != nil {
		return fmt.Errorf("delete canonical_source_links: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM canonical_events"); err != nil {
		return fmt.Errorf("delete canonical_events: %w", err)
	}

	for _, g := range groups {
		canonicalID, insertErr := insertCanonicalEvent(ctx, tx, g.Event)
		if insertErr != nil {
			err = fmt.Errorf("insert canonical_event: %w", insertErr)
			return err
		}
		for _, memberID := range g.MemberIDs {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO canonical_source_links (canonical_id, source_event_id) VALUES (?, ?)`,
				canonicalID, memberID); err != nil {
				return fmt.Errorf("insert canonical_source_link: %w", err)
			}
		}
	}

	for _, d := range decisions {
		if _, err = tx.ExecContext(ctx, `INSERT INTO match_decisions
			(id_a, id_b, date_score, geo_score, title_score, description_score, combined, decision, tier, ai_reasoning)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.IDA, d.IDB, d.Scores.Date, d.Scores.Geo, d.Scores.Title, d.Scores.Description,
			d.Combined, string(d.Decision), string(d.Tier), d.AIReasoning); err != nil {
			return fmt.Errorf("insert match_decision: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear-and-replace: %w", err)
	}
	committed = true
	return nil
}

func insertCanonicalEvent(ctx context.Context, tx *sql.Tx, e models.CanonicalEvent) (int64, error) {
	highlights, err := json.Marshal(e.Highlights)
	if err != nil {
		return 0, fmt.Errorf("marshal highlights: %w", err)
	}
	categories, err := json.Marshal(e.Categories)
	if err != nil {
		return 0, fmt.Errorf("marshal categories: %w", err)
	}
	dates, err := json.Marshal(e.Dates)
	if err != nil {
		return 0, fmt.Errorf("marshal dates: %w", err)
	}
	provenance, err := json.Marshal(e.FieldProvenance)
	if err != nil {
		return 0, fmt.Errorf("marshal field_provenance: %w", err)
	}

	var shortRaw, shortNorm, longRaw, longNorm *string
	if e.ShortDescription != nil {
		shortRaw, shortNorm = &e.ShortDescription.Raw, &e.ShortDescription.Normalized
	}
	if e.LongDescription != nil {
		longRaw, longNorm = &e.LongDescription.Raw, &e.LongDescription.Normalized
	}

	var lat, lon, confidence *float64
	if e.Geo != nil {
		lat, lon, confidence = &e.Geo.Latitude, &e.Geo.Longitude, &e.Geo.Confidence
	}

	row := tx.QueryRowContext(ctx, `INSERT INTO canonical_events (
		title_raw, title_normalized,
		short_description_raw, short_description_normalized,
		long_description_raw, long_description_normalized,
		highlights,
		location_name, location_city, location_district, location_street, location_zipcode,
		geo_latitude, geo_longitude, geo_confidence,
		categories, is_family, is_child_focused, admission_free,
		dates, source_count, match_confidence, needs_review, ai_assisted, field_provenance, version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`,
		e.Title.Raw, e.Title.Normalized,
		shortRaw, shortNorm,
		longRaw, longNorm,
		string(highlights),
		e.Location.Name, e.Location.City, e.Location.District, e.Location.Street, e.Location.Zipcode,
		lat, lon, confidence,
		string(categories), e.Flags.IsFamily, e.Flags.IsChildFocused, e.Flags.AdmissionFree,
		string(dates), e.SourceCount, e.MatchConfidence, e.NeedsReview, e.AIAssisted, string(provenance), e.Version,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("scan inserted id: %w", err)
	}
	return id, nil
}

// AppendAIUsageLedger records AI resolver usage outside the clear-and-replace
// transaction: these rows accumulate across runs and are never rebuilt
// wholesale.
func (s *Store) AppendAIUsageLedger(ctx context.Context, entries []models.AIUsageLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ai_usage_ledger
			(batch_id, id_a, id_b, tokens_in, tokens_out, estimated_cost, cache_hit, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.BatchID, e.IDA, e.IDB, e.TokensIn, e.TokensOut, e.EstimatedCost, e.CacheHit, e.Timestamp); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert ai_usage_ledger: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ai_usage_ledger: %w", err)
	}
	return nil
}

// GetAIMatchCache looks up the table-of-record AI resolution for a content
// hash, scoped to modelID so a model change never returns a stale verdict.
// It returns ErrAIMatchCacheMiss when no row matches.
func (s *Store) GetAIMatchCache(ctx context.Context, contentHash, modelID string) (models.AIResolutionCacheEntry, error) {
	var entry models.AIResolutionCacheEntry
	var decision string
	row := s.conn.QueryRowContext(ctx,
		`SELECT content_hash, model_id, decision, confidence, reasoning, recorded_at
		 FROM ai_match_cache WHERE content_hash = ? AND model_id = ?`,
		contentHash, modelID)
	if err := row.Scan(&entry.ContentHash, &entry.ModelID, &decision, &entry.Confidence, &entry.Reasoning, &entry.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AIResolutionCacheEntry{}, ErrAIMatchCacheMiss
		}
		return models.AIResolutionCacheEntry{}, fmt.Errorf("query ai_match_cache: %w", err)
	}
	entry.Decision = models.AIDecision(decision)
	return entry, nil
}

// UpsertAIMatchCache writes the table-of-record row for an AI resolution,
// outside the clear-and-replace transaction: the AI cache and usage ledger
// are never touched by that transaction. internal/aicache's BadgerDB
// instance is the hot read front; this table is the record that survives
// loss of the Badger directory.
func (s *Store) UpsertAIMatchCache(ctx context.Context, entry models.AIResolutionCacheEntry) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO ai_match_cache (content_hash, model_id, decision, confidence, reasoning, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (content_hash) DO UPDATE SET
			model_id = excluded.model_id,
			decision = excluded.decision,
			confidence = excluded.confidence,
			reasoning = excluded.reasoning,
			recorded_at = excluded.recorded_at`,
		entry.ContentHash, entry.ModelID, string(entry.Decision), entry.Confidence, entry.Reasoning, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("upsert ai_match_cache: %w", err)
	}
	return nil
}

// CanonicalEventCount returns the number of canonical events currently
// persisted, used by operational tooling and tests.
func (s *Store) CanonicalEventCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM canonical_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count canonical_events: %w", err)
	}
	return n, nil
}
