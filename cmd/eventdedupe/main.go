// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command eventdedupe runs one process_batch invocation of the matching
// pipeline against SourceEvent rows already persisted by an ingestion
// collaborator, then prints the resulting PipelineResult.
//
// # Initialization Order
//
//  1. Configuration — config.LoadWithKoanf() (defaults -> config.yaml ->
//     EVENTDEDUPE_* environment variables)
//  2. Logging — logging.Init, using the loaded LoggingConfig
//  3. Storage — store.Open against the DuckDB path in DatabaseConfig
//  4. AI resolver (optional) — built only when ai.enabled is true and an
//     AI credential ciphertext is configured; disabled runs skip straight
//     to a nil resolver, which the driver treats as "no AI arbitration"
//  5. Metrics endpoint (optional) — a /metrics promhttp handler, useful
//     for scraping a long batch run
//  6. process_batch — one Driver.ProcessBatch call over the file ids given
//     on the command line
//
// # Usage
//
//	export EVENTDEDUPE_DATABASE_PATH=/data/eventdedupe.duckdb
//	export EVENTDEDUPE_AI_ENABLED=false
//	eventdedupe -events-dir /data/events file-2026-03-01 file-2026-03-02
//
// Each positional argument is a file id; the events directory must contain
// one "<file-id>.ndjson" file per id, each line a JSON-encoded SourceEvent.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dedupecore/eventdedupe/internal/aicache"
	"github.com/dedupecore/eventdedupe/internal/airesolver"
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/ingestloader"
	"github.com/dedupecore/eventdedupe/internal/logging"
	"github.com/dedupecore/eventdedupe/internal/pipeline"
	"github.com/dedupecore/eventdedupe/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	eventsDir := flag.String("events-dir", "./data/events", "directory holding <file-id>.ndjson source event files")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090) for the duration of the run")
	flag.Parse()
	fileIDs := flag.Args()

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("database_path", cfg.Database.Path).
		Bool("ai_enabled", cfg.AI.Enabled).
		Str("ai_credential", config.MaskCredential(cfg.AI.CredentialCiphertext)).
		Int("file_count", len(fileIDs)).
		Msg("starting eventdedupe batch run")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal, canceling run")
		cancel()
	}()

	st, err := store.Open(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open storage")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close storage cleanly")
		}
	}()

	resolver, closeCache, err := buildResolver(cfg, st)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build AI resolver")
	}
	if closeCache != nil {
		defer func() {
			if err := closeCache(); err != nil {
				logging.Error().Err(err).Msg("failed to close AI resolution cache")
			}
		}()
	}

	if *metricsAddr != "" {
		stopMetrics := serveMetrics(*metricsAddr)
		defer stopMetrics()
	}

	loader := ingestloader.NewFileLoader(*eventsDir)
	driver := pipeline.New(loader, st, resolver, cfg)
	defer func() {
		if err := driver.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close pipeline driver")
		}
	}()

	result := driver.ProcessBatch(ctx, fileIDs)
	if result.Error != nil {
		logging.Error().Err(result.Error).Str("run_id", result.RunID).Msg("process_batch failed")
		return 1
	}

	fmt.Printf(
		"run %s: %d matches, %d ambiguous, %d canonical events, %d flagged for review (%.1f%% candidate-pair reduction)\n",
		result.RunID, result.MatchCount, result.AmbiguousCount, result.CanonicalCount, result.FlaggedCount,
		result.CandidatePairReductionPercent,
	)
	return 0
}

// buildResolver constructs the AI resolver when ai.enabled carries a
// credential, decrypting it with the secret named by
// config.CredentialSecretEnvVar. It returns a nil resolver (AI arbitration
// disabled) when no credential is configured, never an error in that case.
// sqlStore is wired in as the resolver's table-of-record for AI resolutions,
// read through on a Badger miss and written through on every fresh call.
func buildResolver(cfg *config.MatchingConfig, sqlStore *store.Store) (*airesolver.Resolver, func() error, error) {
	if !cfg.AI.Enabled || cfg.AI.CredentialCiphertext == "" {
		return nil, nil, nil
	}

	secret := os.Getenv(config.CredentialSecretEnvVar)
	if secret == "" {
		return nil, nil, fmt.Errorf("ai.enabled with a credential requires %s", config.CredentialSecretEnvVar)
	}
	encryptor, err := config.NewCredentialEncryptor(secret)
	if err != nil {
		return nil, nil, fmt.Errorf("build credential encryptor: %w", err)
	}
	apiKey, err := encryptor.Decrypt(cfg.AI.CredentialCiphertext)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt AI credential: %w", err)
	}

	var cache *aicache.Cache
	var closeCache func() error
	if cfg.AI.CacheEnabled {
		cache, err = aicache.Open(cfg.Database.AICacheDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open AI resolution cache: %w", err)
		}
		closeCache = cache.Close
	}

	client := airesolver.NewHTTPClient(airesolver.HTTPClientConfig{
		Endpoint:    os.Getenv("EVENTDEDUPE_AI_ENDPOINT"),
		APIKey:      apiKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxOutputTokens,
	})

	return airesolver.New(client, cache, sqlStore, cfg.AI), closeCache, nil
}

// serveMetrics starts a best-effort /metrics endpoint and returns a function
// that shuts it down. Failures to serve are logged, never fatal: metrics
// exposure is an observability nicety, not a run precondition.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}
}
