// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package config provides centralized configuration management for the
event deduplication pipeline.

This package handles loading, validation, and parsing of MatchingConfig
for every pipeline stage: scoring, decision thresholds, clustering, canonical
synthesis, and the AI resolver. It ensures a single consistent configuration
is loaded per run and provides sensible defaults for optional settings.

# Configuration Sources

The package reads configuration from three layered sources, in order of
increasing precedence (Koanf v2):

 1. Built-in defaults (defaultConfig)
 2. An optional YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables prefixed EVENTDEDUPE_ (e.g. EVENTDEDUPE_AI_MODEL)

# Configuration Structure

  - ScoringWeights: combiner's per-signal weights (date, geo, title, description)
  - ThresholdConfig: match/ambiguous/no_match decision boundaries and the title veto
  - GeoScoringConfig, DateScoringConfig, TitleScoringConfig: per-signal scorer tuning
  - ClusterConfig: graph clusterer coherence limits
  - CategoryWeightsConfig: per-category overrides of the combiner weights
  - CanonicalConfig: per-field canonical synthesis strategy selection
  - AIConfig: LLM resolver behavior, cost accounting, circuit breaker
  - DatabaseConfig: DuckDB storage path and AI-cache directory
  - LoggingConfig: log level and output format

# Usage Example

	import "github.com/dedupecore/eventdedupe/internal/config"

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}

	fmt.Printf("decision thresholds: low=%.2f high=%.2f\n", cfg.Thresholds.Low, cfg.Thresholds.High)
	fmt.Printf("storage: %s\n", cfg.Database.Path)

# Validation

All fields are validated via go-playground/validator struct tags
(internal/validation): scoring weights and scores must fall in [0,1],
the title blend band must be ordered, the log level must be one of a
fixed set, and the database path must be non-empty. Validation failure
is a fatal config-load error: the run does not execute.

# Credential Encryption

The AI resolver's LLM credential is stored encrypted (AES-256-GCM, key
derived via HKDF-SHA256) in AIConfig.CredentialCiphertext. The symmetric
key is supplied via the MATCHING_CREDENTIAL_SECRET environment variable
and never persisted alongside the ciphertext. Decryption happens only at
request-construction time inside the AI resolver; the credential never
appears in any response from a read API built atop the persisted store.

# Thread Safety

MatchingConfig is immutable after LoadWithKoanf() returns, making it safe
for concurrent access from multiple goroutines without synchronization.
*/
package config
