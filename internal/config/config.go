// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for the matching pipeline.
// Configuration loads from built-in defaults, an optional YAML file, and
// environment variables, in that order of increasing precedence (Koanf v2).
//
// Configuration Categories:
//
//  1. Scoring:
//     - Scoring: per-signal weights used by the combiner
//     - Thresholds: match/ambiguous/no_match decision boundaries
//     - Geo, Date, Title: per-signal scorer tuning
//     - CategoryWeights: per-category overrides of the scoring weights
//
//  2. Downstream stages:
//     - Cluster: coherence limits for the graph clusterer
//     - Canonical: per-field synthesis strategy selection
//     - AI: LLM resolver behavior, cost accounting, circuit breaker
//
//  3. Infrastructure:
//     - Database: DuckDB storage path and AI-cache directory
//     - Logging: log level and output format
//
// Example - Load configuration from environment:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("failed to load config:", err)
//	}
//
// Validation:
// LoadWithKoanf validates all fields via go-playground/validator struct tags
// and returns an error if any value is out of its declared range.
//
// Thread Safety:
// MatchingConfig is immutable after load and safe for concurrent read access.
package config

import (
	"time"

	"github.com/dedupecore/eventdedupe/internal/validation"
)

// MatchingConfig holds all configuration for a single pipeline run.
type MatchingConfig struct {
	Scoring         ScoringWeights        `koanf:"scoring" validate:"required"`
	Thresholds      ThresholdConfig       `koanf:"thresholds" validate:"required"`
	Geo             GeoScoringConfig      `koanf:"geo" validate:"required"`
	Date            DateScoringConfig     `koanf:"date" validate:"required"`
	Title           TitleScoringConfig    `koanf:"title" validate:"required"`
	Cluster         ClusterConfig         `koanf:"cluster" validate:"required"`
	CategoryWeights CategoryWeightsConfig `koanf:"category_weights"`
	Canonical       CanonicalConfig       `koanf:"canonical"`
	AI              AIConfig              `koanf:"ai" validate:"required"`
	Database        DatabaseConfig        `koanf:"database" validate:"required"`
	Logging         LoggingConfig         `koanf:"logging" validate:"required"`
}

// ScoringWeights are the combiner's per-signal weights. They should sum to
// 1.0 but this is not enforced, since a category override is permitted to
// reweight deliberately.
type ScoringWeights struct {
	Date        float64 `koanf:"date" validate:"gte=0,lte=1"`
	Geo         float64 `koanf:"geo" validate:"gte=0,lte=1"`
	Title       float64 `koanf:"title" validate:"gte=0,lte=1"`
	Description float64 `koanf:"description" validate:"gte=0,lte=1"`
}

// ThresholdConfig holds the combined-score decision boundaries.
type ThresholdConfig struct {
	High      float64 `koanf:"high" validate:"gte=0,lte=1"`
	Low       float64 `koanf:"low" validate:"gte=0,lte=1"`
	TitleVeto float64 `koanf:"title_veto" validate:"gte=0,lte=1"`
}

// GeoScoringConfig tunes the geographic proximity scorer.
type GeoScoringConfig struct {
	MaxDistanceKM            float64 `koanf:"max_distance_km" validate:"gt=0"`
	MinConfidence            float64 `koanf:"min_confidence" validate:"gte=0,lte=1"`
	NeutralScore             float64 `koanf:"neutral_score" validate:"gte=0,lte=1"`
	VenueMatchDistanceKM     float64 `koanf:"venue_match_distance_km" validate:"gt=0"`
	VenueMismatchFactor      float64 `koanf:"venue_mismatch_factor" validate:"gte=0,lte=1"`
	VenueSimilarityThreshold float64 `koanf:"venue_similarity_threshold" validate:"gte=0,lte=1"`
}

// DateScoringConfig tunes the date/time proximity scorer.
type DateScoringConfig struct {
	TimeToleranceMinutes float64 `koanf:"time_tolerance_minutes" validate:"gte=0"`
	TimeCloseMinutes     float64 `koanf:"time_close_minutes" validate:"gte=0"`
	CloseFactor          float64 `koanf:"close_factor" validate:"gte=0,lte=1"`
	TimeGapPenaltyHours  float64 `koanf:"time_gap_penalty_hours" validate:"gte=0"`
	FarFactor            float64 `koanf:"far_factor" validate:"gte=0,lte=1"`
	TimeGapPenaltyFactor float64 `koanf:"time_gap_penalty_factor" validate:"gte=0,lte=1"`
}

// TitleScoringConfig tunes the title similarity scorer.
type TitleScoringConfig struct {
	PrimaryWeight                  float64 `koanf:"primary_weight" validate:"gte=0,lte=1"`
	SecondaryWeight                float64 `koanf:"secondary_weight" validate:"gte=0,lte=1"`
	BlendLower                     float64 `koanf:"blend_lower" validate:"gte=0,lte=1"`
	BlendUpper                     float64 `koanf:"blend_upper" validate:"gte=0,lte=1,gtefield=BlendLower"`
	CrossSourceTypePrimaryWeight   float64 `koanf:"cross_source_type_primary_weight" validate:"gte=0,lte=1"`
	CrossSourceTypeSecondaryWeight float64 `koanf:"cross_source_type_secondary_weight" validate:"gte=0,lte=1"`
}

// ClusterConfig bounds the graph clusterer's coherence checks.
type ClusterConfig struct {
	MaxClusterSize        int     `koanf:"max_cluster_size" validate:"gt=0"`
	MinInternalSimilarity float64 `koanf:"min_internal_similarity" validate:"gte=0,lte=1"`
	MaxDateSpreadDays     int     `koanf:"max_date_spread_days" validate:"gte=0"`
}

// CategoryWeightsConfig overrides ScoringWeights when two candidate events
// share one of the listed categories. Priority breaks ties when a pair
// shares more than one configured category.
type CategoryWeightsConfig struct {
	Priority  []string                  `koanf:"priority"`
	Overrides map[string]ScoringWeights `koanf:"overrides"`
}

// CanonicalConfig selects the per-field synthesis strategy.
type CanonicalConfig struct {
	FieldStrategies map[string]string `koanf:"field_strategies" validate:"dive,oneof=longest_normalized most_frequent highest_confidence union_all_sources any_true"`
	// SourceTypePreference breaks ties when location_city's mode-across-
	// sources computation has more than one tied value.
	SourceTypePreference []string `koanf:"source_type_preference"`
}

// AIConfig controls the AI resolver, including its circuit breaker.
type AIConfig struct {
	Enabled                    bool          `koanf:"enabled"`
	Model                      string        `koanf:"model"`
	Temperature                float64       `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens            int           `koanf:"max_output_tokens" validate:"gt=0"`
	MaxConcurrentRequests      int           `koanf:"max_concurrent_requests" validate:"gt=0"`
	RequestsPerSecond          float64       `koanf:"requests_per_second" validate:"gt=0"`
	ConfidenceThreshold        float64       `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
	MinCombinedScore           float64       `koanf:"min_combined_score" validate:"gte=0,lte=1"`
	MaxCombinedScore           float64       `koanf:"max_combined_score" validate:"gte=0,lte=1,gtefield=MinCombinedScore"`
	CacheEnabled               bool          `koanf:"cache_enabled"`
	CostPerMillionInputTokens  float64       `koanf:"cost_per_million_input_tokens" validate:"gte=0"`
	CostPerMillionOutputTokens float64       `koanf:"cost_per_million_output_tokens" validate:"gte=0"`
	CredentialCiphertext       string        `koanf:"credential_ciphertext"`
	CircuitBreakerMaxFailures  uint32        `koanf:"circuit_breaker_max_failures" validate:"gt=0"`
	CircuitBreakerOpenTimeout  time.Duration `koanf:"circuit_breaker_open_timeout"`
}

// DatabaseConfig locates the persistence orchestrator's storage.
type DatabaseConfig struct {
	Path          string `koanf:"path" validate:"required"`
	AICacheDir    string `koanf:"ai_cache_dir" validate:"required"`
	Threads       int    `koanf:"threads"`
	PreserveOrder bool   `koanf:"preserve_insertion_order"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate runs struct-tag validation over the loaded configuration.
func (c *MatchingConfig) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	return nil
}
