// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "testing"

func validConfig() *MatchingConfig {
	return defaultConfig()
}

func TestValidate_DefaultsArePassing(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidate_RejectsOutOfRangeWeight(t *testing.T) {
	cfg := validConfig()
	cfg.Scoring.Date = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range scoring weight")
	}
}

func TestValidate_RejectsInvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unrecognized log level")
	}
}

func TestValidate_RejectsBlendUpperBelowBlendLower(t *testing.T) {
	cfg := validConfig()
	cfg.Title.BlendLower = 0.8
	cfg.Title.BlendUpper = 0.4
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when blend_upper < blend_lower")
	}
}

func TestValidate_RejectsMissingDatabasePath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty database path")
	}
}

func TestValidate_RejectsZeroCircuitBreakerThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.AI.CircuitBreakerMaxFailures = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero circuit breaker threshold")
	}
}

func TestDefaultConfig_ThresholdOrdering(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Thresholds.Low >= cfg.Thresholds.High {
		t.Fatalf("low threshold (%v) must be below high threshold (%v)", cfg.Thresholds.Low, cfg.Thresholds.High)
	}
}

func TestDefaultConfig_CategoryOverridesPresentForPriorityList(t *testing.T) {
	cfg := defaultConfig()
	for _, category := range cfg.CategoryWeights.Priority {
		if _, ok := cfg.CategoryWeights.Overrides[category]; !ok {
			t.Fatalf("priority category %q has no weight override configured", category)
		}
	}
}
