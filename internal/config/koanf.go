// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/eventdedupe/config.yaml",
	"/etc/eventdedupe/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// CredentialSecretEnvVar names the environment variable holding the secret
// used to derive the AI credential's encryption key (§10.3).
const CredentialSecretEnvVar = "MATCHING_CREDENTIAL_SECRET"

// defaultConfig returns a MatchingConfig with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *MatchingConfig {
	return &MatchingConfig{
		Scoring: ScoringWeights{
			Date:        0.30,
			Geo:         0.25,
			Title:       0.30,
			Description: 0.15,
		},
		Thresholds: ThresholdConfig{
			High:      0.75,
			Low:       0.35,
			TitleVeto: 0.45,
		},
		Geo: GeoScoringConfig{
			MaxDistanceKM:            10,
			MinConfidence:            0.85,
			NeutralScore:             0.5,
			VenueMatchDistanceKM:     1.0,
			VenueMismatchFactor:      0.5,
			VenueSimilarityThreshold: 0.50,
		},
		Date: DateScoringConfig{
			TimeToleranceMinutes: 30,
			TimeCloseMinutes:     90,
			CloseFactor:          0.7,
			TimeGapPenaltyHours:  2,
			FarFactor:            0.3,
			TimeGapPenaltyFactor: 0.15,
		},
		Title: TitleScoringConfig{
			PrimaryWeight:                  0.7,
			SecondaryWeight:                0.3,
			BlendLower:                     0.40,
			BlendUpper:                     0.80,
			CrossSourceTypePrimaryWeight:   0.4,
			CrossSourceTypeSecondaryWeight: 0.6,
		},
		Cluster: ClusterConfig{
			MaxClusterSize:        15,
			MinInternalSimilarity: 0.40,
			MaxDateSpreadDays:     3,
		},
		CategoryWeights: CategoryWeightsConfig{
			Priority: []string{"fasnacht", "hauptversammlung"},
			Overrides: map[string]ScoringWeights{
				"fasnacht": {Date: 0.30, Geo: 0.35, Title: 0.20, Description: 0.15},
				"hauptversammlung": {Date: 0.25, Geo: 0.20, Title: 0.40, Description: 0.15},
			},
		},
		Canonical: CanonicalConfig{
			FieldStrategies: map[string]string{
				"title":             "longest_normalized",
				"short_description": "longest_normalized",
				"long_description":  "longest_normalized",
				"location":          "most_frequent",
				"geo":               "highest_confidence",
				"categories":        "union_all_sources",
				"dates":             "union_all_sources",
				"flags":             "any_true",
			},
			SourceTypePreference: []string{"artikel", "terminliste", "anzeige"},
		},
		AI: AIConfig{
			Enabled:                    true,
			Model:                      "claude-3-5-haiku-latest",
			Temperature:                0.0,
			MaxOutputTokens:            512,
			MaxConcurrentRequests:      5,
			RequestsPerSecond:          2,
			ConfidenceThreshold:        0.60,
			MinCombinedScore:           0.65,
			MaxCombinedScore:           0.79,
			CacheEnabled:               true,
			CostPerMillionInputTokens:  0.80,
			CostPerMillionOutputTokens: 4.00,
			CircuitBreakerMaxFailures:  5,
			CircuitBreakerOpenTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:          "/data/eventdedupe.duckdb",
			AICacheDir:    "/data/ai-cache",
			Threads:       0,
			PreserveOrder: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*MatchingConfig, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// EVENTDEDUPE_AI_MODEL -> ai.model, EVENTDEDUPE_DATABASE_PATH -> database.path
	envProvider := env.Provider("EVENTDEDUPE_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &MatchingConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if secret := os.Getenv(CredentialSecretEnvVar); secret != "" && cfg.AI.CredentialCiphertext != "" {
		encryptor, err := NewCredentialEncryptor(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize credential encryptor: %w", err)
		}
		if err := encryptor.ValidateEncryptionSetup(); err != nil {
			return nil, fmt.Errorf("credential encryption self-test failed: %w", err)
		}
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"category_weights.priority",
	"canonical.source_type_preference",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// multiWordGroups lists koanf top-level group names that contain an
// underscore, so the env transform knows not to split them at their first
// underscore.
var multiWordGroups = []string{"category_weights"}

// envTransformFunc transforms EVENTDEDUPE_-prefixed environment variable names
// into dotted koanf config paths. The group separator is the first underscore
// after any known multi-word group prefix, e.g. AI_MODEL -> ai.model,
// GEO_MAX_DISTANCE_KM -> geo.max_distance_km, CATEGORY_WEIGHTS_PRIORITY ->
// category_weights.priority.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "EVENTDEDUPE_"))

	for _, group := range multiWordGroups {
		if key == group || strings.HasPrefix(key, group+"_") {
			rest := strings.TrimPrefix(key, group)
			rest = strings.TrimPrefix(rest, "_")
			if rest == "" {
				return group
			}
			return group + "." + rest
		}
	}

	idx := strings.Index(key, "_")
	if idx < 0 {
		return key
	}
	return key[:idx] + "." + key[idx+1:]
}
