// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps the go-playground/validator library with a thread-safe singleton
// validator instance and human-readable error translation, and is used by
// internal/config to reject an invalid MatchingConfig before it reaches the
// pipeline.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Human-readable error translation for range, cross-field, and enum tags
//   - Built-in validator support (oneof, gte/lte, gtfield/gtefield, dive)
//
// # Quick Start
//
//	type ThresholdConfig struct {
//	    High float64 `validate:"gte=0,lte=1"`
//	    Low  float64 `validate:"gte=0,lte=1"`
//	}
//
//	if err := validation.ValidateStruct(&cfg.Thresholds); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
//
// # Common Validation Tags
//
// Numeric validations:
//   - gte=n: Greater than or equal to n
//   - lte=n: Less than or equal to n
//   - gt=n: Greater than n
//   - lt=n: Less than n
//
// Cross-field validations:
//   - gtefield=Field: Greater than or equal to another field on the same struct
//   - gtfield=Field: Greater than another field on the same struct
//
// Enum validations:
//   - oneof=a b c: Must be one of the specified values
//   - dive,oneof=a b c: Every value in a slice or map must be one of the specified values
//
// Nested structs:
//   - required: A nested struct field must itself validate (recurses into its tags)
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "1" for gte=1)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// RequestValidationError aggregates multiple field errors:
//
//	type RequestValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string // Combined message
//	}
//
// # Error Message Translation
//
// Human-readable messages are generated for common validation tags:
//
//	required          -> "Path is required"
//	gte=0             -> "MinConfidence must be greater than or equal to 0"
//	lte=1             -> "MinConfidence must be less than or equal to 1"
//	gtefield=MinScore -> "MaxScore must be greater than or equal to field MinScore"
//	oneof=json console -> "Format must be one of: json console"
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&cfg) // Thread-safe
package validation
