// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides centralized zerolog-based structured logging for eventdedupe.
//
// This package implements a single logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Global logger configuration from LoggingConfig (internal/config)
//   - Context-aware logging with per-run correlation ID propagation
//
// # Quick Start
//
//	import "github.com/dedupecore/eventdedupe/internal/logging"
//
//	// Initialize at application startup, from loaded config
//	logging.Init(logging.Config{
//	    Level:  cfg.Logging.Level,
//	    Format: cfg.Logging.Format,
//	    Caller: cfg.Logging.Caller,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Int("candidate_pairs", n).Msg("blocking produced candidates")
//	logging.Error().Err(err).Msg("process_batch failed")
//
//	// Context-aware logging, tagged with the run's correlation ID
//	logging.CtxInfo(ctx).Str("stage", "cluster").Msg("stage complete")
//
// # Configuration
//
// Level and Format are sourced from LoggingConfig, which koanf populates
// from defaults, an optional YAML file, and environment variables before
// main() calls Init once at startup.
//
//	logging.Init(logging.Config{
//	    Level:     "debug",    // debug, info, warn, error, fatal
//	    Format:    "console",  // json or console
//	    Caller:    true,       // Include caller info
//	    Timestamp: true,       // Include timestamps
//	    Output:    os.Stderr,  // Output writer
//	})
//
// # Log Levels
//
//	debug  - Detailed diagnostic information
//	info   - General operational information (default)
//	warn   - Warning conditions that should be addressed
//	error  - Error conditions requiring attention
//	fatal  - Fatal errors that terminate the process (main() calls this on
//	         unrecoverable startup failures)
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting:
//
//	// Good - structured, searchable, efficient
//	logging.Info().
//	    Str("run_id", runID).
//	    Int("cluster_count", n).
//	    Dur("elapsed", duration).
//	    Msg("clustering complete")
//
//	// Avoid - unstructured, harder to parse
//	logging.Info().Msgf("run %s produced %d clusters in %v", runID, n, duration)
//
// # Context-Aware Logging
//
// internal/pipeline stamps each run's context with its run ID once, at the
// top of ProcessBatch; every CtxInfo/CtxWarn/CtxErr call downstream of that
// point carries it as correlation_id, so every log line from one batch
// invocation can be grepped back together:
//
//	ctx = logging.ContextWithCorrelationID(ctx, runID)
//	logging.CtxInfo(ctx).Msg("process_batch started")
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2025-01-03T10:30:00Z","message":"process_batch started","correlation_id":"abc12345"}
//
// Console Format (Development):
//
//	10:30:00 INF process_batch started correlation_id=abc12345
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # See Also
//
//   - github.com/rs/zerolog: Underlying logging library
package logging
