// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package airesolver

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig tunes when the AI resolver stops calling the LLM
// collaborator and starts failing fast.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// newCircuitBreaker builds a gobreaker instance over Response: it opens
// after FailureThreshold consecutive transport/parse failures and fails
// every call fast until Timeout elapses, at which point a single
// half-open probe decides whether to close again.
func newCircuitBreaker(cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[Response] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	return gobreaker.NewCircuitBreaker[Response](settings)
}

// breakerState reports the circuit breaker's state as the metrics gauge
// encoding (0=closed, 1=half-open, 2=open).
func breakerState(cb *gobreaker.CircuitBreaker[Response]) float64 {
	switch cb.State() {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
