// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package combiner applies the weighted score combination and decision
// rules of a pairwise evaluation: it blends the four signal scores into a
// single combined score, applying a per-category weight override when
// applicable, then classifies the pair as match, ambiguous, or no_match.
package combiner

import (
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/models"
)

// Weights mirrors config.ScoringWeights as plain floats so callers that
// already hold scorer outputs don't need to import the config package.
type Weights struct {
	Date        float64
	Geo         float64
	Title       float64
	Description float64
}

// Decide combines the four signal scores for a pair, applying the
// category-weight override (if both events share a configured category)
// and the decision rules, in order: title veto, then high/low thresholds.
func Decide(a, b *models.SourceEvent, scores models.SignalScores, cfg *config.MatchingConfig) models.MatchDecision {
	weights := weightsFor(a, b, cfg)

	combined := weights.Date*scores.Date +
		weights.Geo*scores.Geo +
		weights.Title*scores.Title +
		weights.Description*scores.Description

	idA, idB := models.PairKey(a.ID, b.ID)

	decision := models.MatchDecision{
		IDA:      idA,
		IDB:      idB,
		Scores:   scores,
		Combined: combined,
		Tier:     models.TierDeterministic,
	}

	switch {
	case scores.Title < cfg.Thresholds.TitleVeto:
		decision.Decision = models.DecisionAmbiguous
	case combined >= cfg.Thresholds.High:
		decision.Decision = models.DecisionMatch
	case combined <= cfg.Thresholds.Low:
		decision.Decision = models.DecisionNoMatch
	default:
		decision.Decision = models.DecisionAmbiguous
	}

	return decision
}

// weightsFor resolves the combiner weights for a pair: the default
// weights, unless both events share a category present in the configured
// override map, in which case the highest-priority shared category's
// weights apply.
func weightsFor(a, b *models.SourceEvent, cfg *config.MatchingConfig) Weights {
	if override, ok := sharedCategoryOverride(a.Categories, b.Categories, cfg.CategoryWeights); ok {
		return Weights{
			Date:        override.Date,
			Geo:         override.Geo,
			Title:       override.Title,
			Description: override.Description,
		}
	}
	return Weights{
		Date:        cfg.Scoring.Date,
		Geo:         cfg.Scoring.Geo,
		Title:       cfg.Scoring.Title,
		Description: cfg.Scoring.Description,
	}
}

// sharedCategoryOverride finds the highest-priority category that both
// event's category lists share and that has a configured weight override.
func sharedCategoryOverride(catsA, catsB []string, cw config.CategoryWeightsConfig) (config.ScoringWeights, bool) {
	shared := make(map[string]bool, len(catsA))
	for _, c := range catsA {
		shared[c] = true
	}

	for _, priority := range cw.Priority {
		if !shared[priority] {
			continue
		}
		if !contains(catsB, priority) {
			continue
		}
		if override, ok := cw.Overrides[priority]; ok {
			return override, true
		}
	}

	return config.ScoringWeights{}, false
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
