// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package combiner

import (
	"testing"

	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/models"
)

func baseConfig() *config.MatchingConfig {
	return &config.MatchingConfig{
		Scoring: config.ScoringWeights{Date: 0.30, Geo: 0.25, Title: 0.30, Description: 0.15},
		Thresholds: config.ThresholdConfig{
			High:      0.75,
			Low:       0.35,
			TitleVeto: 0.45,
		},
		CategoryWeights: config.CategoryWeightsConfig{
			Priority: []string{"fasnacht", "hauptversammlung"},
			Overrides: map[string]config.ScoringWeights{
				"fasnacht":         {Date: 0.30, Geo: 0.35, Title: 0.20, Description: 0.15},
				"hauptversammlung": {Date: 0.25, Geo: 0.20, Title: 0.40, Description: 0.15},
			},
		},
	}
}

func event(id string, categories ...string) *models.SourceEvent {
	return &models.SourceEvent{ID: id, Categories: categories}
}

func TestDecide_HighCombinedIsMatch(t *testing.T) {
	a, b := event("b1"), event("a1")
	scores := models.SignalScores{Date: 1.0, Geo: 1.0, Title: 1.0, Description: 1.0}
	d := Decide(a, b, scores, baseConfig())
	if d.Decision != models.DecisionMatch {
		t.Fatalf("expected match, got %v (combined=%v)", d.Decision, d.Combined)
	}
	if d.Tier != models.TierDeterministic {
		t.Fatalf("expected deterministic tier, got %v", d.Tier)
	}
}

func TestDecide_LowCombinedIsNoMatch(t *testing.T) {
	a, b := event("b1"), event("a1")
	scores := models.SignalScores{Date: 0.1, Geo: 0.1, Title: 0.5, Description: 0.1}
	d := Decide(a, b, scores, baseConfig())
	if d.Decision != models.DecisionNoMatch {
		t.Fatalf("expected no_match, got %v (combined=%v)", d.Decision, d.Combined)
	}
}

func TestDecide_MiddleBandIsAmbiguous(t *testing.T) {
	a, b := event("b1"), event("a1")
	scores := models.SignalScores{Date: 0.5, Geo: 0.5, Title: 0.5, Description: 0.5}
	d := Decide(a, b, scores, baseConfig())
	if d.Decision != models.DecisionAmbiguous {
		t.Fatalf("expected ambiguous, got %v (combined=%v)", d.Decision, d.Combined)
	}
}

func TestDecide_TitleVetoOverridesHighCombined(t *testing.T) {
	a, b := event("b1"), event("a1")
	// Every other signal maxed, but title below the veto threshold: must stay
	// ambiguous regardless of how high the combined score would otherwise be.
	scores := models.SignalScores{Date: 1.0, Geo: 1.0, Title: 0.1, Description: 1.0}
	d := Decide(a, b, scores, baseConfig())
	if d.Decision != models.DecisionAmbiguous {
		t.Fatalf("expected title veto to force ambiguous, got %v", d.Decision)
	}
}

func TestDecide_PairKeyOrderedRegardlessOfArgumentOrder(t *testing.T) {
	a, b := event("b1"), event("a1")
	scores := models.SignalScores{}
	d := Decide(a, b, scores, baseConfig())
	if d.IDA != "a1" || d.IDB != "b1" {
		t.Fatalf("expected ordered pair (a1,b1), got (%s,%s)", d.IDA, d.IDB)
	}
}

func TestDecide_SharedCategoryAppliesOverrideWeights(t *testing.T) {
	a, b := event("a1", "fasnacht"), event("b1", "fasnacht", "other")
	cfg := baseConfig()
	// Geo weighted 0.35 instead of default 0.25 under the fasnacht override;
	// isolate geo's contribution to the combined score to observe the shift.
	scores := models.SignalScores{Date: 0, Geo: 1.0, Title: 0.5, Description: 0}
	d := Decide(a, b, scores, cfg)
	expected := cfg.CategoryWeights.Overrides["fasnacht"].Geo*1.0 + cfg.CategoryWeights.Overrides["fasnacht"].Title*0.5
	if diff := d.Combined - expected; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected combined %v under fasnacht override, got %v", expected, d.Combined)
	}
}

func TestDecide_PriorityBreaksTiesAmongSharedCategories(t *testing.T) {
	a, b := event("a1", "hauptversammlung", "fasnacht"), event("b1", "fasnacht", "hauptversammlung")
	cfg := baseConfig()
	scores := models.SignalScores{Date: 0, Geo: 1.0, Title: 0, Description: 0}
	d := Decide(a, b, scores, cfg)
	// fasnacht precedes hauptversammlung in Priority, so its geo weight (0.35) applies.
	expected := cfg.CategoryWeights.Overrides["fasnacht"].Geo
	if diff := d.Combined - expected; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected fasnacht override (priority) to win, combined=%v want=%v", d.Combined, expected)
	}
}

func TestDecide_NoSharedCategoryUsesDefaultWeights(t *testing.T) {
	a, b := event("a1", "concert"), event("b1", "theater")
	cfg := baseConfig()
	scores := models.SignalScores{Date: 1.0, Geo: 0, Title: 0, Description: 0}
	d := Decide(a, b, scores, cfg)
	if diff := d.Combined - cfg.Scoring.Date; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected default date weight %v, got combined %v", cfg.Scoring.Date, d.Combined)
	}
}
