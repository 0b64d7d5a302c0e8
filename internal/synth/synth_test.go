// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package synth

import (
	"testing"

	"github.com/dedupecore/eventdedupe/internal/cluster"
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/models"
)

func testCfg() config.CanonicalConfig {
	return config.CanonicalConfig{
		SourceTypePreference: []string{"artikel", "terminliste", "anzeige"},
	}
}

func TestSynthesize_TitlePrefersLongestOverTenChars(t *testing.T) {
	a := &models.SourceEvent{ID: "a1", Title: models.TextField{Normalized: "kurz"}}
	b := &models.SourceEvent{ID: "b1", Title: models.TextField{Normalized: "das grosse frühlingsfest"}}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 1.0, Valid: true}

	canonical := Synthesize(c, byID, nil, testCfg())
	if canonical.Title.Normalized != "das grosse frühlingsfest" {
		t.Fatalf("expected longer qualifying title, got %q", canonical.Title.Normalized)
	}
	if canonical.FieldProvenance["title"] != "b1" {
		t.Fatalf("expected provenance b1, got %q", canonical.FieldProvenance["title"])
	}
}

func TestSynthesize_HighlightsUnionPreservesFirstSeenOrder(t *testing.T) {
	a := &models.SourceEvent{ID: "a1", Highlights: []string{"live musik", "eintritt frei"}}
	b := &models.SourceEvent{ID: "b1", Highlights: []string{"eintritt frei", "kinderprogramm"}}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 1.0, Valid: true}

	canonical := Synthesize(c, byID, nil, testCfg())
	expected := []string{"live musik", "eintritt frei", "kinderprogramm"}
	if len(canonical.Highlights) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, canonical.Highlights)
	}
	for i, v := range expected {
		if canonical.Highlights[i] != v {
			t.Fatalf("expected %v, got %v", expected, canonical.Highlights)
		}
	}
}

func TestSynthesize_GeoPicksHighestConfidence(t *testing.T) {
	a := &models.SourceEvent{ID: "a1", Geo: &models.Geo{Latitude: 1, Longitude: 1, Confidence: 0.5}}
	b := &models.SourceEvent{ID: "b1", Geo: &models.Geo{Latitude: 2, Longitude: 2, Confidence: 0.9}}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 1.0, Valid: true}

	canonical := Synthesize(c, byID, nil, testCfg())
	if canonical.Geo.Confidence != 0.9 {
		t.Fatalf("expected higher-confidence geo to win, got %+v", canonical.Geo)
	}
	if canonical.FieldProvenance["geo"] != "b1" {
		t.Fatalf("expected geo provenance b1, got %q", canonical.FieldProvenance["geo"])
	}
}

func TestSynthesize_LocationCityModeBreaksTiesByPreference(t *testing.T) {
	a := &models.SourceEvent{ID: "a1", SourceType: models.SourceTypeAnzeige, Location: models.Location{City: "Offenburg"}}
	b := &models.SourceEvent{ID: "b1", SourceType: models.SourceTypeArtikel, Location: models.Location{City: "Ortenau"}}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 1.0, Valid: true}

	canonical := Synthesize(c, byID, nil, testCfg())
	if canonical.Location.City != "Ortenau" {
		t.Fatalf("expected artikel source to win city tie-break, got %q", canonical.Location.City)
	}
}

func TestSynthesize_FlagsAreLogicalOr(t *testing.T) {
	a := &models.SourceEvent{ID: "a1", Flags: models.EventFlags{IsFamily: true}}
	b := &models.SourceEvent{ID: "b1", Flags: models.EventFlags{AdmissionFree: true}}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 1.0, Valid: true}

	canonical := Synthesize(c, byID, nil, testCfg())
	if !canonical.Flags.IsFamily || !canonical.Flags.AdmissionFree {
		t.Fatalf("expected both flags OR'd true, got %+v", canonical.Flags)
	}
}

func TestSynthesize_NeedsReviewReflectsClusterValidity(t *testing.T) {
	a := &models.SourceEvent{ID: "a1"}
	byID := map[string]*models.SourceEvent{"a1": a}
	c := cluster.Cluster{Members: []string{"a1"}, AvgInternalEdge: 1.0, Valid: false}

	canonical := Synthesize(c, byID, nil, testCfg())
	if !canonical.NeedsReview {
		t.Fatalf("expected needs_review=true for an invalid cluster")
	}
}

func TestSynthesize_AIAssistedTrueWhenAnyContributingEdgeIsAI(t *testing.T) {
	a := &models.SourceEvent{ID: "a1"}
	b := &models.SourceEvent{ID: "b1"}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 0.9, Valid: true}
	decisions := []models.MatchDecision{{IDA: "a1", IDB: "b1", Tier: models.TierAI, Decision: models.DecisionMatch}}

	canonical := Synthesize(c, byID, decisions, testCfg())
	if !canonical.AIAssisted {
		t.Fatalf("expected ai_assisted=true")
	}
}

func TestSynthesize_AIAssistedFalseWhenAllDeterministic(t *testing.T) {
	a := &models.SourceEvent{ID: "a1"}
	b := &models.SourceEvent{ID: "b1"}
	byID := map[string]*models.SourceEvent{"a1": a, "b1": b}
	c := cluster.Cluster{Members: []string{"a1", "b1"}, AvgInternalEdge: 0.9, Valid: true}
	decisions := []models.MatchDecision{{IDA: "a1", IDB: "b1", Tier: models.TierDeterministic, Decision: models.DecisionMatch}}

	canonical := Synthesize(c, byID, decisions, testCfg())
	if canonical.AIAssisted {
		t.Fatalf("expected ai_assisted=false")
	}
}
