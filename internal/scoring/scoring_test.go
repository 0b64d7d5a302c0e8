// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import (
	"testing"

	"github.com/dedupecore/eventdedupe/internal/models"
)

func strPtr(s string) *string { return &s }

func TestTokenSortRatioSymmetric(t *testing.T) {
	a := "fasnachtsumzug offenburg"
	b := "offenburg fasnachtsumzug grosser"
	if TokenSortRatio(a, b) != TokenSortRatio(b, a) {
		t.Fatal("TokenSortRatio must be symmetric")
	}
}

func TestTokenSortRatioIdentical(t *testing.T) {
	if r := TokenSortRatio("karneval waldkirch", "waldkirch karneval"); r != 1.0 {
		t.Fatalf("expected 1.0 for token-reordered identical strings, got %v", r)
	}
}

func TestDateScoreExactMatch(t *testing.T) {
	a := &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-02-14", StartTime: strPtr("14:00")}}}
	b := &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-02-14", StartTime: strPtr("14:00")}}}
	if s := DateScore(a, b, DefaultDateConfig()); s != 1.0 {
		t.Fatalf("expected 1.0, got %v", s)
	}
}

func TestDateScoreNoOverlapIsZero(t *testing.T) {
	a := &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-02-14"}}}
	b := &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-03-01"}}}
	if s := DateScore(a, b, DefaultDateConfig()); s != 0 {
		t.Fatalf("expected 0, got %v", s)
	}
}

func TestDateScoreTimeProximityFactor(t *testing.T) {
	cfg := DefaultDateConfig()
	base := func(start string) *models.SourceEvent {
		return &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-02-14", StartTime: strPtr(start)}}}
	}
	a := base("14:00")

	close := DateScore(a, base("14:20"), cfg) // 20 min
	if close != 1.0 {
		t.Fatalf("expected factor 1.0 for 20min delta, got %v", close)
	}
	mid := DateScore(a, base("15:10"), cfg) // 70 min
	if mid != 0.7 {
		t.Fatalf("expected factor 0.7 for 70min delta, got %v", mid)
	}
	far := DateScore(a, base("16:30"), cfg) // 150 min
	if far != 0.15 {
		t.Fatalf("expected factor 0.15 for 150min delta, got %v", far)
	}
}

func TestDateScoreEndDateRangeExpanded(t *testing.T) {
	a := &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-02-13", EndDate: strPtr("2026-02-15")}}}
	b := &models.SourceEvent{Dates: []models.EventDate{{Date: "2026-02-14"}}}
	if s := DateScore(a, b, DefaultDateConfig()); s <= 0 {
		t.Fatalf("expected positive overlap via range expansion, got %v", s)
	}
}

func TestGeoScoreMissingCoordsIsNeutral(t *testing.T) {
	a := &models.SourceEvent{}
	b := &models.SourceEvent{Geo: &models.Geo{Latitude: 1, Longitude: 1, Confidence: 0.9}}
	cfg := DefaultGeoConfig()
	if s := GeoScore(a, b, cfg); s != cfg.NeutralScore {
		t.Fatalf("expected neutral score %v, got %v", cfg.NeutralScore, s)
	}
}

func TestGeoScoreLowConfidenceIsNeutral(t *testing.T) {
	a := &models.SourceEvent{Geo: &models.Geo{Latitude: 48.47, Longitude: 7.94, Confidence: 0.5}}
	b := &models.SourceEvent{Geo: &models.Geo{Latitude: 48.47, Longitude: 7.94, Confidence: 0.95}}
	cfg := DefaultGeoConfig()
	if s := GeoScore(a, b, cfg); s != cfg.NeutralScore {
		t.Fatalf("expected neutral score, got %v", s)
	}
}

func TestGeoScoreSameCoordsIsOne(t *testing.T) {
	a := &models.SourceEvent{Geo: &models.Geo{Latitude: 48.4721, Longitude: 7.9406, Confidence: 0.95}}
	b := &models.SourceEvent{Geo: &models.Geo{Latitude: 48.4721, Longitude: 7.9406, Confidence: 0.95}}
	if s := GeoScore(a, b, DefaultGeoConfig()); s != 1.0 {
		t.Fatalf("expected 1.0 for identical coordinates, got %v", s)
	}
}

func TestGeoScoreVenueMismatchPenalizesCoincidentVenue(t *testing.T) {
	a := &models.SourceEvent{
		Geo:      &models.Geo{Latitude: 48.0, Longitude: 7.0, Confidence: 0.95},
		Location: models.Location{Name: "Stadthalle"},
	}
	b := &models.SourceEvent{
		Geo:      &models.Geo{Latitude: 48.0, Longitude: 7.0, Confidence: 0.95},
		Location: models.Location{Name: "Zwiebelturm Parkhaus"},
	}
	cfg := DefaultGeoConfig()
	withoutPenalty := 1.0
	s := GeoScore(a, b, cfg)
	if s >= withoutPenalty {
		t.Fatalf("expected venue-mismatch penalty to apply, got %v", s)
	}
}

func TestTitleScoreBelowBlendBandReturnsSortRatio(t *testing.T) {
	a := &models.SourceEvent{Title: models.TextField{Normalized: "voellig unterschiedliche sache"}}
	b := &models.SourceEvent{Title: models.TextField{Normalized: "ganz anderes thema heute"}}
	cfg := DefaultTitleConfig()
	want := TokenSortRatio(a.Title.Normalized, b.Title.Normalized)
	if want >= cfg.BlendLower {
		t.Skip("fixture not below blend band, adjust strings")
	}
	if got := TitleScore(a, b, cfg); got != want {
		t.Fatalf("TitleScore = %v, want sort ratio %v", got, want)
	}
}

func TestDescriptionScoreNeutralWhenBothMissing(t *testing.T) {
	a := &models.SourceEvent{}
	b := &models.SourceEvent{}
	if s := DescriptionScore(a, b); s != DescriptionNeutralScore {
		t.Fatalf("expected neutral score, got %v", s)
	}
}

func TestDescriptionScoreOneMissing(t *testing.T) {
	a := &models.SourceEvent{ShortDescription: &models.TextField{Normalized: "ein toller tag"}}
	b := &models.SourceEvent{}
	if s := DescriptionScore(a, b); s != DescriptionMissingOneScore {
		t.Fatalf("expected %v, got %v", DescriptionMissingOneScore, s)
	}
}
