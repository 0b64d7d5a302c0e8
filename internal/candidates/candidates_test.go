// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package candidates

import (
	"testing"

	"github.com/dedupecore/eventdedupe/internal/models"
)

func event(id, source, city string) *models.SourceEvent {
	return &models.SourceEvent{
		ID:         id,
		SourceCode: source,
		Location:   models.Location{City: city},
		Dates:      []models.EventDate{{Date: "2026-02-14"}},
	}
}

func TestGenerateDedupesMultiKeyPair(t *testing.T) {
	a := event("A1", "x", "Offenburg")
	a.Geo = &models.Geo{Latitude: 48.47, Longitude: 7.94, Confidence: 0.9}
	b := event("A2", "y", "Offenburg")
	b.Geo = &models.Geo{Latitude: 48.47, Longitude: 7.94, Confidence: 0.9}

	pairs := Generate([]*models.SourceEvent{a, b})
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one deduplicated pair, got %d: %v", len(pairs), pairs)
	}
	if pairs[0].IDA != "A1" || pairs[0].IDB != "A2" {
		t.Fatalf("unexpected pair %v", pairs[0])
	}
}

func TestGenerateExcludesSameSource(t *testing.T) {
	a := event("A1", "x", "Offenburg")
	b := event("A2", "x", "Offenburg")
	if pairs := Generate([]*models.SourceEvent{a, b}); len(pairs) != 0 {
		t.Fatalf("expected no pairs for same-source events, got %v", pairs)
	}
}

func TestGenerateSingleBucketMemberYieldsNoPair(t *testing.T) {
	a := event("A1", "x", "Offenburg")
	if pairs := Generate([]*models.SourceEvent{a}); len(pairs) != 0 {
		t.Fatalf("expected no pairs, got %v", pairs)
	}
}

func TestGenerateBlockingSoundness(t *testing.T) {
	a := event("A1", "x", "Offenburg")
	b := event("A2", "y", "Offenburg")
	c := event("C1", "z", "Freiburg")

	pairs := Generate([]*models.SourceEvent{a, b, c})
	for _, p := range pairs {
		if p.IDA == "C1" || p.IDB == "C1" {
			t.Fatalf("event in a different city produced a candidate pair: %v", p)
		}
	}
}
