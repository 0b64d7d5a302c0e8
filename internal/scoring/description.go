// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import "github.com/dedupecore/eventdedupe/internal/models"

// DescriptionNeutralScore is returned when both events lack a description.
const DescriptionNeutralScore = 0.5

// DescriptionMissingOneScore is returned when exactly one event has a
// description; a single source contributing text is weak but not absent
// evidence.
const DescriptionMissingOneScore = 0.4

// DescriptionScore compares the best available normalized description of
// each event (long description preferred over short) via token-sort ratio.
func DescriptionScore(a, b *models.SourceEvent) float64 {
	descA := bestDescription(a)
	descB := bestDescription(b)

	switch {
	case descA == "" && descB == "":
		return DescriptionNeutralScore
	case descA == "" || descB == "":
		return DescriptionMissingOneScore
	default:
		return TokenSortRatio(descA, descB)
	}
}

func bestDescription(e *models.SourceEvent) string {
	if e.LongDescription != nil && e.LongDescription.Normalized != "" {
		return e.LongDescription.Normalized
	}
	if e.ShortDescription != nil {
		return e.ShortDescription.Normalized
	}
	return ""
}
