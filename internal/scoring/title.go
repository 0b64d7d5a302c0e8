// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import "github.com/dedupecore/eventdedupe/internal/models"

// TitleConfig controls the title scorer's blending behavior.
type TitleConfig struct {
	PrimaryWeight                 float64
	SecondaryWeight               float64
	BlendLower                    float64
	BlendUpper                    float64
	CrossSourceTypePrimaryWeight   float64
	CrossSourceTypeSecondaryWeight float64
}

// DefaultTitleConfig reproduces the scorer's fixed default tuning.
func DefaultTitleConfig() TitleConfig {
	return TitleConfig{
		PrimaryWeight:                  0.7,
		SecondaryWeight:                0.3,
		BlendLower:                     0.40,
		BlendUpper:                     0.80,
		CrossSourceTypePrimaryWeight:   0.4,
		CrossSourceTypeSecondaryWeight: 0.6,
	}
}

// TitleScore computes token-sort similarity on normalized titles, blending
// in token-set similarity when the sort ratio falls in the ambiguous band.
// Journalistic headlines (artikel) compared against calendar listings
// (terminliste) use cross-source-type weights, since the two genres
// diverge lexically even for the same event.
func TitleScore(a, b *models.SourceEvent, cfg TitleConfig) float64 {
	sortRatio := TokenSortRatio(a.Title.Normalized, b.Title.Normalized)
	if sortRatio < cfg.BlendLower || sortRatio > cfg.BlendUpper {
		return sortRatio
	}

	setRatio := TokenSetRatio(a.Title.Normalized, b.Title.Normalized)
	primary, secondary := cfg.PrimaryWeight, cfg.SecondaryWeight
	if isArtikelTerminlisteCrossover(a.SourceType, b.SourceType) {
		primary, secondary = cfg.CrossSourceTypePrimaryWeight, cfg.CrossSourceTypeSecondaryWeight
	}

	return primary*sortRatio + secondary*setRatio
}

func isArtikelTerminlisteCrossover(a, b models.SourceType) bool {
	if a == b {
		return false
	}
	isEither := func(t models.SourceType) bool {
		return t == models.SourceTypeArtikel || t == models.SourceTypeTerminliste
	}
	return isEither(a) && isEither(b)
}
