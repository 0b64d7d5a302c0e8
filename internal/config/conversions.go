// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "github.com/dedupecore/eventdedupe/internal/scoring"

// ToDateConfig converts the loaded tuning values into the plain struct the
// scoring package's DateScore expects.
func (c DateScoringConfig) ToDateConfig() scoring.DateConfig {
	return scoring.DateConfig{
		TimeToleranceMinutes: c.TimeToleranceMinutes,
		TimeCloseMinutes:     c.TimeCloseMinutes,
		CloseFactor:          c.CloseFactor,
		TimeGapPenaltyHours:  c.TimeGapPenaltyHours,
		FarFactor:            c.FarFactor,
		TimeGapPenaltyFactor: c.TimeGapPenaltyFactor,
	}
}

// ToGeoConfig converts the loaded tuning values into the plain struct the
// scoring package's GeoScore expects.
func (c GeoScoringConfig) ToGeoConfig() scoring.GeoConfig {
	return scoring.GeoConfig{
		MaxDistanceKM:            c.MaxDistanceKM,
		MinConfidence:            c.MinConfidence,
		NeutralScore:             c.NeutralScore,
		VenueMatchDistanceKM:     c.VenueMatchDistanceKM,
		VenueMismatchFactor:      c.VenueMismatchFactor,
		VenueSimilarityThreshold: c.VenueSimilarityThreshold,
	}
}

// ToTitleConfig converts the loaded tuning values into the plain struct the
// scoring package's TitleScore expects.
func (c TitleScoringConfig) ToTitleConfig() scoring.TitleConfig {
	return scoring.TitleConfig{
		PrimaryWeight:                  c.PrimaryWeight,
		SecondaryWeight:                c.SecondaryWeight,
		BlendLower:                     c.BlendLower,
		BlendUpper:                     c.BlendUpper,
		CrossSourceTypePrimaryWeight:   c.CrossSourceTypePrimaryWeight,
		CrossSourceTypeSecondaryWeight: c.CrossSourceTypeSecondaryWeight,
	}
}
