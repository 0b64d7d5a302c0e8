// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import (
	"math"
	"strings"

	"github.com/dedupecore/eventdedupe/internal/models"
	"github.com/dedupecore/eventdedupe/internal/normalize"
)

const earthRadiusKM = 6371.0

// GeoConfig controls the geographic scorer.
type GeoConfig struct {
	MaxDistanceKM            float64
	MinConfidence            float64
	NeutralScore             float64
	VenueMatchDistanceKM     float64
	VenueMismatchFactor      float64
	VenueSimilarityThreshold float64
}

// DefaultGeoConfig reproduces the scorer's fixed default tuning.
func DefaultGeoConfig() GeoConfig {
	return GeoConfig{
		MaxDistanceKM:            10,
		MinConfidence:            0.85,
		NeutralScore:             0.5,
		VenueMatchDistanceKM:     1.0,
		VenueMismatchFactor:      0.5,
		VenueSimilarityThreshold: 0.50,
	}
}

// GeoScore computes great-circle proximity between two events, with a
// venue-name sanity check for very close coordinates.
func GeoScore(a, b *models.SourceEvent, cfg GeoConfig) float64 {
	if !a.Geo.HasCoordinates() || !b.Geo.HasCoordinates() {
		return cfg.NeutralScore
	}
	if math.Min(a.Geo.Confidence, b.Geo.Confidence) < cfg.MinConfidence {
		return cfg.NeutralScore
	}

	d := haversineKM(a.Geo.Latitude, a.Geo.Longitude, b.Geo.Latitude, b.Geo.Longitude)
	score := 1 - d/cfg.MaxDistanceKM
	if score < 0 {
		score = 0
	}

	nameA := strings.TrimSpace(normalize.Normalize(a.Location.Name, "", nil))
	nameB := strings.TrimSpace(normalize.Normalize(b.Location.Name, "", nil))
	if d < cfg.VenueMatchDistanceKM && nameA != "" && nameB != "" {
		sim := TokenSortRatio(nameA, nameB)
		mutuallyNonPrefix := !strings.HasPrefix(nameA, nameB) && !strings.HasPrefix(nameB, nameA)
		if sim < cfg.VenueSimilarityThreshold && mutuallyNonPrefix {
			score *= cfg.VenueMismatchFactor
		}
	}

	return score
}

// haversineKM returns the great-circle distance in kilometers between two
// WGS84 coordinates using radius R=6371km.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	la1, la2 := toRad(lat1), toRad(lat2)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
