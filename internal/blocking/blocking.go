// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package blocking generates candidate-pair blocking keys per event,
// restricting pairwise comparison to events that share a date and either a
// city or a coarse geo grid cell.
package blocking

import (
	"fmt"
	"math"
	"strings"

	"github.com/dedupecore/eventdedupe/internal/models"
)

// MinGeoConfidence is the minimum geo confidence required to emit a
// date+geo-grid blocking key.
const MinGeoConfidence = 0.80

// Keys returns the set of blocking keys for an event. Online events (no
// city, no usable geo) yield no keys and can only be matched via AI.
func Keys(e *models.SourceEvent) []string {
	var keys []string

	city := strings.ToLower(strings.TrimSpace(e.Location.City))

	for _, d := range e.Dates {
		if city != "" {
			keys = append(keys, fmt.Sprintf("dc|%s|%s", d.Date, city))
		}
		if e.Geo.HasCoordinates() && e.Geo.Confidence >= MinGeoConfidence {
			keys = append(keys, fmt.Sprintf("dg|%s|%.2f|%.2f", d.Date, round2(e.Geo.Latitude), round2(e.Geo.Longitude)))
		}
	}

	return keys
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
