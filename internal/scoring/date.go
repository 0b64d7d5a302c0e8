// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scoring

import (
	"sort"
	"time"

	"github.com/dedupecore/eventdedupe/internal/models"
)

const dayLayout = "2006-01-02"
const timeLayout = "15:04"

// DateConfig controls the date scorer's time-proximity factor.
type DateConfig struct {
	TimeToleranceMinutes float64
	TimeCloseMinutes     float64
	CloseFactor          float64
	TimeGapPenaltyHours  float64
	FarFactor            float64
	TimeGapPenaltyFactor float64
}

// DefaultDateConfig reproduces the fixed time-proximity thresholds:
// <=30min -> 1.0, <=90min -> 0.7, <=120min -> 0.3, >120min -> 0.15.
func DefaultDateConfig() DateConfig {
	return DateConfig{
		TimeToleranceMinutes: 30,
		TimeCloseMinutes:     90,
		CloseFactor:          0.7,
		TimeGapPenaltyHours:  2,
		FarFactor:            0.3,
		TimeGapPenaltyFactor: 0.15,
	}
}

// expandDates returns the set of concrete dates an event occupies, with any
// end_date range expanded inclusive.
func expandDates(dates []models.EventDate) map[string]struct{} {
	set := make(map[string]struct{})
	for i := range dates {
		for d := range datesFor(&dates[i]) {
			set[d] = struct{}{}
		}
	}
	return set
}

func datesFor(d *models.EventDate) map[string]struct{} {
	out := map[string]struct{}{}
	start, err := time.Parse(dayLayout, d.Date)
	if err != nil {
		out[d.Date] = struct{}{}
		return out
	}
	if d.EndDate == nil {
		out[d.Date] = struct{}{}
		return out
	}
	end, err := time.Parse(dayLayout, *d.EndDate)
	if err != nil || end.Before(start) {
		out[d.Date] = struct{}{}
		return out
	}
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		out[cur.Format(dayLayout)] = struct{}{}
	}
	return out
}

// buildDateIndex maps every concrete date a list of EventDates covers back
// to the EventDate entry carrying its start/end times.
func buildDateIndex(dates []models.EventDate) map[string]*models.EventDate {
	idx := make(map[string]*models.EventDate)
	for i := range dates {
		for d := range datesFor(&dates[i]) {
			if _, exists := idx[d]; !exists {
				idx[d] = &dates[i]
			}
		}
	}
	return idx
}

// DateScore computes Jaccard overlap of the two events' expanded date sets,
// scaled by a time-proximity factor when both events carry a start_time on
// the earliest overlapping date.
func DateScore(a, b *models.SourceEvent, cfg DateConfig) float64 {
	setA := expandDates(a.Dates)
	setB := expandDates(b.Dates)

	union := make(map[string]struct{}, len(setA)+len(setB))
	var overlap []string
	for d := range setA {
		union[d] = struct{}{}
		if _, ok := setB[d]; ok {
			overlap = append(overlap, d)
		}
	}
	for d := range setB {
		union[d] = struct{}{}
	}
	if len(union) == 0 || len(overlap) == 0 {
		return 0
	}

	jaccard := float64(len(overlap)) / float64(len(union))
	factor := timeProximityFactor(overlap, a.Dates, b.Dates, cfg)
	return jaccard * factor
}

func timeProximityFactor(overlap []string, datesA, datesB []models.EventDate, cfg DateConfig) float64 {
	idxA := buildDateIndex(datesA)
	idxB := buildDateIndex(datesB)

	sort.Strings(overlap)
	for _, d := range overlap {
		ea, okA := idxA[d]
		eb, okB := idxB[d]
		if !okA || !okB || ea.StartTime == nil || eb.StartTime == nil {
			continue
		}
		ta, errA := time.Parse(timeLayout, *ea.StartTime)
		tb, errB := time.Parse(timeLayout, *eb.StartTime)
		if errA != nil || errB != nil {
			continue
		}
		delta := diffMinutes(ta, tb)
		return factorForDelta(delta, cfg)
	}
	return 1.0
}

func diffMinutes(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Minutes()
}

func factorForDelta(delta float64, cfg DateConfig) float64 {
	switch {
	case delta <= cfg.TimeToleranceMinutes:
		return 1.0
	case delta <= cfg.TimeCloseMinutes:
		return cfg.CloseFactor
	case delta <= cfg.TimeGapPenaltyHours*60:
		return cfg.FarFactor
	default:
		return cfg.TimeGapPenaltyFactor
	}
}
