// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package synth builds a CanonicalEvent from a cluster's member source
// events, applying each field's configured synthesis strategy
// (longest-normalized, most-frequent, highest-confidence, union-all-sources,
// any-true).
package synth

import (
	"sort"

	"github.com/dedupecore/eventdedupe/internal/cluster"
	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/models"
)

// Synthesize builds the canonical record for one cluster. eventByID must
// contain every id in c.Members; decisions is the full deterministic+AI
// decision set, used only to determine ai_assisted.
func Synthesize(c cluster.Cluster, eventByID map[string]*models.SourceEvent, decisions []models.MatchDecision, cfg config.CanonicalConfig) models.CanonicalEvent {
	members := make([]*models.SourceEvent, 0, len(c.Members))
	for _, id := range c.Members {
		if e, ok := eventByID[id]; ok {
			members = append(members, e)
		}
	}

	provenance := make(map[string]string)

	canonical := models.CanonicalEvent{
		SourceCount:     len(c.Members),
		MatchConfidence: c.AvgInternalEdge,
		NeedsReview:     !c.Valid,
		AIAssisted:      aiAssisted(c.Members, decisions),
		FieldProvenance: provenance,
		Version:         1,
	}

	canonical.Title = longestText(members, provenance, "title", func(e *models.SourceEvent) *models.TextField { return &e.Title })
	canonical.ShortDescription = longestOptionalText(members, provenance, "short_description", func(e *models.SourceEvent) *models.TextField { return e.ShortDescription })
	canonical.LongDescription = longestOptionalText(members, provenance, "long_description", func(e *models.SourceEvent) *models.TextField { return e.LongDescription })
	canonical.Highlights = unionStrings(members, provenance, "highlights", func(e *models.SourceEvent) []string { return e.Highlights })
	canonical.Categories = unionStrings(members, provenance, "categories", func(e *models.SourceEvent) []string { return e.Categories })
	canonical.Dates = unionDates(members, provenance, "dates")
	canonical.Location = synthesizeLocation(members, provenance, cfg.SourceTypePreference)
	canonical.Geo = synthesizeGeo(members, provenance)
	canonical.Flags = synthesizeFlags(members)
	provenance["flags"] = models.ProvenanceUnionAll

	return canonical
}

func aiAssisted(members []string, decisions []models.MatchDecision) bool {
	inCluster := make(map[string]bool, len(members))
	for _, m := range members {
		inCluster[m] = true
	}
	for _, d := range decisions {
		if !inCluster[d.IDA] || !inCluster[d.IDB] {
			continue
		}
		if d.Tier == models.TierAI || d.Tier == models.TierAILowConfidence {
			return true
		}
	}
	return false
}

// longestText picks the member whose normalized text is at least 10
// characters and longest among those qualifying; failing that, the
// longest overall.
func longestText(members []*models.SourceEvent, provenance map[string]string, field string, get func(*models.SourceEvent) *models.TextField) models.TextField {
	var bestQualifying, bestAny *models.SourceEvent
	var bestQualifyingLen, bestAnyLen int

	for _, e := range members {
		tf := get(e)
		n := len([]rune(tf.Normalized))
		if n == 0 {
			continue
		}
		if n > bestAnyLen {
			bestAny, bestAnyLen = e, n
		}
		if n >= 10 && n > bestQualifyingLen {
			bestQualifying, bestQualifyingLen = e, n
		}
	}

	chosen := bestQualifying
	if chosen == nil {
		chosen = bestAny
	}
	if chosen == nil {
		return models.TextField{}
	}

	provenance[field] = chosen.ID
	return *get(chosen)
}

func longestOptionalText(members []*models.SourceEvent, provenance map[string]string, field string, get func(*models.SourceEvent) *models.TextField) *models.TextField {
	var best *models.SourceEvent
	var bestLen int

	for _, e := range members {
		tf := get(e)
		if tf == nil {
			continue
		}
		n := len([]rune(tf.Normalized))
		if n > bestLen {
			best, bestLen = e, n
		}
	}

	if best == nil {
		return nil
	}
	provenance[field] = best.ID
	result := *get(best)
	return &result
}

func unionStrings(members []*models.SourceEvent, provenance map[string]string, field string, get func(*models.SourceEvent) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range members {
		for _, v := range get(e) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	if len(out) > 0 {
		provenance[field] = models.ProvenanceUnionAll
	}
	return out
}

func unionDates(members []*models.SourceEvent, provenance map[string]string, field string) []models.EventDate {
	type key struct {
		date, start, end, endDate string
	}
	seen := make(map[key]struct{})
	var out []models.EventDate
	for _, e := range members {
		for _, d := range e.Dates {
			k := key{date: d.Date}
			if d.StartTime != nil {
				k.start = *d.StartTime
			}
			if d.EndTime != nil {
				k.end = *d.EndTime
			}
			if d.EndDate != nil {
				k.endDate = *d.EndDate
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, d)
		}
	}
	if len(out) > 0 {
		provenance[field] = models.ProvenanceUnionAll
	}
	return out
}

func synthesizeLocation(members []*models.SourceEvent, provenance map[string]string, sourceTypePreference []string) models.Location {
	if len(members) == 0 {
		return models.Location{}
	}

	// location_name/street/zipcode/district: source with the most non-null fields.
	var bestDetail *models.SourceEvent
	bestNonNull := -1
	for _, e := range members {
		n := nonNullLocationFields(e.Location)
		if n > bestNonNull {
			bestDetail, bestNonNull = e, n
		}
	}

	loc := models.Location{
		Name:     bestDetail.Location.Name,
		District: bestDetail.Location.District,
		Street:   bestDetail.Location.Street,
		Zipcode:  bestDetail.Location.Zipcode,
	}
	provenance["location_name"] = bestDetail.ID
	provenance["location_street"] = bestDetail.ID
	provenance["location_zipcode"] = bestDetail.ID
	provenance["location_district"] = bestDetail.ID

	// location_city: mode across sources; ties broken by source-type preference.
	cityFor := make(map[string]*models.SourceEvent)
	counts := make(map[string]int)
	for _, e := range members {
		if e.Location.City == "" {
			continue
		}
		counts[e.Location.City]++
		if _, ok := cityFor[e.Location.City]; !ok {
			cityFor[e.Location.City] = e
		}
	}

	loc.City, provenance["location_city"] = modeCity(counts, cityFor, sourceTypePreference)

	return loc
}

func nonNullLocationFields(loc models.Location) int {
	n := 0
	if loc.Name != "" {
		n++
	}
	if loc.District != "" {
		n++
	}
	if loc.Street != "" {
		n++
	}
	if loc.Zipcode != "" {
		n++
	}
	return n
}

func modeCity(counts map[string]int, cityFor map[string]*models.SourceEvent, sourceTypePreference []string) (string, string) {
	if len(counts) == 0 {
		return "", ""
	}

	best := -1
	var tied []string
	for city, n := range counts {
		if n > best {
			best, tied = n, []string{city}
		} else if n == best {
			tied = append(tied, city)
		}
	}

	if len(tied) == 1 {
		e := cityFor[tied[0]]
		return tied[0], e.ID
	}

	sort.Strings(tied)
	rank := func(st models.SourceType) int {
		for i, pref := range sourceTypePreference {
			if string(st) == pref {
				return i
			}
		}
		return len(sourceTypePreference)
	}

	bestCity := tied[0]
	bestRank := rank(cityFor[bestCity].SourceType)
	for _, city := range tied[1:] {
		if r := rank(cityFor[city].SourceType); r < bestRank {
			bestCity, bestRank = city, r
		}
	}

	return bestCity, cityFor[bestCity].ID
}

func synthesizeGeo(members []*models.SourceEvent, provenance map[string]string) *models.Geo {
	var best *models.SourceEvent
	var bestConfidence float64 = -1
	for _, e := range members {
		if e.Geo == nil {
			continue
		}
		if e.Geo.Confidence > bestConfidence {
			best, bestConfidence = e, e.Geo.Confidence
		}
	}
	if best == nil {
		return nil
	}
	provenance["geo"] = best.ID
	geo := *best.Geo
	return &geo
}

func synthesizeFlags(members []*models.SourceEvent) models.EventFlags {
	var flags models.EventFlags
	for _, e := range members {
		flags.IsFamily = flags.IsFamily || e.Flags.IsFamily
		flags.IsChildFocused = flags.IsChildFocused || e.Flags.IsChildFocused
		flags.AdmissionFree = flags.AdmissionFree || e.Flags.AdmissionFree
	}
	return flags
}
