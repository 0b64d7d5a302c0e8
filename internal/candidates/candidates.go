// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package candidates enumerates candidate event pairs from blocking keys:
// events sharing at least one key, excluding same-source pairs,
// deduplicated by canonical (min,max) id ordering.
package candidates

import (
	"sort"

	"github.com/dedupecore/eventdedupe/internal/blocking"
	"github.com/dedupecore/eventdedupe/internal/models"
)

// Pair is a deduplicated, canonically-ordered candidate pair.
type Pair struct {
	IDA, IDB string
}

// Generate buckets events by blocking key and emits every unordered
// within-bucket pair from distinct sources, deduplicated across buckets.
func Generate(events []*models.SourceEvent) []Pair {
	byID := make(map[string]*models.SourceEvent, len(events))
	buckets := make(map[string][]string)

	for _, e := range events {
		byID[e.ID] = e
		for _, k := range blocking.Keys(e) {
			buckets[k] = append(buckets[k], e.ID)
		}
	}

	seen := make(map[[2]string]struct{})
	var pairs []Pair

	for _, ids := range buckets {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if byID[a].SourceCode == byID[b].SourceCode {
					continue
				}
				lo, hi := models.PairKey(a, b)
				key := [2]string{lo, hi}
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				pairs = append(pairs, Pair{IDA: lo, IDB: hi})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].IDA != pairs[j].IDA {
			return pairs[i].IDA < pairs[j].IDA
		}
		return pairs[i].IDB < pairs[j].IDB
	})

	return pairs
}
