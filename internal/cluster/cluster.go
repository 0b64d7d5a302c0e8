// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cluster computes connected components over the match graph and
// partitions them into coherent and flagged clusters. Components are
// computed via union-find over decision edges.
package cluster

import (
	"sort"

	"github.com/dedupecore/eventdedupe/internal/config"
	"github.com/dedupecore/eventdedupe/internal/models"
)

// Cluster is one connected component of the match graph, already judged
// for coherence.
type Cluster struct {
	Members         []string
	AvgInternalEdge float64
	DistinctDates   int
	Valid           bool
}

// union-find over event ids, path-compressed.
type forest struct {
	parent map[string]string
}

func newForest(ids []string) *forest {
	f := &forest{parent: make(map[string]string, len(ids))}
	for _, id := range ids {
		f.parent[id] = id
	}
	return f
}

func (f *forest) find(x string) string {
	root := x
	for f.parent[root] != root {
		root = f.parent[root]
	}
	for f.parent[x] != root {
		f.parent[x], x = root, f.parent[x]
	}
	return root
}

func (f *forest) union(a, b string) {
	ra, rb := f.find(a), f.find(b)
	if ra != rb {
		f.parent[ra] = rb
	}
}

type edge struct {
	a, b   string
	weight float64
}

// Build groups events into clusters from match edges, any pinned manual
// assignments, and every event as a singleton node so isolated events
// survive. pinned maps a source event id to a canonical id a prior run's
// manual review fixed it to: manual corrections are honored by forcing
// every source pinned to the same canonical id into one component, ahead
// of the graph's own edges.
func Build(events []*models.SourceEvent, decisions []models.MatchDecision, pinned map[string]int64, cfg config.ClusterConfig) []Cluster {
	ids := make([]string, 0, len(events))
	eventByID := make(map[string]*models.SourceEvent, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		eventByID[e.ID] = e
	}

	f := newForest(ids)

	var edges []edge
	for _, d := range decisions {
		if d.Decision == models.DecisionMatch {
			edges = append(edges, edge{d.IDA, d.IDB, d.Combined})
			f.union(d.IDA, d.IDB)
		}
	}

	applyPins(f, pinned)

	groups := make(map[string][]string)
	for _, id := range ids {
		root := f.find(id)
		groups[root] = append(groups[root], id)
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, members := range groups {
		sort.Strings(members)
		clusters = append(clusters, build(members, edges, eventByID, cfg))
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0] < clusters[j].Members[0]
	})

	return clusters
}

func build(members []string, edges []edge, eventByID map[string]*models.SourceEvent, cfg config.ClusterConfig) Cluster {
	inCluster := make(map[string]bool, len(members))
	for _, m := range members {
		inCluster[m] = true
	}

	var sum float64
	var count int
	for _, e := range edges {
		if inCluster[e.a] && inCluster[e.b] {
			sum += e.weight
			count++
		}
	}

	avg := 1.0
	if count > 0 {
		avg = sum / float64(count)
	}

	distinctDates := countDistinctDates(members, eventByID)

	c := Cluster{
		Members:         members,
		AvgInternalEdge: avg,
		DistinctDates:   distinctDates,
	}

	// Cheapest-first short circuit: size, then similarity, then date spread.
	c.Valid = len(members) <= cfg.MaxClusterSize &&
		avg >= cfg.MinInternalSimilarity &&
		distinctDates <= cfg.MaxDateSpreadDays

	return c
}

func countDistinctDates(members []string, eventByID map[string]*models.SourceEvent) int {
	seen := make(map[string]struct{})
	for _, id := range members {
		e, ok := eventByID[id]
		if !ok {
			continue
		}
		for _, d := range e.Dates {
			seen[d.Date] = struct{}{}
		}
	}
	return len(seen)
}

func applyPins(f *forest, pinned map[string]int64) {
	byCanonical := make(map[int64][]string)
	for sourceID, canonicalID := range pinned {
		byCanonical[canonicalID] = append(byCanonical[canonicalID], sourceID)
	}
	for _, members := range byCanonical {
		for i := 1; i < len(members); i++ {
			if _, ok := f.parent[members[i]]; !ok {
				continue
			}
			if _, ok := f.parent[members[0]]; !ok {
				continue
			}
			f.union(members[0], members[i])
		}
	}
}
