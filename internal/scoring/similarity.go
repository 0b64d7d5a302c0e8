// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scoring implements the four independent pairwise signal scorers:
// date, geographic, title, and description. Each is a pure function of two
// event records and the relevant config slice.
package scoring

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ratio is the classic edit-distance similarity in [0,1]:
// (lensum - distance) / lensum, equal for ratio(a,b) and ratio(b,a).
func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	lensum := len(a) + len(b)
	if lensum == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	r := float64(lensum-dist) / float64(lensum)
	if r < 0 {
		return 0
	}
	return r
}

func tokens(s string) []string {
	return strings.Fields(s)
}

func sortedJoin(toks []string) string {
	sorted := append([]string(nil), toks...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// TokenSortRatio sorts the whitespace-separated tokens of each string and
// edit-ratios the rejoined strings. Symmetric in a and b.
func TokenSortRatio(a, b string) float64 {
	return ratio(sortedJoin(tokens(a)), sortedJoin(tokens(b)))
}

func toSet(toks []string) map[string]bool {
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

// TokenSetRatio computes the ratio over the shared-token prefix plus the
// symmetric differences of the two token sets, taking the best of three
// comparisons. This tolerates one string being a superset of the other's
// vocabulary (e.g. a terse calendar listing vs. a full headline).
func TokenSetRatio(a, b string) float64 {
	setA := toSet(tokens(a))
	setB := toSet(tokens(b))

	var intersection, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			intersection = append(intersection, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(intersection)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sortedInter := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(strings.TrimSpace(sortedInter + " " + strings.Join(onlyA, " ")))
	combinedB := strings.TrimSpace(strings.TrimSpace(sortedInter + " " + strings.Join(onlyB, " ")))

	best := ratio(sortedInter, combinedA)
	if r := ratio(sortedInter, combinedB); r > best {
		best = r
	}
	if r := ratio(combinedA, combinedB); r > best {
		best = r
	}
	return best
}
