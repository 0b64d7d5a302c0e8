// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

package airesolver

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/dedupecore/eventdedupe/internal/models"
)

// ContentHash computes a stable identity for a candidate pair over its
// matching-relevant fields only: timestamps and batch metadata are
// excluded, and the two event representations are sorted before hashing so
// the hash is independent of argument order.
func ContentHash(a, b *models.SourceEvent) string {
	ra, rb := representEvent(a), representEvent(b)
	reps := []string{ra, rb}
	sort.Strings(reps)

	h := sha256.New()
	h.Write([]byte(reps[0]))
	h.Write([]byte{0})
	h.Write([]byte(reps[1]))
	return hex.EncodeToString(h.Sum(nil))
}

func representEvent(e *models.SourceEvent) string {
	var sb strings.Builder
	sb.WriteString(e.Title.Normalized)
	sb.WriteByte('\x1f')
	if e.ShortDescription != nil {
		sb.WriteString(e.ShortDescription.Normalized)
	}
	sb.WriteByte('\x1f')
	if e.LongDescription != nil {
		sb.WriteString(e.LongDescription.Normalized)
	}
	sb.WriteByte('\x1f')
	sb.WriteString(e.Location.Name)
	sb.WriteByte(',')
	sb.WriteString(e.Location.City)
	sb.WriteByte('\x1f')
	sb.WriteString(string(e.SourceType))
	sb.WriteByte('\x1f')

	dates := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		dates = append(dates, dateKey(d))
	}
	sort.Strings(dates)
	sb.WriteString(strings.Join(dates, ","))

	return sb.String()
}

func dateKey(d models.EventDate) string {
	var sb strings.Builder
	sb.WriteString(d.Date)
	if d.StartTime != nil {
		sb.WriteByte('@')
		sb.WriteString(*d.StartTime)
	}
	if d.EndTime != nil {
		sb.WriteByte('-')
		sb.WriteString(*d.EndTime)
	}
	if d.EndDate != nil {
		sb.WriteByte('>')
		sb.WriteString(*d.EndDate)
	}
	return sb.String()
}
