// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models defines the data schema shared by every stage of the
// matching pipeline: the immutable SourceEvent ingested from a publication,
// the synthesized CanonicalEvent that represents one real-world event, and
// the audit records (MatchDecision, AIResolutionCacheEntry, AIUsageLedger)
// produced along the way.
package models

import "time"

// SourceType classifies how a publication described an event.
type SourceType string

const (
	SourceTypeArtikel     SourceType = "artikel"
	SourceTypeTerminliste SourceType = "terminliste"
	SourceTypeAnzeige     SourceType = "anzeige"
)

// EventDate is one occurrence of an event: a date plus optional start/end
// times and an optional end date for multi-day ranges.
type EventDate struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	StartTime *string `json:"start_time,omitempty"` // HH:MM
	EndTime   *string `json:"end_time,omitempty"`   // HH:MM
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD, inclusive
}

// Location describes where an event takes place.
type Location struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	District string `json:"district"`
	Street   string `json:"street"`
	Zipcode  string `json:"zipcode"`
}

// Geo is a geographic point with a confidence score in [0,1].
type Geo struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Confidence float64 `json:"confidence"`
}

// HasCoordinates reports whether the geo point carries usable coordinates.
func (g *Geo) HasCoordinates() bool {
	return g != nil && (g.Latitude != 0 || g.Longitude != 0)
}

// EventFlags are boolean tags describing the audience of an event.
type EventFlags struct {
	IsFamily       bool `json:"is_family"`
	IsChildFocused bool `json:"is_child_focused"`
	AdmissionFree  bool `json:"admission_free"`
}

// TextField carries both the raw and normalized form of a free-text field,
// so normalization (internal/normalize) never has to be redone downstream.
type TextField struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// IngestionMeta records where and when a SourceEvent entered the system.
// The core never mutates these fields; they exist for audit purposes only.
type IngestionMeta struct {
	FileID      string    `json:"file_id"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// SourceEvent is an event description extracted from a single publication.
// It is immutable after ingestion: the core only ever reads it.
type SourceEvent struct {
	ID   string `json:"id"`
	Title TextField `json:"title"`

	ShortDescription *TextField `json:"short_description,omitempty"`
	LongDescription  *TextField `json:"long_description,omitempty"`
	Highlights       []string   `json:"highlights,omitempty"`

	Location Location `json:"location"`
	Geo      *Geo     `json:"geo,omitempty"`

	SourceCode string     `json:"source_code"`
	SourceType SourceType `json:"source_type"`
	Categories []string   `json:"categories,omitempty"`
	Flags      EventFlags `json:"flags"`

	Dates []EventDate `json:"dates"`

	Ingestion IngestionMeta `json:"ingestion"`
}

// IsOnline reports whether the event carries neither a city nor coordinates,
// meaning it has no geo blocking key and can only be matched via the AI
// pathway.
func (e *SourceEvent) IsOnline() bool {
	return e.Location.City == "" && !e.Geo.HasCoordinates()
}
