// eventdedupe - German-language print event deduplication core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ingestloader provides a minimal EventLoader that reads SourceEvent
// rows back out of newline-delimited JSON files on disk, one file per file
// id. Parsing and transactional persistence of freshly-ingested JSON is a
// separate ingestion collaborator's job, out of scope here; this loader
// exists only so the batch CLI has something concrete to hand the driver.
package ingestloader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/dedupecore/eventdedupe/internal/models"
)

// FileLoader resolves a file id to a path under Dir and reads one
// SourceEvent per line.
type FileLoader struct {
	Dir string
}

// NewFileLoader builds a FileLoader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

// LoadEvents implements pipeline.EventLoader.
func (l *FileLoader) LoadEvents(ctx context.Context, fileIDs []string) ([]*models.SourceEvent, error) {
	var events []*models.SourceEvent
	for _, id := range fileIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(l.Dir, id+".ndjson")
		loaded, err := l.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load file %q: %w", id, err)
		}
		events = append(events, loaded...)
	}
	return events, nil
}

func (l *FileLoader) loadFile(path string) ([]*models.SourceEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var events []*models.SourceEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e models.SourceEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode source event: %w", err)
		}
		events = append(events, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
