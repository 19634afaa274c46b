/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sidecar loads and indexes per-document panel data files.
//
// A sidecar lives next to the document (same base name, .json extension) and
// supplies normalized panel rectangles plus the document reading direction.
// Three storage shapes are tolerated for resilience to varying producers:
// an array of page entries, a map keyed by filename or page number, or one
// flat panel list applied to every page.
package sidecar

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"panelreader/internal/domain"
	applog "panelreader/internal/log"
)

// Document is a parsed sidecar, indexed for page lookup.
type Document struct {
	Direction domain.ReadingDirection

	pages []domain.PageEntry
	keyed map[string][]domain.PanelData
	flat  []domain.PanelData
}

// PanelsFor resolves the ordered panel list for a page.
// Lookup precedence: array-of-pages by numeric match, then the keyed map by
// filename and stringified page number, then the flat top-level list.
// First non-empty result wins; no match is a valid empty result.
func (d *Document) PanelsFor(page int, filename string) []domain.PanelData {
	if d == nil {
		return nil
	}
	for _, e := range d.pages {
		if e.Page == page && len(e.Panels) > 0 {
			return e.Panels
		}
	}
	if d.keyed != nil {
		if filename != "" {
			if ps := d.keyed[filename]; len(ps) > 0 {
				return ps
			}
		}
		if ps := d.keyed[strconv.Itoa(page)]; len(ps) > 0 {
			return ps
		}
	}
	if len(d.flat) > 0 {
		return d.flat
	}
	return nil
}

// rawSidecar matches the wire format loosely; "pages" may be an array or an
// object, so it is deferred to a second decode pass.
type rawSidecar struct {
	ReadingDirection string             `json:"reading_direction"`
	Pages            json.RawMessage    `json:"pages"`
	Panels           []domain.PanelData `json:"panels"`
}

// Parse decodes sidecar bytes into a Document.
func Parse(data []byte) (*Document, error) {
	var raw rawSidecar
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse sidecar: %w", err)
	}
	doc := &Document{
		Direction: domain.ParseReadingDirection(raw.ReadingDirection),
		flat:      raw.Panels,
	}
	if len(raw.Pages) > 0 {
		var entries []domain.PageEntry
		if err := json.Unmarshal(raw.Pages, &entries); err == nil {
			doc.pages = entries
		} else {
			var keyed map[string][]domain.PanelData
			if err := json.Unmarshal(raw.Pages, &keyed); err == nil {
				doc.keyed = keyed
			} else {
				return nil, fmt.Errorf("parse sidecar pages: neither array nor map")
			}
		}
	}
	return doc, nil
}

// PathFor derives the sidecar path for a document: the same base name with a
// .json extension, or panels.json inside the directory for directory-shaped
// documents (the layout the detection tools produce).
func PathFor(docPath string) string {
	if fi, err := os.Stat(docPath); err == nil && fi.IsDir() {
		return filepath.Join(docPath, "panels.json")
	}
	ext := filepath.Ext(docPath)
	return strings.TrimSuffix(docPath, ext) + ".json"
}

// Catalog resolves panel lists for one open document. It caches the parsed
// sidecar keyed by path and modification time, so repeated page changes do
// not re-read the file.
type Catalog struct {
	l *slog.Logger

	cachePath string
	cacheMod  time.Time
	cacheDoc  *Document
}

func NewCatalog() *Catalog {
	return &Catalog{l: applog.WithComponent("sidecar")}
}

// Resolve returns the ordered panel list and reading direction for the given
// page of the document at docPath. A missing or malformed sidecar is a
// recoverable condition: it logs and yields an empty list with LTR direction.
func (c *Catalog) Resolve(docPath string, page int, filename string) ([]domain.PanelData, domain.ReadingDirection) {
	doc := c.load(docPath)
	if doc == nil {
		return nil, domain.LTR
	}
	return doc.PanelsFor(page, filename), doc.Direction
}

// Direction returns the document reading direction, defaulting to LTR.
func (c *Catalog) Direction(docPath string) domain.ReadingDirection {
	if doc := c.load(docPath); doc != nil {
		return doc.Direction
	}
	return domain.LTR
}

func (c *Catalog) load(docPath string) *Document {
	path := PathFor(docPath)
	fi, err := os.Stat(path)
	if err != nil {
		if c.cachePath == path {
			c.cacheDoc = nil
		}
		c.l.Debug("no sidecar", slog.String("path", path))
		return nil
	}
	if c.cachePath == path && c.cacheMod.Equal(fi.ModTime()) && c.cacheDoc != nil {
		return c.cacheDoc
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.l.Warn("sidecar read failed", slog.String("path", path), slog.Any("err", err))
		return nil
	}
	if verr := Validate(data); verr != nil {
		// Schema violations are advisory; the tolerant parser decides.
		c.l.Warn("sidecar schema violation", slog.String("path", path), slog.Any("err", verr))
	}
	doc, err := Parse(data)
	if err != nil {
		c.l.Warn("sidecar parse failed", slog.String("path", path), slog.Any("err", err))
		return nil
	}

	c.cachePath = path
	c.cacheMod = fi.ModTime()
	c.cacheDoc = doc
	c.l.Info("sidecar loaded",
		slog.String("path", path),
		slog.String("direction", string(doc.Direction)),
		slog.Int("page_entries", len(doc.pages)),
		slog.Int("keyed_entries", len(doc.keyed)),
		slog.Int("flat_panels", len(doc.flat)))
	return doc
}
