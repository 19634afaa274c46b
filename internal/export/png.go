/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes panel crops out of a document: loose PNG files, a
// CBZ bundle, or a PDF contact sheet. All three walk the same path the
// viewer does (sidecar lookup, geometry resolution, crop), so an exported
// panel is pixel-identical to what the reader shows.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"panelreader/internal/domain"
	"panelreader/internal/host"
	"panelreader/internal/render"
	"panelreader/internal/sidecar"
)

// Options selects what gets exported.
// Pages are 1-based; empty means all pages.
type Options struct {
	Pages []int
}

// Panel is one resolved crop, produced by Collect and consumed by the
// format-specific writers.
type Panel struct {
	Page  int
	Index int // 1-based within the page
	Rect  domain.PixelRect
	Image image.Image
}

// Collect resolves and crops every panel of the selected pages. Pages
// without panel data are skipped, matching the viewer's fallthrough.
func Collect(doc host.Document, cat *sidecar.Catalog, opt Options) ([]Panel, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if cat == nil {
		cat = sidecar.NewCatalog()
	}
	var out []Panel
	for _, page := range pageNumbers(doc.PageCount(), opt.Pages) {
		panels, _ := cat.Resolve(doc.Path(), page, doc.PageFilename(page))
		if len(panels) == 0 {
			continue
		}
		frame, err := doc.PageSize(page)
		if err != nil {
			return nil, fmt.Errorf("page %d size: %w", page, err)
		}
		for i, p := range panels {
			rect, err := render.ToPixelRect(p, frame)
			if err != nil {
				return nil, fmt.Errorf("page %d panel %d: %w", page, i+1, err)
			}
			img, err := doc.CropRegion(page, rect)
			if err != nil {
				return nil, fmt.Errorf("crop page %d panel %d: %w", page, i+1, err)
			}
			out = append(out, Panel{Page: page, Index: i + 1, Rect: rect, Image: img})
		}
	}
	return out, nil
}

// WritePNGs writes each panel as page-<page>-panel-<index>.png under outDir.
func WritePNGs(doc host.Document, cat *sidecar.Catalog, outDir string, opt Options) (int, error) {
	panels, err := Collect(doc, cat, opt)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure out dir: %w", err)
	}
	for _, p := range panels {
		name := filepath.Join(outDir, panelFileName(p))
		f, err := os.Create(name)
		if err != nil {
			return 0, fmt.Errorf("create %s: %w", name, err)
		}
		if err := png.Encode(f, p.Image); err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("encode %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return 0, fmt.Errorf("close %s: %w", name, err)
		}
	}
	return len(panels), nil
}

func panelFileName(p Panel) string {
	return fmt.Sprintf("page-%03d-panel-%02d.png", p.Page, p.Index)
}

func encodePNG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// pageNumbers expands the page selection to a 1-based list, clamped to the
// document.
func pageNumbers(pageCount int, sel []int) []int {
	if len(sel) == 0 {
		out := make([]int, 0, pageCount)
		for p := 1; p <= pageCount; p++ {
			out = append(out, p)
		}
		return out
	}
	out := make([]int, 0, len(sel))
	for _, p := range sel {
		if p >= 1 && p <= pageCount {
			out = append(out, p)
		}
	}
	return out
}
