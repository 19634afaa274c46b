/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package host

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// page images are PNG or JPEG as produced by the detection tools
	_ "image/jpeg"
	_ "image/png"

	"panelreader/internal/domain"
)

// DirDocument is a Document backed by a directory of page images, one file
// per page in lexical order. This is the layout the panel detection tools
// work against and what the CLI and demo viewer open.
type DirDocument struct {
	dir   string
	pages []string // sorted filenames
}

// OpenDir scans a directory for page images.
func OpenDir(dir string) (*DirDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open document dir: %w", err)
	}
	var pages []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			pages = append(pages, e.Name())
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images in %s", dir)
	}
	sort.Strings(pages)
	return &DirDocument{dir: dir, pages: pages}, nil
}

func (d *DirDocument) Path() string   { return d.dir }
func (d *DirDocument) PageCount() int { return len(d.pages) }

func (d *DirDocument) PageFilename(page int) string {
	if page < 1 || page > len(d.pages) {
		return ""
	}
	return d.pages[page-1]
}

func (d *DirDocument) pagePath(page int) (string, error) {
	if page < 1 || page > len(d.pages) {
		return "", fmt.Errorf("page %d out of range 1..%d", page, len(d.pages))
	}
	return filepath.Join(d.dir, d.pages[page-1]), nil
}

// PageSize reads image dimensions without decoding pixel data.
func (d *DirDocument) PageSize(page int) (domain.DisplayRect, error) {
	path, err := d.pagePath(page)
	if err != nil {
		return domain.DisplayRect{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.DisplayRect{}, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return domain.DisplayRect{}, fmt.Errorf("decode page config: %w", err)
	}
	return domain.DisplayRect{W: cfg.Width, H: cfg.Height}, nil
}

// CropRegion decodes the page and copies out the requested region. The full
// decode is transient; only the crop survives the call.
func (d *DirDocument) CropRegion(page int, r domain.PixelRect) (image.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty crop rect %+v", r)
	}
	path, err := d.pagePath(page)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = f.Close() }()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	want := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	region := want.Intersect(src.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("crop %v outside page bounds %v", want, src.Bounds())
	}
	crop := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(crop, crop.Bounds(), src, region.Min, draw.Src)
	return crop, nil
}
