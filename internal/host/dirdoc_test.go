/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package host

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"panelreader/internal/domain"
)

func writePage(t *testing.T, dir, name string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
}

func TestOpenDirSortsPages(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "002.png", 10, 10, color.RGBA{A: 255})
	writePage(t, dir, "001.png", 10, 10, color.RGBA{A: 255})
	// non-image files are ignored
	if err := os.WriteFile(filepath.Join(dir, "panels.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	doc, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	if doc.PageFilename(1) != "001.png" || doc.PageFilename(2) != "002.png" {
		t.Fatalf("pages not sorted: %s, %s", doc.PageFilename(1), doc.PageFilename(2))
	}
}

func TestOpenDirEmpty(t *testing.T) {
	if _, err := OpenDir(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without pages")
	}
}

func TestPageSizeAndCrop(t *testing.T) {
	dir := t.TempDir()
	red := color.RGBA{200, 10, 10, 255}
	writePage(t, dir, "001.png", 80, 120, red)

	doc, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	size, err := doc.PageSize(1)
	if err != nil {
		t.Fatalf("PageSize: %v", err)
	}
	if size != (domain.DisplayRect{W: 80, H: 120}) {
		t.Fatalf("unexpected size: %+v", size)
	}

	crop, err := doc.CropRegion(1, domain.PixelRect{X: 10, Y: 20, W: 30, H: 40})
	if err != nil {
		t.Fatalf("CropRegion: %v", err)
	}
	b := crop.Bounds()
	if b.Dx() != 30 || b.Dy() != 40 {
		t.Fatalf("crop size: %v", b)
	}
	if got := crop.At(0, 0); got != red {
		t.Fatalf("crop content: %v", got)
	}
}

func TestCropRegionClampsToBounds(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "001.png", 50, 50, color.RGBA{A: 255})
	doc, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	// crop extending one pixel past the edge (ceil overshoot) is clamped
	crop, err := doc.CropRegion(1, domain.PixelRect{X: 40, Y: 40, W: 11, H: 11})
	if err != nil {
		t.Fatalf("CropRegion overshoot: %v", err)
	}
	if b := crop.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Fatalf("expected clamped 10x10 crop, got %v", b)
	}
	// fully outside fails
	if _, err := doc.CropRegion(1, domain.PixelRect{X: 60, Y: 60, W: 5, H: 5}); err == nil {
		t.Fatalf("expected error for crop outside page")
	}
	if _, err := doc.CropRegion(1, domain.PixelRect{}); err == nil {
		t.Fatalf("expected error for empty crop")
	}
}
