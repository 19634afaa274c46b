/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"panelreader/internal/host"
	"panelreader/internal/sidecar"
)

func fakeDoc(t *testing.T, sidecarJSON string) *host.FakeDocument {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "book.json"), []byte(sidecarJSON), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	return &host.FakeDocument{DocPath: filepath.Join(dir, "book.cbz"), Pages: 2, W: 800, H: 1200}
}

const sheet = `{
	"pages": [
		{"page":1,"panels":[{"x":0,"y":0,"w":0.5,"h":1},{"x":0.5,"y":0,"w":0.5,"h":1}]},
		{"page":2,"panels":[{"x":0,"y":0,"w":1,"h":0.5}]}
	]
}`

func TestCollect(t *testing.T) {
	doc := fakeDoc(t, sheet)
	panels, err := Collect(doc, nil, Options{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(panels) != 3 {
		t.Fatalf("expected 3 panels, got %d", len(panels))
	}
	if panels[0].Page != 1 || panels[0].Index != 1 {
		t.Fatalf("first panel: %+v", panels[0])
	}
	if panels[0].Rect.W != 400 || panels[0].Rect.H != 1200 {
		t.Fatalf("first crop geometry: %+v", panels[0].Rect)
	}
	if panels[2].Page != 2 || panels[2].Rect.H != 600 {
		t.Fatalf("last panel: %+v", panels[2])
	}
}

func TestCollectPageSelection(t *testing.T) {
	doc := fakeDoc(t, sheet)
	panels, err := Collect(doc, nil, Options{Pages: []int{2, 99}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(panels) != 1 || panels[0].Page != 2 {
		t.Fatalf("selection not honored: %+v", panels)
	}
}

func TestWritePNGs(t *testing.T) {
	doc := fakeDoc(t, sheet)
	out := filepath.Join(t.TempDir(), "panels")
	n, err := WritePNGs(doc, nil, out, Options{})
	if err != nil {
		t.Fatalf("WritePNGs: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 files, got %d", n)
	}
	for _, name := range []string{"page-001-panel-01.png", "page-001-panel-02.png", "page-002-panel-01.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestWriteCBZ(t *testing.T) {
	doc := fakeDoc(t, sheet)
	out := filepath.Join(t.TempDir(), "panels") // extension added automatically
	n, err := WriteCBZ(doc, sidecar.NewCatalog(), out, Options{})
	if err != nil {
		t.Fatalf("WriteCBZ: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 panels, got %d", n)
	}

	zr, err := zip.OpenReader(out + ".cbz")
	if err != nil {
		t.Fatalf("open cbz: %v", err)
	}
	defer func() { _ = zr.Close() }()
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["ComicInfo.xml"] || !names["page-001-panel-01.png"] {
		t.Fatalf("archive incomplete: %v", names)
	}

	var manifest string
	for _, f := range zr.File {
		if f.Name == "ComicInfo.xml" {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open manifest: %v", err)
			}
			b := make([]byte, f.UncompressedSize64)
			_, _ = rc.Read(b)
			_ = rc.Close()
			manifest = string(b)
		}
	}
	if !strings.Contains(manifest, "<ReadingDirection>LeftToRight</ReadingDirection>") {
		t.Fatalf("manifest missing reading direction: %s", manifest)
	}
}

func TestWriteCBZNoPanels(t *testing.T) {
	doc := &host.FakeDocument{DocPath: filepath.Join(t.TempDir(), "book.cbz"), Pages: 1, W: 100, H: 100}
	if _, err := WriteCBZ(doc, nil, filepath.Join(t.TempDir(), "out.cbz"), Options{}); err == nil {
		t.Fatalf("expected error without panel data")
	}
}

func TestWriteContactSheetPDF(t *testing.T) {
	doc := fakeDoc(t, sheet)
	out := filepath.Join(t.TempDir(), "sheet.pdf")
	n, err := WriteContactSheetPDF(doc, nil, out, Options{})
	if err != nil {
		t.Fatalf("WriteContactSheetPDF: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 panels, got %d", n)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat pdf: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("empty pdf")
	}
}
