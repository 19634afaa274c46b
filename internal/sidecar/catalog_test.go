/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sidecar

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"panelreader/internal/domain"
)

func TestParsePagesArray(t *testing.T) {
	data := []byte(`{"reading_direction":"rtl","pages":[{"page":1,"panels":[{"x":0,"y":0,"w":0.5,"h":1},{"x":0.5,"y":0,"w":0.5,"h":1}]}]}`)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Direction != domain.RTL {
		t.Fatalf("expected rtl, got %s", doc.Direction)
	}
	ps := doc.PanelsFor(1, "001.png")
	if len(ps) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(ps))
	}
	if ps[1].X != 0.5 || ps[1].W != 0.5 {
		t.Fatalf("unexpected second panel: %+v", ps[1])
	}
	if got := doc.PanelsFor(5, ""); got != nil {
		t.Fatalf("page 5 should have no panels, got %v", got)
	}
}

func TestParseKeyedMap(t *testing.T) {
	data := []byte(`{"pages":{"007.png":[{"w":0.25}],"3":[{"x":0.1}]}}`)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Direction != domain.LTR {
		t.Fatalf("missing direction should default to ltr, got %s", doc.Direction)
	}
	byName := doc.PanelsFor(7, "007.png")
	if len(byName) != 1 || byName[0].W != 0.25 {
		t.Fatalf("filename lookup failed: %v", byName)
	}
	byNumber := doc.PanelsFor(3, "other.png")
	if len(byNumber) != 1 || byNumber[0].X != 0.1 {
		t.Fatalf("stringified number lookup failed: %v", byNumber)
	}
}

func TestParseFlatPanels(t *testing.T) {
	data := []byte(`{"panels":[{"x":0.2,"y":0.2,"w":0.6,"h":0.6}]}`)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// flat list applies to every page
	for _, page := range []int{1, 2, 99} {
		if ps := doc.PanelsFor(page, ""); len(ps) != 1 {
			t.Fatalf("flat panels missing for page %d", page)
		}
	}
}

func TestLookupPrecedence(t *testing.T) {
	// array entry for page 1 must win over keyed and flat fallbacks
	data := []byte(`{
		"pages": [{"page":1,"panels":[{"w":0.5,"h":0.5}]}],
		"panels": [{"w":0.9,"h":0.9}]
	}`)
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ps := doc.PanelsFor(1, "001.png")
	if len(ps) != 1 || ps[0].W != 0.5 {
		t.Fatalf("array-of-pages should win, got %v", ps)
	}
	// flat fallback still serves unknown pages
	if ps := doc.PanelsFor(2, ""); len(ps) != 1 || ps[0].W != 0.9 {
		t.Fatalf("flat fallback failed for page 2: %v", ps)
	}
}

func TestParseRejectsPagesScalar(t *testing.T) {
	if _, err := Parse([]byte(`{"pages":42}`)); err == nil {
		t.Fatalf("expected error for scalar pages")
	}
}

func TestValidate(t *testing.T) {
	ok := []byte(`{"reading_direction":"ltr","pages":[{"page":1,"panels":[{"x":0,"y":0,"w":1,"h":1}]}]}`)
	if err := Validate(ok); err != nil {
		t.Fatalf("valid sidecar rejected: %v", err)
	}
	bad := []byte(`{"reading_direction":"down"}`)
	if err := Validate(bad); err == nil {
		t.Fatalf("expected schema violation for bad direction")
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("/books/vol1.cbz"); got != "/books/vol1.json" {
		t.Fatalf("unexpected sidecar path: %s", got)
	}
	dir := t.TempDir()
	if got := PathFor(dir); got != filepath.Join(dir, "panels.json") {
		t.Fatalf("unexpected directory sidecar path: %s", got)
	}
}

func TestCatalogResolveAndIdempotence(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "book.cbz")
	if err := os.WriteFile(doc, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	side := filepath.Join(dir, "book.json")
	payload := []byte(`{"reading_direction":"rtl","pages":[{"page":2,"panels":[{"x":0.5,"w":0.5}]}]}`)
	if err := os.WriteFile(side, payload, 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	c := NewCatalog()
	first, dir1 := c.Resolve(doc, 2, "002.png")
	second, dir2 := c.Resolve(doc, 2, "002.png")
	if dir1 != domain.RTL || dir2 != domain.RTL {
		t.Fatalf("direction mismatch: %s %s", dir1, dir2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolve is not idempotent: %v vs %v", first, second)
	}
	if len(first) != 1 || first[0].X != 0.5 {
		t.Fatalf("unexpected panels: %v", first)
	}
}

func TestCatalogMissingSidecar(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "book.cbz")
	if err := os.WriteFile(doc, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	c := NewCatalog()
	ps, rd := c.Resolve(doc, 1, "001.png")
	if ps != nil {
		t.Fatalf("expected empty panels for missing sidecar, got %v", ps)
	}
	if rd != domain.LTR {
		t.Fatalf("expected ltr default, got %s", rd)
	}
}

func TestCatalogMalformedSidecar(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "book.cbz")
	if err := os.WriteFile(doc, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "book.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	c := NewCatalog()
	if ps, _ := c.Resolve(doc, 1, ""); ps != nil {
		t.Fatalf("malformed sidecar must resolve to empty list, got %v", ps)
	}
}
