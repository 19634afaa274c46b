/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(filepath.Join(t.TempDir(), IndexFileName))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestRecordAndGet(t *testing.T) {
	lib := openTemp(t)
	ctx := context.Background()

	e := Entry{
		Path:        "/books/one.cbz",
		SidecarPath: "/books/one.json",
		Direction:   "rtl",
		PageCount:   180,
		PanelCount:  920,
	}
	if err := lib.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, ok, err := lib.Get(ctx, e.Path)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Direction != "rtl" || got.PageCount != 180 || got.PanelCount != 920 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.OpenedAt.IsZero() {
		t.Fatalf("OpenedAt should default to now")
	}

	// upsert replaces, never duplicates
	e.PanelCount = 930
	if err := lib.Record(ctx, e); err != nil {
		t.Fatalf("Record update: %v", err)
	}
	all, err := lib.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 1 || all[0].PanelCount != 930 {
		t.Fatalf("expected single updated entry, got %+v", all)
	}
}

func TestGetMissing(t *testing.T) {
	lib := openTemp(t)
	_, ok, err := lib.Get(context.Background(), "/nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("unknown path must report not found")
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	lib := openTemp(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range []string{"/a.cbz", "/b.cbz", "/c.cbz"} {
		e := Entry{Path: p, OpenedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := lib.Record(ctx, e); err != nil {
			t.Fatalf("Record %s: %v", p, err)
		}
	}
	got, err := lib.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Path != "/c.cbz" || got[1].Path != "/b.cbz" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestForget(t *testing.T) {
	lib := openTemp(t)
	ctx := context.Background()
	if err := lib.Record(ctx, Entry{Path: "/x.cbz"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := lib.Forget(ctx, "/x.cbz"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, _ := lib.Get(ctx, "/x.cbz"); ok {
		t.Fatalf("entry should be gone")
	}
	if err := lib.Forget(ctx, "/x.cbz"); err != nil {
		t.Fatalf("Forget of unknown path must be a no-op: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, IndexFileName)
	lib, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := lib.Record(context.Background(), Entry{Path: "/keep.cbz", PageCount: 5}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := lib.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lib2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = lib2.Close() }()
	got, ok, err := lib2.Get(context.Background(), "/keep.cbz")
	if err != nil || !ok || got.PageCount != 5 {
		t.Fatalf("data lost across reopen: ok=%v err=%v got=%+v", ok, err, got)
	}
}
