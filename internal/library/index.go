/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package library keeps a small embedded SQLite catalog of documents the
// reader has seen: sidecar presence, reading direction, page and panel
// counts. Navigation position is deliberately never stored; the host viewer
// owns the page and the panel session is rebuilt from the sidecar on every
// page change.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "panelreader/internal/log"
	"panelreader/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "library.sqlite"

	// schemaVersion tracks the embedded schema. Bump on breaking changes
	// and add a migration step.
	schemaVersion = 1
)

// Entry is one cataloged document.
type Entry struct {
	Path        string
	SidecarPath string
	Direction   string
	PageCount   int
	PanelCount  int
	OpenedAt    time.Time
}

// Library wraps the embedded index database.
type Library struct {
	db *sql.DB
	l  *slog.Logger
}

// DefaultPath places the index under the user cache directory.
func DefaultPath() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "panelreader", IndexFileName)
	}
	return filepath.Join(os.TempDir(), IndexFileName)
}

// Open ensures the index database exists at path, enables WAL mode and
// brings the schema up to date.
func Open(path string) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("library"), "index_init").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("library index ready")
	return &Library{db: db, l: applog.WithComponent("library")}, nil
}

// Close releases the database handle.
func (lib *Library) Close() error { return lib.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path        TEXT PRIMARY KEY,
			sidecar     TEXT NOT NULL DEFAULT '',
			direction   TEXT NOT NULL DEFAULT 'ltr',
			page_count  INTEGER NOT NULL DEFAULT 0,
			panel_count INTEGER NOT NULL DEFAULT 0,
			opened_at   TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_opened ON documents(opened_at);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Record upserts an entry; OpenedAt defaults to now.
func (lib *Library) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Path) == "" {
		return errors.New("document path is required")
	}
	when := e.OpenedAt
	if when.IsZero() {
		when = time.Now().UTC()
	}
	_, err := lib.db.ExecContext(ctx, `
		INSERT INTO documents (path, sidecar, direction, page_count, panel_count, opened_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			sidecar=excluded.sidecar,
			direction=excluded.direction,
			page_count=excluded.page_count,
			panel_count=excluded.panel_count,
			opened_at=excluded.opened_at`,
		e.Path, e.SidecarPath, e.Direction, e.PageCount, e.PanelCount, when.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record document: %w", err)
	}
	return nil
}

// Get looks up one entry by document path.
func (lib *Library) Get(ctx context.Context, path string) (Entry, bool, error) {
	var e Entry
	var opened string
	err := lib.db.QueryRowContext(ctx, `
		SELECT path, sidecar, direction, page_count, panel_count, opened_at
		FROM documents WHERE path=?`, path).
		Scan(&e.Path, &e.SidecarPath, &e.Direction, &e.PageCount, &e.PanelCount, &opened)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get document: %w", err)
	}
	e.OpenedAt, _ = time.Parse(time.RFC3339, opened)
	return e, true, nil
}

// Recent returns the most recently opened entries, newest first.
func (lib *Library) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := lib.db.QueryContext(ctx, `
		SELECT path, sidecar, direction, page_count, panel_count, opened_at
		FROM documents ORDER BY opened_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var opened string
		if err := rows.Scan(&e.Path, &e.SidecarPath, &e.Direction, &e.PageCount, &e.PanelCount, &opened); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		e.OpenedAt, _ = time.Parse(time.RFC3339, opened)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget removes an entry. Removing an unknown path is not an error.
func (lib *Library) Forget(ctx context.Context, path string) error {
	if _, err := lib.db.ExecContext(ctx, `DELETE FROM documents WHERE path=?`, path); err != nil {
		return fmt.Errorf("forget document: %w", err)
	}
	return nil
}
