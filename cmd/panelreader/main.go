/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"panelreader/internal/config"
	"panelreader/internal/crash"
	"panelreader/internal/detect"
	"panelreader/internal/export"
	"panelreader/internal/host"
	"panelreader/internal/library"
	applog "panelreader/internal/log"
	"panelreader/internal/render"
	"panelreader/internal/sidecar"
	"panelreader/internal/ui"
	"panelreader/internal/version"
)

func usage() {
	fmt.Println("Panel Reader — panel-by-panel comic navigation")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  panelreader version|-v|--version          Show version")
	fmt.Println("  panelreader inspect <dir> [page]          Print sidecar summary, or resolved rects for one page")
	fmt.Println("  panelreader detect <dir>                  Run the detection service and write a sidecar")
	fmt.Println("  panelreader export <dir> png|cbz|pdf <out>  Export panel crops")
	fmt.Println("  panelreader recent                        List recently opened documents")
	fmt.Println("  panelreader ui <dir>                      Launch viewer (build with -tags fyne for full UI)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var info *crash.Info
	defer func() { crash.Recover(info) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Panel Reader")
			fmt.Println(version.String())
			return
		case "inspect":
			if len(args) < 3 {
				fmt.Println("inspect requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			page := 0
			if len(args) >= 4 {
				if n, err := strconv.Atoi(args[3]); err == nil {
					page = n
				}
			}
			info = &crash.Info{DocumentPath: abs, Page: page}
			if err := runInspect(abs, page); err != nil {
				l.Error("inspect failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "detect":
			if len(args) < 3 {
				fmt.Println("detect requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			info = &crash.Info{DocumentPath: abs}
			if err := runDetect(abs); err != nil {
				l.Error("detect failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "export":
			if len(args) < 5 {
				fmt.Println("export requires <dir>, a format (png|cbz|pdf) and <out>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			info = &crash.Info{DocumentPath: abs}
			if err := runExport(abs, args[3], args[4]); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "recent":
			if err := runRecent(); err != nil {
				l.Error("recent failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir, _ = filepath.Abs(args[2])
			}
			info = &crash.Info{DocumentPath: dir}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func runInspect(dir string, page int) error {
	doc, err := host.OpenDir(dir)
	if err != nil {
		return err
	}
	cat := sidecar.NewCatalog()

	if page > 0 {
		return inspectPage(doc, cat, page)
	}

	scPath := sidecar.PathFor(doc.Path())
	fmt.Println("Document:", doc.Path())
	fmt.Println("Pages:", doc.PageCount())
	if _, err := os.Stat(scPath); err != nil {
		fmt.Println("Sidecar: none (panel navigation unavailable)")
		return nil
	}
	fmt.Println("Sidecar:", scPath)

	total := 0
	var dirStr string
	for page := 1; page <= doc.PageCount(); page++ {
		panels, d := cat.Resolve(doc.Path(), page, doc.PageFilename(page))
		dirStr = string(d)
		if len(panels) > 0 {
			fmt.Printf("  page %3d: %d panels\n", page, len(panels))
			total += len(panels)
		}
	}
	fmt.Println("Reading direction:", dirStr)
	fmt.Println("Total panels:", total)

	lib, err := library.Open(library.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()
	return lib.Record(context.Background(), library.Entry{
		Path:        doc.Path(),
		SidecarPath: scPath,
		Direction:   dirStr,
		PageCount:   doc.PageCount(),
		PanelCount:  total,
	})
}

// inspectPage prints the resolved pixel rect of every panel on one page.
func inspectPage(doc *host.DirDocument, cat *sidecar.Catalog, page int) error {
	panels, d := cat.Resolve(doc.Path(), page, doc.PageFilename(page))
	if len(panels) == 0 {
		fmt.Printf("page %d: no panel data\n", page)
		return nil
	}
	frame, err := doc.PageSize(page)
	if err != nil {
		return err
	}
	fmt.Printf("page %d (%dx%d, %s): %d panels\n", page, frame.W, frame.H, d, len(panels))
	for i, p := range panels {
		rect, err := render.ToPixelRect(p, frame)
		if err != nil {
			fmt.Printf("  %2d: invalid geometry: %v\n", i+1, err)
			continue
		}
		fmt.Printf("  %2d: x=%d y=%d w=%d h=%d\n", i+1, rect.X, rect.Y, rect.W, rect.H)
	}
	return nil
}

func runDetect(dir string) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	if cfg.Detect.BaseURL == "" {
		return fmt.Errorf("no detection service configured (set %s or detect.base_url)", config.EnvDetectURL)
	}
	doc, err := host.OpenDir(dir)
	if err != nil {
		return err
	}
	c := detect.NewClient(cfg.Detect.BaseURL, "", time.Duration(cfg.Detect.TimeoutMs)*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	out, err := c.DetectDocument(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Println("Sidecar written:", out)
	return nil
}

func runExport(dir, format, out string) error {
	doc, err := host.OpenDir(dir)
	if err != nil {
		return err
	}
	cat := sidecar.NewCatalog()
	var n int
	switch format {
	case "png":
		n, err = export.WritePNGs(doc, cat, out, export.Options{})
	case "cbz":
		n, err = export.WriteCBZ(doc, cat, out, export.Options{})
	case "pdf":
		n, err = export.WriteContactSheetPDF(doc, cat, out, export.Options{})
	default:
		return fmt.Errorf("unknown export format %q (png|cbz|pdf)", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d panels to %s\n", n, out)
	return nil
}

func runRecent() error {
	lib, err := library.Open(library.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = lib.Close() }()
	entries, err := lib.Recent(context.Background(), 20)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No documents recorded yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  pages=%d panels=%d dir=%s  %s\n",
			e.OpenedAt.Format("2006-01-02 15:04"), e.PageCount, e.PanelCount, e.Direction, e.Path)
	}
	return nil
}
