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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"panelreader/internal/domain"
	"panelreader/internal/host"
	"panelreader/internal/sidecar"
)

// WriteCBZ packages the panel crops into a CBZ (ZIP) archive with a
// ComicInfo.xml manifest so the result opens in ordinary comic readers as a
// panel-per-page edition of the document.
func WriteCBZ(doc host.Document, cat *sidecar.Catalog, outPath string, opt Options) (int, error) {
	if cat == nil {
		cat = sidecar.NewCatalog()
	}
	panels, err := Collect(doc, cat, opt)
	if err != nil {
		return 0, err
	}
	if len(panels) == 0 {
		return 0, fmt.Errorf("no panels to export")
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ".cbz") {
		outPath += ".cbz"
	}

	zw, f, err := createZip(outPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	for _, p := range panels {
		data, err := encodePNG(p.Image)
		if err != nil {
			return 0, err
		}
		if err := addZipFile(zw, panelFileName(p), data); err != nil {
			return 0, fmt.Errorf("zip add image: %w", err)
		}
	}

	_, dir := cat.Resolve(doc.Path(), 1, doc.PageFilename(1))
	manifest := buildComicInfoXML(doc.Path(), len(panels), dir)
	if err := addZipFile(zw, "ComicInfo.xml", []byte(manifest)); err != nil {
		return 0, fmt.Errorf("zip add manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close zip: %w", err)
	}
	return len(panels), nil
}

func createZip(outPath string) (*zip.Writer, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create cbz: %w", err)
	}
	return zip.NewWriter(f), f, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func buildComicInfoXML(docPath string, pageCount int, dir domain.ReadingDirection) string {
	title := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	reading := "LeftToRight"
	if dir == domain.RTL {
		reading = "RightToLeft"
	}
	buf := &bytes.Buffer{}
	_, _ = fmt.Fprintf(buf, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	_, _ = fmt.Fprintf(buf, "<ComicInfo xmlns:xsi=\"http://www.w3.org/2001/XMLSchema-instance\">\n")
	_, _ = fmt.Fprintf(buf, "  <Title>%s (panels)</Title>\n", xmlEsc(title))
	_, _ = fmt.Fprintf(buf, "  <PageCount>%d</PageCount>\n", pageCount)
	_, _ = fmt.Fprintf(buf, "  <ReadingDirection>%s</ReadingDirection>\n", reading)
	_, _ = fmt.Fprintf(buf, "</ComicInfo>\n")
	return buf.String()
}

func xmlEsc(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '\'':
			out = append(out, '&', 'a', 'p', 'o', 's', ';')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
