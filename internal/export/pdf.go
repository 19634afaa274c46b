/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"panelreader/internal/host"
	"panelreader/internal/sidecar"
)

// Contact sheet layout in points (1pt = 1/72"). A4 portrait with a
// three-column grid; each cell holds one panel thumbnail plus a caption.
const (
	sheetMargin  = 36.0
	sheetColumns = 3
	cellGap      = 12.0
	captionH     = 14.0
)

// WriteContactSheetPDF renders all selected panels as a thumbnail grid PDF,
// one caption per panel with its page and index.
func WriteContactSheetPDF(doc host.Document, cat *sidecar.Catalog, outPath string, opt Options) (int, error) {
	panels, err := Collect(doc, cat, opt)
	if err != nil {
		return 0, err
	}
	if len(panels) == 0 {
		return 0, fmt.Errorf("no panels to export")
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ".pdf") {
		outPath += ".pdf"
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	title := strings.TrimSuffix(filepath.Base(doc.Path()), filepath.Ext(doc.Path()))
	pdf.SetTitle(fmt.Sprintf("%s — panel contact sheet", title), true)
	pdf.SetFont("Helvetica", "", 9)

	pageW, pageH := pdf.GetPageSize()
	cellW := (pageW - 2*sheetMargin - (sheetColumns-1)*cellGap) / sheetColumns
	cellH := cellW * 1.2 // room for tall panels plus the caption

	col, rowY := 0, pageH // force a page break on the first panel
	for _, p := range panels {
		if col == sheetColumns {
			col = 0
			rowY += cellH + cellGap
		}
		if rowY+cellH > pageH-sheetMargin {
			pdf.AddPage()
			rowY = sheetMargin
			col = 0
		}
		x := sheetMargin + float64(col)*(cellW+cellGap)

		data, err := encodePNG(p.Image)
		if err != nil {
			return 0, err
		}
		name := fmt.Sprintf("panel-%d-%d", p.Page, p.Index)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))

		// fit into the cell above the caption, preserving aspect
		b := p.Image.Bounds()
		imgW, imgH := float64(b.Dx()), float64(b.Dy())
		maxH := cellH - captionH
		scale := cellW / imgW
		if imgH*scale > maxH {
			scale = maxH / imgH
		}
		w, h := imgW*scale, imgH*scale
		pdf.ImageOptions(name, x+(cellW-w)/2, rowY, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Text(x, rowY+maxH+captionH-4, fmt.Sprintf("p.%d #%d", p.Page, p.Index))

		col++
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return len(panels), nil
}
