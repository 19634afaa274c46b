/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for panel navigation: normalized
// panel rectangles as supplied by sidecar files, pixel-space rectangles used
// for cropping and placement, and the document-scoped reading direction.

import "encoding/json"

// ReadingDirection determines which screen side means "forward".
type ReadingDirection string

const (
	// LTR is left-to-right (western comics). The default.
	LTR ReadingDirection = "ltr"
	// RTL is right-to-left (manga).
	RTL ReadingDirection = "rtl"
)

// ParseReadingDirection normalizes a sidecar direction value.
// Anything other than "rtl" maps to LTR.
func ParseReadingDirection(s string) ReadingDirection {
	if s == string(RTL) {
		return RTL
	}
	return LTR
}

// PanelData is one normalized panel rectangle: top-left corner plus size as
// fractions of the page dimensions, each in [0,1]. Ordering within a page is
// positional (slice order in the sidecar).
type PanelData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// UnmarshalJSON applies the sidecar defaults: x and y default to 0,
// w and h default to 1 (full width/height) when absent.
func (p *PanelData) UnmarshalJSON(data []byte) error {
	aux := struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		W *float64 `json:"w"`
		H *float64 `json:"h"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.X, p.Y, p.W, p.H = 0, 0, 1, 1
	if aux.X != nil {
		p.X = *aux.X
	}
	if aux.Y != nil {
		p.Y = *aux.Y
	}
	if aux.W != nil {
		p.W = *aux.W
	}
	if aux.H != nil {
		p.H = *aux.H
	}
	return nil
}

// PageEntry maps a page number to its ordered panel list.
type PageEntry struct {
	Page   int         `json:"page"`
	Panels []PanelData `json:"panels"`
}

// PixelRect is an axis-aligned rectangle in device pixels.
type PixelRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the rectangle has no area.
func (r PixelRect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// DisplayRect is the pixel-space reference frame used to convert normalized
// panel coordinates: either the viewport's visible-page-area rectangle or the
// page bitmap's native pixel size.
type DisplayRect struct {
	X int
	Y int
	W int
	H int
}

// Valid reports whether the frame can serve as a conversion reference.
func (d DisplayRect) Valid() bool { return d.W > 0 && d.H > 0 }
