/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render converts normalized panel rectangles to pixel crops and
// composites them onto the screen with a letterbox frame.
package render

import (
	"fmt"
	"math"

	"panelreader/internal/domain"
)

// ToPixelRect converts a normalized panel rectangle into a pixel-space crop
// within the given frame. Origin uses floor, extent uses ceil, so the crop
// never falls short of the intended region by sub-pixel truncation, at the
// cost of at most one extra pixel per edge.
//
// Degenerate panel sizes are clamped to 1 pixel instead of requesting a
// zero-area decode.
func ToPixelRect(p domain.PanelData, frame domain.DisplayRect) (domain.PixelRect, error) {
	if !frame.Valid() {
		return domain.PixelRect{}, fmt.Errorf("invalid frame %dx%d", frame.W, frame.H)
	}
	r := domain.PixelRect{
		X: int(math.Floor(p.X * float64(frame.W))),
		Y: int(math.Floor(p.Y * float64(frame.H))),
		W: int(math.Ceil(p.W * float64(frame.W))),
		H: int(math.Ceil(p.H * float64(frame.H))),
	}
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}
	return r, nil
}

// CenterIn computes the on-screen placement for a crop of size w x h centered
// within the screen, rounded to the nearest pixel.
func CenterIn(w, h, screenW, screenH int) domain.PixelRect {
	return domain.PixelRect{
		X: int(math.Round(float64(screenW-w) / 2)),
		Y: int(math.Round(float64(screenH-h) / 2)),
		W: w,
		H: h,
	}
}
