/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	xdraw "golang.org/x/image/draw"

	"panelreader/internal/domain"
	applog "panelreader/internal/log"
)

// Border styling. The side bands sit on the left and right edges of the
// placement rectangle only; top and bottom are intentionally open. For
// placements in a roughly square-to-portrait aspect band the left border
// grows a little further inward to separate near-square panels from their
// neighbor. The right border never extends; keep it that way unless product
// says otherwise.
const (
	borderSidePx      = 3
	borderLeftExtraPx = 2
	aspectBandLow     = 0.1
	aspectBandHigh    = 1.5
)

var (
	letterboxColor = color.RGBA{255, 255, 255, 255}
	borderColor    = color.RGBA{0, 0, 0, 255}
)

// grayRamp is the 16-level palette used for dithered blits on bistable
// displays.
var grayRamp = func() color.Palette {
	p := make(color.Palette, 16)
	for i := range p {
		v := uint8(i * 255 / 15)
		p[i] = color.RGBA{v, v, v, 255}
	}
	return p
}()

// Compositor produces screen-ready composites of panel crops. It owns at
// most one resident composite at a time; rendering a new crop releases the
// previous one.
type Compositor struct {
	l       *slog.Logger
	screenW int
	screenH int

	anchor *domain.PixelRect // optional pinned placement
	frame  *image.RGBA       // resident composite backing store
}

// NewCompositor creates a compositor for the given screen size.
func NewCompositor(screenW, screenH int) (*Compositor, error) {
	if screenW <= 0 || screenH <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", screenW, screenH)
	}
	return &Compositor{
		l:       applog.WithComponent("render"),
		screenW: screenW,
		screenH: screenH,
	}, nil
}

// SetAnchor pins the placement rectangle; nil restores centered placement.
func (c *Compositor) SetAnchor(r *domain.PixelRect) {
	if r == nil {
		c.anchor = nil
		return
	}
	a := *r
	c.anchor = &a
}

// Render composites a crop sized target.W x target.H onto a fresh frame:
// letterbox bands, the (optionally dithered) blit, then the side borders.
// The previous composite is released first so only one is ever resident.
func (c *Compositor) Render(crop image.Image, target domain.PixelRect, dither bool) (*image.RGBA, error) {
	if crop == nil {
		return nil, fmt.Errorf("nil crop")
	}
	if target.Empty() {
		return nil, fmt.Errorf("empty target rect %+v", target)
	}
	c.frame = nil // release before allocating the replacement
	c.frame = image.NewRGBA(image.Rect(0, 0, c.screenW, c.screenH))
	if err := c.compose(crop, target, dither); err != nil {
		c.frame = nil
		return nil, err
	}
	return c.frame, nil
}

// Update redraws a new crop into the existing composite without reallocating
// the backing frame, avoiding a flicker and a double letterbox paint on
// viewers that hold the previous frame. Falls back to Render when nothing is
// resident.
func (c *Compositor) Update(crop image.Image, target domain.PixelRect, dither bool) (*image.RGBA, error) {
	if c.frame == nil {
		return c.Render(crop, target, dither)
	}
	if crop == nil {
		return nil, fmt.Errorf("nil crop")
	}
	if target.Empty() {
		return nil, fmt.Errorf("empty target rect %+v", target)
	}
	if err := c.compose(crop, target, dither); err != nil {
		return nil, err
	}
	return c.frame, nil
}

// Close releases the resident composite.
func (c *Compositor) Close() { c.frame = nil }

func (c *Compositor) compose(crop image.Image, target domain.PixelRect, dither bool) error {
	placement := c.placementFor(target)
	c.paintLetterbox(placement)
	if err := c.blit(crop, placement, dither); err != nil {
		return err
	}
	c.paintBorders(placement)
	c.l.Debug("composited panel",
		slog.Int("x", placement.X), slog.Int("y", placement.Y),
		slog.Int("w", placement.W), slog.Int("h", placement.H),
		slog.Bool("dither", dither))
	return nil
}

// placementFor centers the target size on screen unless an anchor is pinned.
func (c *Compositor) placementFor(target domain.PixelRect) domain.PixelRect {
	if c.anchor != nil {
		return *c.anchor
	}
	return CenterIn(target.W, target.H, c.screenW, c.screenH)
}

// paintLetterbox fills the screen around the placement with the background
// color using four disjoint bands, so no pixel is painted twice.
func (c *Compositor) paintLetterbox(p domain.PixelRect) {
	bands := letterboxBands(p, c.screenW, c.screenH)
	src := &image.Uniform{C: letterboxColor}
	for _, b := range bands {
		draw.Draw(c.frame, b, src, image.Point{}, draw.Src)
	}
}

// letterboxBands returns the four disjoint rectangles covering the screen
// minus the placement: full-width top and bottom bands plus left and right
// bands clamped to the placement's vertical extent.
func letterboxBands(p domain.PixelRect, screenW, screenH int) []image.Rectangle {
	screen := image.Rect(0, 0, screenW, screenH)
	top := image.Rect(0, 0, screenW, p.Y)
	bottom := image.Rect(0, p.Y+p.H, screenW, screenH)
	left := image.Rect(0, p.Y, p.X, p.Y+p.H)
	right := image.Rect(p.X+p.W, p.Y, screenW, p.Y+p.H)

	out := make([]image.Rectangle, 0, 4)
	for _, b := range []image.Rectangle{top, bottom, left, right} {
		if b = b.Intersect(screen); !b.Empty() {
			out = append(out, b)
		}
	}
	return out
}

// blit scales the crop into the placement rectangle. The dithered path runs
// the scaled region through Floyd-Steinberg onto a 16-level gray ramp before
// writing it back, trading sharpness for fewer artifacts on e-ink.
func (c *Compositor) blit(crop image.Image, p domain.PixelRect, dither bool) error {
	dst := image.Rect(p.X, p.Y, p.X+p.W, p.Y+p.H).Intersect(c.frame.Bounds())
	if dst.Empty() {
		return fmt.Errorf("placement %+v outside screen", p)
	}
	if !dither {
		xdraw.ApproxBiLinear.Scale(c.frame, dst, crop, crop.Bounds(), draw.Src, nil)
		return nil
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), crop, crop.Bounds(), draw.Src, nil)
	pal := image.NewPaletted(scaled.Bounds(), grayRamp)
	draw.FloydSteinberg.Draw(pal, scaled.Bounds(), scaled, image.Point{})
	draw.Draw(c.frame, dst, pal, image.Point{}, draw.Src)
	return nil
}

// paintBorders overlays the side border bands onto the placement edges.
func (c *Compositor) paintBorders(p domain.PixelRect) {
	leftW, rightW := borderWidths(p)
	src := &image.Uniform{C: borderColor}
	bounds := c.frame.Bounds()
	left := image.Rect(p.X, p.Y, p.X+leftW, p.Y+p.H).Intersect(bounds)
	right := image.Rect(p.X+p.W-rightW, p.Y, p.X+p.W, p.Y+p.H).Intersect(bounds)
	draw.Draw(c.frame, left, src, image.Point{}, draw.Src)
	draw.Draw(c.frame, right, src, image.Point{}, draw.Src)
}

// borderWidths returns the left and right border thicknesses for a placement.
// Near-square placements widen the left band inward; the right band stays at
// the base thickness (current policy: extension is always zero).
func borderWidths(p domain.PixelRect) (left, right int) {
	left, right = borderSidePx, borderSidePx
	if p.H > 0 {
		aspect := float64(p.W) / float64(p.H)
		if aspect > aspectBandLow && aspect < aspectBandHigh {
			left += borderLeftExtraPx
		}
	}
	return left, right
}
