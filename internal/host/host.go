/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package host defines the interfaces the panel reader consumes from the
// surrounding document viewer: page rendering, page turns, the visible-page
// frame, tap dispatch and deferred scheduling. Everything here is an
// interface boundary; real viewers and the in-package fakes both satisfy it.
package host

import (
	"image"
	"time"

	"panelreader/internal/domain"
)

// Document provides page bitmaps and metadata for one open document.
type Document interface {
	// Path identifies the document on storage; the sidecar lives next to it.
	Path() string
	PageCount() int
	// PageFilename returns the page's source filename, used as an alternate
	// sidecar lookup key. Empty when the document has no per-page files.
	PageFilename(page int) string
	// PageSize reports the page's native pixel dimensions.
	PageSize(page int) (domain.DisplayRect, error)
	// CropRegion decodes the given pixel region of a page.
	CropRegion(page int, r domain.PixelRect) (image.Image, error)
}

// Viewport optionally reports the viewport's visible-page-area rectangle,
// which is preferred over the native page size as the conversion frame.
type Viewport interface {
	VisiblePageArea() (domain.DisplayRect, bool)
}

// Turner turns pages; delta is +1 (forward) or -1 (backward).
type Turner interface {
	TurnPage(delta int) error
}

// Presenter displays a composited frame and tears it down on close.
type Presenter interface {
	Show(frame *image.RGBA)
	CloseView()
}

// Notifier surfaces a brief non-blocking notice to the reader.
type Notifier interface {
	Notify(msg string)
}

// PageNumberSource is one capability probe for the current page number.
type PageNumberSource func() (int, bool)

// CurrentPage tries each probe in order and returns the first successful
// result, defaulting to page 1 when all are unavailable.
func CurrentPage(probes ...PageNumberSource) int {
	for _, probe := range probes {
		if probe == nil {
			continue
		}
		if n, ok := probe(); ok && n >= 1 {
			return n
		}
	}
	return 1
}

// FrameFor picks the conversion frame for a page: the viewport's visible
// area when available, else the page's native size.
func FrameFor(doc Document, vp Viewport, page int) (domain.DisplayRect, error) {
	if vp != nil {
		if r, ok := vp.VisiblePageArea(); ok && r.Valid() {
			return r, nil
		}
	}
	return doc.PageSize(page)
}

// CancelFunc discards a pending continuation. Safe to call more than once.
type CancelFunc func()

// Scheduler posts a single-shot continuation after a delay. The panel
// controller uses it to let the host's render pipeline settle after a page
// turn before re-resolving panels.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

// TimerScheduler is the production scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// TapHandler consumes a single tap in screen pixel space. The return value
// reports whether the tap was handled; unhandled taps fall through to the
// host's own gesture handling.
type TapHandler interface {
	HandleTap(x, y int) bool
}

// Dispatch is the host's gesture-dispatch slot for panel navigation. The
// integration installs its handler on enable and the original is restored on
// disable, replacing the runtime method override the host would otherwise
// need.
type Dispatch struct {
	original  TapHandler
	installed TapHandler
}

// NewDispatch wraps the host's existing handler (may be nil).
func NewDispatch(original TapHandler) *Dispatch {
	return &Dispatch{original: original}
}

// Install swaps in a handler.
func (d *Dispatch) Install(h TapHandler) { d.installed = h }

// Restore puts the original handler back.
func (d *Dispatch) Restore() { d.installed = nil }

// HandleTap routes to the installed handler; a declined tap falls through to
// the original handler.
func (d *Dispatch) HandleTap(x, y int) bool {
	if d.installed != nil && d.installed.HandleTap(x, y) {
		return true
	}
	if d.original != nil {
		return d.original.HandleTap(x, y)
	}
	return false
}
