/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package controller wires tap routing, panel resolution and rendering into
// the host viewer: host gesture -> tap classification -> navigation
// transition (possibly a page turn) -> panel re-resolution -> crop ->
// composite.
package controller

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"panelreader/internal/domain"
	"panelreader/internal/host"
	applog "panelreader/internal/log"
	"panelreader/internal/nav"
	"panelreader/internal/render"
	"panelreader/internal/sidecar"
	"panelreader/internal/telemetry"
)

// Options configures a Controller.
type Options struct {
	ScreenW     int
	ScreenH     int
	SettleDelay time.Duration // pause after a page turn before re-resolving
	Dither      bool          // dithered blits for bistable displays
}

// Hooks bundles the host collaborators. Viewport and Notifier may be nil.
type Hooks struct {
	Doc       host.Document
	Turner    host.Turner
	Viewport  host.Viewport
	Presenter host.Presenter
	Notifier  host.Notifier
	Scheduler host.Scheduler
	// PageProbes are tried in order to find the current page; defaults to
	// page 1 when all fail.
	PageProbes []host.PageNumberSource
}

// Controller owns the navigation session for one open document while the
// integration is enabled. All entry points run on the host UI thread; the
// mutex only guards against the settle continuation firing from a timer
// goroutine.
type Controller struct {
	mu sync.Mutex
	l  *slog.Logger

	hooks   Hooks
	catalog *sidecar.Catalog
	comp    *render.Compositor

	screenW, screenH int
	settle           time.Duration
	dither           bool

	enabled   bool
	viewing   bool
	session   nav.Session
	direction domain.ReadingDirection

	cancelSettle host.CancelFunc
}

// New builds a controller. The compositor is sized to the screen up front.
func New(hooks Hooks, opts Options) (*Controller, error) {
	if hooks.Doc == nil || hooks.Turner == nil || hooks.Presenter == nil || hooks.Scheduler == nil {
		return nil, fmt.Errorf("missing host hooks")
	}
	comp, err := render.NewCompositor(opts.ScreenW, opts.ScreenH)
	if err != nil {
		return nil, err
	}
	settle := opts.SettleDelay
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	return &Controller{
		l:       applog.WithComponent("controller"),
		hooks:   hooks,
		catalog: sidecar.NewCatalog(),
		comp:    comp,
		screenW: opts.ScreenW,
		screenH: opts.ScreenH,
		settle:  settle,
		dither:  opts.Dither,
	}, nil
}

// Enable turns the integration on with a fresh session.
func (c *Controller) Enable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropPendingLocked()
	c.session.Reset()
	c.enabled = true
	c.l.Info("panel navigation enabled")
}

// Disable turns the integration off: any pending settle continuation is
// discarded, the crop view torn down, and the session destroyed.
func (c *Controller) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropPendingLocked()
	c.closeViewLocked()
	c.session.Reset()
	c.enabled = false
	c.l.Info("panel navigation disabled")
}

// Enabled reports whether the integration is on.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Viewing reports whether a crop view is currently displayed.
func (c *Controller) Viewing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewing
}

// HandleTap is the gesture entry point (screen pixel coordinates). It
// reports whether the tap was consumed; unhandled taps fall through to the
// host. Implements host.TapHandler.
func (c *Controller) HandleTap(x, _ int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return false
	}
	if c.cancelSettle != nil {
		// a page turn is settling; drop overlapping input by construction
		c.l.Debug("tap dropped while settling")
		return true
	}

	page := host.CurrentPage(c.hooks.PageProbes...)
	if err := c.ensureSessionLocked(page); err != nil {
		c.l.Warn("panel resolution failed", slog.Any("err", err))
		return false
	}
	if !c.session.Active() {
		c.notify("no panel data for this page")
		c.closeViewLocked()
		return false
	}

	action := nav.Classify(float64(x)/float64(c.screenW), c.direction)
	c.l.Debug("tap classified",
		slog.Int("x", x),
		slog.String("action", action.String()),
		slog.String("direction", string(c.direction)))

	switch action {
	case nav.Center:
		c.closeViewLocked()
		return true
	case nav.Forward:
		return c.stepLocked(c.session.Advance(), page)
	default:
		return c.stepLocked(c.session.Retreat(), page)
	}
}

// ShowCurrent renders the current panel, loading the session for the current
// page first if needed. Used when the integration is toggled on mid-page.
func (c *Controller) ShowCurrent() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return fmt.Errorf("integration disabled")
	}
	page := host.CurrentPage(c.hooks.PageProbes...)
	if err := c.ensureSessionLocked(page); err != nil {
		return err
	}
	if !c.session.Active() {
		c.closeViewLocked()
		return fmt.Errorf("no panels for page %d", page)
	}
	return c.renderCurrentLocked(page)
}

func (c *Controller) stepLocked(outcome nav.Outcome, page int) bool {
	switch outcome {
	case nav.StayOnPage:
		if err := c.renderCurrentLocked(page); err != nil {
			c.l.Warn("panel render failed", slog.Any("err", err))
			c.notify("panel view unavailable")
			c.closeViewLocked()
		}
		return true
	case nav.ExhaustedForward:
		c.requestTurnLocked(+1)
		return true
	case nav.ExhaustedBackward:
		c.requestTurnLocked(-1)
		return true
	default:
		return false
	}
}

// requestTurnLocked asks the host to turn the page and schedules the settle
// continuation. Navigation state is re-resolved only after the host's render
// pipeline has had time to settle.
func (c *Controller) requestTurnLocked(delta int) {
	if err := c.hooks.Turner.TurnPage(delta); err != nil {
		// document edge; keep the current panel on screen
		c.l.Debug("page turn rejected", slog.Int("delta", delta), slog.Any("err", err))
		c.notify("no more pages")
		return
	}
	c.l.Debug("page turn requested", slog.Int("delta", delta))
	c.cancelSettle = c.hooks.Scheduler.Schedule(c.settle, func() { c.onSettle(delta) })
}

// onSettle fires once after the page turn delay.
func (c *Controller) onSettle(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSettle = nil
	if !c.enabled {
		return
	}
	page := host.CurrentPage(c.hooks.PageProbes...)
	panels, dir := c.catalog.Resolve(c.hooks.Doc.Path(), page, c.hooks.Doc.PageFilename(page))
	c.direction = dir
	if len(panels) == 0 {
		// never re-show the previous page's crop on a panel-less page
		c.session.Reset()
		c.closeViewLocked()
		c.notify("no panel data for this page")
		return
	}
	if delta < 0 {
		c.session.LoadAtEnd(panels, page)
	} else {
		c.session.Load(panels, page)
	}
	if err := c.renderCurrentLocked(page); err != nil {
		c.l.Warn("panel render failed after page turn", slog.Any("err", err))
		c.closeViewLocked()
	}
}

// ensureSessionLocked re-resolves the panel list when the page changed or
// nothing is loaded.
func (c *Controller) ensureSessionLocked(page int) error {
	if !c.session.NeedsReload(page) {
		return nil
	}
	panels, dir := c.catalog.Resolve(c.hooks.Doc.Path(), page, c.hooks.Doc.PageFilename(page))
	c.direction = dir
	c.session.Load(panels, page)
	return nil
}

// renderCurrentLocked crops and composites the session's current panel.
func (c *Controller) renderCurrentLocked(page int) error {
	panel, ok := c.session.Current()
	if !ok {
		return fmt.Errorf("no current panel")
	}
	frame, err := host.FrameFor(c.hooks.Doc, c.hooks.Viewport, page)
	if err != nil {
		return fmt.Errorf("page frame: %w", err)
	}
	rect, err := render.ToPixelRect(panel, frame)
	if err != nil {
		return err
	}
	crop, err := c.hooks.Doc.CropRegion(page, rect)
	if err != nil {
		return fmt.Errorf("crop page %d: %w", page, err)
	}

	var composed = c.comp.Render
	if c.viewing {
		// replace in place: no flicker, no double letterbox paint
		composed = c.comp.Update
	}
	out, err := composed(crop, rect, c.dither)
	if err != nil {
		return err
	}
	c.hooks.Presenter.Show(out)
	c.viewing = true
	telemetry.Event("panel_view", map[string]any{
		"page":  page,
		"index": c.session.Index(),
		"count": c.session.Len(),
	})
	c.l.Debug("panel shown",
		slog.Int("page", page),
		slog.Int("index", c.session.Index()),
		slog.Int("count", c.session.Len()))
	return nil
}

func (c *Controller) closeViewLocked() {
	c.comp.Close()
	if c.viewing {
		c.hooks.Presenter.CloseView()
		c.viewing = false
	}
}

func (c *Controller) dropPendingLocked() {
	if c.cancelSettle != nil {
		c.cancelSettle()
		c.cancelSettle = nil
	}
}

func (c *Controller) notify(msg string) {
	if c.hooks.Notifier != nil {
		c.hooks.Notifier.Notify(msg)
	}
}
