//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"panelreader/internal/config"
	"panelreader/internal/controller"
	"panelreader/internal/crash"
	"panelreader/internal/domain"
	"panelreader/internal/host"
	applog "panelreader/internal/log"
)

// Run starts the Fyne-based viewer on a directory of page images. Taps on
// the page route through the panel controller; arrow keys turn pages, "p"
// toggles panel navigation.
func Run(dir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting viewer", slog.String("dir", dir))

	info := &crash.Info{DocumentPath: dir}
	defer func() { crash.Recover(info) }()

	doc, err := host.OpenDir(dir)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	fyneApp := app.NewWithID("panelreader")
	w := fyneApp.NewWindow("Panel Reader")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 800)
	winH := prefs.IntWithFallback("window.height", 1100)
	if winW < 400 {
		winW = 400
	}
	if winH < 500 {
		winH = 500
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	v := &viewer{
		doc:    doc,
		page:   1,
		info:   info,
		status: widget.NewLabel(""),
		bg:     canvas.NewImageFromImage(nil),
		crop:   canvas.NewImageFromImage(nil),
	}
	v.bg.FillMode = canvas.ImageFillContain
	v.crop.FillMode = canvas.ImageFillContain
	v.crop.Hide()

	ctrl, err := controller.New(controller.Hooks{
		Doc:        doc,
		Turner:     v,
		Presenter:  v,
		Notifier:   v,
		Scheduler:  host.TimerScheduler{},
		PageProbes: []host.PageNumberSource{func() (int, bool) { return v.page, true }},
	}, controller.Options{
		ScreenW:     winW,
		ScreenH:     winH,
		SettleDelay: time.Duration(cfg.Viewer.SettleDelayMs) * time.Millisecond,
		Dither:      cfg.Viewer.DitherEInk,
	})
	if err != nil {
		return err
	}
	v.ctrl = ctrl
	v.screenW, v.screenH = winW, winH
	// default handler: tap halves turn pages; the controller is installed
	// over it while panel navigation is on
	v.dispatch = host.NewDispatch(pageTapper{v})

	tap := newTapArea(v)
	w.SetContent(container.NewBorder(nil, v.status, nil, nil, container.NewStack(v.bg, v.crop, tap)))

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyRight:
			_ = v.TurnPage(+1)
		case fyne.KeyLeft:
			_ = v.TurnPage(-1)
		case fyne.KeyP:
			v.togglePanels()
		case fyne.KeyEscape:
			v.CloseView()
		}
	})

	if err := v.showPage(1); err != nil {
		return err
	}
	v.Notify("arrows: turn pages, p: panel navigation")

	w.SetOnClosed(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
	})
	w.ShowAndRun()
	return nil
}

// viewer is the fyne-side host: document turner, frame presenter and status
// notifier in one.
type viewer struct {
	doc      *host.DirDocument
	ctrl     *controller.Controller
	dispatch *host.Dispatch
	info     *crash.Info
	page     int
	screenW  int
	screenH  int

	bg     *canvas.Image
	crop   *canvas.Image
	status *widget.Label
}

func (v *viewer) TurnPage(delta int) error {
	next := v.page + delta
	if next < 1 || next > v.doc.PageCount() {
		return fmt.Errorf("page %d out of range", next)
	}
	return v.showPage(next)
}

func (v *viewer) showPage(page int) error {
	size, err := v.doc.PageSize(page)
	if err != nil {
		return err
	}
	img, err := v.doc.CropRegion(page, domain.PixelRect{W: size.W, H: size.H})
	if err != nil {
		return err
	}
	v.page = page
	v.info.Page = page
	v.bg.Image = img
	v.bg.Refresh()
	v.Notify(fmt.Sprintf("page %d/%d", page, v.doc.PageCount()))
	return nil
}

func (v *viewer) Show(frame *image.RGBA) {
	v.crop.Image = frame
	v.crop.Show()
	v.crop.Refresh()
}

func (v *viewer) CloseView() {
	v.crop.Hide()
	v.crop.Image = nil
}

func (v *viewer) Notify(msg string) { v.status.SetText(msg) }

func (v *viewer) togglePanels() {
	if v.ctrl.Enabled() {
		v.ctrl.Disable()
		v.dispatch.Restore()
		v.Notify("panel navigation off")
		return
	}
	v.ctrl.Enable()
	v.dispatch.Install(v.ctrl)
	if err := v.ctrl.ShowCurrent(); err != nil {
		v.Notify(err.Error())
	}
}

// pageTapper is the viewer's default tap handler: left half back, right half
// forward.
type pageTapper struct{ v *viewer }

func (p pageTapper) HandleTap(x, _ int) bool {
	if x > p.v.screenW/2 {
		_ = p.v.TurnPage(+1)
	} else {
		_ = p.v.TurnPage(-1)
	}
	return true
}

// tapArea is a transparent widget over the page that forwards tap positions
// (scaled to controller screen coordinates) to the panel controller.
type tapArea struct {
	widget.BaseWidget
	v *viewer
}

func newTapArea(v *viewer) *tapArea {
	t := &tapArea{v: v}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tapArea) Tapped(ev *fyne.PointEvent) {
	size := t.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	x := int(float64(ev.Position.X) / float64(size.Width) * float64(t.v.screenW))
	y := int(float64(ev.Position.Y) / float64(size.Height) * float64(t.v.screenH))
	t.v.dispatch.HandleTap(x, y)
}

func (t *tapArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(canvas.NewRectangle(color.Transparent))
}
