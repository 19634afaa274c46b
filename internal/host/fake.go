/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package host

import (
	"fmt"
	"image"
	"time"

	"panelreader/internal/domain"
)

// Fakes for controller and viewer tests. They live in the package (not in a
// _test file) so other packages' tests can reuse them.

// FakeDocument is an in-memory Document and Turner over uniformly sized
// synthetic pages.
type FakeDocument struct {
	DocPath  string
	Pages    int
	W, H     int
	Current  int   // current page, 1-based
	Turns    []int // recorded TurnPage deltas
	FailCrop bool  // force CropRegion errors
}

func (f *FakeDocument) Path() string   { return f.DocPath }
func (f *FakeDocument) PageCount() int { return f.Pages }

func (f *FakeDocument) PageFilename(page int) string {
	if page < 1 || page > f.Pages {
		return ""
	}
	return fmt.Sprintf("%03d.png", page)
}

func (f *FakeDocument) PageSize(page int) (domain.DisplayRect, error) {
	if page < 1 || page > f.Pages {
		return domain.DisplayRect{}, fmt.Errorf("page %d out of range", page)
	}
	return domain.DisplayRect{W: f.W, H: f.H}, nil
}

func (f *FakeDocument) CropRegion(page int, r domain.PixelRect) (image.Image, error) {
	if f.FailCrop {
		return nil, fmt.Errorf("crop failed")
	}
	if page < 1 || page > f.Pages {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	if r.Empty() {
		return nil, fmt.Errorf("empty crop rect")
	}
	return image.NewRGBA(image.Rect(0, 0, r.W, r.H)), nil
}

// TurnPage moves the current page, clamped to the document bounds.
func (f *FakeDocument) TurnPage(delta int) error {
	next := f.Current + delta
	if next < 1 || next > f.Pages {
		return fmt.Errorf("page turn out of bounds: %d", next)
	}
	f.Current = next
	f.Turns = append(f.Turns, delta)
	return nil
}

// FakePresenter records shown frames and close calls.
type FakePresenter struct {
	Shown  int
	Closed int
	Last   *image.RGBA
}

func (p *FakePresenter) Show(frame *image.RGBA) {
	p.Shown++
	p.Last = frame
}

func (p *FakePresenter) CloseView() {
	p.Closed++
	p.Last = nil
}

// FakeNotifier collects notices.
type FakeNotifier struct{ Msgs []string }

func (n *FakeNotifier) Notify(msg string) { n.Msgs = append(n.Msgs, msg) }

// ManualScheduler captures continuations so tests fire them deterministically
// instead of sleeping.
type ManualScheduler struct {
	Pending  []func()
	Canceled int
}

func (s *ManualScheduler) Schedule(_ time.Duration, fn func()) CancelFunc {
	idx := len(s.Pending)
	s.Pending = append(s.Pending, fn)
	return func() {
		if idx < len(s.Pending) && s.Pending[idx] != nil {
			s.Pending[idx] = nil
			s.Canceled++
		}
	}
}

// Fire runs and clears all pending continuations in order.
func (s *ManualScheduler) Fire() {
	pending := s.Pending
	s.Pending = nil
	for _, fn := range pending {
		if fn != nil {
			fn()
		}
	}
}
