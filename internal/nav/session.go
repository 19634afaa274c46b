/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package nav holds the panel traversal state machine and tap-zone routing.
package nav

import "panelreader/internal/domain"

// Outcome reports the result of an advance or retreat transition.
type Outcome int

const (
	// StayOnPage: the index moved within the current panel list.
	StayOnPage Outcome = iota
	// ExhaustedForward: already at the last panel; the caller must request a
	// forward page turn and re-load.
	ExhaustedForward
	// ExhaustedBackward: already at the first panel; the caller must request
	// a backward page turn and re-load at the new page's last panel.
	ExhaustedBackward
	// NoPanels: the session is empty; no transition is possible.
	NoPanels
)

func (o Outcome) String() string {
	switch o {
	case StayOnPage:
		return "stay-on-page"
	case ExhaustedForward:
		return "exhausted-forward"
	case ExhaustedBackward:
		return "exhausted-backward"
	default:
		return "no-panels"
	}
}

// PageNone marks the last-page field as unset.
const PageNone = 0

// Session is the navigation state for one enabled integration: the current
// panel list, a 1-based index into it, and the page the list was resolved
// for. The zero value is the Empty state.
//
// Invariant: 1 <= index <= len(panels) whenever panels is non-empty.
type Session struct {
	panels   []domain.PanelData
	index    int
	lastPage int
}

// Reset returns the session to the Empty state with no last page. Called when
// the integration is (re-)enabled or the document closes.
func (s *Session) Reset() {
	s.panels = nil
	s.index = 1
	s.lastPage = PageNone
}

// Load replaces the panel list for the given page and positions at the first
// panel. An empty list moves the session to the Empty state.
func (s *Session) Load(panels []domain.PanelData, page int) {
	s.panels = panels
	s.index = 1
	s.lastPage = page
}

// LoadAtEnd replaces the panel list positioned at the last panel. Used after
// a backward page turn so traversal lands on the visually last panel of the
// previous page.
func (s *Session) LoadAtEnd(panels []domain.PanelData, page int) {
	s.Load(panels, page)
	if n := len(panels); n > 0 {
		s.index = n
	}
}

// Active reports whether the session holds panels.
func (s *Session) Active() bool { return len(s.panels) > 0 }

// Len returns the number of loaded panels.
func (s *Session) Len() int { return len(s.panels) }

// Index returns the 1-based current position; meaningless when not Active.
func (s *Session) Index() int { return s.index }

// LastPage returns the page the current list was resolved for, or PageNone.
func (s *Session) LastPage() int { return s.lastPage }

// Current returns the panel at the current index.
func (s *Session) Current() (domain.PanelData, bool) {
	if !s.Active() || s.index < 1 || s.index > len(s.panels) {
		return domain.PanelData{}, false
	}
	return s.panels[s.index-1], true
}

// NeedsReload reports whether the list must be re-resolved for page: either
// nothing is loaded or the resolved page changed.
func (s *Session) NeedsReload(page int) bool {
	return !s.Active() || s.lastPage != page
}

// Advance moves to the next panel, or reports ExhaustedForward at the end.
func (s *Session) Advance() Outcome {
	if !s.Active() {
		return NoPanels
	}
	if s.index < len(s.panels) {
		s.index++
		return StayOnPage
	}
	return ExhaustedForward
}

// Retreat moves to the previous panel, or reports ExhaustedBackward at the
// start.
func (s *Session) Retreat() Outcome {
	if !s.Active() {
		return NoPanels
	}
	if s.index > 1 {
		s.index--
		return StayOnPage
	}
	return ExhaustedBackward
}
