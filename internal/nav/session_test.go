/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package nav

import (
	"testing"

	"panelreader/internal/domain"
)

func threePanels() []domain.PanelData {
	return []domain.PanelData{
		{X: 0, Y: 0, W: 0.5, H: 0.5},
		{X: 0.5, Y: 0, W: 0.5, H: 0.5},
		{X: 0, Y: 0.5, W: 1, H: 0.5},
	}
}

func TestLoadEmptyStaysEmpty(t *testing.T) {
	var s Session
	s.Load(nil, 1)
	if s.Active() {
		t.Fatalf("empty load must not activate")
	}
	if got := s.Advance(); got != NoPanels {
		t.Fatalf("advance on empty: got %s", got)
	}
	if got := s.Retreat(); got != NoPanels {
		t.Fatalf("retreat on empty: got %s", got)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("empty session should have no current panel")
	}
}

func TestAdvanceThroughListThenExhaust(t *testing.T) {
	var s Session
	s.Load(threePanels(), 4)
	if s.Index() != 1 || s.LastPage() != 4 {
		t.Fatalf("load start state: index=%d page=%d", s.Index(), s.LastPage())
	}
	if got := s.Advance(); got != StayOnPage || s.Index() != 2 {
		t.Fatalf("advance 1->2: %s index=%d", got, s.Index())
	}
	if got := s.Advance(); got != StayOnPage || s.Index() != 3 {
		t.Fatalf("advance 2->3: %s index=%d", got, s.Index())
	}
	if got := s.Advance(); got != ExhaustedForward || s.Index() != 3 {
		t.Fatalf("advance at end must exhaust and keep index: %s index=%d", got, s.Index())
	}
}

func TestRetreatThroughListThenExhaust(t *testing.T) {
	var s Session
	s.LoadAtEnd(threePanels(), 7)
	if s.Index() != 3 {
		t.Fatalf("LoadAtEnd should land on last panel, index=%d", s.Index())
	}
	if got := s.Retreat(); got != StayOnPage || s.Index() != 2 {
		t.Fatalf("retreat 3->2: %s index=%d", got, s.Index())
	}
	if got := s.Retreat(); got != StayOnPage || s.Index() != 1 {
		t.Fatalf("retreat 2->1: %s index=%d", got, s.Index())
	}
	if got := s.Retreat(); got != ExhaustedBackward || s.Index() != 1 {
		t.Fatalf("retreat at start must exhaust and keep index: %s index=%d", got, s.Index())
	}
}

func TestPageTurnRoundTripLandsOnFarEnd(t *testing.T) {
	// Advancing off page 1 then retreating off page 2 must land on page 1's
	// last panel, not its first.
	var s Session
	page1 := threePanels()
	page2 := []domain.PanelData{{W: 1, H: 1}}

	s.Load(page1, 1)
	s.Advance()
	s.Advance()
	if got := s.Advance(); got != ExhaustedForward {
		t.Fatalf("expected exhausted-forward, got %s", got)
	}
	// forward turn lands on page 2's first panel
	s.Load(page2, 2)
	if s.Index() != 1 {
		t.Fatalf("forward turn should land on first panel, index=%d", s.Index())
	}
	if got := s.Retreat(); got != ExhaustedBackward {
		t.Fatalf("expected exhausted-backward, got %s", got)
	}
	// backward turn lands on page 1's last panel
	s.LoadAtEnd(page1, 1)
	if s.Index() != 3 {
		t.Fatalf("backward turn should land on last panel, index=%d", s.Index())
	}
	if cur, ok := s.Current(); !ok || cur != page1[2] {
		t.Fatalf("current should be page 1's last panel, got %+v", cur)
	}
}

func TestNeedsReload(t *testing.T) {
	var s Session
	s.Reset()
	if !s.NeedsReload(1) {
		t.Fatalf("empty session must need reload")
	}
	s.Load(threePanels(), 1)
	if s.NeedsReload(1) {
		t.Fatalf("same page should not need reload")
	}
	if !s.NeedsReload(2) {
		t.Fatalf("page change must need reload")
	}
}

func TestResetClearsState(t *testing.T) {
	var s Session
	s.Load(threePanels(), 9)
	s.Advance()
	s.Reset()
	if s.Active() || s.LastPage() != PageNone || s.Index() != 1 {
		t.Fatalf("reset state: active=%v page=%d index=%d", s.Active(), s.LastPage(), s.Index())
	}
}
