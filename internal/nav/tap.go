/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package nav

import "panelreader/internal/domain"

// Action is the navigation meaning of a tap.
type Action int

const (
	// Forward advances to the next panel (possibly turning the page).
	Forward Action = iota
	// Backward retreats to the previous panel.
	Backward
	// Center closes the panel viewer.
	Center
)

func (a Action) String() string {
	switch a {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "center"
	}
}

// Horizontal tap zones as fractions of screen width. The outer bands map to
// forward/backward depending on reading direction; the middle band always
// closes the viewer.
const (
	leftZoneEnd    = 0.3
	rightZoneStart = 0.7
)

// Classify maps a tap's horizontal position (fraction of screen width in
// [0,1]) to an Action under the given reading direction. Pure function.
func Classify(xFraction float64, dir domain.ReadingDirection) Action {
	switch {
	case xFraction < leftZoneEnd:
		if dir == domain.RTL {
			return Forward
		}
		return Backward
	case xFraction > rightZoneStart:
		if dir == domain.RTL {
			return Backward
		}
		return Forward
	default:
		return Center
	}
}
