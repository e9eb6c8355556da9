/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package navigation

import "github.com/google/gridcore/core/rows"

// Key is a navigation key, independent of the front-end's key codes.
type Key int

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyTab
	KeyBacktab
	KeyHome
	KeyEnd
	KeyEscape
)

// HandleKey applies a navigation key and reports whether it was consumed.
// Arrows with Shift or Ctrl grow the range instead of moving the selection.
// Tab is always consumed so the front-end does not move focus.
func (s *Service) HandleKey(key Key, meta Meta) bool {
	switch key {
	case KeyLeft:
		s.arrowKey(-1, 0, meta)
	case KeyRight:
		s.arrowKey(1, 0, meta)
	case KeyUp:
		s.arrowKey(0, -1, meta)
	case KeyDown:
		s.arrowKey(0, 1, meta)
	case KeyTab:
		s.TabFrom(nil, meta)
	case KeyBacktab:
		e := &emission{}
		s.mu.Lock()
		s.lastKind = KindArrow
		s.arrowLocked(nil, -1, 0, e)
		s.mu.Unlock()
		s.publish(e)
	case KeyHome, KeyEnd:
		s.rowEdge(key == KeyEnd)
	case KeyEscape:
		s.ClearSelectedLocation()
	default:
		return false
	}
	return true
}

func (s *Service) arrowKey(dx, dy int, meta Meta) {
	if !meta.RangeExtend() {
		s.ArrowFrom(nil, dx, dy, meta)
		return
	}
	e := &emission{}
	s.mu.Lock()
	if !s.has {
		s.mu.Unlock()
		return
	}
	if s.rng == nil {
		s.rng = rows.NewRange(s.selected)
	}
	nRows, nCols := s.model.Dimensions()
	t := s.rng.Terminal
	t.I = min(max(t.I+dy, 0), nRows-1)
	t.J = min(max(t.J+dx, 0), nCols-1)
	s.rng.Update(t)
	s.setRange(e)
	s.mu.Unlock()
	s.publish(e)
}

// rowEdge selects the first or last selectable cell of the selected row.
func (s *Service) rowEdge(last bool) {
	e := &emission{}
	s.mu.Lock()
	if s.has {
		_, nCols := s.model.Dimensions()
		for k := range nCols {
			j := k
			if last {
				j = nCols - 1 - k
			}
			if s.model.Selectable(j) {
				s.selectLocked(rows.Point{I: s.selected.I, J: j}, true, e)
				break
			}
		}
	}
	s.mu.Unlock()
	s.publish(e)
}
