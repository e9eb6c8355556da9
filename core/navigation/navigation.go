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

// Package navigation owns the selected cell and range of a grid and computes
// the next selection for clicks, arrows and tabs. It never looks at rendering;
// the grid shape comes from a Model.
package navigation

import (
	"sync"

	"github.com/google/gridcore/core/events"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/rows"
)

// Model is the part of the grid navigation needs. *grid.Service satisfies it.
type Model interface {
	// Dimensions returns the number of view rows and columns.
	Dimensions() (nRows, nColumns int)
	Selectable(j int) bool
	// RowVisible is false for rows hidden by a collapsed group.
	RowVisible(i int) bool
}

// Kind is the kind of the last navigation event.
type Kind int

const (
	KindNone Kind = iota
	KindClick
	KindTab
	KindArrow
)

func (k Kind) String() string {
	switch k {
	case KindClick:
		return "click"
	case KindTab:
		return "tab"
	case KindArrow:
		return "arrow"
	default:
		return "none"
	}
}

// Meta carries the modifier keys of an input event.
type Meta struct {
	Shift bool
	Ctrl  bool
}

// RangeExtend reports whether the event extends a range instead of moving the
// selection.
func (m Meta) RangeExtend() bool {
	return m.Shift || m.Ctrl
}

// Selection is the published selection state. Valid is false when nothing is
// selected.
type Selection struct {
	Point rows.Point
	Valid bool
}

type Service struct {
	// Selection receives every selection change, including clears.
	Selection events.Topic[Selection]
	// RangeChanged receives the current range; a nil range means it was cleared.
	RangeChanged events.Topic[*rows.Range]
	// Unselect receives the previously selected point when the selection leaves it.
	Unselect events.Topic[rows.Point]
	// RowChanged fires when navigation moves the selection to another row.
	RowChanged events.Topic[rows.RowChange]

	mu       sync.Mutex
	model    Model
	log      logger.Logger
	selected rows.Point
	has      bool
	rng      *rows.Range
	lastDx   int
	lastDy   int
	lastKind Kind
}

func New(model Model, log logger.Logger) *Service {
	return &Service{
		model: model,
		log:   logger.OrDefault(log),
	}
}

// emission is what a locked operation publishes once the lock is released.
type emission struct {
	selection *Selection
	unselect  *rows.Point
	rowChange *rows.RowChange
	rng       *rows.Range
	rngSet    bool
}

func (s *Service) publish(e *emission) {
	if e.unselect != nil {
		s.Unselect.Publish(*e.unselect)
	}
	if e.selection != nil {
		s.Selection.Publish(*e.selection)
	}
	if e.rowChange != nil {
		s.RowChanged.Publish(*e.rowChange)
	}
	if e.rngSet {
		s.RangeChanged.Publish(e.rng)
	}
}

func (s *Service) setRange(e *emission) {
	e.rngSet = true
	if s.rng != nil {
		r := *s.rng
		e.rng = &r
	} else {
		e.rng = nil
	}
}

// Selected returns the selected point.
func (s *Service) Selected() (rows.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.has
}

// Range returns a copy of the current range.
func (s *Service) Range() (rows.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		return rows.Range{}, false
	}
	return *s.rng, true
}

func (s *Service) LastEvent() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKind
}

// LastDelta returns the direction of the last arrow or tab.
func (s *Service) LastDelta() (dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDx, s.lastDy
}

// selectLocked moves the selection to p, or clears it when valid is false.
func (s *Service) selectLocked(p rows.Point, valid bool, e *emission) {
	if s.has && (!valid || p != s.selected) {
		prev := s.selected
		e.unselect = &prev
	}
	if valid {
		s.selected, s.has = p, true
	} else {
		s.selected, s.has = rows.Point{I: -1, J: -1}, false
	}
	e.selection = &Selection{Point: s.selected, Valid: s.has}
}

// SetSelectedLocation selects p. Negative coordinates clear the selection.
// Points in a column that is not selectable, and events that extend a range,
// leave the selection alone.
func (s *Service) SetSelectedLocation(p rows.Point, meta Meta) {
	e := &emission{}
	s.mu.Lock()
	switch {
	case p.IsNegative():
		s.selectLocked(p, false, e)
	case !s.model.Selectable(p.J):
		s.log.Debug("ignoring selection of unselectable column", "point", p.String())
	case meta.RangeExtend():
	default:
		s.selectLocked(p, true, e)
	}
	s.mu.Unlock()
	s.publish(e)
}

// ClearSelectedLocation drops both the selection and the range.
func (s *Service) ClearSelectedLocation() {
	e := &emission{}
	s.mu.Lock()
	s.selectLocked(rows.Point{I: -1, J: -1}, false, e)
	s.rng = nil
	s.setRange(e)
	s.mu.Unlock()
	s.publish(e)
}

// Click selects p and starts a new single cell range there. With a range
// extending modifier the range grows to p instead.
func (s *Service) Click(p rows.Point, meta Meta) {
	s.mu.Lock()
	s.lastKind = KindClick
	s.mu.Unlock()
	switch {
	case p.IsNegative():
		s.ClearSelectedLocation()
	case !s.model.Selectable(p.J):
	default:
		s.SetSelectedRange(p, meta)
	}
}

// SetMouseDragSelected grows the range to p while the mouse is dragged,
// starting a range at p when there is none.
func (s *Service) SetMouseDragSelected(p rows.Point) {
	if p.IsNegative() {
		return
	}
	e := &emission{}
	s.mu.Lock()
	if s.rng == nil {
		s.rng = rows.NewRange(p)
	} else {
		s.rng.Update(p)
	}
	s.setRange(e)
	s.mu.Unlock()
	s.publish(e)
}

// SetSelectedRange selects p and updates the range: without modifiers the
// range collapses onto p, with Shift or Ctrl its far corner moves to p.
func (s *Service) SetSelectedRange(p rows.Point, meta Meta) {
	e := &emission{}
	s.mu.Lock()
	if !p.IsNegative() {
		s.selectLocked(p, true, e)
	}
	switch {
	case s.rng == nil:
		s.rng = rows.NewRange(p)
	case !meta.RangeExtend():
		s.rng.SetInitial(p)
	default:
		s.rng.Update(p)
	}
	s.setRange(e)
	s.mu.Unlock()
	s.publish(e)
}

// ArrowFrom moves one step from p, or from the current selection when p is
// nil. Horizontal steps wrap onto the next or previous row and skip columns
// that are not selectable; vertical steps skip rows hidden by collapsed
// groups. Leaving the grid clears the selection. With nothing selected and p
// nil the first selectable cell of row 0 is selected.
func (s *Service) ArrowFrom(p *rows.Point, dx, dy int, meta Meta) {
	e := &emission{}
	s.mu.Lock()
	s.lastKind = KindArrow
	s.arrowLocked(p, dx, dy, e)
	s.mu.Unlock()
	s.publish(e)
}

func (s *Service) arrowLocked(p *rows.Point, dx, dy int, e *emission) {
	var from rows.Point
	switch {
	case p != nil:
		from = *p
	case s.has:
		from = s.selected
	default:
		start, ok := s.firstLocked()
		s.selectLocked(start, ok, e)
		return
	}
	s.lastDx, s.lastDy = dx, dy

	to, ok := s.stepLocked(from, dx, dy)
	s.log.Debug("arrow", "from", from.String(), "to", to.String(), "valid", ok)
	s.selectLocked(to, ok, e)
	if ok && from.I >= 0 && from.I != to.I {
		e.rowChange = &rows.RowChange{From: from.I, To: to.I}
	}
}

func (s *Service) firstLocked() (rows.Point, bool) {
	nRows, nCols := s.model.Dimensions()
	if nRows == 0 {
		return rows.Point{I: -1, J: -1}, false
	}
	for j := range nCols {
		if s.model.Selectable(j) {
			return rows.Point{I: 0, J: j}, true
		}
	}
	return rows.Point{I: -1, J: -1}, false
}

func (s *Service) stepLocked(p rows.Point, dx, dy int) (rows.Point, bool) {
	nRows, nCols := s.model.Dimensions()
	if dx != 0 {
		// At most one full row of columns is scanned.
		for range nCols {
			p.J += dx
			wrapped := 0
			if p.J >= nCols {
				p.I, p.J, wrapped = p.I+1, 0, 1
			} else if p.J < 0 {
				p.I, p.J, wrapped = p.I-1, nCols-1, -1
			}
			if wrapped != 0 {
				p.I = s.visibleFromLocked(p.I, wrapped, nRows)
			}
			if s.model.Selectable(p.J) {
				break
			}
		}
	} else if dy != 0 {
		p.I = s.visibleFromLocked(p.I+dy, dy, nRows)
	}
	valid := p.I >= 0 && p.I < nRows && p.J >= 0 && p.J < nCols &&
		s.model.Selectable(p.J) && s.model.RowVisible(p.I)
	return p, valid
}

// visibleFromLocked returns the first visible row at or after i in direction
// dir, or a row outside [0, nRows) when there is none.
func (s *Service) visibleFromLocked(i, dir, nRows int) int {
	for i >= 0 && i < nRows && !s.model.RowVisible(i) {
		i += dir
	}
	return i
}

// TabFrom moves right with wrapping, like ArrowFrom(p, 1, 0, meta).
func (s *Service) TabFrom(p *rows.Point, meta Meta) {
	e := &emission{}
	s.mu.Lock()
	s.lastKind = KindTab
	s.arrowLocked(p, 1, 0, e)
	s.mu.Unlock()
	s.publish(e)
}

// RepeatLastEvent repeats the last arrow or tab from the current selection,
// so that a selection whose cell went away lands on the next sensible cell.
// After a click, or with no previous event, the selection is cleared.
func (s *Service) RepeatLastEvent() {
	e := &emission{}
	s.mu.Lock()
	switch s.lastKind {
	case KindTab:
		s.arrowLocked(nil, 1, 0, e)
	case KindArrow:
		s.arrowLocked(nil, s.lastDx, s.lastDy, e)
	default:
		s.selectLocked(rows.Point{I: -1, J: -1}, false, e)
	}
	s.mu.Unlock()
	s.publish(e)
}
