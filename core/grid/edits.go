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

package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/gridcore/core/editing"
	"github.com/google/gridcore/core/rows"
)

// cellLocked resolves a view point to its cell.
func (s *Service) cellLocked(p rows.Point) (*rows.Cell, error) {
	if p.I < 0 || p.I >= len(s.view) || p.J < 0 || p.J >= len(s.cols) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, p)
	}
	r := s.view[p.I]
	if r.HasHeader() {
		return nil, fmt.Errorf("%w: %s", ErrHeaderRow, p)
	}
	return r.Get(p.J), nil
}

// CommitEdit parses and validates text for the cell at p. On success the cell
// takes the new value and is marked dirty; otherwise it keeps its value and is
// marked invalid.
func (s *Service) CommitEdit(p rows.Point, text string) editing.Result {
	e := &emission{}
	s.mu.Lock()
	res := s.commitLocked(p, text, e)
	s.mu.Unlock()
	s.publish(e)
	return res
}

func (s *Service) commitLocked(p rows.Point, text string, e *emission) editing.Result {
	cell, err := s.cellLocked(p)
	if err != nil {
		return editing.Result{Err: err}
	}
	res := editing.Commit(s.cols[p.J], s.validators[p.J], text)
	if !res.Valid {
		cell.Invalid = true
		s.log.Debug("edit rejected", "point", p.String(), "field", s.cols[p.J].Field, "error", res.Err)
		return res
	}
	cell.Value = res.Value
	cell.Dirty = true
	cell.Invalid = false
	e.values = append(e.values, p)
	return res
}

// SetValue writes a raw value without parsing or validation.
func (s *Service) SetValue(p rows.Point, value any) error {
	e := &emission{}
	s.mu.Lock()
	cell, err := s.cellLocked(p)
	if err == nil {
		cell.Value = value
		cell.Dirty = true
		cell.Invalid = false
		e.values = append(e.values, p)
	}
	s.mu.Unlock()
	s.publish(e)
	return err
}

// DirtyRows returns the records of rows holding unsaved edits, in raw order.
func (s *Service) DirtyRows() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, r := range s.rows {
		if r.Dirty() {
			out = append(out, r.Record(s.fields))
		}
	}
	return out
}

// MarkClean clears every dirty and invalid flag, typically after the host
// saved DirtyRows.
func (s *Service) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		for _, c := range r.Cells {
			c.Dirty = false
			c.Invalid = false
		}
	}
}

// CopyRange renders the cells of r as tab separated lines of display text.
// Group header rows in the range are skipped.
func (s *Service) CopyRange(r rows.Range) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := r.Min(), r.Max()
	if lo.IsNegative() || hi.I >= len(s.view) || hi.J >= len(s.cols) {
		return "", fmt.Errorf("%w: %s", ErrOutOfRange, r.String())
	}
	var sb strings.Builder
	for i := lo.I; i <= hi.I; i++ {
		row := s.view[i]
		if row.HasHeader() {
			continue
		}
		for j := lo.J; j <= hi.J; j++ {
			if j > lo.J {
				sb.WriteByte('\t')
			}
			sb.WriteString(s.cols[j].Display(row.Value(j)))
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// Paste writes tab separated text starting at p, one CommitEdit per cell.
// Text that would reach past the view or over a group header is rejected
// before anything is written.
func (s *Service) Paste(p rows.Point, text string) error {
	lines := strings.Split(strings.TrimRight(text, "\r\n"), "\n")
	grid := make([][]string, len(lines))
	width := 0
	for k, line := range lines {
		grid[k] = strings.Split(strings.TrimRight(line, "\r"), "\t")
		width = max(width, len(grid[k]))
	}

	e := &emission{}
	s.mu.Lock()
	if p.IsNegative() || p.I+len(grid) > len(s.view) || p.J+width > len(s.cols) {
		s.mu.Unlock()
		err := fmt.Errorf("%w: %dx%d paste at %s", ErrOutOfRange, len(grid), width, p)
		s.Alerts.Publish(err.Error())
		return err
	}
	for k := range grid {
		if s.view[p.I+k].HasHeader() {
			s.mu.Unlock()
			err := fmt.Errorf("%w: paste over row %d", ErrHeaderRow, p.I+k)
			s.Alerts.Publish(err.Error())
			return err
		}
	}
	var errs []error
	for k, cells := range grid {
		for c, text := range cells {
			res := s.commitLocked(rows.Point{I: p.I + k, J: p.J + c}, text, e)
			if !res.Valid {
				errs = append(errs, res.Err)
			}
		}
	}
	s.mu.Unlock()
	s.publish(e)
	return errors.Join(errs...)
}
