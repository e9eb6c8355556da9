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

// Package rows holds the materialised cell/row model the grid pipeline produces.
package rows

import (
	"fmt"
	"strings"
)

// State is the group tri-state of a row.
type State int

const (
	Hidden State = iota
	Collapsed
	Expanded
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cell is one (row, column) intersection.
type Cell struct {
	Value   any
	Dirty   bool
	Invalid bool
	I       int // raw row number of the owning row
	J       int // column index
}

// Row is an ordered sequence of cells plus grouping metadata.
// Header rows are synthetic: they carry a label and the grouped values, and
// RowNum is -1.
type Row struct {
	Cells    []*Cell
	Header   string
	State    State
	Key      any
	RowNum   int
	Selected bool
	Visible  bool
	// Group headers only: member count and aggregate text by column index.
	Count   int
	Summary map[int]string

	hasHeader bool
}

// New materialises a row from a source record, one cell per field.
func New(rowNum int, record map[string]any, fields []string) *Row {
	r := &Row{
		Cells:   make([]*Cell, len(fields)),
		State:   Expanded,
		RowNum:  rowNum,
		Visible: true,
	}
	for j, field := range fields {
		r.Cells[j] = &Cell{Value: record[field], I: rowNum, J: j}
	}
	return r
}

// NewHeader creates a group header row with nColumns cells. values maps column
// index to the grouped value shown in that column.
func NewHeader(label string, nColumns int, values map[int]any, state State) *Row {
	r := &Row{
		Cells:     make([]*Cell, nColumns),
		Header:    label,
		State:     state,
		RowNum:    -1,
		Visible:   true,
		hasHeader: true,
	}
	for j := range r.Cells {
		r.Cells[j] = &Cell{Value: values[j], I: -1, J: j}
	}
	return r
}

func (r *Row) HasHeader() bool {
	return r.hasHeader
}

// Get returns the cell at column j, or nil when j is out of range.
func (r *Row) Get(j int) *Cell {
	if j < 0 || j >= len(r.Cells) {
		return nil
	}
	return r.Cells[j]
}

// Value returns the raw value at column j, nil when out of range.
func (r *Row) Value(j int) any {
	if c := r.Get(j); c != nil {
		return c.Value
	}
	return nil
}

func (r *Row) Len() int {
	return len(r.Cells)
}

func (r *Row) IsExpanded() bool {
	return r.State == Expanded
}

func (r *Row) IsCollapsed() bool {
	return r.State == Collapsed
}

// Dirty reports whether any cell has an uncommitted change.
func (r *Row) Dirty() bool {
	for _, c := range r.Cells {
		if c.Dirty {
			return true
		}
	}
	return false
}

// Record rebuilds a source record from the current cell values.
func (r *Row) Record(fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for j, f := range fields {
		out[f] = r.Value(j)
	}
	return out
}

// Concatenated joins the cell values with ", ".
func (r *Row) Concatenated() string {
	parts := make([]string, len(r.Cells))
	for j, c := range r.Cells {
		if c.Value != nil {
			parts[j] = fmt.Sprint(c.Value)
		}
	}
	return strings.Join(parts, ", ")
}
