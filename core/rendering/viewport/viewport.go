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

// Package viewport holds the front-end independent geometry of a rendered
// grid: the window of rows inside a scrolled viewport, column pixel layout and
// fixed pane scroll mirroring. Units are whatever the front-end uses (pixels
// for HTML, cells for a terminal).
package viewport

import "slices"

const (
	NoData      = "No Data"
	LoadingData = "Loading Data..."
)

// Placeholder is the text shown instead of an empty table.
func Placeholder(busy bool) string {
	if busy {
		return LoadingData
	}
	return NoData
}

// Diff lists the display rows to drop and to create after a viewport update.
type Diff struct {
	Removed []int
	Added   []int
}

func (d Diff) Empty() bool {
	return len(d.Removed) == 0 && len(d.Added) == 0
}

// Viewport tracks a vertically scrolled window over a list of rows of equal
// height and remembers which rows are currently rendered.
type Viewport struct {
	RowHeight int
	Height    int
	ScrollTop int

	start, end int
}

func New(rowHeight, height int) *Viewport {
	return &Viewport{RowHeight: max(1, rowHeight), Height: max(0, height)}
}

// VisibleRowCount is the number of rows that fit in the height, counting a
// partially visible last row.
func (v *Viewport) VisibleRowCount() int {
	return (v.Height + v.RowHeight - 1) / v.RowHeight
}

// Window returns the half-open range of rows inside the viewport for a list
// of total rows.
func (v *Viewport) Window(total int) (start, end int) {
	start = min(max(0, v.ScrollTop/v.RowHeight), total)
	end = min(start+v.VisibleRowCount(), total)
	return start, end
}

// Rendered returns the window produced by the last Update.
func (v *Viewport) Rendered() (start, end int) {
	return v.start, v.end
}

// Update recomputes the window and reports the rows leaving and entering it.
func (v *Viewport) Update(total int) Diff {
	start, end := v.Window(total)
	var d Diff
	for i := v.start; i < v.end; i++ {
		if i < start || i >= end {
			d.Removed = append(d.Removed, i)
		}
	}
	for i := start; i < end; i++ {
		if i < v.start || i >= v.end {
			d.Added = append(d.Added, i)
		}
	}
	v.start, v.end = start, end
	return d
}

// Reset forgets the rendered rows, for example after the data changed, so the
// next Update recreates the whole window. It returns the rows to drop.
func (v *Viewport) Reset() []int {
	var removed []int
	for i := v.start; i < v.end; i++ {
		removed = append(removed, i)
	}
	v.start, v.end = 0, 0
	return removed
}

// SetScrollTop scrolls to offset, clamped to the scrollable extent of total rows.
func (v *Viewport) SetScrollTop(offset, total int) {
	limit := max(0, total*v.RowHeight-v.Height)
	v.ScrollTop = min(max(0, offset), limit)
}

// ScrollTo scrolls the least amount needed to show row. It reports whether
// the offset changed.
func (v *Viewport) ScrollTo(row, total int) bool {
	if row < 0 || row >= total {
		return false
	}
	before := v.ScrollTop
	top := row * v.RowHeight
	bottom := top + v.RowHeight
	switch {
	case top < v.ScrollTop:
		v.SetScrollTop(top, total)
	case bottom > v.ScrollTop+v.Height:
		v.SetScrollTop(bottom-v.Height, total)
	}
	return v.ScrollTop != before
}

// DisplayRows maps display positions to view row indices, leaving out the
// rows for which visible is false.
func DisplayRows(n int, visible func(i int) bool) []int {
	out := make([]int, 0, n)
	for i := range n {
		if visible(i) {
			out = append(out, i)
		}
	}
	return slices.Clip(out)
}
