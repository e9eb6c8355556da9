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

package viewport

import (
	"math"

	"github.com/google/gridcore/core/columns"
)

// Box is the horizontal placement of one visible column.
type Box struct {
	J     int // column index in the grid
	Field string
	Left  int
	Width int
	Fixed bool
}

// Layout is the horizontal placement of the visible columns. Fixed columns
// come first; their Left is relative to the fixed pane, the others' to the
// scrolling pane.
type Layout struct {
	Boxes      []Box
	FixedWidth int
	MainWidth  int
}

func (l Layout) Box(j int) (Box, bool) {
	for _, b := range l.Boxes {
		if b.J == j {
			return b, true
		}
	}
	return Box{}, false
}

// ComputeLayout converts column widths, given in percent of available, to
// whole units clamped to each column's minimum and maximum. Columns without a
// width share the percentage left over by the others. Fractions lost to
// rounding are added to the last visible column.
func ComputeLayout(cols []*columns.Column, available int) Layout {
	var fixed, main []int
	explicit, unset := 0.0, 0
	for j, c := range cols {
		if !c.Visible {
			continue
		}
		if c.IsFixed {
			fixed = append(fixed, j)
		} else {
			main = append(main, j)
		}
		if c.Width > 0 {
			explicit += c.Width
		} else {
			unset++
		}
	}
	share := 0.0
	if unset > 0 {
		share = max(0, 100-explicit) / float64(unset)
		if share == 0 {
			share = 100 / float64(len(fixed)+len(main))
		}
	}

	var l Layout
	leftover := 0.0
	place := func(order []int, isFixed bool) int {
		left := 0
		for _, j := range order {
			c := cols[j]
			pct := c.Width
			if c.Width <= 0 {
				pct = share
			}
			exact := float64(available) * pct / 100
			w := int(math.Floor(exact))
			switch {
			case c.MinWidth > 0 && w < c.MinWidth:
				w = c.MinWidth
			case c.MaxWidth > 0 && w > c.MaxWidth:
				w = c.MaxWidth
			default:
				leftover += exact - float64(w)
			}
			l.Boxes = append(l.Boxes, Box{J: j, Field: c.Field, Left: left, Width: w, Fixed: isFixed})
			left += w
		}
		return left
	}
	l.FixedWidth = place(fixed, true)
	l.MainWidth = place(main, false)

	if n := len(l.Boxes); n > 0 {
		if extra := int(math.Floor(leftover + 1e-9)); extra > 0 {
			l.Boxes[n-1].Width += extra
			if l.Boxes[n-1].Fixed {
				l.FixedWidth += extra
			} else {
				l.MainWidth += extra
			}
		}
	}
	return l
}

// ScrollSync mirrors the main pane's scroll position onto the header, which
// follows horizontal scrolling, and the fixed pane, which follows vertical
// scrolling only.
type ScrollSync struct {
	HeaderOffset int
	FixedOffset  int
}

func (s *ScrollSync) Scroll(left, top int) {
	s.HeaderOffset = -left
	s.FixedOffset = -top
}
