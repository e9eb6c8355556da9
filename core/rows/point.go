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

package rows

import "fmt"

// Point is a logical cell coordinate: I is the view row, J the column index.
type Point struct {
	I int
	J int
}

func (p Point) IsNegative() bool {
	return p.I < 0 || p.J < 0
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.I, p.J)
}

// Range is a rectangular selection between an anchor and a terminal point.
// The two corners are kept as given; Min and Max normalise them.
type Range struct {
	Anchor   Point
	Terminal Point
}

func NewRange(p Point) *Range {
	return &Range{Anchor: p, Terminal: p}
}

// Update moves the terminal corner, keeping the anchor.
func (r *Range) Update(p Point) {
	r.Terminal = p
}

// SetInitial collapses the range onto p.
func (r *Range) SetInitial(p Point) {
	r.Anchor = p
	r.Terminal = p
}

func (r *Range) Min() Point {
	return Point{I: min(r.Anchor.I, r.Terminal.I), J: min(r.Anchor.J, r.Terminal.J)}
}

func (r *Range) Max() Point {
	return Point{I: max(r.Anchor.I, r.Terminal.I), J: max(r.Anchor.J, r.Terminal.J)}
}

func (r *Range) Contains(p Point) bool {
	lo, hi := r.Min(), r.Max()
	return p.I >= lo.I && p.I <= hi.I && p.J >= lo.J && p.J <= hi.J
}

// IsSingle reports whether the range covers exactly one cell.
func (r *Range) IsSingle() bool {
	return r.Anchor == r.Terminal
}

func (r *Range) String() string {
	return fmt.Sprintf("%s-%s", r.Min(), r.Max())
}

// RowChange records a selection moving from one view row to another.
type RowChange struct {
	From int
	To   int
}
