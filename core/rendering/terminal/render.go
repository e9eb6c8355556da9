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

// Package terminal draws a grid on a character screen. Row 0 holds the column
// headers, the last row a status line and the rows between them the windowed
// body. Fixed columns stay at the left edge while the rest scroll sideways.
package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/navigation"
	"github.com/google/gridcore/core/rendering/viewport"
	"github.com/google/gridcore/core/rows"
)

// cellPixels is the configured width, in pixels, of one terminal cell.
const cellPixels = 8

// Surface is the part of tcell.Screen the renderer draws on.
type Surface interface {
	Size() (width, height int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

type Theme struct {
	Header   tcell.Style
	Cell     tcell.Style
	Fixed    tcell.Style
	Selected tcell.Style
	Range    tcell.Style
	Group    tcell.Style
	Dirty    tcell.Style
	Invalid  tcell.Style
	Status   tcell.Style
}

func DefaultTheme() Theme {
	base := tcell.StyleDefault
	return Theme{
		Header:   base.Bold(true).Underline(true),
		Cell:     base,
		Fixed:    base.Foreground(tcell.ColorSilver),
		Selected: base.Reverse(true),
		Range:    base.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite),
		Group:    base.Bold(true).Foreground(tcell.ColorTeal),
		Dirty:    base.Italic(true),
		Invalid:  base.Foreground(tcell.ColorRed),
		Status:   base.Reverse(true),
	}
}

// Renderer draws one grid and keeps the scroll state between frames.
type Renderer struct {
	// Message is appended to the status line.
	Message string

	grid  *grid.Service
	nav   *navigation.Service
	theme Theme

	vp         *viewport.Viewport
	sync       viewport.ScrollSync
	scrollLeft int
	layout     viewport.Layout
	display    []int
	width      int
}

func New(g *grid.Service, nav *navigation.Service, theme Theme) *Renderer {
	r := &Renderer{grid: g, nav: nav, theme: theme, vp: viewport.New(1, 0)}
	g.ViewChanged.Subscribe(func([]*rows.Row) { r.vp.Reset() })
	return r
}

// Viewport exposes the vertical scroll state.
func (r *Renderer) Viewport() *viewport.Viewport {
	return r.vp
}

// toCells converts a pixel layout into terminal cells.
func toCells(l viewport.Layout) viewport.Layout {
	out := viewport.Layout{Boxes: make([]viewport.Box, len(l.Boxes))}
	fixedLeft, mainLeft := 0, 0
	for k, b := range l.Boxes {
		b.Width = max(1, b.Width/cellPixels)
		if b.Fixed {
			b.Left = fixedLeft
			fixedLeft += b.Width
		} else {
			b.Left = mainLeft
			mainLeft += b.Width
		}
		out.Boxes[k] = b
	}
	out.FixedWidth, out.MainWidth = fixedLeft, mainLeft
	return out
}

// prepare recomputes the layout and the scroll offsets for a screen size.
func (r *Renderer) prepare(width, height int) {
	cols := r.grid.Columns()
	r.width = width
	r.layout = toCells(viewport.ComputeLayout(cols, width*cellPixels))

	nRows, _ := r.grid.Dimensions()
	r.display = viewport.DisplayRows(nRows, r.grid.RowVisible)
	r.vp.Height = max(0, height-2)

	if p, ok := r.nav.Selected(); ok {
		if pos := r.displayPos(p.I); pos >= 0 {
			r.vp.ScrollTo(pos, len(r.display))
		}
		r.scrollToColumn(p.J)
	}
	r.vp.SetScrollTop(r.vp.ScrollTop, len(r.display))
	r.sync.Scroll(r.scrollLeft, r.vp.ScrollTop)
}

func (r *Renderer) displayPos(i int) int {
	for pos, v := range r.display {
		if v == i {
			return pos
		}
	}
	return -1
}

// scrollToColumn scrolls the main pane sideways so column j is in view.
func (r *Renderer) scrollToColumn(j int) {
	b, ok := r.layout.Box(j)
	if !ok || b.Fixed {
		return
	}
	visible := r.width - r.layout.FixedWidth
	switch {
	case b.Left < r.scrollLeft:
		r.scrollLeft = b.Left
	case b.Left+b.Width > r.scrollLeft+visible:
		r.scrollLeft = min(b.Left, b.Left+b.Width-visible)
	}
	r.scrollLeft = max(0, r.scrollLeft)
}

// Draw renders a full frame.
func (r *Renderer) Draw(s Surface) {
	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return
	}
	r.prepare(width, height)
	blank(s, width, height)

	cols := r.grid.Columns()
	sortInfo, sorted := r.grid.SortInfo()
	for _, b := range r.layout.Boxes {
		name := cols[b.J].Name
		if sorted && sortInfo.Field == cols[b.J].Field {
			if sortInfo.Asc {
				name += " ▲"
			} else {
				name += " ▼"
			}
		}
		r.drawBox(s, b, 0, name, r.theme.Header)
	}

	r.vp.Update(len(r.display))
	start, end := r.vp.Rendered()
	if start == end {
		msg := viewport.Placeholder(r.grid.Busy())
		x := max(0, (width-runewidth.StringWidth(msg))/2)
		drawText(s, x, 1, width, msg, r.theme.Cell)
	}
	sel, hasSel := r.nav.Selected()
	rng, hasRng := r.nav.Range()
	for pos := start; pos < end; pos++ {
		i := r.display[pos]
		row, ok := r.grid.Row(i)
		if !ok {
			continue
		}
		y := 1 + pos - start
		if row.HasHeader() {
			r.drawGroupHeader(s, y, width, row, hasSel && sel.I == i)
			continue
		}
		for _, b := range r.layout.Boxes {
			p := rows.Point{I: i, J: b.J}
			style := r.cellStyle(row.Get(b.J), b.Fixed)
			switch {
			case hasSel && sel == p:
				style = r.theme.Selected
			case hasRng && !rng.IsSingle() && rng.Contains(p):
				style = r.theme.Range
			}
			r.drawBox(s, b, y, cols[b.J].Display(row.Value(b.J)), style)
		}
	}

	r.drawStatus(s, width, height-1, cols, sel, hasSel)
}

func (r *Renderer) cellStyle(c *rows.Cell, fixed bool) tcell.Style {
	switch {
	case c == nil:
		return r.theme.Cell
	case c.Invalid:
		return r.theme.Invalid
	case c.Dirty:
		return r.theme.Dirty
	case fixed:
		return r.theme.Fixed
	default:
		return r.theme.Cell
	}
}

func (r *Renderer) drawGroupHeader(s Surface, y, width int, row *rows.Row, selected bool) {
	marker := "▾ "
	if row.IsCollapsed() {
		marker = "▸ "
	}
	style := r.theme.Group
	if selected {
		style = r.theme.Selected
	}
	text := fmt.Sprintf("%s%s (%d)", marker, row.Header, row.Count)
	cols := r.grid.Columns()
	for _, b := range r.layout.Boxes {
		if summary, ok := row.Summary[b.J]; ok {
			text += "  " + cols[b.J].Name + " " + summary
		}
	}
	drawText(s, 0, y, width, text, style)
}

// drawBox writes text into a column box on row y, clipped to the box and,
// for scrolling columns, to the area right of the fixed pane.
func (r *Renderer) drawBox(s Surface, b viewport.Box, y int, text string, style tcell.Style) {
	x, clipLeft := b.Left, 0
	if !b.Fixed {
		x = r.layout.FixedWidth + b.Left + r.sync.HeaderOffset
		clipLeft = r.layout.FixedWidth
	}
	text = fit(text, b.Width-1)
	for k := range b.Width {
		setCell(s, x+k, y, ' ', style, clipLeft, r.width)
	}
	drawClipped(s, x, y, clipLeft, min(x+b.Width, r.width), text, style)
}

func (r *Renderer) drawStatus(s Surface, width, y int, cols []*columns.Column, sel rows.Point, hasSel bool) {
	var parts []string
	if title := r.grid.Config().Title; title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, r.grid.PageInfo().String())
	if hasSel && sel.J >= 0 && sel.J < len(cols) {
		parts = append(parts, fmt.Sprintf("row %d, %s", sel.I+1, cols[sel.J].Name))
	}
	if r.grid.Busy() {
		parts = append(parts, viewport.LoadingData)
	}
	if r.Message != "" {
		parts = append(parts, r.Message)
	}
	line := strings.Join(parts, " | ")
	for x := range width {
		s.SetContent(x, y, ' ', nil, r.theme.Status)
	}
	drawText(s, 0, y, width, fit(line, width), r.theme.Status)
}

// HitTest maps a screen position to a grid point.
func (r *Renderer) HitTest(x, y int) (rows.Point, bool) {
	start, end := r.vp.Rendered()
	pos := start + y - 1
	if y < 1 || pos >= end {
		return rows.Point{}, false
	}
	i := r.display[pos]
	for _, b := range r.layout.Boxes {
		left := b.Left
		if !b.Fixed {
			if x < r.layout.FixedWidth {
				continue
			}
			left = r.layout.FixedWidth + b.Left + r.sync.HeaderOffset
		}
		if x >= left && x < left+b.Width {
			return rows.Point{I: i, J: b.J}, true
		}
	}
	return rows.Point{I: i, J: -1}, false
}

// fit truncates text to width cells, marking the cut with an ellipsis.
func fit(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

func blank(s Surface, width, height int) {
	for y := range height {
		for x := range width {
			s.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

func drawText(s Surface, x, y, maxX int, text string, style tcell.Style) {
	drawClipped(s, x, y, 0, maxX, text, style)
}

func drawClipped(s Surface, x, y, minX, maxX int, text string, style tcell.Style) {
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			return
		}
		setCell(s, x, y, ch, style, minX, maxX)
		x += w
	}
}

func setCell(s Surface, x, y int, ch rune, style tcell.Style, minX, maxX int) {
	if x < minX || x >= maxX {
		return
	}
	s.SetContent(x, y, ch, nil, style)
}
