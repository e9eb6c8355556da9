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

package terminal

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/navigation"
	"github.com/google/gridcore/core/query"
	"github.com/google/gridcore/core/rows"
)

// Clipboard is the system clipboard as the controller uses it.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Controller turns terminal events into grid and navigation calls.
type Controller struct {
	Grid     *grid.Service
	Nav      *navigation.Service
	Renderer *Renderer

	clip Clipboard
	log  logger.Logger
}

func NewController(g *grid.Service, clip Clipboard, log logger.Logger) *Controller {
	nav := navigation.New(g, log)
	c := &Controller{
		Grid:     g,
		Nav:      nav,
		Renderer: New(g, nav, DefaultTheme()),
		clip:     clip,
		log:      logger.OrDefault(log),
	}
	// A selection in a column that went away moves on instead of vanishing.
	g.ColumnsChanged.Subscribe(func([]*columns.Column) {
		if p, ok := nav.Selected(); ok && !g.Selectable(p.J) {
			nav.RepeatLastEvent()
		}
	})
	g.Alerts.Subscribe(func(msg string) { c.Renderer.Message = msg })
	return c
}

// Status returns the last alert or action message.
func (c *Controller) Status() string {
	return c.Renderer.Message
}

func navKey(ev *tcell.EventKey) navigation.Key {
	switch ev.Key() {
	case tcell.KeyLeft:
		return navigation.KeyLeft
	case tcell.KeyRight:
		return navigation.KeyRight
	case tcell.KeyUp:
		return navigation.KeyUp
	case tcell.KeyDown:
		return navigation.KeyDown
	case tcell.KeyTab:
		return navigation.KeyTab
	case tcell.KeyBacktab:
		return navigation.KeyBacktab
	case tcell.KeyHome:
		return navigation.KeyHome
	case tcell.KeyEnd:
		return navigation.KeyEnd
	case tcell.KeyEscape:
		return navigation.KeyEscape
	}
	return navigation.KeyNone
}

// HandleEvent applies one event and reports whether the program should quit.
func (c *Controller) HandleEvent(ctx context.Context, ev tcell.Event) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return c.handleKey(ctx, ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			if p, ok := c.Renderer.HitTest(x, y); ok {
				meta := navigation.Meta{Shift: ev.Modifiers()&tcell.ModShift != 0, Ctrl: ev.Modifiers()&tcell.ModCtrl != 0}
				c.Nav.Click(p, meta)
			}
		}
	}
	return false
}

func (c *Controller) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	meta := navigation.Meta{Shift: ev.Modifiers()&tcell.ModShift != 0, Ctrl: ev.Modifiers()&tcell.ModCtrl != 0}
	if k := navKey(ev); k != navigation.KeyNone {
		c.Nav.HandleKey(k, meta)
		return false
	}
	if ev.Key() == tcell.KeyEnter {
		c.toggleSelectedGroup()
		return false
	}
	if ev.Key() != tcell.KeyRune {
		return false
	}
	switch ev.Rune() {
	case 'q':
		return true
	case 's':
		if p, ok := c.Nav.Selected(); ok {
			c.report(c.sortColumn(p.J))
		}
	case 'n':
		c.Grid.SetPage(query.PageNext)
	case 'p':
		c.Grid.SetPage(query.PagePrev)
	case 'g':
		c.toggleSelectedGroup()
	case ' ':
		if p, ok := c.Nav.Selected(); ok {
			if r, ok := c.Grid.Row(p.I); ok {
				c.report(c.Grid.SelectRow(p.I, !r.Selected))
			}
		}
	case 'c':
		c.report(c.copySelection())
	case 'v':
		c.report(c.pasteAtSelection())
	}
	if c.Grid.Config().External() {
		if _, pending := c.Grid.PendingRequest(); pending {
			if err := c.Grid.RequestExternal(ctx); err != nil && !errors.Is(err, grid.ErrStaleExternal) {
				c.log.Error("external request failed", "error", err)
			}
		}
	}
	return false
}

func (c *Controller) sortColumn(j int) error {
	cols := c.Grid.Columns()
	if j < 0 || j >= len(cols) {
		return grid.ErrOutOfRange
	}
	return c.Grid.Sort(cols[j].Field)
}

func (c *Controller) toggleSelectedGroup() {
	if p, ok := c.Nav.Selected(); ok {
		if r, ok := c.Grid.Row(p.I); ok && r.HasHeader() {
			c.report(c.Grid.ToggleGroup(p.I))
		}
	}
}

// selection returns the range to copy: the current range, or the selected cell.
func (c *Controller) selection() (rows.Range, bool) {
	if r, ok := c.Nav.Range(); ok {
		return r, true
	}
	if p, ok := c.Nav.Selected(); ok {
		return *rows.NewRange(p), true
	}
	return rows.Range{}, false
}

func (c *Controller) copySelection() error {
	if c.clip == nil {
		return nil
	}
	r, ok := c.selection()
	if !ok {
		return nil
	}
	text, err := c.Grid.CopyRange(r)
	if err != nil {
		return err
	}
	if err := c.clip.WriteAll(text); err != nil {
		return err
	}
	c.Renderer.Message = "copied " + r.String()
	return nil
}

func (c *Controller) pasteAtSelection() error {
	if c.clip == nil {
		return nil
	}
	p, ok := c.Nav.Selected()
	if !ok {
		return nil
	}
	text, err := c.clip.ReadAll()
	if err != nil {
		return err
	}
	return c.Grid.Paste(p, text)
}

func (c *Controller) report(err error) {
	if err != nil {
		c.Renderer.Message = err.Error()
		c.log.Debug("action failed", "error", err)
	}
}
