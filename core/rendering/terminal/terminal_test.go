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
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/rows"
)

type memClipboard struct {
	text string
}

func (m *memClipboard) ReadAll() (string, error) { return m.text, nil }

func (m *memClipboard) WriteAll(text string) error {
	m.text = text
	return nil
}

func newGrid(t *testing.T, opts ...config.Option) *grid.Service {
	t.Helper()
	base := []config.Option{
		config.WithTitle("people"),
		config.WithColumns(
			config.Column{Field: "id", DataType: "number", IsKey: true},
			config.Column{Field: "name"},
			config.Column{Field: "age", DataType: "number"},
			config.Column{Field: "city"},
		),
	}
	cfg, err := config.New(append(base, opts...)...)
	require.NoError(t, err)
	g := grid.New(cfg, grid.Options{Logger: logger.Nop()})
	g.SetInputData([]map[string]any{
		{"id": 1, "name": "bob", "age": 30, "city": "Oslo"},
		{"id": 2, "name": "ann", "age": 25, "city": "Rome"},
		{"id": 3, "name": "cid", "age": 41, "city": "Oslo"},
	})
	g.Init()
	return g
}

func newScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(width, height)
	return screen
}

func readLine(screen tcell.Screen, y int) string {
	width, _ := screen.Size()
	runes := make([]rune, width)
	for x := range width {
		ch, _, _, _ := screen.GetContent(x, y)
		if ch == 0 {
			ch = ' '
		}
		runes[x] = ch
	}
	return strings.TrimRight(string(runes), " ")
}

func styleAt(screen tcell.Screen, x, y int) tcell.Style {
	_, _, style, _ := screen.GetContent(x, y)
	return style
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestDrawGrid(t *testing.T) {
	g := newGrid(t)
	c := NewController(g, nil, logger.Nop())
	screen := newScreen(t, 80, 6)
	c.Renderer.Draw(screen)

	header := readLine(screen, 0)
	assert.True(t, strings.HasPrefix(header, "id"), header)
	assert.Contains(t, header, "name")
	assert.Contains(t, header, "city")
	assert.Contains(t, readLine(screen, 1), "bob")
	assert.Contains(t, readLine(screen, 2), "ann")
	assert.Contains(t, readLine(screen, 3), "Oslo")
	assert.Contains(t, readLine(screen, 5), "people")
	assert.Contains(t, readLine(screen, 5), "3 rows")
}

func TestDrawPlaceholder(t *testing.T) {
	g := newGrid(t)
	g.SetInputData([]map[string]any{})
	g.SetInputDataInit()
	c := NewController(g, nil, logger.Nop())
	screen := newScreen(t, 40, 5)
	c.Renderer.Draw(screen)
	assert.Contains(t, readLine(screen, 1), "No Data")
}

func TestNavigationAndSort(t *testing.T) {
	g := newGrid(t)
	c := NewController(g, nil, logger.Nop())
	screen := newScreen(t, 80, 6)
	ctx := context.Background()

	c.HandleEvent(ctx, key(tcell.KeyDown))
	c.HandleEvent(ctx, key(tcell.KeyRight))
	p, ok := c.Nav.Selected()
	require.True(t, ok)
	assert.Equal(t, rows.Point{I: 0, J: 1}, p)

	c.Renderer.Draw(screen)
	x := strings.Index(readLine(screen, 1), "bob")
	require.GreaterOrEqual(t, x, 0)
	assert.Equal(t, DefaultTheme().Selected, styleAt(screen, x, 1))

	c.HandleEvent(ctx, char('s'))
	c.Renderer.Draw(screen)
	assert.Contains(t, readLine(screen, 1), "ann")
	assert.Contains(t, readLine(screen, 0), "▲")

	assert.True(t, c.HandleEvent(ctx, char('q')))
	assert.True(t, c.HandleEvent(ctx, key(tcell.KeyCtrlC)))
}

func TestVerticalScrollFollowsSelection(t *testing.T) {
	g := newGrid(t)
	c := NewController(g, nil, logger.Nop())
	screen := newScreen(t, 80, 4)
	ctx := context.Background()

	for range 3 {
		c.HandleEvent(ctx, key(tcell.KeyDown))
	}
	c.Renderer.Draw(screen)
	start, end := c.Renderer.Viewport().Rendered()
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
	assert.Contains(t, readLine(screen, 2), "cid")
}

func TestHorizontalScrollKeepsFixedColumn(t *testing.T) {
	g := newGrid(t, config.WithFixedColumns("name"))
	c := NewController(g, nil, logger.Nop())
	screen := newScreen(t, 40, 5)
	ctx := context.Background()

	c.HandleEvent(ctx, key(tcell.KeyDown))
	c.HandleEvent(ctx, key(tcell.KeyEnd))
	p, _ := c.Nav.Selected()
	assert.Equal(t, 3, p.J)

	c.Renderer.Draw(screen)
	line := readLine(screen, 1)
	assert.True(t, strings.HasPrefix(line, "bob"), line)
	assert.Contains(t, line, "Oslo")
	assert.NotContains(t, readLine(screen, 0), "id")
}

func TestCopyAndPaste(t *testing.T) {
	g := newGrid(t)
	clip := &memClipboard{}
	c := NewController(g, clip, logger.Nop())
	screen := newScreen(t, 80, 6)
	ctx := context.Background()

	c.Renderer.Draw(screen)
	c.HandleEvent(ctx, tcell.NewEventMouse(1, 1, tcell.Button1, tcell.ModNone))
	p, ok := c.Nav.Selected()
	require.True(t, ok)
	assert.Equal(t, rows.Point{I: 0, J: 0}, p)

	c.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModShift))
	c.HandleEvent(ctx, tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModShift))
	c.HandleEvent(ctx, char('c'))
	assert.Equal(t, "1\tbob\n2\tann\n", clip.text)

	clip.text = "zed"
	c.HandleEvent(ctx, key(tcell.KeyRight))
	c.HandleEvent(ctx, char('v'))
	r, _ := g.Row(0)
	assert.Equal(t, "zed", r.Value(1))
}

func TestHiddenColumnMovesSelection(t *testing.T) {
	g := newGrid(t)
	c := NewController(g, nil, logger.Nop())
	ctx := context.Background()
	c.HandleEvent(ctx, key(tcell.KeyDown))
	c.HandleEvent(ctx, key(tcell.KeyRight))

	require.NoError(t, g.SetColumnVisible("name", false))
	p, ok := c.Nav.Selected()
	require.True(t, ok)
	assert.Equal(t, rows.Point{I: 0, J: 2}, p)
}

func TestAlertsReachStatusLine(t *testing.T) {
	g := newGrid(t)
	c := NewController(g, nil, logger.Nop())
	require.Error(t, g.Paste(rows.Point{I: 2, J: 3}, "a\tb"))
	assert.Contains(t, c.Status(), "out of range")

	screen := newScreen(t, 120, 5)
	c.Renderer.Draw(screen)
	assert.Contains(t, readLine(screen, 4), "out of range")
}
