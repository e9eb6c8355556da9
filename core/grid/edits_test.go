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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/editing"
	"github.com/google/gridcore/core/formatting"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/rows"
)

func TestCommitEdit(t *testing.T) {
	cfg := peopleConfig()
	cfg.Columns[1].Validator = &config.Validator{MaxLength: 3}
	s := newService(t, cfg, people())
	var changed []rows.Point
	s.ValueChanged.Subscribe(func(p rows.Point) { changed = append(changed, p) })

	res := s.CommitEdit(rows.Point{I: 0, J: 2}, "35")
	require.True(t, res.Valid)
	assert.Equal(t, 35.0, s.View()[0].Value(2))
	assert.True(t, s.View()[0].Get(2).Dirty)
	assert.Equal(t, []rows.Point{{I: 0, J: 2}}, changed)

	res = s.CommitEdit(rows.Point{I: 0, J: 2}, "abc")
	assert.False(t, res.Valid)
	assert.ErrorIs(t, res.Err, formatting.ErrParse)
	assert.True(t, s.View()[0].Get(2).Invalid)
	assert.Equal(t, 35.0, s.View()[0].Value(2))
	assert.Len(t, changed, 1)

	res = s.CommitEdit(rows.Point{I: 1, J: 1}, "abcd")
	assert.ErrorIs(t, res.Err, editing.ErrTooLong)
	assert.Equal(t, "a", s.View()[1].Value(1))

	res = s.CommitEdit(rows.Point{I: 1, J: 3}, "U")
	require.True(t, res.Valid)
	assert.Equal(t, 3, s.View()[1].Value(3))

	res = s.CommitEdit(rows.Point{I: 1, J: 3}, "X")
	assert.ErrorIs(t, res.Err, formatting.ErrParse)

	res = s.CommitEdit(rows.Point{I: 9, J: 0}, "1")
	assert.ErrorIs(t, res.Err, ErrOutOfRange)
}

func TestCommitEditNotEditable(t *testing.T) {
	cfg := peopleConfig()
	cfg.Columns[0].Editable = config.Bool(false)
	s := newService(t, cfg, people())
	res := s.CommitEdit(rows.Point{I: 0, J: 0}, "7")
	assert.ErrorIs(t, res.Err, editing.ErrNotEditable)
	assert.Equal(t, 1, s.View()[0].Value(0))
}

func TestDirtyRowsAndMarkClean(t *testing.T) {
	data := people()
	s := newService(t, peopleConfig(), data)
	assert.Empty(t, s.DirtyRows())

	require.NoError(t, s.SetValue(rows.Point{I: 2, J: 1}, "zed"))
	dirty := s.DirtyRows()
	require.Len(t, dirty, 1)
	assert.Equal(t, "zed", dirty[0]["name"])
	assert.Equal(t, 3, dirty[0]["id"])
	assert.Equal(t, "c", data[2]["name"], "host records are not mutated")

	s.MarkClean()
	assert.Empty(t, s.DirtyRows())
	assert.ErrorIs(t, s.SetValue(rows.Point{I: -1, J: 0}, 1), ErrOutOfRange)
}

func TestCopyRange(t *testing.T) {
	s := newService(t, peopleConfig(), people())
	text, err := s.CopyRange(rows.Range{Anchor: rows.Point{I: 1, J: 3}, Terminal: rows.Point{I: 0, J: 1}})
	require.NoError(t, err)
	assert.Equal(t, "b\t30\tM\na\t25\tF\n", text)

	_, err = s.CopyRange(rows.Range{Terminal: rows.Point{I: 3, J: 0}})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPaste(t *testing.T) {
	s := newService(t, peopleConfig(), people())
	var alerts []string
	s.Alerts.Subscribe(func(m string) { alerts = append(alerts, m) })

	require.NoError(t, s.Paste(rows.Point{I: 0, J: 1}, "z\t50\r\ny\t51\n"))
	view := s.View()
	assert.Equal(t, "z", view[0].Value(1))
	assert.Equal(t, 50.0, view[0].Value(2))
	assert.Equal(t, "y", view[1].Value(1))
	assert.Equal(t, 51.0, view[1].Value(2))

	err := s.Paste(rows.Point{I: 2, J: 2}, "1\t2\t3")
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Len(t, alerts, 1)
	assert.Equal(t, 41, s.View()[2].Value(2))

	err = s.Paste(rows.Point{I: 2, J: 2}, "x")
	assert.ErrorIs(t, err, formatting.ErrParse)
}

func TestPasteOverGroupHeader(t *testing.T) {
	s := newService(t, peopleConfig(config.WithGroupBy(false, "gender")), people())
	var alerts []string
	s.Alerts.Subscribe(func(m string) { alerts = append(alerts, m) })
	err := s.Paste(rows.Point{I: 1, J: 1}, "p\nq")
	assert.ErrorIs(t, err, ErrHeaderRow)
	assert.Equal(t, "b", s.View()[1].Value(1))
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "paste over row 2")
}

func TestRowSelection(t *testing.T) {
	s := newService(t, peopleConfig(config.WithRowSelect(true)), people())
	var selected [][]any
	s.SelectedRowsChanged.Subscribe(func(keys []any) { selected = append(selected, keys) })

	require.NoError(t, s.SelectRow(2, true))
	require.NoError(t, s.SelectRow(0, true))
	assert.Equal(t, []any{1, 3}, s.SelectedKeys())
	require.NoError(t, s.SelectRow(0, true))
	assert.Len(t, selected, 2)

	require.NoError(t, s.SortBy("name", true))
	assert.True(t, s.View()[2].Selected)
	assert.Equal(t, []any{1, 3}, s.SelectedKeys())

	assert.Equal(t, 2, s.DeleteSelectedRows())
	assert.Equal(t, []any{2}, ids(s.View()))
	assert.Empty(t, s.SelectedKeys())
	assert.Equal(t, 0, s.View()[0].RowNum)

	assert.ErrorIs(t, s.SelectRow(5, true), ErrOutOfRange)
}

func TestRowSelectionDisabled(t *testing.T) {
	s := newService(t, peopleConfig(), people())
	assert.ErrorIs(t, s.SelectRow(0, true), ErrRowSelectOff)
	assert.Equal(t, 0, s.DeleteSelectedRows())
}

func TestClearSelectedRows(t *testing.T) {
	s := newService(t, peopleConfig(config.WithRowSelect(true)), people())
	require.NoError(t, s.SelectRow(1, true))
	s.ClearSelectedRows()
	assert.Empty(t, s.SelectedKeys())
	for _, r := range s.View() {
		assert.False(t, r.Selected)
	}
}

func TestDoubleClickRow(t *testing.T) {
	s := newService(t, peopleConfig(), people())
	var keys []any
	s.DoubleClicked.Subscribe(func(k any) { keys = append(keys, k) })
	s.DoubleClickRow(1)
	s.DoubleClickRow(7)
	assert.Equal(t, []any{2}, keys)

	cfg := peopleConfig()
	cfg.Columns[0].IsKey = false
	noKey := newService(t, cfg, people())
	var fired bool
	noKey.DoubleClicked.Subscribe(func(any) { fired = true })
	noKey.DoubleClickRow(0)
	assert.False(t, fired)
}

func TestRegistryPushFilters(t *testing.T) {
	reg := NewRegistry(logger.Nop())
	a := newService(t, peopleConfig(), people())
	b := newService(t, peopleConfig(), people())
	other := New(&config.Grid{Columns: []config.Column{{Field: "city"}}}, Options{Logger: logger.Nop()})
	other.Init()
	reg.Register("a", a)
	reg.Register("b", b)
	reg.Register("c", other)
	assert.Equal(t, []string{"a", "b", "c"}, reg.IDs())

	require.NoError(t, reg.RegisterGroup("people", "a"))
	require.NoError(t, reg.RegisterGroup("people", "b"))
	require.NoError(t, reg.RegisterGroup("people", "c"))
	require.NoError(t, reg.RegisterGroup("people", "b"))
	assert.Error(t, reg.RegisterGroup("people", "missing"))

	filters := []columns.FilterInfo{{Value: "a"}}
	updated := reg.PushFilters("people", "a", "name", filters)
	assert.Equal(t, []string{"b"}, updated)
	assert.Equal(t, []any{2}, ids(b.View()))
	assert.Equal(t, []any{1, 2, 3}, ids(a.View()))

	got, ok := reg.Get("b")
	require.True(t, ok)
	assert.Same(t, b, got)
}
