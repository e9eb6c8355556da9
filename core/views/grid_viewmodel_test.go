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

package views

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/query"
	"github.com/google/gridcore/core/rendering/viewport"
)

func peopleGrid(t *testing.T, opts ...config.Option) *grid.Service {
	t.Helper()
	base := []config.Option{
		config.WithTitle("People"),
		config.WithColumns(
			config.Column{Field: "id", DataType: "number", IsKey: true},
			config.Column{Field: "name", Name: "Name"},
			config.Column{Field: "age", DataType: "number"},
			config.Column{
				Field:    "gender",
				DataType: "choice",
				Choices: []map[string]any{
					{"value": 1, "display": "F"},
					{"value": 2, "display": "M"},
				},
			},
		),
		config.WithPageSize(10, 2, 10),
	}
	cfg, err := config.New(append(base, opts...)...)
	require.NoError(t, err)
	s := grid.New(cfg, grid.Options{Logger: logger.Nop()})
	s.SetInputData([]map[string]any{
		{"id": 1, "name": "bob", "age": 30, "gender": 2},
		{"id": 2, "name": "ann", "age": 25, "gender": 1},
		{"id": 3, "name": "cid", "age": 41, "gender": 2},
		{"id": 4, "name": "bea", "age": 35, "gender": 1},
	})
	s.Init()
	return s
}

func parse(t *testing.T, raw string) *query.Query {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return query.NewQuery(u)
}

func names(vm GridViewModel) []string {
	var out []string
	for _, r := range vm.Rows {
		if r.IsHeader {
			out = append(out, "#"+r.Label)
			continue
		}
		for _, c := range r.Cells {
			if c.J == 1 {
				out = append(out, c.Text)
			}
		}
	}
	return out
}

func TestApplyQuerySortFilterPage(t *testing.T) {
	s := peopleGrid(t)
	q := parse(t, "/grid?grid=people&sort=-age&filter:name=b&pageSize=2")
	require.NoError(t, ApplyQuery(s, q))

	vm := BuildGridViewModel(s, q, 800, nil)
	assert.Equal(t, "People", vm.Title)
	assert.Equal(t, []string{"bea", "bob"}, names(vm))
	assert.Equal(t, 1, vm.Page.NumPages)
	assert.Empty(t, vm.Placeholder)

	var age HeaderInfo
	for _, h := range vm.Headers {
		if h.Field == "age" {
			age = h
		}
	}
	assert.True(t, age.Sorted)
	assert.True(t, age.Desc)
	assert.Contains(t, age.SortURL.String(), "sort=age")
}

func TestApplyQueryPaging(t *testing.T) {
	s := peopleGrid(t)
	q := parse(t, "/grid?grid=people&pageSize=2&page=1")
	require.NoError(t, ApplyQuery(s, q))
	vm := BuildGridViewModel(s, q, 800, nil)
	assert.Equal(t, []string{"cid", "bea"}, names(vm))
	assert.True(t, vm.Pager.HasPrev)
	assert.False(t, vm.Pager.HasNext)
	assert.Contains(t, vm.Pager.PrevURL.String(), "pageSize=2")

	var current []string
	for _, l := range vm.PageSizes {
		if l.Current {
			current = append(current, l.Label)
		}
	}
	assert.Equal(t, []string{"2"}, current)
}

func TestApplyQueryHiddenColumnsAndGrouping(t *testing.T) {
	s := peopleGrid(t)
	q := parse(t, "/grid?grid=people&columns=name,gender&grouped=gender&collapsed=M")
	require.NoError(t, ApplyQuery(s, q))
	vm := BuildGridViewModel(s, q, 800, nil)

	require.Len(t, vm.Headers, 2)
	assert.Equal(t, []string{"#M", "#F", "ann", "bea"}, names(vm))
	assert.True(t, vm.Rows[0].Collapsed)
	assert.Contains(t, vm.Rows[0].ToggleURL.String(), "grid=people")

	for _, c := range vm.AllColumns {
		assert.Equal(t, c.Field == "name" || c.Field == "gender", c.IsVisible, c.Field)
	}

	q = parse(t, "/grid?grid=people")
	require.NoError(t, ApplyQuery(s, q))
	vm = BuildGridViewModel(s, q, 800, nil)
	assert.Len(t, vm.Headers, 4)
	assert.Len(t, vm.Rows, 4)
}

func TestApplyQueryReportsUnknownColumns(t *testing.T) {
	s := peopleGrid(t)
	q := parse(t, "/grid?grid=people&sort=nope&filter:missing=x")
	err := ApplyQuery(s, q)
	assert.ErrorIs(t, err, grid.ErrUnknownColumn)
	assert.Len(t, s.View(), 4)
}

func TestPlaceholderWhenEmpty(t *testing.T) {
	s := peopleGrid(t)
	q := parse(t, "/grid?grid=people&filter:name=zzz")
	require.NoError(t, ApplyQuery(s, q))
	vm := BuildGridViewModel(s, q, 800, nil)
	assert.Empty(t, vm.Rows)
	assert.Equal(t, viewport.NoData, vm.Placeholder)
}

func TestSelectedRowsAreMarked(t *testing.T) {
	s := peopleGrid(t)
	q := parse(t, "/grid?grid=people")
	require.NoError(t, ApplyQuery(s, q))
	vm := BuildGridViewModel(s, q, 800, map[int]bool{2: true})
	assert.False(t, vm.Rows[1].Selected)
	assert.True(t, vm.Rows[2].Selected)
}
