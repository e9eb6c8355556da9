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

package datasources

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/query"
)

func writeArrowFile(t *testing.T) string {
	t.Helper()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"ann", ""}, []bool{true, false})
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{1.5, 2.5}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w, err := ipc.NewFileWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "people.arrow")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestArrowLoader(t *testing.T) {
	ctx := context.Background()
	path := writeArrowFile(t)
	l := NewArrowLoader(nil)

	schema, err := l.DiscoverSchema(ctx, map[string]string{"url": path})
	require.NoError(t, err)
	require.Len(t, schema.Columns, 3)
	assert.Equal(t, TypeNumber, schema.Columns[0].Type)
	assert.Equal(t, TypeString, schema.Columns[1].Type)

	rows, err := l.Load(ctx, map[string]string{"url": path})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"id": 1.0, "name": "ann", "score": 1.5}, rows[0])
	assert.Nil(t, rows[1]["name"])
}

var peopleGrid = []config.Option{
	config.WithColumns(
		config.Column{Field: "id", DataType: "number", IsKey: true},
		config.Column{Field: "name"},
		config.Column{Field: "age", DataType: "number"},
		config.Column{Field: "gender", DataType: "choice", Choices: []map[string]any{
			{"value": 1, "display": "Female"}, {"value": 2, "display": "Male"},
		}},
		config.Column{Field: "born", DataType: "date-iso8601"},
	),
}

var people = []map[string]any{
	{"id": 1, "name": "Ann", "age": 25, "gender": 1, "born": "1999-03-01"},
	{"id": 2, "name": "bob", "age": 30, "gender": 2, "born": "1994-07-12"},
	{"id": 3, "name": "Cid", "age": nil, "gender": 2, "born": "1980-01-30"},
	{"id": 4, "name": "dana", "age": 41, "gender": 1, "born": "1983-11-02"},
	{"id": 5, "name": "Bea", "age": 19, "gender": 1, "born": "2005-05-05"},
}

func newSQLSource(t *testing.T, opts ...config.Option) (*SQLSource, *config.Grid) {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg, err := config.New(append(peopleGrid, opts...)...)
	require.NoError(t, err)
	src := NewSQLSource(db, "people", cfg, logger.Nop())
	require.NoError(t, src.Create(ctx))
	require.NoError(t, src.Insert(ctx, people))
	return src, cfg
}

func ids(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

func TestSQLSourceLoad(t *testing.T) {
	src, _ := newSQLSource(t)
	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Ann", rows[0]["name"])
	assert.Equal(t, 25.0, rows[0]["age"])
	assert.Nil(t, rows[2]["age"])
}

func TestSQLSourceFetch(t *testing.T) {
	src, _ := newSQLSource(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		info  query.ExternalInfo
		want  []any
		total int
	}{
		{
			name:  "all",
			info:  query.ExternalInfo{},
			want:  []any{1.0, 2.0, 3.0, 4.0, 5.0},
			total: 5,
		},
		{
			name: "string contains ignoring case",
			info: query.ExternalInfo{Filters: map[string][]columns.FilterInfo{
				"name": {{Field: "name", Value: "B"}},
			}},
			want:  []any{2.0, 5.0},
			total: 2,
		},
		{
			name: "number range skips missing",
			info: query.ExternalInfo{Filters: map[string][]columns.FilterInfo{
				"age": {{Field: "age", Value: 20, HighValue: 40, Operator: columns.OpBetween}},
			}},
			want:  []any{1.0, 2.0},
			total: 2,
		},
		{
			name: "number outside",
			info: query.ExternalInfo{Filters: map[string][]columns.FilterInfo{
				"age": {{Field: "age", Value: 20, HighValue: 40, Operator: columns.OpOutside}},
			}},
			want:  []any{4.0, 5.0},
			total: 2,
		},
		{
			name: "choice and date",
			info: query.ExternalInfo{Filters: map[string][]columns.FilterInfo{
				"gender": {{Field: "gender", Value: 1}},
				"born":   {{Field: "born", Value: "1990-01-01", Operator: columns.OpLessThan}},
			}},
			want:  []any{4.0},
			total: 1,
		},
		{
			name: "unknown field ignored",
			info: query.ExternalInfo{Filters: map[string][]columns.FilterInfo{
				"nope": {{Field: "nope", Value: "x"}},
			}},
			want:  []any{1.0, 2.0, 3.0, 4.0, 5.0},
			total: 5,
		},
		{
			name:  "sort string descending",
			info:  query.ExternalInfo{Sort: &columns.SortInfo{Field: "name", Asc: false}},
			want:  []any{4.0, 3.0, 2.0, 5.0, 1.0},
			total: 5,
		},
		{
			name:  "sort number nulls last",
			info:  query.ExternalInfo{Sort: &columns.SortInfo{Field: "age", Asc: true}},
			want:  []any{5.0, 1.0, 2.0, 4.0, 3.0},
			total: 5,
		},
		{
			name: "second page",
			info: query.ExternalInfo{
				Sort: &columns.SortInfo{Field: "id", Asc: true},
				Page: query.PageInfo{Page: 1, PageSize: 2},
			},
			want:  []any{3.0, 4.0},
			total: 5,
		},
		{
			name: "page past the end is clamped",
			info: query.ExternalInfo{Page: query.PageInfo{Page: 9, PageSize: 2}},
			want:  []any{5.0},
			total: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := src.Fetch(ctx, tt.info)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(data.Data))
			require.NotNil(t, data.Page)
			assert.Equal(t, tt.total, data.Page.DataSize)
		})
	}
}

func TestSQLSourceDrivesExternalGrid(t *testing.T) {
	src, cfg := newSQLSource(t, config.WithExternal(true, true, true), config.WithPageSize(2))
	g := grid.New(cfg, grid.Options{Logger: logger.Nop(), OnExternalDataCall: src.Fetch})
	g.Init()
	ctx := context.Background()
	require.NoError(t, g.RequestExternal(ctx))

	assert.Len(t, g.View(), 2)
	assert.Equal(t, 5, g.PageInfo().DataSize)
	assert.Equal(t, 3, g.PageInfo().NumPages)

	require.NoError(t, g.SetFilters("gender", []columns.FilterInfo{{Field: "gender", Value: 2}}))
	require.NoError(t, g.RequestExternal(ctx))
	assert.Equal(t, 2, g.PageInfo().DataSize)
	r, ok := g.Row(0)
	require.True(t, ok)
	assert.Equal(t, "bob", r.Value(1))
}

func TestSQLSourceSortsLikeGrid(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg, err := config.New(config.WithColumns(
		config.Column{Field: "id", DataType: "number", IsKey: true},
		config.Column{Field: "name"},
		config.Column{Field: "score", DataType: "number"},
		config.Column{Field: "g", DataType: "choice", Choices: []map[string]any{
			{"value": 1, "display": "Zed"}, {"value": 2, "display": "amy"}, {"value": 3, "display": "Bob"},
		}},
	))
	require.NoError(t, err)
	data := []map[string]any{
		{"id": 1, "name": "carl", "score": 3, "g": 1},
		{"id": 2, "name": nil, "score": nil, "g": 2},
		{"id": 3, "name": "Abe", "score": 1, "g": 3},
		{"id": 4, "name": "", "score": 2, "g": 1},
		{"id": 5, "name": "bea", "score": nil, "g": 9},
	}
	src := NewSQLSource(db, "t", cfg, logger.Nop())
	require.NoError(t, src.Create(ctx))
	require.NoError(t, src.Insert(ctx, data))

	local := grid.New(cfg, grid.Options{Logger: logger.Nop()})
	local.SetInputData(data)
	local.Init()

	keys := func(values []any) []string {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = fmt.Sprint(v)
		}
		return out
	}

	for _, field := range []string{"name", "score", "g"} {
		for _, asc := range []bool{true, false} {
			t.Run(fmt.Sprintf("%s asc=%v", field, asc), func(t *testing.T) {
				require.NoError(t, local.SortBy(field, asc))
				var want []any
				for _, r := range local.View() {
					want = append(want, r.Value(0))
				}
				got, err := src.Fetch(ctx, query.ExternalInfo{Sort: &columns.SortInfo{Field: field, Asc: asc}})
				require.NoError(t, err)
				assert.Equal(t, keys(want), keys(ids(got.Data)))
			})
		}
	}
}
