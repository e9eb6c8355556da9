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

package query

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/google/gridcore/core/columns"
)

// TestColumnReorderingOnGrouping tests that columns are reordered when grouping is toggled
func TestColumnReorderingOnGrouping(t *testing.T) {
	// Test 1: Group a middle column - it should move to first position
	t.Run("Group middle column", func(t *testing.T) {
		baseURL, _ := url.Parse("/grid?grid=test&columns=status,region,category,amount")
		q := NewQuery(baseURL)

		// Group the second column (region)
		newURL := q.WithGroupedColumnToggled("region")
		parsedURL, _ := url.Parse(newURL.String())
		newState := NewQuery(parsedURL)

		if len(newState.GroupedColumns) != 1 || newState.GroupedColumns[0] != "region" {
			t.Errorf("Expected grouped columns [region], got %v", newState.GroupedColumns)
		}
		expected := []string{"region", "status", "category", "amount"}
		if !equalStringSlices(newState.Columns, expected) {
			t.Errorf("Expected columns %v, got %v", expected, newState.Columns)
		}
	})

	// Test 2: Group multiple columns in sequence
	t.Run("Group multiple columns", func(t *testing.T) {
		baseURL, _ := url.Parse("/grid?grid=test&columns=status,region,category,amount")
		q := NewQuery(baseURL)

		// Group status (first column)
		url1 := q.WithGroupedColumnToggled("status")
		parsed1, _ := url.Parse(url1.String())
		q1 := NewQuery(parsed1)

		// Group category (third column)
		url2 := q1.WithGroupedColumnToggled("category")
		parsed2, _ := url.Parse(url2.String())
		q2 := NewQuery(parsed2)

		expectedGrouped := []string{"status", "category"}
		if !equalStringSlices(q2.GroupedColumns, expectedGrouped) {
			t.Errorf("Expected grouped columns %v, got %v", expectedGrouped, q2.GroupedColumns)
		}
		expectedColumns := []string{"status", "category", "region", "amount"}
		if !equalStringSlices(q2.Columns, expectedColumns) {
			t.Errorf("Expected columns %v, got %v", expectedColumns, q2.Columns)
		}
	})

	// Test 3: Ungroup a middle grouped column
	t.Run("Ungroup middle grouped column", func(t *testing.T) {
		baseURL, _ := url.Parse("/grid?grid=test&columns=status,region,category,amount&grouped=status,region,category")
		q := NewQuery(baseURL)

		// Ungroup the middle grouped column (region)
		newURL := q.WithGroupedColumnToggled("region")
		parsedURL, _ := url.Parse(newURL.String())
		newState := NewQuery(parsedURL)

		expectedGrouped := []string{"status", "category"}
		if !equalStringSlices(newState.GroupedColumns, expectedGrouped) {
			t.Errorf("Expected grouped columns %v, got %v", expectedGrouped, newState.GroupedColumns)
		}
		// region should move to right after the last grouped column (category)
		expectedColumns := []string{"status", "category", "region", "amount"}
		if !equalStringSlices(newState.Columns, expectedColumns) {
			t.Errorf("Expected columns %v, got %v", expectedColumns, newState.Columns)
		}
	})
}

// TestSortToggle tests that sorting the same column flips the direction
func TestSortToggle(t *testing.T) {
	baseURL, _ := url.Parse("/grid?grid=people&page=3")
	q := NewQuery(baseURL)

	u1, _ := url.Parse(q.WithSort("name").String())
	q1 := NewQuery(u1)
	if q1.Sort != "name" || q1.Desc {
		t.Errorf("Expected ascending sort on name, got %q desc=%v", q1.Sort, q1.Desc)
	}
	if q1.Page != 0 {
		t.Errorf("Expected sorting to reset the page, got %d", q1.Page)
	}

	u2, _ := url.Parse(q1.WithSort("name").String())
	q2 := NewQuery(u2)
	if q2.Sort != "name" || !q2.Desc {
		t.Errorf("Expected descending sort on name, got %q desc=%v", q2.Sort, q2.Desc)
	}

	u3, _ := url.Parse(q2.WithSort("age").String())
	q3 := NewQuery(u3)
	if q3.Sort != "age" || q3.Desc {
		t.Errorf("Expected a new sort column to start ascending, got %q desc=%v", q3.Sort, q3.Desc)
	}
}

// TestPagingParameters tests page and pageSize round trips
func TestPagingParameters(t *testing.T) {
	baseURL, _ := url.Parse("/grid?grid=people")
	q := NewQuery(baseURL)
	if q.PageSize != -1 {
		t.Errorf("Expected unset page size, got %d", q.PageSize)
	}

	u1, _ := url.Parse(q.WithPageSize(25).String())
	q1 := NewQuery(u1)
	u2, _ := url.Parse(q1.WithPage(2).String())
	q2 := NewQuery(u2)
	if q2.PageSize != 25 || q2.Page != 2 {
		t.Errorf("Expected page 2 of size 25, got page %d size %d", q2.Page, q2.PageSize)
	}

	u3, _ := url.Parse(q2.WithFilter("name", "ada").String())
	q3 := NewQuery(u3)
	if q3.Page != 0 || q3.Filters["name"] != "ada" {
		t.Errorf("Expected filtering to reset the page, got page %d filters %v", q3.Page, q3.Filters)
	}
}

// TestParseFilter tests the per-type filter text syntax
func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		dataType columns.DataType
		expected []columns.FilterInfo
	}{
		{
			name:     "string tokens",
			text:     "grace  hopper",
			dataType: columns.TypeString,
			expected: []columns.FilterInfo{{Field: "f", Value: "grace"}, {Field: "f", Value: "hopper"}},
		},
		{
			name:     "choice values",
			text:     "1, 3",
			dataType: columns.TypeChoice,
			expected: []columns.FilterInfo{{Field: "f", Value: "1"}, {Field: "f", Value: "3"}},
		},
		{
			name:     "number operator",
			text:     "gt:30",
			dataType: columns.TypeNumber,
			expected: []columns.FilterInfo{{Field: "f", Operator: columns.OpGreaterThan, Value: "30"}},
		},
		{
			name:     "number between",
			text:     "B:1:10",
			dataType: columns.TypeNumber,
			expected: []columns.FilterInfo{{Field: "f", Operator: columns.OpBetween, Value: "1", HighValue: "10"}},
		},
		{
			name:     "plain date",
			text:     "2020-01-01",
			dataType: columns.TypeDateISO8601,
			expected: []columns.FilterInfo{{Field: "f", Operator: columns.OpEqual, Value: "2020-01-01"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilter("f", tt.text, tt.dataType)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseFilter(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

// TestPageInfo tests page count and movement clamping
func TestPageInfo(t *testing.T) {
	p := NewPageInfo(2)
	if p.NumPages != 1 {
		t.Errorf("Expected 1 page for empty data, got %d", p.NumPages)
	}

	p.DataSize = 5
	p.Recompute()
	if p.NumPages != 3 {
		t.Errorf("Expected 3 pages, got %d", p.NumPages)
	}
	if p.Move(PagePrev) {
		t.Errorf("Expected previous on page 0 to be a no-op")
	}
	if !p.Move(PageLast) || p.Page != 2 {
		t.Errorf("Expected last page 2, got %d", p.Page)
	}
	if p.Move(PageNext) || p.Page != 2 {
		t.Errorf("Expected next on the last page to be a no-op, got %d", p.Page)
	}
	start, end := p.Bounds(5)
	if start != 4 || end != 5 {
		t.Errorf("Expected bounds [4,5), got [%d,%d)", start, end)
	}
	if !p.Move(PageFirst) || p.Page != 0 {
		t.Errorf("Expected first page, got %d", p.Page)
	}

	all := NewPageInfo(0)
	all.DataSize = 7
	all.Recompute()
	start, end = all.Bounds(7)
	if all.NumPages != 1 || start != 0 || end != 7 {
		t.Errorf("Expected unpaged bounds [0,7) on 1 page, got [%d,%d) on %d", start, end, all.NumPages)
	}
}

// equalStringSlices compares two string slices for equality
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}