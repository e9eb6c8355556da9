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
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/safehtml"

	"github.com/google/gridcore/core/columns"
)

// Query represents the parsed state of a grid view URL
type Query struct {
	// Base path (e.g., "/grid")
	Path string

	Grid           string            // The grid being viewed
	Columns        []string          // Ordered list of visible columns (filtered, grouped, then others)
	ColumnWidths   map[string]int    // Column widths in pixels (columnName -> width)
	GroupedColumns []string          // Ordered list of columns to group by
	Collapsed      []string          // Labels of collapsed group headers
	Filters        map[string]string // Column filters (columnName -> filter text)
	Sort           string            // Sorted column, "" for none
	Desc           bool              // Sort direction
	Page           int               // 0-based page index
	PageSize       int               // Rows per page, -1 when the grid default applies
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL) *Query {
	// The URL comes from http.Request and is only read here.
	state := &Query{
		Path:         u.Path,
		Filters:      make(map[string]string),
		ColumnWidths: make(map[string]int),
		PageSize:     -1,
	}

	q := u.Query()

	state.Grid = q.Get("grid")

	// Extract columns parameter (format: col1:width,col2,col3:width)
	state.Columns = []string{}
	if columnsStr := q.Get("columns"); columnsStr != "" {
		for _, part := range strings.Split(columnsStr, ",") {
			// Check if column has a width suffix (e.g., "status:120")
			if colonIdx := strings.LastIndex(part, ":"); colonIdx != -1 {
				colName := part[:colonIdx]
				if width, err := strconv.Atoi(part[colonIdx+1:]); err == nil && width > 0 {
					state.Columns = append(state.Columns, colName)
					state.ColumnWidths[colName] = width
					continue
				}
			}
			state.Columns = append(state.Columns, part)
		}
	}

	state.GroupedColumns = splitList(q.Get("grouped"))
	state.Collapsed = splitList(q.Get("collapsed"))

	if sortStr := q.Get("sort"); sortStr != "" {
		state.Sort = strings.TrimPrefix(sortStr, "-")
		state.Desc = strings.HasPrefix(sortStr, "-")
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 0 {
		state.Page = page
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size >= 0 {
		state.PageSize = size
	}

	// Extract filter parameters (format: filter:columnName=value)
	for key, values := range q {
		if strings.HasPrefix(key, "filter:") && len(values) > 0 {
			state.Filters[strings.TrimPrefix(key, "filter:")] = values[0]
		}
	}

	// Reorder columns: filtered columns first, then grouped columns, then others
	state.reorderColumns()

	return state
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	return &Query{
		Path:           s.Path,
		Grid:           s.Grid,
		Columns:        slices.Clone(s.Columns),
		ColumnWidths:   maps.Clone(s.ColumnWidths),
		GroupedColumns: slices.Clone(s.GroupedColumns),
		Collapsed:      slices.Clone(s.Collapsed),
		Filters:        maps.Clone(s.Filters),
		Sort:           s.Sort,
		Desc:           s.Desc,
		Page:           s.Page,
		PageSize:       s.PageSize,
	}
}

// reorderColumns reorders the Columns slice to maintain:
// 1. Filtered columns (leftmost) - only columns that are filtered but NOT grouped
// 2. Grouped columns (middle) - in GroupedColumns order (the grouping hierarchy)
// 3. Other columns (rightmost)
// A column both filtered and grouped stays in the grouped section.
func (s *Query) reorderColumns() {
	if len(s.Columns) == 0 {
		return
	}

	groupedCols := make(map[string]bool)
	for _, colName := range s.GroupedColumns {
		groupedCols[colName] = true
	}
	visibleCols := make(map[string]bool)
	for _, colName := range s.Columns {
		visibleCols[colName] = true
	}

	var filtered, others []string
	for _, colName := range s.Columns {
		if groupedCols[colName] {
			// Added below in GroupedColumns order
			continue
		} else if _, ok := s.Filters[colName]; ok {
			filtered = append(filtered, colName)
		} else {
			others = append(others, colName)
		}
	}

	var grouped []string
	for _, colName := range s.GroupedColumns {
		if visibleCols[colName] {
			grouped = append(grouped, colName)
		}
	}

	s.Columns = make([]string, 0, len(filtered)+len(grouped)+len(others))
	s.Columns = append(s.Columns, filtered...)
	s.Columns = append(s.Columns, grouped...)
	s.Columns = append(s.Columns, others...)
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{Path: s.Path}
	q := u.Query()

	if s.Grid != "" {
		q.Set("grid", s.Grid)
	}

	if len(s.Columns) > 0 {
		columnStrs := make([]string, 0, len(s.Columns))
		for _, col := range s.Columns {
			if width, hasWidth := s.ColumnWidths[col]; hasWidth {
				columnStrs = append(columnStrs, col+":"+strconv.Itoa(width))
			} else {
				columnStrs = append(columnStrs, col)
			}
		}
		q.Set("columns", strings.Join(columnStrs, ","))
	}

	if len(s.GroupedColumns) > 0 {
		q.Set("grouped", strings.Join(s.GroupedColumns, ","))
	}
	if len(s.Collapsed) > 0 {
		q.Set("collapsed", strings.Join(s.Collapsed, ","))
	}

	for colName, filterValue := range s.Filters {
		if filterValue != "" {
			q.Set("filter:"+colName, filterValue)
		}
	}

	if s.Sort != "" {
		if s.Desc {
			q.Set("sort", "-"+s.Sort)
		} else {
			q.Set("sort", s.Sort)
		}
	}

	if s.Page > 0 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	if s.PageSize >= 0 {
		q.Set("pageSize", strconv.Itoa(s.PageSize))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// IsColumnVisible checks if a column is in the visible columns list. An empty
// list means every column is visible.
func (s *Query) IsColumnVisible(column string) bool {
	return len(s.Columns) == 0 || slices.Contains(s.Columns, column)
}

// IsColumnGrouped checks if a column is in the grouped columns list
func (s *Query) IsColumnGrouped(column string) bool {
	return slices.Contains(s.GroupedColumns, column)
}

// IsGroupCollapsed checks if a group header label is collapsed
func (s *Query) IsGroupCollapsed(label string) bool {
	return slices.Contains(s.Collapsed, label)
}

// WithColumnToggled returns a URL with the column toggled (added if not present, removed if present).
// all lists every column so that hiding from the implicit "all visible" state works.
func (s *Query) WithColumnToggled(column string, all []string) safehtml.URL {
	newState := s.Clone()
	if len(newState.Columns) == 0 {
		newState.Columns = slices.Clone(all)
	}
	if i := slices.Index(newState.Columns, column); i >= 0 {
		newState.Columns = slices.Delete(newState.Columns, i, i+1)
	} else {
		newState.Columns = append(newState.Columns, column)
	}
	return newState.ToSafeURL()
}

// WithGroupedColumnToggled returns a URL with the grouped column toggled.
// A grouped column is removed from grouping, any other column is appended to
// the grouping order. Columns are reordered so grouped columns come first.
func (s *Query) WithGroupedColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	if i := slices.Index(newState.GroupedColumns, column); i >= 0 {
		newState.GroupedColumns = slices.Delete(newState.GroupedColumns, i, i+1)
	} else {
		newState.GroupedColumns = append(newState.GroupedColumns, column)
	}
	newState.Collapsed = nil
	newState.Page = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithGroupToggled returns a URL with the group header collapsed or expanded.
func (s *Query) WithGroupToggled(label string) safehtml.URL {
	newState := s.Clone()
	if i := slices.Index(newState.Collapsed, label); i >= 0 {
		newState.Collapsed = slices.Delete(newState.Collapsed, i, i+1)
	} else {
		newState.Collapsed = append(newState.Collapsed, label)
	}
	return newState.ToSafeURL()
}

// WithSort returns a URL sorted by column: the current sort column flips
// direction, any other column starts ascending.
func (s *Query) WithSort(column string) safehtml.URL {
	newState := s.Clone()
	if newState.Sort == column {
		newState.Desc = !newState.Desc
	} else {
		newState.Sort = column
		newState.Desc = false
	}
	newState.Page = 0
	return newState.ToSafeURL()
}

// WithFilter returns a URL with the filter text for column set, back on the first page.
func (s *Query) WithFilter(column, value string) safehtml.URL {
	newState := s.Clone()
	if value == "" {
		delete(newState.Filters, column)
	} else {
		newState.Filters[column] = value
	}
	newState.Page = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithFilterAndUngrouped returns a URL that adds a filter for the column and removes it from grouping
func (s *Query) WithFilterAndUngrouped(column, value string) safehtml.URL {
	newState := s.Clone()
	newState.Filters[column] = value
	if i := slices.Index(newState.GroupedColumns, column); i >= 0 {
		newState.GroupedColumns = slices.Delete(newState.GroupedColumns, i, i+1)
	}
	newState.Page = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithPage returns a URL showing the given page.
func (s *Query) WithPage(page int) safehtml.URL {
	newState := s.Clone()
	newState.Page = max(0, page)
	return newState.ToSafeURL()
}

// WithPageSize returns a URL with a different page size, back on the first page.
func (s *Query) WithPageSize(size int) safehtml.URL {
	newState := s.Clone()
	newState.PageSize = size
	newState.Page = 0
	return newState.ToSafeURL()
}

// FilterInfos converts the textual filters into filter entries for the given
// columns. Filters on unknown columns are dropped.
func (s *Query) FilterInfos(cols []*columns.Column) map[string][]columns.FilterInfo {
	out := make(map[string][]columns.FilterInfo)
	for _, col := range cols {
		text, ok := s.Filters[col.Field]
		if !ok || text == "" {
			continue
		}
		out[col.Field] = ParseFilter(col.Field, text, col.DataType)
	}
	return out
}

var operators = map[string]columns.Operator{
	"E":  columns.OpEqual,
	"LE": columns.OpLessOrEqual,
	"LT": columns.OpLessThan,
	"GE": columns.OpGreaterOrEqual,
	"GT": columns.OpGreaterThan,
	"B":  columns.OpBetween,
	"O":  columns.OpOutside,
}

// ParseFilter turns filter text into filter entries:
//   - string columns: whitespace separated tokens, all of which must match
//   - choice columns: comma separated values, any of which may match
//   - number and date columns: "OP:value" or "OP:low:high" with OP one of
//     E, LE, LT, GE, GT, B, O; plain text means equality
func ParseFilter(field, text string, dataType columns.DataType) []columns.FilterInfo {
	switch dataType {
	case columns.TypeChoice:
		var out []columns.FilterInfo
		for _, v := range strings.Split(text, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, columns.FilterInfo{Field: field, Value: v})
			}
		}
		return out
	case columns.TypeNumber, columns.TypeDateISO8601, columns.TypeDateMs:
		head, rest, found := strings.Cut(text, ":")
		op, known := operators[strings.ToUpper(head)]
		if !found || !known {
			return []columns.FilterInfo{{Field: field, Operator: columns.OpEqual, Value: text}}
		}
		fi := columns.FilterInfo{Field: field, Operator: op, Value: rest}
		if op == columns.OpBetween || op == columns.OpOutside {
			lo, hi, _ := strings.Cut(rest, ":")
			fi.Value, fi.HighValue = lo, hi
		}
		return []columns.FilterInfo{fi}
	default:
		var out []columns.FilterInfo
		for _, tok := range strings.Fields(text) {
			out = append(out, columns.FilterInfo{Field: field, Value: tok})
		}
		return out
	}
}
