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
	"errors"
	"fmt"
	"strconv"

	"github.com/google/safehtml"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/grid"
	"github.com/google/gridcore/core/query"
	"github.com/google/gridcore/core/rendering/viewport"
	"github.com/google/gridcore/core/rows"
)

// GridViewModel contains the current page of a grid formatted for template consumption
type GridViewModel struct {
	Title      string
	Grid       string
	Headers    []HeaderInfo  // Visible columns, fixed first
	AllColumns []ColumnInfo  // All columns with a visibility toggle
	Rows       []RowViewModel // Rendered rows of the current page
	CurrentURL safehtml.URL

	// Shown instead of the table when there are no rows
	Placeholder string
	Busy        bool
	Alerts      []string // Messages raised while serving the request

	Page      query.PageInfo
	Pager     PagerInfo
	PageSizes []PageSizeLink

	FixedWidth int
	MainWidth  int
}

// HeaderInfo describes a visible column header
type HeaderInfo struct {
	J          int // Column index in the grid
	Field      string
	Name       string
	Left       int
	Width      int
	Fixed      bool
	Sortable   bool
	Sorted     bool
	Desc       bool
	Grouped    bool
	FilterText string
	SortURL    safehtml.URL
	GroupURL   safehtml.URL // URL to toggle grouping by this column
	Style      safehtml.Style
}

// ColumnInfo contains information about a column for the column picker
type ColumnInfo struct {
	Field     string
	Name      string
	IsVisible bool
	ToggleURL safehtml.URL
}

// RowViewModel is one rendered row: either a group header or a data row
type RowViewModel struct {
	Index     int // View index, usable as the row of a rows.Point
	IsHeader  bool
	Label     string
	Count     int
	Summaries []SummaryViewModel
	Collapsed bool
	ToggleURL safehtml.URL
	Selected  bool
	Cells     []CellViewModel
}

// SummaryViewModel is one aggregate of a group header, e.g. Score "μ 41.5"
type SummaryViewModel struct {
	Column string
	Text   string
}

type CellViewModel struct {
	J       int
	Style   safehtml.Style
	Text    string
	Fixed   bool
	Dirty   bool
	Invalid bool
}

// PagerInfo holds the paging links. Links that would not move are empty.
type PagerInfo struct {
	Label    string
	FirstURL safehtml.URL
	PrevURL  safehtml.URL
	NextURL  safehtml.URL
	LastURL  safehtml.URL
	HasPrev  bool
	HasNext  bool
}

type PageSizeLink struct {
	Size    int
	Label   string
	URL     safehtml.URL
	Current bool
}

// LandingViewModel lists the grids served
type LandingViewModel struct {
	Title string
	Grids []GridLink
}

type GridLink struct {
	Name  string
	Title string
	URL   safehtml.URL
}

// ApplyQuery brings a grid to the state described by q: visible columns,
// filters, sort, grouping, toggled groups, page size and page. Groups listed
// in q.Collapsed are toggled away from the grid's default group state.
// Unknown columns are reported but do not stop the rest of the query.
func ApplyQuery(s *grid.Service, q *query.Query) error {
	var errs []error
	cols := s.Columns()
	for _, col := range cols {
		if err := s.SetColumnVisible(col.Field, q.IsColumnVisible(col.Field)); err != nil {
			errs = append(errs, err)
		}
	}

	s.ClearFilters()
	for field, filters := range q.FilterInfos(cols) {
		if err := s.SetFilters(field, filters); err != nil {
			errs = append(errs, err)
		}
	}
	for field := range q.Filters {
		if _, _, ok := s.Column(field); !ok {
			errs = append(errs, fmt.Errorf("%w: filter on %q", grid.ErrUnknownColumn, field))
		}
	}

	if q.Sort != "" {
		if err := s.SortBy(q.Sort, !q.Desc); err != nil {
			errs = append(errs, err)
		}
	} else if _, sorted := s.SortInfo(); sorted {
		s.ClearSort()
	}

	s.SetGroupBy(q.GroupedColumns...)
	collapsedByDefault := s.Config().GroupByCollapsed
	for _, label := range q.Collapsed {
		s.SetGroupState(label, !collapsedByDefault)
	}

	if q.PageSize >= 0 {
		s.SetPageSize(q.PageSize)
	}
	s.GoToPage(q.Page)
	return errors.Join(errs...)
}

// BuildGridViewModel creates a GridViewModel from the grid's current view.
// Column widths are laid out for the given total width.
func BuildGridViewModel(s *grid.Service, q *query.Query, width int, selectedRows map[int]bool) GridViewModel {
	cfg := s.Config()
	cols := s.Columns()
	sortInfo, sorted := s.SortInfo()
	layout := viewport.ComputeLayout(cols, width)

	vm := GridViewModel{
		Title:      cfg.Title,
		Grid:       q.Grid,
		CurrentURL: q.ToSafeURL(),
		Busy:       s.Busy(),
		Page:       s.PageInfo(),
		FixedWidth: layout.FixedWidth,
		MainWidth:  layout.MainWidth,
	}
	if vm.Title == "" {
		vm.Title = q.Grid
	}

	fields := make([]string, len(cols))
	for j, col := range cols {
		fields[j] = col.Field
	}
	for _, col := range cols {
		vm.AllColumns = append(vm.AllColumns, ColumnInfo{
			Field:     col.Field,
			Name:      col.Name,
			IsVisible: col.Visible,
			ToggleURL: q.WithColumnToggled(col.Field, fields),
		})
	}

	for _, box := range layout.Boxes {
		col := cols[box.J]
		vm.Headers = append(vm.Headers, HeaderInfo{
			J:          box.J,
			Field:      col.Field,
			Name:       col.Name,
			Left:       box.Left,
			Width:      box.Width,
			Fixed:      box.Fixed,
			Sortable:   col.Sortable,
			Sorted:     sorted && sortInfo.Field == col.Field,
			Desc:       sorted && sortInfo.Field == col.Field && !sortInfo.Asc,
			Grouped:    q.IsColumnGrouped(col.Field),
			FilterText: q.Filters[col.Field],
			SortURL:    q.WithSort(col.Field),
			GroupURL:   q.WithGroupedColumnToggled(col.Field),
			Style:      boxStyle(box),
		})
	}

	for i, r := range s.View() {
		if !r.Visible && !r.HasHeader() {
			continue
		}
		vm.Rows = append(vm.Rows, buildRow(i, r, vm.Headers, cols, q, selectedRows[i]))
	}
	if len(vm.Rows) == 0 {
		vm.Placeholder = viewport.Placeholder(vm.Busy)
	}

	vm.Pager = buildPager(q, vm.Page)
	for _, size := range cfg.PageSizes {
		vm.PageSizes = append(vm.PageSizes, PageSizeLink{
			Size:    size,
			Label:   strconv.Itoa(size),
			URL:     q.WithPageSize(size),
			Current: size == vm.Page.PageSize,
		})
	}
	vm.PageSizes = append(vm.PageSizes, PageSizeLink{
		Label:   "All",
		URL:     q.WithPageSize(0),
		Current: vm.Page.PageSize <= 0,
	})
	return vm
}

func buildRow(i int, r *rows.Row, headers []HeaderInfo, cols []*columns.Column, q *query.Query, selected bool) RowViewModel {
	rvm := RowViewModel{Index: i, Selected: selected || r.Selected}
	if r.HasHeader() {
		rvm.IsHeader = true
		rvm.Label = r.Header
		rvm.Count = r.Count
		rvm.Collapsed = r.IsCollapsed()
		rvm.ToggleURL = q.WithGroupToggled(r.Header)
		for _, h := range headers {
			if text, ok := r.Summary[h.J]; ok {
				rvm.Summaries = append(rvm.Summaries, SummaryViewModel{Column: cols[h.J].Name, Text: text})
			}
		}
		return rvm
	}
	for _, h := range headers {
		cell := r.Get(h.J)
		cvm := CellViewModel{J: h.J, Fixed: h.Fixed, Style: h.Style, Text: cols[h.J].Display(r.Value(h.J))}
		if cell != nil {
			cvm.Dirty, cvm.Invalid = cell.Dirty, cell.Invalid
		}
		rvm.Cells = append(rvm.Cells, cvm)
	}
	return rvm
}

func boxStyle(b viewport.Box) safehtml.Style {
	return safehtml.StyleFromProperties(safehtml.StyleProperties{
		Left:  fmt.Sprintf("%dpx", b.Left),
		Width: fmt.Sprintf("%dpx", b.Width),
	})
}

func buildPager(q *query.Query, p query.PageInfo) PagerInfo {
	pi := PagerInfo{Label: p.String()}
	if !p.Paged() {
		return pi
	}
	if p.Page > 0 {
		pi.HasPrev = true
		pi.FirstURL = q.WithPage(0)
		pi.PrevURL = q.WithPage(p.Page - 1)
	}
	if p.Page < p.NumPages-1 {
		pi.HasNext = true
		pi.NextURL = q.WithPage(p.Page + 1)
		pi.LastURL = q.WithPage(p.NumPages - 1)
	}
	return pi
}
