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

// Package grid is the single source of truth for a grid's rows, columns and
// derived view. The view is produced by a fixed pipeline:
//
//	filter -> sort -> group -> page
//
// Filtering and sorting run on the raw rows (or on the rows supplied by the
// host when a step is delegated), grouping runs on the sorted rows and paging
// slices the grouped sequence. Every state change is announced on a typed
// topic; listeners run after the service lock is released.
package grid

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/viant/afs"

	"github.com/google/gridcore/core/aggregates"
	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/editing"
	"github.com/google/gridcore/core/events"
	"github.com/google/gridcore/core/grouping"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/predicates"
	"github.com/google/gridcore/core/query"
	"github.com/google/gridcore/core/rows"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotSortable     = errors.New("column is not sortable")
	ErrOutOfRange      = errors.New("out of range")
	ErrHeaderRow       = errors.New("group header row")
	ErrNoExternalCall  = errors.New("no external data call configured")
	ErrRowSelectOff    = errors.New("row selection is disabled")
	ErrStaleExternal   = errors.New("stale external response")
	ErrExternalRequest = errors.New("external data call failed")
)

// Options carries the collaborators of a Service. Zero values select defaults.
type Options struct {
	Logger     logger.Logger
	Predicates *predicates.Registry
	// OnExternalDataCall fetches data for the delegated pipeline steps.
	OnExternalDataCall query.ExternalDataCall
	// FS downloads choice dictionaries configured by URL.
	FS afs.Service
}

type stage int

const (
	stageFilter stage = iota
	stageSort
	stageGroup
	stagePage
)

type Service struct {
	// Topics. Subscribe before Init to observe the first view.
	ViewChanged         events.Topic[[]*rows.Row]
	PageChanged         events.Topic[query.PageInfo]
	ExternalRequests    events.Topic[query.ExternalInfo]
	ColumnsChanged      events.Topic[[]*columns.Column]
	ValueChanged        events.Topic[rows.Point]
	SelectedRowsChanged events.Topic[[]any]
	BusyChanged         events.Topic[bool]
	DoubleClicked       events.Topic[any]
	Alerts              events.Topic[string]

	mu       sync.Mutex
	cfg      *config.Grid
	log      logger.Logger
	registry *predicates.Registry
	external query.ExternalDataCall
	fs       afs.Service

	initialised bool
	cols        []*columns.Column
	index       map[string]int
	fields      []string
	keyColumn   int
	validators  []*editing.Validator
	grouper     *grouping.Grouper
	groupBy     []string
	groupStates map[string]rows.State

	raw          []map[string]any
	rawHash      uint64
	changed      bool
	materialised bool
	rows         []*rows.Row
	filtered     []*rows.Row
	sorted       []*rows.Row
	grouped      []*rows.Row
	view         []*rows.Row
	sort         *columns.SortInfo
	page         query.PageInfo
	selectedKeys map[string]bool

	seq      uint64
	applied  uint64
	pending  *query.ExternalInfo
	inflight int
}

// New creates a service for cfg. Defaults are applied to cfg; it is not
// modified afterwards.
func New(cfg *config.Grid, opts Options) *Service {
	cfg.ApplyDefaults()
	s := &Service{
		cfg:          cfg,
		log:          logger.OrDefault(opts.Logger).With("grid", cfg.Title),
		registry:     opts.Predicates,
		external:     opts.OnExternalDataCall,
		fs:           opts.FS,
		keyColumn:    -1,
		groupStates:  make(map[string]rows.State),
		selectedKeys: make(map[string]bool),
		page:         query.NewPageInfo(cfg.PageSize),
	}
	if s.registry == nil {
		s.registry = predicates.NewRegistry(s.log)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	return s
}

func (s *Service) Config() *config.Grid {
	return s.cfg
}

// SetExternalDataCall installs or replaces the host fetch function.
func (s *Service) SetExternalDataCall(call query.ExternalDataCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = call
}

// SetInputData replaces the raw rows. It returns false when data is the very
// slice already set. Whether the content really changed is kept for
// SetInputDataInit.
func (s *Service) SetInputData(data []map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setInputDataLocked(data)
}

func (s *Service) setInputDataLocked(data []map[string]any) bool {
	if s.raw != nil && sameSlice(s.raw, data) {
		return false
	}
	h, err := hashstructure.Hash(data, hashstructure.FormatV2, nil)
	if err != nil {
		s.log.Debug("input data not hashable, assuming a change", "error", err)
		s.changed = true
	} else {
		s.changed = !s.materialised || h != s.rawHash
		s.rawHash = h
	}
	s.raw = data
	return true
}

func sameSlice(a, b []map[string]any) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

// Changed reports whether the last SetInputData brought new content.
func (s *Service) Changed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Init builds the column model from the configuration, materialises the raw
// rows and runs the pipeline. With any delegated step an external request is
// issued as well.
func (s *Service) Init() {
	_ = s.InitContext(context.Background())
}

// InitContext is Init with the downloads of choice dictionaries configured by
// URL bound to ctx. A column whose dictionary cannot be loaded falls back to
// the string type; the joined load errors are returned after the grid is
// initialised.
func (s *Service) InitContext(ctx context.Context) error {
	e := &emission{}
	s.mu.Lock()
	s.initColumnsLocked()
	err := s.loadChoicesLocked(ctx)
	s.groupBy = slices.Clone(s.cfg.GroupBy)
	s.buildGrouperLocked()
	s.page = query.NewPageInfo(s.cfg.PageSize)
	s.sort = nil
	s.initialised = true
	s.materialiseLocked()
	s.runLocked(stageFilter, e)
	e.columns = slices.Clone(s.cols)
	if s.cfg.External() {
		s.requestLocked(e)
	}
	s.mu.Unlock()
	s.publish(e)
	return err
}

// SetInputDataInit materialises the raw rows and reruns the pipeline, leaving
// the columns alone. Unchanged content is not reprocessed.
func (s *Service) SetInputDataInit() {
	e := &emission{}
	s.mu.Lock()
	if !s.initialised {
		s.mu.Unlock()
		s.Init()
		return
	}
	if s.changed || !s.materialised {
		s.materialiseLocked()
		s.runLocked(stageFilter, e)
	}
	s.mu.Unlock()
	s.publish(e)
}

func (s *Service) initColumnsLocked() {
	cols := columns.FromConfigs(s.cfg.Columns, s.log)
	// Fixed columns render in their own pane to the left.
	slices.SortStableFunc(cols, func(a, b *columns.Column) int {
		switch {
		case a.IsFixed == b.IsFixed:
			return 0
		case a.IsFixed:
			return -1
		default:
			return 1
		}
	})
	for i, col := range cols {
		col.SortOrder = i + 1
	}
	s.registry.Resolve(cols)
	s.cols = cols
	s.reindexLocked()
}

func (s *Service) reindexLocked() {
	s.index = make(map[string]int, len(s.cols))
	s.fields = make([]string, len(s.cols))
	s.validators = make([]*editing.Validator, len(s.cols))
	s.keyColumn = -1
	for j, col := range s.cols {
		s.index[col.Field] = j
		s.fields[j] = col.Field
		s.validators[j] = editing.NewValidator(col.Validator, s.log)
		if col.IsKey && s.keyColumn < 0 {
			s.keyColumn = j
		}
	}
}

func (s *Service) buildGrouperLocked() {
	var cols []*columns.Column
	var idx []int
	for _, f := range s.groupBy {
		j, ok := s.index[f]
		if !ok {
			s.log.Warn("groupBy field is not a column, ignored", "field", f)
			continue
		}
		cols = append(cols, s.cols[j])
		idx = append(idx, j)
	}
	s.grouper = grouping.NewGrouper(cols, idx)
	s.grouper.Aggregates = s.aggregatesLocked()
}

// aggregatesLocked collects the group header aggregates the columns ask for.
// Unknown or unsupported aggregates are logged and skipped.
func (s *Service) aggregatesLocked() []aggregates.Column {
	var out []aggregates.Column
	for j, col := range s.cols {
		if col.Aggregate == "" {
			continue
		}
		kind, err := aggregates.ParseKind(col.Aggregate)
		if err != nil {
			s.log.Warn("ignoring aggregate", "field", col.Field, "error", err)
			continue
		}
		if !aggregates.Supports(kind, col.DataType) {
			s.log.Warn("ignoring aggregate", "field", col.Field, "error", aggregates.ErrUnsupported, "aggregate", kind, "type", col.DataType)
			continue
		}
		out = append(out, aggregates.Column{J: j, DataType: col.DataType, Kind: kind})
	}
	return out
}

func (s *Service) materialiseLocked() {
	s.rows = make([]*rows.Row, len(s.raw))
	for i, rec := range s.raw {
		r := rows.New(i, rec, s.fields)
		if err := rows.AssignKey(r, s.keyColumn); err != nil {
			s.log.Warn("could not derive row key", "row", i, "error", err)
		}
		r.Selected = s.selectedKeys[keyString(r.Key)]
		s.rows[i] = r
	}
	s.materialised = true
	s.changed = false
}

func keyString(k any) string {
	return fmt.Sprintf("%T:%v", k, k)
}

// loadChoicesLocked downloads the dictionaries of choice columns configured
// only by URL.
func (s *Service) loadChoicesLocked(ctx context.Context) error {
	var errs []error
	for _, col := range s.cols {
		if col.DataType != columns.TypeChoice || col.ChoiceURL == "" || col.Choices.Len() > 0 {
			continue
		}
		if err := columns.LoadChoices(ctx, s.fs, col); err != nil {
			s.log.Error("loading choices failed, using string type", "field", col.Field, "error", err)
			col.DataType = columns.TypeString
			col.FilterFunc, col.SortFunc = nil, nil
			s.registry.Resolve([]*columns.Column{col})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runLocked reruns the pipeline from the given stage on.
func (s *Service) runLocked(from stage, e *emission) {
	if from <= stageFilter {
		s.filtered = s.filterRows(s.rows)
	}
	if from <= stageSort {
		s.sorted = s.sortRows(s.filtered)
	}
	if from <= stageGroup {
		s.grouped = s.groupRows(s.sorted)
	}
	s.view = s.pageRows(s.grouped)
	e.setView(s.view)
	p := s.page
	e.page = &p
}

func (s *Service) filterRows(in []*rows.Row) []*rows.Row {
	if s.cfg.ExternalFiltering {
		return slices.Clone(in)
	}
	var active []int
	for j, col := range s.cols {
		if col.Visible && col.HasFilters() {
			active = append(active, j)
		}
	}
	if len(active) == 0 {
		return slices.Clone(in)
	}
	out := make([]*rows.Row, 0, len(in))
	for _, r := range in {
		if s.matchLocked(r, active) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) matchLocked(r *rows.Row, active []int) bool {
	for _, j := range active {
		col := s.cols[j]
		filter := col.FilterFunc
		if filter == nil {
			filter = s.registry.FilterFunc(col)
		}
		if !filter(r.Value(j), col.Filters, col) {
			return false
		}
	}
	return true
}

func (s *Service) sortRows(in []*rows.Row) []*rows.Row {
	out := slices.Clone(in)
	if s.sort == nil || s.cfg.ExternalSorting {
		return out
	}
	j, ok := s.index[s.sort.Field]
	if !ok {
		return out
	}
	col := s.cols[j]
	cmp := col.SortFunc
	if cmp == nil {
		cmp = s.registry.SortFunc(col)
	}
	info := *s.sort
	slices.SortStableFunc(out, func(a, b *rows.Row) int {
		return cmp(a.Value(j), b.Value(j), info, col)
	})
	return out
}

func (s *Service) groupRows(in []*rows.Row) []*rows.Row {
	if s.grouper == nil || len(s.grouper.Columns) == 0 {
		for _, r := range in {
			r.Visible = true
		}
		return in
	}
	initial := rows.Expanded
	if s.cfg.GroupByCollapsed {
		initial = rows.Collapsed
	}
	return s.grouper.Apply(in, len(s.cols), s.groupStates, initial)
}

func (s *Service) pageRows(in []*rows.Row) []*rows.Row {
	if s.cfg.ExternalPaging {
		return in
	}
	s.page.DataSize = len(in)
	s.page.Recompute()
	start, end := s.page.Bounds(len(in))
	return in[start:end]
}

// Filter reapplies the column filters. When filtering or paging is delegated an
// external request is issued instead of filtering locally.
func (s *Service) Filter() {
	e := &emission{}
	s.mu.Lock()
	s.filterLocked(e)
	s.mu.Unlock()
	s.publish(e)
}

func (s *Service) filterLocked(e *emission) {
	s.page.Page = 0
	if s.cfg.ExternalFiltering || s.cfg.ExternalPaging {
		s.requestLocked(e)
		return
	}
	s.runLocked(stageFilter, e)
}

// SetFilters replaces the filter entries of a column and refilters.
func (s *Service) SetFilters(field string, filters []columns.FilterInfo) error {
	e := &emission{}
	s.mu.Lock()
	j, ok := s.index[field]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	s.cols[j].Filters = slices.Clone(filters)
	s.filterLocked(e)
	s.mu.Unlock()
	s.publish(e)
	return nil
}

// AddFilters appends filter entries to a column and refilters.
func (s *Service) AddFilters(field string, filters []columns.FilterInfo) error {
	s.mu.Lock()
	j, ok := s.index[field]
	var merged []columns.FilterInfo
	if ok {
		merged = append(slices.Clone(s.cols[j].Filters), filters...)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	return s.SetFilters(field, merged)
}

// ClearFilters removes every filter and refilters.
func (s *Service) ClearFilters() {
	e := &emission{}
	s.mu.Lock()
	for _, col := range s.cols {
		col.Filters = nil
	}
	s.filterLocked(e)
	s.mu.Unlock()
	s.publish(e)
}

// Sort sorts by field. Sorting the current sort column flips the direction; a
// new column starts ascending, or descending when it has reverseDefaultSort.
func (s *Service) Sort(field string) error {
	s.mu.Lock()
	j, ok := s.index[field]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	asc := !s.cols[j].ReverseDefaultSort
	if s.sort != nil && s.sort.Field == field {
		asc = !s.sort.Asc
	}
	s.mu.Unlock()
	return s.SortBy(field, asc)
}

// SortBy sorts by field in the given direction, replacing any previous sort.
func (s *Service) SortBy(field string, asc bool) error {
	e := &emission{}
	s.mu.Lock()
	j, ok := s.index[field]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	if !s.cols[j].Sortable {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotSortable, field)
	}
	s.sort = &columns.SortInfo{Field: field, Asc: asc}
	s.sortLocked(e)
	s.mu.Unlock()
	s.publish(e)
	return nil
}

// ClearSort returns the rows to their filtered order.
func (s *Service) ClearSort() {
	e := &emission{}
	s.mu.Lock()
	s.sort = nil
	s.sortLocked(e)
	s.mu.Unlock()
	s.publish(e)
}

func (s *Service) sortLocked(e *emission) {
	if s.cfg.ExternalSorting || s.cfg.ExternalPaging {
		s.requestLocked(e)
		return
	}
	s.runLocked(stageSort, e)
}

// SortInfo returns the active sort.
func (s *Service) SortInfo() (columns.SortInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sort == nil {
		return columns.SortInfo{}, false
	}
	return *s.sort, true
}

// SetPage moves to the first (-2), previous (-1), next (1) or last (2) page.
// Moves past either end leave the page unchanged.
func (s *Service) SetPage(mode int) {
	e := &emission{}
	s.mu.Lock()
	if s.page.Move(mode) {
		if s.cfg.ExternalPaging {
			s.requestLocked(e)
		} else {
			s.runLocked(stagePage, e)
		}
	}
	s.mu.Unlock()
	s.publish(e)
}

// GoToPage jumps to a 0-based page index, clamped to the valid range.
func (s *Service) GoToPage(page int) {
	e := &emission{}
	s.mu.Lock()
	before := s.page.Page
	s.page.Page = page
	s.page.Recompute()
	if s.page.Page != before {
		if s.cfg.ExternalPaging {
			s.requestLocked(e)
		} else {
			s.runLocked(stagePage, e)
		}
	}
	s.mu.Unlock()
	s.publish(e)
}

// SetPageSize changes the page size and returns to the first page. A size of
// zero or less disables paging.
func (s *Service) SetPageSize(size int) {
	e := &emission{}
	s.mu.Lock()
	s.page.PageSize = size
	s.page.Page = 0
	s.page.Recompute()
	if s.cfg.ExternalPaging {
		s.requestLocked(e)
	} else {
		s.runLocked(stagePage, e)
	}
	s.mu.Unlock()
	s.publish(e)
}

func (s *Service) PageInfo() query.PageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// View returns the current view rows.
func (s *Service) View() []*rows.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.view)
}

// Row returns the view row at i.
func (s *Service) Row(i int) (*rows.Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.view) {
		return nil, false
	}
	return s.view[i], true
}

// Columns returns the columns in render order.
func (s *Service) Columns() []*columns.Column {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cols)
}

// Column returns the column for field.
func (s *Service) Column(field string) (*columns.Column, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.index[field]
	if !ok {
		return nil, -1, false
	}
	return s.cols[j], j, true
}

// NumFixed returns the number of visible fixed columns.
func (s *Service) NumFixed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.cols {
		if c.IsFixed && c.Visible {
			n++
		}
	}
	return n
}

// KeyColumn returns the index of the key column, -1 when none is designated.
func (s *Service) KeyColumn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyColumn
}

// ReorderColumn moves the column with configuration ID from to the position
// of the column with configuration ID to. Fixed columns stay in front: the
// target position is clamped to the block, fixed or not, of the moved column.
func (s *Service) ReorderColumn(from, to int) error {
	e := &emission{}
	s.mu.Lock()
	fi, ti := s.positionOfLocked(from), s.positionOfLocked(to)
	if fi < 0 || ti < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: column id %d or %d", ErrUnknownColumn, from, to)
	}
	nFixed := 0
	for _, col := range s.cols {
		if col.IsFixed {
			nFixed++
		}
	}
	if s.cols[fi].IsFixed {
		ti = min(ti, nFixed-1)
	} else {
		ti = max(ti, nFixed)
	}
	if fi != ti {
		s.cols = move(s.cols, fi, ti)
		for i, col := range s.cols {
			col.SortOrder = i + 1
		}
		for _, r := range s.rows {
			r.Cells = move(r.Cells, fi, ti)
			for j, c := range r.Cells {
				c.J = j
			}
		}
		s.reindexLocked()
		s.buildGrouperLocked()
		s.runLocked(stageFilter, e)
		e.columns = slices.Clone(s.cols)
	}
	s.mu.Unlock()
	s.publish(e)
	return nil
}

func (s *Service) positionOfLocked(id int) int {
	for j, col := range s.cols {
		if col.ID == id {
			return j
		}
	}
	return -1
}

func move[T any](in []T, from, to int) []T {
	v := in[from]
	out := slices.Delete(slices.Clone(in), from, from+1)
	return slices.Insert(out, to, v)
}

// SetColumnVisible shows or hides a column. Filters on hidden columns are not
// applied.
func (s *Service) SetColumnVisible(field string, visible bool) error {
	e := &emission{}
	s.mu.Lock()
	j, ok := s.index[field]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}
	if s.cols[j].Visible != visible {
		s.cols[j].Visible = visible
		e.columns = slices.Clone(s.cols)
		if s.cols[j].HasFilters() {
			s.filterLocked(e)
		}
	}
	s.mu.Unlock()
	s.publish(e)
	return nil
}

// SetGroupBy replaces the grouped columns. Unknown fields are ignored.
func (s *Service) SetGroupBy(fields ...string) {
	e := &emission{}
	s.mu.Lock()
	s.groupBy = slices.Clone(fields)
	s.groupStates = make(map[string]rows.State)
	s.buildGrouperLocked()
	s.runLocked(stageGroup, e)
	s.mu.Unlock()
	s.publish(e)
}

// ToggleGroup collapses or expands the group header at view index i.
func (s *Service) ToggleGroup(i int) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.view) {
		s.mu.Unlock()
		return fmt.Errorf("%w: row %d", ErrOutOfRange, i)
	}
	r := s.view[i]
	if !r.HasHeader() {
		s.mu.Unlock()
		return fmt.Errorf("row %d is not a group header: %w", i, ErrOutOfRange)
	}
	label, collapsed := r.Header, r.IsExpanded()
	s.mu.Unlock()
	s.SetGroupState(label, collapsed)
	return nil
}

// SetGroupState collapses or expands the group with the given header label.
func (s *Service) SetGroupState(label string, collapsed bool) {
	e := &emission{}
	s.mu.Lock()
	if collapsed {
		s.groupStates[label] = rows.Collapsed
	} else {
		s.groupStates[label] = rows.Expanded
	}
	s.runLocked(stageGroup, e)
	s.mu.Unlock()
	s.publish(e)
}

// Dimensions returns the number of view rows and columns.
func (s *Service) Dimensions() (nRows, nColumns int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.view), len(s.cols)
}

// Selectable reports whether column j is visible and selectable.
func (s *Service) Selectable(j int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j < 0 || j >= len(s.cols) {
		return false
	}
	return s.cols[j].Visible && s.cols[j].Selectable
}

// RowVisible reports whether view row i exists and is not hidden by a
// collapsed group.
func (s *Service) RowVisible(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return i >= 0 && i < len(s.view) && s.view[i].Visible
}
