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

// Package config describes a grid: its columns and the options that drive the
// filter, sort, group and page pipeline. A Grid is built once, either through
// New with options or by parsing YAML, and is not mutated afterwards.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMinWidth      = 135
	DefaultMaxWidth      = 1000
	DefaultChoiceValue   = "value"
	DefaultChoiceDisplay = "display"
	DefaultVisibleRows   = 10
)

var DefaultPageSizes = []int{10, 25, 50}

var (
	ErrDuplicateField = errors.New("duplicate column field")
	ErrUnknownField   = errors.New("unknown column field")
	ErrInvalid        = errors.New("invalid grid configuration")
)

// Validator constrains edited values. Zero fields are not checked.
type Validator struct {
	Required  bool     `yaml:"required,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
	MinLength int      `yaml:"minLength,omitempty"`
	MaxLength int      `yaml:"maxLength,omitempty"`
}

// Column configures one field. Pointer flags default to true when unset.
type Column struct {
	Field              string           `yaml:"field"`
	Name               string           `yaml:"name,omitempty"`
	DataType           string           `yaml:"dataType,omitempty"`
	Width              float64          `yaml:"width,omitempty"`
	MinWidth           int              `yaml:"minWidth,omitempty"`
	MaxWidth           int              `yaml:"maxWidth,omitempty"`
	Visible            *bool            `yaml:"visible,omitempty"`
	Editable           *bool            `yaml:"editable,omitempty"`
	Selectable         *bool            `yaml:"selectable,omitempty"`
	Sortable           *bool            `yaml:"sortable,omitempty"`
	IsFixed            bool             `yaml:"isFixed,omitempty"`
	IsKey              bool             `yaml:"isKey,omitempty"`
	SortOrder          int              `yaml:"sortOrder,omitempty"`
	Choices            []map[string]any `yaml:"choices,omitempty"`
	ChoiceValue        string           `yaml:"choiceValue,omitempty"`
	ChoiceDisplay      string           `yaml:"choiceDisplay,omitempty"`
	ChoiceURL          string           `yaml:"choiceUrl,omitempty"`
	Formatter          string           `yaml:"formatter,omitempty"`
	Format             string           `yaml:"format,omitempty"`
	ViewRenderer       string           `yaml:"viewRenderer,omitempty"`
	EditRenderer       string           `yaml:"editRenderer,omitempty"`
	ReverseDefaultSort bool             `yaml:"reverseDefaultSort,omitempty"`
	Validator          *Validator       `yaml:"validator,omitempty"`
	// Aggregate shown for this column in group headers, e.g. "sum" or "avg".
	Aggregate string `yaml:"aggregate,omitempty"`
}

func (c *Column) IsVisible() bool    { return c.Visible == nil || *c.Visible }
func (c *Column) IsEditable() bool   { return c.Editable == nil || *c.Editable }
func (c *Column) IsSelectable() bool { return c.Selectable == nil || *c.Selectable }
func (c *Column) IsSortable() bool   { return c.Sortable == nil || *c.Sortable }

// Grid is the full grid configuration.
type Grid struct {
	Title             string   `yaml:"title,omitempty"`
	RowSelect         bool     `yaml:"rowSelect,omitempty"`
	CellSelect        *bool    `yaml:"cellSelect,omitempty"`
	KeyNavigation     *bool    `yaml:"keyNavigation,omitempty"`
	Columns           []Column `yaml:"columns"`
	FixedColumns      []string `yaml:"fixedColumns,omitempty"`
	GroupBy           []string `yaml:"groupBy,omitempty"`
	GroupByCollapsed  bool     `yaml:"groupByCollapsed,omitempty"`
	ExternalFiltering bool     `yaml:"externalFiltering,omitempty"`
	ExternalSorting   bool     `yaml:"externalSorting,omitempty"`
	ExternalPaging    bool     `yaml:"externalPaging,omitempty"`
	PageSize          int      `yaml:"pageSize,omitempty"`
	PageSizes         []int    `yaml:"pageSizes,omitempty"`
	NVisibleRows      int      `yaml:"nVisibleRows,omitempty"`
}

func (g *Grid) IsCellSelect() bool    { return g.CellSelect == nil || *g.CellSelect }
func (g *Grid) IsKeyNavigation() bool { return g.KeyNavigation == nil || *g.KeyNavigation }

// External reports whether any pipeline step is delegated to the host.
func (g *Grid) External() bool {
	return g.ExternalFiltering || g.ExternalSorting || g.ExternalPaging
}

// Option sets one recognised grid option.
type Option func(*Grid)

func WithTitle(title string) Option { return func(g *Grid) { g.Title = title } }

func WithColumns(cols ...Column) Option {
	return func(g *Grid) { g.Columns = append(g.Columns, cols...) }
}

func WithRowSelect(on bool) Option  { return func(g *Grid) { g.RowSelect = on } }
func WithCellSelect(on bool) Option { return func(g *Grid) { g.CellSelect = Bool(on) } }

func WithKeyNavigation(on bool) Option { return func(g *Grid) { g.KeyNavigation = Bool(on) } }

func WithFixedColumns(fields ...string) Option {
	return func(g *Grid) { g.FixedColumns = fields }
}

func WithGroupBy(collapsed bool, fields ...string) Option {
	return func(g *Grid) {
		g.GroupBy = fields
		g.GroupByCollapsed = collapsed
	}
}

// WithExternal delegates filtering, sorting and paging to the host.
func WithExternal(filtering, sorting, paging bool) Option {
	return func(g *Grid) {
		g.ExternalFiltering = filtering
		g.ExternalSorting = sorting
		g.ExternalPaging = paging
	}
}

func WithPageSize(size int, sizes ...int) Option {
	return func(g *Grid) {
		g.PageSize = size
		if len(sizes) > 0 {
			g.PageSizes = sizes
		}
	}
}

func WithVisibleRows(n int) Option { return func(g *Grid) { g.NVisibleRows = n } }

// New builds a validated grid from options.
func New(opts ...Option) (*Grid, error) {
	g := &Grid{}
	for _, opt := range opts {
		opt(g)
	}
	g.ApplyDefaults()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Parse decodes a YAML grid definition.
func Parse(data []byte) (*Grid, error) {
	g := &Grid{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("decoding grid: %w", err)
	}
	g.ApplyDefaults()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Load downloads and parses a YAML grid definition. Any URL the afs service
// understands works, including plain file paths.
func Load(ctx context.Context, URL string) (*Grid, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("loading grid %s: %w", URL, err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", URL, err)
	}
	return g, nil
}

// Marshal renders the grid back to YAML.
func (g *Grid) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

// ApplyDefaults fills unset options. New, Parse and Load call it; grids built as
// literals should call it before use. It is idempotent.
func (g *Grid) ApplyDefaults() {
	if len(g.PageSizes) == 0 {
		g.PageSizes = append([]int(nil), DefaultPageSizes...)
	}
	if g.NVisibleRows <= 0 {
		g.NVisibleRows = DefaultVisibleRows
	}
	for i := range g.Columns {
		c := &g.Columns[i]
		if c.Name == "" {
			c.Name = c.Field
		}
		if c.DataType == "" {
			c.DataType = "string"
		}
		if c.DataType == "date" {
			c.DataType = "date-iso8601"
		}
		if c.MinWidth <= 0 {
			c.MinWidth = DefaultMinWidth
		}
		if c.MaxWidth <= 0 {
			c.MaxWidth = DefaultMaxWidth
		}
		if c.ChoiceValue == "" {
			c.ChoiceValue = DefaultChoiceValue
		}
		if c.ChoiceDisplay == "" {
			c.ChoiceDisplay = DefaultChoiceDisplay
		}
	}
	for _, f := range g.FixedColumns {
		if c := g.Column(f); c != nil {
			c.IsFixed = true
		}
	}
}

// Column returns the column configured for field, or nil.
func (g *Grid) Column(field string) *Column {
	for i := range g.Columns {
		if g.Columns[i].Field == field {
			return &g.Columns[i]
		}
	}
	return nil
}

// Validate reports structural problems. Problems a safe default can absorb,
// such as a choice column without choices, are left to the column builder.
func (g *Grid) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(g.Columns))
	for i, c := range g.Columns {
		if c.Field == "" {
			errs = append(errs, fmt.Errorf("%w: column %d has no field", ErrInvalid, i))
			continue
		}
		if seen[c.Field] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateField, c.Field))
		}
		seen[c.Field] = true
		if c.Width < 0 || c.Width > 100 {
			errs = append(errs, fmt.Errorf("%w: column %q width %v outside [0, 100]", ErrInvalid, c.Field, c.Width))
		}
		if c.MinWidth > c.MaxWidth {
			errs = append(errs, fmt.Errorf("%w: column %q minWidth %d > maxWidth %d", ErrInvalid, c.Field, c.MinWidth, c.MaxWidth))
		}
	}
	for _, f := range g.GroupBy {
		if !seen[f] {
			errs = append(errs, fmt.Errorf("%w: groupBy %q", ErrUnknownField, f))
		}
	}
	for _, f := range g.FixedColumns {
		if !seen[f] {
			errs = append(errs, fmt.Errorf("%w: fixedColumns %q", ErrUnknownField, f))
		}
	}
	if g.PageSize < 0 {
		errs = append(errs, fmt.Errorf("%w: pageSize %d", ErrInvalid, g.PageSize))
	}
	for _, s := range g.PageSizes {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("%w: pageSizes entry %d", ErrInvalid, s))
		}
	}
	return errors.Join(errs...)
}

// Bool returns a pointer to v, for the optional flags.
func Bool(v bool) *bool {
	return &v
}
