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

package columns

import (
	"fmt"
	"sort"

	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/formatting"
	"github.com/google/gridcore/core/logger"
)

type DataType string

const (
	TypeString      DataType = "string"
	TypeNumber      DataType = "number"
	TypeChoice      DataType = "choice"
	TypeDateISO8601 DataType = "date-iso8601"
	TypeDateMs      DataType = "date-ms"
)

// IsDate reports whether t is one of the date variants.
func (t DataType) IsDate() bool {
	return t == TypeDateISO8601 || t == TypeDateMs
}

// Operator is the comparison a number or date filter applies.
type Operator string

const (
	OpEqual          Operator = "E"
	OpLessOrEqual    Operator = "LE"
	OpLessThan       Operator = "LT"
	OpGreaterOrEqual Operator = "GE"
	OpGreaterThan    Operator = "GT"
	OpBetween        Operator = "B"
	OpOutside        Operator = "O"
)

// FilterInfo is one active filter entry on a column. HighValue is only read by
// the Between and Outside operators.
type FilterInfo struct {
	Field     string   `json:"field"`
	Value     any      `json:"value"`
	HighValue any      `json:"highValue,omitempty"`
	Operator  Operator `json:"operator,omitempty"`
}

// SortInfo is the single active sort.
type SortInfo struct {
	Field string `json:"field"`
	Asc   bool   `json:"asc"`
}

// FilterFunc reports whether value passes every filter. It is called only when
// filters is non-empty.
type FilterFunc func(value any, filters []FilterInfo, col *Column) bool

// SortFunc orders two raw values. Direction is applied by the function itself
// so that nulls can lose in both directions.
type SortFunc func(a, b any, sort SortInfo, col *Column) int

// Column is the runtime model of one configured field.
type Column struct {
	ID                 int
	Field              string
	Name               string
	DataType           DataType
	Width              float64 // percent of the available width, 0 for an equal share
	MinWidth           int
	MaxWidth           int
	Visible            bool
	Editable           bool
	Selectable         bool
	Sortable           bool
	IsFixed            bool
	IsKey              bool
	SortOrder          int
	ReverseDefaultSort bool
	Filters            []FilterInfo
	Choices            *Choices
	ChoiceURL          string
	ChoiceValue        string
	ChoiceDisplay      string
	Formatter          string
	Format             string
	ViewRenderer       string
	EditRenderer       string
	Validator          *config.Validator
	Aggregate          string

	// FormatterParser is resolved from Formatter and Format.
	FormatterParser formatting.FormatterParser
	// FilterFunc and SortFunc override the defaults for DataType when set.
	FilterFunc FilterFunc
	SortFunc   SortFunc
}

// FromConfig builds a column. Configuration problems are logged and replaced by
// safe defaults: a choice column without choices or a choice URL becomes a
// string column, and a malformed format falls back to the identity formatter.
func FromConfig(id int, c config.Column, log logger.Logger) *Column {
	log = logger.OrDefault(log)
	col := &Column{
		ID:                 id,
		Field:              c.Field,
		Name:               c.Name,
		DataType:           normaliseType(c.DataType),
		Width:              c.Width,
		MinWidth:           c.MinWidth,
		MaxWidth:           c.MaxWidth,
		Visible:            c.IsVisible(),
		Editable:           c.IsEditable(),
		Selectable:         c.IsSelectable(),
		Sortable:           c.IsSortable(),
		IsFixed:            c.IsFixed,
		IsKey:              c.IsKey,
		SortOrder:          c.SortOrder,
		ReverseDefaultSort: c.ReverseDefaultSort,
		ChoiceURL:          c.ChoiceURL,
		ChoiceValue:        c.ChoiceValue,
		ChoiceDisplay:      c.ChoiceDisplay,
		Formatter:          c.Formatter,
		Format:             c.Format,
		ViewRenderer:       c.ViewRenderer,
		EditRenderer:       c.EditRenderer,
		Validator:          c.Validator,
		Aggregate:          c.Aggregate,
	}
	if col.Name == "" {
		col.Name = col.Field
	}
	if col.MinWidth <= 0 {
		col.MinWidth = config.DefaultMinWidth
	}
	if col.MaxWidth <= 0 {
		col.MaxWidth = config.DefaultMaxWidth
	}
	if col.ChoiceValue == "" {
		col.ChoiceValue = config.DefaultChoiceValue
	}
	if col.ChoiceDisplay == "" {
		col.ChoiceDisplay = config.DefaultChoiceDisplay
	}

	if col.DataType == TypeChoice {
		choices, err := ChoicesFromRecords(c.Choices, col.ChoiceValue, col.ChoiceDisplay)
		switch {
		case err != nil:
			log.Error("invalid choices, using string type", "field", col.Field, "error", err)
			col.DataType = TypeString
		case choices.Len() == 0 && col.ChoiceURL == "":
			log.Error("choice column has neither choices nor a choice URL, using string type", "field", col.Field)
			col.DataType = TypeString
		default:
			col.Choices = choices
		}
	}

	col.resolveFormatter(log)
	return col
}

func normaliseType(t string) DataType {
	switch t {
	case "":
		return TypeString
	case "date":
		return TypeDateISO8601
	default:
		return DataType(t)
	}
}

// defaultFormatterKind picks the formatter used when a column names none.
func (c *Column) defaultFormatterKind() string {
	switch c.DataType {
	case TypeNumber:
		return formatting.KindNumber
	case TypeDateISO8601:
		return formatting.KindDateISO8601
	case TypeDateMs:
		return formatting.KindDateMs
	default:
		return formatting.KindIdentity
	}
}

func (c *Column) resolveFormatter(log logger.Logger) {
	kind := c.Formatter
	if kind == "" {
		kind = c.defaultFormatterKind()
	}
	fp, err := formatting.New(kind, c.Format)
	if err != nil {
		log.Error("invalid formatter, using identity", "field", c.Field, "formatter", kind, "format", c.Format, "error", err)
		fp = formatting.Identity{}
	}
	c.FormatterParser = fp
}

// FromConfigs builds every column of a grid and orders them by SortOrder.
// Columns without a sort order are placed after the highest configured one, in
// configuration order.
func FromConfigs(cs []config.Column, log logger.Logger) []*Column {
	cols := make([]*Column, len(cs))
	maxOrder := 0
	for i, c := range cs {
		cols[i] = FromConfig(i, c, log)
		maxOrder = max(maxOrder, c.SortOrder)
	}
	for _, col := range cols {
		if col.SortOrder == 0 {
			maxOrder++
			col.SortOrder = maxOrder
		}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].SortOrder < cols[j].SortOrder
	})
	return cols
}

// HasFilters reports whether the column has at least one active filter entry.
func (c *Column) HasFilters() bool {
	return len(c.Filters) > 0
}

// Display renders a raw value as shown to the user: the choice label for choice
// columns, the formatter output otherwise. Formatting failures show the raw
// value.
func (c *Column) Display(value any) string {
	if value == nil {
		return ""
	}
	if c.DataType == TypeChoice && c.Choices != nil {
		if label, ok := c.Choices.Display(value); ok {
			return label
		}
	}
	if c.FormatterParser != nil {
		if s, err := c.FormatterParser.Format(value); err == nil {
			return s
		}
	}
	return fmt.Sprint(value)
}

// Parse converts user input to a raw value through the column formatter. Choice
// columns also accept a display label.
func (c *Column) Parse(text string) (any, error) {
	if c.DataType == TypeChoice && c.Choices != nil {
		if v, ok := c.Choices.Lookup(text); ok {
			return v, nil
		}
	}
	if c.FormatterParser == nil {
		return text, nil
	}
	return c.FormatterParser.Parse(text)
}

func (c *Column) String() string {
	return fmt.Sprintf("%s(%s)", c.Field, c.DataType)
}
