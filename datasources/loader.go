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

// Package datasources loads grid rows from files and databases. Every loader
// produces the []map[string]any row records a grid takes as input data, and
// can describe the columns it found so a grid definition can be derived when
// none is configured.
package datasources

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/formatting"
)

var (
	ErrMissingOption = errors.New("missing loader option")
	ErrUnknownSource = errors.New("unknown data source")
	ErrNoLoader      = errors.New("no loader registered")
)

// ColumnType is the data type a loader discovered for a field.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeNumber
	TypeBool
	TypeDateISO8601
	TypeDateMs
)

// String returns the grid data type name of the column type.
func (t ColumnType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeDateISO8601:
		return "date-iso8601"
	case TypeDateMs:
		return "date-ms"
	default:
		return "string"
	}
}

// ColumnSchema is one discovered field.
type ColumnSchema struct {
	Name string
	Type ColumnType
}

// TableSchema lists the discovered fields in source order.
type TableSchema struct {
	Columns []*ColumnSchema
}

// Loader is implemented by every data source type. Built-in loaders cover
// "csv", "proto" and "arrow".
type Loader interface {
	// SourceType returns the type identifier used in source definitions.
	SourceType() string

	// DiscoverSchema returns the fields of the source without loading rows
	// where the format allows it.
	DiscoverSchema(ctx context.Context, options map[string]string) (*TableSchema, error)

	// Load returns every row of the source.
	Load(ctx context.Context, options map[string]string) ([]map[string]any, error)
}

// option returns a required loader option.
func option(options map[string]string, key string) (string, error) {
	v := options[key]
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingOption, key)
	}
	return v, nil
}

// GridColumns turns a schema into column definitions. Overrides replace the
// derived definition of the field they name and inherit its data type when
// they set none. The first derived field is the key.
func GridColumns(schema *TableSchema, overrides []config.Column) []config.Column {
	byField := make(map[string]config.Column, len(overrides))
	for _, o := range overrides {
		byField[o.Field] = o
	}
	cols := make([]config.Column, 0, len(schema.Columns))
	for i, c := range schema.Columns {
		col := config.Column{Field: c.Name, DataType: c.Type.String(), IsKey: i == 0}
		if c.Type == TypeBool {
			col.DataType = "string"
		}
		if o, ok := byField[c.Name]; ok {
			if o.DataType == "" {
				o.DataType = col.DataType
			}
			col = o
		}
		cols = append(cols, col)
	}
	return cols
}

// InferSchema derives a schema from loaded rows. Fields are listed in the order
// of their first appearance in order; a field is numeric when every present
// value is.
func InferSchema(rows []map[string]any, order []string) *TableSchema {
	fields := slices.Clone(order)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	var extra []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	fields = append(fields, extra...)

	schema := &TableSchema{Columns: make([]*ColumnSchema, len(fields))}
	for i, f := range fields {
		schema.Columns[i] = &ColumnSchema{Name: f, Type: inferType(rows, f)}
	}
	return schema
}

func inferType(rows []map[string]any, field string) ColumnType {
	present, numeric, boolean := 0, 0, 0
	for _, r := range rows {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		present++
		switch v.(type) {
		case bool:
			boolean++
		case string:
		default:
			if _, ok := formatting.ToFloat(v); ok {
				numeric++
			}
		}
	}
	switch {
	case present == 0:
		return TypeString
	case numeric == present:
		return TypeNumber
	case boolean == present:
		return TypeBool
	}
	return TypeString
}
