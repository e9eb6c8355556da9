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
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/viant/afs"
)

// ArrowLoader implements Loader for Arrow IPC files.
//
// Required options:
//   - url: location of the .arrow file
type ArrowLoader struct {
	fs  afs.Service
	mem memory.Allocator
}

// NewArrowLoader creates an Arrow loader. A nil fs uses afs.New().
func NewArrowLoader(fs afs.Service) *ArrowLoader {
	if fs == nil {
		fs = afs.New()
	}
	return &ArrowLoader{fs: fs, mem: memory.NewGoAllocator()}
}

// SourceType returns "arrow".
func (l *ArrowLoader) SourceType() string {
	return "arrow"
}

func (l *ArrowLoader) open(ctx context.Context, options map[string]string) (*ipc.FileReader, error) {
	URL, err := option(options, "url")
	if err != nil {
		return nil, err
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read arrow file: %w", err)
	}
	r, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(l.mem))
	if err != nil {
		return nil, fmt.Errorf("failed to open arrow file %s: %w", URL, err)
	}
	return r, nil
}

// DiscoverSchema reads the schema from the file footer.
func (l *ArrowLoader) DiscoverSchema(ctx context.Context, options map[string]string) (*TableSchema, error) {
	r, err := l.open(ctx, options)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return SchemaFromArrow(r.Schema()), nil
}

// Load reads every record batch.
func (l *ArrowLoader) Load(ctx context.Context, options map[string]string) ([]map[string]any, error) {
	r, err := l.open(ctx, options)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []map[string]any
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read arrow record: %w", err)
		}
		out = append(out, RowsFromRecord(rec)...)
	}
	return out, nil
}

// SchemaFromArrow maps arrow field types onto grid column types. Timestamps
// and date64 become millisecond dates, date32 ISO dates.
func SchemaFromArrow(s *arrow.Schema) *TableSchema {
	schema := &TableSchema{Columns: make([]*ColumnSchema, s.NumFields())}
	for i, f := range s.Fields() {
		schema.Columns[i] = &ColumnSchema{Name: f.Name, Type: arrowType(f.Type)}
	}
	return schema
}

func arrowType(t arrow.DataType) ColumnType {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return TypeNumber
	case arrow.BOOL:
		return TypeBool
	case arrow.DATE32:
		return TypeDateISO8601
	case arrow.DATE64, arrow.TIMESTAMP:
		return TypeDateMs
	}
	return TypeString
}

// RowsFromRecord converts one record batch into row records.
func RowsFromRecord(rec arrow.Record) []map[string]any {
	n := int(rec.NumRows())
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = make(map[string]any, rec.NumCols())
	}
	for c := range int(rec.NumCols()) {
		name := rec.ColumnName(c)
		col := rec.Column(c)
		for i := range n {
			out[i][name] = arrowValue(col, i)
		}
	}
	return out
}

// RowsFromTable converts a whole table, chunk by chunk.
func RowsFromTable(t arrow.Table) []map[string]any {
	tr := array.NewTableReader(t, t.NumRows())
	defer tr.Release()
	var out []map[string]any
	for tr.Next() {
		out = append(out, RowsFromRecord(tr.Record())...)
	}
	return out
}

func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return float64(a.Value(i))
	case *array.Int16:
		return float64(a.Value(i))
	case *array.Int32:
		return float64(a.Value(i))
	case *array.Int64:
		return float64(a.Value(i))
	case *array.Uint8:
		return float64(a.Value(i))
	case *array.Uint16:
		return float64(a.Value(i))
	case *array.Uint32:
		return float64(a.Value(i))
	case *array.Uint64:
		return float64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.Date32:
		return a.Value(i).ToTime().Format("2006-01-02")
	case *array.Date64:
		return float64(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return float64(a.Value(i).ToTime(unit).UnixMilli())
	}
	return col.ValueStr(i)
}
