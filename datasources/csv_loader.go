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
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/afs"
)

// CsvLoader implements Loader for CSV files. Columns whose every non-empty
// cell parses as a number are loaded as float64, the rest as strings.
//
// Required options:
//   - url: location of the file, anything afs can download
//
// Optional options:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: field delimiter (default: ",")
//   - infer_types: "false" loads every column as strings
type CsvLoader struct {
	fs afs.Service
}

// NewCsvLoader creates a CSV loader. A nil fs uses afs.New().
func NewCsvLoader(fs afs.Service) *CsvLoader {
	if fs == nil {
		fs = afs.New()
	}
	return &CsvLoader{fs: fs}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

func (l *CsvLoader) read(ctx context.Context, options map[string]string) (header []string, records [][]string, err error) {
	URL, err := option(options, "url")
	if err != nil {
		return nil, nil, err
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	if d := options["delimiter"]; d != "" {
		reader.Comma = []rune(d)[0]
	}
	reader.FieldsPerRecord = -1
	records, err = reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV file %s is empty", URL)
	}

	if options["has_header"] == "false" {
		for i := range records[0] {
			header = append(header, fmt.Sprintf("col_%d", i))
		}
		return header, records, nil
	}
	for _, h := range records[0] {
		header = append(header, strings.TrimSpace(h))
	}
	return header, records[1:], nil
}

// DiscoverSchema reads the file and types each column.
func (l *CsvLoader) DiscoverSchema(ctx context.Context, options map[string]string) (*TableSchema, error) {
	header, records, err := l.read(ctx, options)
	if err != nil {
		return nil, err
	}
	numeric := numericColumns(header, records, options["infer_types"] != "false")
	schema := &TableSchema{Columns: make([]*ColumnSchema, len(header))}
	for i, name := range header {
		schema.Columns[i] = &ColumnSchema{Name: name, Type: TypeString}
		if numeric[i] {
			schema.Columns[i].Type = TypeNumber
		}
	}
	return schema, nil
}

// Load reads the file into row records. Missing trailing cells are nil.
func (l *CsvLoader) Load(ctx context.Context, options map[string]string) ([]map[string]any, error) {
	header, records, err := l.read(ctx, options)
	if err != nil {
		return nil, err
	}
	numeric := numericColumns(header, records, options["infer_types"] != "false")

	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(header))
		for i, name := range header {
			if i >= len(record) {
				row[name] = nil
				continue
			}
			cell := record[i]
			if numeric[i] {
				if strings.TrimSpace(cell) == "" {
					row[name] = nil
					continue
				}
				f, _ := strconv.ParseFloat(strings.TrimSpace(cell), 64)
				row[name] = f
				continue
			}
			row[name] = cell
		}
		out = append(out, row)
	}
	return out, nil
}

// numericColumns reports, per column, whether every non-empty cell is a number
// and at least one cell is present.
func numericColumns(header []string, records [][]string, infer bool) []bool {
	numeric := make([]bool, len(header))
	if !infer {
		return numeric
	}
	for i := range header {
		seen := false
		numeric[i] = true
		for _, record := range records {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64); err != nil {
				numeric[i] = false
				break
			}
		}
		numeric[i] = numeric[i] && seen
	}
	return numeric
}
