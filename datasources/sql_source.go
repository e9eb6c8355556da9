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
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/formatting"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/query"
)

const msPerDay = 24 * 60 * 60 * 1000

// OpenSQLite opens a SQLite database. ":memory:" gives a private in-memory
// database.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// SQLSource serves one table of a SQLite database to a grid. Fetch answers
// external data requests by translating the grid's filters, sort and page into
// a single query, so a grid configured for external filtering, sorting and
// paging can sit on top of a table of any size.
type SQLSource struct {
	db    *sql.DB
	table string
	cols    []config.Column
	types   map[string]columns.DataType
	choices map[string]*columns.Choices
	log     logger.Logger
}

// NewSQLSource serves table with the columns of grid.
func NewSQLSource(db *sql.DB, table string, grid *config.Grid, log logger.Logger) *SQLSource {
	s := &SQLSource{
		db:    db,
		table: table,
		cols:  grid.Columns,
		types:   make(map[string]columns.DataType, len(grid.Columns)),
		choices: make(map[string]*columns.Choices),
		log:     logger.OrDefault(log),
	}
	for _, c := range grid.Columns {
		t := columns.DataType(c.DataType)
		if t == "date" {
			t = columns.TypeDateISO8601
		}
		s.types[c.Field] = t
		if t != columns.TypeChoice {
			continue
		}
		valueKey, displayKey := c.ChoiceValue, c.ChoiceDisplay
		if valueKey == "" {
			valueKey = config.DefaultChoiceValue
		}
		if displayKey == "" {
			displayKey = config.DefaultChoiceDisplay
		}
		choices, err := columns.ChoicesFromRecords(c.Choices, valueKey, displayKey)
		if err != nil {
			s.log.Warn("invalid choices, sorting by stored value", "field", c.Field, "error", err)
			continue
		}
		s.choices[c.Field] = choices
	}
	return s
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLSource) sqlType(field string) string {
	switch s.types[field] {
	case columns.TypeNumber:
		return "REAL"
	case columns.TypeDateMs:
		return "INTEGER"
	case columns.TypeChoice:
		return ""
	}
	return "TEXT"
}

// Create creates the table if it does not exist.
func (s *SQLSource) Create(ctx context.Context) error {
	defs := make([]string, len(s.cols))
	for i, c := range s.cols {
		defs[i] = strings.TrimSpace(quoteIdent(c.Field) + " " + s.sqlType(c.Field))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(s.table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Insert adds rows in one transaction. Fields the grid does not configure are
// dropped.
func (s *SQLSource) Insert(ctx context.Context, rows []map[string]any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	names := make([]string, len(s.cols))
	marks := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = quoteIdent(c.Field)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(s.cols))
	for _, r := range rows {
		for i, c := range s.cols {
			args[i] = r[c.Field]
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return tx.Commit()
}

// Load returns every row of the table.
func (s *SQLSource) Load(ctx context.Context) ([]map[string]any, error) {
	return s.query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", s.selectList(), quoteIdent(s.table)))
}

// Fetch implements query.ExternalDataCall. Filters on unconfigured fields
// are ignored and a page past the end is clamped to the last page.
func (s *SQLSource) Fetch(ctx context.Context, info query.ExternalInfo) (query.ExternalData, error) {
	start := time.Now()
	where, args := s.where(info.Filters)

	var total int
	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(s.table), where)
	if err := s.db.QueryRowContext(ctx, countStmt, args...).Scan(&total); err != nil {
		return query.ExternalData{}, fmt.Errorf("failed to count rows: %w", err)
	}

	page := info.Page
	page.DataSize = total
	page.Recompute()

	order, orderArgs := s.orderBy(info.Sort)
	args = append(args, orderArgs...)
	stmt := fmt.Sprintf("SELECT %s FROM %s%s%s", s.selectList(), quoteIdent(s.table), where, order)
	if page.Paged() {
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, page.PageSize, page.Page*page.PageSize)
	}
	data, err := s.query(ctx, stmt, args...)
	if err != nil {
		return query.ExternalData{}, err
	}
	s.log.Debug("external fetch", "table", s.table, "seq", info.Seq, "rows", len(data), "total", total, "elapsed", time.Since(start))
	return query.ExternalData{Data: data, Page: &page}, nil
}

func (s *SQLSource) selectList() string {
	names := make([]string, len(s.cols))
	for i, c := range s.cols {
		names[i] = quoteIdent(c.Field)
	}
	return strings.Join(names, ", ")
}

func (s *SQLSource) query(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	rs, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rs.Close()

	names, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			switch v := vals[i].(type) {
			case []byte:
				row[name] = string(v)
			case int64:
				if s.types[name] == columns.TypeNumber || s.types[name] == columns.TypeDateMs {
					row[name] = float64(v)
				} else {
					row[name] = v
				}
			default:
				row[name] = v
			}
		}
		out = append(out, row)
	}
	return out, rs.Err()
}

// orderBy mirrors the in-memory comparators. Numbers and epoch dates put
// missing values last in both directions. Strings and ISO dates compare
// lowercased with missing values as the empty string, which comes first
// ascending. Choices compare by display label. Equal keys keep insertion order.
func (s *SQLSource) orderBy(sort *columns.SortInfo) (string, []any) {
	if sort == nil {
		return " ORDER BY rowid", nil
	}
	t, ok := s.types[sort.Field]
	if !ok {
		return " ORDER BY rowid", nil
	}
	dir := "ASC"
	if !sort.Asc {
		dir = "DESC"
	}
	col := quoteIdent(sort.Field)
	switch t {
	case columns.TypeNumber, columns.TypeDateMs:
		return fmt.Sprintf(" ORDER BY %s IS NULL, %s %s, rowid", col, col, dir), nil
	case columns.TypeChoice:
		expr, args := s.labelExpr(sort.Field)
		return fmt.Sprintf(" ORDER BY lower(%s) %s, rowid", expr, dir), args
	default:
		return fmt.Sprintf(" ORDER BY lower(COALESCE(%s, '')) %s, rowid", col, dir), nil
	}
}

// labelExpr maps a choice column's stored values to their display labels.
// Values are matched by their text form; unknown values map to ''.
func (s *SQLSource) labelExpr(field string) (string, []any) {
	list := s.choices[field].List()
	if len(list) == 0 {
		return "''", nil
	}
	var b strings.Builder
	args := make([]any, 0, 2*len(list))
	b.WriteString("CASE CAST(" + quoteIdent(field) + " AS TEXT)")
	for _, ch := range list {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, fmt.Sprint(ch.Value), ch.Display)
	}
	b.WriteString(" ELSE '' END")
	return b.String(), args
}

// where mirrors the in-memory predicates: string tokens must all appear
// ignoring case, numbers and dates compare with the filter operator, choices
// match any listed value.
func (s *SQLSource) where(filters map[string][]columns.FilterInfo) (string, []any) {
	var conds []string
	var args []any
	for field, fs := range filters {
		t, ok := s.types[field]
		if !ok || len(fs) == 0 {
			continue
		}
		col := quoteIdent(field)
		switch t {
		case columns.TypeChoice:
			var marks []string
			for _, f := range fs {
				if f.Value != nil {
					marks = append(marks, "?")
					args = append(args, fmt.Sprint(f.Value))
				}
			}
			if len(marks) > 0 {
				conds = append(conds, fmt.Sprintf("CAST(%s AS TEXT) IN (%s)", col, strings.Join(marks, ", ")))
			}
		case columns.TypeNumber:
			for _, f := range fs {
				c, a, ok := compareCond(col, f, numberBound)
				if ok {
					conds = append(conds, c)
					args = append(args, a...)
				}
			}
		case columns.TypeDateISO8601:
			for _, f := range fs {
				c, a, ok := compareCond("substr("+col+", 1, 10)", f, isoBound)
				if ok {
					conds = append(conds, c)
					args = append(args, a...)
				}
			}
		case columns.TypeDateMs:
			// Floored day number, also for dates before the epoch.
			day := fmt.Sprintf("((CAST(%[1]s AS INTEGER) - ((CAST(%[1]s AS INTEGER) %% %[2]d) + %[2]d) %% %[2]d) / %[2]d)", col, msPerDay)
			for _, f := range fs {
				c, a, ok := compareCond(day, f, msDayBound)
				if ok {
					conds = append(conds, c)
					args = append(args, a...)
				}
			}
		default:
			for _, f := range fs {
				token := strings.ToLower(fmt.Sprint(f.Value))
				if f.Value == nil || token == "" {
					continue
				}
				conds = append(conds, fmt.Sprintf(`instr(lower(COALESCE(%s, '')), ?) > 0`, col))
				args = append(args, token)
			}
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func numberBound(v any) (any, bool) {
	return formatting.ToFloat(v)
}

func isoBound(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return t.Format("2006-01-02"), true
}

func msDayBound(v any) (any, bool) {
	f, ok := formatting.ToFloat(v)
	if !ok {
		return nil, false
	}
	return int64(math.Floor(f / msPerDay)), true
}

// compareCond renders one operator filter. Entries with unusable bounds or an
// unknown operator are inactive, and a missing value never matches.
func compareCond(expr string, f columns.FilterInfo, bound func(any) (any, bool)) (string, []any, bool) {
	lo, ok := bound(f.Value)
	if !ok {
		return "", nil, false
	}
	notNull := expr + " IS NOT NULL AND "
	switch f.Operator {
	case columns.OpLessThan:
		return "(" + notNull + expr + " < ?)", []any{lo}, true
	case columns.OpLessOrEqual:
		return "(" + notNull + expr + " <= ?)", []any{lo}, true
	case columns.OpGreaterThan:
		return "(" + notNull + expr + " > ?)", []any{lo}, true
	case columns.OpGreaterOrEqual:
		return "(" + notNull + expr + " >= ?)", []any{lo}, true
	case columns.OpBetween, columns.OpOutside:
		hi, ok := bound(f.HighValue)
		if !ok {
			return "", nil, false
		}
		if f.Operator == columns.OpBetween {
			return "(" + notNull + expr + " BETWEEN ? AND ?)", []any{lo, hi}, true
		}
		return "(" + notNull + "(" + expr + " < ? OR " + expr + " > ?))", []any{lo, hi}, true
	case columns.OpEqual, "":
		return "(" + notNull + expr + " = ?)", []any{lo}, true
	}
	return "", nil, false
}
