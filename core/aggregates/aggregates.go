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

// Package aggregates summarises the member rows of a group for its header.
// States accumulate values and can be combined, so a summary can be built
// from partial summaries.
package aggregates

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/formatting"
	"github.com/google/gridcore/core/rows"
)

// Kind names one aggregate a column can show in group headers.
type Kind string

const (
	Count  Kind = "count"
	Sum    Kind = "sum"
	Avg    Kind = "avg"
	Min    Kind = "min"
	Max    Kind = "max"
	StdDev Kind = "stddev"
	Unique Kind = "unique"
	Span   Kind = "span"
)

var (
	ErrUnknownKind = errors.New("unknown aggregate")
	ErrUnsupported = errors.New("aggregate not supported for data type")
)

var symbols = map[Kind]string{
	Count:  "#",
	Sum:    "Σ",
	Avg:    "μ",
	Min:    "↓",
	Max:    "↑",
	StdDev: "σ",
	Unique: "∪",
	Span:   "↔",
}

// ParseKind converts a configuration value such as "sum" or "AVG".
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := symbols[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Symbol returns the short sign shown before an aggregate value.
func Symbol(k Kind) string {
	return symbols[k]
}

// Supports reports whether kind can be computed for columns of type t.
func Supports(k Kind, t columns.DataType) bool {
	switch k {
	case Count, Min, Max:
		return true
	case Sum:
		return t == columns.TypeNumber
	case Avg, StdDev, Span:
		return t == columns.TypeNumber || isDate(t)
	case Unique:
		return t == columns.TypeString || t == columns.TypeChoice
	default:
		return false
	}
}

func isDate(t columns.DataType) bool {
	return t == columns.TypeDateISO8601 || t == columns.TypeDateMs
}

// State is the intermediate state of the aggregates of one column.
type State interface {
	// Add accumulates one value. Missing values are skipped.
	Add(value any)
	// Combine merges another state of the same kind into this one.
	Combine(other State)
	// Format renders the aggregate k, or "-" when there is nothing to show.
	Format(k Kind) string
}

// NewState creates an empty state for columns of type t.
func NewState(t columns.DataType) State {
	switch {
	case t == columns.TypeNumber:
		return NewNumericState()
	case isDate(t):
		return NewDateState()
	default:
		return NewStringState()
	}
}

// NumericState derives count, sum, avg, stddev, min and max.
type NumericState struct {
	Count int64
	Sum   float64
	SumSq float64 // for stddev
	Min   float64
	Max   float64
}

func NewNumericState() *NumericState {
	return &NumericState{Min: math.MaxFloat64, Max: -math.MaxFloat64}
}

func (s *NumericState) Add(value any) {
	v, ok := formatting.ToFloat(value)
	if !ok {
		return
	}
	s.Count++
	s.Sum += v
	s.SumSq += v * v
	s.Min = min(s.Min, v)
	s.Max = max(s.Max, v)
}

func (s *NumericState) Combine(other State) {
	o, ok := other.(*NumericState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
}

func (s *NumericState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the population standard deviation.
func (s *NumericState) StdDev() float64 {
	if s.Count == 0 {
		return 0
	}
	mean := s.Avg()
	// Rounding can push E[X²] - E[X]² slightly below zero.
	return math.Sqrt(max(0, s.SumSq/float64(s.Count)-mean*mean))
}

func (s *NumericState) Format(k Kind) string {
	if s.Count == 0 {
		return "-"
	}
	switch k {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case Sum:
		return formatNumber(s.Sum)
	case Avg:
		return formatNumber(s.Avg())
	case StdDev:
		return formatNumber(s.StdDev())
	case Min:
		return formatNumber(s.Min)
	case Max:
		return formatNumber(s.Max)
	case Span:
		return formatNumber(s.Max - s.Min)
	default:
		return "-"
	}
}

// StringState derives count, unique count and the alphabetical min and max.
type StringState struct {
	Count     int64
	UniqueSet map[string]struct{}
	Min       string
	Max       string
}

func NewStringState() *StringState {
	return &StringState{UniqueSet: make(map[string]struct{})}
}

func (s *StringState) Add(value any) {
	if value == nil {
		return
	}
	v := fmt.Sprint(value)
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.UniqueSet[v] = struct{}{}
}

func (s *StringState) Combine(other State) {
	o, ok := other.(*StringState)
	if !ok || o.Count == 0 {
		return
	}
	if s.Count == 0 || o.Min < s.Min {
		s.Min = o.Min
	}
	if s.Count == 0 || o.Max > s.Max {
		s.Max = o.Max
	}
	s.Count += o.Count
	for k := range o.UniqueSet {
		s.UniqueSet[k] = struct{}{}
	}
}

func (s *StringState) UniqueCount() int {
	return len(s.UniqueSet)
}

func (s *StringState) Format(k Kind) string {
	if s.Count == 0 {
		return "-"
	}
	switch k {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case Unique:
		return fmt.Sprintf("%d", s.UniqueCount())
	case Min:
		return s.Min
	case Max:
		return s.Max
	default:
		return "-"
	}
}

// DateState derives count, min, max, avg, stddev and span of dates. Values are
// ISO dates or epoch milliseconds and are kept as milliseconds.
type DateState struct {
	Count int64
	Sum   float64
	SumSq float64
	Min   int64
	Max   int64
}

func NewDateState() *DateState {
	return &DateState{Min: math.MaxInt64, Max: math.MinInt64}
}

func toMillis(value any) (int64, bool) {
	if value == nil {
		return 0, false
	}
	if ms, ok := formatting.ToFloat(value); ok {
		return int64(ms), true
	}
	t, err := formatting.ParseISODate(value)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

func (s *DateState) Add(value any) {
	ms, ok := toMillis(value)
	if !ok {
		return
	}
	s.Count++
	s.Sum += float64(ms)
	s.SumSq += float64(ms) * float64(ms)
	s.Min = min(s.Min, ms)
	s.Max = max(s.Max, ms)
}

func (s *DateState) Combine(other State) {
	o, ok := other.(*DateState)
	if !ok || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
}

func (s *DateState) Avg() time.Time {
	if s.Count == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(s.Sum / float64(s.Count))).UTC()
}

func (s *DateState) StdDev() time.Duration {
	if s.Count == 0 {
		return 0
	}
	mean := s.Sum / float64(s.Count)
	variance := max(0, s.SumSq/float64(s.Count)-mean*mean)
	return time.Duration(math.Sqrt(variance)) * time.Millisecond
}

func (s *DateState) Span() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return time.Duration(s.Max-s.Min) * time.Millisecond
}

func (s *DateState) Format(k Kind) string {
	if s.Count == 0 {
		return "-"
	}
	switch k {
	case Count:
		return fmt.Sprintf("%d", s.Count)
	case Min:
		return formatDate(time.UnixMilli(s.Min).UTC())
	case Max:
		return formatDate(time.UnixMilli(s.Max).UTC())
	case Avg:
		return formatDate(s.Avg())
	case StdDev:
		return formatDuration(s.StdDev())
	case Span:
		return formatDuration(s.Span())
	default:
		return "-"
	}
}

// --- Formatting helpers ---

// formatNumber prints integers without decimals and other values with up to
// two decimals.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	formatted := fmt.Sprintf("%.2f", v)
	formatted = strings.TrimRight(formatted, "0")
	return strings.TrimSuffix(formatted, ".")
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	hours := d.Hours()
	switch {
	case hours >= 24*365:
		return fmt.Sprintf("%.1fy", hours/(24*365))
	case hours >= 24*30:
		return fmt.Sprintf("%.1fmo", hours/(24*30))
	case hours >= 24:
		return fmt.Sprintf("%.1fd", hours/24)
	case hours >= 1:
		return fmt.Sprintf("%.1fh", hours)
	case d.Minutes() >= 1:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// Column is one aggregate shown in group headers: the column's position in a
// row, its data type and the aggregate kind.
type Column struct {
	J        int
	DataType columns.DataType
	Kind     Kind
}

// Summarize computes the aggregates of cols over members. The result maps
// column position to the aggregate's symbol and value, e.g. "Σ 12.5".
func Summarize(members []*rows.Row, cols []Column) map[int]string {
	if len(cols) == 0 {
		return nil
	}
	out := make(map[int]string, len(cols))
	for _, c := range cols {
		state := NewState(c.DataType)
		for _, m := range members {
			state.Add(m.Value(c.J))
		}
		out[c.J] = Symbol(c.Kind) + " " + state.Format(c.Kind)
	}
	return out
}
