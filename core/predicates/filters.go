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

package predicates

import (
	"fmt"
	"strings"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/formatting"
)

const msPerDay = 24 * 60 * 60 * 1000

// StringFilter matches when the value contains every filter token, ignoring
// case. Empty tokens match anything.
func StringFilter(value any, filters []columns.FilterInfo, _ *columns.Column) bool {
	text := fold(value)
	for _, f := range filters {
		token := fold(f.Value)
		if token == "" {
			continue
		}
		if !strings.Contains(text, token) {
			return false
		}
	}
	return true
}

// NumberFilter matches when the value satisfies every filter entry. A missing
// value (nil, empty, not numeric) never matches. Entries whose bounds are not
// numeric are inactive.
func NumberFilter(value any, filters []columns.FilterInfo, _ *columns.Column) bool {
	v, ok := formatting.ToFloat(value)
	if !ok {
		return false
	}
	for _, f := range filters {
		lo, ok := formatting.ToFloat(f.Value)
		if !ok {
			continue
		}
		cHi := 0
		if isRange(f.Operator) {
			hi, ok := formatting.ToFloat(f.HighValue)
			if !ok {
				continue
			}
			cHi = compareFloat64s(v, hi)
		}
		if !matches(f.Operator, compareFloat64s(v, lo), cHi) {
			return false
		}
	}
	return true
}

// ChoiceFilter matches when the value equals any filter entry's value.
func ChoiceFilter(value any, filters []columns.FilterInfo, _ *columns.Column) bool {
	if value == nil {
		return false
	}
	key := fmt.Sprint(value)
	for _, f := range filters {
		if f.Value != nil && fmt.Sprint(f.Value) == key {
			return true
		}
	}
	return false
}

// DateISOFilter compares "YYYY-MM-DD" strings. Filter bounds may be ISO dates
// or text in the column's display format.
func DateISOFilter(value any, filters []columns.FilterInfo, col *columns.Column) bool {
	v, ok := isoDay(value, nil)
	if !ok {
		return false
	}
	for _, f := range filters {
		lo, ok := isoDay(f.Value, col)
		if !ok {
			continue
		}
		cHi := 0
		if isRange(f.Operator) {
			hi, ok := isoDay(f.HighValue, col)
			if !ok {
				continue
			}
			cHi = compareStrings(v, hi)
		}
		if !matches(f.Operator, compareStrings(v, lo), cHi) {
			return false
		}
	}
	return true
}

// DateMsFilter compares epoch millisecond values by UTC calendar day, so a
// bound of midnight matches any time on that day.
func DateMsFilter(value any, filters []columns.FilterInfo, col *columns.Column) bool {
	v, ok := msDay(value, nil)
	if !ok {
		return false
	}
	for _, f := range filters {
		lo, ok := msDay(f.Value, col)
		if !ok {
			continue
		}
		cHi := 0
		if isRange(f.Operator) {
			hi, ok := msDay(f.HighValue, col)
			if !ok {
				continue
			}
			cHi = compareFloat64s(v, hi)
		}
		if !matches(f.Operator, compareFloat64s(v, lo), cHi) {
			return false
		}
	}
	return true
}

// isoDay normalises a date to "YYYY-MM-DD". When col is given, text that is not
// ISO is parsed with the column formatter.
func isoDay(v any, col *columns.Column) (string, bool) {
	if v == nil || v == "" {
		return "", false
	}
	if t, err := formatting.ParseISODate(v); err == nil {
		return t.Format("2006-01-02"), true
	}
	s, ok := v.(string)
	if !ok || col == nil {
		return "", false
	}
	parsed, err := col.Parse(s)
	if err != nil {
		return "", false
	}
	return isoDay(parsed, nil)
}

// msDay converts a date to its UTC day number. Numbers are epoch milliseconds.
func msDay(v any, col *columns.Column) (float64, bool) {
	if ms, ok := formatting.ToFloat(v); ok {
		return floorDiv(ms, msPerDay), true
	}
	if v == nil || v == "" {
		return 0, false
	}
	if t, err := formatting.ParseISODate(v); err == nil {
		return floorDiv(float64(t.UnixMilli()), msPerDay), true
	}
	s, ok := v.(string)
	if !ok || col == nil {
		return 0, false
	}
	parsed, err := col.Parse(s)
	if err != nil {
		return 0, false
	}
	return msDay(parsed, nil)
}
