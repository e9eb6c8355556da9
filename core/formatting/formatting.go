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

// Package formatting converts raw cell values to display text and parses edited
// text back to raw values. Formatters are looked up by a kind tag so columns hold
// a name plus configuration, never an instance handle.
package formatting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	KindIdentity    = "identity"
	KindNumber      = "number"
	KindDateISO8601 = "date-iso8601"
	KindDateMs      = "date-ms"

	// DefaultDateFormat is used by date formatters configured without a format.
	DefaultDateFormat = "MM/DD/YYYY"

	isoLayout = "2006-01-02"
)

var (
	ErrMalformedFormat = errors.New("malformed format")
	ErrUnknownKind     = errors.New("unknown formatter kind")
	ErrParse           = errors.New("could not parse value")
)

// FormatterParser formats raw values for display and parses input back.
// A nil raw value formats to "".
type FormatterParser interface {
	Format(value any) (string, error)
	Parse(text string) (any, error)
}

// Factory builds a FormatterParser from a format string (possibly empty).
type Factory func(format string) (FormatterParser, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		KindIdentity:    func(string) (FormatterParser, error) { return Identity{}, nil },
		KindNumber:      NewNumber,
		KindDateISO8601: NewDateISO8601,
		KindDateMs:      NewDateMs,
	}
)

// Register adds or replaces the factory for a kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New builds the formatter registered under kind. An empty kind is identity.
func New(kind, format string) (FormatterParser, error) {
	if kind == "" {
		kind = KindIdentity
	}
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return f(format)
}

// Identity prints values with %v and keeps edited text as a string.
type Identity struct{}

func (Identity) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}

func (Identity) Parse(text string) (any, error) {
	return text, nil
}

// Number formats float-convertible values with a printf verb such as "%.2f".
type Number struct {
	format string
}

func NewNumber(format string) (FormatterParser, error) {
	if format == "" {
		return Number{}, nil
	}
	if !strings.Contains(format, "%") {
		return nil, fmt.Errorf("%w: number format %q has no verb", ErrMalformedFormat, format)
	}
	return Number{format: format}, nil
}

func (n Number) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	f, ok := ToFloat(value)
	if !ok {
		return "", fmt.Errorf("%w: %v is not a number", ErrParse, value)
	}
	if n.format == "" {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return fmt.Sprintf(n.format, f), nil
}

func (n Number) Parse(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrParse, text)
	}
	return f, nil
}

// DateISO8601 stores dates as "YYYY-MM-DD" strings and displays them with a
// configurable layout.
type DateISO8601 struct {
	Layout string
	format string
}

func NewDateISO8601(format string) (FormatterParser, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	layout, err := ConvertLayout(format)
	if err != nil {
		return nil, err
	}
	return DateISO8601{Layout: layout, format: format}, nil
}

func (d DateISO8601) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	t, err := ParseISODate(value)
	if err != nil {
		return "", err
	}
	return t.Format(d.Layout), nil
}

func (d DateISO8601) Parse(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if len(text) != len(d.format) {
		return nil, fmt.Errorf("%w: %q does not match %s", ErrParse, text, d.format)
	}
	t, err := time.ParseInLocation(d.Layout, text, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q does not match %s", ErrParse, text, d.format)
	}
	return t.Format(isoLayout), nil
}

// DateMs stores dates as epoch milliseconds, always interpreted in UTC.
type DateMs struct {
	Layout string
	format string
}

func NewDateMs(format string) (FormatterParser, error) {
	if format == "" {
		format = DefaultDateFormat
	}
	layout, err := ConvertLayout(format)
	if err != nil {
		return nil, err
	}
	return DateMs{Layout: layout, format: format}, nil
}

func (d DateMs) Format(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	ms, ok := ToFloat(value)
	if !ok {
		return "", fmt.Errorf("%w: %v is not epoch milliseconds", ErrParse, value)
	}
	return time.UnixMilli(int64(ms)).UTC().Format(d.Layout), nil
}

func (d DateMs) Parse(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(d.Layout, text, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %q does not match %s", ErrParse, text, d.format)
	}
	return t.UnixMilli(), nil
}

// ParseISODate accepts "YYYY-MM-DD", RFC 3339 timestamps and time.Time.
func ParseISODate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		if t, err := time.ParseInLocation(isoLayout, v, time.UTC); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC(), nil
		}
		if len(v) >= len(isoLayout) {
			if t, err := time.ParseInLocation(isoLayout, v[:len(isoLayout)], time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q is not an ISO 8601 date", ErrParse, v)
	default:
		return time.Time{}, fmt.Errorf("%w: %v (%T) is not an ISO 8601 date", ErrParse, value, value)
	}
}

// ToFloat converts numeric values and numeric strings. NaN and empty strings
// are reported as missing.
func ToFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
