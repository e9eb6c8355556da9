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

// Package editing turns edited cell text into a validated raw value.
package editing

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/formatting"
	"github.com/google/gridcore/core/logger"
)

var (
	ErrNotEditable = errors.New("column is not editable")
	ErrRequired    = errors.New("value is required")
	ErrPattern     = errors.New("value does not match pattern")
	ErrTooSmall    = errors.New("value is below the minimum")
	ErrTooLarge    = errors.New("value is above the maximum")
	ErrTooShort    = errors.New("value is too short")
	ErrTooLong     = errors.New("value is too long")
)

// Result is the outcome of an edit. When Valid is false, Err says why and the
// cell keeps its previous value.
type Result struct {
	Valid bool
	Value any
	Err   error
}

func invalid(err error) Result {
	return Result{Err: err}
}

// Validator checks edited values against a column's validator configuration.
type Validator struct {
	cfg     config.Validator
	pattern *regexp.Regexp
}

// NewValidator compiles cfg. A nil cfg accepts everything. An invalid pattern
// is logged and not enforced.
func NewValidator(cfg *config.Validator, log logger.Logger) *Validator {
	v := &Validator{}
	if cfg == nil {
		return v
	}
	v.cfg = *cfg
	if cfg.Pattern != "" {
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			logger.OrDefault(log).Error("invalid validator pattern, not enforced", "pattern", cfg.Pattern, "error", err)
		} else {
			v.pattern = re
		}
	}
	return v
}

// Validate checks the edited text and the value parsed from it.
func (v *Validator) Validate(text string, value any) error {
	if value == nil || text == "" {
		if v.cfg.Required {
			return ErrRequired
		}
		return nil
	}
	n := utf8.RuneCountInString(text)
	if v.cfg.MinLength > 0 && n < v.cfg.MinLength {
		return fmt.Errorf("%w: %d < %d", ErrTooShort, n, v.cfg.MinLength)
	}
	if v.cfg.MaxLength > 0 && n > v.cfg.MaxLength {
		return fmt.Errorf("%w: %d > %d", ErrTooLong, n, v.cfg.MaxLength)
	}
	if v.pattern != nil && !v.pattern.MatchString(text) {
		return fmt.Errorf("%w %s", ErrPattern, v.pattern)
	}
	if v.cfg.Min != nil || v.cfg.Max != nil {
		f, ok := formatting.ToFloat(value)
		if !ok {
			return fmt.Errorf("%w: %q is not a number", formatting.ErrParse, text)
		}
		if v.cfg.Min != nil && f < *v.cfg.Min {
			return fmt.Errorf("%w: %v < %v", ErrTooSmall, f, *v.cfg.Min)
		}
		if v.cfg.Max != nil && f > *v.cfg.Max {
			return fmt.Errorf("%w: %v > %v", ErrTooLarge, f, *v.cfg.Max)
		}
	}
	return nil
}

// Commit parses text through the column and validates the result.
func Commit(col *columns.Column, v *Validator, text string) Result {
	if !col.Editable {
		return invalid(fmt.Errorf("%w: %s", ErrNotEditable, col.Field))
	}
	value, err := col.Parse(text)
	if err != nil {
		return invalid(err)
	}
	if col.DataType == columns.TypeChoice && value != nil && col.Choices.Len() > 0 && !col.Choices.Contains(value) {
		return invalid(fmt.Errorf("%w: %q is not a choice of %s", formatting.ErrParse, text, col.Field))
	}
	if v != nil {
		if err := v.Validate(text, value); err != nil {
			return invalid(err)
		}
	}
	return Result{Valid: true, Value: value}
}
