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

package editing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/formatting"
	"github.com/google/gridcore/core/logger"
)

func ptr(f float64) *float64 { return &f }

func TestCommit(t *testing.T) {
	age := columns.FromConfig(0, config.Column{Field: "age", DataType: "number"}, logger.Nop())
	name := columns.FromConfig(1, config.Column{Field: "name"}, logger.Nop())
	born := columns.FromConfig(2, config.Column{Field: "born", DataType: "date", Format: "YYYY-MM-DD"}, logger.Nop())
	gender := columns.FromConfig(3, config.Column{
		Field:    "gender",
		DataType: "choice",
		Choices:  []map[string]any{{"value": 1, "display": "Female"}, {"value": 2, "display": "Male"}},
	}, logger.Nop())
	locked := columns.FromConfig(4, config.Column{Field: "id", Editable: config.Bool(false)}, logger.Nop())

	ageRule := NewValidator(&config.Validator{Required: true, Min: ptr(0), Max: ptr(150)}, logger.Nop())
	nameRule := NewValidator(&config.Validator{Pattern: `^[A-Z]`, MinLength: 2, MaxLength: 5}, logger.Nop())

	tcs := []struct {
		name     string
		col      *columns.Column
		v        *Validator
		text     string
		expected any
		target   error
	}{
		{name: "number ok", col: age, v: ageRule, text: "42", expected: 42.0},
		{name: "number parse", col: age, v: ageRule, text: "forty", target: formatting.ErrParse},
		{name: "required", col: age, v: ageRule, text: "", target: ErrRequired},
		{name: "too small", col: age, v: ageRule, text: "-1", target: ErrTooSmall},
		{name: "too large", col: age, v: ageRule, text: "151", target: ErrTooLarge},
		{name: "pattern", col: name, v: nameRule, text: "ada", target: ErrPattern},
		{name: "too short", col: name, v: nameRule, text: "A", target: ErrTooShort},
		{name: "too long", col: name, v: nameRule, text: "Adalovelace", target: ErrTooLong},
		{name: "string ok", col: name, v: nameRule, text: "Ada", expected: "Ada"},
		{name: "date ok", col: born, text: "1815-12-10", expected: "1815-12-10"},
		{name: "date parse", col: born, text: "10.12.1815", target: formatting.ErrParse},
		{name: "choice label", col: gender, text: "Male", expected: 2},
		{name: "choice unknown", col: gender, text: "7", target: formatting.ErrParse},
		{name: "not editable", col: locked, text: "x", target: ErrNotEditable},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			res := Commit(tc.col, tc.v, tc.text)
			if tc.target != nil {
				assert.False(t, res.Valid)
				assert.True(t, errors.Is(res.Err, tc.target), "got %v", res.Err)
				return
			}
			assert.True(t, res.Valid, "got %v", res.Err)
			assert.Equal(t, tc.expected, res.Value)
		})
	}
}

func TestInvalidPatternIsIgnored(t *testing.T) {
	v := NewValidator(&config.Validator{Pattern: "("}, logger.Nop())
	assert.NoError(t, v.Validate("anything", "anything"))
}

func TestNilValidator(t *testing.T) {
	v := NewValidator(nil, nil)
	assert.NoError(t, v.Validate("", nil))
}
