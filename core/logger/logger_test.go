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

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tcs := []struct {
		in       string
		expected Level
		wantErr  bool
	}{
		{in: "", expected: DefaultLevel},
		{in: "debug", expected: DebugLevel},
		{in: "WARN", expected: WarnLevel},
		{in: "warning", expected: WarnLevel},
		{in: " error ", expected: ErrorLevel},
		{in: "loud", expected: DefaultLevel, wantErr: true},
	}
	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			lvl, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, lvl)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Level: WarnLevel})
	l.Info("hidden")
	l.Warn("shown", "field", "name")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "field=name")
}

func TestJSONWith(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf, Type: TypeJSON}).With("grid", "people")
	l.Info("ready")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ready", rec["msg"])
	assert.Equal(t, "people", rec["grid"])
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, Default, OrDefault(nil))
	n := Nop()
	assert.Equal(t, n, OrDefault(n))
}
