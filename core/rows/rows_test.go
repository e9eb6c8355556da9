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

package rows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRow(t *testing.T) {
	fields := []string{"id", "name", "missing"}
	r := New(4, map[string]any{"id": 7, "name": "Ada"}, fields)

	require.Equal(t, len(fields), r.Len())
	assert.Equal(t, 7, r.Value(0))
	assert.Equal(t, "Ada", r.Value(1))
	assert.Nil(t, r.Value(2))
	assert.Nil(t, r.Get(3))
	assert.Nil(t, r.Get(-1))
	assert.Equal(t, 4, r.Get(1).I)
	assert.Equal(t, 1, r.Get(1).J)
	assert.True(t, r.Visible)
	assert.True(t, r.IsExpanded())
	assert.False(t, r.HasHeader())
	assert.Equal(t, "7, Ada, ", r.Concatenated())
}

func TestRowDirty(t *testing.T) {
	r := New(0, map[string]any{"a": 1, "b": 2}, []string{"a", "b"})
	assert.False(t, r.Dirty())
	r.Get(1).Dirty = true
	assert.True(t, r.Dirty())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, r.Record([]string{"a", "b"}))
}

func TestHeaderRow(t *testing.T) {
	h := NewHeader("North, Active", 3, map[int]any{0: "North"}, Collapsed)
	assert.True(t, h.HasHeader())
	assert.True(t, h.IsCollapsed())
	assert.Equal(t, -1, h.RowNum)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "North", h.Value(0))
	assert.Nil(t, h.Value(1))
}

func TestRangeNormalisation(t *testing.T) {
	r := NewRange(Point{I: 5, J: 1})
	assert.True(t, r.IsSingle())
	r.Update(Point{I: 2, J: 3})
	assert.Equal(t, Point{I: 2, J: 1}, r.Min())
	assert.Equal(t, Point{I: 5, J: 3}, r.Max())
	assert.True(t, r.Contains(Point{I: 3, J: 2}))
	assert.False(t, r.Contains(Point{I: 6, J: 2}))

	r.SetInitial(Point{I: 1, J: 1})
	assert.True(t, r.IsSingle())
}

func TestPointNegative(t *testing.T) {
	assert.True(t, Point{I: -1, J: -1}.IsNegative())
	assert.True(t, Point{I: 0, J: -1}.IsNegative())
	assert.False(t, Point{I: 0, J: 0}.IsNegative())
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]any{1, "x"})
	require.NoError(t, err)
	b, err := Fingerprint([]any{1, "x"})
	require.NoError(t, err)
	c, err := Fingerprint([]any{"1", "x"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAssignKey(t *testing.T) {
	r := New(0, map[string]any{"id": 42, "name": "x"}, []string{"id", "name"})
	require.NoError(t, AssignKey(r, 0))
	assert.Equal(t, 42, r.Key)

	require.NoError(t, AssignKey(r, -1))
	_, ok := r.Key.(uint64)
	assert.True(t, ok)
}
