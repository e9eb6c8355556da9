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

package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/gridcore/core/aggregates"
	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/config"
	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/rows"
)

func sample() ([]*rows.Row, []string) {
	fields := []string{"id", "region", "status"}
	records := []map[string]any{
		{"id": 1, "region": "North", "status": "open"},
		{"id": 2, "region": "South", "status": "open"},
		{"id": 3, "region": "North", "status": "closed"},
		{"id": 4, "region": "North", "status": "open"},
	}
	out := make([]*rows.Row, len(records))
	for i, r := range records {
		out[i] = rows.New(i, r, fields)
	}
	return out, fields
}

func TestGroupsFirstAppearanceOrder(t *testing.T) {
	in, _ := sample()
	region := columns.FromConfig(1, config.Column{Field: "region"}, logger.Nop())
	gr := NewGrouper([]*columns.Column{region}, []int{1})

	groups := gr.Groups(in)
	require.Len(t, groups, 2)
	assert.Equal(t, "North", groups[0].Label)
	assert.Equal(t, 3, groups[0].Length())
	assert.Equal(t, "South", groups[1].Label)
	assert.Equal(t, "North", groups[0].Values[1])
}

func TestApplyMultipleColumns(t *testing.T) {
	in, fields := sample()
	region := columns.FromConfig(1, config.Column{Field: "region"}, logger.Nop())
	status := columns.FromConfig(2, config.Column{Field: "status"}, logger.Nop())
	gr := NewGrouper([]*columns.Column{region, status}, []int{1, 2})

	out := gr.Apply(in, len(fields), nil, rows.Expanded)
	labels := []string{}
	for _, r := range out {
		if r.HasHeader() {
			labels = append(labels, r.Header)
		}
	}
	assert.Equal(t, []string{"North, open", "South, open", "North, closed"}, labels)
	assert.Len(t, out, 7)
}

func TestApplyCollapsed(t *testing.T) {
	in, fields := sample()
	region := columns.FromConfig(1, config.Column{Field: "region"}, logger.Nop())
	gr := NewGrouper([]*columns.Column{region}, []int{1})

	states := map[string]rows.State{"South": rows.Expanded}
	out := gr.Apply(in, len(fields), states, rows.Collapsed)
	require.Len(t, out, 6)

	assert.True(t, out[0].HasHeader())
	assert.True(t, out[0].IsCollapsed())
	for _, r := range out[1:4] {
		assert.False(t, r.Visible)
	}
	assert.True(t, out[4].IsExpanded())
	assert.True(t, out[5].Visible)
	assert.Equal(t, 2, out[5].Value(0))
}

func TestApplyWithoutColumns(t *testing.T) {
	in, fields := sample()
	out := NewGrouper(nil, nil).Apply(in, len(fields), nil, rows.Expanded)
	assert.Equal(t, in, out)
}

func TestApplySummaries(t *testing.T) {
	in, fields := sample()
	region := columns.FromConfig(1, config.Column{Field: "region"}, logger.Nop())
	gr := NewGrouper([]*columns.Column{region}, []int{1})
	gr.Aggregates = []aggregates.Column{
		{J: 0, DataType: columns.TypeNumber, Kind: aggregates.Sum},
		{J: 2, DataType: columns.TypeString, Kind: aggregates.Unique},
	}

	out := gr.Apply(in, len(fields), nil, rows.Expanded)
	require.True(t, out[0].HasHeader())
	assert.Equal(t, 3, out[0].Count)
	assert.Equal(t, map[int]string{0: "Σ 8", 2: "∪ 2"}, out[0].Summary)

	south := out[4]
	require.True(t, south.HasHeader())
	assert.Equal(t, 1, south.Count)
	assert.Equal(t, "Σ 2", south.Summary[0])
}
