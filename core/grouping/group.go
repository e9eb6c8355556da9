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
	"strings"

	"github.com/google/gridcore/core/aggregates"
	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/rows"
)

// Terminology:
// * the columns listed in groupBy are the grouped columns
// * every distinct combination of grouped values forms a group
// * a group is rendered as a synthetic header row followed by its member rows
// Groups appear in the order their first member appears in the sorted input, so
// the active sort also orders the groups.

type Group struct {
	Label   string
	Values  map[int]any // column index -> grouped value
	Members []*rows.Row
	Summary map[int]string
}

func (g *Group) Length() int {
	return len(g.Members)
}

// Grouper partitions rows by the values of the grouped columns.
type Grouper struct {
	Columns []*columns.Column // grouped columns, in groupBy order
	Index   []int             // position of each grouped column in a row
	// Aggregates are summarised over each group's members.
	Aggregates []aggregates.Column
}

func NewGrouper(cols []*columns.Column, index []int) *Grouper {
	return &Grouper{Columns: cols, Index: index}
}

// Label joins the display values of the grouped columns with ", ".
func (gr *Grouper) Label(r *rows.Row) string {
	parts := make([]string, len(gr.Columns))
	for k, col := range gr.Columns {
		parts[k] = col.Display(r.Value(gr.Index[k]))
	}
	return strings.Join(parts, ", ")
}

// Groups partitions in, keeping first-appearance order.
func (gr *Grouper) Groups(in []*rows.Row) []*Group {
	var groups []*Group
	byLabel := make(map[string]*Group)
	for _, r := range in {
		label := gr.Label(r)
		g, ok := byLabel[label]
		if !ok {
			g = &Group{Label: label, Values: make(map[int]any, len(gr.Index))}
			for _, j := range gr.Index {
				g.Values[j] = r.Value(j)
			}
			byLabel[label] = g
			groups = append(groups, g)
		}
		g.Members = append(g.Members, r)
	}
	if len(gr.Aggregates) > 0 {
		for _, g := range groups {
			g.Summary = aggregates.Summarize(g.Members, gr.Aggregates)
		}
	}
	return groups
}

// Flatten interleaves a header row before each group's members. A header's
// state comes from states when the label is present there, otherwise from
// initial. Members of collapsed groups stay in the output with Visible unset.
func Flatten(groups []*Group, nColumns int, states map[string]rows.State, initial rows.State) []*rows.Row {
	out := make([]*rows.Row, 0, len(groups))
	for _, g := range groups {
		state, ok := states[g.Label]
		if !ok {
			state = initial
		}
		header := rows.NewHeader(g.Label, nColumns, g.Values, state)
		header.Count = len(g.Members)
		header.Summary = g.Summary
		out = append(out, header)
		for _, m := range g.Members {
			m.Visible = state == rows.Expanded
			out = append(out, m)
		}
	}
	return out
}

// Apply groups in and flattens the result in one step.
func (gr *Grouper) Apply(in []*rows.Row, nColumns int, states map[string]rows.State, initial rows.State) []*rows.Row {
	if len(gr.Columns) == 0 {
		return in
	}
	return Flatten(gr.Groups(in), nColumns, states, initial)
}
