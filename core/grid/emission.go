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

package grid

import (
	"slices"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/query"
	"github.com/google/gridcore/core/rows"
)

// emission collects what a locked operation wants to announce. It is
// published once the lock is released.
type emission struct {
	columns     []*columns.Column
	view        []*rows.Row
	viewSet     bool
	page        *query.PageInfo
	external    *query.ExternalInfo
	values      []rows.Point
	selected    []any
	selectedSet bool
	doubleClick []any
	alerts      []string
}

func (e *emission) setView(view []*rows.Row) {
	e.view = slices.Clone(view)
	e.viewSet = true
}

func (e *emission) setSelected(keys []any) {
	e.selected = keys
	e.selectedSet = true
}

func (s *Service) publish(e *emission) {
	if e.columns != nil {
		s.ColumnsChanged.Publish(e.columns)
	}
	if e.viewSet {
		s.ViewChanged.Publish(e.view)
	}
	if e.page != nil {
		s.PageChanged.Publish(*e.page)
	}
	if e.external != nil {
		s.ExternalRequests.Publish(*e.external)
	}
	for _, p := range e.values {
		s.ValueChanged.Publish(p)
	}
	if e.selectedSet {
		s.SelectedRowsChanged.Publish(e.selected)
	}
	for _, k := range e.doubleClick {
		s.DoubleClicked.Publish(k)
	}
	for _, msg := range e.alerts {
		s.Alerts.Publish(msg)
	}
}
