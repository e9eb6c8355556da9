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
	"fmt"
	"slices"

	"github.com/google/gridcore/core/rows"
)

// SelectRow marks the view row at i as selected or not. Selection follows the
// row key across pipeline reruns.
func (s *Service) SelectRow(i int, selected bool) error {
	e := &emission{}
	s.mu.Lock()
	if !s.cfg.RowSelect {
		s.mu.Unlock()
		return ErrRowSelectOff
	}
	if i < 0 || i >= len(s.view) {
		s.mu.Unlock()
		return fmt.Errorf("%w: row %d", ErrOutOfRange, i)
	}
	r := s.view[i]
	if r.HasHeader() {
		s.mu.Unlock()
		return fmt.Errorf("%w: row %d", ErrHeaderRow, i)
	}
	if r.Selected != selected {
		r.Selected = selected
		k := keyString(r.Key)
		if selected {
			s.selectedKeys[k] = true
		} else {
			delete(s.selectedKeys, k)
		}
		e.setSelected(s.selectedLocked())
	}
	s.mu.Unlock()
	s.publish(e)
	return nil
}

// SelectedKeys returns the keys of the selected rows in raw order.
func (s *Service) SelectedKeys() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Service) selectedLocked() []any {
	keys := []any{}
	for _, r := range s.rows {
		if r.Selected {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

func (s *Service) ClearSelectedRows() {
	e := &emission{}
	s.mu.Lock()
	if len(s.selectedKeys) > 0 {
		for _, r := range s.rows {
			r.Selected = false
		}
		clear(s.selectedKeys)
		e.setSelected([]any{})
	}
	s.mu.Unlock()
	s.publish(e)
}

// DeleteSelectedRows removes the selected rows from the raw data and reruns
// the pipeline. It returns the number of rows removed.
func (s *Service) DeleteSelectedRows() int {
	e := &emission{}
	s.mu.Lock()
	n := 0
	if len(s.selectedKeys) > 0 {
		kept := make([]map[string]any, 0, len(s.raw))
		keptRows := make([]*rows.Row, 0, len(s.rows))
		for i, r := range s.rows {
			if r.Selected {
				n++
				continue
			}
			r.RowNum = len(kept)
			for _, c := range r.Cells {
				c.I = r.RowNum
			}
			kept = append(kept, s.raw[i])
			keptRows = append(keptRows, r)
		}
		s.raw, s.rows = kept, keptRows
		clear(s.selectedKeys)
		s.runLocked(stageFilter, e)
		e.setSelected([]any{})
	}
	s.mu.Unlock()
	s.publish(e)
	return n
}

// DoubleClickRow announces the key of the view row at i. Nothing is published
// when no key column is designated or the row is a group header.
func (s *Service) DoubleClickRow(i int) {
	e := &emission{}
	s.mu.Lock()
	if s.keyColumn >= 0 && i >= 0 && i < len(s.view) && !s.view[i].HasHeader() {
		e.doubleClick = append(e.doubleClick, s.view[i].Key)
	}
	s.mu.Unlock()
	s.publish(e)
}

// Fields returns the column fields in render order.
func (s *Service) Fields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fields)
}
