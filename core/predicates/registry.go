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

// Package predicates supplies the default filter predicates and sort
// comparators for each column data type. Columns may override either function;
// the registry is only consulted when they do not.
package predicates

import (
	"sync"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/logger"
)

// Strategy is the filter/sort pair registered for a data type.
type Strategy struct {
	Filter columns.FilterFunc
	Sort   columns.SortFunc
}

type Registry struct {
	mu         sync.RWMutex
	strategies map[columns.DataType]Strategy
	log        logger.Logger
}

// NewRegistry returns a registry preloaded with the built-in data types.
func NewRegistry(log logger.Logger) *Registry {
	r := &Registry{
		strategies: make(map[columns.DataType]Strategy),
		log:        logger.OrDefault(log),
	}
	r.Register(columns.TypeString, Strategy{Filter: StringFilter, Sort: StringSort})
	r.Register(columns.TypeNumber, Strategy{Filter: NumberFilter, Sort: NumberSort})
	r.Register(columns.TypeChoice, Strategy{Filter: ChoiceFilter, Sort: ChoiceSort})
	r.Register(columns.TypeDateISO8601, Strategy{Filter: DateISOFilter, Sort: StringSort})
	r.Register(columns.TypeDateMs, Strategy{Filter: DateMsFilter, Sort: NumberSort})
	return r
}

// Register adds or replaces the strategy for a data type. A nil function in s
// leaves the corresponding default of an unknown type in place.
func (r *Registry) Register(t columns.DataType, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[t] = s
}

func (r *Registry) Lookup(t columns.DataType) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[t]
	return s, ok
}

// FilterFunc returns the column's override, the registered filter for its data
// type, or PassAll.
func (r *Registry) FilterFunc(col *columns.Column) columns.FilterFunc {
	if col.FilterFunc != nil {
		return col.FilterFunc
	}
	if s, ok := r.Lookup(col.DataType); ok && s.Filter != nil {
		return s.Filter
	}
	return PassAll
}

// SortFunc returns the column's override, the registered comparator for its
// data type, or Unsorted. Falling back to Unsorted is logged.
func (r *Registry) SortFunc(col *columns.Column) columns.SortFunc {
	if col.SortFunc != nil {
		return col.SortFunc
	}
	if s, ok := r.Lookup(col.DataType); ok && s.Sort != nil {
		return s.Sort
	}
	r.log.Warn("no comparator for data type, rows keep their order", "field", col.Field, "dataType", string(col.DataType))
	return Unsorted
}

// Resolve installs the default functions on every column lacking an override.
func (r *Registry) Resolve(cols []*columns.Column) {
	for _, col := range cols {
		col.FilterFunc = r.FilterFunc(col)
		col.SortFunc = r.SortFunc(col)
	}
}

// PassAll is the filter of unrecognised data types.
func PassAll(any, []columns.FilterInfo, *columns.Column) bool {
	return true
}

// Unsorted is the comparator of unrecognised data types.
func Unsorted(any, any, columns.SortInfo, *columns.Column) int {
	return 0
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default is the process-wide registry used by grids constructed without one.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}
