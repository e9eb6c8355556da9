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
	"sort"
	"sync"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/logger"
)

// Registry keeps the grids of a page by ID and links grids into groups whose
// members share filters.
type Registry struct {
	mu     sync.RWMutex
	grids  map[string]*Service
	groups map[string][]string
	log    logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		grids:  make(map[string]*Service),
		groups: make(map[string][]string),
		log:    logger.OrDefault(log),
	}
}

// Register adds or replaces the grid with the given ID.
func (r *Registry) Register(id string, s *Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grids[id] = s
}

func (r *Registry) Get(id string) (*Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.grids[id]
	return s, ok
}

// IDs returns the registered grid IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.grids))
	for id := range r.grids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegisterGroup adds a registered grid to a link group.
func (r *Registry) RegisterGroup(group, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.grids[id]; !ok {
		return fmt.Errorf("grid %q is not registered", id)
	}
	if !slices.Contains(r.groups[group], id) {
		r.groups[group] = append(r.groups[group], id)
	}
	return nil
}

// PushFilters applies filters on field to every other grid of the group that
// has that column. It returns the IDs of the grids updated.
func (r *Registry) PushFilters(group, fromID, field string, filters []columns.FilterInfo) []string {
	r.mu.RLock()
	var peers []*Service
	var ids []string
	for _, id := range r.groups[group] {
		if id != fromID {
			peers = append(peers, r.grids[id])
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	var updated []string
	for k, peer := range peers {
		if err := peer.SetFilters(field, filters); err != nil {
			r.log.Debug("linked grid lacks column", "grid", ids[k], "field", field)
			continue
		}
		updated = append(updated, ids[k])
	}
	return updated
}
