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
	"context"
	"fmt"
	"slices"

	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/query"
)

// requestLocked stamps a new external request and queues it for publication.
// It becomes the request RequestExternal sends.
func (s *Service) requestLocked(e *emission) {
	s.seq++
	info := query.ExternalInfo{
		Seq:  s.seq,
		Page: s.page,
	}
	for _, col := range s.cols {
		if col.Visible && col.HasFilters() {
			if info.Filters == nil {
				info.Filters = make(map[string][]columns.FilterInfo)
			}
			info.Filters[col.Field] = slices.Clone(col.Filters)
		}
	}
	if s.sort != nil {
		sort := *s.sort
		info.Sort = &sort
	}
	s.pending = &info
	out := info.Clone()
	e.external = &out
}

// Busy reports whether an external call is in flight.
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// PendingRequest returns the latest external request.
func (s *Service) PendingRequest() (query.ExternalInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return query.ExternalInfo{}, false
	}
	return s.pending.Clone(), true
}

// RequestExternal sends the latest external request through the configured
// call and applies the answer. The busy flag is raised for the duration of
// the call. Failures clear the busy flag, are logged and published on Alerts.
// An answer overtaken by a newer applied answer is discarded.
func (s *Service) RequestExternal(ctx context.Context) error {
	s.mu.Lock()
	call := s.external
	if call == nil {
		s.mu.Unlock()
		return ErrNoExternalCall
	}
	if s.pending == nil {
		s.requestLocked(&emission{})
	}
	info := s.pending.Clone()
	s.inflight++
	nowBusy := s.inflight == 1
	s.mu.Unlock()

	if nowBusy {
		s.BusyChanged.Publish(true)
	}
	data, err := call(ctx, info)

	e := &emission{}
	s.mu.Lock()
	s.inflight--
	idle := s.inflight == 0
	if err != nil {
		msg := fmt.Sprintf("loading data failed: %v", err)
		s.log.Error("external data call failed", "seq", info.Seq, "error", err)
		e.alerts = append(e.alerts, msg)
		err = fmt.Errorf("%w: request %d: %w", ErrExternalRequest, info.Seq, err)
	} else if !s.applyLocked(info.Seq, data, e) {
		err = fmt.Errorf("%w: request %d", ErrStaleExternal, info.Seq)
	}
	s.mu.Unlock()

	s.publish(e)
	if idle {
		s.BusyChanged.Publish(false)
	}
	return err
}

// ApplyExternalData installs data fetched by the host for request seq. It
// returns false when a newer answer was already applied.
func (s *Service) ApplyExternalData(seq uint64, data query.ExternalData) bool {
	e := &emission{}
	s.mu.Lock()
	ok := s.applyLocked(seq, data, e)
	s.mu.Unlock()
	s.publish(e)
	return ok
}

func (s *Service) applyLocked(seq uint64, data query.ExternalData, e *emission) bool {
	if seq < s.applied {
		s.log.Debug("dropping stale external data", "seq", seq, "applied", s.applied)
		return false
	}
	s.applied = seq
	s.raw = data.Data
	s.materialiseLocked()

	if s.cfg.ExternalPaging {
		switch {
		case data.Page != nil:
			pageSize := s.page.PageSize
			s.page = *data.Page
			if s.page.PageSize == 0 {
				s.page.PageSize = pageSize
			}
			if s.page.NumPages <= 0 {
				s.page.Recompute()
			}
		default:
			s.page.Page = 0
			s.page.DataSize = len(data.Data)
			s.page.NumPages = 1
		}
	}
	s.runLocked(stageFilter, e)
	return true
}
