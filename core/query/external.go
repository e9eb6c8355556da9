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

package query

import (
	"context"

	"github.com/google/gridcore/core/columns"
)

// ExternalInfo is the request handed to the host when filtering, sorting or
// paging is delegated. Seq increases with every request a grid issues.
type ExternalInfo struct {
	Seq     uint64                          `json:"seq"`
	Filters map[string][]columns.FilterInfo `json:"filters,omitempty"`
	Sort    *columns.SortInfo               `json:"sort,omitempty"`
	Page    PageInfo                        `json:"page"`
}

// ExternalData is the host's answer. Page carries the total data size; a nil
// Page means the data is complete and fits on one page.
type ExternalData struct {
	Data []map[string]any `json:"data"`
	Page *PageInfo        `json:"page,omitempty"`
}

// ExternalDataCall fetches a page of data on behalf of a grid.
type ExternalDataCall func(ctx context.Context, info ExternalInfo) (ExternalData, error)

// Clone returns a copy that shares no slices with info.
func (info ExternalInfo) Clone() ExternalInfo {
	out := info
	if info.Filters != nil {
		out.Filters = make(map[string][]columns.FilterInfo, len(info.Filters))
		for k, v := range info.Filters {
			out.Filters[k] = append([]columns.FilterInfo(nil), v...)
		}
	}
	if info.Sort != nil {
		s := *info.Sort
		out.Sort = &s
	}
	return out
}
