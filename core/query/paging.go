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

import "fmt"

// Page movements accepted by PageInfo.Move.
const (
	PageFirst = -2
	PagePrev  = -1
	PageNext  = 1
	PageLast  = 2
)

// PageInfo is the paging state of a grid. A PageSize of zero or less shows all
// rows on a single page.
type PageInfo struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	DataSize int `json:"dataSize"`
	NumPages int `json:"numPages"`
}

func NewPageInfo(pageSize int) PageInfo {
	p := PageInfo{PageSize: pageSize}
	p.Recompute()
	return p
}

// Paged reports whether paging is active.
func (p PageInfo) Paged() bool {
	return p.PageSize > 0
}

// Recompute derives NumPages from DataSize and PageSize and clamps Page.
func (p *PageInfo) Recompute() {
	p.NumPages = 1
	if p.PageSize > 0 && p.DataSize > 0 {
		p.NumPages = (p.DataSize + p.PageSize - 1) / p.PageSize
	}
	p.Page = p.clamp(p.Page)
}

func (p PageInfo) clamp(page int) int {
	return max(0, min(page, p.NumPages-1))
}

// Move applies one of the Page* movements and reports whether the page index
// changed. Other modes are ignored.
func (p *PageInfo) Move(mode int) bool {
	target := p.Page
	switch mode {
	case PageFirst:
		target = 0
	case PagePrev:
		target = p.Page - 1
	case PageNext:
		target = p.Page + 1
	case PageLast:
		target = p.NumPages - 1
	}
	target = p.clamp(target)
	changed := target != p.Page
	p.Page = target
	return changed
}

// Bounds returns the half-open slice range of the current page for n rows.
func (p PageInfo) Bounds(n int) (start, end int) {
	if !p.Paged() {
		return 0, n
	}
	start = min(p.Page*p.PageSize, n)
	end = min(start+p.PageSize, n)
	return start, end
}

func (p PageInfo) String() string {
	if !p.Paged() {
		return fmt.Sprintf("%d rows", p.DataSize)
	}
	return fmt.Sprintf("page %d of %d (%d rows)", p.Page+1, p.NumPages, p.DataSize)
}
