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

package predicates

import (
	"github.com/google/gridcore/core/columns"
	"github.com/google/gridcore/core/formatting"
)

// NumberSort orders numerically. Missing values sort last in both directions.
func NumberSort(a, b any, sort columns.SortInfo, _ *columns.Column) int {
	fa, aOK := formatting.ToFloat(a)
	fb, bOK := formatting.ToFloat(b)
	if c, missing := compareMissing(aOK, bOK); missing {
		return c
	}
	c := compareFloat64s(fa, fb)
	if !sort.Asc {
		c = -c
	}
	return c
}

// StringSort orders case-insensitively. The empty string is the smallest value,
// so it comes first ascending and last descending.
func StringSort(a, b any, sort columns.SortInfo, _ *columns.Column) int {
	c := compareStrings(fold(a), fold(b))
	if !sort.Asc {
		c = -c
	}
	return c
}

// ChoiceSort orders by display label. Values without a label sort as empty.
func ChoiceSort(a, b any, sort columns.SortInfo, col *columns.Column) int {
	var la, lb string
	if col != nil {
		la, _ = col.Choices.Display(a)
		lb, _ = col.Choices.Display(b)
	}
	return StringSort(la, lb, sort, col)
}
