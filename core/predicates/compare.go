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
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/google/gridcore/core/columns"
)

// compareFloat64s compares two float64 values. NaN never reaches it, missing
// values are filtered out by the callers.
func compareFloat64s(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// compareMissing orders a present value before a missing one.
// ok is false when at least one side is missing.
func compareMissing(aOK, bOK bool) (int, bool) {
	switch {
	case aOK && bOK:
		return 0, false
	case !aOK && !bOK:
		return 0, true
	case !aOK:
		return 1, true
	default:
		return -1, true
	}
}

// fold returns the case-folded text of v; nil folds to "".
func fold(v any) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	// A Caser keeps state, one per call.
	return cases.Fold().String(s)
}

func compareStrings(a, b string) int {
	return strings.Compare(a, b)
}

// matches applies op given the comparison of the value against the low bound
// (c) and, for the range operators, against the high bound (cHi).
// Unknown operators match.
func matches(op columns.Operator, c, cHi int) bool {
	switch op {
	case columns.OpEqual, "":
		return c == 0
	case columns.OpLessOrEqual:
		return c <= 0
	case columns.OpLessThan:
		return c < 0
	case columns.OpGreaterOrEqual:
		return c >= 0
	case columns.OpGreaterThan:
		return c > 0
	case columns.OpBetween:
		return c >= 0 && cHi <= 0
	case columns.OpOutside:
		return c < 0 || cHi > 0
	default:
		return true
	}
}

func isRange(op columns.Operator) bool {
	return op == columns.OpBetween || op == columns.OpOutside
}

func floorDiv(v, d float64) float64 {
	return math.Floor(v / d)
}
