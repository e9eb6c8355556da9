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

package formatting

import (
	"fmt"
	"strings"
)

// momentTokens maps the date tokens column configurations use ("MM/DD/YYYY")
// to Go reference layout elements. Longer tokens come first so that "YYYY" is
// matched before "YY".
var momentTokens = []struct {
	token  string
	layout string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"DD", "02"},
	{"D", "2"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"HH", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"A", "PM"},
	{"a", "pm"},
	{"Z", "-07:00"},
}

// ConvertLayout turns a moment-style format string into a Go time layout.
// Letters that are not part of a known token make the format malformed.
func ConvertLayout(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: empty date format", ErrMalformedFormat)
	}
	var sb strings.Builder
	tokens := 0
	for i := 0; i < len(format); {
		matched := false
		for _, t := range momentTokens {
			if strings.HasPrefix(format[i:], t.token) {
				sb.WriteString(t.layout)
				i += len(t.token)
				tokens++
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		c := format[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return "", fmt.Errorf("%w: unknown token %q in %q", ErrMalformedFormat, string(c), format)
		}
		sb.WriteByte(c)
		i++
	}
	if tokens == 0 {
		return "", fmt.Errorf("%w: no date tokens in %q", ErrMalformedFormat, format)
	}
	return sb.String(), nil
}
