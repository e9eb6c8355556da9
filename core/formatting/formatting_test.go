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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertLayout(t *testing.T) {
	tcs := []struct {
		in       string
		expected string
		wantErr  bool
	}{
		{in: "MM/DD/YYYY", expected: "01/02/2006"},
		{in: "YYYY-MM-DD", expected: "2006-01-02"},
		{in: "DD MMM YY HH:mm:ss", expected: "02 Jan 06 15:04:05"},
		{in: "", wantErr: true},
		{in: "//", wantErr: true},
		{in: "QQ/YYYY", wantErr: true},
	}
	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			layout, err := ConvertLayout(tc.in)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrMalformedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, layout)
		})
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New("roman", "")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	fp, err := New("", "")
	require.NoError(t, err)
	assert.IsType(t, Identity{}, fp)
}

func TestIdentity(t *testing.T) {
	s, err := Identity{}.Format(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = Identity{}.Format(12)
	require.NoError(t, err)
	assert.Equal(t, "12", s)

	v, err := Identity{}.Parse("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestNumber(t *testing.T) {
	fp, err := New(KindNumber, "%.2f")
	require.NoError(t, err)

	s, err := fp.Format(3)
	require.NoError(t, err)
	assert.Equal(t, "3.00", s)

	_, err = fp.Format("abc")
	assert.True(t, errors.Is(err, ErrParse))

	v, err := fp.Parse(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = fp.Parse("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = fp.Parse("two")
	assert.Error(t, err)

	_, err = New(KindNumber, "dollars")
	assert.True(t, errors.Is(err, ErrMalformedFormat))
}

func TestDateISO8601(t *testing.T) {
	fp, err := New(KindDateISO8601, "")
	require.NoError(t, err)

	s, err := fp.Format("2021-03-04")
	require.NoError(t, err)
	assert.Equal(t, "03/04/2021", s)

	s, err = fp.Format("2021-03-04T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "03/04/2021", s)

	v, err := fp.Parse("12/31/1999")
	require.NoError(t, err)
	assert.Equal(t, "1999-12-31", v)

	_, err = fp.Parse("1/2/1999")
	assert.Error(t, err)

	_, err = fp.Format("yesterday")
	assert.Error(t, err)
}

func TestDateMs(t *testing.T) {
	fp, err := New(KindDateMs, "YYYY-MM-DD")
	require.NoError(t, err)

	ms := time.Date(2020, 2, 29, 23, 30, 0, 0, time.UTC).UnixMilli()
	s, err := fp.Format(ms)
	require.NoError(t, err)
	assert.Equal(t, "2020-02-29", s)

	s, err = fp.Format(float64(ms))
	require.NoError(t, err)
	assert.Equal(t, "2020-02-29", s)

	v, err := fp.Parse("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC).UnixMilli(), v)
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat(int64(4))
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	f, ok = ToFloat(" 1e3 ")
	assert.True(t, ok)
	assert.Equal(t, 1000.0, f)

	_, ok = ToFloat("")
	assert.False(t, ok)
	_, ok = ToFloat(nil)
	assert.False(t, ok)
	_, ok = ToFloat(math.NaN())
	assert.False(t, ok)
	_, ok = ToFloat(true)
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	Register("upper", func(string) (FormatterParser, error) { return Identity{}, nil })
	fp, err := New("upper", "")
	require.NoError(t, err)
	assert.NotNil(t, fp)
}
