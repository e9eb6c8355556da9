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

package rows

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("gridcore-row-fingerprint-key-v01")

// Fingerprint hashes a sequence of values into a synthetic row key. It is used
// when no key column is designated, so that identical records map to the same
// key across pipeline re-runs.
func Fingerprint(values []any) (uint64, error) {
	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		// The type prefix keeps 1 and "1" apart; 0x1f separates fields.
		if _, err := fmt.Fprintf(h, "%T:%v\x1f", v, v); err != nil {
			return 0, err
		}
	}
	return h.Sum64(), nil
}

// AssignKey sets r.Key from the key column, or a fingerprint of all cells when
// keyColumn is negative.
func AssignKey(r *Row, keyColumn int) error {
	if keyColumn >= 0 {
		r.Key = r.Value(keyColumn)
		return nil
	}
	values := make([]any, len(r.Cells))
	for j, c := range r.Cells {
		values[j] = c.Value
	}
	fp, err := Fingerprint(values)
	if err != nil {
		return err
	}
	r.Key = fp
	return nil
}
