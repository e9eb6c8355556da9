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

package demo

import (
	"time"
)

// Demo data size - easily modifiable
const (
	NUM_PEOPLE          = 500
	NUM_EXTERNAL_PEOPLE = 10_000
)

var firstNames = []string{
	"Ann", "Bob", "Cid", "Dana", "Eli", "Fay", "Gus", "Hana", "Ivo", "Jo",
	"Kai", "Lea", "Max", "Nia", "Oto", "Pia", "Quinn", "Rui", "Sol", "Tea",
}

var lastNames = []string{
	"Berg", "Costa", "Dahl", "Evans", "Fischer", "Garcia", "Hansen", "Ito",
	"Jensen", "Kowal", "Lopez", "Moreau", "Novak", "Olsen", "Petit",
}

// epoch anchors the generated update timestamps so runs are reproducible
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// GeneratePeople creates n deterministic person records with the fields of
// the people grid: id, first, last, gender, born, updated and score.
func GeneratePeople(n int) []map[string]any {
	people := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		// Coprime strides spread names and dates without a random source
		born := time.Date(1950+(i*7)%55, time.Month(1+(i*5)%12), 1+(i*11)%28, 0, 0, 0, 0, time.UTC)
		updated := epoch.Add(time.Duration(i*37%(24*365)) * time.Hour)

		p := map[string]any{
			"id":      float64(i + 1),
			"first":   firstNames[i%len(firstNames)],
			"last":    lastNames[(i*3)%len(lastNames)],
			"gender":  1 + i%3,
			"born":    born.Format("2006-01-02"),
			"updated": float64(updated.UnixMilli()),
			"score":   float64((i*13)%1000) / 10,
		}
		// Every tenth person has no score to exercise missing values
		if i%10 == 9 {
			p["score"] = nil
		}
		people = append(people, p)
	}
	return people
}
