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

package columns

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

var ErrNoChoices = errors.New("no choices")

// Choice is one entry of a choice column's dictionary.
type Choice struct {
	Value   any
	Display string
}

// Choices maps stored values to display labels, keeping insertion order.
// Values are keyed by their fmt.Sprint form so that 1 from YAML and 1.0 from
// JSON resolve to the same entry.
type Choices struct {
	order   []string
	entries map[string]Choice
}

func NewChoices(cs ...Choice) *Choices {
	c := &Choices{entries: make(map[string]Choice, len(cs))}
	for _, ch := range cs {
		c.Add(ch.Value, ch.Display)
	}
	return c
}

func choiceKey(v any) string {
	return fmt.Sprint(v)
}

// Add inserts or replaces the label for value.
func (c *Choices) Add(value any, display string) {
	k := choiceKey(value)
	if _, ok := c.entries[k]; !ok {
		c.order = append(c.order, k)
	}
	c.entries[k] = Choice{Value: value, Display: display}
}

// Display returns the label for value.
func (c *Choices) Display(value any) (string, bool) {
	if c == nil || value == nil {
		return "", false
	}
	ch, ok := c.entries[choiceKey(value)]
	return ch.Display, ok
}

// Lookup finds the stored value whose label is display.
func (c *Choices) Lookup(display string) (any, bool) {
	if c == nil {
		return nil, false
	}
	for _, k := range c.order {
		if ch := c.entries[k]; ch.Display == display {
			return ch.Value, true
		}
	}
	return nil, false
}

// Contains reports whether value has an entry.
func (c *Choices) Contains(value any) bool {
	_, ok := c.Display(value)
	return ok
}

func (c *Choices) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// List returns the entries in insertion order.
func (c *Choices) List() []Choice {
	if c == nil {
		return nil
	}
	out := make([]Choice, len(c.order))
	for i, k := range c.order {
		out[i] = c.entries[k]
	}
	return out
}

// ChoicesFromRecords builds choices from records such as
// {value: 1, display: Female}, reading the given keys.
func ChoicesFromRecords(records []map[string]any, valueKey, displayKey string) (*Choices, error) {
	c := NewChoices()
	for i, r := range records {
		v, ok := r[valueKey]
		if !ok {
			return nil, fmt.Errorf("choice %d has no %q key", i, valueKey)
		}
		d, ok := r[displayKey]
		if !ok {
			return nil, fmt.Errorf("choice %d has no %q key", i, displayKey)
		}
		c.Add(v, fmt.Sprint(d))
	}
	return c, nil
}

// LoadChoices downloads a JSON or YAML list of choice records from the column's
// ChoiceURL and installs it.
func LoadChoices(ctx context.Context, fs afs.Service, col *Column) error {
	if col.ChoiceURL == "" {
		return fmt.Errorf("%w: column %q has no choice URL", ErrNoChoices, col.Field)
	}
	data, err := fs.DownloadWithURL(ctx, col.ChoiceURL)
	if err != nil {
		return fmt.Errorf("downloading choices for %q: %w", col.Field, err)
	}
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding choices for %q: %w", col.Field, err)
	}
	choices, err := ChoicesFromRecords(records, col.ChoiceValue, col.ChoiceDisplay)
	if err != nil {
		return fmt.Errorf("choices for %q: %w", col.Field, err)
	}
	if choices.Len() == 0 {
		return fmt.Errorf("%w: %s returned an empty list", ErrNoChoices, col.ChoiceURL)
	}
	col.Choices = choices
	return nil
}
