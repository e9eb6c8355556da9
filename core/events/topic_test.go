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

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicOrderAndUnsubscribe(t *testing.T) {
	var topic Topic[int]
	var got []string

	unsubA := topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })
	assert.Equal(t, 2, topic.Len())

	topic.Publish(1)
	assert.Equal(t, []string{"a", "b"}, got)

	unsubA()
	unsubA()
	assert.Equal(t, 1, topic.Len())

	got = nil
	topic.Publish(2)
	assert.Equal(t, []string{"b"}, got)
}

func TestTopicPublishFromListener(t *testing.T) {
	var topic Topic[int]
	var seen []int
	topic.Subscribe(func(v int) {
		seen = append(seen, v)
		if v < 3 {
			topic.Publish(v + 1)
		}
	})
	topic.Publish(1)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestTopicZeroValue(t *testing.T) {
	var topic Topic[string]
	assert.NotPanics(t, func() { topic.Publish("nobody listening") })
	assert.Equal(t, 0, topic.Len())
}
