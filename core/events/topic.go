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

// Package events provides typed publish/subscribe topics. Each grid emission point
// (view changed, page changed, selection changed, external data requested, ...) is
// its own Topic so consumers subscribe only to what they render.
package events

import "sync"

// Topic delivers values of one type to its subscribers in subscription order.
// Listeners run on the publishing goroutine, outside the topic lock, so a listener
// may subscribe, unsubscribe or publish again.
type Topic[T any] struct {
	mu     sync.Mutex
	nextID int
	ids    []int
	subs   map[int]func(T)
}

// Subscribe registers fn and returns the function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[int]func(T))
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.ids = append(t.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

func (t *Topic[T]) remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, id)
	for i, v := range t.ids {
		if v == id {
			t.ids = append(t.ids[:i], t.ids[i+1:]...)
			break
		}
	}
}

// Publish sends v to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	listeners := make([]func(T), 0, len(t.ids))
	for _, id := range t.ids {
		listeners = append(listeners, t.subs[id])
	}
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
