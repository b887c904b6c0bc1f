// Copyright 2024 The Silo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package util

import "sort"

// FastIntMap is a replacement for map[int]int which is more efficient when
// the number of entries is small. The zero value is a usable, empty map.
// Keys and values must be non-negative.
type FastIntMap struct {
	small [fastIntMapSize]fastIntMapEntry
	used  int
	// large is only allocated when the small array overflows.
	large map[int]int
}

const fastIntMapSize = 4

type fastIntMapEntry struct {
	key, val int
}

// Set maps a key to the given value.
func (m *FastIntMap) Set(key, val int) {
	if m.large != nil {
		m.large[key] = val
		return
	}
	for i := 0; i < m.used; i++ {
		if m.small[i].key == key {
			m.small[i].val = val
			return
		}
	}
	if m.used < fastIntMapSize {
		m.small[m.used] = fastIntMapEntry{key: key, val: val}
		m.used++
		return
	}
	m.large = make(map[int]int, m.used+1)
	for i := 0; i < m.used; i++ {
		m.large[m.small[i].key] = m.small[i].val
	}
	m.large[key] = val
}

// Unset unmaps the given key.
func (m *FastIntMap) Unset(key int) {
	if m.large != nil {
		delete(m.large, key)
		return
	}
	for i := 0; i < m.used; i++ {
		if m.small[i].key == key {
			m.small[i] = m.small[m.used-1]
			m.used--
			return
		}
	}
}

// Get returns the current value mapped to key, or ok=false if the key is
// unmapped.
func (m FastIntMap) Get(key int) (value int, ok bool) {
	if m.large != nil {
		value, ok = m.large[key]
		return value, ok
	}
	for i := 0; i < m.used; i++ {
		if m.small[i].key == key {
			return m.small[i].val, true
		}
	}
	return 0, false
}

// Len returns the number of keys in the map.
func (m FastIntMap) Len() int {
	if m.large != nil {
		return len(m.large)
	}
	return m.used
}

// Empty returns true if the map is empty.
func (m FastIntMap) Empty() bool {
	return m.Len() == 0
}

// ForEach calls the given function for each key/value pair in the map, in
// increasing key order.
func (m FastIntMap) ForEach(fn func(key, val int)) {
	if m.large != nil {
		keys := make([]int, 0, len(m.large))
		for k := range m.large {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			fn(k, m.large[k])
		}
		return
	}
	keys := make([]int, 0, fastIntMapSize)
	for i := 0; i < m.used; i++ {
		keys = append(keys, m.small[i].key)
	}
	sort.Ints(keys)
	for _, k := range keys {
		v, _ := m.Get(k)
		fn(k, v)
	}
}
