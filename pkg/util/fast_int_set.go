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

import (
	"bytes"
	"fmt"
	"math/bits"
	"sort"

	"golang.org/x/tools/container/intsets"
)

// smallCutoff is the size of the small bitmap. Values smaller than this are
// stored in the bitmap; an allocated sparse set is used only as a fallback.
const smallCutoff = 64

// FastIntSet keeps track of a set of integers. It is optimized for cases in
// which all values are in the range [0, smallCutoff), requiring no allocation
// in that case. The zero value is a usable, empty set. FastIntSet is not
// safe for concurrent use.
type FastIntSet struct {
	// small is a bitmap for values in [0, smallCutoff).
	small uint64
	// large is only allocated if a value outside the small range is added.
	large *intsets.Sparse
}

// Add adds a value to the set. No-op if the value is already in the set.
func (s *FastIntSet) Add(i int) {
	if i >= 0 && i < smallCutoff && s.large == nil {
		s.small |= 1 << uint64(i)
		return
	}
	if s.large == nil {
		s.large = s.toLarge()
		s.small = 0
	}
	s.large.Insert(i)
}

// AddRange adds values 'from' up to 'to' (inclusively) to the set.
func (s *FastIntSet) AddRange(from, to int) {
	if to < from {
		panic("invalid range when adding range to FastIntSet")
	}
	if s.large == nil && from >= 0 && to < smallCutoff {
		s.small |= (^uint64(0) >> uint64(63-(to-from))) << uint64(from)
		return
	}
	for i := from; i <= to; i++ {
		s.Add(i)
	}
}

// Remove removes a value from the set. No-op if the value is not in the set.
func (s *FastIntSet) Remove(i int) {
	if s.large != nil {
		s.large.Remove(i)
		return
	}
	if i >= 0 && i < smallCutoff {
		s.small &^= 1 << uint64(i)
	}
}

// Contains returns true if the set contains the value.
func (s FastIntSet) Contains(i int) bool {
	if s.large != nil {
		return s.large.Has(i)
	}
	return i >= 0 && i < smallCutoff && (s.small&(1<<uint64(i))) != 0
}

// Empty returns true if the set is empty.
func (s FastIntSet) Empty() bool {
	return s.small == 0 && (s.large == nil || s.large.IsEmpty())
}

// Len returns the number of the elements in the set.
func (s FastIntSet) Len() int {
	if s.large != nil {
		return s.large.Len()
	}
	return bitCount(s.small)
}

// Next returns the first value in the set which is >= startVal. If there is no
// such value, the second return value is false.
func (s FastIntSet) Next(startVal int) (int, bool) {
	if s.large != nil {
		res := s.large.LowerBound(startVal)
		return res, res != intsets.MaxInt
	}
	if startVal < 0 {
		startVal = 0
	}
	if startVal < smallCutoff {
		if ntz := trailingZeroes(s.small >> uint64(startVal)); ntz < smallCutoff {
			return startVal + ntz, true
		}
	}
	return intsets.MaxInt, false
}

// ForEach calls a function for each value in the set (in increasing order).
func (s FastIntSet) ForEach(f func(i int)) {
	if s.large != nil {
		for x := s.large.Min(); x != intsets.MaxInt; x = s.large.LowerBound(x + 1) {
			f(x)
		}
		return
	}
	for v := s.small; v != 0; {
		i := trailingZeroes(v)
		f(i)
		v &^= 1 << uint64(i)
	}
}

// Ordered returns a slice with all the integers in the set, in increasing
// order.
func (s FastIntSet) Ordered() []int {
	if s.Empty() {
		return nil
	}
	result := make([]int, 0, s.Len())
	s.ForEach(func(i int) {
		result = append(result, i)
	})
	sort.Ints(result)
	return result
}

// Copy returns a copy of s which can be modified independently.
func (s FastIntSet) Copy() FastIntSet {
	var c FastIntSet
	c.small = s.small
	if s.large != nil {
		c.large = new(intsets.Sparse)
		c.large.Copy(s.large)
	}
	return c
}

// CopyFrom sets the receiver to a copy of other, which can then be modified
// independently.
func (s *FastIntSet) CopyFrom(other FastIntSet) {
	*s = other.Copy()
}

// UnionWith adds all the elements from rhs to this set.
func (s *FastIntSet) UnionWith(rhs FastIntSet) {
	if s.large == nil && rhs.large == nil {
		s.small |= rhs.small
		return
	}
	rhs.ForEach(func(i int) {
		s.Add(i)
	})
}

// Union returns the union of s and rhs as a new set.
func (s FastIntSet) Union(rhs FastIntSet) FastIntSet {
	r := s.Copy()
	r.UnionWith(rhs)
	return r
}

// IntersectionWith removes any elements not in rhs from this set.
func (s *FastIntSet) IntersectionWith(rhs FastIntSet) {
	if s.large == nil && rhs.large == nil {
		s.small &= rhs.small
		return
	}
	s.ForEach(func(i int) {
		if !rhs.Contains(i) {
			s.Remove(i)
		}
	})
}

// Intersection returns the intersection of s and rhs as a new set.
func (s FastIntSet) Intersection(rhs FastIntSet) FastIntSet {
	r := s.Copy()
	r.IntersectionWith(rhs)
	return r
}

// Intersects returns true if s has any elements in common with rhs.
func (s FastIntSet) Intersects(rhs FastIntSet) bool {
	if s.large == nil && rhs.large == nil {
		return (s.small & rhs.small) != 0
	}
	found := false
	s.ForEach(func(i int) {
		if rhs.Contains(i) {
			found = true
		}
	})
	return found
}

// DifferenceWith removes any elements in rhs from this set.
func (s *FastIntSet) DifferenceWith(rhs FastIntSet) {
	if s.large == nil && rhs.large == nil {
		s.small &^= rhs.small
		return
	}
	rhs.ForEach(func(i int) {
		s.Remove(i)
	})
}

// Difference returns the elements of s that are not in rhs as a new set.
func (s FastIntSet) Difference(rhs FastIntSet) FastIntSet {
	r := s.Copy()
	r.DifferenceWith(rhs)
	return r
}

// Equals returns true if the two sets are identical.
func (s FastIntSet) Equals(rhs FastIntSet) bool {
	if s.large == nil && rhs.large == nil {
		return s.small == rhs.small
	}
	if s.Len() != rhs.Len() {
		return false
	}
	equal := true
	s.ForEach(func(i int) {
		if !rhs.Contains(i) {
			equal = false
		}
	})
	return equal
}

// SubsetOf returns true if rhs contains all the elements in s.
func (s FastIntSet) SubsetOf(rhs FastIntSet) bool {
	if s.large == nil && rhs.large == nil {
		return (s.small & rhs.small) == s.small
	}
	subset := true
	s.ForEach(func(i int) {
		if !rhs.Contains(i) {
			subset = false
		}
	})
	return subset
}

// Shift generates a new set which contains elements i+delta for elements i in
// the original set.
func (s *FastIntSet) Shift(delta int) FastIntSet {
	var result FastIntSet
	s.ForEach(func(i int) {
		result.Add(i + delta)
	})
	return result
}

func (s FastIntSet) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	first := true
	for _, i := range s.Ordered() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%d", i)
	}
	buf.WriteByte(')')
	return buf.String()
}

func (s FastIntSet) toLarge() *intsets.Sparse {
	large := new(intsets.Sparse)
	for v := s.small; v != 0; {
		i := trailingZeroes(v)
		large.Insert(i)
		v &^= 1 << uint64(i)
	}
	return large
}

func bitCount(v uint64) int {
	return bits.OnesCount64(v)
}

func trailingZeroes(v uint64) int {
	return bits.TrailingZeros64(v)
}
