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

package memo

import (
	"fmt"
	"math"
)

// Cost is the estimated cost of an expression tree, split into the number of
// rows it moves, the processing it performs and the disk traffic it causes.
// Costs are compared lexicographically: rows dominate, cpu breaks row ties,
// io breaks cpu ties. Components within a small relative distance of each
// other count as equal so that float noise cannot flip a comparison.
type Cost struct {
	Rows float64
	CPU  float64
	IO   float64
}

// MaxCost is the maximum possible estimated cost. It is strictly greater
// than any other cost, including itself under Less.
var MaxCost = Cost{
	Rows: math.Inf(1),
	CPU:  math.Inf(1),
	IO:   math.Inf(1),
}

// costEpsilon is the relative distance under which two cost components are
// considered equal.
const costEpsilon = 1e-9

func costEq(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		// The relative tolerance is infinite here, which would swallow every
		// finite component. Unequal infinities never compare equal.
		return false
	}
	diff := math.Abs(a - b)
	return diff <= costEpsilon*math.Max(math.Abs(a), math.Abs(b))
}

// Less returns true if this cost is strictly lower than the given cost.
// Equal costs are not less than one another, so a ratchet that requires
// Less keeps its incumbent on ties.
func (c Cost) Less(other Cost) bool {
	if !costEq(c.Rows, other.Rows) {
		return c.Rows < other.Rows
	}
	if !costEq(c.CPU, other.CPU) {
		return c.CPU < other.CPU
	}
	if !costEq(c.IO, other.IO) {
		return c.IO < other.IO
	}
	return false
}

// Add adds the other cost to this cost, component-wise.
func (c *Cost) Add(other Cost) {
	c.Rows += other.Rows
	c.CPU += other.CPU
	c.IO += other.IO
}

func (c Cost) String() string {
	return fmt.Sprintf("rows=%.2f cpu=%.2f io=%.2f", c.Rows, c.CPU, c.IO)
}
