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

package xform

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/memo"
)

// Coster estimates the incremental cost of a single candidate expression,
// excluding the cost of its children; the search engine adds child costs
// itself. The same interface costs regular members and enforcers.
//
// The cost functions of one compilation are fixed: comparisons across
// candidates are only meaningful when every candidate was costed by the
// same Coster.
type Coster interface {
	// ComputeCost returns the candidate's own incremental cost. The
	// candidate's children have been chosen, but its total cost has not been
	// set yet.
	ComputeCost(candidate *memo.BestExpr) memo.Cost
}

const (
	// cpuCostFactor is the cost of processing one row through one operator.
	cpuCostFactor = 0.01

	// seqIOCostFactor is the cost of reading one row sequentially from disk.
	seqIOCostFactor = 1.0

	// networkCostFactor is the cost of moving one row between nodes. Moving a
	// row is much more expensive than processing it in place, which is what
	// makes the search place exchanges below row-reducing operators.
	networkCostFactor = 0.25

	// hashBuildCostFactor is the extra per-row cost of building a hash table
	// on the right input of a hash join.
	hashBuildCostFactor = 0.75
)

// DefaultCoster estimates costs from the row count statistics derived for
// each group.
type DefaultCoster struct {
	mem *memo.Memo
}

var _ Coster = (*DefaultCoster)(nil)

// NewDefaultCoster constructs the default cost model over the given memo.
func NewDefaultCoster(mem *memo.Memo) *DefaultCoster {
	return &DefaultCoster{mem: mem}
}

// ComputeCost is part of the Coster interface.
func (c *DefaultCoster) ComputeCost(candidate *memo.BestExpr) memo.Cost {
	rows := c.mem.GroupProperties(candidate.Group()).Stats.RowCount
	switch candidate.Operator() {
	case opt.PhysicalScanOp:
		return memo.Cost{Rows: rows, CPU: rows * cpuCostFactor, IO: rows * seqIOCostFactor}

	case opt.PhysicalSelectOp:
		return memo.Cost{Rows: rows, CPU: c.inputRows(candidate, 0) * cpuCostFactor}

	case opt.PhysicalProjectOp:
		return memo.Cost{Rows: rows, CPU: rows * cpuCostFactor}

	case opt.HashJoinOp:
		left := c.inputRows(candidate, 0)
		right := c.inputRows(candidate, 1)
		cpu := (left + right*(1+hashBuildCostFactor) + rows) * cpuCostFactor
		return memo.Cost{Rows: rows, CPU: cpu}

	case opt.MergeJoinOp:
		left := c.inputRows(candidate, 0)
		right := c.inputRows(candidate, 1)
		return memo.Cost{Rows: rows, CPU: (left + right + rows) * cpuCostFactor}

	case opt.HashGroupByOp:
		return memo.Cost{Rows: rows, CPU: 2 * c.inputRows(candidate, 0) * cpuCostFactor}

	case opt.PhysicalSortOp:
		n := math.Max(rows, 1)
		return memo.Cost{Rows: rows, CPU: n * math.Log2(n+1) * cpuCostFactor}

	case opt.ExchangeOp:
		return memo.Cost{Rows: rows, CPU: rows * networkCostFactor}
	}

	if candidate.Operator().Convention() != opt.ConventionPhysical {
		// Logical members are costed by row count alone; the logical phase
		// only uses cost to pick the canonical shape.
		return memo.Cost{Rows: rows, CPU: c.totalInputRows(candidate) * cpuCostFactor}
	}
	panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(candidate.Operator())))
}

func (c *DefaultCoster) inputRows(candidate *memo.BestExpr, nth int) float64 {
	return c.mem.GroupProperties(candidate.Child(nth).Group()).Stats.RowCount
}

func (c *DefaultCoster) totalInputRows(candidate *memo.BestExpr) float64 {
	var total float64
	for i, n := 0, candidate.ChildCount(); i < n; i++ {
		total += c.inputRows(candidate, i)
	}
	return total
}
