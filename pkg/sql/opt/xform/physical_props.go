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
	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/memo"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
)

// canProvidePhysicalProps returns true if the given member expression can
// satisfy the required traits itself, given suitable requirements on its
// children. Operators that merely pass rows through (select, project) can
// provide whatever their input provides, so they answer yes and push the
// requirement down via buildChildPhysicalProps. Operators that materialize
// their output on a single member (joins, aggregation) can only provide a
// singleton distribution. If no member can provide the requirement, the
// search falls back to enforcers.
func (o *Optimizer) canProvidePhysicalProps(e *memo.Expr, required *physical.Required) bool {
	op := e.Operator()
	if op.Convention() != required.Convention {
		return false
	}
	if required.Convention != opt.ConventionPhysical {
		// Logical targets carry no distribution or ordering requirement.
		return true
	}
	return o.canProvideDistribution(e, required.Distribution) &&
		o.canProvideOrdering(e, required.Ordering)
}

func (o *Optimizer) canProvideDistribution(e *memo.Expr, required physical.Distribution) bool {
	if required.Any() {
		return true
	}
	switch e.Operator() {
	case opt.PhysicalScanOp:
		return o.scanDistribution(e).Satisfies(required)

	case opt.PhysicalSelectOp, opt.PhysicalProjectOp, opt.PhysicalSortOp:
		// Pass-through: require the same distribution of the input.
		return true

	case opt.HashJoinOp, opt.MergeJoinOp, opt.HashGroupByOp:
		// These collect their inputs onto a single member.
		return physical.SingletonDist.Satisfies(required)
	}
	panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(e.Operator())))
}

func (o *Optimizer) canProvideOrdering(e *memo.Expr, required opt.Ordering) bool {
	if required.Empty() {
		return true
	}
	mem := o.mem
	switch e.Operator() {
	case opt.PhysicalScanOp, opt.HashJoinOp, opt.HashGroupByOp:
		return false

	case opt.PhysicalSelectOp:
		// Filtering preserves the input order.
		return true

	case opt.PhysicalProjectOp:
		// Projection preserves the input order as long as every ordering
		// column passes through unchanged.
		def := mem.ProjectDef(e.Private())
		passthrough := opt.ColSet{}
		for i := range def.Cols {
			if col := def.PassthroughCol(i); col != 0 {
				passthrough.Add(int(col))
			}
		}
		return required.ColSet().SubsetOf(passthrough)

	case opt.MergeJoinOp:
		return mem.MergeJoinDef(e.Private()).LeftOrd.Provides(required)

	case opt.PhysicalSortOp:
		return mem.SortDef(e.Private()).Ordering.Provides(required)
	}
	panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(e.Operator())))
}

// buildChildPhysicalProps returns the traits the given member expression
// requires of its nth child in order to itself deliver the required traits.
// It is only called after canProvidePhysicalProps answered yes.
func (o *Optimizer) buildChildPhysicalProps(
	e *memo.Expr, required *physical.Required, nth int,
) physical.Required {
	childReq := physical.Required{Convention: required.Convention}
	if required.Convention != opt.ConventionPhysical {
		return childReq
	}

	switch e.Operator() {
	case opt.PhysicalSelectOp:
		childReq.Distribution = required.Distribution
		childReq.Ordering = required.Ordering

	case opt.PhysicalProjectOp:
		// Passthrough projections keep column ids, so the requirement maps
		// through unchanged.
		childReq.Distribution = required.Distribution
		childReq.Ordering = required.Ordering

	case opt.PhysicalSortOp:
		childReq.Distribution = required.Distribution

	case opt.HashJoinOp, opt.HashGroupByOp:
		childReq.Distribution = physical.SingletonDist

	case opt.MergeJoinOp:
		def := o.mem.MergeJoinDef(e.Private())
		childReq.Distribution = physical.SingletonDist
		if nth == 0 {
			childReq.Ordering = def.LeftOrd
		} else {
			childReq.Ordering = def.RightOrd
		}

	default:
		panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(e.Operator())))
	}
	return childReq
}

// providedPhysicalProps returns the traits the member expression actually
// delivers, given the traits its chosen children deliver.
func (o *Optimizer) providedPhysicalProps(e *memo.Expr, children []memo.Provided) memo.Provided {
	if e.Operator().Convention() != opt.ConventionPhysical {
		return memo.Provided{}
	}
	mem := o.mem
	switch e.Operator() {
	case opt.PhysicalScanOp:
		return memo.Provided{Distribution: o.scanDistribution(e)}

	case opt.PhysicalSelectOp:
		return children[0]

	case opt.PhysicalProjectOp:
		def := mem.ProjectDef(e.Private())
		passthrough := opt.ColSet{}
		for i := range def.Cols {
			if col := def.PassthroughCol(i); col != 0 {
				passthrough.Add(int(col))
			}
		}
		provided := memo.Provided{Distribution: children[0].Distribution}
		if children[0].Ordering.ColSet().SubsetOf(passthrough) {
			provided.Ordering = children[0].Ordering
		}
		return provided

	case opt.HashJoinOp, opt.HashGroupByOp:
		return memo.Provided{Distribution: physical.SingletonDist}

	case opt.MergeJoinOp:
		def := mem.MergeJoinDef(e.Private())
		return memo.Provided{Distribution: physical.SingletonDist, Ordering: def.LeftOrd}

	case opt.PhysicalSortOp:
		def := mem.SortDef(e.Private())
		return memo.Provided{Distribution: children[0].Distribution, Ordering: def.Ordering}
	}
	panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(e.Operator())))
}

// scanDistribution returns the natural distribution of a scanned table:
// replicated tables deliver a replica on every member, partitioned tables
// deliver rows spread by their partition columns, everything else lives on a
// single member.
func (o *Optimizer) scanDistribution(e *memo.Expr) physical.Distribution {
	def := o.mem.ScanOpDef(e.Private())
	tab := o.mem.Metadata().Table(def.Table)
	if tab.Replicated() {
		return physical.ReplicatedDist
	}
	if ordinals := tab.PartitionColumnOrdinals(); len(ordinals) > 0 {
		var key opt.ColSet
		for _, ordinal := range ordinals {
			key.Add(int(def.Table.ColumnID(ordinal)))
		}
		return physical.PartitionedDist(key)
	}
	return physical.SingletonDist
}
