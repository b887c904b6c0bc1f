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
	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
)

// ExprView is a read-only overlay that presents one expression tree out of
// the memo's forest as if it were a regular tree, hiding groups and best
// expression bookkeeping from callers. Two overlays exist:
//
//   - a normalized view walks each group's normalized expression; it is the
//     shape of the plan before any costed search and is what the logical
//     phase hands to the physical phase.
//
//   - a best expression view walks the winners chosen for a required trait
//     set, including enforcers, and is the final extracted plan.
//
// An ExprView is a pair of pointers and is passed by value.
type ExprView struct {
	mem  *Memo
	best BestExprID
}

// MakeNormExprView returns the normalized view of the given group.
func MakeNormExprView(mem *Memo, group GroupID) ExprView {
	return ExprView{mem: mem, best: normBestExprID(group)}
}

// MakeBestExprView returns the view of the best expression tree rooted at
// the given best expression.
func MakeBestExprView(mem *Memo, best BestExprID) ExprView {
	return ExprView{mem: mem, best: best}
}

// Memo returns the memo the view reads from.
func (ev ExprView) Memo() *Memo {
	return ev.mem
}

// Group returns the id of the equivalence group the view's root belongs to.
func (ev ExprView) Group() GroupID {
	return ev.best.group
}

// IsBest reports whether the view walks costed best expressions rather than
// normalized ones.
func (ev ExprView) IsBest() bool {
	return ev.best.ordinal != normBestOrdinal
}

// Operator returns the operator at the root of the view.
func (ev ExprView) Operator() opt.Operator {
	if ev.IsBest() {
		return ev.mem.bestExpr(ev.best).op
	}
	return ev.mem.NormExpr(ev.best.group).op
}

// Logical returns the logical properties of the root's group.
func (ev ExprView) Logical() *LogicalProps {
	return ev.mem.GroupProperties(ev.best.group)
}

// Private returns the interned payload id of the root expression.
func (ev ExprView) Private() PrivateID {
	if ev.IsBest() {
		best := ev.mem.bestExpr(ev.best)
		if best.op.IsEnforcer() {
			return best.private
		}
		return ev.mem.Expr(best.eid).private
	}
	return ev.mem.NormExpr(ev.best.group).private
}

// Cost returns the cost of the viewed tree. It panics on a normalized view,
// which has no cost.
func (ev ExprView) Cost() Cost {
	if !ev.IsBest() {
		panic(errors.AssertionFailedf("normalized views have no cost"))
	}
	return ev.mem.bestExpr(ev.best).cost
}

// Provided returns the traits the viewed tree delivers. It panics on a
// normalized view.
func (ev ExprView) Provided() Provided {
	if !ev.IsBest() {
		panic(errors.AssertionFailedf("normalized views have no provided traits"))
	}
	return ev.mem.bestExpr(ev.best).provided
}

// ChildCount returns the number of children of the root expression.
func (ev ExprView) ChildCount() int {
	if ev.IsBest() {
		return ev.mem.bestExpr(ev.best).ChildCount()
	}
	return ev.mem.NormExpr(ev.best.group).ChildCount()
}

// Child returns the view of the nth child tree.
func (ev ExprView) Child(nth int) ExprView {
	if ev.IsBest() {
		return ExprView{mem: ev.mem, best: ev.mem.bestExpr(ev.best).Child(nth)}
	}
	group := ev.mem.NormExpr(ev.best.group).ChildGroup(nth)
	return MakeNormExprView(ev.mem, group)
}

func (ev ExprView) String() string {
	return ev.mem.formatExprView(ev)
}
