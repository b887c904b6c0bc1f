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
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
)

// bestOrdinal is the index of a best expression within its group's bestExprs
// slice.
type bestOrdinal int32

// normBestOrdinal marks a BestExprID that refers to the group's normalized
// expression rather than to a costed best expression.
const normBestOrdinal bestOrdinal = -1

// BestExprID identifies a best expression by pairing its group id with its
// ordinal in the group's bestExprs slice.
type BestExprID struct {
	group   GroupID
	ordinal bestOrdinal
}

// Group returns the id of the group the best expression belongs to.
func (b BestExprID) Group() GroupID {
	return b.group
}

// normBestExprID returns the id that refers to the given group's normalized
// expression.
func normBestExprID(group GroupID) BestExprID {
	return BestExprID{group: group, ordinal: normBestOrdinal}
}

// Provided is the set of physical traits that a best expression actually
// delivers, as opposed to the traits that were required of it. A best
// expression always satisfies its requirement, but may deliver more: a merge
// join delivers a sort order nobody asked for, a scan of a replicated table
// delivers the replicated distribution against an "any" requirement.
type Provided struct {
	Distribution physical.Distribution
	Ordering     opt.Ordering
}

// BestExpr tracks the lowest cost expression found so far that is a member
// of a particular group and provides a particular set of required traits.
// The search engine ratchets BestExprs toward lower cost as it tries group
// members and enforcer placements.
type BestExpr struct {
	// op is the expression's operator. For enforcers (sort, exchange) the
	// operator does not correspond to a member expression of the group; the
	// enforcer wraps the same group's best expression for a weaker
	// requirement.
	op opt.Operator

	// eid is the id of the member expression, or InvalidExprID when op is an
	// enforcer.
	eid ExprID

	// required is the id of the traits this best expression was optimized
	// for.
	required PhysicalPropsID

	// provided is the set of traits the expression actually delivers.
	provided Provided

	// cost is the lowest cost found so far.
	cost Cost

	// children are the best expressions chosen for each child. For an
	// enforcer there is exactly one child: the same group optimized for the
	// requirement left after the enforcer's contribution is removed.
	children []BestExprID

	// private is the enforcer's payload id, or 0. Member expressions carry
	// their payload on the memo expression itself.
	private PrivateID
}

// MakeBestExpr constructs an uncosted candidate for the given member
// expression and requirement.
func MakeBestExpr(op opt.Operator, eid ExprID, required PhysicalPropsID, provided Provided) BestExpr {
	if op == opt.UnknownOp {
		panic(errors.AssertionFailedf("best expressions require a valid operator"))
	}
	return BestExpr{op: op, eid: eid, required: required, provided: provided}
}

// MakeEnforcerBestExpr constructs an uncosted enforcer candidate wrapping
// the given group.
func MakeEnforcerBestExpr(
	op opt.Operator, group GroupID, required PhysicalPropsID, provided Provided, private PrivateID,
) BestExpr {
	if !op.IsEnforcer() {
		panic(errors.AssertionFailedf("%s is not an enforcer", errors.Safe(op)))
	}
	return BestExpr{
		op:       op,
		eid:      ExprID{Group: group},
		required: required,
		provided: provided,
		private:  private,
	}
}

// Initialized returns true once the best expression has been populated with
// a real candidate.
func (b *BestExpr) Initialized() bool {
	return b.op != opt.UnknownOp
}

// Operator returns the best expression's operator.
func (b *BestExpr) Operator() opt.Operator {
	return b.op
}

// Group returns the id of the group the best expression belongs to.
func (b *BestExpr) Group() GroupID {
	return b.eid.Group
}

// ExprID returns the id of the member expression. For enforcers only the
// group component is valid.
func (b *BestExpr) ExprID() ExprID {
	return b.eid
}

// Required returns the id of the traits the expression was optimized for.
func (b *BestExpr) Required() PhysicalPropsID {
	return b.required
}

// Provided returns the traits the expression actually delivers.
func (b *BestExpr) Provided() Provided {
	return b.provided
}

// Cost returns the lowest cost found so far.
func (b *BestExpr) Cost() Cost {
	return b.cost
}

// SetCost assigns the candidate's cost. It must be set exactly once, before
// the candidate is offered to RatchetBestExpr.
func (b *BestExpr) SetCost(cost Cost) {
	b.cost = cost
}

// Private returns the enforcer payload id, or 0.
func (b *BestExpr) Private() PrivateID {
	return b.private
}

// ChildCount returns the number of child best expressions.
func (b *BestExpr) ChildCount() int {
	return len(b.children)
}

// Child returns the id of the nth child best expression.
func (b *BestExpr) Child(nth int) BestExprID {
	if nth < 0 || nth >= len(b.children) {
		panic(errors.AssertionFailedf("child %d out of range for %s", nth, errors.Safe(b.op)))
	}
	return b.children[nth]
}

// AddChild appends the id of the best expression chosen for the next child.
func (b *BestExpr) AddChild(child BestExprID) {
	b.children = append(b.children, child)
}
