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

	"github.com/silodb/silo/pkg/util"
)

// group is a set of logically equivalent expressions. Every member produces
// the same output schema and the same rows; members differ in shape, traits
// and cost. The group tracks, per required trait set it has been optimized
// for, the lowest cost member expression providing those traits.
type group struct {
	// id is the index of this group within the memo.
	id GroupID

	// logical is the set of logical properties shared by all members.
	logical LogicalProps

	// exprs is the set of logically equivalent member expressions. The
	// expression at normExprOrdinal is the one the group was created with.
	exprs []Expr

	// bestExprsMap maps from an interned PhysicalPropsID to the ordinal of
	// the bestExprs entry holding the group's best expression for those
	// traits.
	bestExprsMap util.FastIntMap

	// bestExprs is the set of best expressions, one per required trait set
	// the group has been optimized for.
	bestExprs []BestExpr
}

// ensureBestExpr returns the ordinal of the best expression entry for the
// given required traits, allocating an uninitialized entry if none exists.
func (g *group) ensureBestExpr(required PhysicalPropsID) bestOrdinal {
	if ordinal, ok := g.bestExprsMap.Get(int(required)); ok {
		return bestOrdinal(ordinal)
	}
	ordinal := bestOrdinal(len(g.bestExprs))
	g.bestExprs = append(g.bestExprs, BestExpr{required: required})
	g.bestExprsMap.Set(int(required), int(ordinal))
	return ordinal
}

// lookupBestExpr returns the best expression entry for the given required
// traits, or nil if the group has never been asked to optimize for them.
func (g *group) lookupBestExpr(required PhysicalPropsID) *BestExpr {
	ordinal, ok := g.bestExprsMap.Get(int(required))
	if !ok {
		return nil
	}
	return &g.bestExprs[ordinal]
}

// bestExpr returns the best expression entry with the given ordinal.
func (g *group) bestExpr(ordinal bestOrdinal) *BestExpr {
	if int(ordinal) >= len(g.bestExprs) {
		panic(errors.AssertionFailedf("invalid best expression ordinal %d in group %d", ordinal, g.id))
	}
	return &g.bestExprs[ordinal]
}
