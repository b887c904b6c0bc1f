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
	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/memo"
)

// implementMergeJoin realizes a logical join as a merge join when the
// condition contains at least one column equality between the two sides.
// The sides are required to arrive sorted ascending on the equality
// columns; the sorts are costed like any other requirement, so merge join
// only wins when the inputs are already ordered or small.
func implementMergeJoin(o *Optimizer, eid memo.ExprID) []memo.Expr {
	mem := o.mem
	join := mem.Expr(eid)
	def := mem.JoinDef(join.Private())

	leftCols := mem.GroupProperties(join.ChildGroup(0)).OutputColSet()
	rightCols := mem.GroupProperties(join.ChildGroup(1)).OutputColSet()
	leftEq, rightEq := def.EquiCols(leftCols, rightCols)
	if len(leftEq) == 0 {
		return nil
	}

	mergeDef := &memo.MergeJoinDef{
		On:       def.On,
		LeftEq:   leftEq,
		RightEq:  rightEq,
		LeftOrd:  ascendingOrdering(leftEq),
		RightOrd: ascendingOrdering(rightEq),
	}
	children := []memo.GroupID{join.ChildGroup(0), join.ChildGroup(1)}
	return []memo.Expr{memo.MakeExpr(opt.MergeJoinOp, children, mem.InternPrivate(mergeDef))}
}

func ascendingOrdering(cols opt.ColList) opt.Ordering {
	ordering := make(opt.Ordering, len(cols))
	for i, col := range cols {
		ordering[i] = opt.MakeOrderingColumn(col, false /* descending */)
	}
	return ordering
}
