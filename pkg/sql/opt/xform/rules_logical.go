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

// mergeSelects combines nested selects into a single select over the
// conjunction of both predicates:
//
//	Select(Select(x, inner), outer)  =>  Select(x, inner AND outer)
func mergeSelects(o *Optimizer, eid memo.ExprID) []memo.Expr {
	mem := o.mem
	outer := mem.Expr(eid)
	outerDef := mem.SelectDef(outer.Private())
	input := outer.ChildGroup(0)

	var out []memo.Expr
	for i, n := 0, mem.ExprCount(input); i < n; i++ {
		inner := mem.Expr(memo.MakeExprID(input, i))
		if inner.Operator() != opt.SelectOp {
			continue
		}
		innerDef := mem.SelectDef(inner.Private())
		merged := mem.InternPrivate(&memo.SelectDef{
			Filter: &opt.AndExpr{Left: innerDef.Filter, Right: outerDef.Filter},
		})
		out = append(out, memo.MakeExpr(
			opt.SelectOp, []memo.GroupID{inner.ChildGroup(0)}, merged))
	}
	return out
}

// pushSelectIntoProject transposes a select with its project input when the
// predicate only references columns the project passes through unchanged:
//
//	Select(Project(x, cols), pred)  =>  Project(Select(x, pred), cols)
//
// Passthrough projections keep column ids, so the predicate applies to the
// project's input without remapping.
func pushSelectIntoProject(o *Optimizer, eid memo.ExprID) []memo.Expr {
	mem := o.mem
	sel := mem.Expr(eid)
	selDef := mem.SelectDef(sel.Private())
	input := sel.ChildGroup(0)
	filterCols := selDef.Filter.ScalarCols()

	var out []memo.Expr
	for i, n := 0, mem.ExprCount(input); i < n; i++ {
		proj := mem.Expr(memo.MakeExprID(input, i))
		if proj.Operator() != opt.ProjectOp {
			continue
		}
		projDef := mem.ProjectDef(proj.Private())
		if isIdentityProjection(mem, proj, projDef) {
			// eliminateProject bypasses these directly; transposing through an
			// identity projection would register the pushed select in a second
			// group equivalent to this one.
			continue
		}
		var passthrough opt.ColSet
		for j := range projDef.Cols {
			if col := projDef.PassthroughCol(j); col != 0 {
				passthrough.Add(int(col))
			}
		}
		if !filterCols.SubsetOf(passthrough) {
			continue
		}
		pushed := mem.MemoizeExpr(memo.MakeExpr(
			opt.SelectOp, []memo.GroupID{proj.ChildGroup(0)}, sel.Private()))
		out = append(out, memo.MakeExpr(
			opt.ProjectOp, []memo.GroupID{pushed}, proj.Private()))
	}
	return out
}

// eliminateProject bypasses identity projections: when a child group's
// member is a project that passes through exactly its input's columns in
// order, the parent can reference the project's input group directly.
func eliminateProject(o *Optimizer, eid memo.ExprID) []memo.Expr {
	mem := o.mem
	parent := mem.Expr(eid)

	var out []memo.Expr
	for nth := 0; nth < parent.ChildCount(); nth++ {
		child := parent.ChildGroup(nth)
		for i, n := 0, mem.ExprCount(child); i < n; i++ {
			proj := mem.Expr(memo.MakeExprID(child, i))
			if proj.Operator() != opt.ProjectOp {
				continue
			}
			projDef := mem.ProjectDef(proj.Private())
			if !isIdentityProjection(mem, proj, projDef) {
				continue
			}
			children := make([]memo.GroupID, parent.ChildCount())
			for j := range children {
				children[j] = parent.ChildGroup(j)
			}
			children[nth] = proj.ChildGroup(0)
			out = append(out, memo.MakeExpr(parent.Operator(), children, parent.Private()))
		}
	}
	return out
}

// isIdentityProjection returns true if the projection forwards its input's
// columns unchanged and in order.
func isIdentityProjection(mem *memo.Memo, proj *memo.Expr, def *memo.ProjectDef) bool {
	inputCols := mem.GroupProperties(proj.ChildGroup(0)).OutputCols
	if !def.Cols.Equals(inputCols) {
		return false
	}
	for i := range def.Cols {
		if def.PassthroughCol(i) != def.Cols[i] {
			return false
		}
	}
	return true
}
