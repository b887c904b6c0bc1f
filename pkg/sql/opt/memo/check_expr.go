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

// checkNewExpr validates an expression that is about to become a member of
// group g: its operator arity must be right, its children must be existing
// groups, and no child may lead back to g. A registration that fails any
// check is a bug in a rule, so failures panic with assertion errors rather
// than returning them.
func (m *Memo) checkNewExpr(g GroupID, e *Expr) {
	if want := expectedChildCount(e.op); e.ChildCount() != want {
		panic(errors.AssertionFailedf(
			"%s requires %d children, got %d", errors.Safe(e.op), want, e.ChildCount()))
	}
	for _, child := range e.children {
		if child == 0 || int(child) >= len(m.groups) || child == g {
			panic(errors.AssertionFailedf(
				"%s has invalid child group %d", errors.Safe(e.op), child))
		}
		if m.reaches(child, g) {
			panic(errors.AssertionFailedf(
				"%s creates a cycle: child group %d reaches group %d", errors.Safe(e.op), child, g))
		}
	}
}

// checkExprSchema validates that the expression's derived output schema is
// identical to its group's schema. Rewrites must preserve the schema; a
// mismatch means a rule produced a non-equivalent expression.
func (m *Memo) checkExprSchema(g GroupID, e *Expr) {
	derived := m.buildLogicalProps(e)
	if !derived.OutputCols.Equals(m.GroupProperties(g).OutputCols) {
		panic(errors.AssertionFailedf(
			"%s output columns %s do not match group %d columns %s",
			errors.Safe(e.op), derived.OutputCols, g, m.GroupProperties(g).OutputCols))
	}
}

// reaches returns true if group `to` is reachable from group `from` by
// following member expression children.
func (m *Memo) reaches(from, to GroupID) bool {
	if from == to {
		return true
	}
	// Groups only reference groups created before them, so the search is
	// bounded, but an explicit visited set keeps it linear.
	visited := make(map[GroupID]bool)
	var visit func(g GroupID) bool
	visit = func(g GroupID) bool {
		if g == to {
			return true
		}
		if visited[g] {
			return false
		}
		visited[g] = true
		grp := m.group(g)
		for i := range grp.exprs {
			for _, child := range grp.exprs[i].children {
				if visit(child) {
					return true
				}
			}
		}
		return false
	}
	return visit(from)
}

func expectedChildCount(op opt.Operator) int {
	switch op.CanonicalForm() {
	case opt.ScanOp:
		return 0
	case opt.SelectOp, opt.ProjectOp, opt.GroupByOp, opt.SortOp:
		return 1
	case opt.InnerJoinOp:
		return 2
	}
	panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(op)))
}
