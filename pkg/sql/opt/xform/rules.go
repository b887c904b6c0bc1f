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

// Phase selects which rule set the search engine fires.
type Phase int8

const (
	// PhaseLogical canonicalizes shape and converts unconverted operators to
	// their logical forms.
	PhaseLogical Phase = iota

	// PhasePhysical converts logical operators to physical realizations.
	PhasePhysical
)

func (p Phase) String() string {
	if p == PhaseLogical {
		return "logical"
	}
	return "physical"
}

// rule pairs a shape pattern with a transform. The pattern is the set of
// operators the rule fires on; the transform inspects the matched member
// expression and returns zero or more replacement expressions, which the
// explorer registers into the member's group. Transforms are pure: they
// build child subtrees through Memo.MemoizeExpr and have no other effect.
type rule struct {
	name     opt.RuleName
	matchOps []opt.Operator
	apply    func(o *Optimizer, eid memo.ExprID) []memo.Expr
}

// logicalRules and physicalRules are fired in slice order, which together
// with the fire-once bookkeeping makes exploration deterministic.
var logicalRules = []rule{
	{name: opt.MergeSelects, matchOps: []opt.Operator{opt.SelectOp}, apply: mergeSelects},
	{name: opt.PushSelectIntoProject, matchOps: []opt.Operator{opt.SelectOp}, apply: pushSelectIntoProject},
	{
		name: opt.EliminateProject,
		matchOps: []opt.Operator{
			opt.SelectOp, opt.ProjectOp, opt.InnerJoinOp, opt.GroupByOp, opt.SortOp,
		},
		apply: eliminateProject,
	},

	{name: opt.ScanToLogicalScan, matchOps: []opt.Operator{opt.ScanOp}, apply: convertTo(opt.LogicalScanOp)},
	{name: opt.SelectToLogicalSelect, matchOps: []opt.Operator{opt.SelectOp}, apply: convertTo(opt.LogicalSelectOp)},
	{name: opt.ProjectToLogicalProject, matchOps: []opt.Operator{opt.ProjectOp}, apply: convertTo(opt.LogicalProjectOp)},
	{name: opt.InnerJoinToLogicalInnerJoin, matchOps: []opt.Operator{opt.InnerJoinOp}, apply: convertTo(opt.LogicalInnerJoinOp)},
	{name: opt.GroupByToLogicalGroupBy, matchOps: []opt.Operator{opt.GroupByOp}, apply: convertTo(opt.LogicalGroupByOp)},
	{name: opt.SortToLogicalSort, matchOps: []opt.Operator{opt.SortOp}, apply: convertTo(opt.LogicalSortOp)},
}

var physicalRules = []rule{
	{name: opt.ImplementScan, matchOps: []opt.Operator{opt.LogicalScanOp}, apply: convertTo(opt.PhysicalScanOp)},
	{name: opt.ImplementSelect, matchOps: []opt.Operator{opt.LogicalSelectOp}, apply: convertTo(opt.PhysicalSelectOp)},
	{name: opt.ImplementProject, matchOps: []opt.Operator{opt.LogicalProjectOp}, apply: convertTo(opt.PhysicalProjectOp)},
	{name: opt.ImplementHashJoin, matchOps: []opt.Operator{opt.LogicalInnerJoinOp}, apply: convertTo(opt.HashJoinOp)},
	{name: opt.ImplementMergeJoin, matchOps: []opt.Operator{opt.LogicalInnerJoinOp}, apply: implementMergeJoin},
	{name: opt.ImplementGroupBy, matchOps: []opt.Operator{opt.LogicalGroupByOp}, apply: convertTo(opt.HashGroupByOp)},
	{name: opt.ImplementSort, matchOps: []opt.Operator{opt.LogicalSortOp}, apply: convertTo(opt.PhysicalSortOp)},
}

// rulesForPhase indexes the phase's rules by matched operator.
func rulesForPhase(phase Phase) *[opt.NumOperators][]*rule {
	if phase == PhaseLogical {
		return &logicalRuleIndex
	}
	return &physicalRuleIndex
}

var logicalRuleIndex [opt.NumOperators][]*rule
var physicalRuleIndex [opt.NumOperators][]*rule

func init() {
	for i := range logicalRules {
		r := &logicalRules[i]
		for _, op := range r.matchOps {
			logicalRuleIndex[op] = append(logicalRuleIndex[op], r)
		}
	}
	for i := range physicalRules {
		r := &physicalRules[i]
		for _, op := range r.matchOps {
			physicalRuleIndex[op] = append(physicalRuleIndex[op], r)
		}
	}
}

// convertTo builds the transform of a conversion rule: the same expression
// under a different convention's operator, sharing children and payload.
// Registering it makes the group a member of the new convention without
// changing its equivalence semantics.
func convertTo(target opt.Operator) func(o *Optimizer, eid memo.ExprID) []memo.Expr {
	return func(o *Optimizer, eid memo.ExprID) []memo.Expr {
		e := o.mem.Expr(eid)
		children := make([]memo.GroupID, e.ChildCount())
		for i := range children {
			children[i] = e.ChildGroup(i)
		}
		return []memo.Expr{memo.MakeExpr(target, children, e.Private())}
	}
}
