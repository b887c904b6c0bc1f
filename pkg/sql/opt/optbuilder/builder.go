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

// Package optbuilder registers a validated query tree into the memo as
// unconverted expressions. It resolves table and column names against the
// catalog snapshot, assigns metadata column ids, and translates scalar
// expressions into their resolved forms. It performs no optimization.
package optbuilder

import (
	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/cat"
	"github.com/silodb/silo/pkg/sql/opt/memo"
)

// Builder holds the state needed to translate one validated tree.
type Builder struct {
	catalog cat.Catalog
	mem     *memo.Memo
	md      *opt.Metadata
}

// New creates a Builder that registers trees into the given memo, resolving
// names against the given catalog snapshot.
func New(catalog cat.Catalog, mem *memo.Memo) *Builder {
	return &Builder{catalog: catalog, mem: mem, md: mem.Metadata()}
}

// Build registers the tree into the memo, sets it as the memo's root, and
// returns its group.
func (b *Builder) Build(root Node) (group memo.GroupID, err error) {
	defer func() {
		if r := opt.CatchOptimizerError(recover()); r != nil {
			err = r
		}
	}()

	group, _ = b.buildNode(root)
	b.mem.SetRoot(group)
	return group, nil
}

func (b *Builder) buildNode(n Node) (memo.GroupID, *scope) {
	switch t := n.(type) {
	case *Scan:
		return b.buildScan(t)
	case *Filter:
		return b.buildFilter(t)
	case *Project:
		return b.buildProject(t)
	case *Join:
		return b.buildJoin(t)
	case *Aggregate:
		return b.buildAggregate(t)
	case *OrderBy:
		return b.buildOrderBy(t)
	}
	panic(errors.AssertionFailedf("unhandled node %T", n))
}

func (b *Builder) buildScan(scan *Scan) (memo.GroupID, *scope) {
	tab, err := b.catalog.ResolveTable(scan.Table)
	if err != nil {
		panic(err)
	}
	tabID := b.md.AddTable(tab)
	cols := b.md.TableColumns(tabID)

	outScope := &scope{}
	for ord := 0; ord < tab.ColumnCount(); ord++ {
		outScope.append(tab.Column(ord).Name, tabID.ColumnID(ord))
	}

	def := b.mem.InternPrivate(&memo.ScanOpDef{Table: tabID, Cols: cols})
	return b.mem.MemoizeExpr(memo.MakeExpr(opt.ScanOp, nil, def)), outScope
}

func (b *Builder) buildFilter(filter *Filter) (memo.GroupID, *scope) {
	input, inScope := b.buildNode(filter.Input)
	def := b.mem.InternPrivate(&memo.SelectDef{Filter: b.buildScalar(filter.Pred, inScope)})
	group := b.mem.MemoizeExpr(memo.MakeExpr(opt.SelectOp, []memo.GroupID{input}, def))
	return group, inScope
}

func (b *Builder) buildProject(project *Project) (memo.GroupID, *scope) {
	input, inScope := b.buildNode(project.Input)

	outScope := &scope{}
	def := &memo.ProjectDef{
		Cols:  make(opt.ColList, 0, len(project.Cols)),
		Elems: make([]opt.ScalarExpr, 0, len(project.Cols)),
	}
	for _, col := range project.Cols {
		if col.Expr == nil {
			// Passthrough: reuse the input column's id, so predicates and
			// orderings keep applying across the projection.
			id := inScope.resolve(col.Name)
			def.Cols = append(def.Cols, id)
			def.Elems = append(def.Elems, &opt.VariableExpr{Col: id, Typ: b.md.ColumnType(id)})
			outScope.append(col.Name, id)
			continue
		}
		id := b.md.AddColumn(col.Name, col.Type)
		def.Cols = append(def.Cols, id)
		def.Elems = append(def.Elems, b.buildScalar(col.Expr, inScope))
		outScope.append(col.Name, id)
	}

	group := b.mem.MemoizeExpr(memo.MakeExpr(
		opt.ProjectOp, []memo.GroupID{input}, b.mem.InternPrivate(def)))
	return group, outScope
}

func (b *Builder) buildJoin(join *Join) (memo.GroupID, *scope) {
	left, leftScope := b.buildNode(join.Left)
	right, rightScope := b.buildNode(join.Right)
	outScope := leftScope.merge(rightScope)

	def := b.mem.InternPrivate(&memo.JoinDef{On: b.buildScalar(join.On, outScope)})
	group := b.mem.MemoizeExpr(memo.MakeExpr(
		opt.InnerJoinOp, []memo.GroupID{left, right}, def))
	return group, outScope
}

func (b *Builder) buildAggregate(agg *Aggregate) (memo.GroupID, *scope) {
	input, inScope := b.buildNode(agg.Input)

	outScope := &scope{}
	def := &memo.GroupByDef{}
	for _, name := range agg.GroupBy {
		id := inScope.resolve(name)
		def.GroupingCols = append(def.GroupingCols, id)
		outScope.append(name, id)
	}
	for _, a := range agg.Aggs {
		arg := inScope.resolve(a.Arg)
		id := b.md.AddColumn(a.Name, a.Type)
		def.AggCols = append(def.AggCols, id)
		def.Aggs = append(def.Aggs, &opt.FunctionExpr{
			Name: a.Func,
			Args: []opt.ScalarExpr{&opt.VariableExpr{Col: arg, Typ: b.md.ColumnType(arg)}},
			Typ:  a.Type,
		})
		outScope.append(a.Name, id)
	}

	group := b.mem.MemoizeExpr(memo.MakeExpr(
		opt.GroupByOp, []memo.GroupID{input}, b.mem.InternPrivate(def)))
	return group, outScope
}

func (b *Builder) buildOrderBy(order *OrderBy) (memo.GroupID, *scope) {
	input, inScope := b.buildNode(order.Input)

	ordering := make(opt.Ordering, len(order.Cols))
	for i, item := range order.Cols {
		ordering[i] = opt.MakeOrderingColumn(inScope.resolve(item.Col), item.Descending)
	}

	def := b.mem.InternPrivate(&memo.SortDef{Ordering: ordering})
	group := b.mem.MemoizeExpr(memo.MakeExpr(opt.SortOp, []memo.GroupID{input}, def))
	return group, inScope
}

func (b *Builder) buildScalar(s Scalar, inScope *scope) opt.ScalarExpr {
	switch t := s.(type) {
	case *ColRef:
		id := inScope.resolve(t.Name)
		return &opt.VariableExpr{Col: id, Typ: b.md.ColumnType(id)}

	case *Lit:
		return &opt.ConstExpr{Value: t.Val, Typ: t.Typ}

	case *Cmp:
		op, ok := cmpOps[t.Op]
		if !ok {
			panic(errors.AssertionFailedf("unknown comparison %s", t.Op))
		}
		return &opt.ComparisonExpr{
			Op:    op,
			Left:  b.buildScalar(t.Left, inScope),
			Right: b.buildScalar(t.Right, inScope),
		}

	case *And:
		return &opt.AndExpr{
			Left:  b.buildScalar(t.Left, inScope),
			Right: b.buildScalar(t.Right, inScope),
		}

	case *Or:
		return &opt.OrExpr{
			Left:  b.buildScalar(t.Left, inScope),
			Right: b.buildScalar(t.Right, inScope),
		}

	case *Not:
		return &opt.NotExpr{Input: b.buildScalar(t.Input, inScope)}
	}
	panic(errors.AssertionFailedf("unhandled scalar %T", s))
}

var cmpOps = map[string]opt.ComparisonOperator{
	"=":  opt.EqOp,
	"<":  opt.LtOp,
	">":  opt.GtOp,
	"<=": opt.LeOp,
	">=": opt.GeOp,
	"!=": opt.NeOp,
}
