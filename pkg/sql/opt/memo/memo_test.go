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

package memo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/cat"
	"github.com/silodb/silo/pkg/sql/opt/memo"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
	"github.com/silodb/silo/pkg/sql/opt/testutils/testcat"
	"github.com/silodb/silo/pkg/sql/types"
)

// newTestMemo returns a memo over metadata with one table t(a, b) of 100
// rows registered.
func newTestMemo(t *testing.T) (*memo.Memo, opt.TableID) {
	t.Helper()
	tc := testcat.New()
	tc.AddTable(&testcat.Table{
		TabName: "t",
		Columns: []cat.Column{
			{Name: "a", Type: types.Int},
			{Name: "b", Type: types.Int},
		},
		Rows: 100,
	})
	tab, err := tc.ResolveTable("t")
	require.NoError(t, err)

	md := &opt.Metadata{}
	mem := memo.New(md)
	return mem, md.AddTable(tab)
}

func makeScan(mem *memo.Memo, tab opt.TableID) memo.Expr {
	def := mem.InternPrivate(&memo.ScanOpDef{
		Table: tab,
		Cols:  mem.Metadata().TableColumns(tab),
	})
	return memo.MakeExpr(opt.ScanOp, nil, def)
}

func makeSelect(mem *memo.Memo, input memo.GroupID, filter opt.ScalarExpr) memo.Expr {
	def := mem.InternPrivate(&memo.SelectDef{Filter: filter})
	return memo.MakeExpr(opt.SelectOp, []memo.GroupID{input}, def)
}

func colEq(col opt.ColumnID, val int) opt.ScalarExpr {
	return &opt.ComparisonExpr{
		Op:    opt.EqOp,
		Left:  &opt.VariableExpr{Col: col, Typ: types.Int},
		Right: &opt.ConstExpr{Value: val, Typ: types.Int},
	}
}

func TestMemoInterning(t *testing.T) {
	mem, tab := newTestMemo(t)

	scan := makeScan(mem, tab)
	g := mem.MemoizeExpr(scan)
	require.Equal(t, g, mem.MemoizeExpr(scan), "identical expression must reuse its group")
	require.Equal(t, 1, mem.ExprCount(g))

	// Registering an equivalent member is idempotent.
	logical := memo.MakeExpr(opt.LogicalScanOp, nil, scan.Private())
	eid := mem.AddExprToGroup(g, logical)
	require.Equal(t, eid, mem.AddExprToGroup(g, logical))
	require.Equal(t, 2, mem.ExprCount(g))

	// The same expression may not join a second group.
	other := mem.MemoizeExpr(makeSelect(mem, g, colEq(tab.ColumnID(0), 1)))
	require.Panics(t, func() { mem.AddExprToGroup(other, logical) })
}

// TestMemoRegisterAllConventions registers a converted and a realized member
// for each operator shape. Conversions and realizations share the arity,
// payload and derived properties of their unconverted form, so every
// registration must pass the member checks.
func TestMemoRegisterAllConventions(t *testing.T) {
	mem, tab := newTestMemo(t)
	a := tab.ColumnID(0)

	scan := mem.MemoizeExpr(makeScan(mem, tab))
	scanPrivate := mem.InternPrivate(&memo.ScanOpDef{
		Table: tab,
		Cols:  mem.Metadata().TableColumns(tab),
	})
	sel := mem.MemoizeExpr(makeSelect(mem, scan, colEq(a, 1)))
	selPrivate := mem.InternPrivate(&memo.SelectDef{Filter: colEq(a, 1)})
	joinDef := mem.InternPrivate(&memo.JoinDef{On: colEq(a, 1)})
	join := mem.MemoizeExpr(memo.MakeExpr(opt.InnerJoinOp, []memo.GroupID{scan, sel}, joinDef))

	for _, tc := range []struct {
		group memo.GroupID
		expr  memo.Expr
	}{
		{scan, memo.MakeExpr(opt.LogicalScanOp, nil, scanPrivate)},
		{scan, memo.MakeExpr(opt.PhysicalScanOp, nil, scanPrivate)},
		{sel, memo.MakeExpr(opt.LogicalSelectOp, []memo.GroupID{scan}, selPrivate)},
		{sel, memo.MakeExpr(opt.PhysicalSelectOp, []memo.GroupID{scan}, selPrivate)},
		{join, memo.MakeExpr(opt.LogicalInnerJoinOp, []memo.GroupID{scan, sel}, joinDef)},
		{join, memo.MakeExpr(opt.HashJoinOp, []memo.GroupID{scan, sel}, joinDef)},
		{join, memo.MakeExpr(opt.MergeJoinOp, []memo.GroupID{scan, sel}, joinDef)},
	} {
		require.NotPanics(t, func() { mem.AddExprToGroup(tc.group, tc.expr) }, "%s", tc.expr.Operator())
	}
	require.Equal(t, 3, mem.ExprCount(scan))
	require.Equal(t, 3, mem.ExprCount(sel))
	require.Equal(t, 4, mem.ExprCount(join))
}

func TestMemoSchemaCheck(t *testing.T) {
	mem, tab := newTestMemo(t)
	scan := mem.MemoizeExpr(makeScan(mem, tab))

	// A projection of just column a.
	a := tab.ColumnID(0)
	projDef := mem.InternPrivate(&memo.ProjectDef{
		Cols:  opt.ColList{a},
		Elems: []opt.ScalarExpr{&opt.VariableExpr{Col: a, Typ: types.Int}},
	})
	proj := mem.MemoizeExpr(memo.MakeExpr(opt.ProjectOp, []memo.GroupID{scan}, projDef))

	// A select over the scan outputs both columns; it is not equivalent to
	// the single-column projection.
	badExpr := makeSelect(mem, scan, colEq(a, 1))
	require.Panics(t, func() { mem.AddExprToGroup(proj, badExpr) })
}

func TestMemoCycleCheck(t *testing.T) {
	mem, tab := newTestMemo(t)
	scan := mem.MemoizeExpr(makeScan(mem, tab))
	a := tab.ColumnID(0)

	sel1 := mem.MemoizeExpr(makeSelect(mem, scan, colEq(a, 1)))
	sel2 := mem.MemoizeExpr(makeSelect(mem, sel1, colEq(a, 2)))

	// Direct self reference.
	require.Panics(t, func() {
		mem.AddExprToGroup(sel1, makeSelect(mem, sel1, colEq(a, 3)))
	})

	// Transitive: sel2 already contains a member referencing sel1.
	require.Panics(t, func() {
		mem.AddExprToGroup(sel1, makeSelect(mem, sel2, colEq(a, 4)))
	})
}

func TestMemoInternPhysicalProps(t *testing.T) {
	mem, _ := newTestMemo(t)

	singleton := &physical.Required{
		Convention:   opt.ConventionPhysical,
		Distribution: physical.SingletonDist,
	}
	id := mem.InternPhysicalProps(singleton)
	require.Equal(t, id, mem.InternPhysicalProps(singleton))
	require.True(t, mem.LookupPhysicalProps(id).Equals(singleton))

	other := &physical.Required{Convention: opt.ConventionLogical}
	require.NotEqual(t, id, mem.InternPhysicalProps(other))

	// The empty requirement was interned at construction.
	require.Equal(t, memo.MinPhysPropsID, mem.InternPhysicalProps(physical.MinRequired))
}

func TestMemoInternPrivate(t *testing.T) {
	mem, tab := newTestMemo(t)
	cols := mem.Metadata().TableColumns(tab)

	id := mem.InternPrivate(&memo.ScanOpDef{Table: tab, Cols: cols})
	require.Equal(t, id, mem.InternPrivate(&memo.ScanOpDef{Table: tab, Cols: cols}))

	// Equal filters intern to the same payload; different constants do not.
	a := tab.ColumnID(0)
	f1 := mem.InternPrivate(&memo.SelectDef{Filter: colEq(a, 1)})
	require.Equal(t, f1, mem.InternPrivate(&memo.SelectDef{Filter: colEq(a, 1)}))
	require.NotEqual(t, f1, mem.InternPrivate(&memo.SelectDef{Filter: colEq(a, 2)}))
}

func TestNormExprViewFormat(t *testing.T) {
	mem, tab := newTestMemo(t)
	scan := mem.MemoizeExpr(makeScan(mem, tab))
	sel := mem.MemoizeExpr(makeSelect(mem, scan, colEq(tab.ColumnID(0), 1)))

	expected := `select (@1 = 1)
 ├── columns: t.a:1 t.b:2
 ├── stats: [rows=33]
 └── scan t
      ├── columns: t.a:1 t.b:2
      └── stats: [rows=100]
`
	require.Equal(t, expected, memo.MakeNormExprView(mem, sel).String())
}
