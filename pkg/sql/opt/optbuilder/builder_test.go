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

package optbuilder_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/cat"
	"github.com/silodb/silo/pkg/sql/opt/memo"
	"github.com/silodb/silo/pkg/sql/opt/optbuilder"
	"github.com/silodb/silo/pkg/sql/opt/testutils/testcat"
	"github.com/silodb/silo/pkg/sql/types"
)

func newCatalog() *testcat.Catalog {
	tc := testcat.New()
	tc.AddTable(&testcat.Table{
		TabName: "t",
		Columns: []cat.Column{{Name: "a", Type: types.Int}, {Name: "b", Type: types.Int}},
		Rows:    100,
	})
	tc.AddTable(&testcat.Table{
		TabName: "u",
		Columns: []cat.Column{{Name: "c", Type: types.Int}, {Name: "d", Type: types.Int}},
		Rows:    50,
	})
	return tc
}

func build(t *testing.T, tree optbuilder.Node) (*memo.Memo, memo.GroupID) {
	t.Helper()
	mem := memo.New(&opt.Metadata{})
	root, err := optbuilder.New(newCatalog(), mem).Build(tree)
	require.NoError(t, err)
	return mem, root
}

func scanT() *optbuilder.Scan { return &optbuilder.Scan{Table: "t"} }

func TestBuildScan(t *testing.T) {
	mem, root := build(t, scanT())
	require.Equal(t, root, mem.Root())

	e := mem.NormExpr(root)
	require.Equal(t, opt.ScanOp, e.Operator())
	require.Equal(t, 0, e.ChildCount())

	logical := mem.GroupProperties(root)
	require.Equal(t, opt.ColList{1, 2}, logical.OutputCols)
	require.Equal(t, 100.0, logical.Stats.RowCount)
	require.Equal(t, "t.a", mem.Metadata().ColumnAlias(1))
	require.Equal(t, "t.b", mem.Metadata().ColumnAlias(2))
}

func TestBuildUnknownTable(t *testing.T) {
	mem := memo.New(&opt.Metadata{})
	_, err := optbuilder.New(newCatalog(), mem).Build(&optbuilder.Scan{Table: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope")
}

func TestBuildUnknownColumn(t *testing.T) {
	mem := memo.New(&opt.Metadata{})
	tree := &optbuilder.Filter{
		Input: scanT(),
		Pred: &optbuilder.Cmp{
			Op:    "=",
			Left:  &optbuilder.ColRef{Name: "z"},
			Right: &optbuilder.Lit{Val: 1, Typ: types.Int},
		},
	}
	_, err := optbuilder.New(newCatalog(), mem).Build(tree)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown column z")
}

func TestBuildAmbiguousColumn(t *testing.T) {
	// Self-join: both sides expose "a".
	mem := memo.New(&opt.Metadata{})
	tree := &optbuilder.Join{
		Left:  scanT(),
		Right: scanT(),
		On: &optbuilder.Cmp{
			Op:    "=",
			Left:  &optbuilder.ColRef{Name: "a"},
			Right: &optbuilder.ColRef{Name: "b"},
		},
	}
	_, err := optbuilder.New(newCatalog(), mem).Build(tree)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ambiguous column a")
}

func TestBuildProjectPassthrough(t *testing.T) {
	// Passthrough projections reuse the input column ids.
	mem, root := build(t, &optbuilder.Project{
		Input: scanT(),
		Cols:  []optbuilder.ProjectCol{{Name: "b"}, {Name: "a"}},
	})

	e := mem.NormExpr(root)
	require.Equal(t, opt.ProjectOp, e.Operator())
	def := mem.ProjectDef(e.Private())
	require.Equal(t, opt.ColList{2, 1}, def.Cols)
	require.Equal(t, opt.ColumnID(2), def.PassthroughCol(0))
	require.Equal(t, opt.ColumnID(1), def.PassthroughCol(1))
}

func TestBuildProjectComputed(t *testing.T) {
	// A computed projection synthesizes a fresh column.
	mem, root := build(t, &optbuilder.Project{
		Input: scanT(),
		Cols: []optbuilder.ProjectCol{
			{Name: "a"},
			{Name: "one", Expr: &optbuilder.Lit{Val: 1, Typ: types.Int}, Type: types.Int},
		},
	})

	def := mem.ProjectDef(mem.NormExpr(root).Private())
	require.Equal(t, opt.ColList{1, 3}, def.Cols)
	require.Equal(t, opt.ColumnID(0), def.PassthroughCol(1))
	require.Equal(t, "one", mem.Metadata().ColumnAlias(3))
}

func TestBuildSeparateTableRefs(t *testing.T) {
	mem := memo.New(&opt.Metadata{})
	b := optbuilder.New(newCatalog(), mem)
	first, err := b.Build(scanT())
	require.NoError(t, err)

	// The second scan registers a new table reference with fresh column ids,
	// so it builds a distinct group.
	second, err := b.Build(scanT())
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestBuildJoinScopes(t *testing.T) {
	mem, root := build(t, &optbuilder.Join{
		Left:  scanT(),
		Right: &optbuilder.Scan{Table: "u"},
		On: &optbuilder.Cmp{
			Op:    "=",
			Left:  &optbuilder.ColRef{Name: "a"},
			Right: &optbuilder.ColRef{Name: "c"},
		},
	})

	e := mem.NormExpr(root)
	require.Equal(t, opt.InnerJoinOp, e.Operator())
	require.Equal(t, 2, e.ChildCount())
	require.Equal(t, opt.ColList{1, 2, 3, 4}, mem.GroupProperties(root).OutputCols)

	def := mem.JoinDef(e.Private())
	require.Equal(t, "(@1 = @3)", def.On.String())
	// 100 * 50 * default join selectivity.
	require.Equal(t, 500.0, mem.GroupProperties(root).Stats.RowCount)
}

func TestBuildAggregate(t *testing.T) {
	mem, root := build(t, &optbuilder.Aggregate{
		Input:   scanT(),
		GroupBy: []string{"a"},
		Aggs:    []optbuilder.AggCol{{Name: "total", Func: "sum", Arg: "b", Type: types.Int}},
	})

	e := mem.NormExpr(root)
	require.Equal(t, opt.GroupByOp, e.Operator())
	def := mem.GroupByDef(e.Private())
	require.Equal(t, opt.ColList{1}, def.GroupingCols)
	require.Equal(t, opt.ColList{3}, def.AggCols)
	require.Equal(t, "sum(@2)", def.Aggs[0].String())
	require.Equal(t, opt.ColList{1, 3}, mem.GroupProperties(root).OutputCols)
}

func TestBuildOrderBy(t *testing.T) {
	mem, root := build(t, &optbuilder.OrderBy{
		Input: scanT(),
		Cols:  []optbuilder.OrderItem{{Col: "b", Descending: true}, {Col: "a"}},
	})

	e := mem.NormExpr(root)
	require.Equal(t, opt.SortOp, e.Operator())
	require.Equal(t, "-2,+1", mem.SortDef(e.Private()).Ordering.String())
}
