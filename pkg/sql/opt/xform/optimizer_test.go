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

package xform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/cat"
	"github.com/silodb/silo/pkg/sql/opt/memo"
	"github.com/silodb/silo/pkg/sql/opt/optbuilder"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
	"github.com/silodb/silo/pkg/sql/opt/testutils"
	"github.com/silodb/silo/pkg/sql/opt/testutils/testcat"
	"github.com/silodb/silo/pkg/sql/opt/xform"
	"github.com/silodb/silo/pkg/sql/types"
)

// newTestCatalog returns a catalog with:
//
//	t(a, b): 100 rows, on a single node
//	u(c, d): 50 rows, on a single node
//	p(a, b): 1000 rows, partitioned by a
func newTestCatalog() *testcat.Catalog {
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
	tc.AddTable(&testcat.Table{
		TabName: "p",
		Columns: []cat.Column{{Name: "a", Type: types.Int}, {Name: "b", Type: types.Int}},
		Rows:    1000,
		PartitionOrdinals: []int{0},
	})
	return tc
}

// newOptimizer builds the given tree into a fresh optimizer.
func newOptimizer(t *testing.T, input string, settings xform.Settings) *xform.Optimizer {
	t.Helper()
	o := xform.New(&opt.Metadata{}, settings)
	tree, err := testutils.ParseTree(input)
	require.NoError(t, err)
	_, err = optbuilder.New(newTestCatalog(), o.Memo()).Build(tree)
	require.NoError(t, err)
	return o
}

// planOps returns the operators of the tree in preorder.
func planOps(ev memo.ExprView) []opt.Operator {
	ops := []opt.Operator{ev.Operator()}
	for i, n := 0, ev.ChildCount(); i < n; i++ {
		ops = append(ops, planOps(ev.Child(i))...)
	}
	return ops
}

func singletonRoot() *physical.Required {
	return &physical.Required{Distribution: physical.SingletonDist}
}

func TestOptimizeLogicalPushdown(t *testing.T) {
	// The filter lands below the projection.
	o := newOptimizer(t, "(filter (= a 1) (project [a] (scan t)))", xform.Settings{})
	ev, err := o.OptimizeLogical()
	require.NoError(t, err)
	require.Equal(t,
		[]opt.Operator{opt.LogicalProjectOp, opt.LogicalSelectOp, opt.LogicalScanOp},
		planOps(ev))
}

func TestOptimizeLogicalFixpoint(t *testing.T) {
	// The canonical shape is a fixpoint: optimizing it changes nothing.
	o := newOptimizer(t, "(project [a] (filter (= a 1) (scan t)))", xform.Settings{})
	ev, err := o.OptimizeLogical()
	require.NoError(t, err)
	require.Equal(t,
		[]opt.Operator{opt.LogicalProjectOp, opt.LogicalSelectOp, opt.LogicalScanOp},
		planOps(ev))
}

func TestOptimizeLogicalMergeSelects(t *testing.T) {
	o := newOptimizer(t, "(filter (= a 1) (filter (= b 2) (scan t)))", xform.Settings{})
	ev, err := o.OptimizeLogical()
	require.NoError(t, err)
	require.Equal(t, []opt.Operator{opt.LogicalSelectOp, opt.LogicalScanOp}, planOps(ev))

	def := ev.Memo().SelectDef(ev.Private())
	and, ok := def.Filter.(*opt.AndExpr)
	require.True(t, ok, "merged filter must be a conjunction, got %s", def.Filter)
	require.Equal(t, "((@2 = 2) AND (@1 = 1))", and.String())
}

func TestOptimizeLogicalEliminateProject(t *testing.T) {
	// project [a b] forwards t's columns unchanged, so it disappears.
	o := newOptimizer(t, "(filter (= a 1) (project [a b] (scan t)))", xform.Settings{})
	ev, err := o.OptimizeLogical()
	require.NoError(t, err)
	require.Equal(t, []opt.Operator{opt.LogicalSelectOp, opt.LogicalScanOp}, planOps(ev))
}

func TestOptimizeSingletonEnforcement(t *testing.T) {
	// A partitioned scan requires an exchange to produce a singleton root.
	o := newOptimizer(t, "(scan p)", xform.Settings{})
	ev, err := o.Optimize(singletonRoot())
	require.NoError(t, err)
	require.Equal(t, []opt.Operator{opt.ExchangeOp, opt.PhysicalScanOp}, planOps(ev))

	require.True(t, ev.Provided().Distribution.Equals(physical.SingletonDist))

	// The enforcer's cost is the child's cost plus its own, never less.
	child := ev.Child(0)
	require.True(t, child.Provided().Distribution.Equals(
		physical.PartitionedDist(opt.MakeColSet(1))))
	require.False(t, ev.Cost().Less(child.Cost()))
	require.Greater(t, ev.Cost().CPU, child.Cost().CPU)
}

func TestOptimizeSingletonEnforcementDeep(t *testing.T) {
	o := newOptimizer(t, "(filter (= b 1) (project [b] (scan p)))", xform.Settings{})
	ev, err := o.Optimize(singletonRoot())
	require.NoError(t, err)

	require.True(t, ev.Provided().Distribution.Equals(physical.SingletonDist))

	ops := planOps(ev)
	exchanges := 0
	for _, op := range ops {
		require.Equal(t, opt.ConventionPhysical, op.Convention(),
			"%s is not physical", op)
		if op == opt.ExchangeOp {
			exchanges++
		}
	}
	require.Equal(t, 1, exchanges)
	require.Contains(t, ops, opt.PhysicalSelectOp)
	require.Contains(t, ops, opt.PhysicalProjectOp)
	require.Contains(t, ops, opt.PhysicalScanOp)

	// The exchange position is deliberately not asserted. The projection
	// preserves the row count, so exchanging below it costs the same as
	// exchanging at the root; the ratchet keeps the incumbent on ties and
	// members are costed before enforcers, so the below-project placement
	// wins. Only the exchange count and the root distribution are contract.
}

func TestOptimizeOrderingEnforcement(t *testing.T) {
	o := newOptimizer(t, "(scan t)", xform.Settings{})
	a := opt.ColumnID(1)
	required := singletonRoot()
	required.Ordering = opt.Ordering{opt.MakeOrderingColumn(a, false)}

	ev, err := o.Optimize(required)
	require.NoError(t, err)
	require.Equal(t, []opt.Operator{opt.PhysicalSortOp, opt.PhysicalScanOp}, planOps(ev))
	require.True(t, ev.Provided().Ordering.Provides(required.Ordering))
	require.False(t, ev.Cost().Less(ev.Child(0).Cost()))
}

// fixedJoinCoster overrides the cost of the two join realizations and makes
// sorts free, so the test controls the winner directly.
type fixedJoinCoster struct {
	inner       xform.Coster
	hash, merge float64
}

func (c *fixedJoinCoster) ComputeCost(candidate *memo.BestExpr) memo.Cost {
	switch candidate.Operator() {
	case opt.HashJoinOp:
		return memo.Cost{CPU: c.hash}
	case opt.MergeJoinOp:
		return memo.Cost{CPU: c.merge}
	case opt.PhysicalSortOp:
		return memo.Cost{}
	}
	return c.inner.ComputeCost(candidate)
}

func TestOptimizeJoinRealizationChoice(t *testing.T) {
	const input = "(join (= a c) (scan t) (scan u))"

	t.Run("merge-join-cheaper", func(t *testing.T) {
		o := newOptimizer(t, input, xform.Settings{})
		o.SetCoster(&fixedJoinCoster{inner: xform.NewDefaultCoster(o.Memo()), hash: 100, merge: 80})
		ev, err := o.Optimize(singletonRoot())
		require.NoError(t, err)
		require.Equal(t, opt.MergeJoinOp, ev.Operator())
		// Merge join requires both inputs sorted on the join key.
		require.Equal(t, opt.PhysicalSortOp, ev.Child(0).Operator())
		require.Equal(t, opt.PhysicalSortOp, ev.Child(1).Operator())
	})

	t.Run("hash-join-cheaper", func(t *testing.T) {
		o := newOptimizer(t, input, xform.Settings{})
		o.SetCoster(&fixedJoinCoster{inner: xform.NewDefaultCoster(o.Memo()), hash: 80, merge: 100})
		ev, err := o.Optimize(singletonRoot())
		require.NoError(t, err)
		require.Equal(t, opt.HashJoinOp, ev.Operator())
		require.Equal(t, opt.PhysicalScanOp, ev.Child(0).Operator())
		require.Equal(t, opt.PhysicalScanOp, ev.Child(1).Operator())
	})
}

func TestOptimizeUnsatisfiableTraits(t *testing.T) {
	t.Run("no-physical-realization", func(t *testing.T) {
		var disabled opt.RuleSet
		disabled.Add(int(opt.ImplementScan))
		o := newOptimizer(t, "(scan t)", xform.Settings{DisabledRules: disabled})

		_, err := o.Optimize(singletonRoot())
		require.Error(t, err)
		reason, ok := opt.IsOptimizationError(err)
		require.True(t, ok)
		require.Equal(t, opt.UnsatisfiableTraits, reason)
	})

	t.Run("no-enforcer-to-replicated", func(t *testing.T) {
		o := newOptimizer(t, "(scan t)", xform.Settings{})
		_, err := o.Optimize(&physical.Required{Distribution: physical.ReplicatedDist})
		require.Error(t, err)
		reason, ok := opt.IsOptimizationError(err)
		require.True(t, ok)
		require.Equal(t, opt.UnsatisfiableTraits, reason)
	})
}

func TestOptimizeNoLogicalPlan(t *testing.T) {
	var disabled opt.RuleSet
	disabled.Add(int(opt.ScanToLogicalScan))
	o := newOptimizer(t, "(scan t)", xform.Settings{DisabledRules: disabled})

	_, err := o.OptimizeLogical()
	require.Error(t, err)
	reason, ok := opt.IsOptimizationError(err)
	require.True(t, ok)
	require.Equal(t, opt.NoLogicalPlan, reason)
}

func TestOptimizeDeterminism(t *testing.T) {
	const input = "(filter (= a 1) (project [a] (join (= a c) (scan p) (scan u))))"

	run := func() string {
		o := newOptimizer(t, input, xform.Settings{})
		ev, err := o.Optimize(singletonRoot())
		require.NoError(t, err)
		return ev.String()
	}

	first := run()
	for i := 0; i < 5; i++ {
		require.Equal(t, first, run())
	}
}

func TestOptimizePhases(t *testing.T) {
	// Running the logical phase explicitly and then the physical phase gives
	// the same plan as running Optimize directly.
	direct := newOptimizer(t, "(filter (= a 1) (scan t))", xform.Settings{})
	directPlan, err := direct.Optimize(singletonRoot())
	require.NoError(t, err)

	staged := newOptimizer(t, "(filter (= a 1) (scan t))", xform.Settings{})
	logical, err := staged.OptimizeLogical()
	require.NoError(t, err)
	require.Equal(t,
		[]opt.Operator{opt.LogicalSelectOp, opt.LogicalScanOp}, planOps(logical))

	stagedPlan, err := staged.Optimize(singletonRoot())
	require.NoError(t, err)
	require.Equal(t, directPlan.String(), stagedPlan.String())
}

func TestOptimizeAggregation(t *testing.T) {
	o := newOptimizer(t,
		"(aggregate [a] [(total sum b)] (filter (> b 0) (scan t)))", xform.Settings{})
	ev, err := o.Optimize(singletonRoot())
	require.NoError(t, err)
	require.Equal(t,
		[]opt.Operator{opt.HashGroupByOp, opt.PhysicalSelectOp, opt.PhysicalScanOp},
		planOps(ev))
	require.True(t, ev.Provided().Distribution.Equals(physical.SingletonDist))
}

func TestOptimizeOrderBy(t *testing.T) {
	o := newOptimizer(t, "(order-by [+a] (scan t))", xform.Settings{})
	ev, err := o.Optimize(singletonRoot())
	require.NoError(t, err)
	require.Equal(t, []opt.Operator{opt.PhysicalSortOp, opt.PhysicalScanOp}, planOps(ev))
	require.Equal(t, "+1", ev.Provided().Ordering.String())
}
