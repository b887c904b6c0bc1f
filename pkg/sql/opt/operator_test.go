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

package opt_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silodb/silo/pkg/sql/opt"
)

func TestOperatorCanonicalForm(t *testing.T) {
	testCases := []struct {
		op       opt.Operator
		expected opt.Operator
	}{
		{opt.ScanOp, opt.ScanOp},
		{opt.LogicalScanOp, opt.ScanOp},
		{opt.PhysicalScanOp, opt.ScanOp},
		{opt.SelectOp, opt.SelectOp},
		{opt.LogicalSelectOp, opt.SelectOp},
		{opt.PhysicalSelectOp, opt.SelectOp},
		{opt.ProjectOp, opt.ProjectOp},
		{opt.LogicalProjectOp, opt.ProjectOp},
		{opt.PhysicalProjectOp, opt.ProjectOp},
		{opt.InnerJoinOp, opt.InnerJoinOp},
		{opt.LogicalInnerJoinOp, opt.InnerJoinOp},
		{opt.HashJoinOp, opt.InnerJoinOp},
		{opt.MergeJoinOp, opt.InnerJoinOp},
		{opt.GroupByOp, opt.GroupByOp},
		{opt.LogicalGroupByOp, opt.GroupByOp},
		{opt.HashGroupByOp, opt.GroupByOp},
		{opt.SortOp, opt.SortOp},
		{opt.LogicalSortOp, opt.SortOp},
		{opt.PhysicalSortOp, opt.SortOp},
		{opt.ExchangeOp, opt.UnknownOp},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, tc.op.CanonicalForm(), "%s", tc.op)
	}

	// Every relational operator except the exchange enforcer must fold to an
	// unconverted operator, and the fold must be the identity on unconverted
	// operators.
	for op := opt.ScanOp; op < opt.NumOperators; op++ {
		canonical := op.CanonicalForm()
		if op == opt.ExchangeOp {
			require.Equal(t, opt.UnknownOp, canonical)
			continue
		}
		require.Equal(t, opt.ConventionNone, canonical.Convention(), "%s", op)
		require.Equal(t, canonical, canonical.CanonicalForm(), "%s", op)
	}
}
