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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCostLess(t *testing.T) {
	testCases := []struct {
		left, right Cost
		expected    bool
	}{
		// Rows dominate.
		{Cost{Rows: 1}, Cost{Rows: 2}, true},
		{Cost{Rows: 2}, Cost{Rows: 1}, false},
		{Cost{Rows: 1, CPU: 100, IO: 100}, Cost{Rows: 2}, true},

		// CPU breaks row ties.
		{Cost{Rows: 5, CPU: 1}, Cost{Rows: 5, CPU: 2}, true},
		{Cost{Rows: 5, CPU: 2, IO: 0}, Cost{Rows: 5, CPU: 1, IO: 100}, false},

		// IO breaks cpu ties.
		{Cost{Rows: 5, CPU: 1, IO: 1}, Cost{Rows: 5, CPU: 1, IO: 2}, true},
		{Cost{Rows: 5, CPU: 1, IO: 2}, Cost{Rows: 5, CPU: 1, IO: 1}, false},

		// Equal costs are not less than each other.
		{Cost{Rows: 5, CPU: 1, IO: 1}, Cost{Rows: 5, CPU: 1, IO: 1}, false},
		{Cost{}, Cost{}, false},

		// Tiny relative differences count as equal.
		{Cost{Rows: 5, CPU: 1}, Cost{Rows: 5 * (1 + 1e-12), CPU: 2}, true},
		{Cost{Rows: 5 * (1 + 1e-12)}, Cost{Rows: 5}, false},

		// Nothing is cheaper than MaxCost, including MaxCost.
		{Cost{Rows: 1e100}, MaxCost, true},
		{MaxCost, Cost{Rows: 1e100}, false},
		{MaxCost, MaxCost, false},

		// A single infinite component loses a tie-break against a finite one.
		{Cost{Rows: 5, CPU: 1}, Cost{Rows: 5, CPU: math.Inf(1)}, true},
		{Cost{Rows: 5, CPU: math.Inf(1)}, Cost{Rows: 5, CPU: 1}, false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, tc.left.Less(tc.right),
			"%s < %s", tc.left, tc.right)
	}
}

func TestCostAdd(t *testing.T) {
	c := Cost{Rows: 1, CPU: 2, IO: 3}
	c.Add(Cost{Rows: 10, CPU: 20, IO: 30})
	require.Equal(t, Cost{Rows: 11, CPU: 22, IO: 33}, c)
}

func TestCostString(t *testing.T) {
	require.Equal(t, "rows=1.50 cpu=0.25 io=0.00", Cost{Rows: 1.5, CPU: 0.25}.String())
}
