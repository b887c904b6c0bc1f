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

package physical_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
)

func TestDistributionSatisfies(t *testing.T) {
	partAB := physical.PartitionedDist(opt.MakeColSet(1, 2))
	partC := physical.PartitionedDist(opt.MakeColSet(3))

	testCases := []struct {
		actual, required physical.Distribution
		expected         bool
	}{
		// Any requirement is satisfied by every concrete distribution.
		{physical.SingletonDist, physical.AnyDist, true},
		{physical.ReplicatedDist, physical.AnyDist, true},
		{partAB, physical.AnyDist, true},
		{physical.AnyDist, physical.AnyDist, true},

		{physical.SingletonDist, physical.SingletonDist, true},
		{partAB, physical.SingletonDist, false},

		// A replica on every node is not the single stream a singleton
		// requirement demands.
		{physical.ReplicatedDist, physical.SingletonDist, false},

		// Partitioned requirements demand matching keys.
		{partAB, partAB, true},
		{partC, partAB, false},
		{physical.SingletonDist, partAB, false},

		{physical.ReplicatedDist, physical.ReplicatedDist, true},
		{physical.SingletonDist, physical.ReplicatedDist, false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, tc.actual.Satisfies(tc.required),
			"%s satisfies %s", tc.actual, tc.required)
	}
}

func TestDistributionCanEnforce(t *testing.T) {
	partAB := physical.PartitionedDist(opt.MakeColSet(1, 2))

	testCases := []struct {
		actual, required physical.Distribution
		expected         bool
	}{
		// An exchange can collect partitioned or replicated streams.
		{partAB, physical.SingletonDist, true},
		{physical.ReplicatedDist, physical.SingletonDist, true},

		// Already satisfied, nothing to enforce.
		{physical.SingletonDist, physical.SingletonDist, false},
		{partAB, physical.AnyDist, false},

		// An exchange can repartition.
		{physical.SingletonDist, partAB, true},
		{physical.ReplicatedDist, partAB, true},

		// There is no enforcer producing a replicated result.
		{partAB, physical.ReplicatedDist, false},
		{physical.SingletonDist, physical.ReplicatedDist, false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, physical.CanEnforce(tc.actual, tc.required),
			"enforce %s from %s", tc.required, tc.actual)
	}
}

func TestRequiredFingerprint(t *testing.T) {
	a := &physical.Required{
		Convention:   opt.ConventionPhysical,
		Distribution: physical.SingletonDist,
		Ordering:     opt.Ordering{opt.MakeOrderingColumn(1, false)},
	}
	b := &physical.Required{
		Convention:   opt.ConventionPhysical,
		Distribution: physical.SingletonDist,
		Ordering:     opt.Ordering{opt.MakeOrderingColumn(1, false)},
	}
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.True(t, a.Equals(b))

	c := &physical.Required{
		Convention:   opt.ConventionPhysical,
		Distribution: physical.SingletonDist,
		Ordering:     opt.Ordering{opt.MakeOrderingColumn(1, true)},
	}
	require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	require.False(t, a.Equals(c))

	require.False(t, physical.MinRequired.Defined())
	require.True(t, a.Defined())
}
