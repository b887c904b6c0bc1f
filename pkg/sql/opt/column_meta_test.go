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

func TestOrderingColumn(t *testing.T) {
	asc := opt.MakeOrderingColumn(5, false)
	require.Equal(t, opt.ColumnID(5), asc.ID())
	require.True(t, asc.Ascending())
	require.Equal(t, "+5", asc.String())

	desc := opt.MakeOrderingColumn(5, true)
	require.Equal(t, opt.ColumnID(5), desc.ID())
	require.True(t, desc.Descending())
	require.Equal(t, "-5", desc.String())
}

func TestOrderingProvides(t *testing.T) {
	ab := opt.Ordering{opt.MakeOrderingColumn(1, false), opt.MakeOrderingColumn(2, true)}
	a := opt.Ordering{opt.MakeOrderingColumn(1, false)}
	aDesc := opt.Ordering{opt.MakeOrderingColumn(1, true)}
	b := opt.Ordering{opt.MakeOrderingColumn(2, true)}

	// Empty requirements are satisfied by anything.
	require.True(t, ab.Provides(opt.Ordering{}))
	require.True(t, opt.Ordering{}.Provides(opt.Ordering{}))

	// A required ordering must be a prefix of the provided one.
	require.True(t, ab.Provides(a))
	require.True(t, ab.Provides(ab))
	require.False(t, a.Provides(ab))
	require.False(t, ab.Provides(b))
	require.False(t, ab.Provides(aDesc))
	require.False(t, opt.Ordering{}.Provides(a))
}

func TestColList(t *testing.T) {
	cols := opt.ColList{3, 1, 2}
	require.True(t, cols.Equals(opt.ColList{3, 1, 2}))
	require.False(t, cols.Equals(opt.ColList{1, 2, 3}))
	require.False(t, cols.Equals(opt.ColList{3, 1}))

	set := cols.ToSet()
	require.True(t, set.Contains(1))
	require.True(t, set.Contains(3))
	require.False(t, set.Contains(4))
}
