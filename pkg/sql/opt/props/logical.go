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

// Package props defines the logical properties shared by all expressions in
// the same equivalence group. Logical properties are derived bottom-up when a
// group is created and never change afterwards: a rewrite that would alter
// them is not an equivalent rewrite and is rejected at registration time.
package props

import (
	"github.com/silodb/silo/pkg/sql/opt"
)

// Relational properties are the logical properties of relational expressions.
type Relational struct {
	// OutputCols is the ordered list of columns returned by the expression.
	// This is the expression's row schema: together with the query metadata it
	// gives the name and type of every output field. All members of an
	// equivalence group have identical OutputCols.
	OutputCols opt.ColList

	// Stats holds the estimated statistics of the expression's output,
	// derived once per group from catalog statistics and default
	// selectivities.
	Stats Statistics
}

// OutputColSet returns the output columns as an unordered set.
func (r *Relational) OutputColSet() opt.ColSet {
	return r.OutputCols.ToSet()
}

// Statistics is a collection of measurements and statistics that is used by
// the coster to estimate the cost of expressions. Statistics are collected
// for tables and are propagated through expressions using derivation rules
// with default selectivities where no better information exists.
type Statistics struct {
	// RowCount is the estimated number of rows returned by the expression.
	RowCount float64
}

// UnknownFilterSelectivity is the default fraction of rows assumed to pass a
// predicate when nothing better is known.
const UnknownFilterSelectivity = 1.0 / 3.0

// UnknownJoinSelectivity is the default fraction of the cross product
// assumed to survive a join condition.
const UnknownJoinSelectivity = 1.0 / 10.0

// UnknownDistinctFraction is the default fraction of input rows assumed to
// be distinct when grouping.
const UnknownDistinctFraction = 1.0 / 10.0
