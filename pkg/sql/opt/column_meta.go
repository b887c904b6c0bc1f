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

package opt

import (
	"bytes"
	"fmt"

	"github.com/silodb/silo/pkg/util"
)

// ColumnID uniquely identifies the usage of a column within the scope of a
// query. ColumnID 0 is reserved to mean "unknown column". See the comment for
// Metadata for more details.
type ColumnID int32

// ColSet efficiently stores an unordered set of column ids.
type ColSet = util.FastIntSet

// ColList is an ordered list of column ids.
type ColList []ColumnID

// ColMap provides a 1:1 mapping from one column id to another. It is used by
// operators that need to match columns from their inputs.
type ColMap = util.FastIntMap

// MakeColSet returns a set initialized with the given values.
func MakeColSet(vals ...ColumnID) ColSet {
	var res ColSet
	for _, v := range vals {
		res.Add(int(v))
	}
	return res
}

// ToSet converts the list to a set of column ids.
func (cl ColList) ToSet() ColSet {
	var res ColSet
	for _, col := range cl {
		res.Add(int(col))
	}
	return res
}

// Equals returns true if this list has the same columns as the given list, in
// the same order.
func (cl ColList) Equals(other ColList) bool {
	if len(cl) != len(other) {
		return false
	}
	for i := range cl {
		if cl[i] != other[i] {
			return false
		}
	}
	return true
}

func (cl ColList) String() string {
	var buf bytes.Buffer
	for i, col := range cl {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%d", col)
	}
	return buf.String()
}

// OrderingColumn is the ColumnID for a column that is part of an ordering,
// except that it can be negated to indicate a descending ordering on that
// column.
type OrderingColumn int32

// MakeOrderingColumn initializes an ordering column with a ColumnID and a
// flag indicating whether the direction is descending.
func MakeOrderingColumn(id ColumnID, descending bool) OrderingColumn {
	if descending {
		return OrderingColumn(-id)
	}
	return OrderingColumn(id)
}

// ID returns the ColumnID for this OrderingColumn.
func (c OrderingColumn) ID() ColumnID {
	if c < 0 {
		return ColumnID(-c)
	}
	return ColumnID(c)
}

// Ascending returns true if the ordering on this column is ascending.
func (c OrderingColumn) Ascending() bool {
	return c > 0
}

// Descending returns true if the ordering on this column is descending.
func (c OrderingColumn) Descending() bool {
	return c < 0
}

func (c OrderingColumn) String() string {
	if c.Descending() {
		return fmt.Sprintf("-%d", c.ID())
	}
	return fmt.Sprintf("+%d", c.ID())
}

// Ordering defines the order of rows provided or required by an expression.
// A negative value indicates descending order on the column id "-(value)".
type Ordering []OrderingColumn

// Empty returns true if the ordering is unspecified.
func (o Ordering) Empty() bool {
	return len(o) == 0
}

// Equals returns true if the two orderings are identical.
func (o Ordering) Equals(other Ordering) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Provides returns true if rows in this ordering also satisfy the required
// ordering. An ordering provides a required ordering when the required
// columns are a prefix of the provided columns; the empty required ordering
// is provided by anything.
func (o Ordering) Provides(required Ordering) bool {
	if len(required) > len(o) {
		return false
	}
	for i := range required {
		if o[i] != required[i] {
			return false
		}
	}
	return true
}

// ColSet returns the set of column ids referenced by the ordering.
func (o Ordering) ColSet() ColSet {
	var cs ColSet
	for _, col := range o {
		cs.Add(int(col.ID()))
	}
	return cs
}

func (o Ordering) String() string {
	var buf bytes.Buffer
	for i, col := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(col.String())
	}
	return buf.String()
}
