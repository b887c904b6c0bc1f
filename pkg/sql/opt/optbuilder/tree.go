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

package optbuilder

import "github.com/silodb/silo/pkg/sql/types"

// Node is a relational node of a validated input tree. The surrounding
// compiler parses and validates the query; the builder only resolves names
// against the catalog and registers the tree into the memo.
type Node interface {
	node()
}

// Scan reads a catalog table.
type Scan struct {
	Table string
}

// Filter keeps the input rows matching a predicate.
type Filter struct {
	Input Node
	Pred  Scalar
}

// Project computes a list of output columns from its input.
type Project struct {
	Input Node
	Cols  []ProjectCol
}

// ProjectCol is one projected column: a passthrough of an input column when
// Expr is nil, or a computed column under a new name.
type ProjectCol struct {
	Name string
	Expr Scalar
	Type types.T
}

// Join combines two inputs on a boolean condition.
type Join struct {
	Left  Node
	Right Node
	On    Scalar
}

// Aggregate groups its input and computes aggregate functions per group.
type Aggregate struct {
	Input   Node
	GroupBy []string
	Aggs    []AggCol
}

// AggCol is one aggregate output column.
type AggCol struct {
	Name string
	Func string
	Arg  string
	Type types.T
}

// OrderBy orders the input rows.
type OrderBy struct {
	Input Node
	Cols  []OrderItem
}

// OrderItem is one sort key.
type OrderItem struct {
	Col        string
	Descending bool
}

func (*Scan) node()      {}
func (*Filter) node()    {}
func (*Project) node()   {}
func (*Join) node()      {}
func (*Aggregate) node() {}
func (*OrderBy) node()   {}

// Scalar is a scalar expression of a validated input tree, with columns
// still referenced by name.
type Scalar interface {
	scalar()
}

// ColRef references an in-scope column by name.
type ColRef struct {
	Name string
}

// Lit is a constant value.
type Lit struct {
	Val interface{}
	Typ types.T
}

// Cmp compares two scalars. Op is one of "=", "<", ">", "<=", ">=", "!=".
type Cmp struct {
	Op    string
	Left  Scalar
	Right Scalar
}

// And is a boolean conjunction.
type And struct {
	Left  Scalar
	Right Scalar
}

// Or is a boolean disjunction.
type Or struct {
	Left  Scalar
	Right Scalar
}

// Not is a boolean negation.
type Not struct {
	Input Scalar
}

func (*ColRef) scalar() {}
func (*Lit) scalar()    {}
func (*Cmp) scalar()    {}
func (*And) scalar()    {}
func (*Or) scalar()     {}
func (*Not) scalar()    {}
