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

	"github.com/silodb/silo/pkg/sql/types"
)

// ScalarExpr is an immutable scalar expression tree, used as operator payload
// for predicates, projections, join conditions and aggregations. Scalar
// expressions arrive from the validator with resolved types and column
// references; the optimizer treats them as opaque values apart from the
// column sets they reference. They are not memoized: equivalent payloads are
// deduplicated through their deterministic encoding.
type ScalarExpr interface {
	fmt.Stringer

	// DataType is the resolved result type of the expression.
	DataType() types.T

	// ScalarCols returns the set of columns referenced by this expression and
	// its subtree.
	ScalarCols() ColSet

	// Encode appends a deterministic, unambiguous representation of this
	// expression to the buffer. Two expressions encode identically iff they
	// are structurally identical.
	Encode(buf *bytes.Buffer)
}

// ComparisonOperator identifies a binary boolean comparison.
type ComparisonOperator uint8

const (
	EqOp ComparisonOperator = iota
	LtOp
	GtOp
	LeOp
	GeOp
	NeOp
)

var cmpNames = [...]string{EqOp: "=", LtOp: "<", GtOp: ">", LeOp: "<=", GeOp: ">=", NeOp: "!="}

func (op ComparisonOperator) String() string { return cmpNames[op] }

// VariableExpr is a leaf expression that references a metadata column.
type VariableExpr struct {
	Col ColumnID
	Typ types.T
}

// ConstExpr is a leaf expression holding a constant value.
type ConstExpr struct {
	Value interface{}
	Typ   types.T
}

// ComparisonExpr compares the values of its two inputs.
type ComparisonExpr struct {
	Op          ComparisonOperator
	Left, Right ScalarExpr
}

// AndExpr is the boolean conjunction of its two inputs.
type AndExpr struct {
	Left, Right ScalarExpr
}

// OrExpr is the boolean disjunction of its two inputs.
type OrExpr struct {
	Left, Right ScalarExpr
}

// NotExpr negates its boolean input.
type NotExpr struct {
	Input ScalarExpr
}

// FunctionExpr applies a named (possibly aggregate) function to its
// arguments.
type FunctionExpr struct {
	Name string
	Args []ScalarExpr
	Typ  types.T
}

func (v *VariableExpr) DataType() types.T { return v.Typ }
func (c *ConstExpr) DataType() types.T    { return c.Typ }
func (f *FunctionExpr) DataType() types.T { return f.Typ }

func (c *ComparisonExpr) DataType() types.T { return types.Bool }
func (a *AndExpr) DataType() types.T        { return types.Bool }
func (o *OrExpr) DataType() types.T         { return types.Bool }
func (n *NotExpr) DataType() types.T        { return types.Bool }

func (v *VariableExpr) ScalarCols() ColSet { return MakeColSet(v.Col) }
func (c *ConstExpr) ScalarCols() ColSet    { return ColSet{} }

func (c *ComparisonExpr) ScalarCols() ColSet {
	return c.Left.ScalarCols().Union(c.Right.ScalarCols())
}

func (a *AndExpr) ScalarCols() ColSet {
	return a.Left.ScalarCols().Union(a.Right.ScalarCols())
}

func (o *OrExpr) ScalarCols() ColSet {
	return o.Left.ScalarCols().Union(o.Right.ScalarCols())
}

func (n *NotExpr) ScalarCols() ColSet { return n.Input.ScalarCols() }

func (f *FunctionExpr) ScalarCols() ColSet {
	var cs ColSet
	for _, arg := range f.Args {
		cs.UnionWith(arg.ScalarCols())
	}
	return cs
}

func (v *VariableExpr) String() string { return fmt.Sprintf("@%d", v.Col) }
func (c *ConstExpr) String() string    { return fmt.Sprintf("%v", c.Value) }

func (c *ComparisonExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

func (a *AndExpr) String() string { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }
func (o *OrExpr) String() string  { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }
func (n *NotExpr) String() string { return fmt.Sprintf("(NOT %s)", n.Input) }

func (f *FunctionExpr) String() string {
	var buf bytes.Buffer
	buf.WriteString(f.Name)
	buf.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(arg.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

func (v *VariableExpr) Encode(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "var<%d>", v.Col)
}

func (c *ConstExpr) Encode(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "const<%s:%v>", c.Typ, c.Value)
}

func (c *ComparisonExpr) Encode(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "cmp<%d>(", c.Op)
	c.Left.Encode(buf)
	buf.WriteByte(',')
	c.Right.Encode(buf)
	buf.WriteByte(')')
}

func (a *AndExpr) Encode(buf *bytes.Buffer) {
	buf.WriteString("and(")
	a.Left.Encode(buf)
	buf.WriteByte(',')
	a.Right.Encode(buf)
	buf.WriteByte(')')
}

func (o *OrExpr) Encode(buf *bytes.Buffer) {
	buf.WriteString("or(")
	o.Left.Encode(buf)
	buf.WriteByte(',')
	o.Right.Encode(buf)
	buf.WriteByte(')')
}

func (n *NotExpr) Encode(buf *bytes.Buffer) {
	buf.WriteString("not(")
	n.Input.Encode(buf)
	buf.WriteByte(')')
}

func (f *FunctionExpr) Encode(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "fn<%s>(", f.Name)
	for i, arg := range f.Args {
		if i > 0 {
			buf.WriteByte(',')
		}
		arg.Encode(buf)
	}
	buf.WriteByte(')')
}
