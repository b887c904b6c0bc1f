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
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
)

// Expr is a memoized expression: an operator applied to zero or more child
// groups, plus an optional interned payload holding everything about the
// operator that is not a relational child (scanned table, filter predicate,
// projection list, sort order, and so on).
//
// An Expr never references child expressions directly. Each child is an
// equivalence group id, so a single memoized expression stands for the cross
// product of all member combinations of its child groups. Exprs are
// immutable and are deduplicated by fingerprint when registered.
type Expr struct {
	// op is this expression's operator.
	op opt.Operator

	// children are the ids of the child groups, in operator-defined order.
	children []GroupID

	// private is the id of the interned operator payload, or 0 if the
	// operator carries none.
	private PrivateID
}

// MakeExpr constructs an expression from an operator, its child groups and
// an interned payload id.
func MakeExpr(op opt.Operator, children []GroupID, private PrivateID) Expr {
	return Expr{op: op, children: children, private: private}
}

// Operator returns the expression's operator.
func (e *Expr) Operator() opt.Operator {
	return e.op
}

// ChildCount returns the number of child groups.
func (e *Expr) ChildCount() int {
	return len(e.children)
}

// ChildGroup returns the id of the nth child group.
func (e *Expr) ChildGroup(nth int) GroupID {
	if nth < 0 || nth >= len(e.children) {
		panic(errors.AssertionFailedf("child %d out of range for %s", nth, errors.Safe(e.op)))
	}
	return e.children[nth]
}

// Private returns the id of the expression's interned payload, or 0.
func (e *Expr) Private() PrivateID {
	return e.private
}

// fingerprint returns a byte string that uniquely identifies the expression
// for interning: two expressions have equal fingerprints if and only if they
// have the same operator, child groups and payload.
func (e *Expr) fingerprint() string {
	var buf bytes.Buffer
	var scratch [4]byte
	buf.WriteByte(byte(e.op))
	for _, child := range e.children {
		binary.BigEndian.PutUint32(scratch[:], uint32(child))
		buf.Write(scratch[:])
	}
	binary.BigEndian.PutUint32(scratch[:], uint32(e.private))
	buf.Write(scratch[:])
	return buf.String()
}
