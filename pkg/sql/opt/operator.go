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
	"fmt"

	"github.com/cockroachdb/redact"
)

var (
	_ redact.SafeValue = Operator(0)
	_ redact.SafeValue = Convention(0)
)

// Operator describes the type of operation that a memo expression performs.
// The set is closed: every relational operator the optimizer can produce is
// enumerated here, so that rule matching and property derivation can be
// written as exhaustive switches which the compiler helps keep complete when
// an operator is added.
//
// Operators are split into three conventions. Unconverted operators are what
// the builder registers from the validated input tree. Logical operators are
// the canonical form produced by the logical phase. Physical operators are
// executable realizations produced by the physical phase, including the two
// enforcers (PhysicalSort, Exchange) which exist only to provide a required
// trait.
type Operator uint8

const (
	UnknownOp Operator = iota

	// -- Unconverted relational operators (ConventionNone) --

	// ScanOp returns rows from a table resolved in the metadata.
	ScanOp

	// SelectOp filters rows from its input using a boolean predicate.
	SelectOp

	// ProjectOp computes a new set of output columns from its input.
	ProjectOp

	// InnerJoinOp joins two inputs on a boolean condition.
	InnerJoinOp

	// GroupByOp aggregates its input per group of grouping columns.
	GroupByOp

	// SortOp orders its input rows. In the unconverted tree this represents an
	// ORDER BY; after the physical phase sorting is expressed either by the
	// PhysicalSortOp enforcer or by an operator that provides the ordering.
	SortOp

	// -- Logical operators (ConventionLogical) --

	LogicalScanOp
	LogicalSelectOp
	LogicalProjectOp
	LogicalInnerJoinOp
	LogicalGroupByOp
	LogicalSortOp

	// -- Physical operators (ConventionPhysical) --

	PhysicalScanOp
	PhysicalSelectOp
	PhysicalProjectOp

	// HashJoinOp builds a hash table from its right input and probes it with
	// rows from its left input.
	HashJoinOp

	// MergeJoinOp joins two inputs ordered on the join key.
	MergeJoinOp

	// HashGroupByOp aggregates its input using a hash table keyed on the
	// grouping columns.
	HashGroupByOp

	// PhysicalSortOp is the collation enforcer. It sorts its input to provide
	// a required ordering.
	PhysicalSortOp

	// ExchangeOp is the distribution enforcer. It moves rows between compute
	// nodes to provide a required distribution.
	ExchangeOp

	// NumOperators tracks the maximum value of any operator.
	NumOperators
)

var opNames = [NumOperators]string{
	UnknownOp: "unknown",

	ScanOp:      "scan",
	SelectOp:    "select",
	ProjectOp:   "project",
	InnerJoinOp: "inner-join",
	GroupByOp:   "group-by",
	SortOp:      "sort",

	LogicalScanOp:      "logical-scan",
	LogicalSelectOp:    "logical-select",
	LogicalProjectOp:   "logical-project",
	LogicalInnerJoinOp: "logical-inner-join",
	LogicalGroupByOp:   "logical-group-by",
	LogicalSortOp:      "logical-sort",

	PhysicalScanOp:    "physical-scan",
	PhysicalSelectOp:  "physical-select",
	PhysicalProjectOp: "physical-project",
	HashJoinOp:        "hash-join",
	MergeJoinOp:       "merge-join",
	HashGroupByOp:     "hash-group-by",
	PhysicalSortOp:    "physical-sort",
	ExchangeOp:        "exchange",
}

func (op Operator) String() string {
	if op >= NumOperators {
		return fmt.Sprintf("operator(%d)", op)
	}
	return opNames[op]
}

// SafeValue implements the redact.SafeValue interface.
func (op Operator) SafeValue() {}

// Convention is the trait dimension that distinguishes unconverted, logical
// and physical expression forms. An operator's convention is fixed by its
// kind.
type Convention uint8

const (
	// ConventionNone marks unconverted expressions registered from the input
	// tree.
	ConventionNone Convention = iota

	// ConventionLogical marks canonical logical expressions.
	ConventionLogical

	// ConventionPhysical marks executable physical expressions.
	ConventionPhysical
)

func (c Convention) String() string {
	switch c {
	case ConventionNone:
		return "none"
	case ConventionLogical:
		return "logical"
	case ConventionPhysical:
		return "physical"
	}
	return fmt.Sprintf("convention(%d)", uint8(c))
}

// SafeValue implements the redact.SafeValue interface.
func (c Convention) SafeValue() {}

// Convention returns the convention trait provided by expressions of this
// operator kind.
func (op Operator) Convention() Convention {
	switch op {
	case ScanOp, SelectOp, ProjectOp, InnerJoinOp, GroupByOp, SortOp:
		return ConventionNone
	case LogicalScanOp, LogicalSelectOp, LogicalProjectOp, LogicalInnerJoinOp,
		LogicalGroupByOp, LogicalSortOp:
		return ConventionLogical
	case PhysicalScanOp, PhysicalSelectOp, PhysicalProjectOp, HashJoinOp,
		MergeJoinOp, HashGroupByOp, PhysicalSortOp, ExchangeOp:
		return ConventionPhysical
	}
	panic(fmt.Sprintf("operator %s has no convention", op))
}

// IsEnforcer returns true for operators that exist only to provide a required
// physical trait on top of another expression from the same group.
func (op Operator) IsEnforcer() bool {
	return op == PhysicalSortOp || op == ExchangeOp
}

// CanonicalForm folds an operator to the unconverted operator that fixes its
// shape: child arity, payload type and logical properties are identical
// across the conversions and realizations of one unconverted operator, so
// shape switches are written over the canonical form. ExchangeOp folds to
// UnknownOp; the exchange enforcer is never a group member and has no
// unconverted counterpart.
func (op Operator) CanonicalForm() Operator {
	switch op {
	case ScanOp, LogicalScanOp, PhysicalScanOp:
		return ScanOp
	case SelectOp, LogicalSelectOp, PhysicalSelectOp:
		return SelectOp
	case ProjectOp, LogicalProjectOp, PhysicalProjectOp:
		return ProjectOp
	case InnerJoinOp, LogicalInnerJoinOp, HashJoinOp, MergeJoinOp:
		return InnerJoinOp
	case GroupByOp, LogicalGroupByOp, HashGroupByOp:
		return GroupByOp
	case SortOp, LogicalSortOp, PhysicalSortOp:
		return SortOp
	}
	return UnknownOp
}
