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

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

var _ redact.SafeValue = OptimizationReason(0)

// OptimizationReason classifies the ways in which an optimization can fail.
// Parsing and validation failures belong to upstream collaborators and are
// never produced here.
type OptimizationReason uint8

const (
	// NoLogicalPlan means the logical phase could not produce a canonical
	// logical tree for the input.
	NoLogicalPlan OptimizationReason = iota

	// UnsatisfiableTraits means no physical member of the root group can be
	// made to satisfy the caller's required traits, even after enforcement.
	UnsatisfiableTraits

	// RuleFailureExhausted means every applicable rule firing for some group
	// failed, leaving the group without any usable member.
	RuleFailureExhausted
)

func (r OptimizationReason) String() string {
	switch r {
	case NoLogicalPlan:
		return "NO_LOGICAL_PLAN"
	case UnsatisfiableTraits:
		return "UNSATISFIABLE_TRAITS"
	case RuleFailureExhausted:
		return "RULE_FAILURE_EXHAUSTED"
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// SafeValue implements the redact.SafeValue interface.
func (r OptimizationReason) SafeValue() {}

// OptimizationError is the only error type surfaced by the optimizer for
// non-assertion failures. A compilation either yields a fully-costed plan or
// an OptimizationError; partial plans are never returned.
type OptimizationError struct {
	Reason OptimizationReason
	msg    string
}

// NewOptimizationError constructs an OptimizationError with the given reason
// and message.
func NewOptimizationError(reason OptimizationReason, format string, args ...interface{}) error {
	return &OptimizationError{Reason: reason, msg: fmt.Sprintf(format, args...)}
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("optimization failed (%s): %s", e.Reason, e.msg)
}

// IsOptimizationError returns the failure reason if err is an
// OptimizationError (possibly wrapped).
func IsOptimizationError(err error) (OptimizationReason, bool) {
	var oe *OptimizationError
	if errors.As(err, &oe) {
		return oe.Reason, true
	}
	return 0, false
}
