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

	"github.com/silodb/silo/pkg/util"
)

var _ redact.SafeValue = RuleName(0)

// RuleName enumerates the transformation and conversion rules used by the
// optimizer. Rule names are stable identifiers used for logging and for the
// testing knob that disables individual rules.
type RuleName uint32

const (
	InvalidRuleName RuleName = iota

	// -- Logical phase: transformation rules --

	// MergeSelects combines two nested Select operators into one, ANDing
	// their predicates.
	MergeSelects

	// PushSelectIntoProject transposes a Select with its Project input when
	// the predicate only references passthrough columns.
	PushSelectIntoProject

	// EliminateProject removes a Project that passes through all of its
	// input's columns unchanged.
	EliminateProject

	// -- Logical phase: conversion rules (unconverted to logical) --

	ScanToLogicalScan
	SelectToLogicalSelect
	ProjectToLogicalProject
	InnerJoinToLogicalInnerJoin
	GroupByToLogicalGroupBy
	SortToLogicalSort

	// -- Physical phase: conversion rules (logical to physical) --

	ImplementScan
	ImplementSelect
	ImplementProject
	ImplementHashJoin
	ImplementMergeJoin
	ImplementGroupBy
	ImplementSort

	// NumRuleNames tracks the maximum value of any rule name.
	NumRuleNames
)

var ruleNames = [NumRuleNames]string{
	InvalidRuleName: "InvalidRuleName",

	MergeSelects:          "MergeSelects",
	PushSelectIntoProject: "PushSelectIntoProject",
	EliminateProject:      "EliminateProject",

	ScanToLogicalScan:           "ScanToLogicalScan",
	SelectToLogicalSelect:       "SelectToLogicalSelect",
	ProjectToLogicalProject:     "ProjectToLogicalProject",
	InnerJoinToLogicalInnerJoin: "InnerJoinToLogicalInnerJoin",
	GroupByToLogicalGroupBy:     "GroupByToLogicalGroupBy",
	SortToLogicalSort:           "SortToLogicalSort",

	ImplementScan:      "ImplementScan",
	ImplementSelect:    "ImplementSelect",
	ImplementProject:   "ImplementProject",
	ImplementHashJoin:  "ImplementHashJoin",
	ImplementMergeJoin: "ImplementMergeJoin",
	ImplementGroupBy:   "ImplementGroupBy",
	ImplementSort:      "ImplementSort",
}

func (r RuleName) String() string {
	if r >= NumRuleNames {
		return fmt.Sprintf("RuleName(%d)", uint32(r))
	}
	return ruleNames[r]
}

// SafeValue implements the redact.SafeValue interface.
func (r RuleName) SafeValue() {}

// RuleSet efficiently stores an unordered set of RuleNames.
type RuleSet = util.FastIntSet
