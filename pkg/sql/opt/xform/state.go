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

package xform

import (
	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/memo"
)

// optStatus is the lifecycle of one (group, required traits) search target.
type optStatus int8

const (
	// unexplored means the search has not visited the target yet.
	unexplored optStatus = iota

	// exploring means the search is currently working on the target. The
	// status exists to catch re-entrant optimization of the same target,
	// which would mean a cycle.
	exploring

	// settled means the search finished and the target has a winning best
	// expression in the memo.
	settled

	// failed means the search finished and no member of the group, with or
	// without enforcers, satisfies the required traits.
	failed
)

// optStateKey identifies a search target: a group optimized for a required
// trait set.
type optStateKey struct {
	group    memo.GroupID
	required memo.PhysicalPropsID
}

// optState is the optimizer's workspace for one search target. The winning
// expression itself lives in the memo; the state tracks where the search
// stands and how many passes it has spent.
type optState struct {
	status optStatus

	// best is the target's best expression entry in the memo. It is valid
	// once the status is settled.
	best memo.BestExprID

	// passes counts completed explore/optimize rounds for the target.
	passes int
}

// ensureOptState returns the state of the given target, allocating it on
// first use.
func (o *Optimizer) ensureOptState(g memo.GroupID, required memo.PhysicalPropsID) *optState {
	key := optStateKey{group: g, required: required}
	if state, ok := o.stateMap[key]; ok {
		return state
	}
	state := o.stateAlloc.allocate()
	o.stateMap[key] = state
	return state
}

// lookupOptState returns the state of the given target, or nil if the search
// has never visited it.
func (o *Optimizer) lookupOptState(g memo.GroupID, required memo.PhysicalPropsID) *optState {
	return o.stateMap[optStateKey{group: g, required: required}]
}

// optStateAlloc allocates optStates in chunks to reduce allocation count;
// the search creates one state per (group, traits) pair it touches.
type optStateAlloc struct {
	page []optState
}

func (a *optStateAlloc) allocate() *optState {
	if len(a.page) == 0 {
		a.page = make([]optState, 8)
	}
	state := &a.page[0]
	a.page = a.page[1:]
	return state
}

// groupState is the per-group rule bookkeeping shared by all of a group's
// search targets: which (rule, expression) pairs have already fired, and how
// many firings failed. A pair never fires twice, which is what makes
// exploration reach a fixpoint.
type groupState struct {
	// fired is indexed by expression ordinal; each entry is the set of rules
	// already fired on that member.
	fired []opt.RuleSet

	// failures counts rule firings on this group that were caught and
	// discarded.
	failures int
}

// ensureGroupState returns the rule bookkeeping of the given group,
// allocating it on first use.
func (o *Optimizer) ensureGroupState(g memo.GroupID) *groupState {
	if state, ok := o.groupStateMap[g]; ok {
		return state
	}
	state := &groupState{}
	o.groupStateMap[g] = state
	return state
}

// markFired records that the rule fired on the given member, returning false
// if the pair had already fired.
func (s *groupState) markFired(expr int, rule opt.RuleName) bool {
	for len(s.fired) <= expr {
		s.fired = append(s.fired, opt.RuleSet{})
	}
	if s.fired[expr].Contains(int(rule)) {
		return false
	}
	s.fired[expr].Add(int(rule))
	return true
}
