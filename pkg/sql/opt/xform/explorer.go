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
	"go.uber.org/zap"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/memo"
)

// exploreGroup fires every applicable rule of the current phase on every
// member expression of the group, skipping (rule, expression) pairs that
// already fired. New members produced by a firing are themselves visited
// within the same call, so a single call drives the group to the current
// phase's rule fixpoint. It returns true if any new member was registered.
func (o *Optimizer) exploreGroup(g memo.GroupID) bool {
	state := o.ensureGroupState(g)
	index := rulesForPhase(o.phase)
	progress := false

	// The member count grows while rules fire; the loop picks up new members.
	for i := 0; i < o.mem.ExprCount(g); i++ {
		eid := memo.MakeExprID(g, i)
		op := o.mem.Expr(eid).Operator()
		for _, r := range index[op] {
			if o.settings.DisabledRules.Contains(int(r.name)) {
				continue
			}
			if !state.markFired(i, r.name) {
				continue
			}
			results, err := o.fireRule(r, g, eid)
			if err != nil {
				// A failed firing is isolated: its candidates are discarded and
				// the search continues without them.
				state.failures++
				o.ruleFailures++
				o.logger.Warn("rule firing failed",
					zap.Stringer("rule", r.name),
					zap.Uint32("group", uint32(g)),
					zap.Error(err))
				continue
			}
			for _, result := range results {
				if other := o.mem.ExprGroup(result); other != 0 && other != g {
					// The result already exists as a member of another group. The
					// two groups are equivalent, but groups are never merged, so
					// the duplicate is dropped.
					o.logger.Debug("dropped cross-group duplicate",
						zap.Stringer("rule", r.name),
						zap.Uint32("group", uint32(g)),
						zap.Uint32("existing", uint32(other)))
					continue
				}
				before := o.mem.ExprCount(g)
				o.mem.AddExprToGroup(g, result)
				if o.mem.ExprCount(g) > before {
					progress = true
					o.logger.Debug("rule fired",
						zap.Stringer("rule", r.name),
						zap.Uint32("group", uint32(g)),
						zap.Stringer("op", result.Operator()))
				}
			}
		}
	}
	return progress
}

// fireRule runs one rule firing and validates everything it produced. A
// panic from the transform or from validation is returned as an error; in
// that case nothing has been registered into the group.
func (o *Optimizer) fireRule(
	r *rule, g memo.GroupID, eid memo.ExprID,
) (results []memo.Expr, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = opt.CatchOptimizerError(rec)
		}
	}()
	results = r.apply(o, eid)
	for i := range results {
		o.mem.ValidateExpr(g, results[i])
	}
	return results, nil
}
