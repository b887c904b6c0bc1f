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

// Package xform contains the search engine that turns a registered query
// tree into the lowest cost physical tree satisfying the caller's required
// traits.
//
// The search runs in two phases over one shared memo. The logical phase
// canonicalizes shape (predicate pushdown, redundant operator removal) and
// converts the unconverted input operators into their logical forms. The
// physical phase converts logical operators into physical realizations,
// requiring a convention, a distribution and an ordering of the root, and
// closing trait gaps with explicit enforcer operators (sort, exchange)
// rather than relabeling.
//
// The engine is goal-directed: it recurses from the root target into the
// child targets each candidate needs, so effort concentrates on targets
// that can still affect the final plan. Groups far from anything the root
// can use are never explored.
package xform

import (
	"go.uber.org/zap"

	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/memo"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
)

// Settings carries the per-compilation knobs of the search engine.
type Settings struct {
	// MaxPasses bounds the number of explore/optimize rounds spent on a
	// single (group, traits) target. When the budget runs out the target
	// settles with its current best expression, or fails if it has none.
	MaxPasses int

	// DisabledRules contains rules that must not fire.
	DisabledRules opt.RuleSet

	// Logger receives rule firing and settlement events. Nil disables
	// logging.
	Logger *zap.Logger
}

const defaultMaxPasses = 32

// Optimizer is a per-compilation search engine instance. It owns the memo,
// the cost model and all search state; nothing is shared between instances,
// so independent compilations can run concurrently. An Optimizer is used by
// one goroutine at a time.
type Optimizer struct {
	mem      *memo.Memo
	coster   Coster
	logger   *zap.Logger
	settings Settings

	phase Phase

	stateMap   map[optStateKey]*optState
	stateAlloc optStateAlloc

	groupStateMap map[memo.GroupID]*groupState

	// ruleFailures counts caught rule firing failures across all groups.
	ruleFailures int

	logicalDone bool
}

// New constructs an Optimizer over fresh query metadata.
func New(md *opt.Metadata, settings Settings) *Optimizer {
	if settings.MaxPasses <= 0 {
		settings.MaxPasses = defaultMaxPasses
	}
	if settings.Logger == nil {
		settings.Logger = zap.NewNop()
	}
	o := &Optimizer{
		mem:           memo.New(md),
		logger:        settings.Logger,
		settings:      settings,
		stateMap:      make(map[optStateKey]*optState),
		groupStateMap: make(map[memo.GroupID]*groupState),
	}
	o.coster = NewDefaultCoster(o.mem)
	return o
}

// Memo returns the memo being optimized. Callers register the input tree
// into it before optimizing.
func (o *Optimizer) Memo() *memo.Memo {
	return o.mem
}

// SetCoster replaces the default cost model. It must be called before
// optimization starts.
func (o *Optimizer) SetCoster(coster Coster) {
	o.coster = coster
}

// OptimizeLogical runs the logical phase and returns the canonical logical
// tree: the lowest cost member of the root group under the logical
// convention. It fails with an OptimizationError if the phase cannot
// produce one.
func (o *Optimizer) OptimizeLogical() (ev memo.ExprView, err error) {
	defer func() {
		if r := opt.CatchOptimizerError(recover()); r != nil {
			err = r
		}
	}()

	state, failErr := o.runLogicalPhase()
	if failErr != nil {
		return memo.ExprView{}, failErr
	}
	return memo.MakeBestExprView(o.mem, state.best), nil
}

// Optimize runs both phases and returns the winning physical tree for the
// given required traits. The convention dimension is implied; callers only
// choose the distribution and ordering of the root. It fails with an
// OptimizationError if no physical member of the root group can be made to
// satisfy the requirement, even after enforcement.
func (o *Optimizer) Optimize(required *physical.Required) (ev memo.ExprView, err error) {
	defer func() {
		if r := opt.CatchOptimizerError(recover()); r != nil {
			err = r
		}
	}()

	if !o.logicalDone {
		if _, failErr := o.runLogicalPhase(); failErr != nil {
			return memo.ExprView{}, failErr
		}
	}

	o.phase = PhasePhysical
	req := *required
	req.Convention = opt.ConventionPhysical
	requiredID := o.mem.InternPhysicalProps(&req)

	state := o.optimizeGroup(o.mem.Root(), requiredID)
	if state.status != settled {
		reason := opt.UnsatisfiableTraits
		if o.ruleFailures > 0 {
			reason = opt.RuleFailureExhausted
		}
		return memo.ExprView{}, opt.NewOptimizationError(reason,
			"no member of the root group provides %s", &req)
	}
	return memo.MakeBestExprView(o.mem, state.best), nil
}

func (o *Optimizer) runLogicalPhase() (*optState, error) {
	root := o.mem.Root()
	if root == 0 {
		return nil, opt.NewOptimizationError(opt.NoLogicalPlan, "no expression tree was registered")
	}

	o.phase = PhaseLogical
	requiredID := o.mem.InternPhysicalProps(&physical.Required{Convention: opt.ConventionLogical})
	state := o.optimizeGroup(root, requiredID)
	if state.status != settled {
		reason := opt.NoLogicalPlan
		if o.ruleFailures > 0 {
			reason = opt.RuleFailureExhausted
		}
		return nil, opt.NewOptimizationError(reason,
			"the root group has no logical member")
	}
	o.logicalDone = true
	return state, nil
}

// optimizeGroup drives one (group, required traits) target to settlement:
// it alternates rule exploration, member optimization and enforcement until
// a full round improves nothing, then settles with the best expression
// found, or fails when there is none. Child targets are optimized
// recursively, so the walk itself orders work by proximity to the root.
func (o *Optimizer) optimizeGroup(g memo.GroupID, required memo.PhysicalPropsID) *optState {
	state := o.ensureOptState(g, required)
	switch state.status {
	case settled, failed:
		return state
	case exploring:
		panic(errors.AssertionFailedf("re-entrant optimization of group %d", g))
	}
	state.status = exploring
	best := o.mem.EnsureBestExpr(g, required)

	for {
		progress := o.exploreGroup(g)
		if o.optimizeGroupMembers(g, required, best) {
			progress = true
		}
		if o.enforceProps(g, required, best) {
			progress = true
		}
		state.passes++
		if !progress {
			break
		}
		if state.passes >= o.settings.MaxPasses {
			o.logger.Warn("pass budget exhausted",
				zap.Uint32("group", uint32(g)),
				zap.Int("passes", state.passes))
			break
		}
	}

	if o.mem.LookupBestExpr(g, required) != nil {
		state.status = settled
		state.best = best
	} else {
		state.status = failed
	}
	return state
}

// optimizeGroupMembers tries every member expression that can provide the
// required traits: it recursively optimizes the member's children for the
// traits the member needs from them, costs the member, and ratchets the
// group's best expression. It returns true if the best expression improved.
func (o *Optimizer) optimizeGroupMembers(
	g memo.GroupID, required memo.PhysicalPropsID, best memo.BestExprID,
) bool {
	requiredProps := o.mem.LookupPhysicalProps(required)
	progress := false

	for i := 0; i < o.mem.ExprCount(g); i++ {
		eid := memo.MakeExprID(g, i)
		e := o.mem.Expr(eid)
		if !o.canProvidePhysicalProps(e, requiredProps) {
			continue
		}

		childBest := make([]memo.BestExprID, 0, e.ChildCount())
		childProvided := make([]memo.Provided, 0, e.ChildCount())
		var total memo.Cost
		usable := true
		for nth := 0; nth < e.ChildCount(); nth++ {
			childReq := o.buildChildPhysicalProps(e, requiredProps, nth)
			childReqID := o.mem.InternPhysicalProps(&childReq)
			childState := o.optimizeGroup(e.ChildGroup(nth), childReqID)
			if childState.status != settled {
				usable = false
				break
			}
			chosen := o.mem.LookupBestExpr(e.ChildGroup(nth), childReqID)
			childBest = append(childBest, childState.best)
			childProvided = append(childProvided, chosen.Provided())
			total.Add(chosen.Cost())
		}
		if !usable {
			continue
		}

		provided := o.providedPhysicalProps(e, childProvided)
		o.checkProvided(e, requiredProps, provided)
		candidate := memo.MakeBestExpr(e.Operator(), eid, required, provided)
		for _, child := range childBest {
			candidate.AddChild(child)
		}
		total.Add(o.coster.ComputeCost(&candidate))
		candidate.SetCost(total)
		if o.mem.RatchetBestExpr(best, &candidate) {
			progress = true
		}
	}
	return progress
}

// enforceProps closes trait gaps with explicit operators: a sort provides a
// required ordering over the group optimized without it, an exchange moves
// rows into a required distribution. The inner requirement is strictly
// weaker, so the recursion terminates. It returns true if an enforcer
// became the group's best expression.
func (o *Optimizer) enforceProps(
	g memo.GroupID, required memo.PhysicalPropsID, best memo.BestExprID,
) bool {
	requiredProps := o.mem.LookupPhysicalProps(required)
	if requiredProps.Convention != opt.ConventionPhysical {
		return false
	}

	if !requiredProps.Ordering.Empty() {
		// Sort on top; any distribution requirement stays below the sort.
		inner := *requiredProps
		inner.Ordering = nil
		return o.tryEnforcer(g, required, best, opt.PhysicalSortOp, &inner)
	}

	if !requiredProps.Distribution.Any() {
		inner := *requiredProps
		inner.Distribution = physical.AnyDist
		return o.tryEnforcer(g, required, best, opt.ExchangeOp, &inner)
	}
	return false
}

func (o *Optimizer) tryEnforcer(
	g memo.GroupID,
	required memo.PhysicalPropsID,
	best memo.BestExprID,
	enforcer opt.Operator,
	inner *physical.Required,
) bool {
	requiredProps := o.mem.LookupPhysicalProps(required)
	innerID := o.mem.InternPhysicalProps(inner)
	innerState := o.optimizeGroup(g, innerID)
	if innerState.status != settled {
		return false
	}
	innerBest := o.mem.LookupBestExpr(g, innerID)

	var provided memo.Provided
	var private memo.PrivateID
	switch enforcer {
	case opt.PhysicalSortOp:
		provided = memo.Provided{
			Distribution: innerBest.Provided().Distribution,
			Ordering:     requiredProps.Ordering,
		}
		private = o.mem.InternPrivate(&memo.SortDef{Ordering: requiredProps.Ordering})

	case opt.ExchangeOp:
		actual := innerBest.Provided().Distribution
		if !physical.CanEnforce(actual, requiredProps.Distribution) {
			return false
		}
		provided = memo.Provided{Distribution: requiredProps.Distribution}
		private = o.mem.InternPrivate(&memo.ExchangeDef{Target: requiredProps.Distribution})

	default:
		panic(errors.AssertionFailedf("%s is not an enforcer", errors.Safe(enforcer)))
	}

	candidate := memo.MakeEnforcerBestExpr(enforcer, g, required, provided, private)
	candidate.AddChild(innerState.best)
	total := innerBest.Cost()
	total.Add(o.coster.ComputeCost(&candidate))
	candidate.SetCost(total)
	return o.mem.RatchetBestExpr(best, &candidate)
}

// checkProvided asserts that the traits a member delivers really satisfy
// the traits it was optimized for. A violation means canProvide and
// providedPhysicalProps disagree about some operator.
func (o *Optimizer) checkProvided(
	e *memo.Expr, required *physical.Required, provided memo.Provided,
) {
	if required.Convention != opt.ConventionPhysical {
		return
	}
	if !provided.Distribution.Satisfies(required.Distribution) {
		panic(errors.AssertionFailedf(
			"%s provides distribution %s, required %s",
			errors.Safe(e.Operator()), provided.Distribution, required.Distribution))
	}
	if !provided.Ordering.Provides(required.Ordering) {
		panic(errors.AssertionFailedf(
			"%s provides ordering %s, required %s",
			errors.Safe(e.Operator()), provided.Ordering, required.Ordering))
	}
}
