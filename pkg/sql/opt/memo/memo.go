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

// Package memo implements the equivalence-group arena at the center of the
// optimizer.
//
// The memo is a forest of query plan trees sharing storage. It deduplicates
// equivalent subtrees: an expression never stores its children directly, but
// references the equivalence groups they belong to by id. A group is a set
// of expressions known to be logically equivalent: same output schema, same
// semantics, possibly different shape, traits and cost. For each required
// trait set that the search engine has optimized the group for, the group
// remembers the lowest cost member providing those traits.
//
// Expressions and groups are immutable once created; a "rewrite" registers a
// new expression into a group and never edits an old one. Everything is
// addressed by index (GroupID, ExprID, PhysicalPropsID, PrivateID) inside a
// per-compilation arena, and the whole arena is discarded with the
// compilation.
package memo

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
)

// GroupID identifies a memo group. Groups have numbers greater than 0; a
// GroupID of 0 indicates an invalid group.
type GroupID uint32

// exprOrdinal is the index of an expression within its group.
type exprOrdinal uint32

// normExprOrdinal is the index of the group's normalized expression, which
// is always the expression the group was created with.
const normExprOrdinal exprOrdinal = 0

// ExprID uniquely identifies an expression stored in the memo by pairing the
// id of its group with its ordinal position inside the group.
type ExprID struct {
	Group GroupID
	Expr  exprOrdinal
}

// InvalidExprID is the uninitialized ExprID.
var InvalidExprID = ExprID{}

// MakeExprID constructs the id of the nth member expression of a group.
func MakeExprID(group GroupID, nth int) ExprID {
	return ExprID{Group: group, Expr: exprOrdinal(nth)}
}

// PhysicalPropsID identifies an interned required trait set. The zero value
// is invalid; MinPhysPropsID identifies the empty requirement.
type PhysicalPropsID uint32

// MinPhysPropsID is the id of the trait set that requires nothing.
const MinPhysPropsID PhysicalPropsID = 1

// PrivateID identifies an interned operator payload. The zero value means
// "no payload".
type PrivateID uint32

// Memo is the arena owning all groups, expressions, interned trait sets and
// interned payloads of one compilation. It is not safe for concurrent use;
// one memo is created per compilation and never shared.
type Memo struct {
	// metadata is the per-query column and table metadata.
	metadata *opt.Metadata

	// groups is indexed by GroupID. groups[0] is a sentinel so that GroupID 0
	// stays invalid.
	groups []group

	// exprMap deduplicates expressions: it maps an expression fingerprint to
	// the id under which it was first registered.
	exprMap map[string]ExprID

	// physPropsMap and physProps intern required trait sets.
	physPropsMap map[string]PhysicalPropsID
	physProps    []*physical.Required

	// privatesMap and privates intern operator payloads.
	privatesMap map[string]PrivateID
	privates    []interface{}

	// root is the group registered as the compilation's root.
	root GroupID
}

// New creates a new empty memo instance for the given query metadata.
func New(md *opt.Metadata) *Memo {
	m := &Memo{
		metadata:     md,
		groups:       make([]group, 1),
		exprMap:      make(map[string]ExprID),
		physPropsMap: make(map[string]PhysicalPropsID),
		physProps:    make([]*physical.Required, 1),
		privatesMap:  make(map[string]PrivateID),
		privates:     make([]interface{}, 1),
	}
	// Intern the empty requirement as MinPhysPropsID.
	if id := m.InternPhysicalProps(physical.MinRequired); id != MinPhysPropsID {
		panic(errors.AssertionFailedf("empty trait set interned as %d", id))
	}
	return m
}

// Metadata returns the query-specific metadata, which includes information
// about the columns and tables used in this particular query.
func (m *Memo) Metadata() *opt.Metadata {
	return m.metadata
}

// SetRoot records the given group as the root of the compilation.
func (m *Memo) SetRoot(g GroupID) {
	m.root = g
}

// Root returns the root group of the compilation.
func (m *Memo) Root() GroupID {
	return m.root
}

// NumGroups returns the number of groups in the memo.
func (m *Memo) NumGroups() int {
	return len(m.groups) - 1
}

// group returns the group with the given id. The pointer is only valid until
// the next group is added.
func (m *Memo) group(g GroupID) *group {
	if g == 0 || int(g) >= len(m.groups) {
		panic(errors.AssertionFailedf("invalid group id %d", g))
	}
	return &m.groups[g]
}

// GroupProperties returns the logical properties shared by all members of
// the given group.
func (m *Memo) GroupProperties(g GroupID) *LogicalProps {
	return &m.group(g).logical
}

// ExprCount returns the number of member expressions in the given group.
func (m *Memo) ExprCount(g GroupID) int {
	return len(m.group(g).exprs)
}

// Expr returns the expression with the given id.
func (m *Memo) Expr(eid ExprID) *Expr {
	grp := m.group(eid.Group)
	if int(eid.Expr) >= len(grp.exprs) {
		panic(errors.AssertionFailedf("invalid expression ordinal %d in group %d", eid.Expr, eid.Group))
	}
	return &grp.exprs[eid.Expr]
}

// NormExpr returns the normalized expression of the given group, which is
// the expression the group was created with.
func (m *Memo) NormExpr(g GroupID) *Expr {
	return m.Expr(ExprID{Group: g, Expr: normExprOrdinal})
}

// NewGroup creates a new equivalence group seeded with the given expression.
// The group's logical properties are derived bottom-up from the expression.
func (m *Memo) NewGroup(e Expr) GroupID {
	g := GroupID(len(m.groups))
	fingerprint := e.fingerprint()
	if existing, ok := m.exprMap[fingerprint]; ok {
		panic(errors.AssertionFailedf(
			"expression %s is already registered in group %d", errors.Safe(e.op), existing.Group))
	}
	m.checkNewExpr(g, &e)
	logical := m.buildLogicalProps(&e)
	m.groups = append(m.groups, group{id: g, logical: logical, exprs: []Expr{e}})
	m.exprMap[fingerprint] = ExprID{Group: g, Expr: normExprOrdinal}
	return g
}

// MemoizeExpr returns the group holding the given expression, creating a
// new group if the expression has never been registered. Rules use it to
// build the child subtrees of their replacement expressions without caring
// whether an identical subtree already exists.
func (m *Memo) MemoizeExpr(e Expr) GroupID {
	if existing, ok := m.exprMap[e.fingerprint()]; ok {
		return existing.Group
	}
	return m.NewGroup(e)
}

// AddExprToGroup registers an equivalent expression as a member of an
// existing group. Registration is idempotent: re-registering a structurally
// identical expression returns the id of the first registration and does not
// create a duplicate member. The new expression's output schema must be
// identical to the group's schema, and the expression may not reference its
// own group directly or transitively.
func (m *Memo) AddExprToGroup(g GroupID, e Expr) ExprID {
	fingerprint := e.fingerprint()
	if existing, ok := m.exprMap[fingerprint]; ok {
		if existing.Group != g {
			panic(errors.AssertionFailedf(
				"expression %s is already a member of group %d, cannot add to group %d",
				errors.Safe(e.op), existing.Group, g))
		}
		return existing
	}
	m.checkNewExpr(g, &e)
	m.checkExprSchema(g, &e)

	grp := m.group(g)
	eid := ExprID{Group: g, Expr: exprOrdinal(len(grp.exprs))}
	grp.exprs = append(grp.exprs, e)
	m.exprMap[fingerprint] = eid
	return eid
}

// ExprGroup returns the group in which a structurally identical expression
// is already registered, or 0 if the expression has never been registered.
func (m *Memo) ExprGroup(e Expr) GroupID {
	if existing, ok := m.exprMap[e.fingerprint()]; ok {
		return existing.Group
	}
	return 0
}

// ValidateExpr runs the registration checks for an expression destined for
// the given group without registering it. It panics with an assertion error
// on any violation. The explorer validates every expression a rule firing
// produced before registering any of them, so a bad firing has no partial
// effect on the group.
func (m *Memo) ValidateExpr(g GroupID, e Expr) {
	if _, ok := m.exprMap[e.fingerprint()]; ok {
		// Already registered; AddExprToGroup will resolve it idempotently.
		return
	}
	m.checkNewExpr(g, &e)
	m.checkExprSchema(g, &e)
}

// InternPhysicalProps interns a required trait set and returns its id.
// Equal trait sets always map to the same id.
func (m *Memo) InternPhysicalProps(required *physical.Required) PhysicalPropsID {
	fingerprint := required.Fingerprint()
	if id, ok := m.physPropsMap[fingerprint]; ok {
		return id
	}
	// Copy the props so that the caller can reuse its value.
	copied := *required
	id := PhysicalPropsID(len(m.physProps))
	m.physProps = append(m.physProps, &copied)
	m.physPropsMap[fingerprint] = id
	return id
}

// LookupPhysicalProps returns the interned trait set with the given id.
func (m *Memo) LookupPhysicalProps(id PhysicalPropsID) *physical.Required {
	if id == 0 || int(id) >= len(m.physProps) {
		panic(errors.AssertionFailedf("invalid physical props id %d", id))
	}
	return m.physProps[id]
}

// InternPrivate interns an operator payload and returns its id. Payloads
// with identical encodings map to the same id.
func (m *Memo) InternPrivate(def privateDef) PrivateID {
	var buf bytes.Buffer
	def.fingerprint(&buf)
	key := buf.String()
	if id, ok := m.privatesMap[key]; ok {
		return id
	}
	id := PrivateID(len(m.privates))
	m.privates = append(m.privates, def)
	m.privatesMap[key] = id
	return id
}

// LookupPrivate returns the interned payload with the given id, or nil for
// the zero id.
func (m *Memo) LookupPrivate(id PrivateID) interface{} {
	if id == 0 {
		return nil
	}
	if int(id) >= len(m.privates) {
		panic(errors.AssertionFailedf("invalid private id %d", id))
	}
	return m.privates[id]
}

// --------------------------------------------------------------------
// Best expression methods.
// --------------------------------------------------------------------

// EnsureBestExpr returns the id of the best expression entry of the group
// for the given required traits, allocating an uninitialized entry if the
// group has none yet.
func (m *Memo) EnsureBestExpr(g GroupID, required PhysicalPropsID) BestExprID {
	grp := m.group(g)
	ordinal := grp.ensureBestExpr(required)
	return BestExprID{group: g, ordinal: ordinal}
}

// LookupBestExpr returns the initialized best expression of the group for
// the given required traits, or nil if the group has not been optimized for
// them.
func (m *Memo) LookupBestExpr(g GroupID, required PhysicalPropsID) *BestExpr {
	grp := m.group(g)
	best := grp.lookupBestExpr(required)
	if best == nil || !best.Initialized() {
		return nil
	}
	return best
}

// bestExpr returns the best expression referenced by the given id.
func (m *Memo) bestExpr(best BestExprID) *BestExpr {
	if best.ordinal == normBestOrdinal {
		panic(errors.AssertionFailedf("cannot look up the best expression of a normalized view"))
	}
	return m.group(best.group).bestExpr(best.ordinal)
}

// RatchetBestExpr replaces the group's best expression for the candidate's
// required traits if the candidate has a strictly lower cost, or if no best
// expression was known. It returns true if the candidate became the best
// expression. Ties keep the incumbent, which makes the winner stable across
// passes.
func (m *Memo) RatchetBestExpr(best BestExprID, candidate *BestExpr) bool {
	existing := m.bestExpr(best)
	if existing.Initialized() && !candidate.cost.Less(existing.cost) {
		return false
	}
	*existing = *candidate
	return true
}

func (m *Memo) String() string {
	var buf bytes.Buffer
	for g := 1; g < len(m.groups); g++ {
		grp := &m.groups[g]
		fmt.Fprintf(&buf, "%d:", g)
		for i := range grp.exprs {
			buf.WriteByte(' ')
			buf.WriteString(m.formatExprBrief(&grp.exprs[i]))
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
