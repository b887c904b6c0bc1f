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
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
)

// privateDef is implemented by every operator payload. The fingerprint must
// write an encoding that is equal for two payloads exactly when the payloads
// are semantically equal; the memo uses it to intern payloads.
type privateDef interface {
	fingerprint(buf *bytes.Buffer)
}

// ScanOpDef defines the payload of the Scan operators: which table is
// scanned and which of its columns are produced, identified by metadata
// column ids.
type ScanOpDef struct {
	Table opt.TableID
	Cols  opt.ColList
}

func (d *ScanOpDef) fingerprint(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "scan<%d,%s>", d.Table, d.Cols)
}

// SelectDef defines the payload of the Select operators: the filter
// predicate applied to the input rows.
type SelectDef struct {
	Filter opt.ScalarExpr
}

func (d *SelectDef) fingerprint(buf *bytes.Buffer) {
	buf.WriteString("select<")
	d.Filter.Encode(buf)
	buf.WriteByte('>')
}

// ProjectDef defines the payload of the Project operators: the output
// column ids and, in parallel, the scalar expression computing each one. A
// bare column passthrough is a VariableExpr element.
type ProjectDef struct {
	Cols  opt.ColList
	Elems []opt.ScalarExpr
}

func (d *ProjectDef) fingerprint(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "project<%s;", d.Cols)
	for i, elem := range d.Elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		elem.Encode(buf)
	}
	buf.WriteByte('>')
}

// PassthroughCol returns the input column id that the nth projection
// forwards unchanged, or 0 if the projection computes a new value.
func (d *ProjectDef) PassthroughCol(nth int) opt.ColumnID {
	if v, ok := d.Elems[nth].(*opt.VariableExpr); ok {
		return v.Col
	}
	return 0
}

// JoinDef defines the payload of the join operators: the join condition.
type JoinDef struct {
	On opt.ScalarExpr
}

func (d *JoinDef) fingerprint(buf *bytes.Buffer) {
	buf.WriteString("join<")
	d.On.Encode(buf)
	buf.WriteByte('>')
}

// EquiCols extracts the equality column pairs from the join condition:
// conjuncts of the form left-column = right-column where one side's column
// comes from leftCols and the other from rightCols. Conjuncts that are not
// of that form are ignored.
func (d *JoinDef) EquiCols(leftCols, rightCols opt.ColSet) (left, right opt.ColList) {
	var walk func(e opt.ScalarExpr)
	walk = func(e opt.ScalarExpr) {
		switch t := e.(type) {
		case *opt.AndExpr:
			walk(t.Left)
			walk(t.Right)
		case *opt.ComparisonExpr:
			if t.Op != opt.EqOp {
				return
			}
			lv, lok := t.Left.(*opt.VariableExpr)
			rv, rok := t.Right.(*opt.VariableExpr)
			if !lok || !rok {
				return
			}
			switch {
			case leftCols.Contains(int(lv.Col)) && rightCols.Contains(int(rv.Col)):
				left = append(left, lv.Col)
				right = append(right, rv.Col)
			case leftCols.Contains(int(rv.Col)) && rightCols.Contains(int(lv.Col)):
				left = append(left, rv.Col)
				right = append(right, lv.Col)
			}
		}
	}
	walk(d.On)
	return left, right
}

// MergeJoinDef defines the payload of the MergeJoin operator: the join
// condition plus the equality columns each side is sorted on.
type MergeJoinDef struct {
	On       opt.ScalarExpr
	LeftEq   opt.ColList
	RightEq  opt.ColList
	LeftOrd  opt.Ordering
	RightOrd opt.Ordering
}

func (d *MergeJoinDef) fingerprint(buf *bytes.Buffer) {
	buf.WriteString("merge-join<")
	d.On.Encode(buf)
	fmt.Fprintf(buf, ";%s;%s>", d.LeftEq, d.RightEq)
}

// GroupByDef defines the payload of the GroupBy operators: the grouping
// columns, the output aggregate column ids and, in parallel, the aggregate
// function computing each one.
type GroupByDef struct {
	GroupingCols opt.ColList
	AggCols      opt.ColList
	Aggs         []*opt.FunctionExpr
}

func (d *GroupByDef) fingerprint(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "group-by<%s;%s;", d.GroupingCols, d.AggCols)
	for i, agg := range d.Aggs {
		if i > 0 {
			buf.WriteByte(',')
		}
		agg.Encode(buf)
	}
	buf.WriteByte('>')
}

// SortDef defines the payload of the Sort operators: the sort order, over
// metadata column ids.
type SortDef struct {
	Ordering opt.Ordering
}

func (d *SortDef) fingerprint(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "sort<%s>", d.Ordering)
}

// ExchangeDef defines the payload of the Exchange enforcer: the distribution
// the exchange moves its input rows into.
type ExchangeDef struct {
	Target physical.Distribution
}

func (d *ExchangeDef) fingerprint(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "exchange<%s>", d.Target)
}

// --------------------------------------------------------------------
// Typed payload accessors.
// --------------------------------------------------------------------

// ScanOpDef returns the payload of a Scan expression.
func (m *Memo) ScanOpDef(id PrivateID) *ScanOpDef {
	return asDef[*ScanOpDef](m, id)
}

// SelectDef returns the payload of a Select expression.
func (m *Memo) SelectDef(id PrivateID) *SelectDef {
	return asDef[*SelectDef](m, id)
}

// ProjectDef returns the payload of a Project expression.
func (m *Memo) ProjectDef(id PrivateID) *ProjectDef {
	return asDef[*ProjectDef](m, id)
}

// JoinDef returns the payload of a join expression.
func (m *Memo) JoinDef(id PrivateID) *JoinDef {
	return asDef[*JoinDef](m, id)
}

// MergeJoinDef returns the payload of a MergeJoin expression.
func (m *Memo) MergeJoinDef(id PrivateID) *MergeJoinDef {
	return asDef[*MergeJoinDef](m, id)
}

// GroupByDef returns the payload of a GroupBy expression.
func (m *Memo) GroupByDef(id PrivateID) *GroupByDef {
	return asDef[*GroupByDef](m, id)
}

// SortDef returns the payload of a Sort expression.
func (m *Memo) SortDef(id PrivateID) *SortDef {
	return asDef[*SortDef](m, id)
}

// ExchangeDef returns the payload of an Exchange enforcer.
func (m *Memo) ExchangeDef(id PrivateID) *ExchangeDef {
	return asDef[*ExchangeDef](m, id)
}

func asDef[T privateDef](m *Memo, id PrivateID) T {
	def, ok := m.LookupPrivate(id).(T)
	if !ok {
		panic(errors.AssertionFailedf("private %d has type %T", id, m.LookupPrivate(id)))
	}
	return def
}
