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
	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/props"
)

// LogicalProps is the set of logical properties shared by every member of a
// group: the output schema and the row count estimate. Convention does not
// change either one, so the properties are derived once when the group is
// created and hold for all members, including physical ones.
type LogicalProps = props.Relational

// buildLogicalProps derives the logical properties of an expression
// bottom-up from its payload and the properties of its child groups. The
// operator's convention is irrelevant here; the switch is over the
// canonical form.
func (m *Memo) buildLogicalProps(e *Expr) LogicalProps {
	var logical LogicalProps

	switch e.op.CanonicalForm() {
	case opt.ScanOp:
		def := m.ScanOpDef(e.private)
		tab := m.metadata.Table(def.Table)
		logical.OutputCols = def.Cols
		logical.Stats.RowCount = tab.RowCount()

	case opt.SelectOp:
		input := m.GroupProperties(e.ChildGroup(0))
		logical.OutputCols = input.OutputCols
		logical.Stats.RowCount = input.Stats.RowCount * props.UnknownFilterSelectivity

	case opt.ProjectOp:
		def := m.ProjectDef(e.private)
		input := m.GroupProperties(e.ChildGroup(0))
		logical.OutputCols = def.Cols
		logical.Stats.RowCount = input.Stats.RowCount

	case opt.InnerJoinOp:
		left := m.GroupProperties(e.ChildGroup(0))
		right := m.GroupProperties(e.ChildGroup(1))
		logical.OutputCols = append(logical.OutputCols, left.OutputCols...)
		logical.OutputCols = append(logical.OutputCols, right.OutputCols...)
		logical.Stats.RowCount = left.Stats.RowCount * right.Stats.RowCount * props.UnknownJoinSelectivity

	case opt.GroupByOp:
		def := m.GroupByDef(e.private)
		input := m.GroupProperties(e.ChildGroup(0))
		logical.OutputCols = append(logical.OutputCols, def.GroupingCols...)
		logical.OutputCols = append(logical.OutputCols, def.AggCols...)
		logical.Stats.RowCount = input.Stats.RowCount * props.UnknownDistinctFraction
		if logical.Stats.RowCount < 1 {
			logical.Stats.RowCount = 1
		}

	case opt.SortOp:
		input := m.GroupProperties(e.ChildGroup(0))
		logical.OutputCols = input.OutputCols
		logical.Stats.RowCount = input.Stats.RowCount

	default:
		panic(errors.AssertionFailedf("unhandled operator %s", errors.Safe(e.op)))
	}

	return logical
}
