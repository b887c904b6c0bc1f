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
	"math"

	"github.com/dustin/go-humanize"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/util/treeprinter"
)

// formatExprBrief renders a member expression on one line, in the compact
// form used by Memo.String: operator, child group ids, payload.
func (m *Memo) formatExprBrief(e *Expr) string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	buf.WriteString(e.op.String())
	for _, child := range e.children {
		fmt.Fprintf(&buf, " %d", child)
	}
	if payload := m.formatPrivate(e.op, e.private); payload != "" {
		buf.WriteByte(' ')
		buf.WriteString(payload)
	}
	buf.WriteByte(')')
	return buf.String()
}

// formatExprView renders an expression tree, one node per operator with its
// payload, output columns and row count, plus cost and provided traits on
// best expression views.
func (m *Memo) formatExprView(ev ExprView) string {
	tp := treeprinter.New()
	m.formatExprViewNode(ev, tp)
	return tp.String()
}

func (m *Memo) formatExprViewNode(ev ExprView, tp treeprinter.Node) {
	op := ev.Operator()
	label := op.String()
	if payload := m.formatPrivate(op, ev.Private()); payload != "" {
		label += " " + payload
	}
	node := tp.Child(label)

	logical := ev.Logical()
	var cols bytes.Buffer
	for i, col := range logical.OutputCols {
		if i > 0 {
			cols.WriteByte(' ')
		}
		fmt.Fprintf(&cols, "%s:%d", m.metadata.ColumnAlias(col), col)
	}
	node.Childf("columns: %s", cols.String())
	// Row counts are rounded for display only; costing uses the exact
	// estimates.
	node.Childf("stats: [rows=%s]", humanize.Comma(int64(math.Round(logical.Stats.RowCount))))

	if ev.IsBest() {
		node.Childf("cost: %s", ev.Cost())
		provided := ev.Provided()
		if !provided.Distribution.Any() || !provided.Ordering.Empty() {
			var buf bytes.Buffer
			buf.WriteString("provided:")
			if !provided.Distribution.Any() {
				fmt.Fprintf(&buf, " distribution=%s", provided.Distribution)
			}
			if !provided.Ordering.Empty() {
				fmt.Fprintf(&buf, " ordering=%s", provided.Ordering)
			}
			node.Child(buf.String())
		}
	}

	for i, n := 0, ev.ChildCount(); i < n; i++ {
		m.formatExprViewNode(ev.Child(i), node)
	}
}

// formatPrivate renders an operator payload for display.
func (m *Memo) formatPrivate(op opt.Operator, private PrivateID) string {
	if private == 0 {
		return ""
	}
	switch def := m.LookupPrivate(private).(type) {
	case *ScanOpDef:
		return m.metadata.Table(def.Table).Name()
	case *SelectDef:
		return def.Filter.String()
	case *ProjectDef:
		var buf bytes.Buffer
		for i, col := range def.Cols {
			if i > 0 {
				buf.WriteByte(',')
			}
			if def.PassthroughCol(i) != 0 {
				fmt.Fprintf(&buf, "@%d", col)
			} else {
				fmt.Fprintf(&buf, "@%d=%s", col, def.Elems[i])
			}
		}
		return buf.String()
	case *JoinDef:
		return def.On.String()
	case *MergeJoinDef:
		return fmt.Sprintf("%s left=%s right=%s", def.On, def.LeftOrd, def.RightOrd)
	case *GroupByDef:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "groupings=%s", def.GroupingCols)
		for i, agg := range def.Aggs {
			fmt.Fprintf(&buf, " @%d=%s", def.AggCols[i], agg)
		}
		return buf.String()
	case *SortDef:
		return def.Ordering.String()
	case *ExchangeDef:
		return def.Target.String()
	default:
		return fmt.Sprintf("%v", def)
	}
}
