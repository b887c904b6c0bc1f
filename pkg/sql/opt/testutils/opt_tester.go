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

// Package testutils provides the harness for the optimizer's data-driven
// tests. Test files describe input trees in a compact parenthesized form:
//
//	(filter (= a 1) (project [a b] (scan t)))
//
// and the harness builds, optimizes and renders them.
package testutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/silodb/silo/pkg/sql/opt"
	"github.com/silodb/silo/pkg/sql/opt/cat"
	"github.com/silodb/silo/pkg/sql/opt/memo"
	"github.com/silodb/silo/pkg/sql/opt/optbuilder"
	"github.com/silodb/silo/pkg/sql/opt/props/physical"
	"github.com/silodb/silo/pkg/sql/opt/xform"
)

// OptTester runs the data-driven commands of one test file against a
// catalog. Supported commands:
//
//	build              register the tree and show it unoptimized
//	optlogical         run the logical phase and show the winner
//	opt                run both phases and show the winner; args:
//	                   dist=(singleton|replicated|any), ordering=(+a,-b)
//	memo               run both phases and dump the memo groups
type OptTester struct {
	catalog cat.Catalog
}

// NewOptTester creates an OptTester over the given catalog.
func NewOptTester(catalog cat.Catalog) *OptTester {
	return &OptTester{catalog: catalog}
}

// RunCommand implements one directive of a datadriven test file.
func (ot *OptTester) RunCommand(t *testing.T, d *datadriven.TestData) string {
	t.Helper()

	tree, err := ParseTree(d.Input)
	if err != nil {
		d.Fatalf(t, "%v", err)
	}

	o := xform.New(&opt.Metadata{}, xform.Settings{})
	builder := optbuilder.New(ot.catalog, o.Memo())
	root, err := builder.Build(tree)
	if err != nil {
		return fmt.Sprintf("error: %v\n", err)
	}

	switch d.Cmd {
	case "build":
		return memo.MakeNormExprView(o.Memo(), root).String()

	case "optlogical":
		ev, err := o.OptimizeLogical()
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		return ev.String()

	case "opt", "memo":
		required, err := ot.parseRequired(d, o.Memo(), root)
		if err != nil {
			d.Fatalf(t, "%v", err)
		}
		ev, err := o.Optimize(required)
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		if d.Cmd == "memo" {
			return o.Memo().String()
		}
		return ev.String()

	default:
		d.Fatalf(t, "unsupported command: %s", d.Cmd)
		return ""
	}
}

// parseRequired assembles the root requirement from the directive's
// arguments. The default is a singleton root with no ordering.
func (ot *OptTester) parseRequired(
	d *datadriven.TestData, mem *memo.Memo, root memo.GroupID,
) (*physical.Required, error) {
	required := &physical.Required{Distribution: physical.SingletonDist}
	for _, arg := range d.CmdArgs {
		switch arg.Key {
		case "dist":
			switch arg.Vals[0] {
			case "singleton":
				required.Distribution = physical.SingletonDist
			case "replicated":
				required.Distribution = physical.ReplicatedDist
			case "any":
				required.Distribution = physical.AnyDist
			default:
				return nil, fmt.Errorf("unknown distribution %q", arg.Vals[0])
			}

		case "ordering":
			for _, item := range arg.Vals {
				descending := strings.HasPrefix(item, "-")
				name := strings.TrimLeft(item, "+-")
				col, err := resolveColumn(mem, root, name)
				if err != nil {
					return nil, err
				}
				required.Ordering = append(required.Ordering,
					opt.MakeOrderingColumn(col, descending))
			}

		default:
			return nil, fmt.Errorf("unknown argument %q", arg.Key)
		}
	}
	return required, nil
}

// resolveColumn finds the root group's output column with the given name,
// matching either the full metadata alias or the part after "table.".
func resolveColumn(mem *memo.Memo, root memo.GroupID, name string) (opt.ColumnID, error) {
	md := mem.Metadata()
	for _, col := range mem.GroupProperties(root).OutputCols {
		alias := md.ColumnAlias(col)
		if alias == name || strings.HasSuffix(alias, "."+name) {
			return col, nil
		}
	}
	return 0, fmt.Errorf("no output column named %q", name)
}
