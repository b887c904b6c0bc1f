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

package optbuilder

import (
	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt"
)

// scope tracks the columns a subtree makes visible to scalar expressions
// above it, in output order.
type scope struct {
	cols []scopeColumn
}

// scopeColumn binds a visible name to a metadata column.
type scopeColumn struct {
	name string
	id   opt.ColumnID
}

func (s *scope) append(name string, id opt.ColumnID) {
	s.cols = append(s.cols, scopeColumn{name: name, id: id})
}

// resolve returns the metadata id of the named column. The input tree is
// validated upstream, so an unknown or ambiguous name is a bug.
func (s *scope) resolve(name string) opt.ColumnID {
	var found opt.ColumnID
	for i := range s.cols {
		if s.cols[i].name == name {
			if found != 0 {
				panic(errors.AssertionFailedf("ambiguous column %s", name))
			}
			found = s.cols[i].id
		}
	}
	if found == 0 {
		panic(errors.AssertionFailedf("unknown column %s", name))
	}
	return found
}

// merge returns a scope exposing this scope's columns followed by the
// other's, matching join output order.
func (s *scope) merge(other *scope) *scope {
	merged := &scope{cols: make([]scopeColumn, 0, len(s.cols)+len(other.cols))}
	merged.cols = append(merged.cols, s.cols...)
	merged.cols = append(merged.cols, other.cols...)
	return merged
}
