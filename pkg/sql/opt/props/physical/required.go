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

// Package physical defines the trait algebra: the physical properties that
// expressions can require of their inputs and provide to their parents.
// Traits are interesting characteristics of an expression that impact its
// layout or location but not its logical content: the convention (stage of
// conversion), the distribution of rows across nodes, and the collation
// (sort order) of result rows.
//
// Required trait sets are derived top-to-bottom: there is a required trait
// set on the root, and each expression can require traits of one or more of
// its inputs. When an expression is optimized, it is always with respect to
// a particular required trait set; the goal is to find the lowest cost
// expression that provides those traits while remaining logically
// equivalent.
package physical

import (
	"bytes"

	"github.com/silodb/silo/pkg/sql/opt"
)

// Required is a fixed-arity tuple over the independent trait dimensions. The
// zero value requires nothing: ConventionNone, any distribution, any
// ordering.
type Required struct {
	// Convention is the required conversion stage of the expression.
	Convention opt.Convention

	// Distribution specifies how result rows must be spread across compute
	// nodes. AnyDist is satisfied by every concrete distribution.
	Distribution Distribution

	// Ordering specifies the required sort order of result rows. An empty
	// ordering is satisfied by any row order; a non-empty ordering is
	// satisfied by an identical ordering or one having it as a prefix.
	Ordering opt.Ordering
}

// MinRequired are the default traits that require nothing. The zero
// convention requirement is only meaningful before the logical phase.
var MinRequired = &Required{}

// Defined is true if any trait beyond the defaults is required.
func (p *Required) Defined() bool {
	return p.Convention != opt.ConventionNone || !p.Distribution.Any() || !p.Ordering.Empty()
}

// Equals returns true if the two required trait sets are identical.
func (p *Required) Equals(other *Required) bool {
	return p.Convention == other.Convention &&
		p.Distribution.Equals(other.Distribution) &&
		p.Ordering.Equals(other.Ordering)
}

func (p *Required) String() string {
	var buf bytes.Buffer
	output := func(name, value string) {
		if buf.Len() != 0 {
			buf.WriteByte(' ')
		}
		buf.WriteByte('[')
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteByte(']')
	}

	output("convention", p.Convention.String())
	if !p.Distribution.Any() {
		output("distribution", p.Distribution.String())
	}
	if !p.Ordering.Empty() {
		output("ordering", p.Ordering.String())
	}
	return buf.String()
}

// Fingerprint returns a deterministic key under which the trait set is
// interned in the memo. Two trait sets fingerprint identically iff they are
// Equal.
func (p *Required) Fingerprint() string {
	return p.String()
}
