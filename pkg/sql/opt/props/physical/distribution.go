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

package physical

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/redact"

	"github.com/silodb/silo/pkg/sql/opt"
)

var _ redact.SafeValue = DistributionKind(0)

// DistributionKind classifies how the rows of an expression's output are
// spread across compute nodes.
type DistributionKind uint8

const (
	// AnyDistribution is the unconstrained distribution requirement; it is
	// satisfied by every concrete distribution. It is never provided, only
	// required.
	AnyDistribution DistributionKind = iota

	// Singleton means all rows are located on a single node.
	Singleton

	// Partitioned means rows are hash-distributed across nodes by a key.
	Partitioned

	// Replicated means a full copy of the rows is present on every node.
	Replicated
)

func (k DistributionKind) String() string {
	switch k {
	case AnyDistribution:
		return "any"
	case Singleton:
		return "singleton"
	case Partitioned:
		return "partitioned"
	case Replicated:
		return "replicated"
	}
	return fmt.Sprintf("distribution(%d)", uint8(k))
}

// SafeValue implements the redact.SafeValue interface.
func (k DistributionKind) SafeValue() {}

// Distribution is the trait describing the physical placement of an
// expression's output rows. The Key is meaningful only for Partitioned.
type Distribution struct {
	Kind DistributionKind
	Key  opt.ColSet
}

// AnyDist requires nothing of the distribution.
var AnyDist = Distribution{Kind: AnyDistribution}

// SingletonDist locates all rows on a single node.
var SingletonDist = Distribution{Kind: Singleton}

// ReplicatedDist copies all rows to every node.
var ReplicatedDist = Distribution{Kind: Replicated}

// PartitionedDist hash-distributes rows by the given key columns.
func PartitionedDist(key opt.ColSet) Distribution {
	return Distribution{Kind: Partitioned, Key: key}
}

// Any returns true if this is the unconstrained distribution.
func (d Distribution) Any() bool {
	return d.Kind == AnyDistribution
}

// Satisfies returns true if rows distributed as d meet the required
// distribution. Any is satisfied by everything; Partitioned requires an
// identical key; the other kinds require identity. In particular Replicated
// does not satisfy Singleton: consumers of a singleton see exactly one copy
// of each row, which a replicated layout cannot promise without an explicit
// operator choosing one replica.
func (d Distribution) Satisfies(required Distribution) bool {
	if required.Any() {
		return true
	}
	if d.Kind != required.Kind {
		return false
	}
	if d.Kind == Partitioned {
		return d.Key.Equals(required.Key)
	}
	return true
}

// Equals returns true if the two distributions are identical.
func (d Distribution) Equals(other Distribution) bool {
	return d.Kind == other.Kind && d.Key.Equals(other.Key)
}

func (d Distribution) String() string {
	if d.Kind != Partitioned {
		return d.Kind.String()
	}
	var buf bytes.Buffer
	buf.WriteString("partitioned")
	buf.WriteByte('[')
	first := true
	d.Key.ForEach(func(c int) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%d", c)
	})
	buf.WriteByte(']')
	return buf.String()
}

// CanEnforce returns true if an Exchange operator can convert rows
// distributed as "actual" into the required distribution. Gathering to a
// Singleton and repartitioning by a key are always possible; broadcasting to
// Replicated is not expressible by the exchange and requires a different
// plan shape, so no enforcer exists for it.
func CanEnforce(actual, required Distribution) bool {
	if required.Any() || actual.Satisfies(required) {
		return false
	}
	switch required.Kind {
	case Singleton, Partitioned:
		return true
	default:
		return false
	}
}
