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

// Package cat contains the interfaces through which the optimizer reads
// catalog metadata. The optimizer never writes through these interfaces, and
// an implementation must present an immutable snapshot for the duration of a
// compilation: a concurrent schema change must not become visible to an
// in-flight optimization.
package cat

import "github.com/silodb/silo/pkg/sql/types"

// Catalog is the read-only metadata provider consumed by the optimizer. The
// surrounding compiler resolves names during validation; by the time the
// optimizer runs, ResolveTable is only called for names that are known to
// exist.
type Catalog interface {
	// ResolveTable returns the table with the given unqualified name, or an
	// error if no such table exists in the snapshot.
	ResolveTable(name string) (Table, error)
}

// Table is an interface to a database object that provides rows. Tables in a
// distributed deployment are either partitioned across nodes by a key or
// replicated to every node.
type Table interface {
	// Name returns the unqualified table name.
	Name() string

	// ColumnCount returns the number of columns in the table.
	ColumnCount() int

	// Column returns the column at the given ordinal position [0, ColumnCount).
	Column(ord int) *Column

	// RowCount returns the estimated number of rows in the table according to
	// the statistics snapshot taken at compilation start.
	RowCount() float64

	// Replicated returns true if a full copy of the table is present on every
	// node. If false, the table is partitioned by the key columns returned by
	// PartitionColumnOrdinals.
	Replicated() bool

	// PartitionColumnOrdinals returns the ordinals of the columns that make up
	// the partitioning key. Empty for replicated tables.
	PartitionColumnOrdinals() []int
}

// Column describes a single table column.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the resolved column type.
	Type types.T

	// Nullable is true if the column can contain NULL values.
	Nullable bool
}
