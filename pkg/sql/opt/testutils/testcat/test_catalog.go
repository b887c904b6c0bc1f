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

// Package testcat implements an in-memory catalog for testing. Tables are
// registered up front; the catalog then behaves like the immutable snapshot
// a real compilation takes.
package testcat

import (
	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt/cat"
)

// Catalog is an in-memory implementation of cat.Catalog.
type Catalog struct {
	tables map[string]*Table
}

var _ cat.Catalog = (*Catalog)(nil)

// New creates an empty test catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// ResolveTable is part of the cat.Catalog interface.
func (tc *Catalog) ResolveTable(name string) (cat.Table, error) {
	tab, ok := tc.tables[name]
	if !ok {
		return nil, errors.Newf("no table named %q", name)
	}
	return tab, nil
}

// AddTable registers a table. It replaces any table with the same name.
func (tc *Catalog) AddTable(tab *Table) {
	tc.tables[tab.TabName] = tab
}

// Table is an in-memory implementation of cat.Table. Fields are exported so
// tests can declare tables as literals.
type Table struct {
	TabName string
	Columns []cat.Column

	// Rows is the row count reported by the statistics snapshot.
	Rows float64

	// IsReplicated marks the table as fully present on every node.
	IsReplicated bool

	// PartitionOrdinals are the ordinals of the partitioning key columns.
	PartitionOrdinals []int
}

var _ cat.Table = (*Table)(nil)

// Name is part of the cat.Table interface.
func (t *Table) Name() string { return t.TabName }

// ColumnCount is part of the cat.Table interface.
func (t *Table) ColumnCount() int { return len(t.Columns) }

// Column is part of the cat.Table interface.
func (t *Table) Column(ord int) *cat.Column { return &t.Columns[ord] }

// RowCount is part of the cat.Table interface.
func (t *Table) RowCount() float64 { return t.Rows }

// Replicated is part of the cat.Table interface.
func (t *Table) Replicated() bool { return t.IsReplicated }

// PartitionColumnOrdinals is part of the cat.Table interface.
func (t *Table) PartitionColumnOrdinals() []int { return t.PartitionOrdinals }
