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

package opt

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/silodb/silo/pkg/sql/opt/cat"
	"github.com/silodb/silo/pkg/sql/types"
)

// Metadata assigns unique ids to the columns and tables used within the scope
// of a particular query. Within a query, every use of a column is assigned a
// distinct ColumnID, even when two uses refer to the same table column, so
// that expressions can reference columns unambiguously without scoping rules.
// Metadata is owned by the per-compilation context and is never shared across
// compilations.
type Metadata struct {
	// cols is indexed by ColumnID-1.
	cols []ColumnMeta

	// tables is indexed by the table part of TableID.
	tables []TableMeta
}

// ColumnMeta stores information about one of the columns stored in the
// metadata.
type ColumnMeta struct {
	// MetaID is the identifier for this column that is unique within the query
	// metadata.
	MetaID ColumnID

	// Alias is the best-effort name of this column for display purposes.
	Alias string

	// Type is the resolved type of this column.
	Type types.T

	// Table is the base table to which this column belongs. If the column was
	// synthesized (e.g. by a projection), then Table is zero.
	Table TableID
}

// TableID uniquely identifies the usage of a table within the scope of a
// query. TableID 0 is reserved to mean "unknown table".
//
// Internally, the TableID consists of an index into the Metadata.tables
// slice, as well as the ColumnID of the first column in the table. Subsequent
// columns have sequential ids, relative to their ordinal position in the
// table.
type TableID uint64

const tableIDMask = 0xffffffff

// ColumnID returns the metadata id of the column at the given ordinal
// position in the table.
func (t TableID) ColumnID(ord int) ColumnID {
	return t.firstColID() + ColumnID(ord)
}

// ColumnOrdinal returns the ordinal position of the given column in its base
// table.
func (t TableID) ColumnOrdinal(id ColumnID) int {
	return int(id - t.firstColID())
}

// makeTableID constructs a new TableID from its component parts.
func makeTableID(index int, firstColID ColumnID) TableID {
	// Bias the table index by 1 so that TableID 0 stays reserved.
	return TableID((uint64(index+1) << 32) | uint64(firstColID))
}

// firstColID returns the ColumnID of the first column in the table.
func (t TableID) firstColID() ColumnID {
	return ColumnID(t & tableIDMask)
}

// index returns the index of the table in Metadata.tables.
func (t TableID) index() int {
	return int((t>>32)&tableIDMask) - 1
}

// TableMeta stores information about one of the tables stored in the
// metadata.
type TableMeta struct {
	// MetaID is the identifier for this table that is unique within the query
	// metadata.
	MetaID TableID

	// Table is a reference to the table in the catalog.
	Table cat.Table
}

// AddColumn assigns a new unique id to a column within the query and records
// its alias and type.
func (md *Metadata) AddColumn(alias string, typ types.T) ColumnID {
	md.cols = append(md.cols, ColumnMeta{Alias: alias, Type: typ})
	id := ColumnID(len(md.cols))
	md.cols[len(md.cols)-1].MetaID = id
	return id
}

// NumColumns returns the count of columns tracked by this Metadata instance.
func (md *Metadata) NumColumns() int {
	return len(md.cols)
}

// ColumnMeta looks up the metadata for the column associated with the given
// column id. The same column id must have been returned by AddColumn.
func (md *Metadata) ColumnMeta(id ColumnID) *ColumnMeta {
	if id == 0 || int(id) > len(md.cols) {
		panic(errors.AssertionFailedf("invalid column id %d", id))
	}
	return &md.cols[id-1]
}

// ColumnAlias returns the best-effort name of the column with the given id.
func (md *Metadata) ColumnAlias(id ColumnID) string {
	return md.ColumnMeta(id).Alias
}

// ColumnType returns the type of the column with the given id.
func (md *Metadata) ColumnType(id ColumnID) types.T {
	return md.ColumnMeta(id).Type
}

// AddTable indexes a new reference to a table within the query. Separate
// references to the same table are assigned different table ids, since the
// optimizer can use the distinction (e.g. in self-joins). Each of the table's
// columns is added as well, with the table name qualifying the alias.
func (md *Metadata) AddTable(tab cat.Table) TableID {
	tabID := makeTableID(len(md.tables), ColumnID(len(md.cols)+1))
	md.tables = append(md.tables, TableMeta{MetaID: tabID, Table: tab})

	for i, n := 0, tab.ColumnCount(); i < n; i++ {
		col := tab.Column(i)
		colID := md.AddColumn(fmt.Sprintf("%s.%s", tab.Name(), col.Name), col.Type)
		md.cols[colID-1].Table = tabID
	}
	return tabID
}

// TableMeta looks up the metadata for the table associated with the given
// table id.
func (md *Metadata) TableMeta(tabID TableID) *TableMeta {
	if tabID == 0 || tabID.index() >= len(md.tables) {
		panic(errors.AssertionFailedf("invalid table id %d", tabID))
	}
	return &md.tables[tabID.index()]
}

// Table looks up the catalog table associated with the given metadata id.
func (md *Metadata) Table(tabID TableID) cat.Table {
	return md.TableMeta(tabID).Table
}

// TableColumns returns the metadata ids of all columns of the given table, in
// ordinal order.
func (md *Metadata) TableColumns(tabID TableID) ColList {
	tab := md.Table(tabID)
	cols := make(ColList, tab.ColumnCount())
	for i := range cols {
		cols[i] = tabID.ColumnID(i)
	}
	return cols
}

// PartitionColumns returns the metadata ids of the partitioning key columns
// of the given table. Empty for replicated tables.
func (md *Metadata) PartitionColumns(tabID TableID) ColSet {
	var cs ColSet
	for _, ord := range md.Table(tabID).PartitionColumnOrdinals() {
		cs.Add(int(tabID.ColumnID(ord)))
	}
	return cs
}
