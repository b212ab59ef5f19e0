// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema describes table shapes: the ordered column list of a
// table, the constraint flags on each column, and the JSON form both are
// stored in on disk.
package schema

import (
	"fmt"
	"strings"

	"github.com/reldb/reldb/types"
)

// Column is one column definition. The JSON field names are the on disk
// schema file format, renaming them breaks existing databases.
type Column struct {
	Name       string         `json:"name"`
	Type       types.DataType `json:"dtype"`
	Length     int            `json:"length,omitempty"`
	PrimaryKey bool           `json:"primary_key"`
	Unique     bool           `json:"unique"`
	Nullable   bool           `json:"nullable"`
}

// Indexed reports whether the column carries a hash index.
func (c Column) Indexed() bool {
	return c.PrimaryKey || c.Unique
}

// String renders the column the way CREATE TABLE spells it, like
// "name VARCHAR(50) NOT NULL".
func (c Column) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte(' ')
	sb.WriteString(c.Type.String())
	if c.Type == types.TypeVarchar {
		fmt.Fprintf(&sb, "(%d)", c.Length)
	}
	switch {
	case c.PrimaryKey:
		sb.WriteString(" PRIMARY KEY")
	case c.Unique:
		sb.WriteString(" UNIQUE")
	}
	if !c.Nullable && !c.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	return sb.String()
}

// TableSchema is the full description of one table.
type TableSchema struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column returns the named column, or nil when the table has no such
// column.
func (t *TableSchema) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *TableSchema) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in definition order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Normalize applies the constraint implications: a PRIMARY KEY column is
// unique and never nullable, whatever the definition spelled out.
func (t *TableSchema) Normalize() {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			t.Columns[i].Unique = true
			t.Columns[i].Nullable = false
		}
	}
}

// Validate checks the schema for structural problems. CREATE TABLE and
// schema file loading both go through it, so a hand-edited file gets the
// same checks as fresh DDL.
func (t *TableSchema) Validate() error {
	if t.Name == "" {
		return &InvalidSchemaError{Table: t.Name, Reason: "table name is empty"}
	}
	if len(t.Columns) == 0 {
		return &InvalidSchemaError{Table: t.Name, Reason: "table has no columns"}
	}

	seen := make(map[string]struct{}, len(t.Columns))
	pks := 0
	for _, col := range t.Columns {
		if col.Name == "" {
			return &InvalidSchemaError{Table: t.Name, Reason: "column name is empty"}
		}
		if _, ok := seen[col.Name]; ok {
			return &InvalidSchemaError{Table: t.Name, Reason: fmt.Sprintf("duplicate column %q", col.Name)}
		}
		seen[col.Name] = struct{}{}

		switch col.Type {
		case types.TypeVarchar:
			if col.Length <= 0 {
				return &InvalidSchemaError{Table: t.Name, Reason: fmt.Sprintf("column %q: VARCHAR requires a positive length", col.Name)}
			}
		case types.TypeInt, types.TypeBool, types.TypeDate:
			if col.Length != 0 {
				return &InvalidSchemaError{Table: t.Name, Reason: fmt.Sprintf("column %q: type %s takes no length", col.Name, col.Type)}
			}
		default:
			return &InvalidSchemaError{Table: t.Name, Reason: fmt.Sprintf("column %q has an unknown type", col.Name)}
		}

		if col.PrimaryKey {
			pks++
			if pks > 1 {
				return &InvalidSchemaError{Table: t.Name, Reason: "more than one PRIMARY KEY column"}
			}
		}
	}

	return nil
}
