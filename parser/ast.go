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

package parser

import "github.com/reldb/reldb/types"

// Statement is the closed set of parsed SQL statements. The executor
// dispatches on the concrete type.
type Statement interface {
	statementNode()
}

// ColumnRef names a column, optionally qualified by its table.
type ColumnRef struct {
	Table  string
	Column string
}

func (r ColumnRef) String() string {
	if r.Table == "" {
		return r.Column
	}
	return r.Table + "." + r.Column
}

// ColumnDef is one column definition inside CREATE TABLE.
type ColumnDef struct {
	Name       string
	Type       types.DataType
	Length     int
	PrimaryKey bool
	Unique     bool
	NotNull    bool
}

// CreateTableStmt is CREATE TABLE name (col type [constraints], ...).
type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

// DropTableStmt is DROP TABLE name.
type DropTableStmt struct {
	Table string
}

// InsertStmt is INSERT INTO name [(columns)] VALUES (literals). Columns
// is nil for the positional form.
type InsertStmt struct {
	Table   string
	Columns []string
	Values  []types.Datum
}

// Assignment is one column = literal pair in an UPDATE SET list.
type Assignment struct {
	Column string
	Value  types.Datum
}

// UpdateStmt is UPDATE name SET assignments [WHERE predicate].
type UpdateStmt struct {
	Table       string
	Assignments []Assignment
	Where       *Predicate
}

// DeleteStmt is DELETE FROM name [WHERE predicate].
type DeleteStmt struct {
	Table string
	Where *Predicate
}

// JoinKind selects the join strategy.
type JoinKind byte

// Supported join kinds.
const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	}
	return "UNKNOWN"
}

// JoinClause is <KIND> JOIN table ON left = right. Left always refers to
// the FROM table and Right to the joined table, whichever order the ON
// condition was written in.
type JoinClause struct {
	Kind  JoinKind
	Table string
	Left  ColumnRef
	Right ColumnRef
}

// PredOp is a predicate comparison operator.
type PredOp byte

// Predicate operators.
const (
	OpEq PredOp = iota
	OpLike
)

func (op PredOp) String() string {
	if op == OpLike {
		return "LIKE"
	}
	return "="
}

// Predicate is the single comparison allowed in a WHERE clause.
type Predicate struct {
	Column ColumnRef
	Op     PredOp
	Value  types.Datum
}

// SelectStmt is SELECT projection FROM table [join] [WHERE predicate]
// [ORDER BY columns]. Star is set for SELECT *.
type SelectStmt struct {
	Star       bool
	Projection []ColumnRef
	Table      string
	Join       *JoinClause
	Where      *Predicate
	OrderBy    []ColumnRef
}

func (*CreateTableStmt) statementNode() {}
func (*DropTableStmt) statementNode()   {}
func (*InsertStmt) statementNode()      {}
func (*UpdateStmt) statementNode()      {}
func (*DeleteStmt) statementNode()      {}
func (*SelectStmt) statementNode()      {}
