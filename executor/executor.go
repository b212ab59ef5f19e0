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

// Package executor runs parsed SQL statements against a catalog and its
// table storage.
package executor

import (
	"time"

	"github.com/pingcap/errors"

	"github.com/reldb/reldb/catalog"
	"github.com/reldb/reldb/parser"
	"github.com/reldb/reldb/types"
)

// Executor dispatches statements on their variant. It holds no state of
// its own, all state lives in the catalog.
type Executor struct {
	cat *catalog.Catalog
}

// New returns an executor over cat.
func New(cat *catalog.Catalog) *Executor {
	return &Executor{cat: cat}
}

// Result is the outcome of one statement. Columns and Rows are set for
// SELECT only. RowCount is the number of rows returned for SELECT and
// the number of rows affected for everything else.
type Result struct {
	Columns  []string
	Rows     [][]types.Datum
	RowCount int
}

// Values returns the rows as plain Go values, ordered like Columns.
func (r *Result) Values() [][]interface{} {
	out := make([][]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		vals := make([]interface{}, len(row))
		for i, d := range row {
			vals[i] = d.Interface()
		}
		out = append(out, vals)
	}

	return out
}

// RowObjects returns the rows keyed by column name, the shape the HTTP
// API serves as data.
func (r *Result) RowObjects() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		obj := make(map[string]interface{}, len(row))
		for i, d := range row {
			obj[r.Columns[i]] = d.Interface()
		}
		out = append(out, obj)
	}

	return out
}

// Execute parses and runs one statement.
func (e *Executor) Execute(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		statementErrorCount.WithLabelValues("parse").Add(1.0)
		return nil, errors.Trace(err)
	}

	return e.ExecuteStmt(stmt)
}

// ExecuteStmt runs one already parsed statement.
func (e *Executor) ExecuteStmt(stmt parser.Statement) (*Result, error) {
	label := statementLabel(stmt)
	statementCounter.WithLabelValues(label).Add(1.0)

	begin := time.Now()
	var res *Result
	var err error
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		res, err = e.executeCreateTable(s)
	case *parser.DropTableStmt:
		res, err = e.executeDropTable(s)
	case *parser.InsertStmt:
		res, err = e.executeInsert(s)
	case *parser.UpdateStmt:
		res, err = e.executeUpdate(s)
	case *parser.DeleteStmt:
		res, err = e.executeDelete(s)
	case *parser.SelectStmt:
		res, err = e.executeSelect(s)
	default:
		err = errors.Errorf("unknown statement type %T", stmt)
	}
	if err != nil {
		statementErrorCount.WithLabelValues(label).Add(1.0)
		return nil, err
	}
	statementDurationHistogram.WithLabelValues(label).Observe(time.Since(begin).Seconds())

	return res, nil
}

func statementLabel(stmt parser.Statement) string {
	switch stmt.(type) {
	case *parser.CreateTableStmt:
		return "create_table"
	case *parser.DropTableStmt:
		return "drop_table"
	case *parser.InsertStmt:
		return "insert"
	case *parser.UpdateStmt:
		return "update"
	case *parser.DeleteStmt:
		return "delete"
	case *parser.SelectStmt:
		return "select"
	}

	return "unknown"
}
