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

package executor

import (
	"github.com/pingcap/errors"

	"github.com/reldb/reldb/parser"
	"github.com/reldb/reldb/schema"
)

func (e *Executor) executeCreateTable(stmt *parser.CreateTableStmt) (*Result, error) {
	sc := &schema.TableSchema{
		Name:    stmt.Table,
		Columns: make([]schema.Column, 0, len(stmt.Columns)),
	}
	for _, def := range stmt.Columns {
		sc.Columns = append(sc.Columns, schema.Column{
			Name:       def.Name,
			Type:       def.Type,
			Length:     def.Length,
			PrimaryKey: def.PrimaryKey,
			Unique:     def.Unique,
			Nullable:   !def.NotNull,
		})
	}

	if err := e.cat.Define(sc); err != nil {
		return nil, errors.Trace(err)
	}

	return &Result{}, nil
}

// executeDropTable removes the table and reports how many rows it held.
func (e *Executor) executeDropTable(stmt *parser.DropTableStmt) (*Result, error) {
	rows, err := e.cat.Remove(stmt.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &Result{RowCount: rows}, nil
}
