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
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/reldb/reldb/parser"
	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/storage"
	"github.com/reldb/reldb/types"
)

func (e *Executor) executeInsert(stmt *parser.InsertStmt) (*Result, error) {
	entry, err := e.cat.Lookup(stmt.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}

	row := stmt.Values
	if stmt.Columns != nil {
		row, err = alignNamedValues(entry.Schema, stmt.Columns, stmt.Values)
		if err != nil {
			return nil, err
		}
	}

	if _, err := entry.Store.Insert(row); err != nil {
		return nil, errors.Trace(err)
	}

	return &Result{RowCount: 1}, nil
}

// alignNamedValues orders the values of a named-column INSERT into
// schema column order. Columns left out stay NULL, a column named twice
// keeps the last value.
func alignNamedValues(sc *schema.TableSchema, columns []string, values []types.Datum) ([]types.Datum, error) {
	row := make([]types.Datum, len(sc.Columns))
	for i, col := range columns {
		pos := sc.ColumnIndex(col)
		if pos < 0 {
			return nil, &ColumnNotFoundError{Column: col, Table: sc.Name}
		}
		row[pos] = values[i]
	}

	return row, nil
}

func (e *Executor) executeUpdate(stmt *parser.UpdateStmt) (*Result, error) {
	entry, err := e.cat.Lookup(stmt.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sc := &tableScope{schema: entry.Schema}

	type boundAssign struct {
		col   int
		value types.Datum
	}
	assigns := make([]boundAssign, 0, len(stmt.Assignments))
	for _, a := range stmt.Assignments {
		pos, typ, err := sc.resolve(parser.ColumnRef{Column: a.Column})
		if err != nil {
			return nil, err
		}
		v, err := a.Value.ConvertTo(typ, a.Column)
		if err != nil {
			return nil, errors.Trace(err)
		}
		assigns = append(assigns, boundAssign{col: pos, value: v})
	}

	pred, err := bindPredicate(stmt.Where, sc)
	if err != nil {
		return nil, err
	}

	matches := matchRows(entry.Store, pred)

	// a constraint failure on a later row must not leave earlier rows
	// changed, applied updates are undone before reporting it
	applied := make([]matchedRow, 0, len(matches))
	for _, m := range matches {
		row := make([]types.Datum, len(m.row))
		copy(row, m.row)
		for _, a := range assigns {
			row[a.col] = a.value
		}

		if err := entry.Store.Update(m.id, row); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				if rerr := entry.Store.Update(applied[i].id, applied[i].row); rerr != nil {
					log.Error("undo of partial update failed",
						zap.String("table", stmt.Table),
						zap.Int64("rowID", applied[i].id),
						zap.Error(rerr))
					break
				}
			}
			return nil, errors.Trace(err)
		}
		applied = append(applied, m)
	}

	return &Result{RowCount: len(matches)}, nil
}

func (e *Executor) executeDelete(stmt *parser.DeleteStmt) (*Result, error) {
	entry, err := e.cat.Lookup(stmt.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sc := &tableScope{schema: entry.Schema}

	pred, err := bindPredicate(stmt.Where, sc)
	if err != nil {
		return nil, err
	}

	matches := matchRows(entry.Store, pred)
	for _, m := range matches {
		if err := entry.Store.Delete(m.id); err != nil {
			return nil, errors.Trace(err)
		}
	}

	return &Result{RowCount: len(matches)}, nil
}

// matchedRow pairs a row id with the row values seen at match time.
type matchedRow struct {
	id  int64
	row []types.Datum
}

// matchRows returns the rows matching pred in row id order, which is
// insertion order. An equality on an indexed column is answered by the
// hash index, everything else scans. A nil pred matches every row.
func matchRows(store *storage.Table, pred *boundPredicate) []matchedRow {
	if pred != nil && pred.op == parser.OpEq && !pred.value.IsNull() && store.HasIndex(pred.column) {
		ids := store.PointLookup(pred.column, pred.value)
		matches := make([]matchedRow, 0, len(ids))
		for _, id := range ids {
			row, err := store.Get(id)
			if err != nil {
				continue
			}
			matches = append(matches, matchedRow{id: id, row: row})
		}
		return matches
	}

	var matches []matchedRow
	cur := store.Scan()
	for {
		id, row, ok := cur.Next()
		if !ok {
			break
		}
		if pred == nil || pred.matches(row) {
			matches = append(matches, matchedRow{id: id, row: row})
		}
	}

	return matches
}
