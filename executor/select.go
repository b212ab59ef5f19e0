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
	"sort"

	"github.com/pingcap/errors"

	"github.com/reldb/reldb/parser"
	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/types"
)

// scope is the column namespace of one SELECT, a single table or the
// combined columns of a join.
type scope interface {
	// resolve returns the position and declared type of ref within the
	// scope's row layout.
	resolve(ref parser.ColumnRef) (int, types.DataType, error)
	// outputNames returns the display name of every column in layout
	// order.
	outputNames() []string
}

// tableScope resolves references against one table. A qualifier, when
// present, must name the table itself.
type tableScope struct {
	schema *schema.TableSchema
}

func (s *tableScope) resolve(ref parser.ColumnRef) (int, types.DataType, error) {
	if ref.Table != "" && ref.Table != s.schema.Name {
		return 0, 0, &ColumnNotFoundError{Column: ref.String(), Table: s.schema.Name}
	}
	pos := s.schema.ColumnIndex(ref.Column)
	if pos < 0 {
		return 0, 0, &ColumnNotFoundError{Column: ref.Column, Table: s.schema.Name}
	}

	return pos, s.schema.Columns[pos].Type, nil
}

func (s *tableScope) outputNames() []string {
	return s.schema.ColumnNames()
}

func (e *Executor) executeSelect(stmt *parser.SelectStmt) (*Result, error) {
	if stmt.Join != nil {
		return e.executeJoinSelect(stmt)
	}

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
	source := make([][]types.Datum, len(matches))
	for i, m := range matches {
		source[i] = m.row
	}

	return buildResult(sc, stmt, source)
}

// buildResult orders, projects and packages the matched source rows.
// Ordering happens before projection, so ORDER BY may name any column
// in scope, projected or not.
func buildResult(sc scope, stmt *parser.SelectStmt, source [][]types.Datum) (*Result, error) {
	if len(stmt.OrderBy) > 0 {
		keys, err := resolveOrderKeys(sc, stmt.OrderBy)
		if err != nil {
			return nil, err
		}
		sortRowsBy(source, keys)
	}

	cols, names, err := resolveProjection(sc, stmt)
	if err != nil {
		return nil, err
	}
	rows := projectRows(source, cols)

	return &Result{Columns: names, Rows: rows, RowCount: len(rows)}, nil
}

// resolveProjection maps the projection onto scope positions and output
// names. SELECT * takes every column in layout order.
func resolveProjection(sc scope, stmt *parser.SelectStmt) ([]int, []string, error) {
	names := sc.outputNames()
	if stmt.Star {
		cols := make([]int, len(names))
		for i := range cols {
			cols[i] = i
		}
		return cols, names, nil
	}

	cols := make([]int, 0, len(stmt.Projection))
	out := make([]string, 0, len(stmt.Projection))
	for _, ref := range stmt.Projection {
		pos, _, err := sc.resolve(ref)
		if err != nil {
			return nil, nil, err
		}
		cols = append(cols, pos)
		out = append(out, names[pos])
	}

	return cols, out, nil
}

func resolveOrderKeys(sc scope, refs []parser.ColumnRef) ([]int, error) {
	keys := make([]int, 0, len(refs))
	for _, ref := range refs {
		pos, _, err := sc.resolve(ref)
		if err != nil {
			return nil, err
		}
		keys = append(keys, pos)
	}

	return keys, nil
}

// sortRowsBy sorts rows by the key positions. Values compare type-aware
// and NULL sorts last, ties keep their prior order.
func sortRowsBy(rows [][]types.Datum, keys []int) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			if c := types.Compare(rows[i][k], rows[j][k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// projectRows copies the selected positions out of every source row.
func projectRows(source [][]types.Datum, cols []int) [][]types.Datum {
	rows := make([][]types.Datum, 0, len(source))
	for _, row := range source {
		out := make([]types.Datum, len(cols))
		for i, pos := range cols {
			out[i] = row[pos]
		}
		rows = append(rows, out)
	}

	return rows
}
