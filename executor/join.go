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
	"github.com/reldb/reldb/storage"
	"github.com/reldb/reldb/types"
)

// joinScope resolves references against the combined columns of a join,
// FROM side first. A bare name both sides carry is ambiguous.
type joinScope struct {
	left  *schema.TableSchema
	right *schema.TableSchema
}

func (s *joinScope) resolve(ref parser.ColumnRef) (int, types.DataType, error) {
	if ref.Table != "" {
		switch ref.Table {
		case s.left.Name:
			pos := s.left.ColumnIndex(ref.Column)
			if pos < 0 {
				return 0, 0, &ColumnNotFoundError{Column: ref.Column, Table: s.left.Name}
			}
			return pos, s.left.Columns[pos].Type, nil
		case s.right.Name:
			pos := s.right.ColumnIndex(ref.Column)
			if pos < 0 {
				return 0, 0, &ColumnNotFoundError{Column: ref.Column, Table: s.right.Name}
			}
			return len(s.left.Columns) + pos, s.right.Columns[pos].Type, nil
		}
		return 0, 0, &ColumnNotFoundError{Column: ref.String()}
	}

	lpos := s.left.ColumnIndex(ref.Column)
	rpos := s.right.ColumnIndex(ref.Column)
	switch {
	case lpos >= 0 && rpos >= 0:
		return 0, 0, &ColumnNotFoundError{Column: ref.Column, Ambiguous: true}
	case lpos >= 0:
		return lpos, s.left.Columns[lpos].Type, nil
	case rpos >= 0:
		return len(s.left.Columns) + rpos, s.right.Columns[rpos].Type, nil
	}

	return 0, 0, &ColumnNotFoundError{Column: ref.Column}
}

// outputNames qualifies a column with its table name only when both
// sides share the column name.
func (s *joinScope) outputNames() []string {
	names := make([]string, 0, len(s.left.Columns)+len(s.right.Columns))
	for _, col := range s.left.Columns {
		name := col.Name
		if s.right.ColumnIndex(name) >= 0 {
			name = s.left.Name + "." + name
		}
		names = append(names, name)
	}
	for _, col := range s.right.Columns {
		name := col.Name
		if s.left.ColumnIndex(name) >= 0 {
			name = s.right.Name + "." + name
		}
		names = append(names, name)
	}

	return names
}

// buildSide is the hash side of a join. When the key column carries a
// hash index the lookups go straight to it, otherwise one scan builds a
// map keyed by the join value.
type buildSide struct {
	store  *storage.Table
	column string
	byKey  map[types.Datum][][]types.Datum
}

func newBuildSide(store *storage.Table, sc *schema.TableSchema, keyCol int) *buildSide {
	b := &buildSide{store: store, column: sc.Columns[keyCol].Name}
	if store.HasIndex(b.column) {
		return b
	}

	b.byKey = make(map[types.Datum][][]types.Datum)
	cur := store.Scan()
	for {
		_, row, ok := cur.Next()
		if !ok {
			break
		}
		key := row[keyCol]
		if key.IsNull() {
			continue
		}
		b.byKey[key] = append(b.byKey[key], row)
	}

	return b
}

// match returns the build rows whose key equals v. NULL joins nothing,
// two NULL keys are not a match.
func (b *buildSide) match(v types.Datum) [][]types.Datum {
	if v.IsNull() {
		return nil
	}
	if b.byKey != nil {
		return b.byKey[v]
	}

	var rows [][]types.Datum
	for _, id := range b.store.PointLookup(b.column, v) {
		if row, err := b.store.Get(id); err == nil {
			rows = append(rows, row)
		}
	}

	return rows
}

// joinRows probes every row of the probe side against build, in
// insertion order, so the output follows the probe side. When outer is
// set an unmatched probe row is emitted once, padded with NULLs on the
// build side. buildLeft places the build side's values first in the
// combined rows.
func joinRows(probe *storage.Table, probeKey int, build *buildSide, buildWidth int, outer, buildLeft bool) [][]types.Datum {
	var out [][]types.Datum
	cur := probe.Scan()
	for {
		_, row, ok := cur.Next()
		if !ok {
			break
		}
		matches := build.match(row[probeKey])
		if len(matches) == 0 {
			if outer {
				out = append(out, combineRows(nil, row, buildWidth, buildLeft))
			}
			continue
		}
		for _, b := range matches {
			out = append(out, combineRows(b, row, buildWidth, buildLeft))
		}
	}

	return out
}

// combineRows concatenates one build row and one probe row in left,
// right order. A nil build row pads its side with NULLs.
func combineRows(build, probe []types.Datum, buildWidth int, buildLeft bool) []types.Datum {
	if build == nil {
		build = make([]types.Datum, buildWidth)
	}

	out := make([]types.Datum, 0, len(build)+len(probe))
	if buildLeft {
		out = append(out, build...)
		return append(out, probe...)
	}
	out = append(out, probe...)

	return append(out, build...)
}

func (e *Executor) executeJoinSelect(stmt *parser.SelectStmt) (*Result, error) {
	join := stmt.Join

	leftEntry, err := e.cat.Lookup(stmt.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}
	rightEntry, err := e.cat.Lookup(join.Table)
	if err != nil {
		return nil, errors.Trace(err)
	}

	leftKey := leftEntry.Schema.ColumnIndex(join.Left.Column)
	if leftKey < 0 {
		return nil, &ColumnNotFoundError{Column: join.Left.Column, Table: stmt.Table}
	}
	rightKey := rightEntry.Schema.ColumnIndex(join.Right.Column)
	if rightKey < 0 {
		return nil, &ColumnNotFoundError{Column: join.Right.Column, Table: join.Table}
	}

	rightWidth := len(rightEntry.Schema.Columns)
	leftWidth := len(leftEntry.Schema.Columns)

	var combined [][]types.Datum
	switch join.Kind {
	case parser.JoinInner:
		// hash the smaller side, probe the larger
		if rightEntry.Store.Rows() <= leftEntry.Store.Rows() {
			build := newBuildSide(rightEntry.Store, rightEntry.Schema, rightKey)
			combined = joinRows(leftEntry.Store, leftKey, build, rightWidth, false, false)
		} else {
			build := newBuildSide(leftEntry.Store, leftEntry.Schema, leftKey)
			combined = joinRows(rightEntry.Store, rightKey, build, leftWidth, false, true)
		}
	case parser.JoinLeft:
		build := newBuildSide(rightEntry.Store, rightEntry.Schema, rightKey)
		combined = joinRows(leftEntry.Store, leftKey, build, rightWidth, true, false)
	case parser.JoinRight:
		build := newBuildSide(leftEntry.Store, leftEntry.Schema, leftKey)
		combined = joinRows(rightEntry.Store, rightKey, build, leftWidth, true, true)
	}

	sc := &joinScope{left: leftEntry.Schema, right: rightEntry.Schema}

	pred, err := bindPredicate(stmt.Where, sc)
	if err != nil {
		return nil, err
	}
	if pred != nil {
		kept := combined[:0]
		for _, row := range combined {
			if pred.matches(row) {
				kept = append(kept, row)
			}
		}
		combined = kept
	}

	return buildResult(sc, stmt, combined)
}
