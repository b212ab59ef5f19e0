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
	"strings"

	"github.com/pingcap/errors"

	"github.com/reldb/reldb/parser"
	"github.com/reldb/reldb/types"
)

// boundPredicate is a WHERE comparison resolved to a row position, with
// the literal coerced to the column's declared type.
type boundPredicate struct {
	column  string
	col     int
	op      parser.PredOp
	value   types.Datum
	pattern string
}

// bindPredicate resolves pred's column in sc. Returns nil for a nil
// predicate, statements without WHERE match every row.
func bindPredicate(pred *parser.Predicate, sc scope) (*boundPredicate, error) {
	if pred == nil {
		return nil, nil
	}

	pos, typ, err := sc.resolve(pred.Column)
	if err != nil {
		return nil, err
	}

	b := &boundPredicate{column: pred.Column.Column, col: pos, op: pred.Op}
	switch pred.Op {
	case parser.OpEq:
		v, err := pred.Value.ConvertTo(typ, pred.Column.Column)
		if err != nil {
			return nil, errors.Trace(err)
		}
		b.value = v
	case parser.OpLike:
		b.pattern = pred.Value.GetString()
	}

	return b, nil
}

func (b *boundPredicate) matches(row []types.Datum) bool {
	d := row[b.col]
	switch b.op {
	case parser.OpEq:
		return datumEqual(d, b.value)
	case parser.OpLike:
		return likeMatch(d, b.pattern)
	}

	return false
}

// datumEqual is the predicate's equality: NULL equals NULL, values of
// different kinds never match.
func datumEqual(a, b types.Datum) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull()
	}
	if a.Kind() != b.Kind() {
		return false
	}

	return types.Compare(a, b) == 0
}

// likeMatch implements LIKE with % as a leading and/or trailing
// wildcard. The value's text rendering is matched case-insensitively,
// NULL never matches.
func likeMatch(d types.Datum, pattern string) bool {
	if d.IsNull() {
		return false
	}

	text := strings.ToLower(d.String())
	pat := strings.ToLower(pattern)

	trailing := strings.HasSuffix(pat, "%")
	leading := strings.HasPrefix(pat, "%")
	core := strings.TrimSuffix(strings.TrimPrefix(pat, "%"), "%")

	switch {
	case leading && trailing:
		return strings.Contains(text, core)
	case trailing:
		return strings.HasPrefix(text, core)
	case leading:
		return strings.HasSuffix(text, core)
	default:
		return text == core
	}
}
