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

package storage

import (
	"sort"

	"github.com/reldb/reldb/types"
)

// hashIndex maps one column's values to the set of row ids holding
// them. NULL is never indexed, two NULLs don't collide under a unique
// constraint.
type hashIndex struct {
	column string
	// position of the column inside the row
	col  int
	rows map[types.Datum]map[int64]struct{}
}

func newHashIndex(column string, col int) *hashIndex {
	return &hashIndex{
		column: column,
		col:    col,
		rows:   make(map[types.Datum]map[int64]struct{}),
	}
}

func (idx *hashIndex) add(value types.Datum, rowID int64) {
	if value.IsNull() {
		return
	}

	set, ok := idx.rows[value]
	if !ok {
		set = make(map[int64]struct{}, 1)
		idx.rows[value] = set
	}
	set[rowID] = struct{}{}
}

func (idx *hashIndex) remove(value types.Datum, rowID int64) {
	if value.IsNull() {
		return
	}

	set, ok := idx.rows[value]
	if !ok {
		return
	}
	delete(set, rowID)
	if len(set) == 0 {
		delete(idx.rows, value)
	}
}

// lookup returns the ids of the rows holding value, ascending.
func (idx *hashIndex) lookup(value types.Datum) []int64 {
	if value.IsNull() {
		return nil
	}

	set := idx.rows[value]
	if len(set) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// conflicts reports whether value is already held by a row other than
// excluding. Unique checks run before any write touches the file.
func (idx *hashIndex) conflicts(value types.Datum, excluding int64) bool {
	if value.IsNull() {
		return false
	}

	for id := range idx.rows[value] {
		if id != excluding {
			return true
		}
	}

	return false
}
