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

// Package db ties the catalog and the executor into a single database
// handle over one data directory.
package db

import (
	"github.com/pingcap/errors"

	"github.com/reldb/reldb/catalog"
	"github.com/reldb/reldb/executor"
	"github.com/reldb/reldb/parser"
	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/storage"
	"github.com/reldb/reldb/types"
)

// DB is an open database. All methods are safe for concurrent use, the
// catalog and each table serialize their own mutations.
type DB struct {
	dir  string
	cat  *catalog.Catalog
	exec *executor.Executor
}

// Open loads the database under dir, creating it when empty. A nil opts
// means storage.DefaultOptions.
func Open(dir string, opts *storage.Options) (*DB, error) {
	cat, err := catalog.Open(dir, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &DB{dir: dir, cat: cat, exec: executor.New(cat)}, nil
}

// Execute runs one SQL statement.
func (db *DB) Execute(sql string) (*executor.Result, error) {
	return db.exec.Execute(sql)
}

// Dir returns the data directory.
func (db *DB) Dir() string {
	return db.dir
}

// TableDesc pairs a table name with its schema, the shape the schema
// API serves.
type TableDesc struct {
	Table  string              `json:"table"`
	Schema *schema.TableSchema `json:"schema"`
}

// DescribeSchema returns the schema of one table, or of every table
// sorted by name when table is empty.
func (db *DB) DescribeSchema(table string) ([]TableDesc, error) {
	if table != "" {
		e, err := db.cat.Lookup(table)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return []TableDesc{{Table: table, Schema: e.Schema}}, nil
	}

	entries := db.cat.All()
	descs := make([]TableDesc, 0, len(entries))
	for _, e := range entries {
		descs = append(descs, TableDesc{Table: e.Schema.Name, Schema: e.Schema})
	}

	return descs, nil
}

// TableInfo is one table's name and live row count.
type TableInfo struct {
	Name string `json:"name"`
	Rows int    `json:"row_count"`
}

// Tables lists every table with its row count, sorted by name.
func (db *DB) Tables() []TableInfo {
	entries := db.cat.All()
	infos := make([]TableInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, TableInfo{Name: e.Schema.Name, Rows: e.Store.Rows()})
	}

	return infos
}

// DropTable removes one table and reports how many rows it held.
func (db *DB) DropTable(table string) (int, error) {
	return db.cat.Remove(table)
}

// Close closes every open table, syncing each on the way out.
func (db *DB) Close() error {
	return errors.Trace(db.cat.Close())
}

// IsUserErr reports whether err was caused by the statement rather than
// the engine. The HTTP layer maps user errors to status 400 and
// everything else, disk failures included, to 500.
func IsUserErr(err error) bool {
	switch errors.Cause(err).(type) {
	case *parser.ParseError,
		*catalog.TableNotFoundError,
		*catalog.TableExistsError,
		*schema.InvalidSchemaError,
		*executor.ColumnNotFoundError,
		*types.TypeMismatchError,
		*storage.ConstraintError:
		return true
	}

	return false
}
