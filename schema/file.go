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

package schema

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pingcap/errors"
)

// FileSuffix is the file name suffix of schema files inside a database
// directory, the table name is everything before it.
const FileSuffix = ".schema"

// FilePath returns the schema file path of table inside dir.
func FilePath(dir, table string) string {
	return filepath.Join(dir, table+FileSuffix)
}

// WriteFile stores the schema as indented JSON. The content goes to a
// temporary file first and is renamed over the target, readers never see
// a half-written schema.
func WriteFile(dir string, t *TableSchema) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}

	target := FilePath(dir, t.Name)
	tmp := target + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return errors.Trace(err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return errors.Trace(err)
	}
	if err = f.Close(); err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(os.Rename(tmp, target))
}

// ReadFile loads, normalizes and validates the schema of table from dir.
func ReadFile(dir, table string) (*TableSchema, error) {
	data, err := ioutil.ReadFile(FilePath(dir, table))
	if err != nil {
		return nil, errors.Trace(err)
	}

	var t TableSchema
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Annotatef(err, "schema file of table %s", table)
	}

	t.Normalize()
	if err := t.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	// The file name decides which data file the table opens, a schema
	// claiming another name would pair them wrong.
	if t.Name != table {
		return nil, errors.Trace(&InvalidSchemaError{
			Table:  table,
			Reason: fmt.Sprintf("schema file names table %q", t.Name),
		})
	}

	return &t, nil
}
