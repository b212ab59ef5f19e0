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

package types

import (
	"strings"

	"github.com/pingcap/errors"
)

// DataType is the declared type of a column.
type DataType byte

// Column types supported by the engine.
const (
	TypeInt DataType = iota + 1
	TypeVarchar
	TypeBool
	TypeDate
)

func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeVarchar:
		return "VARCHAR"
	case TypeBool:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	}

	return "UNKNOWN"
}

// ParseDataType maps a SQL type name to its DataType. INT and INTEGER,
// BOOL and BOOLEAN are accepted aliases.
func ParseDataType(name string) (DataType, bool) {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER":
		return TypeInt, true
	case "VARCHAR":
		return TypeVarchar, true
	case "BOOL", "BOOLEAN":
		return TypeBool, true
	case "DATE":
		return TypeDate, true
	}

	return 0, false
}

// MarshalText implements encoding.TextMarshaler. Schema files store the
// type name, not the numeric tag.
func (t DataType) MarshalText() ([]byte, error) {
	if t < TypeInt || t > TypeDate {
		return nil, errors.Errorf("unknown data type tag %d", t)
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(text []byte) error {
	dt, ok := ParseDataType(string(text))
	if !ok {
		return errors.Errorf("unknown data type %q", string(text))
	}

	*t = dt
	return nil
}
