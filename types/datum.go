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

// Package types defines the value model shared by the parser, the storage
// engine and the executor: column types, runtime datums and dates.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the runtime type tag of a Datum.
type Kind byte

// Datum kinds. KindNull is the zero value, so an uninitialized Datum is NULL.
const (
	KindNull Kind = iota
	KindInt
	KindString
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INT"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOLEAN"
	case KindDate:
		return "DATE"
	}

	return "UNKNOWN"
}

// Datum is one SQL value. All fields are comparable, so a Datum can be
// used directly as a hash index key. The zero value is NULL.
type Datum struct {
	k Kind
	i int64
	s string
	d Date
}

// NewIntDatum returns an INT datum.
func NewIntDatum(v int64) Datum {
	return Datum{k: KindInt, i: v}
}

// NewStringDatum returns a VARCHAR datum.
func NewStringDatum(v string) Datum {
	return Datum{k: KindString, s: v}
}

// NewBoolDatum returns a BOOLEAN datum.
func NewBoolDatum(v bool) Datum {
	d := Datum{k: KindBool}
	if v {
		d.i = 1
	}
	return d
}

// NewDateDatum returns a DATE datum.
func NewDateDatum(v Date) Datum {
	return Datum{k: KindDate, d: v}
}

// NewNullDatum returns the NULL datum.
func NewNullDatum() Datum {
	return Datum{}
}

// Kind returns the runtime type tag.
func (d Datum) Kind() Kind { return d.k }

// IsNull reports whether the datum is NULL.
func (d Datum) IsNull() bool { return d.k == KindNull }

// GetInt64 returns the INT value, zero for other kinds.
func (d Datum) GetInt64() int64 { return d.i }

// GetString returns the VARCHAR value, empty for other kinds.
func (d Datum) GetString() string { return d.s }

// GetBool returns the BOOLEAN value, false for other kinds.
func (d Datum) GetBool() bool { return d.i != 0 }

// GetDate returns the DATE value, the zero Date for other kinds.
func (d Datum) GetDate() Date { return d.d }

// String renders the value the way the REPL prints it.
func (d Datum) String() string {
	switch d.k {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(d.i, 10)
	case KindString:
		return d.s
	case KindBool:
		if d.i != 0 {
			return "TRUE"
		}
		return "FALSE"
	case KindDate:
		return d.d.String()
	}

	return "UNKNOWN"
}

// Interface returns the value as a plain Go value for JSON encoding.
// Dates encode as ISO strings.
func (d Datum) Interface() interface{} {
	switch d.k {
	case KindInt:
		return d.i
	case KindString:
		return d.s
	case KindBool:
		return d.i != 0
	case KindDate:
		return d.d.String()
	}

	return nil
}

// describe renders kind and value for error messages.
func (d Datum) describe() string {
	if d.k == KindString {
		return fmt.Sprintf("%s %q", d.k, d.s)
	}

	return fmt.Sprintf("%s %s", d.k, d.String())
}

// ConvertTo coerces a literal datum to the declared type of a column.
// NULL passes through untouched, string literals convert to dates, any
// other kind must already match the column type.
func (d Datum) ConvertTo(t DataType, column string) (Datum, error) {
	if d.k == KindNull {
		return d, nil
	}

	switch t {
	case TypeInt:
		if d.k == KindInt {
			return d, nil
		}
	case TypeVarchar:
		if d.k == KindString {
			return d, nil
		}
	case TypeBool:
		if d.k == KindBool {
			return d, nil
		}
	case TypeDate:
		if d.k == KindDate {
			return d, nil
		}
		if d.k == KindString {
			date, err := ParseDate(d.s)
			if err != nil {
				return Datum{}, &TypeMismatchError{Column: column, Expected: t, Actual: fmt.Sprintf("%q", d.s)}
			}
			return NewDateDatum(date), nil
		}
	}

	return Datum{}, &TypeMismatchError{Column: column, Expected: t, Actual: d.describe()}
}

// Compare orders two datums for sorting. NULL sorts after every non-NULL
// value. Datums of different kinds order by kind tag, which cannot arise
// between values of one column.
func Compare(a, b Datum) int {
	if a.k == KindNull || b.k == KindNull {
		switch {
		case a.k == b.k:
			return 0
		case a.k == KindNull:
			return 1
		default:
			return -1
		}
	}

	if a.k != b.k {
		return int(a.k) - int(b.k)
	}

	switch a.k {
	case KindInt, KindBool:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindDate:
		if a.d == b.d {
			return 0
		}
		if a.d.Before(b.d) {
			return -1
		}
		return 1
	}

	return 0
}
