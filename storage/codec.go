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
	"encoding/binary"

	"github.com/pingcap/errors"

	"github.com/reldb/reldb/types"
)

/*
row payload := datum*
datum :=
  kind: uint8        // types.Kind of the value
  value:             // by kind:
    NULL               nothing
    INT                int64, little endian
    STRING             length uint32 little endian, then raw bytes
    BOOL               uint8, 0 or 1
    DATE               year uint16 little endian, month uint8, day uint8
*/

func encodeRow(row []types.Datum) []byte {
	size := 0
	for _, d := range row {
		size += datumSize(d)
	}

	buf := make([]byte, 0, size)
	for _, d := range row {
		buf = encodeDatum(buf, d)
	}

	return buf
}

func datumSize(d types.Datum) int {
	switch d.Kind() {
	case types.KindInt:
		return 1 + 8
	case types.KindString:
		return 1 + 4 + len(d.GetString())
	case types.KindBool:
		return 1 + 1
	case types.KindDate:
		return 1 + 4
	default:
		return 1
	}
}

func encodeDatum(buf []byte, d types.Datum) []byte {
	var scratch [8]byte

	buf = append(buf, byte(d.Kind()))
	switch d.Kind() {
	case types.KindInt:
		binary.LittleEndian.PutUint64(scratch[:], uint64(d.GetInt64()))
		buf = append(buf, scratch[:]...)
	case types.KindString:
		s := d.GetString()
		binary.LittleEndian.PutUint32(scratch[:4], uint32(len(s)))
		buf = append(buf, scratch[:4]...)
		buf = append(buf, s...)
	case types.KindBool:
		var b byte
		if d.GetBool() {
			b = 1
		}
		buf = append(buf, b)
	case types.KindDate:
		date := d.GetDate()
		binary.LittleEndian.PutUint16(scratch[:2], uint16(date.Year))
		buf = append(buf, scratch[:2]...)
		buf = append(buf, byte(date.Month), byte(date.Day))
	}

	return buf
}

// decodeRow decodes a full row payload. The payload sits behind a record
// checksum, so a decode failure points at a codec bug rather than disk
// corruption.
func decodeRow(data []byte) ([]types.Datum, error) {
	var row []types.Datum
	for len(data) > 0 {
		d, rest, err := decodeDatum(data)
		if err != nil {
			return nil, errors.Trace(err)
		}
		row = append(row, d)
		data = rest
	}

	return row, nil
}

func decodeDatum(data []byte) (types.Datum, []byte, error) {
	kind := types.Kind(data[0])
	data = data[1:]

	switch kind {
	case types.KindNull:
		return types.NewNullDatum(), data, nil
	case types.KindInt:
		if len(data) < 8 {
			return types.Datum{}, nil, errors.New("truncated INT datum")
		}
		return types.NewIntDatum(int64(binary.LittleEndian.Uint64(data))), data[8:], nil
	case types.KindString:
		if len(data) < 4 {
			return types.Datum{}, nil, errors.New("truncated STRING datum")
		}
		n := int(binary.LittleEndian.Uint32(data))
		data = data[4:]
		if len(data) < n {
			return types.Datum{}, nil, errors.New("truncated STRING datum")
		}
		return types.NewStringDatum(string(data[:n])), data[n:], nil
	case types.KindBool:
		if len(data) < 1 {
			return types.Datum{}, nil, errors.New("truncated BOOL datum")
		}
		return types.NewBoolDatum(data[0] != 0), data[1:], nil
	case types.KindDate:
		if len(data) < 4 {
			return types.Datum{}, nil, errors.New("truncated DATE datum")
		}
		date := types.Date{
			Year:  int(binary.LittleEndian.Uint16(data)),
			Month: int(data[2]),
			Day:   int(data[3]),
		}
		return types.NewDateDatum(date), data[4:], nil
	default:
		return types.Datum{}, nil, errors.Errorf("unknown datum kind %d", kind)
	}
}
