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
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/types"
)

type rowEntry struct {
	offset int64
	// encoded payload length, decides whether an update can rewrite the
	// record in place
	size int
	row  []types.Datum
}

// Table is one open table: its record log plus the in-memory row cache
// and hash indexes rebuilt from it. All methods are safe for concurrent
// use. Row slices handed out by Get and Cursor.Next are never mutated
// afterwards, an update installs a fresh slice.
type Table struct {
	schema *schema.TableSchema
	opts   *Options
	dir    string

	mu        sync.RWMutex
	file      *tableFile
	rows      map[int64]*rowEntry
	indexes   map[string]*hashIndex
	nextRowID int64
}

// Open opens the data file of sc's table inside dir, creating it when
// absent, and rebuilds the row cache and indexes from its records. A
// torn tail left by a crash is cut off, every record before it survives.
func Open(dir string, sc *schema.TableSchema, opts *Options) (*Table, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	begin := time.Now()

	file, err := openTableFile(DataFilePath(dir, sc.Name))
	if err != nil {
		return nil, errors.Trace(err)
	}

	t := &Table{
		schema:    sc,
		opts:      opts,
		dir:       dir,
		file:      file,
		rows:      make(map[int64]*rowEntry),
		indexes:   make(map[string]*hashIndex),
		nextRowID: 1,
	}
	for i, col := range sc.Columns {
		if col.Indexed() {
			t.indexes[col.Name] = newHashIndex(col.Name, i)
		}
	}

	if err := t.recover(); err != nil {
		file.close()
		return nil, errors.Trace(err)
	}

	liveRowsGauge.WithLabelValues(sc.Name).Set(float64(len(t.rows)))

	log.Info("table opened",
		zap.String("table", sc.Name),
		zap.Int("rows", len(t.rows)),
		zap.String("fileSize", humanize.Bytes(uint64(file.size))),
		zap.Duration("takes", time.Since(begin)))

	return t, nil
}

// recover replays the record log. Two kinds of damage can be found:
// a torn tail append, which truncates the file at the bad record, and a
// duplicate live record for one row id, left by a crash between
// appending a replacement and tombstoning the old record, where the
// later offset wins and the stale record is tombstoned.
func (t *Table) recover() error {
	var offset int64
	var repairs []int64

	for offset < t.file.size {
		r, err := t.file.readRecord(offset)
		if err != nil {
			cause := errors.Cause(err)
			switch cause {
			case ErrChecksumMismatch:
				// header intact, payload torn by an in-place rewrite:
				// the length field still frames the record, drop only
				// this row and keep scanning
				log.Warn("dropping record with broken checksum",
					zap.String("table", t.schema.Name),
					zap.Int64("offset", offset))
				repairs = append(repairs, offset)
				offset += r.recordLength()
				continue
			case ErrWrongMagic, io.EOF, io.ErrUnexpectedEOF:
				log.Warn("truncating corrupt tail",
					zap.String("table", t.schema.Name),
					zap.Int64("offset", offset),
					zap.Int64("fileSize", t.file.size),
					zap.Error(cause))
				if err := t.file.truncate(offset); err != nil {
					return errors.Trace(err)
				}
				continue
			default:
				return errors.Trace(err)
			}
		}

		rowID := int64(r.rowID)
		if rowID >= t.nextRowID {
			// tombstones count too, a row id is never reused
			t.nextRowID = rowID + 1
		}

		if r.live() {
			row, err := decodeRow(r.payload)
			if err != nil {
				return errors.Annotatef(err, "table %s offset %d", t.schema.Name, offset)
			}
			if prev, ok := t.rows[rowID]; ok {
				t.unindexRow(rowID, prev.row)
				repairs = append(repairs, prev.offset)
			}
			t.rows[rowID] = &rowEntry{offset: offset, size: len(r.payload), row: row}
			t.indexRow(rowID, row)
		}

		offset += r.recordLength()
	}

	if len(repairs) > 0 {
		for _, off := range repairs {
			if err := t.file.setFlags(off, 0); err != nil {
				return errors.Trace(err)
			}
		}
		if err := t.file.sync(); err != nil {
			return errors.Trace(err)
		}
		log.Warn("tombstoned stale records during recovery",
			zap.String("table", t.schema.Name),
			zap.Int("count", len(repairs)))
	}

	return nil
}

// Schema returns the table's schema.
func (t *Table) Schema() *schema.TableSchema {
	return t.schema
}

// Rows returns the live row count.
func (t *Table) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// HasIndex reports whether column carries a hash index. The index set is
// fixed at open.
func (t *Table) HasIndex(column string) bool {
	_, ok := t.indexes[column]
	return ok
}

// checkRow coerces and validates one full row against the schema. It
// returns the coerced row, the input is not modified.
func (t *Table) checkRow(row []types.Datum) ([]types.Datum, error) {
	if len(row) != len(t.schema.Columns) {
		return nil, &ConstraintError{
			Table:      t.schema.Name,
			Constraint: ConstraintArity,
			Want:       len(t.schema.Columns),
			Got:        len(row),
		}
	}

	out := make([]types.Datum, len(row))
	for i, col := range t.schema.Columns {
		d, err := row[i].ConvertTo(col.Type, col.Name)
		if err != nil {
			return nil, err
		}
		if d.IsNull() && !col.Nullable {
			return nil, &ConstraintError{
				Table:      t.schema.Name,
				Column:     col.Name,
				Constraint: ConstraintNotNull,
			}
		}
		if col.Type == types.TypeVarchar && !d.IsNull() && utf8.RuneCountInString(d.GetString()) > col.Length {
			return nil, &ConstraintError{
				Table:      t.schema.Name,
				Column:     col.Name,
				Constraint: ConstraintLength,
				Value:      fmt.Sprintf("%q", d.GetString()),
			}
		}
		out[i] = d
	}

	return out, nil
}

// checkUnique probes every unique index for row's values, in column
// definition order so the reported conflict is deterministic. A row id
// passed as excluding is allowed to hold the value already.
func (t *Table) checkUnique(row []types.Datum, excluding int64) error {
	for _, col := range t.schema.Columns {
		idx, ok := t.indexes[col.Name]
		if !ok {
			continue
		}
		if idx.conflicts(row[idx.col], excluding) {
			return &ConstraintError{
				Table:      t.schema.Name,
				Column:     col.Name,
				Constraint: ConstraintUnique,
				Value:      row[idx.col].String(),
			}
		}
	}

	return nil
}

func (t *Table) indexRow(rowID int64, row []types.Datum) {
	for _, idx := range t.indexes {
		idx.add(row[idx.col], rowID)
	}
}

func (t *Table) unindexRow(rowID int64, row []types.Datum) {
	for _, idx := range t.indexes {
		idx.remove(row[idx.col], rowID)
	}
}

// Insert validates row, probes the unique indexes and appends one
// record. Nothing reaches the file when any check fails. The returned
// row id is monotonic and never reused, even after deletes.
func (t *Table) Insert(row []types.Datum) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.checkRow(row)
	if err != nil {
		return 0, err
	}
	if err := t.checkUnique(row, 0); err != nil {
		return 0, err
	}

	rowID := t.nextRowID
	payload := encodeRow(row)

	begin := time.Now()
	offset, err := t.file.append(rowID, payload)
	if err != nil {
		errorCount.WithLabelValues("insert").Add(1.0)
		return 0, errors.Trace(err)
	}
	if t.opts.Sync {
		if err := t.file.sync(); err != nil {
			errorCount.WithLabelValues("insert").Add(1.0)
			return 0, errors.Trace(err)
		}
	}
	writeDurationHistogram.WithLabelValues("insert").Observe(time.Since(begin).Seconds())
	writeSizeHistogram.WithLabelValues("insert").Observe(float64(len(payload)))

	t.nextRowID++
	t.rows[rowID] = &rowEntry{offset: offset, size: len(payload), row: row}
	t.indexRow(rowID, row)
	liveRowsGauge.WithLabelValues(t.schema.Name).Set(float64(len(t.rows)))

	return rowID, nil
}

// Update replaces the whole row stored under rowID. A replacement of the
// same encoded length rewrites the record in place, any other falls back
// to appending a new record and tombstoning the old one.
func (t *Table) Update(rowID int64, row []types.Datum) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.rows[rowID]
	if !ok {
		return ErrRowNotFound
	}

	row, err := t.checkRow(row)
	if err != nil {
		return err
	}
	if err := t.checkUnique(row, rowID); err != nil {
		return err
	}

	payload := encodeRow(row)

	begin := time.Now()
	if len(payload) == entry.size {
		if err := t.file.writeRecordAt(entry.offset, rowID, payload); err != nil {
			errorCount.WithLabelValues("update").Add(1.0)
			return errors.Trace(err)
		}
	} else {
		offset, err := t.file.append(rowID, payload)
		if err != nil {
			errorCount.WithLabelValues("update").Add(1.0)
			return errors.Trace(err)
		}
		// the replacement must be durable before the old record is
		// tombstoned, a crash in between leaves two live records and
		// recovery keeps the later one
		if t.opts.Sync {
			if err := t.file.sync(); err != nil {
				errorCount.WithLabelValues("update").Add(1.0)
				return errors.Trace(err)
			}
		}
		if err := t.file.setFlags(entry.offset, 0); err != nil {
			errorCount.WithLabelValues("update").Add(1.0)
			return errors.Trace(err)
		}
		entry.offset = offset
		entry.size = len(payload)
	}
	if t.opts.Sync {
		if err := t.file.sync(); err != nil {
			errorCount.WithLabelValues("update").Add(1.0)
			return errors.Trace(err)
		}
	}
	writeDurationHistogram.WithLabelValues("update").Observe(time.Since(begin).Seconds())
	writeSizeHistogram.WithLabelValues("update").Observe(float64(len(payload)))

	t.unindexRow(rowID, entry.row)
	entry.row = row
	t.indexRow(rowID, row)

	return nil
}

// Delete tombstones the row stored under rowID by flipping its record's
// flags byte in place. The row id is never reassigned.
func (t *Table) Delete(rowID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.rows[rowID]
	if !ok {
		return ErrRowNotFound
	}

	begin := time.Now()
	if err := t.file.setFlags(entry.offset, 0); err != nil {
		errorCount.WithLabelValues("delete").Add(1.0)
		return errors.Trace(err)
	}
	if t.opts.Sync {
		if err := t.file.sync(); err != nil {
			errorCount.WithLabelValues("delete").Add(1.0)
			return errors.Trace(err)
		}
	}
	writeDurationHistogram.WithLabelValues("delete").Observe(time.Since(begin).Seconds())

	t.unindexRow(rowID, entry.row)
	delete(t.rows, rowID)
	liveRowsGauge.WithLabelValues(t.schema.Name).Set(float64(len(t.rows)))

	return nil
}

// Get returns the live row stored under rowID.
func (t *Table) Get(rowID int64) ([]types.Datum, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.rows[rowID]
	if !ok {
		return nil, ErrRowNotFound
	}

	return entry.row, nil
}

// PointLookup returns the ids of rows whose column equals value, in
// ascending order, served by the column's hash index. An unindexed
// column or a NULL value finds nothing.
func (t *Table) PointLookup(column string, value types.Datum) []int64 {
	idx, ok := t.indexes[column]
	if !ok {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	return idx.lookup(value)
}

// Cursor iterates the live rows of a table in insertion order. It walks
// a row id snapshot taken at creation: rows deleted after that are
// skipped, and the table stays unlocked between Next calls.
type Cursor struct {
	t   *Table
	ids []int64
	pos int
}

// Scan returns a cursor over all live rows.
func (t *Table) Scan() *Cursor {
	t.mu.RLock()
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &Cursor{t: t, ids: ids}
}

// Next returns the next live row, or ok false when the scan is done.
func (c *Cursor) Next() (rowID int64, row []types.Datum, ok bool) {
	for c.pos < len(c.ids) {
		id := c.ids[c.pos]
		c.pos++

		c.t.mu.RLock()
		entry, live := c.t.rows[id]
		if live {
			row = entry.row
		}
		c.t.mu.RUnlock()

		if live {
			return id, row, true
		}
	}

	return 0, nil, false
}

// Reset rewinds the cursor to the start of its snapshot.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Close syncs and closes the table file. The table must not be used
// afterwards.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}

	err := t.file.sync()
	if cerr := t.file.close(); err == nil {
		err = cerr
	}
	t.file = nil
	liveRowsGauge.DeleteLabelValues(t.schema.Name)

	return errors.Trace(err)
}

// Drop closes the table and removes its data file.
func (t *Table) Drop() error {
	if err := t.Close(); err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(os.Remove(DataFilePath(t.dir, t.schema.Name)))
}
