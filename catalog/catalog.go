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

// Package catalog tracks every table of a database directory and pairs
// the persisted schema with its open storage.
package catalog

import (
	"context"
	"io/ioutil"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/storage"
)

// Entry is one cataloged table, the schema plus the storage holding its
// rows.
type Entry struct {
	Schema *schema.TableSchema
	Store  *storage.Table
}

// Catalog maps table names to their entries. Every table of the database
// directory stays open for as long as the catalog is.
type Catalog struct {
	dir  string
	opts *storage.Options

	mu     sync.RWMutex
	tables map[string]*Entry
}

// Open loads all schema files under dir and opens the storage of each
// table. dir is created when missing.
func Open(dir string, opts *storage.Options) (*Catalog, error) {
	if opts == nil {
		opts = storage.DefaultOptions()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Trace(err)
	}

	names, err := listTables(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}

	start := time.Now()
	entries := make([]*Entry, len(names))

	errg, _ := errgroup.WithContext(context.Background())
	for i, name := range names {
		i, name := i, name
		errg.Go(func() error {
			sc, err := schema.ReadFile(dir, name)
			if err != nil {
				return errors.Trace(err)
			}

			store, err := storage.Open(dir, sc, opts)
			if err != nil {
				return errors.Trace(err)
			}

			entries[i] = &Entry{Schema: sc, Store: store}
			return nil
		})
	}

	if err := errg.Wait(); err != nil {
		for _, e := range entries {
			if e != nil {
				e.Store.Close()
			}
		}
		return nil, errors.Trace(err)
	}

	c := &Catalog{
		dir:    dir,
		opts:   opts,
		tables: make(map[string]*Entry, len(entries)),
	}
	for _, e := range entries {
		c.tables[e.Schema.Name] = e
	}

	log.Info("catalog opened",
		zap.String("dir", dir),
		zap.Int("tables", len(c.tables)),
		zap.Duration("takes", time.Since(start)))

	return c, nil
}

func listTables(dir string) ([]string, error) {
	files, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var names []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), schema.FileSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(f.Name(), schema.FileSuffix))
	}
	sort.Strings(names)

	return names, nil
}

// Define creates the table: the schema is validated, the storage opened
// and the schema file written. Define returns only once the schema is
// durably on disk.
func (c *Catalog) Define(sc *schema.TableSchema) error {
	sc.Normalize()
	if err := sc.Validate(); err != nil {
		return errors.Trace(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[sc.Name]; ok {
		return errors.Trace(&TableExistsError{Table: sc.Name})
	}

	store, err := storage.Open(c.dir, sc, c.opts)
	if err != nil {
		return errors.Trace(err)
	}

	if err := schema.WriteFile(c.dir, sc); err != nil {
		store.Drop()
		return errors.Trace(err)
	}

	c.tables[sc.Name] = &Entry{Schema: sc, Store: store}
	log.Info("table defined", zap.String("table", sc.Name))

	return nil
}

// Lookup returns the entry of table.
func (c *Catalog) Lookup(table string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.tables[table]
	if !ok {
		return nil, errors.Trace(&TableNotFoundError{Table: table})
	}

	return e, nil
}

// Remove drops the table, the data file goes first and the schema file
// second, so a crash in between resurrects at worst an empty table. The
// prior row count is returned, front-ends report it.
func (c *Catalog) Remove(table string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tables[table]
	if !ok {
		return 0, errors.Trace(&TableNotFoundError{Table: table})
	}

	rows := e.Store.Rows()
	if err := e.Store.Drop(); err != nil {
		return 0, errors.Trace(err)
	}
	if err := os.Remove(schema.FilePath(c.dir, table)); err != nil {
		return 0, errors.Trace(err)
	}

	delete(c.tables, table)
	log.Info("table removed", zap.String("table", table), zap.Int("rows", rows))

	return rows, nil
}

// All returns every entry sorted by table name.
func (c *Catalog) All() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]*Entry, 0, len(c.tables))
	for _, e := range c.tables {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Schema.Name < entries[j].Schema.Name
	})

	return entries
}

// Close closes every table, each one syncs its file on the way out.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, e := range c.tables {
		if err := e.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.tables = make(map[string]*Entry)

	return errors.Trace(firstErr)
}
