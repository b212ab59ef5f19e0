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

// Package storage keeps table rows durable. Every table owns one append
// style record log on disk plus in-memory hash indexes over its primary
// key and unique columns, rebuilt from the log on open.
package storage

// DataFileSuffix is the file name suffix of table data files inside a
// database directory.
const DataFileSuffix = ".tbl"

// Options is the config options of table storage
type Options struct {
	// Sync makes every mutation fsync the table file before returning
	Sync bool
}

// DefaultOptions return the default options
func DefaultOptions() *Options {
	return &Options{
		Sync: true,
	}
}

// WithSync set the Sync
func (o *Options) WithSync(sync bool) *Options {
	o.Sync = sync
	return o
}
