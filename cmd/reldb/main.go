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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/reldb/reldb/db"
	"github.com/reldb/reldb/pkg/util"
	"github.com/reldb/reldb/repl"
	"github.com/reldb/reldb/storage"
)

func main() {
	dataDir := flag.String("data-dir", "data", "directory holding the table files")
	noSync := flag.Bool("no-sync", false, "skip the fsync after every write, faster but a crash can lose the latest statements")
	logLevel := flag.String("L", "error", "log level: debug, info, warn, error, fatal")
	flag.Parse()

	// keep log noise out of the interactive session unless asked for
	if err := util.InitLogger(*logLevel, ""); err != nil {
		fmt.Fprintf(os.Stderr, "initialize logger failed: %v\n", err)
		os.Exit(2)
	}

	database, err := db.Open(*dataDir, storage.DefaultOptions().WithSync(!*noSync))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database failed: %v\n", err)
		os.Exit(2)
	}
	defer database.Close()

	sh := repl.New(database, os.Stdout)
	if err := sh.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
