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

// Package repl implements the interactive shell. Lines starting with a
// dot are meta commands, everything else goes to the SQL engine.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pingcap/errors"

	"github.com/reldb/reldb/db"
	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/types"
)

const helpText = `
Commands:
    .help              - Show this help
    .tables            - List all tables
    .schema <table>    - Show table schema
    .exit or .quit     - Exit the shell

SQL Examples:
    CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50))
    INSERT INTO users VALUES (1, 'Alice')
    SELECT * FROM users WHERE id = 1
    UPDATE users SET name = 'Bob' WHERE id = 1
    DELETE FROM users WHERE id = 1
    DROP TABLE users
`

// Repl runs statements against a database and prints the outcome.
type Repl struct {
	database *db.DB
	out      io.Writer
}

// New returns a shell over database writing to out.
func New(database *db.DB, out io.Writer) *Repl {
	return &Repl{database: database, out: out}
}

// Run drives the shell until .exit or end of input.
func (r *Repl) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "reldb> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".reldb_history"),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer rl.Close()

	fmt.Fprintln(r.out, "Type .help for commands, .exit to quit")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Fprintln(r.out, "Use .exit to quit")
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
		if err != nil {
			return errors.Trace(err)
		}

		if r.RunLine(line) {
			return nil
		}
	}
}

// RunLine handles one line of input and reports whether the session
// should end.
func (r *Repl) RunLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ".") {
		return r.metaCommand(line)
	}

	r.runSQL(line)
	return false
}

func (r *Repl) metaCommand(line string) bool {
	cmd := strings.Fields(line[1:])
	if len(cmd) == 0 {
		fmt.Fprintf(r.out, "Unknown command: %s\n", line)
		return false
	}

	switch cmd[0] {
	case "help":
		fmt.Fprint(r.out, helpText)
	case "exit", "quit":
		fmt.Fprintln(r.out, "Goodbye!")
		return true
	case "tables":
		r.listTables()
	case "schema":
		if len(cmd) < 2 {
			fmt.Fprintf(r.out, "Unknown command: %s\n", line)
			return false
		}
		r.printSchema(cmd[1])
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", line)
	}

	return false
}

func (r *Repl) runSQL(sql string) {
	res, err := r.database.Execute(sql)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %s\n", err)
		return
	}

	if res.Columns == nil {
		fmt.Fprintf(r.out, "Query OK, %d %s affected\n", res.RowCount, plural(res.RowCount))
		return
	}

	if len(res.Rows) > 0 {
		r.printTable(res.Columns, res.Rows)
	}
	fmt.Fprintf(r.out, "(%d %s)\n", res.RowCount, plural(res.RowCount))
}

func (r *Repl) listTables() {
	infos := r.database.Tables()
	if len(infos) == 0 {
		fmt.Fprintln(r.out, "(no tables)")
		return
	}

	rows := make([][]types.Datum, 0, len(infos))
	for _, t := range infos {
		rows = append(rows, []types.Datum{
			types.NewStringDatum(t.Name),
			types.NewIntDatum(int64(t.Rows)),
		})
	}
	r.printTable([]string{"table", "rows"}, rows)
}

func (r *Repl) printSchema(table string) {
	descs, err := r.database.DescribeSchema(table)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %s\n", err)
		return
	}

	sc := descs[0].Schema
	rows := make([][]types.Datum, 0, len(sc.Columns))
	for _, col := range sc.Columns {
		rows = append(rows, []types.Datum{
			types.NewStringDatum(col.Name),
			types.NewStringDatum(columnType(col)),
			types.NewStringDatum(yesNo(col.Nullable)),
			types.NewStringDatum(columnKey(col)),
		})
	}
	r.printTable([]string{"column", "type", "null", "key"}, rows)
}

// printTable left-aligns every column to its widest cell, the header
// separated from the rows by a dash line.
func (r *Repl) printTable(columns []string, rows [][]types.Datum) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(row))
		for i, d := range row {
			line[i] = d.String()
			if len(line[i]) > widths[i] {
				widths[i] = len(line[i])
			}
		}
		cells = append(cells, line)
	}

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = fmt.Sprintf("%-*s", widths[i], col)
	}
	headerRow := strings.Join(header, " | ")
	fmt.Fprintln(r.out, headerRow)
	fmt.Fprintln(r.out, strings.Repeat("-", len(headerRow)))

	for _, line := range cells {
		for i := range line {
			line[i] = fmt.Sprintf("%-*s", widths[i], line[i])
		}
		fmt.Fprintln(r.out, strings.Join(line, " | "))
	}
}

func columnType(col schema.Column) string {
	if col.Type == types.TypeVarchar {
		return fmt.Sprintf("VARCHAR(%d)", col.Length)
	}

	return col.Type.String()
}

func columnKey(col schema.Column) string {
	switch {
	case col.PrimaryKey:
		return "PRI"
	case col.Unique:
		return "UNI"
	}

	return ""
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}

	return "NO"
}

func plural(n int) string {
	if n == 1 {
		return "row"
	}

	return "rows"
}
