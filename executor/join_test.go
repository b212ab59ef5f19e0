package executor

import (
	"github.com/pingcap/check"

	"github.com/reldb/reldb/types"
)

type testJoinSuite struct{}

var _ = check.Suite(&testJoinSuite{})

// seedJoinTables builds a(id, name) = {(1, x), (2, y)} and
// b(id, aid, val) = {(1, 1, p)}.
func seedJoinTables(c *check.C, e *Executor) {
	mustExec(c, e, "CREATE TABLE a (id INT PRIMARY KEY, name VARCHAR(10))")
	mustExec(c, e, "CREATE TABLE b (id INT PRIMARY KEY, aid INT, val VARCHAR(10))")
	mustExec(c, e, "INSERT INTO a VALUES (1, 'x')")
	mustExec(c, e, "INSERT INTO a VALUES (2, 'y')")
	mustExec(c, e, "INSERT INTO b VALUES (1, 1, 'p')")
}

func (s *testJoinSuite) TestInnerJoin(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	res := mustExec(c, e, "SELECT * FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(res.Columns, check.DeepEquals, []string{"a.id", "name", "b.id", "aid", "val"})
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{
			types.NewIntDatum(1), types.NewStringDatum("x"),
			types.NewIntDatum(1), types.NewIntDatum(1), types.NewStringDatum("p"),
		},
	})
	c.Assert(res.RowCount, check.Equals, 1)
}

func (s *testJoinSuite) TestLeftJoin(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	res := mustExec(c, e, "SELECT * FROM a LEFT JOIN b ON a.id = b.aid")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{
			types.NewIntDatum(1), types.NewStringDatum("x"),
			types.NewIntDatum(1), types.NewIntDatum(1), types.NewStringDatum("p"),
		},
		{
			types.NewIntDatum(2), types.NewStringDatum("y"),
			types.NewNullDatum(), types.NewNullDatum(), types.NewNullDatum(),
		},
	})
}

func (s *testJoinSuite) TestRightJoin(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	inner := mustExec(c, e, "SELECT * FROM a INNER JOIN b ON a.id = b.aid")
	right := mustExec(c, e, "SELECT * FROM a RIGHT JOIN b ON a.id = b.aid")
	c.Assert(right.Rows, check.DeepEquals, inner.Rows)
	c.Assert(right.Columns, check.DeepEquals, inner.Columns)
}

func (s *testJoinSuite) TestRightJoinPadsLeft(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)
	mustExec(c, e, "INSERT INTO b VALUES (2, 99, 'q')")

	res := mustExec(c, e, "SELECT * FROM a RIGHT JOIN b ON a.id = b.aid")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{
			types.NewIntDatum(1), types.NewStringDatum("x"),
			types.NewIntDatum(1), types.NewIntDatum(1), types.NewStringDatum("p"),
		},
		{
			types.NewNullDatum(), types.NewNullDatum(),
			types.NewIntDatum(2), types.NewIntDatum(99), types.NewStringDatum("q"),
		},
	})
}

func (s *testJoinSuite) TestJoinProjection(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	res := mustExec(c, e, "SELECT name, val FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(res.Columns, check.DeepEquals, []string{"name", "val"})
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{types.NewStringDatum("x"), types.NewStringDatum("p")},
	})

	// a shared column name keeps its qualifier in the output
	res = mustExec(c, e, "SELECT a.id, val FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(res.Columns, check.DeepEquals, []string{"a.id", "val"})

	_, err := e.Execute("SELECT id FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(err, check.ErrorMatches, "column id is ambiguous, qualify it as table.column")

	_, err = e.Execute("SELECT ghost FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(err, check.ErrorMatches, "column ghost does not exist")

	_, err = e.Execute("SELECT c.id FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(err, check.ErrorMatches, "column c.id does not exist")
}

func (s *testJoinSuite) TestJoinWhere(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	res := mustExec(c, e, "SELECT name FROM a LEFT JOIN b ON a.id = b.aid WHERE val = 'p'")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{{types.NewStringDatum("x")}})

	// the padded side is NULL, and = NULL matches it
	res = mustExec(c, e, "SELECT name FROM a LEFT JOIN b ON a.id = b.aid WHERE val = NULL")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{{types.NewStringDatum("y")}})

	res = mustExec(c, e, "SELECT name FROM a LEFT JOIN b ON a.id = b.aid WHERE a.id = 2")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{{types.NewStringDatum("y")}})
}

func (s *testJoinSuite) TestJoinOrderBy(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	res := mustExec(c, e, "SELECT name FROM a LEFT JOIN b ON a.id = b.aid ORDER BY name")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{types.NewStringDatum("x")},
		{types.NewStringDatum("y")},
	})

	// ordering by the padded side puts NULL rows last
	res = mustExec(c, e, "SELECT name FROM a LEFT JOIN b ON a.id = b.aid ORDER BY val, name")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{types.NewStringDatum("x")},
		{types.NewStringDatum("y")},
	})
}

func (s *testJoinSuite) TestJoinNullKeysNeverMatch(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)
	mustExec(c, e, "INSERT INTO b VALUES (3, NULL, 'r')")

	res := mustExec(c, e, "SELECT val FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{{types.NewStringDatum("p")}})

	// under RIGHT the NULL-keyed row still appears, padded
	res = mustExec(c, e, "SELECT name, val FROM a RIGHT JOIN b ON a.id = b.aid")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{types.NewStringDatum("x"), types.NewStringDatum("p")},
		{types.NewNullDatum(), types.NewStringDatum("r")},
	})
}

func (s *testJoinSuite) TestJoinIndexedBuildSide(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)
	mustExec(c, e, "INSERT INTO b VALUES (2, 1, 'q')")
	mustExec(c, e, "INSERT INTO b VALUES (3, 2, 'r')")

	// a is the smaller side, so its indexed primary key serves the
	// probes straight from the hash index
	res := mustExec(c, e, "SELECT val, name FROM b INNER JOIN a ON b.aid = a.id")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{types.NewStringDatum("p"), types.NewStringDatum("x")},
		{types.NewStringDatum("q"), types.NewStringDatum("x")},
		{types.NewStringDatum("r"), types.NewStringDatum("y")},
	})
}

func (s *testJoinSuite) TestJoinDuplicateBuildKeys(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	mustExec(c, e, "CREATE TABLE a (id INT PRIMARY KEY, name VARCHAR(10))")
	mustExec(c, e, "CREATE TABLE b (id INT PRIMARY KEY, aid INT, val VARCHAR(10))")
	mustExec(c, e, "INSERT INTO a VALUES (1, 'x')")
	mustExec(c, e, "INSERT INTO b VALUES (1, 1, 'p')")
	mustExec(c, e, "INSERT INTO b VALUES (2, 1, 'q')")

	// one left row joining two right rows emits two combined rows
	res := mustExec(c, e, "SELECT name, val FROM a INNER JOIN b ON a.id = b.aid")
	c.Assert(res.Rows, check.DeepEquals, [][]types.Datum{
		{types.NewStringDatum("x"), types.NewStringDatum("p")},
		{types.NewStringDatum("x"), types.NewStringDatum("q")},
	})
}

func (s *testJoinSuite) TestJoinMissingPieces(c *check.C) {
	e, cat := newExecutor(c)
	defer cat.Close()
	seedJoinTables(c, e)

	_, err := e.Execute("SELECT * FROM a INNER JOIN ghosts ON a.id = ghosts.aid")
	c.Assert(err, check.ErrorMatches, "table ghosts does not exist")

	_, err = e.Execute("SELECT * FROM a INNER JOIN b ON a.ghost = b.aid")
	c.Assert(err, check.ErrorMatches, "column ghost does not exist in table a")

	_, err = e.Execute("SELECT * FROM a INNER JOIN b ON a.id = b.ghost")
	c.Assert(err, check.ErrorMatches, "column ghost does not exist in table b")
}
