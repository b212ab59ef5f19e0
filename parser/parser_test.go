package parser

import (
	"github.com/pingcap/check"

	"github.com/reldb/reldb/types"
)

type testParserSuite struct{}

var _ = check.Suite(&testParserSuite{})

func (s *testParserSuite) mustParse(c *check.C, sql string) Statement {
	stmt, err := Parse(sql)
	c.Assert(err, check.IsNil, check.Commentf("sql: %s", sql))
	return stmt
}

func (s *testParserSuite) parseErr(c *check.C, sql string) *ParseError {
	_, err := Parse(sql)
	c.Assert(err, check.NotNil, check.Commentf("sql: %s", sql))
	perr, ok := err.(*ParseError)
	c.Assert(ok, check.IsTrue)
	return perr
}

func (s *testParserSuite) TestCreateTable(c *check.C) {
	stmt := s.mustParse(c, `CREATE TABLE Users (
		id INT PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		email VARCHAR(100) UNIQUE,
		active BOOLEAN,
		born DATE
	)`)

	create, ok := stmt.(*CreateTableStmt)
	c.Assert(ok, check.IsTrue)
	c.Assert(create.Table, check.Equals, "users")
	c.Assert(create.Columns, check.HasLen, 5)

	c.Assert(create.Columns[0], check.DeepEquals, ColumnDef{Name: "id", Type: types.TypeInt, PrimaryKey: true})
	c.Assert(create.Columns[1], check.DeepEquals, ColumnDef{Name: "name", Type: types.TypeVarchar, Length: 50, NotNull: true})
	c.Assert(create.Columns[2], check.DeepEquals, ColumnDef{Name: "email", Type: types.TypeVarchar, Length: 100, Unique: true})
	c.Assert(create.Columns[3], check.DeepEquals, ColumnDef{Name: "active", Type: types.TypeBool})
	c.Assert(create.Columns[4], check.DeepEquals, ColumnDef{Name: "born", Type: types.TypeDate})
}

func (s *testParserSuite) TestCreateTableTypeAliases(c *check.C) {
	stmt := s.mustParse(c, "CREATE TABLE t (a INTEGER, b BOOL)")
	create := stmt.(*CreateTableStmt)
	c.Assert(create.Columns[0].Type, check.Equals, types.TypeInt)
	c.Assert(create.Columns[1].Type, check.Equals, types.TypeBool)
}

func (s *testParserSuite) TestCreateTableErrors(c *check.C) {
	perr := s.parseErr(c, "CREATE TABLE t (id INT(10))")
	c.Assert(perr.Msg, check.Matches, "type INT takes no length")

	perr = s.parseErr(c, "CREATE TABLE t (name VARCHAR)")
	c.Assert(perr.Msg, check.Matches, "VARCHAR requires a length.*")

	perr = s.parseErr(c, "CREATE TABLE t (name VARCHAR(0))")
	c.Assert(perr.Msg, check.Matches, `invalid length "0".*`)

	perr = s.parseErr(c, "CREATE TABLE t (id BLOB)")
	c.Assert(perr.Msg, check.Equals, `unexpected "blob", want TYPE`)

	s.parseErr(c, "CREATE TABLE t ()")
	s.parseErr(c, "CREATE TABLE t (id INT")
}

func (s *testParserSuite) TestDropTable(c *check.C) {
	stmt := s.mustParse(c, "DROP TABLE users;")
	drop := stmt.(*DropTableStmt)
	c.Assert(drop.Table, check.Equals, "users")

	s.parseErr(c, "DROP users")
	s.parseErr(c, "DROP TABLE")
}

func (s *testParserSuite) TestInsertPositional(c *check.C) {
	stmt := s.mustParse(c, "INSERT INTO users VALUES (1, 'Alice', TRUE, NULL, '2024-01-31')")
	ins := stmt.(*InsertStmt)
	c.Assert(ins.Table, check.Equals, "users")
	c.Assert(ins.Columns, check.IsNil)
	c.Assert(ins.Values, check.HasLen, 5)
	c.Assert(ins.Values[0], check.Equals, types.NewIntDatum(1))
	c.Assert(ins.Values[1], check.Equals, types.NewStringDatum("Alice"))
	c.Assert(ins.Values[2], check.Equals, types.NewBoolDatum(true))
	c.Assert(ins.Values[3].IsNull(), check.IsTrue)
	// date literals stay strings until execution coerces them
	c.Assert(ins.Values[4], check.Equals, types.NewStringDatum("2024-01-31"))
}

func (s *testParserSuite) TestInsertNamedColumns(c *check.C) {
	stmt := s.mustParse(c, "INSERT INTO users (id, name) VALUES (2, 'Bob')")
	ins := stmt.(*InsertStmt)
	c.Assert(ins.Columns, check.DeepEquals, []string{"id", "name"})
	c.Assert(ins.Values, check.HasLen, 2)

	perr := s.parseErr(c, "INSERT INTO users (id, name) VALUES (2)")
	c.Assert(perr.Msg, check.Equals, "column count (2) doesn't match value count (1)")
}

func (s *testParserSuite) TestInsertNegativeInt(c *check.C) {
	stmt := s.mustParse(c, "INSERT INTO t VALUES (-5)")
	ins := stmt.(*InsertStmt)
	c.Assert(ins.Values[0], check.Equals, types.NewIntDatum(-5))
}

func (s *testParserSuite) TestSelectStar(c *check.C) {
	stmt := s.mustParse(c, "SELECT * FROM users")
	sel := stmt.(*SelectStmt)
	c.Assert(sel.Star, check.IsTrue)
	c.Assert(sel.Projection, check.IsNil)
	c.Assert(sel.Table, check.Equals, "users")
	c.Assert(sel.Join, check.IsNil)
	c.Assert(sel.Where, check.IsNil)
}

func (s *testParserSuite) TestSelectColumns(c *check.C) {
	stmt := s.mustParse(c, "SELECT id, name, users.email FROM users")
	sel := stmt.(*SelectStmt)
	c.Assert(sel.Star, check.IsFalse)
	c.Assert(sel.Projection, check.DeepEquals, []ColumnRef{
		{Column: "id"},
		{Column: "name"},
		{Table: "users", Column: "email"},
	})
}

func (s *testParserSuite) TestSelectWhere(c *check.C) {
	stmt := s.mustParse(c, "SELECT * FROM users WHERE id = 1")
	sel := stmt.(*SelectStmt)
	c.Assert(sel.Where, check.NotNil)
	c.Assert(sel.Where.Column, check.Equals, ColumnRef{Column: "id"})
	c.Assert(sel.Where.Op, check.Equals, OpEq)
	c.Assert(sel.Where.Value, check.Equals, types.NewIntDatum(1))

	stmt = s.mustParse(c, "SELECT * FROM users WHERE name LIKE 'Al%'")
	sel = stmt.(*SelectStmt)
	c.Assert(sel.Where.Op, check.Equals, OpLike)
	c.Assert(sel.Where.Value, check.Equals, types.NewStringDatum("Al%"))

	stmt = s.mustParse(c, "SELECT * FROM users WHERE email = NULL")
	sel = stmt.(*SelectStmt)
	c.Assert(sel.Where.Value.IsNull(), check.IsTrue)
}

func (s *testParserSuite) TestWhereConjunctionRejected(c *check.C) {
	perr := s.parseErr(c, "SELECT * FROM users WHERE id = 1 AND name = 'x'")
	c.Assert(perr.Msg, check.Equals, "AND is not supported: WHERE accepts a single comparison")

	perr = s.parseErr(c, "DELETE FROM users WHERE id = 1 OR id = 2")
	c.Assert(perr.Msg, check.Equals, "OR is not supported: WHERE accepts a single comparison")
}

func (s *testParserSuite) TestWhereLikePatternMustBeString(c *check.C) {
	perr := s.parseErr(c, "SELECT * FROM users WHERE name LIKE 5")
	c.Assert(perr.Msg, check.Equals, "LIKE pattern must be a string literal")
}

func (s *testParserSuite) TestSelectJoin(c *check.C) {
	for kindWord, kind := range map[string]JoinKind{
		"INNER": JoinInner,
		"LEFT":  JoinLeft,
		"RIGHT": JoinRight,
	} {
		stmt := s.mustParse(c, "SELECT * FROM a "+kindWord+" JOIN b ON a.id = b.aid")
		sel := stmt.(*SelectStmt)
		c.Assert(sel.Join, check.NotNil)
		c.Assert(sel.Join.Kind, check.Equals, kind)
		c.Assert(sel.Join.Table, check.Equals, "b")
		c.Assert(sel.Join.Left, check.Equals, ColumnRef{Table: "a", Column: "id"})
		c.Assert(sel.Join.Right, check.Equals, ColumnRef{Table: "b", Column: "aid"})
	}
}

func (s *testParserSuite) TestJoinOnEitherOrder(c *check.C) {
	stmt := s.mustParse(c, "SELECT * FROM a INNER JOIN b ON b.aid = a.id")
	sel := stmt.(*SelectStmt)
	c.Assert(sel.Join.Left, check.Equals, ColumnRef{Table: "a", Column: "id"})
	c.Assert(sel.Join.Right, check.Equals, ColumnRef{Table: "b", Column: "aid"})
}

func (s *testParserSuite) TestJoinErrors(c *check.C) {
	perr := s.parseErr(c, "SELECT * FROM a INNER JOIN b ON id = aid")
	c.Assert(perr.Msg, check.Equals, "ON condition must qualify both columns as table.column")

	perr = s.parseErr(c, "SELECT * FROM a INNER JOIN b ON a.id = c.aid")
	c.Assert(perr.Msg, check.Equals, `ON condition references unknown table "c"`)

	perr = s.parseErr(c, "SELECT * FROM a INNER JOIN a ON a.id = a.id")
	c.Assert(perr.Msg, check.Equals, `self join of table "a" is not supported`)

	s.parseErr(c, "SELECT * FROM a INNER JOIN b")
	s.parseErr(c, "SELECT * FROM a JOIN b ON a.id = b.aid")
}

func (s *testParserSuite) TestSelectJoinWhere(c *check.C) {
	stmt := s.mustParse(c, "SELECT a.id, val FROM a LEFT JOIN b ON a.id = b.aid WHERE val = 'p'")
	sel := stmt.(*SelectStmt)
	c.Assert(sel.Join.Kind, check.Equals, JoinLeft)
	c.Assert(sel.Where.Column, check.Equals, ColumnRef{Column: "val"})
}

func (s *testParserSuite) TestSelectOrderBy(c *check.C) {
	stmt := s.mustParse(c, "SELECT * FROM users ORDER BY name, id")
	sel := stmt.(*SelectStmt)
	c.Assert(sel.OrderBy, check.DeepEquals, []ColumnRef{{Column: "name"}, {Column: "id"}})

	stmt = s.mustParse(c, "SELECT * FROM a INNER JOIN b ON a.id = b.aid ORDER BY a.id")
	sel = stmt.(*SelectStmt)
	c.Assert(sel.OrderBy, check.DeepEquals, []ColumnRef{{Table: "a", Column: "id"}})

	s.parseErr(c, "SELECT * FROM users ORDER name")
}

func (s *testParserSuite) TestUpdate(c *check.C) {
	stmt := s.mustParse(c, "UPDATE users SET name = 'Bob', active = FALSE WHERE id = 1")
	upd := stmt.(*UpdateStmt)
	c.Assert(upd.Table, check.Equals, "users")
	c.Assert(upd.Assignments, check.DeepEquals, []Assignment{
		{Column: "name", Value: types.NewStringDatum("Bob")},
		{Column: "active", Value: types.NewBoolDatum(false)},
	})
	c.Assert(upd.Where, check.NotNil)

	// WHERE is optional, the update then touches every row
	stmt = s.mustParse(c, "UPDATE users SET active = TRUE")
	upd = stmt.(*UpdateStmt)
	c.Assert(upd.Where, check.IsNil)

	s.parseErr(c, "UPDATE users WHERE id = 1")
}

func (s *testParserSuite) TestDelete(c *check.C) {
	stmt := s.mustParse(c, "DELETE FROM users WHERE id = 1")
	del := stmt.(*DeleteStmt)
	c.Assert(del.Table, check.Equals, "users")
	c.Assert(del.Where, check.NotNil)

	stmt = s.mustParse(c, "DELETE FROM users")
	del = stmt.(*DeleteStmt)
	c.Assert(del.Where, check.IsNil)
}

func (s *testParserSuite) TestErrorPositions(c *check.C) {
	perr := s.parseErr(c, "SELECT * FROM users WHERE")
	c.Assert(perr.Pos, check.Equals, 25)
	c.Assert(perr.Error(), check.Matches, "parse error at position 25: .*")

	perr = s.parseErr(c, "SELECT * FRO users")
	c.Assert(perr.Pos, check.Equals, 9)
}

func (s *testParserSuite) TestTrailingInput(c *check.C) {
	perr := s.parseErr(c, "DROP TABLE users extra")
	c.Assert(perr.Msg, check.Matches, `unexpected "extra".*`)

	// one trailing semicolon is fine, two are not
	s.mustParse(c, "DROP TABLE users;")
	s.parseErr(c, "DROP TABLE users;;")
}

func (s *testParserSuite) TestUnsupportedStatement(c *check.C) {
	perr := s.parseErr(c, "TRUNCATE TABLE users")
	c.Assert(perr.Msg, check.Equals, `unsupported statement starting with "truncate"`)
	c.Assert(perr.Pos, check.Equals, 0)
}
