package storage

import (
	"fmt"
	"os"

	"github.com/pingcap/check"
	"github.com/pingcap/errors"

	"github.com/reldb/reldb/schema"
	"github.com/reldb/reldb/types"
)

type TableSuite struct{}

var _ = check.Suite(&TableSuite{})

func usersSchema() *schema.TableSchema {
	sc := &schema.TableSchema{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: types.TypeInt, PrimaryKey: true},
			{Name: "name", Type: types.TypeVarchar, Length: 20, Nullable: true},
			{Name: "email", Type: types.TypeVarchar, Length: 50, Unique: true, Nullable: true},
			{Name: "active", Type: types.TypeBool, Nullable: true},
		},
	}
	sc.Normalize()
	return sc
}

func userRow(id int64, name, email string, active bool) []types.Datum {
	return []types.Datum{
		types.NewIntDatum(id),
		types.NewStringDatum(name),
		types.NewStringDatum(email),
		types.NewBoolDatum(active),
	}
}

func (s *TableSuite) openTable(c *check.C, dir string) *Table {
	t, err := Open(dir, usersSchema(), nil)
	c.Assert(err, check.IsNil)
	return t
}

func (s *TableSuite) TestInsertAndGet(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	id1, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(id1, check.Equals, int64(1))

	id2, err := t.Insert(userRow(2, "bob", "bob@x.com", false))
	c.Assert(err, check.IsNil)
	c.Assert(id2, check.Equals, int64(2))

	row, err := t.Get(id1)
	c.Assert(err, check.IsNil)
	c.Assert(row, check.DeepEquals, userRow(1, "alice", "alice@x.com", true))

	c.Assert(t.Rows(), check.Equals, 2)

	_, err = t.Get(42)
	c.Assert(errors.Cause(err), check.Equals, ErrRowNotFound)
}

func (s *TableSuite) TestArity(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	_, err := t.Insert([]types.Datum{types.NewIntDatum(1), types.NewStringDatum("alice")})
	c.Assert(err, check.ErrorMatches, "table users expects 4 values, got 2")

	cerr, ok := err.(*ConstraintError)
	c.Assert(ok, check.IsTrue)
	c.Assert(cerr.Constraint, check.Equals, ConstraintArity)
	c.Assert(t.Rows(), check.Equals, 0)
}

func (s *TableSuite) TestTypeMismatch(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	bad := userRow(1, "alice", "alice@x.com", true)
	bad[0] = types.NewStringDatum("abc")
	_, err := t.Insert(bad)
	c.Assert(err, check.ErrorMatches, `type mismatch for column "id": expected INT, got STRING "abc"`)
	c.Assert(t.Rows(), check.Equals, 0)
}

func (s *TableSuite) TestNotNull(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	bad := userRow(1, "alice", "alice@x.com", true)
	bad[0] = types.NewNullDatum()
	_, err := t.Insert(bad)
	c.Assert(err, check.ErrorMatches, "column users.id does not allow NULL")
	c.Assert(t.Rows(), check.Equals, 0)
}

func (s *TableSuite) TestVarcharTooLong(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	_, err := t.Insert(userRow(1, "a name way beyond twenty characters", "a@x.com", true))
	c.Assert(err, check.ErrorMatches, `value ".*" too long for column users.name`)
	c.Assert(t.Rows(), check.Equals, 0)
}

func (s *TableSuite) TestUnique(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	_, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)

	// primary key collision
	_, err = t.Insert(userRow(1, "bob", "bob@x.com", false))
	c.Assert(err, check.ErrorMatches, "duplicate value 1 for unique column users.id")
	cerr, ok := err.(*ConstraintError)
	c.Assert(ok, check.IsTrue)
	c.Assert(cerr.Column, check.Equals, "id")
	c.Assert(t.Rows(), check.Equals, 1)

	// unique column collision
	_, err = t.Insert(userRow(2, "bob", "alice@x.com", false))
	c.Assert(err, check.ErrorMatches, "duplicate value alice@x.com for unique column users.email")
	c.Assert(t.Rows(), check.Equals, 1)
}

func (s *TableSuite) TestNullsDontCollide(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	r1 := userRow(1, "alice", "", true)
	r1[2] = types.NewNullDatum()
	r2 := userRow(2, "bob", "", false)
	r2[2] = types.NewNullDatum()

	_, err := t.Insert(r1)
	c.Assert(err, check.IsNil)
	_, err = t.Insert(r2)
	c.Assert(err, check.IsNil)
	c.Assert(t.Rows(), check.Equals, 2)
}

func (s *TableSuite) TestUpdateInPlace(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	id, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	sizeBefore := t.file.size

	// same encoded length, the record is rewritten in place
	c.Assert(t.Update(id, userRow(1, "alica", "alice@x.com", true)), check.IsNil)
	c.Assert(t.file.size, check.Equals, sizeBefore)

	row, err := t.Get(id)
	c.Assert(err, check.IsNil)
	c.Assert(row[1], check.Equals, types.NewStringDatum("alica"))

	c.Assert(t.Close(), check.IsNil)
	t = s.openTable(c, dir)
	defer t.Close()

	row, err = t.Get(id)
	c.Assert(err, check.IsNil)
	c.Assert(row[1], check.Equals, types.NewStringDatum("alica"))
}

func (s *TableSuite) TestUpdateResize(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	id, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	sizeBefore := t.file.size

	// longer name, a new record is appended and the old one tombstoned
	c.Assert(t.Update(id, userRow(1, "alexandra", "alice@x.com", true)), check.IsNil)
	c.Assert(t.file.size > sizeBefore, check.IsTrue)
	c.Assert(t.Rows(), check.Equals, 1)

	c.Assert(t.Close(), check.IsNil)
	t = s.openTable(c, dir)
	defer t.Close()

	c.Assert(t.Rows(), check.Equals, 1)
	row, err := t.Get(id)
	c.Assert(err, check.IsNil)
	c.Assert(row[1], check.Equals, types.NewStringDatum("alexandra"))
}

func (s *TableSuite) TestUpdateUniqueConflict(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	id1, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	_, err = t.Insert(userRow(2, "bob", "bob@x.com", false))
	c.Assert(err, check.IsNil)

	err = t.Update(id1, userRow(1, "alice", "bob@x.com", true))
	c.Assert(err, check.ErrorMatches, "duplicate value bob@x.com for unique column users.email")

	// the row is unchanged
	row, err := t.Get(id1)
	c.Assert(err, check.IsNil)
	c.Assert(row[2], check.Equals, types.NewStringDatum("alice@x.com"))

	// keeping its own unique values is fine
	c.Assert(t.Update(id1, userRow(1, "alicia", "alice@x.com", true)), check.IsNil)
}

func (s *TableSuite) TestUpdateMissingRow(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	err := t.Update(9, userRow(9, "x", "x@x.com", true))
	c.Assert(errors.Cause(err), check.Equals, ErrRowNotFound)
}

func (s *TableSuite) TestDelete(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	id1, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	id2, err := t.Insert(userRow(2, "bob", "bob@x.com", false))
	c.Assert(err, check.IsNil)

	c.Assert(t.Delete(id1), check.IsNil)
	c.Assert(t.Rows(), check.Equals, 1)
	_, err = t.Get(id1)
	c.Assert(errors.Cause(err), check.Equals, ErrRowNotFound)
	c.Assert(t.PointLookup("id", types.NewIntDatum(1)), check.HasLen, 0)

	c.Assert(errors.Cause(t.Delete(id1)), check.Equals, ErrRowNotFound)

	// the freed value is insertable again, the row id is not reused
	id3, err := t.Insert(userRow(1, "carol", "carol@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(id3, check.Equals, int64(3))

	c.Assert(t.Close(), check.IsNil)
	t = s.openTable(c, dir)
	defer t.Close()

	c.Assert(t.Rows(), check.Equals, 2)
	_, err = t.Get(id1)
	c.Assert(errors.Cause(err), check.Equals, ErrRowNotFound)
	row, err := t.Get(id2)
	c.Assert(err, check.IsNil)
	c.Assert(row[1], check.Equals, types.NewStringDatum("bob"))
}

func (s *TableSuite) TestRowIDNeverReusedAfterReopen(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	for i := int64(1); i <= 3; i++ {
		_, err := t.Insert(userRow(i, "n", fmt.Sprintf("u%d@x.com", i), false))
		c.Assert(err, check.IsNil)
	}
	// delete the newest row, its id must still not come back
	c.Assert(t.Delete(3), check.IsNil)
	c.Assert(t.Close(), check.IsNil)

	t = s.openTable(c, dir)
	defer t.Close()

	id, err := t.Insert(userRow(4, "dave", "dave@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(id, check.Equals, int64(4))
}

func (s *TableSuite) TestScan(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	for i := int64(1); i <= 4; i++ {
		_, err := t.Insert(userRow(i, "n", fmt.Sprintf("u%d@x.com", i), false))
		c.Assert(err, check.IsNil)
	}

	cur := t.Scan()
	var ids []int64
	for {
		id, row, ok := cur.Next()
		if !ok {
			break
		}
		c.Assert(row, check.HasLen, 4)
		ids = append(ids, id)
	}
	c.Assert(ids, check.DeepEquals, []int64{1, 2, 3, 4})

	cur.Reset()
	id, _, ok := cur.Next()
	c.Assert(ok, check.IsTrue)
	c.Assert(id, check.Equals, int64(1))
}

func (s *TableSuite) TestScanSkipsRowsDeletedMidway(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	for i := int64(1); i <= 3; i++ {
		_, err := t.Insert(userRow(i, "n", fmt.Sprintf("u%d@x.com", i), false))
		c.Assert(err, check.IsNil)
	}

	cur := t.Scan()
	id, _, ok := cur.Next()
	c.Assert(ok, check.IsTrue)
	c.Assert(id, check.Equals, int64(1))

	c.Assert(t.Delete(2), check.IsNil)

	id, _, ok = cur.Next()
	c.Assert(ok, check.IsTrue)
	c.Assert(id, check.Equals, int64(3))
	_, _, ok = cur.Next()
	c.Assert(ok, check.IsFalse)
}

func (s *TableSuite) TestPointLookup(c *check.C) {
	t := s.openTable(c, c.MkDir())
	defer t.Close()

	_, err := t.Insert(userRow(7, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)

	c.Assert(t.HasIndex("id"), check.IsTrue)
	c.Assert(t.HasIndex("email"), check.IsTrue)
	c.Assert(t.HasIndex("name"), check.IsFalse)

	c.Assert(t.PointLookup("id", types.NewIntDatum(7)), check.DeepEquals, []int64{1})
	c.Assert(t.PointLookup("email", types.NewStringDatum("alice@x.com")), check.DeepEquals, []int64{1})
	c.Assert(t.PointLookup("id", types.NewIntDatum(8)), check.HasLen, 0)
	c.Assert(t.PointLookup("name", types.NewStringDatum("alice")), check.HasLen, 0)
	c.Assert(t.PointLookup("id", types.NewNullDatum()), check.HasLen, 0)
}

func (s *TableSuite) TestRecoverTornTail(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	_, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	_, err = t.Insert(userRow(2, "bob", "bob@x.com", false))
	c.Assert(err, check.IsNil)
	c.Assert(t.Close(), check.IsNil)

	// half a record of junk at the tail, like a torn append
	fd, err := os.OpenFile(DataFilePath(dir, "users"), os.O_WRONLY|os.O_APPEND, 0644)
	c.Assert(err, check.IsNil)
	_, err = fd.Write([]byte{0x95, 0xc4, 0x2d})
	c.Assert(err, check.IsNil)
	c.Assert(fd.Close(), check.IsNil)

	t = s.openTable(c, dir)
	defer t.Close()

	c.Assert(t.Rows(), check.Equals, 2)

	// the tail was cut, a new insert lands on a clean file
	_, err = t.Insert(userRow(3, "carol", "carol@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(t.Close(), check.IsNil)

	t = s.openTable(c, dir)
	c.Assert(t.Rows(), check.Equals, 3)
	c.Assert(t.Close(), check.IsNil)
}

func (s *TableSuite) TestRecoverDuplicateLiveRecord(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	id, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(t.Close(), check.IsNil)

	// a crash between appending a replacement record and tombstoning
	// the old one leaves two live records for the same row id
	tf, err := openTableFile(DataFilePath(dir, "users"))
	c.Assert(err, check.IsNil)
	_, err = tf.append(id, encodeRow(userRow(1, "alexandra", "alice@x.com", true)))
	c.Assert(err, check.IsNil)
	c.Assert(tf.close(), check.IsNil)

	t = s.openTable(c, dir)
	c.Assert(t.Rows(), check.Equals, 1)
	row, err := t.Get(id)
	c.Assert(err, check.IsNil)
	c.Assert(row[1], check.Equals, types.NewStringDatum("alexandra"))
	c.Assert(t.Close(), check.IsNil)

	// recovery tombstoned the stale record on disk
	tf, err = openTableFile(DataFilePath(dir, "users"))
	c.Assert(err, check.IsNil)
	r, err := tf.readRecord(0)
	c.Assert(err, check.IsNil)
	c.Assert(r.live(), check.IsFalse)
	c.Assert(tf.close(), check.IsNil)
}

func (s *TableSuite) TestRecoverBrokenChecksumDropsOnlyThatRow(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	for i := int64(1); i <= 3; i++ {
		_, err := t.Insert(userRow(i, "n", fmt.Sprintf("u%d@x.com", i), false))
		c.Assert(err, check.IsNil)
	}
	c.Assert(t.Close(), check.IsNil)

	// corrupt one payload byte of the second record
	tf, err := openTableFile(DataFilePath(dir, "users"))
	c.Assert(err, check.IsNil)
	first, err := tf.readRecord(0)
	c.Assert(err, check.IsNil)
	second := first.recordLength()
	var b [1]byte
	_, err = tf.fd.ReadAt(b[:], second+headerLength)
	c.Assert(err, check.IsNil)
	_, err = tf.fd.WriteAt([]byte{b[0] ^ 0xff}, second+headerLength)
	c.Assert(err, check.IsNil)
	c.Assert(tf.close(), check.IsNil)

	t = s.openTable(c, dir)
	c.Assert(t.Rows(), check.Equals, 2)
	_, err = t.Get(2)
	c.Assert(errors.Cause(err), check.Equals, ErrRowNotFound)

	// rows before and after the bad record both survive
	_, err = t.Get(1)
	c.Assert(err, check.IsNil)
	_, err = t.Get(3)
	c.Assert(err, check.IsNil)
	c.Assert(t.Close(), check.IsNil)

	// reopening again finds a clean file, the bad record was tombstoned
	t = s.openTable(c, dir)
	c.Assert(t.Rows(), check.Equals, 2)
	c.Assert(t.Close(), check.IsNil)
}

func (s *TableSuite) TestNoSync(c *check.C) {
	t, err := Open(c.MkDir(), usersSchema(), DefaultOptions().WithSync(false))
	c.Assert(err, check.IsNil)
	defer t.Close()

	_, err = t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(t.Rows(), check.Equals, 1)
}

func (s *TableSuite) TestDrop(c *check.C) {
	dir := c.MkDir()
	t := s.openTable(c, dir)

	_, err := t.Insert(userRow(1, "alice", "alice@x.com", true))
	c.Assert(err, check.IsNil)
	c.Assert(t.Drop(), check.IsNil)

	_, err = os.Stat(DataFilePath(dir, "users"))
	c.Assert(os.IsNotExist(err), check.IsTrue)
}
