package storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/pingcap/errors"
)

/*
table file := record*
record :=
  magic: uint32    // magic number of a record start
  flags: uint8     // live or tombstone
  rowID: uint64    // row identifier, never reused
  length: uint32   // payload length
  checksum: uint32 // checksum of payload
  payload: uint8[length] // encoded row

A delete flips the flags byte in place. The checksum covers the payload
only, so the flip never invalidates it.
*/

const recordMagic uint32 = 0x95c42d81
const headerLength int64 = 21 // 4 + 1 + 8 + 4 + 4 magic + flags + rowID + length + checksum

const (
	recordFlagLive byte = 1 << 0

	// byte offset of the flags field inside a record
	flagsFieldOffset int64 = 4
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// record is the format in the table file
type record struct {
	magic    uint32
	flags    byte
	rowID    uint64
	length   uint32
	checksum uint32
	payload  []byte
}

func (r *record) live() bool {
	return r.flags&recordFlagLive != 0
}

func (r *record) recordLength() int64 {
	return headerLength + int64(len(r.payload))
}

func (r *record) isValid() bool {
	return crc32.Checksum(r.payload, crcTable) == r.checksum
}

func (r *record) readHeader(reader io.Reader) error {
	err := binary.Read(reader, binary.LittleEndian, &r.magic)
	if err != nil {
		return errors.Trace(err)
	}
	err = binary.Read(reader, binary.LittleEndian, &r.flags)
	if err != nil {
		return errors.Trace(err)
	}
	err = binary.Read(reader, binary.LittleEndian, &r.rowID)
	if err != nil {
		return errors.Trace(err)
	}
	err = binary.Read(reader, binary.LittleEndian, &r.length)
	if err != nil {
		return errors.Trace(err)
	}
	err = binary.Read(reader, binary.LittleEndian, &r.checksum)
	if err != nil {
		return errors.Trace(err)
	}

	return nil
}

func encodeRecord(rowID int64, payload []byte) []byte {
	buf := make([]byte, headerLength+int64(len(payload)))
	binary.LittleEndian.PutUint32(buf, recordMagic)
	buf[flagsFieldOffset] = recordFlagLive
	binary.LittleEndian.PutUint64(buf[5:], uint64(rowID))
	binary.LittleEndian.PutUint32(buf[13:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[17:], crc32.Checksum(payload, crcTable))
	copy(buf[headerLength:], payload)

	return buf
}

// DataFilePath returns the data file path of table inside dir.
func DataFilePath(dir, table string) string {
	return filepath.Join(dir, table+DataFileSuffix)
}

// tableFile is the record log of one table. The file is deliberately not
// opened with O_APPEND: appends go through WriteAt at the tracked size,
// so flag flips and in-place record rewrites can use WriteAt as well.
type tableFile struct {
	path string
	fd   *os.File
	size int64
}

func openTableFile(path string) (tf *tableFile, err error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Trace(err)
	}

	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, errors.Trace(err)
	}

	return &tableFile{path: path, fd: fd, size: info.Size()}, nil
}

// append writes one live record at the end of the file and returns the
// record's start offset.
func (tf *tableFile) append(rowID int64, payload []byte) (offset int64, err error) {
	buf := encodeRecord(rowID, payload)

	offset = tf.size
	if _, err = tf.fd.WriteAt(buf, offset); err != nil {
		return 0, errors.Trace(err)
	}
	tf.size += int64(len(buf))

	return offset, nil
}

// writeRecordAt overwrites the record at offset in place. The caller
// guarantees the new payload has the same length as the old one.
func (tf *tableFile) writeRecordAt(offset int64, rowID int64, payload []byte) error {
	_, err := tf.fd.WriteAt(encodeRecord(rowID, payload), offset)
	return errors.Trace(err)
}

// setFlags rewrites only the flags byte of the record at offset.
func (tf *tableFile) setFlags(offset int64, flags byte) error {
	_, err := tf.fd.WriteAt([]byte{flags}, offset+flagsFieldOffset)
	return errors.Trace(err)
}

// readRecord reads the record at offset. The payload checksum is only
// verified for live records, a tombstone's payload is never used. On
// ErrChecksumMismatch the record is returned anyway, its header still
// frames the file and recovery skips over it.
func (tf *tableFile) readRecord(offset int64) (r *record, err error) {
	header := make([]byte, headerLength)
	if _, err = tf.fd.ReadAt(header, offset); err != nil {
		return nil, errors.Trace(err)
	}

	r = new(record)
	if err = r.readHeader(bytes.NewReader(header)); err != nil {
		return nil, errors.Trace(err)
	}

	if r.magic != recordMagic {
		return nil, ErrWrongMagic
	}

	r.payload = make([]byte, r.length)
	if _, err = tf.fd.ReadAt(r.payload, offset+headerLength); err != nil {
		return nil, errors.Trace(err)
	}

	if r.live() && !r.isValid() {
		return r, ErrChecksumMismatch
	}

	return r, nil
}

// truncate drops everything at and after offset, used to cut off a torn
// tail during recovery.
func (tf *tableFile) truncate(offset int64) error {
	if err := tf.fd.Truncate(offset); err != nil {
		return errors.Trace(err)
	}
	tf.size = offset

	return errors.Trace(tf.fd.Sync())
}

func (tf *tableFile) sync() error {
	return errors.Trace(tf.fd.Sync())
}

func (tf *tableFile) close() error {
	return errors.Trace(tf.fd.Close())
}
