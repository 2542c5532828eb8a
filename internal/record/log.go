// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package record reads LevelDB ".log" write-ahead files: 32KiB blocks of
// physical records that glue into logical WriteBatches, each batch a
// sequence of ParsedInternalKeys. See spec.md §4.2.
package record

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/dfindexeddb-go/internal/stream"
)

const (
	blockSize  = 32 * 1024
	headerSize = 7 // checksum(4) + length(2) + type(1)
)

// PhysicalRecordType is the wire tag glueing physical records into a
// logical record.
type PhysicalRecordType byte

const (
	FullType   PhysicalRecordType = 1
	FirstType  PhysicalRecordType = 2
	MiddleType PhysicalRecordType = 3
	LastType   PhysicalRecordType = 4
)

// PhysicalRecord is one (checksum, length, type, payload) frame fully
// contained within a single 32KiB block.
type PhysicalRecord struct {
	Checksum uint32
	Length   uint16
	Type     PhysicalRecordType
	Payload  []byte
	// Offset is the file offset of this record's header.
	Offset int64
}

// EntryType distinguishes a live value write from a tombstone inside a
// WriteBatch.
type EntryType byte

const (
	DeletedType EntryType = 0
	ValueType   EntryType = 1
)

// ParsedInternalKey is one entry of a WriteBatch, augmented with the
// sequence number LevelDB assigned it.
type ParsedInternalKey struct {
	Type     EntryType
	Key      []byte
	Value    []byte // empty when Type == DeletedType
	Sequence uint64
}

// WriteBatch is the payload of a single logical log record.
type WriteBatch struct {
	Sequence uint64
	Count    uint32
	Entries  []ParsedInternalKey
}

// Reader iterates the physical-record, then logical-WriteBatch, structure of
// a LevelDB log file. Reader is single-pass and forward-only; it reports
// malformed framing as an error and continues with the following physical
// record, or with the next block when a record overruns its block.
type Reader struct {
	f   *os.File
	buf [blockSize]byte
	// n is the number of valid bytes currently in buf.
	n int
	// i is the read cursor within buf.
	i int
	// blockOffset is the file offset of buf[0].
	blockOffset int64
	err         error
}

// Open opens path and returns a Reader positioned at the start of the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dfindexeddb/record: open %s", path)
	}
	return &Reader{f: f}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

func (r *Reader) fillBlock() error {
	r.blockOffset += int64(r.n)
	n, err := io.ReadFull(r.f, r.buf[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return errors.Wrap(err, "dfindexeddb/record: reading block")
	}
	r.n = n
	r.i = 0
	if n == 0 {
		return io.EOF
	}
	return nil
}

// nextPhysicalRecord returns the next physical record, reading additional
// blocks as needed. It returns io.EOF when the file is exhausted.
func (r *Reader) nextPhysicalRecord() (PhysicalRecord, error) {
	for {
		if r.n == 0 {
			if err := r.fillBlock(); err != nil {
				return PhysicalRecord{}, err
			}
		}
		if r.i+headerSize > r.n {
			// Trailing short header: treat as padding, move to next block.
			if err := r.fillBlock(); err != nil {
				return PhysicalRecord{}, err
			}
			continue
		}
		header := r.buf[r.i : r.i+headerSize]
		checksum := binary.LittleEndian.Uint32(header[0:4])
		length := binary.LittleEndian.Uint16(header[4:6])
		typ := header[6]
		if checksum == 0 && length == 0 && typ == 0 {
			// Zero-filled trailing padding: the rest of this block carries
			// no more records.
			if err := r.fillBlock(); err != nil {
				return PhysicalRecord{}, err
			}
			continue
		}
		offset := r.blockOffset + int64(r.i)
		payloadStart := r.i + headerSize
		payloadEnd := payloadStart + int(length)
		if payloadEnd > r.n {
			// Skip the rest of this block so the next call moves on.
			r.i = r.n
			return PhysicalRecord{}, errors.Newf(
				"dfindexeddb/record: physical record at offset %d extends past block boundary", offset)
		}
		rec := PhysicalRecord{
			Checksum: checksum,
			Length:   length,
			Type:     PhysicalRecordType(typ),
			Payload:  r.buf[payloadStart:payloadEnd],
			Offset:   offset,
		}
		r.i = payloadEnd
		return rec, nil
	}
}

// NextLogicalRecord assembles and returns the next logical record's raw
// bytes, gluing together however many physical records it spans. It returns
// io.EOF once no further physical records remain.
//
// A MIDDLE or LAST physical record with no preceding FIRST, or a FIRST
// immediately followed by a non-MIDDLE/non-LAST record, is reported as an
// error; the reader resumes at the next FULL or FIRST record so that one
// malformed logical record does not hide the ones that follow it. This is
// the shared framing used both by .log files (whose logical records are
// WriteBatches) and MANIFEST descriptor files (whose logical records are
// VersionEdits); see internal/manifest.
func (r *Reader) NextLogicalRecord() ([]byte, int64, error) {
	for {
		rec, err := r.nextPhysicalRecord()
		if err != nil {
			return nil, 0, err
		}
		switch rec.Type {
		case FullType:
			return rec.Payload, rec.Offset, nil
		case FirstType:
			body := append([]byte(nil), rec.Payload...)
			for {
				next, err := r.nextPhysicalRecord()
				if err != nil {
					return nil, 0, errors.Wrapf(err,
						"dfindexeddb/record: unterminated logical record starting at offset %d", rec.Offset)
				}
				switch next.Type {
				case MiddleType:
					body = append(body, next.Payload...)
				case LastType:
					body = append(body, next.Payload...)
					return body, rec.Offset, nil
				default:
					// Leave next unread (it lies in the current block) so the
					// following call starts from it.
					r.i = int(next.Offset - r.blockOffset)
					return nil, 0, errors.Newf(
						"dfindexeddb/record: FIRST record at offset %d followed by type %d, not MIDDLE/LAST",
						rec.Offset, next.Type)
				}
			}
		case MiddleType, LastType:
			return nil, 0, errors.Newf(
				"dfindexeddb/record: orphan %v record at offset %d with no preceding FIRST", rec.Type, rec.Offset)
		default:
			return nil, 0, errors.Newf(
				"dfindexeddb/record: unknown physical record type %d at offset %d", rec.Type, rec.Offset)
		}
	}
}

// NextWriteBatch assembles the next logical record and decodes it as a
// WriteBatch. It returns io.EOF once no further physical records remain.
func (r *Reader) NextWriteBatch() (WriteBatch, error) {
	body, _, err := r.NextLogicalRecord()
	if err != nil {
		return WriteBatch{}, err
	}
	return decodeWriteBatch(body)
}

func decodeWriteBatch(body []byte) (WriteBatch, error) {
	r := stream.NewReader(body)
	seq, err := r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return WriteBatch{}, errors.Wrap(err, "dfindexeddb/record: batch sequence")
	}
	count, err := r.DecodeUint32(stream.LittleEndian)
	if err != nil {
		return WriteBatch{}, errors.Wrap(err, "dfindexeddb/record: batch count")
	}
	batch := WriteBatch{Sequence: seq, Count: count}
	for i := uint32(0); r.NumRemaining() > 0; i++ {
		typByte, err := r.DecodeUint8()
		if err != nil {
			return WriteBatch{}, errors.Wrap(err, "dfindexeddb/record: entry type")
		}
		key, err := r.DecodeLengthPrefixedSlice()
		if err != nil {
			return WriteBatch{}, errors.Wrap(err, "dfindexeddb/record: entry key")
		}
		entry := ParsedInternalKey{
			Type:     EntryType(typByte),
			Key:      key,
			Sequence: seq + uint64(i),
		}
		if entry.Type == ValueType {
			value, err := r.DecodeLengthPrefixedSlice()
			if err != nil {
				return WriteBatch{}, errors.Wrap(err, "dfindexeddb/record: entry value")
			}
			entry.Value = value
		}
		batch.Entries = append(batch.Entries, entry)
	}
	return batch, nil
}

func (t PhysicalRecordType) String() string {
	switch t {
	case FullType:
		return "FULL"
	case FirstType:
		return "FIRST"
	case MiddleType:
		return "MIDDLE"
	case LastType:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}
