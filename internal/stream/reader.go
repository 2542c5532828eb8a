// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package stream implements the bounded-read primitives every decoder in
// this repository is built on: a cursor over an immutable byte buffer plus
// the fixed-width, varint, and sortable-key encodings used by LevelDB and
// Chromium's IndexedDB coding layer.
//
// The single-field reads in this file (ReadBytes, PeekBytes, the fixed-width
// and varint decoders) never advance the cursor on a failed read: each
// either consumes the exact number of bytes documented or returns an error
// with the cursor left where it started. The multi-field decoders in
// leveldb.go can fail after an earlier field was read, and then leave the
// cursor past that field.
package stream

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// ErrExhausted is returned when a read would run past the end of the buffer.
var ErrExhausted = errors.New("dfindexeddb/stream: not enough bytes remaining")

// Endian selects the byte order for fixed-width and varint-adjacent reads.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// Reader is a cursor over an immutable byte slice.
//
// Reader is not safe for concurrent use; callers that want concurrent access
// to the same underlying bytes should construct independent Readers over the
// same slice (slices are never mutated by Reader).
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// NumRemaining returns the number of unread bytes. It never fails.
func (r *Reader) NumRemaining() int {
	n := len(r.buf) - r.pos
	if n < 0 {
		return 0
	}
	return n
}

// Seek repositions the cursor to an absolute offset. It is the only way a
// Reader's cursor moves backwards; every other operation is monotone
// non-decreasing.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.buf) {
		return errors.Wrapf(ErrExhausted, "seek to %d (len %d)", offset, len(r.buf))
	}
	r.pos = offset
	return nil
}

// ReadBytes returns the next n bytes and advances the cursor by n. Passing
// n == -1 returns and consumes the remainder of the buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n == -1 {
		n = r.NumRemaining()
	}
	if n < 0 || n > r.NumRemaining() {
		return nil, errors.Wrapf(ErrExhausted, "read %d bytes at offset %d (len %d)", n, r.pos, len(r.buf))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// PeekBytes returns the next n bytes without advancing the cursor. The
// cursor is left unchanged whether or not the read succeeds.
func (r *Reader) PeekBytes(n int) ([]byte, error) {
	if n < 0 || n > r.NumRemaining() {
		return nil, errors.Wrapf(ErrExhausted, "peek %d bytes at offset %d (len %d)", n, r.pos, len(r.buf))
	}
	return r.buf[r.pos : r.pos+n], nil
}

// ReadByte reads a single byte, satisfying io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// DecodeInt decodes a byteCount-wide integer in the requested endianness.
// When signed is true the result is sign-extended from the most significant
// bit of the encoded width.
func (r *Reader) DecodeInt(byteCount int, endian Endian, signed bool) (int64, error) {
	b, err := r.ReadBytes(byteCount)
	if err != nil {
		return 0, err
	}
	var u uint64
	if endian == LittleEndian {
		for i := byteCount - 1; i >= 0; i-- {
			u = u<<8 | uint64(b[i])
		}
	} else {
		for i := 0; i < byteCount; i++ {
			u = u<<8 | uint64(b[i])
		}
	}
	if !signed || byteCount >= 8 {
		return int64(u), nil
	}
	signBit := uint64(1) << (uint(byteCount)*8 - 1)
	if u&signBit != 0 {
		u |= ^uint64(0) << (uint(byteCount) * 8)
	}
	return int64(u), nil
}

func (r *Reader) DecodeUint8() (uint8, error) {
	v, err := r.DecodeInt(1, LittleEndian, false)
	return uint8(v), err
}

func (r *Reader) DecodeInt8() (int8, error) {
	v, err := r.DecodeInt(1, LittleEndian, true)
	return int8(v), err
}

func (r *Reader) DecodeUint16(endian Endian) (uint16, error) {
	v, err := r.DecodeInt(2, endian, false)
	return uint16(v), err
}

func (r *Reader) DecodeInt16(endian Endian) (int16, error) {
	v, err := r.DecodeInt(2, endian, true)
	return int16(v), err
}

func (r *Reader) DecodeUint24(endian Endian) (uint32, error) {
	v, err := r.DecodeInt(3, endian, false)
	return uint32(v), err
}

func (r *Reader) DecodeUint32(endian Endian) (uint32, error) {
	v, err := r.DecodeInt(4, endian, false)
	return uint32(v), err
}

func (r *Reader) DecodeInt32(endian Endian) (int32, error) {
	v, err := r.DecodeInt(4, endian, true)
	return int32(v), err
}

func (r *Reader) DecodeUint48(endian Endian) (uint64, error) {
	v, err := r.DecodeInt(6, endian, false)
	return uint64(v), err
}

func (r *Reader) DecodeUint64(endian Endian) (uint64, error) {
	v, err := r.DecodeInt(8, endian, false)
	return uint64(v), err
}

func (r *Reader) DecodeInt64(endian Endian) (int64, error) {
	return r.DecodeInt(8, endian, true)
}

// DecodeDouble decodes an IEEE-754 double in the requested byte order.
func (r *Reader) DecodeDouble(endian Endian) (float64, error) {
	u, err := r.DecodeUint64(endian)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// DecodeFloat decodes an IEEE-754 single-precision float.
func (r *Reader) DecodeFloat(endian Endian) (float32, error) {
	u, err := r.DecodeUint32(endian)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// DecodeVarint decodes a base-128 little-endian unsigned varint, terminating
// on the first byte whose high bit is clear. maxBytes bounds the number of
// bytes consumed; 0 means the default of 10 (enough for any uint64).
func (r *Reader) DecodeVarint(maxBytes int) (uint64, error) {
	if maxBytes <= 0 {
		maxBytes = binary.MaxVarintLen64
	}
	start := r.pos
	var result uint64
	for i := 0; i < maxBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			r.pos = start
			return 0, errors.Wrap(err, "dfindexeddb/stream: truncated varint")
		}
		result |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	r.pos = start
	return 0, errors.Newf("dfindexeddb/stream: varint exceeds %d bytes", maxBytes)
}

// DecodeZigzagVarint decodes a zigzag-encoded signed varint:
// (v >> 1) XOR -(v & 1).
func (r *Reader) DecodeZigzagVarint(maxBytes int) (int64, error) {
	u, err := r.DecodeVarint(maxBytes)
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}
