// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package stream

import (
	"math"
	"unicode/utf16"

	"github.com/cockroachdb/errors"
)

// ErrMalformed signals a well-formed read that nonetheless violates a format
// rule (bad tag, impossible length, bad magic); spec.md's "ParserError".
var ErrMalformed = errors.New("dfindexeddb/stream: malformed encoding")

// ErrNotImplemented signals a recognized but deliberately unsupported wire
// feature (a tag this decoder knows by name but does not decode).
var ErrNotImplemented = errors.New("dfindexeddb/stream: not implemented")

// DecodeBool reads one byte. The upstream tool this package reimplements
// treats "a byte was present" as the whole of the boolean's meaning, so this
// always returns true when a byte could be read; it is preserved verbatim
// (see spec.md §9 Open Questions) rather than corrected to `byte != 0`.
func (r *Reader) DecodeBool() (bool, error) {
	if _, err := r.ReadByte(); err != nil {
		return false, err
	}
	return true, nil
}

// DecodeString consumes the remainder of the buffer and interprets it as
// UTF-16BE. The byte count must be even.
func (r *Reader) DecodeString() (string, error) {
	b, err := r.ReadBytes(-1)
	if err != nil {
		return "", err
	}
	return decodeUTF16(b, BigEndian)
}

// DecodeLengthPrefixedSlice reads a varint length prefix followed by that
// many bytes.
func (r *Reader) DecodeLengthPrefixedSlice() ([]byte, error) {
	n, err := r.DecodeVarint(0)
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// DecodeBlobWithLength is an alias of DecodeLengthPrefixedSlice; both names
// appear in the corpus this format derives from.
func (r *Reader) DecodeBlobWithLength() ([]byte, error) {
	return r.DecodeLengthPrefixedSlice()
}

// DecodeStringWithLength reads a varint character count n followed by 2n
// bytes interpreted in the given endianness (UTF-16BE by convention for
// Chromium's IndexedDB coding, UTF-16LE for several structured-clone wire
// formats).
func (r *Reader) DecodeStringWithLength(endian Endian) (string, error) {
	n, err := r.DecodeVarint(0)
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n) * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16(b, endian)
}

func decodeUTF16(b []byte, endian Endian) (string, error) {
	if len(b)%2 != 0 {
		return "", errors.Wrapf(ErrMalformed, "odd UTF-16 byte length %d", len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		if endian == BigEndian {
			units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
		} else {
			units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
		}
	}
	return string(utf16.Decode(units)), nil
}

// DecodeSortableBinary decodes LevelDB's escaped base-9 sortable binary
// encoding: chunks of up to 8 payload bytes, each followed by a marker byte
// in [1..8] giving the payload length of the final chunk, or 9 meaning "full
// chunk, more follows". A leading sentinel byte of 0 denotes an empty value.
func (r *Reader) DecodeSortableBinary() ([]byte, error) {
	first, err := r.PeekBytes(1)
	if err != nil {
		return nil, err
	}
	if first[0] == 0 {
		_, _ = r.ReadByte()
		return nil, nil
	}
	var out []byte
	for {
		chunk, err := r.ReadBytes(8)
		if err != nil {
			return nil, err
		}
		marker, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch {
		case marker == 9:
			out = append(out, chunk...)
		case marker >= 1 && marker <= 8:
			out = append(out, chunk[:marker]...)
			return out, nil
		default:
			return nil, errors.Wrapf(ErrMalformed, "bad sortable-binary marker %d", marker)
		}
	}
}

// DecodeSortableDouble decodes LevelDB's order-preserving double encoding:
// 8 big-endian bytes, sign-bit-flipped so that the byte-wise order of the
// encoding matches numeric order.
func (r *Reader) DecodeSortableDouble() (float64, error) {
	u, err := r.DecodeUint64(BigEndian)
	if err != nil {
		return 0, err
	}
	if u&(1<<63) != 0 {
		u &^= 1 << 63
	} else {
		u = ^u
	}
	// u was decoded big-endian into host order by DecodeUint64; reinterpret
	// the now-corrected bit pattern as the IEEE-754 payload directly.
	return math.Float64frombits(u), nil
}

// DecodeSortableString decodes LevelDB's order-preserving UTF-16 code-point
// encoding: a byte with the top bit clear encodes codepoint b-1; a byte
// matching 10xxxxxx introduces a 14-bit codepoint spanning one more byte; a
// leading 0xFF byte introduces a 16-bit codepoint spanning two more bytes; a
// sentinel 0 byte ends the string.
func (r *Reader) DecodeSortableString() (string, error) {
	var codepoints []rune
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		switch {
		case b == 0:
			return string(codepoints), nil
		case b&0x80 == 0:
			codepoints = append(codepoints, rune(b)-1)
		case b&0xC0 == 0x80:
			next, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			cp := (rune(b&0x3F) << 8) | rune(next)
			codepoints = append(codepoints, cp)
		case b == 0xFF:
			hi, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			lo, err := r.ReadByte()
			if err != nil {
				return "", err
			}
			cp := (rune(hi) << 8) | rune(lo)
			codepoints = append(codepoints, cp)
		default:
			return "", errors.Wrapf(ErrMalformed, "bad sortable-string lead byte 0x%02x", b)
		}
	}
}
