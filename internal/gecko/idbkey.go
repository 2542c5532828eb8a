// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package gecko

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// IDBKey is a decoded Gecko IndexedDB key: the "stringy" encoding Firefox
// uses for index and object-store keys, distinct from the JSStructuredClone
// value format used for record bodies.
type IDBKey struct {
	Offset int
	Type   IndexedDBKeyType
	Value  any
}

// DecodeIDBKey decodes one Gecko-encoded IndexedDB key starting at the
// reader's current position.
func DecodeIDBKey(r *stream.Reader) (IDBKey, error) {
	offset := r.Offset()
	peeked, err := r.PeekBytes(1)
	if err != nil {
		return IDBKey{}, errors.Wrap(err, "dfindexeddb/gecko: IDBKey leading byte")
	}
	leading := int(peeked[0])
	value, err := decodeKeyValue(r, leading, 0, 0)
	if err != nil {
		return IDBKey{}, err
	}
	var typ IndexedDBKeyType
	if leading >= int(KeyArray) {
		typ = KeyArray
	} else {
		typ = IndexedDBKeyType(leading)
	}
	return IDBKey{Offset: offset, Type: typ, Value: value}, nil
}

func decodeKeyValue(r *stream.Reader, keyType, typeOffset, depth int) (any, error) {
	if depth == maxRecursionDepth {
		return nil, errors.Newf("dfindexeddb/gecko: IDBKey reached maximum recursion depth")
	}
	if keyType-typeOffset >= int(KeyArray) {
		typeOffset += int(KeyArray)
		if typeOffset == int(KeyArray)*maxArrayCollapse {
			if _, err := r.ReadBytes(1); err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/gecko: IDBKey array-collapse byte")
			}
			typeOffset = 0
		}
		var values []any
		for r.NumRemaining() > 0 && keyType-typeOffset != int(KeyTerminator) {
			v, err := decodeKeyValue(r, keyType, typeOffset, depth+1)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			typeOffset = 0
			if r.NumRemaining() > 0 {
				peeked, err := r.PeekBytes(1)
				if err != nil {
					return nil, errors.Wrap(err, "dfindexeddb/gecko: IDBKey array element type byte")
				}
				keyType = int(peeked[0])
			}
		}
		if r.NumRemaining() > 0 {
			if _, err := r.ReadBytes(1); err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/gecko: IDBKey array terminator")
			}
		}
		return values, nil
	}

	switch keyType - typeOffset {
	case int(KeyString):
		b, err := decodeStringy(r)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case int(KeyDate):
		return decodeKeyDate(r)
	case int(KeyFloat):
		return decodeKeyFloat(r)
	case int(KeyBinary):
		return decodeStringy(r)
	default:
		return nil, errors.Newf("dfindexeddb/gecko: unknown IDBKey type %d", keyType-typeOffset)
	}
}

// decodeStringy decodes Gecko's byte-adjusted "stringy" key payload used for
// both STRING and BINARY keys: a type byte, a NUL-terminated (or
// EOF-terminated) byte run, and a per-byte rebias.
func decodeStringy(r *stream.Reader) ([]byte, error) {
	typeByte, err := r.DecodeUint8()
	if err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/gecko: stringy key type byte")
	}
	mod := int(typeByte) % int(KeyArray)
	if mod != int(KeyString) && mod != int(KeyBinary) {
		return nil, errors.Newf("dfindexeddb/gecko: invalid stringy key type %#x", typeByte)
	}

	result, err := readUntilNull(r)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(result); i++ {
		if result[i]&0x80 == 0 {
			result[i] -= oneByteAdjust
			continue
		}
		if result[i]&0x40 == 0 {
			if i+1 >= len(result) {
				return nil, errors.Newf("dfindexeddb/gecko: truncated two-byte stringy code unit")
			}
			c := uint16(result[i])<<8 | uint16(result[i+1])
			d := int32(c) - 0x8000 - twoByteAdjust
			result[i] = byte(uint16(d) >> 8)
			result[i+1] = byte(uint16(d))
			continue
		}
		return nil, errors.Newf("dfindexeddb/gecko: unsupported stringy byte %#x", result[i])
	}
	return result, nil
}

func readUntilNull(r *stream.Reader) ([]byte, error) {
	var result []byte
	for r.NumRemaining() > 0 {
		b, err := r.ReadBytes(1)
		if err != nil {
			return nil, err
		}
		if b[0] == 0 {
			break
		}
		result = append(result, b[0])
	}
	return result, nil
}

// decodeKeyFloat decodes Gecko's sortable-double key encoding: up to 8
// bytes, zero-padded on the right, reinterpreted as a signed big-endian
// int64 whose sign bit selects between "clear the sign bit" (originally
// non-negative) and "negate" (originally negative) before the bit pattern
// is read back as an IEEE-754 double.
func decodeKeyFloat(r *stream.Reader) (float64, error) {
	typeByte, err := r.DecodeUint8()
	if err != nil {
		return 0, errors.Wrap(err, "dfindexeddb/gecko: float key type byte")
	}
	mod := int(typeByte) % int(KeyArray)
	if mod != int(KeyFloat) && mod != int(KeyDate) {
		return 0, errors.Newf("dfindexeddb/gecko: invalid float/date key type %#x", typeByte)
	}

	n := r.NumRemaining()
	if n > 8 {
		n = 8
	}
	raw, err := r.ReadBytes(n)
	if err != nil {
		return 0, errors.Wrap(err, "dfindexeddb/gecko: float key bytes")
	}
	var buf [8]byte
	copy(buf[:], raw)
	intValue := int64(binary.BigEndian.Uint64(buf[:]))
	if intValue < 0 {
		intValue &= 0x7FFFFFFFFFFFFFFF
	} else {
		intValue = -intValue
	}
	return math.Float64frombits(uint64(intValue)), nil
}

func decodeKeyDate(r *stream.Reader) (time.Time, error) {
	ms, err := decodeKeyFloat(r)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}
