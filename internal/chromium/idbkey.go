// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// maxIDBKeyDepth bounds IDBKey array recursion (spec.md §4.6, §8): depth
// greater than this is a hard parser error, not a stack overflow.
const maxIDBKeyDepth = 2000

// IDBKeyType tags the variant carried by an IDBKey.
type IDBKeyType int

const (
	IDBKeyNull IDBKeyType = iota
	IDBKeyString
	IDBKeyDate
	IDBKeyNumber
	IDBKeyArray
	IDBKeyMin
	IDBKeyBinary
)

const (
	tagIDBKeyNull   = 0
	tagIDBKeyString = 1
	tagIDBKeyDate   = 2
	tagIDBKeyNumber = 3
	tagIDBKeyArray  = 4
	tagIDBKeyMin    = 5
	tagIDBKeyBinary = 6
)

// IDBKey is the tagged union described in spec.md §3: NULL, STRING, DATE,
// NUMBER, ARRAY (recursive, depth-capped), MIN_KEY, or BINARY.
type IDBKey struct {
	Type   IDBKeyType
	String string
	Date   time.Time
	Number float64
	Array  []IDBKey
	Binary []byte
}

// DecodeIDBKey reads one tagged IDBKey, recursing into ARRAY elements up to
// maxIDBKeyDepth.
func DecodeIDBKey(r *stream.Reader) (IDBKey, error) {
	return decodeIDBKeyDepth(r, 0)
}

func decodeIDBKeyDepth(r *stream.Reader, depth int) (IDBKey, error) {
	if depth > maxIDBKeyDepth {
		return IDBKey{}, errors.Newf("dfindexeddb/chromium: IDBKey recursion exceeds depth %d", maxIDBKeyDepth)
	}
	tag, err := r.DecodeUint8()
	if err != nil {
		return IDBKey{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKey tag")
	}
	switch tag {
	case tagIDBKeyNull:
		return IDBKey{Type: IDBKeyNull}, nil
	case tagIDBKeyMin:
		return IDBKey{Type: IDBKeyMin}, nil
	case tagIDBKeyNumber:
		v, err := r.DecodeDouble(stream.LittleEndian)
		if err != nil {
			return IDBKey{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKey number")
		}
		return IDBKey{Type: IDBKeyNumber, Number: v}, nil
	case tagIDBKeyDate:
		v, err := r.DecodeDouble(stream.LittleEndian)
		if err != nil {
			return IDBKey{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKey date")
		}
		return IDBKey{Type: IDBKeyDate, Date: time.UnixMilli(int64(v)).UTC()}, nil
	case tagIDBKeyString:
		s, err := r.DecodeStringWithLength(stream.BigEndian)
		if err != nil {
			return IDBKey{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKey string")
		}
		return IDBKey{Type: IDBKeyString, String: s}, nil
	case tagIDBKeyBinary:
		b, err := r.DecodeLengthPrefixedSlice()
		if err != nil {
			return IDBKey{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKey binary")
		}
		return IDBKey{Type: IDBKeyBinary, Binary: b}, nil
	case tagIDBKeyArray:
		n, err := r.DecodeVarint(0)
		if err != nil {
			return IDBKey{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKey array length")
		}
		elems := make([]IDBKey, 0, n)
		for i := uint64(0); i < n; i++ {
			elem, err := decodeIDBKeyDepth(r, depth+1)
			if err != nil {
				return IDBKey{}, err
			}
			elems = append(elems, elem)
		}
		return IDBKey{Type: IDBKeyArray, Array: elems}, nil
	default:
		return IDBKey{}, errors.Newf("dfindexeddb/chromium: unknown IDBKey tag %d", tag)
	}
}

// IDBKeyPathType tags the variant carried by an IDBKeyPath.
type IDBKeyPathType int

const (
	IDBKeyPathNull IDBKeyPathType = iota
	IDBKeyPathString
	IDBKeyPathArray
)

// IDBKeyPath is {NULL | STRING | ARRAY of STRING}.
type IDBKeyPath struct {
	Type   IDBKeyPathType
	String string
	Array  []string
}

const (
	tagKeyPathNull   = 0
	tagKeyPathString = 1
	tagKeyPathArray  = 2
)

// DecodeIDBKeyPath decodes an IDBKeyPath. If the buffer begins with 0x00
// 0x00, a type byte follows and dispatches; otherwise the entire remaining
// buffer is a bare UTF-16BE string.
func DecodeIDBKeyPath(r *stream.Reader) (IDBKeyPath, error) {
	prefix, err := r.PeekBytes(2)
	if err != nil || prefix[0] != 0 || prefix[1] != 0 {
		s, err := r.DecodeString()
		if err != nil {
			return IDBKeyPath{}, errors.Wrap(err, "dfindexeddb/chromium: bare IDBKeyPath string")
		}
		return IDBKeyPath{Type: IDBKeyPathString, String: s}, nil
	}
	if _, err := r.ReadBytes(2); err != nil {
		return IDBKeyPath{}, err
	}
	typ, err := r.DecodeUint8()
	if err != nil {
		return IDBKeyPath{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKeyPath type byte")
	}
	switch typ {
	case tagKeyPathNull:
		return IDBKeyPath{Type: IDBKeyPathNull}, nil
	case tagKeyPathString:
		s, err := r.DecodeStringWithLength(stream.BigEndian)
		if err != nil {
			return IDBKeyPath{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKeyPath string")
		}
		return IDBKeyPath{Type: IDBKeyPathString, String: s}, nil
	case tagKeyPathArray:
		n, err := r.DecodeVarint(0)
		if err != nil {
			return IDBKeyPath{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKeyPath array count")
		}
		arr := make([]string, 0, n)
		for i := uint64(0); i < n; i++ {
			s, err := r.DecodeStringWithLength(stream.BigEndian)
			if err != nil {
				return IDBKeyPath{}, errors.Wrap(err, "dfindexeddb/chromium: IDBKeyPath array element")
			}
			arr = append(arr, s)
		}
		return IDBKeyPath{Type: IDBKeyPathArray, Array: arr}, nil
	default:
		return IDBKeyPath{}, errors.Newf("dfindexeddb/chromium: unknown IDBKeyPath type byte %d", typ)
	}
}
