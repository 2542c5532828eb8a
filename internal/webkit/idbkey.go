// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package webkit

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// DecodeIDBKeyData decodes a WebKit-encoded IndexedDB key: a version byte,
// a SIDBKeyType byte, and a type-specific payload (ARRAY payloads recurse,
// each element carrying its own type byte). Refer to IDBSerialization.cpp
// for the encoding scheme this mirrors.
func DecodeIDBKeyData(r *stream.Reader) (IDBKeyData, error) {
	offset := r.Offset()
	version, err := r.DecodeUint8()
	if err != nil {
		return IDBKeyData{}, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData version")
	}
	if version != SIDBKeyVersion {
		return IDBKeyData{}, errors.Newf("dfindexeddb/webkit: SIDBKeyVersion not found, got %d", version)
	}

	rawKeyType, err := r.DecodeUint8()
	if err != nil {
		return IDBKeyData{}, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData key type")
	}
	keyType := SIDBKeyType(rawKeyType)

	data, err := decodeKeyBuffer(r, keyType)
	if err != nil {
		return IDBKeyData{}, err
	}
	return IDBKeyData{Offset: offset, KeyType: keyType, Data: data}, nil
}

func decodeKeyBuffer(r *stream.Reader, keyType SIDBKeyType) (any, error) {
	switch keyType {
	case SIDBKeyTypeMin:
		return nil, nil
	case SIDBKeyTypeNumber:
		v, err := r.DecodeDouble(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData number")
		}
		return v, nil
	case SIDBKeyTypeDate:
		ms, err := r.DecodeDouble(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData date")
		}
		return Date(time.UnixMilli(int64(ms)).UTC()), nil
	case SIDBKeyTypeString:
		length, err := r.DecodeUint32(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData string length")
		}
		raw, err := r.ReadBytes(int(length) * 2)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData string bytes")
		}
		units := make([]uint16, length)
		for i := range units {
			units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		}
		return string(utf16ToRunes(units)), nil
	case SIDBKeyTypeBinary:
		length, err := r.DecodeUint32(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData binary length")
		}
		raw, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData binary bytes")
		}
		return append([]byte(nil), raw...), nil
	case SIDBKeyTypeArray:
		length, err := r.DecodeUint64(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData array length")
		}
		elements := make([]any, 0, length)
		for i := uint64(0); i < length; i++ {
			elementType, err := r.DecodeUint8()
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/webkit: IDBKeyData array element type")
			}
			element, err := decodeKeyBuffer(r, SIDBKeyType(elementType))
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
		}
		return elements, nil
	default:
		return nil, errors.Newf("dfindexeddb/webkit: unknown SIDBKeyType %#x", byte(keyType))
	}
}
