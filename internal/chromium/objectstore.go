// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// sentinel bytes that open a wrapped (blob-backed) structured-clone payload:
// Blink's SSV envelope tag 0xFF followed by version 0x11 followed by the
// "this payload lives in a blob, not inline" marker 0x01.
var wrappedPayloadSentinel = [3]byte{0xFF, 0x11, 0x01}

// ObjectStoreDataValue is the decode of an ObjectStoreData LevelDB value:
// a varint schema version, then either an inline structured-clone blob or,
// when the sentinel bytes are present, a reference to an out-of-line blob
// carrying the real payload.
type ObjectStoreDataValue struct {
	Version    uint64
	Wrapped    bool
	BlobSize   uint64 // set only when Wrapped
	BlobOffset uint64 // set only when Wrapped
	Blob       []byte // the inline structured-clone bytes, or empty when Wrapped
}

// DecodeObjectStoreDataValue implements spec.md §4.6's ObjectStoreDataValue
// decoding: read a varint version, then peek (without consuming) three
// bytes; if they equal FF 11 01, the value is wrapped and blob_size/
// blob_offset are decoded as two varints starting at that same
// not-yet-consumed position (so blob_size's high bytes are the FF 11
// sentinel itself, and blob_offset begins at the 0x01 that follows it --
// this reuse of the peeked bytes matches the upstream decoder exactly, see
// DESIGN.md). Otherwise the remainder is the inline structured-clone
// payload handed to the blink/gecko/webkit decoders.
func DecodeObjectStoreDataValue(r *stream.Reader) (ObjectStoreDataValue, error) {
	version, err := r.DecodeVarint(0)
	if err != nil {
		return ObjectStoreDataValue{}, errors.Wrap(err, "dfindexeddb/chromium: object store data value version")
	}
	val := ObjectStoreDataValue{Version: version}

	peek, err := r.PeekBytes(3)
	if err == nil && peek[0] == wrappedPayloadSentinel[0] && peek[1] == wrappedPayloadSentinel[1] && peek[2] == wrappedPayloadSentinel[2] {
		val.Wrapped = true
		size, err := r.DecodeVarint(0)
		if err != nil {
			return ObjectStoreDataValue{}, errors.Wrap(err, "dfindexeddb/chromium: wrapped blob_size")
		}
		offset, err := r.DecodeVarint(0)
		if err != nil {
			return ObjectStoreDataValue{}, errors.Wrap(err, "dfindexeddb/chromium: wrapped blob_offset")
		}
		val.BlobSize = size
		val.BlobOffset = offset
		return val, nil
	}

	blob, err := r.ReadBytes(-1)
	if err != nil {
		return ObjectStoreDataValue{}, errors.Wrap(err, "dfindexeddb/chromium: inline structured-clone blob")
	}
	val.Blob = blob
	return val, nil
}

// ExternalObjectType classifies one entry in an IndexedDBExternalObject
// list: a blob, a file, or (newer Chrome) a File System Access handle.
type ExternalObjectType int

const (
	ExternalObjectBlob ExternalObjectType = iota
	ExternalObjectFile
	ExternalObjectFileSystemAccessHandle
)

// ExternalObjectEntry is one out-of-line object referenced from a
// BlobEntry value: a blob, a file, or a File System Access handle.
type ExternalObjectEntry struct {
	Type               ExternalObjectType
	BlobNumber         int64
	MimeType           string
	Size               int64 // -1 if unknown (FILE with no recorded size)
	FileName           string
	LastModifiedMicros int64
	Token              []byte // FileSystemAccessHandle serialized token
}

// DecodeIndexedDBExternalObjects decodes a BlobEntry value into the sequence
// of ExternalObjectEntry records it references, reading entries until the
// value is exhausted. Each entry begins with a type byte and a blob_number
// varint. BLOB and FILE entries then carry a UTF-16BE mime type and a size;
// FILE entries additionally carry a file name and a last-modified
// timestamp; FILE_SYSTEM_ACCESS_HANDLE entries instead carry only an opaque
// length-prefixed token.
func DecodeIndexedDBExternalObjects(r *stream.Reader) ([]ExternalObjectEntry, error) {
	var out []ExternalObjectEntry
	for r.NumRemaining() > 0 {
		typ, err := r.DecodeUint8()
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/chromium: external object type")
		}
		entry := ExternalObjectEntry{Type: ExternalObjectType(typ)}

		blobNum, err := r.DecodeVarint(0)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/chromium: external object blob_number")
		}
		entry.BlobNumber = int64(blobNum)

		switch entry.Type {
		case ExternalObjectFileSystemAccessHandle:
			token, err := r.DecodeLengthPrefixedSlice()
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/chromium: external object token")
			}
			entry.Token = token
		case ExternalObjectBlob, ExternalObjectFile:
			mime, err := r.DecodeStringWithLength(stream.BigEndian)
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/chromium: external object mime type")
			}
			entry.MimeType = mime

			size, err := r.DecodeZigzagVarint(0)
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/chromium: external object size")
			}
			entry.Size = size

			if entry.Type == ExternalObjectFile {
				name, err := r.DecodeStringWithLength(stream.BigEndian)
				if err != nil {
					return nil, errors.Wrap(err, "dfindexeddb/chromium: external object file name")
				}
				entry.FileName = name
				lastMod, err := r.DecodeZigzagVarint(0)
				if err != nil {
					return nil, errors.Wrap(err, "dfindexeddb/chromium: external object last_modified")
				}
				entry.LastModifiedMicros = lastMod
			}
		default:
			return nil, errors.Newf("dfindexeddb/chromium: unknown external object type %d", typ)
		}
		out = append(out, entry)
	}
	return out, nil
}
