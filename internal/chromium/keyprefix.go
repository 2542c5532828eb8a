// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package chromium decodes the Chromium IndexedDB key/value coding layer
// that sits on top of raw LevelDB keys: KeyPrefix, IDBKey, IDBKeyPath, the
// metadata key families, and ObjectStoreDataValue. See spec.md §4.6 and
// Chromium's indexed_db_leveldb_coding.cc.
package chromium

import (
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// KeyPrefixType classifies a KeyPrefix by its (database_id, object_store_id,
// index_id) triple.
type KeyPrefixType int

const (
	GlobalMetadata KeyPrefixType = iota
	DatabaseMetadata
	ObjectStoreData
	ExistsEntry
	BlobEntry
	IndexData
	InvalidKeyPrefixType
)

const (
	objectStoreDataIndexID = 1
	existsEntryIndexID     = 2
	blobEntryIndexID       = 3
	minimumIndexID         = 30
)

// KeyPrefix is the (database, object-store, index) triple identifying the
// coding context of a Chromium IDB key.
type KeyPrefix struct {
	DatabaseID    int64
	ObjectStoreID int64
	IndexID       int64
}

// Type derives the KeyPrefixType from the three IDs, per
// indexed_db_leveldb_coding.cc's KeyPrefix::Decode/type() logic.
func (p KeyPrefix) Type() KeyPrefixType {
	switch {
	case p.DatabaseID == 0:
		return GlobalMetadata
	case p.ObjectStoreID == 0:
		return DatabaseMetadata
	case p.IndexID == objectStoreDataIndexID:
		return ObjectStoreData
	case p.IndexID == existsEntryIndexID:
		return ExistsEntry
	case p.IndexID == blobEntryIndexID:
		return BlobEntry
	case p.IndexID >= minimumIndexID:
		return IndexData
	default:
		return InvalidKeyPrefixType
	}
}

// DecodeKeyPrefix reads a single control byte encoding three packed length
// fields, then that many little-endian bytes for each of the three IDs.
//
// The documented Chromium layout (top 3 bits: database_id length - 1; next 3
// bits: object_store_id length - 1; low 2 bits: index_id length - 1) is used
// here. spec.md §9 notes that at least one known reimplementation applies
// `& 0xE0 >> 5` to the control byte, which operator precedence collapses to
// `& 0x07` -- a likely bug in that source, not a documented format
// alternative. This decoder implements the documented layout; see DESIGN.md.
func DecodeKeyPrefix(r *stream.Reader) (KeyPrefix, error) {
	control, err := r.DecodeUint8()
	if err != nil {
		return KeyPrefix{}, errors.Wrap(err, "dfindexeddb/chromium: key prefix control byte")
	}
	dbLen := int((control>>5)&0x07) + 1
	osLen := int((control>>2)&0x07) + 1
	idxLen := int(control&0x03) + 1

	dbID, err := r.DecodeInt(dbLen, stream.LittleEndian, false)
	if err != nil {
		return KeyPrefix{}, errors.Wrap(err, "dfindexeddb/chromium: key prefix database_id")
	}
	osID, err := r.DecodeInt(osLen, stream.LittleEndian, false)
	if err != nil {
		return KeyPrefix{}, errors.Wrap(err, "dfindexeddb/chromium: key prefix object_store_id")
	}
	idxID, err := r.DecodeInt(idxLen, stream.LittleEndian, false)
	if err != nil {
		return KeyPrefix{}, errors.Wrap(err, "dfindexeddb/chromium: key prefix index_id")
	}
	return KeyPrefix{DatabaseID: dbID, ObjectStoreID: osID, IndexID: idxID}, nil
}
