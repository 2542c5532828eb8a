// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// GlobalMetadataType enumerates the metadata-type byte following a
// GlobalMetadata KeyPrefix.
type GlobalMetadataType int

const (
	SchemaVersion          GlobalMetadataType = 0
	MaxDatabaseID          GlobalMetadataType = 1
	DataVersion            GlobalMetadataType = 2
	RecoveryBlobJournal    GlobalMetadataType = 3
	ActiveBlobJournal      GlobalMetadataType = 4
	EarliestSweep          GlobalMetadataType = 5
	EarliestCompactionTime GlobalMetadataType = 6
	ScopesPrefix           GlobalMetadataType = 50
	DatabaseFreeList       GlobalMetadataType = 100
	DatabaseName           GlobalMetadataType = 201
)

// DatabaseMetadataType enumerates the metadata-type byte following a
// DatabaseMetadata KeyPrefix.
type DatabaseMetadataType int

const (
	OriginName                       DatabaseMetadataType = 0
	DBName                           DatabaseMetadataType = 1
	IDBStringVersionData             DatabaseMetadataType = 2
	MaxAllocatedObjectStoreID        DatabaseMetadataType = 3
	IDBIntegerVersion                DatabaseMetadataType = 4
	BlobNumberGeneratorCurrentNumber DatabaseMetadataType = 5
	ObjectStoreMetaData              DatabaseMetadataType = 50
	IndexMetaData                    DatabaseMetadataType = 100
	ObjectStoreFreeList              DatabaseMetadataType = 150
	IndexFreeList                    DatabaseMetadataType = 151
	ObjectStoreNames                 DatabaseMetadataType = 200
	IndexNames                       DatabaseMetadataType = 201
)

// GlobalMetadataKey is the decode of the key suffix following a
// GlobalMetadata KeyPrefix: a single metadata-type byte, plus a database_id
// for DatabaseFreeList when the key carries one.
type GlobalMetadataKey struct {
	Type       GlobalMetadataType
	DatabaseID int64 // set only for DatabaseFreeList
}

func DecodeGlobalMetadataKey(r *stream.Reader) (GlobalMetadataKey, error) {
	typ, err := r.DecodeUint8()
	if err != nil {
		return GlobalMetadataKey{}, errors.Wrap(err, "dfindexeddb/chromium: global metadata type byte")
	}
	key := GlobalMetadataKey{Type: GlobalMetadataType(typ)}
	if key.Type == DatabaseFreeList && r.NumRemaining() > 0 {
		id, err := r.DecodeVarint(0)
		if err != nil {
			return GlobalMetadataKey{}, errors.Wrap(err, "dfindexeddb/chromium: database_free_list database_id")
		}
		key.DatabaseID = int64(id)
	}
	return key, nil
}

// BlobJournalEntry is one (database_id, blob_number) pair inside a blob
// journal value.
type BlobJournalEntry struct {
	DatabaseID int64
	BlobNumber int64
}

// DecodeGlobalMetadataValue decodes the LevelDB value for a GlobalMetadata
// record, given the key's metadata type. Most types are a single varint
// integer; blob-journal values are zero-or-more (database_id, blob_number)
// pairs read until the value is exhausted; scopes_prefix values are an
// opaque blob.
func DecodeGlobalMetadataValue(typ GlobalMetadataType, r *stream.Reader) (any, error) {
	switch typ {
	case RecoveryBlobJournal, ActiveBlobJournal:
		var entries []BlobJournalEntry
		for r.NumRemaining() > 0 {
			dbID, err := r.DecodeVarint(0)
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/chromium: blob journal database_id")
			}
			blobNum, err := r.DecodeVarint(0)
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/chromium: blob journal blob_number")
			}
			entries = append(entries, BlobJournalEntry{DatabaseID: int64(dbID), BlobNumber: int64(blobNum)})
		}
		return entries, nil
	case ScopesPrefix:
		return r.ReadBytes(-1)
	default:
		v, err := r.DecodeVarint(0)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/chromium: global metadata value")
		}
		return v, nil
	}
}

// DatabaseMetadataKey is the decode of the key suffix following a
// DatabaseMetadata KeyPrefix.
type DatabaseMetadataKey struct {
	Type          DatabaseMetadataType
	ObjectStoreID int64 // set for ObjectStoreMetaData, IndexMetaData, *FreeList, *Names
	IndexID       int64 // set for IndexMetaData, IndexFreeList, IndexNames
	MetaDataByte  byte  // the sub-field byte for ObjectStoreMetaData/IndexMetaData
}

func DecodeDatabaseMetadataKey(r *stream.Reader) (DatabaseMetadataKey, error) {
	typ, err := r.DecodeUint8()
	if err != nil {
		return DatabaseMetadataKey{}, errors.Wrap(err, "dfindexeddb/chromium: database metadata type byte")
	}
	key := DatabaseMetadataKey{Type: DatabaseMetadataType(typ)}
	switch key.Type {
	case ObjectStoreMetaData, ObjectStoreFreeList, ObjectStoreNames:
		id, err := r.DecodeVarint(0)
		if err != nil {
			return DatabaseMetadataKey{}, errors.Wrap(err, "dfindexeddb/chromium: object_store_id")
		}
		key.ObjectStoreID = int64(id)
		if key.Type == ObjectStoreMetaData && r.NumRemaining() > 0 {
			b, err := r.DecodeUint8()
			if err != nil {
				return DatabaseMetadataKey{}, err
			}
			key.MetaDataByte = b
		}
	case IndexMetaData, IndexFreeList, IndexNames:
		osID, err := r.DecodeVarint(0)
		if err != nil {
			return DatabaseMetadataKey{}, errors.Wrap(err, "dfindexeddb/chromium: object_store_id")
		}
		key.ObjectStoreID = int64(osID)
		idxID, err := r.DecodeVarint(0)
		if err != nil {
			return DatabaseMetadataKey{}, errors.Wrap(err, "dfindexeddb/chromium: index_id")
		}
		key.IndexID = int64(idxID)
		if key.Type == IndexMetaData && r.NumRemaining() > 0 {
			b, err := r.DecodeUint8()
			if err != nil {
				return DatabaseMetadataKey{}, err
			}
			key.MetaDataByte = b
		}
	}
	return key, nil
}
