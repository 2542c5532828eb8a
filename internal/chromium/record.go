// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/blink"
	"github.com/google/dfindexeddb-go/internal/stream"
)

// Record is a single Chromium IndexedDB LevelDB entry, decoded according to
// its KeyPrefix type. Which fields are populated depends on Type, mirroring
// the per-KeyPrefixType key/value classes in the original implementation
// (ObjectStoreDataKey, ExistsEntryKey, IndexDataKey, BlobEntryKey,
// GlobalMetaDataKey, DatabaseMetaDataKey): ObjectStoreData, ExistsEntry,
// IndexData and BlobEntry all carry a UserKey decoded from the key suffix;
// IndexData additionally carries a sequence number and primary key when
// present; ObjectStoreData's value additionally carries the decoded
// structured-clone payload once unwrapped from its ObjectStoreDataValue
// envelope.
type Record struct {
	Prefix KeyPrefix
	Type   KeyPrefixType

	GlobalMetadataKey   *GlobalMetadataKey
	GlobalMetadataValue any

	DatabaseMetadataKey *DatabaseMetadataKey

	UserKey        *IDBKey
	SequenceNumber *uint64 // IndexData only, when the key carries one
	PrimaryKey     *IDBKey // IndexData only, when the key carries one

	ObjectStoreValue   *ObjectStoreDataValue
	StructuredCloneVal any // decoded Blink SSV payload, nil if Wrapped (a payload that fails to decode makes DecodeRecord return an error)

	ExternalObjects []ExternalObjectEntry
}

// DecodeRecord dispatches on the KeyPrefix parsed from key, then decodes
// the rest of key and all of value (when present) the way the prefix's
// KeyPrefixType dictates. value may be nil for a LevelDB tombstone.
func DecodeRecord(key, value []byte) (Record, error) {
	keyReader := stream.NewReader(key)
	prefix, err := DecodeKeyPrefix(keyReader)
	if err != nil {
		return Record{}, errors.Wrap(err, "dfindexeddb/chromium: record key prefix")
	}

	rec := Record{Prefix: prefix, Type: prefix.Type()}

	switch rec.Type {
	case GlobalMetadata:
		mdKey, err := DecodeGlobalMetadataKey(keyReader)
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: global metadata key")
		}
		rec.GlobalMetadataKey = &mdKey
		if value != nil {
			v, err := DecodeGlobalMetadataValue(mdKey.Type, stream.NewReader(value))
			if err != nil {
				return Record{}, errors.Wrap(err, "dfindexeddb/chromium: global metadata value")
			}
			rec.GlobalMetadataValue = v
		}
		return rec, nil

	case DatabaseMetadata:
		mdKey, err := DecodeDatabaseMetadataKey(keyReader)
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: database metadata key")
		}
		rec.DatabaseMetadataKey = &mdKey
		return rec, nil

	case ObjectStoreData:
		userKey, err := DecodeIDBKey(keyReader)
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: object store data user key")
		}
		rec.UserKey = &userKey
		if value == nil {
			return rec, nil
		}
		osValue, err := DecodeObjectStoreDataValue(stream.NewReader(value))
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: object store data value")
		}
		rec.ObjectStoreValue = &osValue
		if !osValue.Wrapped {
			decoded, err := blink.Decode(osValue.Blob)
			if err != nil {
				return Record{}, errors.Wrap(err, "dfindexeddb/chromium: structured-clone payload")
			}
			rec.StructuredCloneVal = decoded
		}
		return rec, nil

	case BlobEntry:
		userKey, err := DecodeIDBKey(keyReader)
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: blob entry user key")
		}
		rec.UserKey = &userKey
		if value == nil {
			return rec, nil
		}
		entries, err := DecodeIndexedDBExternalObjects(stream.NewReader(value))
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: blob entry value")
		}
		rec.ExternalObjects = entries
		return rec, nil

	case ExistsEntry:
		userKey, err := DecodeIDBKey(keyReader)
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: exists entry user key")
		}
		rec.UserKey = &userKey
		return rec, nil

	case IndexData:
		userKey, err := DecodeIDBKey(keyReader)
		if err != nil {
			return Record{}, errors.Wrap(err, "dfindexeddb/chromium: index data user key")
		}
		rec.UserKey = &userKey

		if keyReader.NumRemaining() > 0 {
			seq, err := keyReader.DecodeVarint(0)
			if err != nil {
				return Record{}, errors.Wrap(err, "dfindexeddb/chromium: index data sequence number")
			}
			rec.SequenceNumber = &seq
		}
		if keyReader.NumRemaining() > 0 {
			primaryKey, err := DecodeIDBKey(keyReader)
			if err != nil {
				return Record{}, errors.Wrap(err, "dfindexeddb/chromium: index data primary key")
			}
			rec.PrimaryKey = &primaryKey
		}
		return rec, nil

	default:
		return Record{}, errors.Newf("dfindexeddb/chromium: invalid key prefix type for key %x", key)
	}
}
