// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/blink"
)

func TestDecodeRecordGlobalMetadataSchemaVersion(t *testing.T) {
	key := []byte{0x00, 0x00, 0x00, 0x00, byte(SchemaVersion)}
	value := []byte{0x05}

	rec, err := DecodeRecord(key, value)
	require.NoError(t, err)
	require.Equal(t, GlobalMetadata, rec.Type)
	require.NotNil(t, rec.GlobalMetadataKey)
	require.Equal(t, SchemaVersion, rec.GlobalMetadataKey.Type)
	require.Equal(t, uint64(5), rec.GlobalMetadataValue)
}

func TestDecodeRecordObjectStoreData(t *testing.T) {
	// control=0x00 (all three IDs are 1 byte), database_id=2,
	// object_store_id=3, index_id=1 (ObjectStoreData).
	key := []byte{0x00, 0x02, 0x03, 0x01}
	// IDBKey NUMBER tag (3) followed by the f64 LE encoding of 1.0.
	key = append(key, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F)

	blobBytes := []byte{0xFF, 0x09, 0x3F, 0x00, 0x62, 0x01, 0x61, 0x01, 0x62, 0x00}
	value := append([]byte{0x01}, blobBytes...) // version varint 1, then inline blob

	rec, err := DecodeRecord(key, value)
	require.NoError(t, err)
	require.Equal(t, ObjectStoreData, rec.Type)
	require.NotNil(t, rec.UserKey)
	require.Equal(t, IDBKeyNumber, rec.UserKey.Type)
	require.InDelta(t, 1.0, rec.UserKey.Number, 1e-9)
	require.NotNil(t, rec.ObjectStoreValue)
	require.False(t, rec.ObjectStoreValue.Wrapped)
	require.Equal(t, blink.Blob{UUID: "a", Type: "b", Size: 0}, rec.StructuredCloneVal)
}

func TestDecodeRecordExistsEntry(t *testing.T) {
	key := []byte{0x00, 0x02, 0x03, 0x02} // index_id=2 -> ExistsEntry
	key = append(key, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F)

	rec, err := DecodeRecord(key, nil)
	require.NoError(t, err)
	require.Equal(t, ExistsEntry, rec.Type)
	require.NotNil(t, rec.UserKey)
	require.Equal(t, IDBKeyNumber, rec.UserKey.Type)
}

func TestDecodeRecordIndexData(t *testing.T) {
	key := []byte{0x00, 0x02, 0x03, 30} // index_id=30 -> IndexData
	key = append(key, 0x05)             // IDBKeyMin tag
	key = append(key, 0x07)             // sequence_number varint = 7
	key = append(key, 0x05)             // primary key: IDBKeyMin tag

	rec, err := DecodeRecord(key, nil)
	require.NoError(t, err)
	require.Equal(t, IndexData, rec.Type)
	require.NotNil(t, rec.UserKey)
	require.Equal(t, IDBKeyMin, rec.UserKey.Type)
	require.NotNil(t, rec.SequenceNumber)
	require.Equal(t, uint64(7), *rec.SequenceNumber)
	require.NotNil(t, rec.PrimaryKey)
	require.Equal(t, IDBKeyMin, rec.PrimaryKey.Type)
}

// TestDecodeRecordObjectStoreDataUserKeyStruct compares the fully decoded
// IDBKey with pretty.Diff rather than require.Equal, so a future field
// added to IDBKey shows up as a labelled field diff instead of an opaque
// struct dump.
func TestDecodeRecordObjectStoreDataUserKeyStruct(t *testing.T) {
	key := []byte{0x00, 0x02, 0x03, 0x01}
	key = append(key, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF0, 0x3F)
	value := append([]byte{0x01}, 0xFF, 0x09, 0x3F, 0x00, 0x62, 0x01, 0x61, 0x01, 0x62, 0x00)

	rec, err := DecodeRecord(key, value)
	require.NoError(t, err)
	require.NotNil(t, rec.UserKey)

	want := IDBKey{Type: IDBKeyNumber, Number: 1.0}
	if diff := pretty.Diff(want, *rec.UserKey); len(diff) > 0 {
		t.Errorf("decoded user key mismatch:\n%s", pretty.Sprint(diff))
	}
}
