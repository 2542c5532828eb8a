// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/stream"
)

func TestDecodeGlobalMetadataKeySchemaVersion(t *testing.T) {
	r := stream.NewReader([]byte{0x00})
	key, err := DecodeGlobalMetadataKey(r)
	require.NoError(t, err)
	require.Equal(t, SchemaVersion, key.Type)
}

func TestDecodeGlobalMetadataKeyDatabaseFreeList(t *testing.T) {
	r := stream.NewReader([]byte{100, 0x2A})
	key, err := DecodeGlobalMetadataKey(r)
	require.NoError(t, err)
	require.Equal(t, DatabaseFreeList, key.Type)
	require.Equal(t, int64(42), key.DatabaseID)
}

func TestDecodeGlobalMetadataValueBlobJournal(t *testing.T) {
	r := stream.NewReader([]byte{0x01, 0x02, 0x03, 0x04})
	val, err := DecodeGlobalMetadataValue(RecoveryBlobJournal, r)
	require.NoError(t, err)
	entries, ok := val.([]BlobJournalEntry)
	require.True(t, ok)
	require.Equal(t, []BlobJournalEntry{{DatabaseID: 1, BlobNumber: 2}, {DatabaseID: 3, BlobNumber: 4}}, entries)
}

func TestDecodeDatabaseMetadataKeyObjectStoreMetaData(t *testing.T) {
	r := stream.NewReader([]byte{byte(ObjectStoreMetaData), 0x07, 0x03})
	key, err := DecodeDatabaseMetadataKey(r)
	require.NoError(t, err)
	require.Equal(t, ObjectStoreMetaData, key.Type)
	require.Equal(t, int64(7), key.ObjectStoreID)
	require.Equal(t, byte(3), key.MetaDataByte)
}

func TestDecodeDatabaseMetadataKeyIndexMetaData(t *testing.T) {
	r := stream.NewReader([]byte{byte(IndexMetaData), 0x07, 0x09, 0x01})
	key, err := DecodeDatabaseMetadataKey(r)
	require.NoError(t, err)
	require.Equal(t, IndexMetaData, key.Type)
	require.Equal(t, int64(7), key.ObjectStoreID)
	require.Equal(t, int64(9), key.IndexID)
	require.Equal(t, byte(1), key.MetaDataByte)
}
