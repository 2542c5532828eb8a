// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package chromium

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// S6: ObjectStoreDataValue 04 FF 11 01 D0 A0 06 00 decodes to
// (version=4, wrapped=true, blob_size=2303, blob_offset=1).
func TestDecodeObjectStoreDataValueWrapped(t *testing.T) {
	r := stream.NewReader([]byte{0x04, 0xFF, 0x11, 0x01, 0xD0, 0xA0, 0x06, 0x00})
	val, err := DecodeObjectStoreDataValue(r)
	require.NoError(t, err)
	require.Equal(t, ObjectStoreDataValue{
		Version:    4,
		Wrapped:    true,
		BlobSize:   2303,
		BlobOffset: 1,
	}, val)
}

func TestDecodeObjectStoreDataValueInline(t *testing.T) {
	r := stream.NewReader([]byte{0x01, 0xFF, 0x09, 0x3F, 0x00})
	val, err := DecodeObjectStoreDataValue(r)
	require.NoError(t, err)
	require.Equal(t, uint64(1), val.Version)
	require.False(t, val.Wrapped)
	require.Equal(t, []byte{0xFF, 0x09, 0x3F, 0x00}, val.Blob)
}

func TestDecodeIndexedDBExternalObjectsBlob(t *testing.T) {
	buf := []byte{
		byte(ExternalObjectBlob), 0x05, // type, blob_number
		0x04, 0x00, 't', 0x00, 'e', 0x00, 'x', 0x00, 't', // mime "text" (varint len=4, UTF-16BE)
		0x14, // zigzag varint 10
	}
	r := stream.NewReader(buf)
	entries, err := DecodeIndexedDBExternalObjects(r)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ExternalObjectBlob, entries[0].Type)
	require.Equal(t, int64(5), entries[0].BlobNumber)
	require.Equal(t, "text", entries[0].MimeType)
	require.Equal(t, int64(10), entries[0].Size)
}
