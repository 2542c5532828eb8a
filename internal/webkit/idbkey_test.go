// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package webkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/stream"
)

func TestDecodeIDBKeyDataDate(t *testing.T) {
	data := mustHex(t, "004000803FE17E647842")
	key, err := DecodeIDBKeyData(stream.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, SIDBKeyTypeDate, key.KeyType)
	want := time.Date(2023, 2, 12, 23, 20, 30, 456000000, time.UTC)
	require.WithinDuration(t, want, time.Time(key.Data.(Date)), time.Millisecond)
}

func TestDecodeIDBKeyDataNumber(t *testing.T) {
	data := mustHex(t, "00201F85EB51B81E09C0")
	key, err := DecodeIDBKeyData(stream.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, SIDBKeyTypeNumber, key.KeyType)
	require.InDelta(t, -3.14, key.Data, 1e-9)
}

func TestDecodeIDBKeyDataString(t *testing.T) {
	data := mustHex(t, "00600F0000007400650073007400200073007400720069006E00670020006B0065007900")
	key, err := DecodeIDBKeyData(stream.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, SIDBKeyTypeString, key.KeyType)
	require.Equal(t, "test string key", key.Data)
}

func TestDecodeIDBKeyDataBinary(t *testing.T) {
	data := mustHex(t, "00800300000000000000000000")
	key, err := DecodeIDBKeyData(stream.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, SIDBKeyTypeBinary, key.KeyType)
	require.Equal(t, []byte{0x00, 0x00, 0x00}, key.Data)
}

func TestDecodeIDBKeyDataArray(t *testing.T) {
	data := mustHex(t, "00A0030000000000000020000000000000F03F200000000000000040200000000000000840")
	key, err := DecodeIDBKeyData(stream.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, SIDBKeyTypeArray, key.KeyType)
	require.Equal(t, []any{1.0, 2.0, 3.0}, key.Data)
}
