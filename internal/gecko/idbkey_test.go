// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package gecko

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/stream"
)

func TestDecodeIDBKeyString(t *testing.T) {
	buf := []byte{
		0x30, 0x75, 0x66, 0x74, 0x75, 0x21, 0x74, 0x75,
		0x73, 0x6A, 0x6F, 0x68, 0x21, 0x6C, 0x66, 0x7A,
	}
	key, err := DecodeIDBKey(stream.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, KeyString, key.Type)
	require.Equal(t, "test string key", key.Value)
}

func TestDecodeIDBKeyBinary(t *testing.T) {
	buf := []byte{0x40, 0x01, 0x01, 0x01}
	key, err := DecodeIDBKey(stream.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, KeyBinary, key.Type)
	require.Equal(t, []byte{0x00, 0x00, 0x00}, key.Value)
}

func TestDecodeIDBKeyDate(t *testing.T) {
	buf := []byte{0x20, 0xC2, 0x78, 0x64, 0x7E, 0xE1, 0x3F, 0x80}
	key, err := DecodeIDBKey(stream.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, KeyDate, key.Type)
	want := time.Date(2023, 2, 12, 23, 20, 30, 456000000, time.UTC)
	require.WithinDuration(t, want, key.Value.(time.Time), time.Millisecond)
}

func TestDecodeIDBKeyFloat(t *testing.T) {
	buf := []byte{0x10, 0x3F, 0xF6, 0xE1, 0x47, 0xAE, 0x14, 0x7A, 0xE1}
	key, err := DecodeIDBKey(stream.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, KeyFloat, key.Type)
	require.InDelta(t, -3.14, key.Value, 1e-9)
}
