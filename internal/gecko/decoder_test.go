// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package gecko

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// pairBytes renders one little-endian (tag, data) pair as 8 bytes.
func pairBytes(tag StructuredDataType, data uint32) []byte {
	var b [8]byte
	pair := uint64(tag)<<32 | uint64(data)
	binary.LittleEndian.PutUint64(b[:], pair)
	return b[:]
}

// frameBytes wraps payload in a single uncompressed snappy frame, the way
// the production decoder's frame unwrapper expects.
func frameBytes(payload []byte) []byte {
	out := append([]byte{}, frameHeader...)
	blockSize := uint32(len(payload) + 4)
	out = append(out, 1, byte(blockSize), byte(blockSize>>8), byte(blockSize>>16))
	out = append(out, 0, 0, 0, 0) // masked checksum, discarded
	out = append(out, payload...)
	return out
}

func TestDecodeNull(t *testing.T) {
	payload := append(pairBytes(TagHeader, 0), pairBytes(TagNull, 0)...)
	v, err := Decode(frameBytes(payload))
	require.NoError(t, err)
	require.Equal(t, Null{}, v)
}

func TestDecodeInt32(t *testing.T) {
	payload := append(pairBytes(TagHeader, 0), pairBytes(TagInt32, 42)...)
	v, err := Decode(frameBytes(payload))
	require.NoError(t, err)
	require.Equal(t, int32(42), v)
}

func TestDecodeArrayOfOneInt(t *testing.T) {
	var payload []byte
	payload = append(payload, pairBytes(TagHeader, 0)...)
	payload = append(payload, pairBytes(TagArrayObject, 0)...)
	payload = append(payload, pairBytes(TagInt32, 0)...) // index placeholder (key)
	payload = append(payload, pairBytes(TagInt32, 1)...) // element value
	payload = append(payload, pairBytes(TagEndOfKeys, 0)...)

	v, err := Decode(frameBytes(payload))
	require.NoError(t, err)
	arr, ok := v.(*JSArray)
	require.True(t, ok)
	require.Equal(t, []any{int32(1)}, arr.Elements)
}

func TestDecodeSetOfTwoInts(t *testing.T) {
	var payload []byte
	payload = append(payload, pairBytes(TagHeader, 0)...)
	payload = append(payload, pairBytes(TagSetObject, 0)...)
	payload = append(payload, pairBytes(TagInt32, 1)...)
	payload = append(payload, pairBytes(TagInt32, 2)...)
	payload = append(payload, pairBytes(TagEndOfKeys, 0)...)

	v, err := Decode(frameBytes(payload))
	require.NoError(t, err)
	set, ok := v.(*JSSet)
	require.True(t, ok)
	require.Equal(t, []any{int32(1), int32(2)}, set.Elements)
}

func TestDecodeBackReference(t *testing.T) {
	var payload []byte
	payload = append(payload, pairBytes(TagHeader, 0)...)
	payload = append(payload, pairBytes(TagArrayObject, 0)...) // object 0: root array
	payload = append(payload, pairBytes(TagBackReferenceObject, 0)...)
	payload = append(payload, pairBytes(TagBackReferenceObject, 0)...)
	payload = append(payload, pairBytes(TagEndOfKeys, 0)...)

	v, err := Decode(frameBytes(payload))
	require.NoError(t, err)
	arr, ok := v.(*JSArray)
	require.True(t, ok)
	require.Same(t, arr, arr.Elements[0])
}
