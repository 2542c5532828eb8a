// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package v8

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/stream"
)

func decodeValue(t *testing.T, buf []byte) any {
	t.Helper()
	d := NewDeserializer(stream.NewReader(buf), nil)
	require.NoError(t, d.ReadHeader())
	v, err := d.ReadValue()
	require.NoError(t, err)
	return v
}

func TestReadHeaderRejectsUnsupportedVersion(t *testing.T) {
	d := NewDeserializer(stream.NewReader([]byte{0xFF, 16, byte(TagUndefined)}), nil)
	require.Error(t, d.ReadHeader())
}

func TestReadUndefinedNullBool(t *testing.T) {
	require.Equal(t, Undefined{}, decodeValue(t, []byte{0xFF, 15, byte(TagUndefined)}))
	require.Equal(t, Null{}, decodeValue(t, []byte{0xFF, 15, byte(TagNull)}))
	require.Equal(t, true, decodeValue(t, []byte{0xFF, 15, byte(TagTrue)}))
	require.Equal(t, false, decodeValue(t, []byte{0xFF, 15, byte(TagFalse)}))
}

func TestReadUint32(t *testing.T) {
	v := decodeValue(t, []byte{0xFF, 15, byte(TagUint32), 0x2A})
	require.Equal(t, uint32(42), v)
}

func TestReadUTF8String(t *testing.T) {
	v := decodeValue(t, append([]byte{0xFF, 15, byte(TagUTF8String), 5}, []byte("hello")...))
	require.Equal(t, "hello", v)
}

func TestReadJSObject(t *testing.T) {
	// { "k": "v" }: a plain object with one one-byte-string property.
	buf := []byte{0xFF, 15, byte(TagBeginJSObject)}
	buf = append(buf, byte(TagOneByteString), 1, 'k')
	buf = append(buf, byte(TagOneByteString), 1, 'v')
	buf = append(buf, byte(TagEndJSObject), 1)
	v := decodeValue(t, buf)
	obj, ok := v.(*JSObject)
	require.True(t, ok)
	require.Equal(t, []any{"k"}, obj.Keys)
	require.Equal(t, []any{"v"}, obj.Values)
}

func TestReadDenseJSArray(t *testing.T) {
	buf := []byte{0xFF, 15, byte(TagBeginDenseJSArray), 2}
	buf = append(buf, byte(TagUint32), 1)
	buf = append(buf, byte(TagUint32), 2)
	buf = append(buf, byte(TagEndDenseJSArray), 0, 2)
	v := decodeValue(t, buf)
	arr, ok := v.(*JSArray)
	require.True(t, ok)
	require.Equal(t, []any{uint32(1), uint32(2)}, arr.Elements)
}

func TestReadDate(t *testing.T) {
	buf := []byte{0xFF, 15, byte(TagDate), 0, 0, 0, 0, 0, 0, 0x28, 0x40} // 12.0 ms
	v := decodeValue(t, buf)
	_, ok := v.(Date)
	require.True(t, ok)
}

func TestReadArrayBufferAndView(t *testing.T) {
	buf := []byte{0xFF, 15, byte(TagArrayBuffer), 4, 1, 2, 3, 4}
	buf = append(buf, byte(TagArrayBufferView), byte(ViewUint8Array), 0, 4, 0)
	v := decodeValue(t, buf)
	view, ok := v.(ArrayBufferView)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3, 4}, view.Buffer.Bytes)
	require.Equal(t, ViewUint8Array, view.Tag)
}

type stubDelegate struct{ called bool }

func (s *stubDelegate) ReadHostObject(d *Deserializer) (any, error) {
	s.called = true
	b, err := d.ReadRawBytes(3)
	return string(b), err
}

func TestHostObjectDelegation(t *testing.T) {
	buf := []byte{0xFF, 15, byte(TagHostObject), 'a', 'b', 'c'}
	delegate := &stubDelegate{}
	d := NewDeserializer(stream.NewReader(buf), delegate)
	require.NoError(t, d.ReadHeader())
	v, err := d.ReadValue()
	require.NoError(t, err)
	require.True(t, delegate.called)
	require.Equal(t, "abc", v)
}
