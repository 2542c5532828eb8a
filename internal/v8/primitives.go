// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package v8

import "github.com/google/dfindexeddb-go/internal/stream"

// These wrap the raw wire primitives (no leading V8 tag byte) for use by
// HostObjectDelegate implementations decoding their own tag sets over the
// same cursor; spec.md §4.7: "Each Blink host-object reader uses the V8
// decoder's underlying cursor and may call V8 string/double readers."

// ReadUint32Varint reads an untagged base-128 varint bounded to 5 bytes.
func (d *Deserializer) ReadUint32Varint() (uint32, error) {
	v, err := d.R.DecodeVarint(5)
	return uint32(v), err
}

// ReadInt32Varint reads an untagged zigzag varint bounded to 5 bytes.
func (d *Deserializer) ReadInt32Varint() (int32, error) {
	v, err := d.R.DecodeZigzagVarint(5)
	return int32(v), err
}

// ReadRawDouble reads an untagged little-endian IEEE-754 double.
func (d *Deserializer) ReadRawDouble() (float64, error) {
	return d.R.DecodeDouble(stream.LittleEndian)
}

// ReadRawUTF8String reads an untagged (varint-count, UTF-8 bytes) string.
func (d *Deserializer) ReadRawUTF8String() (string, error) {
	return d.readUTF8String()
}

// ReadRawBytes reads exactly n untagged bytes.
func (d *Deserializer) ReadRawBytes(n int) ([]byte, error) {
	return d.R.ReadBytes(n)
}
