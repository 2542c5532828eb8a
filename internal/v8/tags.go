// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package v8 implements the inner layer of Chromium's two-envelope
// structured-clone format: V8's ValueDeserializer wire format. See
// spec.md §4.7.
package v8

// Tag is a V8 serialization tag byte.
type Tag byte

const (
	TagVersion              Tag = 0xFF
	TagPadding               Tag = 0
	TagVerifyObjectCount     Tag = '?'
	TagTheHole               Tag = '-'
	TagUndefined             Tag = '_'
	TagNull                  Tag = '0'
	TagTrue                  Tag = 'T'
	TagFalse                 Tag = 'F'
	TagInt32                 Tag = 'I'
	TagUint32                Tag = 'U'
	TagDouble                Tag = 'N'
	TagBigInt                Tag = 'Z'
	TagUTF8String            Tag = 'S'
	TagOneByteString         Tag = '"'
	TagTwoByteString         Tag = 'c'
	TagObjectReference       Tag = '^'
	TagBeginJSObject         Tag = 'o'
	TagEndJSObject           Tag = '{'
	TagBeginSparseJSArray    Tag = 'a'
	TagEndSparseJSArray      Tag = '@'
	TagBeginDenseJSArray     Tag = 'A'
	TagEndDenseJSArray       Tag = '$'
	TagDate                  Tag = 'D'
	TagTrueObject            Tag = 'y'
	TagFalseObject           Tag = 'x'
	TagNumberObject          Tag = 'n'
	TagBigIntObject          Tag = 'z'
	TagStringObject          Tag = 's'
	TagRegExp                Tag = 'R'
	TagBeginJSMap            Tag = ';'
	TagEndJSMap              Tag = ':'
	TagBeginJSSet            Tag = '\''
	TagEndJSSet              Tag = ','
	TagArrayBuffer           Tag = 'B'
	TagResizableArrayBuffer  Tag = '~'
	TagArrayBufferTransfer   Tag = 't'
	TagArrayBufferView       Tag = 'V'
	TagSharedArrayBuffer     Tag = 'u'
	TagSharedObject          Tag = 'p'
	TagWasmModuleTransfer    Tag = 'w'
	TagHostObject            Tag = '\\'
	TagWasmMemoryTransfer    Tag = 'm'
	TagError                 Tag = 'r'
)

// ArrayBufferViewTag identifies the element kind of a typed-array or
// DataView JSArrayBufferView.
type ArrayBufferViewTag byte

const (
	ViewInt8Array         ArrayBufferViewTag = 'b'
	ViewUint8Array        ArrayBufferViewTag = 'B'
	ViewUint8ClampedArray ArrayBufferViewTag = 'C'
	ViewInt16Array        ArrayBufferViewTag = 'w'
	ViewUint16Array       ArrayBufferViewTag = 'W'
	ViewInt32Array        ArrayBufferViewTag = 'd'
	ViewUint32Array       ArrayBufferViewTag = 'D'
	ViewFloat32Array      ArrayBufferViewTag = 'f'
	ViewFloat64Array      ArrayBufferViewTag = 'F'
	ViewBigInt64Array     ArrayBufferViewTag = 'q'
	ViewBigUint64Array    ArrayBufferViewTag = 'Q'
	ViewDataView          ArrayBufferViewTag = '?'
)
