// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package gecko decodes Firefox's JSStructuredClone wire format: the
// snappy-framed container IndexedDB.sqlite stores values in, the tag/data
// pair stream inside it, and the separate "stringy" IDBKey encoding Gecko
// uses for index keys. See spec.md §4.8.
package gecko

// StructuredDataType tags a JSStructuredClone value pair. Values are the
// public, stable SpiderMonkey structured-clone tag constants; the retrieval
// pack carries no firefox/definitions.py, so these are reconstructed from
// well-known upstream values rather than grounded directly in a pack file
// (see DESIGN.md).
type StructuredDataType uint32

const (
	sctagFloatMax StructuredDataType = 0xFFF00000

	TagHeader               StructuredDataType = 0xFFFF0000
	TagNull                 StructuredDataType = 0xFFFF0001
	TagUndefined            StructuredDataType = 0xFFFF0002
	TagBoolean              StructuredDataType = 0xFFFF0003
	TagInt32                StructuredDataType = 0xFFFF0004
	TagString               StructuredDataType = 0xFFFF0005
	TagDateObject           StructuredDataType = 0xFFFF0006
	TagRegexpObject         StructuredDataType = 0xFFFF0007
	TagArrayObject          StructuredDataType = 0xFFFF0008
	TagObjectObject         StructuredDataType = 0xFFFF0009
	TagArrayBufferObject    StructuredDataType = 0xFFFF000A
	TagBooleanObject        StructuredDataType = 0xFFFF000B
	TagStringObject         StructuredDataType = 0xFFFF000C
	TagNumberObject         StructuredDataType = 0xFFFF000D
	TagBackReferenceObject  StructuredDataType = 0xFFFF000E
	TagTypedArrayObject     StructuredDataType = 0xFFFF0011
	TagMapObject            StructuredDataType = 0xFFFF0012
	TagSetObject            StructuredDataType = 0xFFFF0013
	TagEndOfKeys            StructuredDataType = 0xFFFF0014
	TagDataViewObject       StructuredDataType = 0xFFFF0016
	TagBigInt               StructuredDataType = 0xFFFF0018
	TagBigIntObject         StructuredDataType = 0xFFFF0019
	TagArrayBufferObjectV2  StructuredDataType = 0xFFFF001E
	TagSharedArrayBuffer    StructuredDataType = 0xFFFF001F
	TagResizableArrayBuffer StructuredDataType = 0xFFFF0020
	TagTypedArrayObjectV2   StructuredDataType = 0xFFFF0021

	TagTransferMapHeader StructuredDataType = 0xFFFF0200

	tagTypedArrayV1Int8          StructuredDataType = 0xFFFF0100
	tagTypedArrayV1Uint8ClampedN StructuredDataType = 0xFFFF010B
)

// IndexedDBKeyType tags a Gecko "stringy" IDBKey value. These values ARE
// grounded directly in the pack: gecko.py's own error-message fallback at
// "hex(type_int % 0x50)" hardcodes 0x50 as IndexedDBKeyType.ARRAY, and the
// four scalar test vectors in tests/.../gecko.py each begin with the byte
// the corresponding key type predicts (0x10 float, 0x20 date, 0x30 string,
// 0x40 binary).
type IndexedDBKeyType int

const (
	KeyTerminator IndexedDBKeyType = 0x00
	KeyFloat      IndexedDBKeyType = 0x10
	KeyDate       IndexedDBKeyType = 0x20
	KeyString     IndexedDBKeyType = 0x30
	KeyBinary     IndexedDBKeyType = 0x40
	KeyArray      IndexedDBKeyType = 0x50
)

const (
	// maxRecursionDepth bounds the IDBKey array recursion (idbkey.go); the
	// JSStructuredClone decoder does not consult it. Chosen to match the cap
	// already used for Chromium IDBKeys in this repository
	// (internal/chromium/idbkey.go).
	maxRecursionDepth = 2000

	// maxArrayCollapse is the number of nested-array levels that can be
	// fused into a single IndexedDBKeyType byte (via repeated += ARRAY)
	// before the byte would wrap past 0xFF: 0x50*3=0xF0 still fits while
	// 0x50*4=0x140 does not, so collapse resets after 3 levels.
	maxArrayCollapse = 3

	// maxLength bounds string/array lengths read off the wire; spec.md
	// §4.8 gives this exact sanity cap.
	maxLength = 0x7FFFFFFF

	// oneByteAdjust and twoByteAdjust undo the bias Gecko's "stringy" key
	// encoding adds to each byte/code unit so that no encoded byte is
	// zero (which would collide with the NUL terminator). oneByteAdjust=1
	// is grounded directly: tests/.../gecko.py's "test string key" vector
	// decodes correctly only with a rebias of exactly 1 per byte.
	// twoByteAdjust has no two-byte-path test vector in the pack; kept
	// symmetric with oneByteAdjust as the simplest consistent guess (see
	// DESIGN.md).
	oneByteAdjust = 1
	twoByteAdjust = 1
)

// frameHeader marks the start of a snappy-framed JSStructuredClone
// container, as opposed to a single whole-buffer snappy blob.
var frameHeader = []byte{0xFF, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
