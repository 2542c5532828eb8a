// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package webkit decodes WebKit's SerializedScriptValue wire format, the
// structured-clone encoding Safari uses for IndexedDB record values and
// index/object-store keys. See spec.md §4.9.
package webkit

// CurrentVersion is the only SerializedScriptValue version this decoder
// understands.
const CurrentVersion = 15

// Sentinel uint32 values that appear in place of a SerializationTag in
// Array/Object/Map/Set framing.
const (
	TerminatorTag         uint32 = 0xFFFFFFFF
	StringPoolTag         uint32 = 0xFFFFFFFE
	NonIndexPropertiesTag uint32 = 0xFFFFFFFD
	ImageDataPoolTag      uint32 = 0xFFFFFFFE
	StringDataIs8BitFlag  uint32 = 0x80000000
)

// SIDBKeyVersion is the only supported IDBKeyData version byte.
const SIDBKeyVersion = 0x00

// SIDBKeyType is the leading type byte of a WebKit IDBKeyData.
type SIDBKeyType byte

const (
	SIDBKeyTypeMin    SIDBKeyType = 0x00
	SIDBKeyTypeNumber SIDBKeyType = 0x20
	SIDBKeyTypeDate   SIDBKeyType = 0x40
	SIDBKeyTypeString SIDBKeyType = 0x60
	SIDBKeyTypeBinary SIDBKeyType = 0x80
	SIDBKeyTypeArray  SIDBKeyType = 0xA0
	SIDBKeyTypeMax    SIDBKeyType = 0xFF
)

// SerializationTag is the single-byte tag that precedes every encoded value.
type SerializationTag byte

const (
	TagArray                      SerializationTag = 1
	TagObject                     SerializationTag = 2
	TagUndefined                  SerializationTag = 3
	TagNull                       SerializationTag = 4
	TagInt                        SerializationTag = 5
	TagZero                       SerializationTag = 6
	TagOne                        SerializationTag = 7
	TagFalse                      SerializationTag = 8
	TagTrue                       SerializationTag = 9
	TagDouble                     SerializationTag = 10
	TagDate                       SerializationTag = 11
	TagFile                       SerializationTag = 12
	TagFileList                   SerializationTag = 13
	TagImageData                  SerializationTag = 14
	TagBlob                       SerializationTag = 15
	TagString                     SerializationTag = 16
	TagEmptyString                SerializationTag = 17
	TagRegExp                     SerializationTag = 18
	TagObjectReference            SerializationTag = 19
	TagMessagePortReference       SerializationTag = 20
	TagArrayBuffer                SerializationTag = 21
	TagArrayBufferView            SerializationTag = 22
	TagArrayBufferTransfer        SerializationTag = 23
	TagTrueObject                 SerializationTag = 24
	TagFalseObject                SerializationTag = 25
	TagStringObject               SerializationTag = 26
	TagEmptyStringObject          SerializationTag = 27
	TagNumberObject               SerializationTag = 28
	TagSetObject                  SerializationTag = 29
	TagMapObject                  SerializationTag = 30
	TagNonMapProperties           SerializationTag = 31
	TagNonSetProperties           SerializationTag = 32
	TagCryptoKey                  SerializationTag = 33
	TagSharedArrayBuffer          SerializationTag = 34
	TagWasmModule                 SerializationTag = 35
	TagDOMPointReadOnly           SerializationTag = 36
	TagDOMPoint                   SerializationTag = 37
	TagDOMRectReadOnly            SerializationTag = 38
	TagDOMRect                    SerializationTag = 39
	TagDOMMatrixReadOnly          SerializationTag = 40
	TagDOMMatrix                  SerializationTag = 41
	TagDOMQuad                    SerializationTag = 42
	TagImageBitmapTransfer        SerializationTag = 43
	TagRTCCertificate             SerializationTag = 44
	TagImageBitmap                SerializationTag = 45
	TagOffscreenCanvasTransfer    SerializationTag = 46
	TagBigInt                     SerializationTag = 47
	TagBigIntObject               SerializationTag = 48
	TagWasmMemory                 SerializationTag = 49
	TagRTCDataChannelTransfer     SerializationTag = 50
	TagDOMException               SerializationTag = 51
	TagWebCodecsEncodedVideoChunk SerializationTag = 52
	TagWebCodecsVideoFrame        SerializationTag = 53
	TagResizableArrayBuffer       SerializationTag = 54
	TagErrorInstance              SerializationTag = 55
	TagInMemoryOffscreenCanvas    SerializationTag = 56
	TagInMemoryMessagePort        SerializationTag = 57
	TagWebCodecsEncodedAudioChunk SerializationTag = 58
	TagWebCodecsAudioData         SerializationTag = 59
	TagMediaStreamTrack           SerializationTag = 60
	TagMediaSourceHandleTransfer  SerializationTag = 61
	TagError                      SerializationTag = 255
)

// ArrayBufferViewSubtag identifies the typed-array kind wrapping an
// ArrayBuffer or ObjectReference.
type ArrayBufferViewSubtag byte

const (
	SubtagDataView          ArrayBufferViewSubtag = 0
	SubtagInt8Array         ArrayBufferViewSubtag = 1
	SubtagUint8Array        ArrayBufferViewSubtag = 2
	SubtagUint8ClampedArray ArrayBufferViewSubtag = 3
	SubtagInt16Array        ArrayBufferViewSubtag = 4
	SubtagUint16Array       ArrayBufferViewSubtag = 5
	SubtagInt32Array        ArrayBufferViewSubtag = 6
	SubtagUint32Array       ArrayBufferViewSubtag = 7
	SubtagFloat32Array      ArrayBufferViewSubtag = 8
	SubtagFloat64Array      ArrayBufferViewSubtag = 9
	SubtagBigInt64Array     ArrayBufferViewSubtag = 10
	SubtagBigUint64Array    ArrayBufferViewSubtag = 11
)

// stringPoolLimit8/16 are the constant-pool size thresholds WebKit uses to
// pick the width of a StringPoolTag backreference index.
const (
	stringPoolLimit8  = 0xff
	stringPoolLimit16 = 0xffff
)
