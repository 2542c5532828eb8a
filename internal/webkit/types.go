// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package webkit

import "time"

// Undefined is the parsed form of Javascript's undefined.
type Undefined struct{}

// Null is the parsed form of Javascript's null.
type Null struct{}

// JSArray is a parsed Javascript array: dense indexed elements plus any
// non-index properties WebKit appends after the TerminatorTag.
type JSArray struct {
	Elements   []any
	Properties map[string]any
}

// JSObject is a parsed plain Javascript object, insertion-ordered.
type JSObject struct {
	Keys   []string
	Values []any
}

// Set appends a property, preserving insertion order.
func (o *JSObject) Set(key string, value any) {
	o.Keys = append(o.Keys, key)
	o.Values = append(o.Values, value)
}

// JSMap is a parsed Javascript Map, insertion-ordered. WebKit allows a Map to
// carry its own non-index properties after the NON_MAP_PROPERTIES tag;
// those are folded into Keys/Values alongside the map entries, matching the
// upstream parser's own behavior of merging both into one dict.
type JSMap struct {
	Keys   []any
	Values []any
}

// JSSet is a parsed Javascript Set, insertion-ordered.
type JSSet struct {
	Elements   []any
	Properties map[string]any
}

// RegExp is a parsed Javascript regular expression.
type RegExp struct {
	Pattern string
	Flags   string
}

// Date is a parsed Javascript Date, stored as the UTC instant the
// milliseconds-since-epoch payload denotes.
type Date time.Time

// FileData is a parsed Javascript File.
type FileData struct {
	Path         string
	URL          string
	Type         string
	Name         string
	LastModified float64
}

// FileList is a parsed Javascript FileList.
type FileList struct {
	Files []FileData
}

// ImageData is a parsed Javascript ImageData.
type ImageData struct {
	Width      uint32
	Height     uint32
	Data       []byte
	ColorSpace *uint8 // nil for versions <= 7, which never wrote one
}

// Blob is a parsed Javascript Blob.
type Blob struct {
	URL         string
	Type        string
	Size        uint64
	MemoryCost  *uint64 // only populated for version >= 11
}

// BigInt is a parsed Javascript BigInt: WebKit encodes the magnitude as a
// run of little-endian 8-byte words plus a sign flag, and this decoder
// keeps the words' bytes as read alongside the sign flag.
type BigInt struct {
	Value    []byte // little-endian magnitude bytes
	Negative bool
}

// ArrayBuffer is a parsed Javascript ArrayBuffer.
type ArrayBuffer struct {
	Bytes []byte
}

// ResizableArrayBuffer is a parsed resizable Javascript ArrayBuffer.
type ResizableArrayBuffer struct {
	Bytes     []byte
	MaxLength uint64
}

// ArrayBufferView is a parsed typed-array view over a preceding ArrayBuffer
// (or a back-referenced one).
type ArrayBufferView struct {
	Subtag ArrayBufferViewSubtag
	Buffer any // ArrayBuffer bytes, or an ObjectReference's resolved value
	Offset uint64
	Length uint64
}

// CryptoKey is a parsed Web Crypto key: the wrapped key material is an
// Apple binary/XML property list, decoded into a generic tree.
type CryptoKey struct {
	Plist any
}

// IDBKeyData is a decoded WebKit IndexedDB key.
type IDBKeyData struct {
	Offset  int
	KeyType SIDBKeyType
	Data    any
}
