// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package gecko

import "time"

// Undefined is the parsed form of Javascript's undefined.
type Undefined struct{}

// Null is the parsed form of Javascript's null.
type Null struct{}

// JSObject is a parsed plain Javascript object, insertion-ordered.
type JSObject struct {
	Keys   []any
	Values []any
}

// Set appends a property, preserving insertion order.
func (o *JSObject) Set(key, value any) {
	o.Keys = append(o.Keys, key)
	o.Values = append(o.Values, value)
}

// JSArray is a parsed Javascript array.
type JSArray struct {
	Elements []any
}

// JSMap is a parsed Javascript Map, insertion-ordered.
type JSMap struct {
	Keys   []any
	Values []any
}

// JSSet is a parsed Javascript Set, insertion-ordered.
type JSSet struct {
	Elements []any
}

// RegExp is a parsed Javascript regular expression: Gecko stores the
// pattern as a following STRING pair and the flags inline in the tag pair's
// data field, rendered here as a decimal string to match the flags the
// upstream parser itself surfaces.
type RegExp struct {
	Pattern string
	Flags   string
}

// Date is a parsed Javascript Date, stored as the UTC instant the
// milliseconds-since-epoch payload denotes.
type Date time.Time

// BigInt is a parsed Javascript BigInt: little-endian magnitude words plus
// sign, as Gecko encodes them (8-byte words, arbitrary count).
type BigInt struct {
	Magnitude []byte // little-endian byte magnitude
	Negative  bool
}

// ArrayBuffer is a parsed Javascript ArrayBuffer.
type ArrayBuffer struct {
	Bytes     []byte
	Resizable bool
	MaxBytes  uint64 // set only when Resizable
}

// TypedArray wraps a preceding ArrayBuffer with element-type metadata.
type TypedArray struct {
	Buffer ArrayBuffer
	Kind   uint32
	Offset uint64
	Length uint64
}

// Blob is a Gecko out-of-line Blob reference stored alongside the value
// record.
type Blob struct {
	Index uint32
	Size  uint64
	Type  string
}

// File is a Gecko out-of-line File reference.
type File struct {
	Index        uint32
	Size         uint64
	Type         string
	LastModified int64
	Name         string
}

// FileList is a parsed Javascript FileList.
type FileList struct {
	Files []File
}

// MutableFile is a parsed Gecko IDBMutableFile reference.
type MutableFile struct {
	Name string
	Type string
}

// Directory is a parsed Gecko Directory (File System Access) reference.
type Directory struct {
	Path string
}

// URLSearchParams is a parsed Javascript URLSearchParams.
type URLSearchParams struct {
	Params []KeyValue
}

// KeyValue is a single name/value pair, used by URLSearchParams.
type KeyValue struct {
	Key, Value string
}

// WasmModule is a parsed Gecko WebAssembly.Module placeholder: the two
// bookkeeping fields Gecko itself stores inline, not the bytecode (which
// lives in a separate structured-clone-external blob this decoder does not
// reconstruct).
type WasmModule struct {
	Unused1, Unused2 uint32
}
