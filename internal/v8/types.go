// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package v8

import "time"

// Undefined is the parsed form of Javascript's undefined.
type Undefined struct{}

// Null is the parsed form of Javascript's null.
type Null struct{}

// TheHole marks a skipped slot in a dense array; it never escapes
// readDenseJSArray as an element value.
type TheHole struct{}

// JSObject is a parsed plain Javascript object: insertion-ordered
// string-keyed properties.
type JSObject struct {
	Keys   []any
	Values []any
}

// Set stores a property, preserving first-insertion order for repeat keys
// is not attempted (V8 objects are not usually re-keyed during decode).
func (o *JSObject) Set(key, value any) {
	o.Keys = append(o.Keys, key)
	o.Values = append(o.Values, value)
}

// JSArray is a parsed Javascript array: a dense or sparse element list plus
// any extra string-keyed properties set on the array object itself.
type JSArray struct {
	Elements   []any
	Properties JSObject
}

// RegExp is a parsed Javascript regular expression.
type RegExp struct {
	Pattern string
	Flags   uint32
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

// ArrayBuffer is a parsed Javascript ArrayBuffer.
type ArrayBuffer struct {
	Bytes      []byte
	Shared     bool
	Resizable  bool
	MaxLength  uint32 // set only when Resizable
}

// ArrayBufferView wraps a preceding ArrayBuffer with a typed view.
type ArrayBufferView struct {
	Buffer ArrayBuffer
	Tag    ArrayBufferViewTag
	Offset uint32
	Length uint32
	Flags  uint32
}

// Date is a parsed Javascript Date, stored as the UTC instant the
// milliseconds-since-epoch payload denotes.
type Date time.Time

// BigInt is a parsed Javascript BigInt: an arbitrary-width integer plus its
// sign.
type BigInt struct {
	Magnitude int64
	Negative  bool
}

// PrimitiveWrapper is a parsed Boolean/Number/BigInt/String wrapper object
// (`new Boolean(true)` and friends).
type PrimitiveWrapper struct {
	Tag   Tag
	Value any
}
