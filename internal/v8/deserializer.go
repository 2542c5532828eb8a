// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package v8

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// LatestVersion is the highest V8 wire format version this decoder
// understands.
const LatestVersion = 15

// HostObjectDelegate decodes the payload following a HOST_OBJECT tag. Blink
// implements this to read its own tag set from the deserializer's reader.
type HostObjectDelegate interface {
	ReadHostObject(d *Deserializer) (any, error)
}

// Deserializer reads a V8 ValueDeserializer wire-format stream.
type Deserializer struct {
	R        *stream.Reader
	Delegate HostObjectDelegate
	Version  uint32
	objects  []any
}

// NewDeserializer returns a Deserializer reading from r. delegate may be nil
// if the stream is known not to contain host objects.
func NewDeserializer(r *stream.Reader, delegate HostObjectDelegate) *Deserializer {
	return &Deserializer{R: r, Delegate: delegate}
}

// ReadHeader reads the 0xFF VERSION tag and a version varint, failing if the
// version exceeds LatestVersion.
func (d *Deserializer) ReadHeader() error {
	tag, err := d.readTag()
	if err != nil {
		return err
	}
	if tag != TagVersion {
		return errors.Newf("dfindexeddb/v8: expected version tag, got %q", rune(tag))
	}
	v, err := d.R.DecodeVarint(5)
	if err != nil {
		return errors.Wrap(err, "dfindexeddb/v8: version varint")
	}
	if v > LatestVersion {
		return errors.Newf("dfindexeddb/v8: unsupported version %d", v)
	}
	d.Version = uint32(v)
	return nil
}

// ReadValue reads the root value following ReadHeader.
func (d *Deserializer) ReadValue() (any, error) {
	return d.readObjectWrapper()
}

func (d *Deserializer) nextID() int {
	id := len(d.objects)
	d.objects = append(d.objects, nil)
	return id
}

func (d *Deserializer) setObject(id int, v any) { d.objects[id] = v }

func (d *Deserializer) peekTag() (Tag, bool) {
	b, err := d.R.PeekBytes(1)
	if err != nil {
		return 0, false
	}
	return Tag(b[0]), true
}

func (d *Deserializer) readTag() (Tag, error) {
	for {
		b, err := d.R.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "dfindexeddb/v8: tag")
		}
		if Tag(b) != TagPadding {
			return Tag(b), nil
		}
	}
}

func (d *Deserializer) consumeTag(expect Tag) error {
	tag, err := d.readTag()
	if err != nil {
		return err
	}
	if tag != expect {
		return errors.Newf("dfindexeddb/v8: expected tag %q, got %q", rune(expect), rune(tag))
	}
	return nil
}

func (d *Deserializer) readObjectWrapper() (any, error) {
	result, err := d.readObject()
	if err != nil {
		return nil, err
	}
	if tag, ok := d.peekTag(); ok && tag == TagArrayBufferView {
		if err := d.consumeTag(tag); err != nil {
			return nil, err
		}
		buf, ok := result.(ArrayBuffer)
		if !ok {
			return nil, errors.New("dfindexeddb/v8: ARRAY_BUFFER_VIEW with no preceding buffer")
		}
		view, err := d.readArrayBufferView(buf)
		if err != nil {
			return nil, err
		}
		id := d.nextID()
		d.setObject(id, view)
		return view, nil
	}
	return result, nil
}

func (d *Deserializer) readObject() (any, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagVerifyObjectCount:
		if _, err := d.R.DecodeVarint(5); err != nil {
			return nil, err
		}
		return d.readObject()
	case TagUndefined:
		return Undefined{}, nil
	case TagNull:
		return Null{}, nil
	case TagTrue:
		return true, nil
	case TagFalse:
		return false, nil
	case TagInt32:
		v, err := d.R.DecodeZigzagVarint(5)
		return int32(v), err
	case TagUint32:
		v, err := d.R.DecodeVarint(5)
		return uint32(v), err
	case TagDouble:
		return d.R.DecodeDouble(stream.LittleEndian)
	case TagBigInt:
		return d.readBigInt()
	case TagUTF8String:
		return d.readUTF8String()
	case TagOneByteString:
		return d.readOneByteString()
	case TagTwoByteString:
		return d.readTwoByteString()
	case TagObjectReference:
		id, err := d.R.DecodeVarint(5)
		if err != nil {
			return nil, err
		}
		if int(id) >= len(d.objects) {
			return nil, errors.Newf("dfindexeddb/v8: object reference %d out of range", id)
		}
		return d.objects[id], nil
	case TagBeginJSObject:
		return d.readJSObject()
	case TagBeginSparseJSArray:
		return d.readSparseJSArray()
	case TagBeginDenseJSArray:
		return d.readDenseJSArray()
	case TagDate:
		return d.readDate()
	case TagTrueObject, TagFalseObject, TagNumberObject, TagBigIntObject, TagStringObject:
		return d.readPrimitiveWrapper(tag)
	case TagRegExp:
		return d.readRegExp()
	case TagBeginJSMap:
		return d.readJSMap()
	case TagBeginJSSet:
		return d.readJSSet()
	case TagArrayBuffer:
		return d.readArrayBuffer(false, false)
	case TagResizableArrayBuffer:
		return d.readArrayBuffer(false, true)
	case TagSharedArrayBuffer:
		return d.readArrayBuffer(true, false)
	case TagError:
		return nil, errors.Wrap(stream.ErrNotImplemented, "dfindexeddb/v8: JS error objects")
	case TagWasmModuleTransfer, TagWasmMemoryTransfer:
		return nil, errors.Wrapf(stream.ErrNotImplemented, "dfindexeddb/v8: wasm transfer tag %q", rune(tag))
	case TagHostObject:
		return d.readHostObject()
	case TagSharedObject:
		if d.Version >= 15 {
			return nil, errors.Wrap(stream.ErrNotImplemented, "dfindexeddb/v8: shared objects")
		}
		return nil, errors.Newf("dfindexeddb/v8: unexpected tag %q", rune(tag))
	default:
		if d.Version < 13 {
			// Pre-version-13 streams tag host objects with their own ASCII
			// identifier directly, with no generic HOST_OBJECT wrapper; rewind
			// so the delegate sees the tag byte it needs to dispatch on.
			if err := d.R.Seek(d.R.Offset() - 1); err != nil {
				return nil, err
			}
			return d.readHostObject()
		}
		return nil, errors.Newf("dfindexeddb/v8: unexpected tag %q", rune(tag))
	}
}

func (d *Deserializer) readBigInt() (BigInt, error) {
	bitField, err := d.R.DecodeVarint(5)
	if err != nil {
		return BigInt{}, err
	}
	byteCount := int(bitField >> 1)
	signed := bitField&1 != 0
	v, err := d.R.DecodeInt(byteCount, stream.LittleEndian, false)
	if err != nil {
		return BigInt{}, errors.Wrap(err, "dfindexeddb/v8: bigint digits")
	}
	return BigInt{Magnitude: v, Negative: signed}, nil
}

func (d *Deserializer) readUTF8String() (string, error) {
	n, err := d.R.DecodeVarint(5)
	if err != nil {
		return "", err
	}
	b, err := d.R.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Deserializer) readOneByteString() (string, error) {
	n, err := d.R.DecodeVarint(5)
	if err != nil {
		return "", err
	}
	b, err := d.R.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

func (d *Deserializer) readTwoByteString() (string, error) {
	n, err := d.R.DecodeVarint(5)
	if err != nil {
		return "", err
	}
	b, err := d.R.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if len(b)%2 != 0 {
		return "", errors.Wrapf(stream.ErrMalformed, "dfindexeddb/v8: odd two-byte-string length %d", len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return string(utf16Decode(units)), nil
}

// ReadString reads a V8 string value; used both at the top level and by
// delegates that need a plain string (e.g. a RegExp pattern).
func (d *Deserializer) ReadString() (string, error) {
	v, err := d.readObject()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("dfindexeddb/v8: expected a string value")
	}
	return s, nil
}

func (d *Deserializer) readJSObjectProperties(set func(key, value any), end Tag) (int, error) {
	n := 0
	for {
		tag, ok := d.peekTag()
		if ok && tag == end {
			break
		}
		key, err := d.readObject()
		if err != nil {
			return 0, err
		}
		value, err := d.readObject()
		if err != nil {
			return 0, err
		}
		set(key, value)
		n++
	}
	if err := d.consumeTag(end); err != nil {
		return 0, err
	}
	return n, nil
}

func (d *Deserializer) readJSObject() (*JSObject, error) {
	id := d.nextID()
	obj := &JSObject{}
	n, err := d.readJSObjectProperties(obj.Set, TagEndJSObject)
	if err != nil {
		return nil, err
	}
	expected, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	if int(expected) != n {
		return nil, errors.New("dfindexeddb/v8: unexpected number of properties")
	}
	d.setObject(id, obj)
	return obj, nil
}

func (d *Deserializer) readSparseJSArray() (*JSArray, error) {
	id := d.nextID()
	length, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	arr := &JSArray{Elements: make([]any, length)}
	for i := range arr.Elements {
		arr.Elements[i] = Undefined{}
	}
	n, err := d.readJSObjectProperties(arr.Properties.Set, TagEndSparseJSArray)
	if err != nil {
		return nil, err
	}
	expectedProps, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	expectedLen, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	if int(expectedProps) != n {
		return nil, errors.New("dfindexeddb/v8: unexpected sparse array property count")
	}
	if expectedLen != length {
		return nil, errors.New("dfindexeddb/v8: unexpected sparse array length")
	}
	d.setObject(id, arr)
	return arr, nil
}

func (d *Deserializer) readDenseJSArray() (*JSArray, error) {
	id := d.nextID()
	length, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	arr := &JSArray{}
	for i := uint64(0); i < length; i++ {
		tag, ok := d.peekTag()
		if ok && tag == TagTheHole {
			if err := d.consumeTag(tag); err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.readObject()
		if err != nil {
			return nil, err
		}
		if d.Version < 11 {
			if _, isUndef := v.(Undefined); isUndef {
				continue
			}
		}
		arr.Elements = append(arr.Elements, v)
	}
	n, err := d.readJSObjectProperties(arr.Properties.Set, TagEndDenseJSArray)
	if err != nil {
		return nil, err
	}
	expectedProps, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	expectedLen, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	if int(expectedProps) != n {
		return nil, errors.New("dfindexeddb/v8: unexpected dense array property count")
	}
	if expectedLen != length {
		return nil, errors.New("dfindexeddb/v8: unexpected dense array length")
	}
	d.setObject(id, arr)
	return arr, nil
}

func (d *Deserializer) readDate() (Date, error) {
	id := d.nextID()
	ms, err := d.R.DecodeDouble(stream.LittleEndian)
	if err != nil {
		return Date{}, err
	}
	date := Date(time.UnixMilli(int64(ms)).UTC())
	d.setObject(id, date)
	return date, nil
}

func (d *Deserializer) readPrimitiveWrapper(tag Tag) (PrimitiveWrapper, error) {
	id := d.nextID()
	var value any
	var err error
	switch tag {
	case TagTrueObject:
		value = true
	case TagFalseObject:
		value = false
	case TagNumberObject:
		value, err = d.R.DecodeDouble(stream.LittleEndian)
	case TagBigIntObject:
		value, err = d.readBigInt()
	case TagStringObject:
		value, err = d.ReadString()
	default:
		return PrimitiveWrapper{}, errors.Newf("dfindexeddb/v8: invalid primitive wrapper tag %q", rune(tag))
	}
	if err != nil {
		return PrimitiveWrapper{}, err
	}
	wrapper := PrimitiveWrapper{Tag: tag, Value: value}
	d.setObject(id, wrapper)
	return wrapper, nil
}

func (d *Deserializer) readRegExp() (RegExp, error) {
	id := d.nextID()
	pattern, err := d.ReadString()
	if err != nil {
		return RegExp{}, err
	}
	flags, err := d.R.DecodeVarint(5)
	if err != nil {
		return RegExp{}, err
	}
	re := RegExp{Pattern: pattern, Flags: uint32(flags)}
	d.setObject(id, re)
	return re, nil
}

func (d *Deserializer) readJSMap() (*JSMap, error) {
	id := d.nextID()
	m := &JSMap{}
	for {
		tag, ok := d.peekTag()
		if ok && tag == TagEndJSMap {
			break
		}
		key, err := d.readObject()
		if err != nil {
			return nil, err
		}
		value, err := d.readObject()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, value)
	}
	if err := d.consumeTag(TagEndJSMap); err != nil {
		return nil, err
	}
	expected, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	if int(expected) != len(m.Keys)*2 {
		return nil, errors.New("dfindexeddb/v8: unexpected map length")
	}
	d.setObject(id, m)
	return m, nil
}

func (d *Deserializer) readJSSet() (*JSSet, error) {
	id := d.nextID()
	s := &JSSet{}
	for {
		tag, ok := d.peekTag()
		if ok && tag == TagEndJSSet {
			break
		}
		v, err := d.readObject()
		if err != nil {
			return nil, err
		}
		s.Elements = append(s.Elements, v)
	}
	if err := d.consumeTag(TagEndJSSet); err != nil {
		return nil, err
	}
	expected, err := d.R.DecodeVarint(5)
	if err != nil {
		return nil, err
	}
	if int(expected) != len(s.Elements) {
		return nil, errors.New("dfindexeddb/v8: unexpected set length")
	}
	d.setObject(id, s)
	return s, nil
}

func (d *Deserializer) readArrayBuffer(shared, resizable bool) (ArrayBuffer, error) {
	id := d.nextID()
	if shared {
		return ArrayBuffer{}, errors.Wrap(stream.ErrNotImplemented, "dfindexeddb/v8: shared array buffers")
	}
	length, err := d.R.DecodeVarint(5)
	if err != nil {
		return ArrayBuffer{}, err
	}
	buf := ArrayBuffer{Resizable: resizable}
	maxLength := length
	if resizable {
		maxLength, err = d.R.DecodeVarint(5)
		if err != nil {
			return ArrayBuffer{}, err
		}
		buf.MaxLength = uint32(maxLength)
		if length > maxLength {
			d.setObject(id, buf)
			return buf, nil
		}
	}
	if length > 0 {
		b, err := d.R.ReadBytes(int(length))
		if err != nil {
			return ArrayBuffer{}, err
		}
		buf.Bytes = b
	}
	d.setObject(id, buf)
	return buf, nil
}

func (d *Deserializer) readArrayBufferView(buffer ArrayBuffer) (ArrayBufferView, error) {
	tagByte, err := d.R.DecodeUint8()
	if err != nil {
		return ArrayBufferView{}, err
	}
	offset, err := d.R.DecodeVarint(5)
	if err != nil {
		return ArrayBufferView{}, err
	}
	length, err := d.R.DecodeVarint(5)
	if err != nil {
		return ArrayBufferView{}, err
	}
	var flags uint64
	if d.Version >= 14 {
		flags, err = d.R.DecodeVarint(5)
		if err != nil {
			return ArrayBufferView{}, err
		}
	}
	return ArrayBufferView{
		Buffer: buffer,
		Tag:    ArrayBufferViewTag(tagByte),
		Offset: uint32(offset),
		Length: uint32(length),
		Flags:  uint32(flags),
	}, nil
}

func (d *Deserializer) readHostObject() (any, error) {
	id := d.nextID()
	if d.Delegate == nil {
		return nil, errors.New("dfindexeddb/v8: no delegate to read host object")
	}
	obj, err := d.Delegate.ReadHostObject(d)
	if err != nil {
		return nil, err
	}
	d.setObject(id, obj)
	return obj, nil
}

func utf16Decode(units []uint16) []rune {
	out := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) {
			r2 := rune(units[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				out = append(out, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
