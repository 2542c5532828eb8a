// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package webkit

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
	"howett.net/plist"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// Decode parses a WebKit SerializedScriptValue blob: a CurrentVersion header
// followed by a single encoded value, as described in spec.md §4.9.
func Decode(data []byte) (any, error) {
	d := &Decoder{r: stream.NewReader(data)}
	version, err := d.r.DecodeUint32(stream.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/webkit: CurrentVersion header")
	}
	if version != CurrentVersion {
		return nil, errors.Newf("dfindexeddb/webkit: %d is not the expected CurrentVersion %d", version, CurrentVersion)
	}
	d.version = version
	_, value, err := d.decodeValue()
	return value, err
}

// Decoder decodes a WebKit SerializedScriptValue stream. A fresh Decoder
// must be used per top-level value: the string constant pool and object
// pool it accumulates are only valid for the stream they were built from.
type Decoder struct {
	r            *stream.Reader
	version      uint32
	constantPool []string
	objectPool   []any
}

// peekTag returns the next 4 bytes as a little-endian uint32 without
// consuming them, used to distinguish a sentinel (TerminatorTag,
// StringPoolTag, NonIndexPropertiesTag) from an ordinary SerializationTag
// byte before committing to a read.
func (d *Decoder) peekTag() (uint32, error) {
	b, err := d.r.PeekBytes(4)
	if err != nil {
		return 0, errors.Wrap(err, "dfindexeddb/webkit: peek tag")
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) peekSerializationTag() (SerializationTag, error) {
	b, err := d.r.PeekBytes(1)
	if err != nil {
		return 0, errors.Wrap(err, "dfindexeddb/webkit: peek serialization tag")
	}
	return SerializationTag(b[0]), nil
}

func (d *Decoder) decodeSerializationTag() (int, SerializationTag, error) {
	offset := d.r.Offset()
	b, err := d.r.DecodeUint8()
	if err != nil {
		return 0, 0, errors.Wrap(err, "dfindexeddb/webkit: serialization tag")
	}
	return offset, SerializationTag(b), nil
}

func (d *Decoder) decodeUint32() (uint32, error) {
	return d.r.DecodeUint32(stream.LittleEndian)
}

func (d *Decoder) decodeArray() (*JSArray, error) {
	length, err := d.decodeUint32()
	if err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/webkit: array length")
	}
	arr := &JSArray{Properties: map[string]any{}}
	for i := uint32(0); i < length; i++ {
		if _, err := d.decodeUint32(); err != nil { // sparse index, unused
			return nil, errors.Wrap(err, "dfindexeddb/webkit: array element index")
		}
		_, value, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, value)
	}

	offset, terminator, err := d.decodeUint32WithOffset()
	if err != nil {
		return nil, err
	}
	if terminator != TerminatorTag {
		return nil, errors.Newf("dfindexeddb/webkit: terminator tag not found at offset %d", offset)
	}

	tag, err := d.decodeUint32()
	if err != nil {
		return nil, err
	}
	if tag == NonIndexPropertiesTag {
		for tag != TerminatorTag {
			name, err := d.decodeStringData()
			if err != nil {
				return nil, err
			}
			_, value, err := d.decodeValue()
			if err != nil {
				return nil, err
			}
			arr.Properties[name] = value
			tag, err = d.decodeUint32()
			if err != nil {
				return nil, err
			}
		}
	} else if tag != TerminatorTag {
		return nil, errors.Newf("dfindexeddb/webkit: terminator tag not found at offset %d", offset)
	}
	return arr, nil
}

func (d *Decoder) decodeUint32WithOffset() (int, uint32, error) {
	offset := d.r.Offset()
	v, err := d.decodeUint32()
	return offset, v, err
}

func (d *Decoder) decodeObject() (*JSObject, error) {
	tag, err := d.peekTag()
	if err != nil {
		return nil, err
	}
	obj := &JSObject{}
	for tag != TerminatorTag {
		name, err := d.decodeStringData()
		if err != nil {
			return nil, err
		}
		_, value, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		obj.Set(name, value)
		tag, err = d.peekTag()
		if err != nil {
			return nil, err
		}
	}
	if _, err := d.decodeUint32(); err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/webkit: object terminator")
	}
	d.objectPool = append(d.objectPool, obj)
	return obj, nil
}

func (d *Decoder) decodeStringData() (string, error) {
	peekedTag, err := d.peekTag()
	if err != nil {
		return "", err
	}
	if peekedTag == TerminatorTag {
		return "", errors.New("dfindexeddb/webkit: TerminatorTag found where StringData was expected")
	}

	if peekedTag == StringPoolTag {
		if _, err := d.decodeUint32(); err != nil {
			return "", errors.Wrap(err, "dfindexeddb/webkit: string pool tag")
		}
		var idx uint32
		switch {
		case len(d.constantPool) < stringPoolLimit8:
			v, err := d.r.DecodeUint8()
			if err != nil {
				return "", err
			}
			idx = uint32(v)
		case len(d.constantPool) < stringPoolLimit16:
			v, err := d.r.DecodeUint16(stream.LittleEndian)
			if err != nil {
				return "", err
			}
			idx = uint32(v)
		default:
			idx, err = d.decodeUint32()
			if err != nil {
				return "", err
			}
		}
		if int(idx) >= len(d.constantPool) {
			return "", errors.Newf("dfindexeddb/webkit: constant pool index %d out of range", idx)
		}
		return d.constantPool[idx], nil
	}

	lengthWithFlag, err := d.decodeUint32()
	if err != nil {
		return "", errors.Wrap(err, "dfindexeddb/webkit: string length")
	}
	if lengthWithFlag == TerminatorTag {
		return "", errors.New("dfindexeddb/webkit: disallowed string length found")
	}
	length := lengthWithFlag & 0x7FFFFFFF
	is8Bit := lengthWithFlag&StringDataIs8BitFlag != 0

	var value string
	if is8Bit {
		raw, err := d.r.ReadBytes(int(length))
		if err != nil {
			return "", errors.Wrap(err, "dfindexeddb/webkit: latin1 string bytes")
		}
		runes := make([]rune, len(raw))
		for i, c := range raw {
			runes[i] = rune(c)
		}
		value = string(runes)
	} else {
		raw, err := d.r.ReadBytes(int(length) * 2)
		if err != nil {
			return "", errors.Wrap(err, "dfindexeddb/webkit: utf-16 string bytes")
		}
		units := make([]uint16, length)
		for i := range units {
			units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		}
		value = string(utf16ToRunes(units))
	}
	d.constantPool = append(d.constantPool, value)
	return value, nil
}

func utf16ToRunes(units []uint16) []rune {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF {
			r := (rune(u)-0xD800)<<10 | (rune(units[i+1]) - 0xDC00) + 0x10000
			runes = append(runes, r)
			i++
			continue
		}
		runes = append(runes, rune(u))
	}
	return runes
}

func (d *Decoder) decodeDate() (Date, error) {
	ms, err := d.r.DecodeDouble(stream.LittleEndian)
	if err != nil {
		return Date{}, errors.Wrap(err, "dfindexeddb/webkit: date")
	}
	return Date(time.UnixMilli(int64(ms)).UTC()), nil
}

func (d *Decoder) decodeFileData() (FileData, error) {
	path, err := d.decodeStringData()
	if err != nil {
		return FileData{}, err
	}
	url, err := d.decodeStringData()
	if err != nil {
		return FileData{}, err
	}
	fileType, err := d.decodeStringData()
	if err != nil {
		return FileData{}, err
	}
	name, err := d.decodeStringData()
	if err != nil {
		return FileData{}, err
	}
	lastModified, err := d.r.DecodeDouble(stream.LittleEndian)
	if err != nil {
		return FileData{}, errors.Wrap(err, "dfindexeddb/webkit: file last-modified")
	}
	return FileData{Path: path, URL: url, Type: fileType, Name: name, LastModified: lastModified}, nil
}

func (d *Decoder) decodeFileList() (FileList, error) {
	length, err := d.decodeUint32()
	if err != nil {
		return FileList{}, errors.Wrap(err, "dfindexeddb/webkit: file list length")
	}
	files := make([]FileData, 0, length)
	for i := uint32(0); i < length; i++ {
		f, err := d.decodeFileData()
		if err != nil {
			return FileList{}, err
		}
		files = append(files, f)
	}
	return FileList{Files: files}, nil
}

func (d *Decoder) decodeImageData() (ImageData, error) {
	width, err := d.decodeUint32()
	if err != nil {
		return ImageData{}, err
	}
	height, err := d.decodeUint32()
	if err != nil {
		return ImageData{}, err
	}
	length, err := d.decodeUint32()
	if err != nil {
		return ImageData{}, err
	}
	data, err := d.r.ReadBytes(int(length))
	if err != nil {
		return ImageData{}, errors.Wrap(err, "dfindexeddb/webkit: image data bytes")
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	var colorSpace *uint8
	if d.version > 7 {
		cs, err := d.r.DecodeUint8()
		if err != nil {
			return ImageData{}, errors.Wrap(err, "dfindexeddb/webkit: image data color space")
		}
		colorSpace = &cs
	}
	return ImageData{Width: width, Height: height, Data: buf, ColorSpace: colorSpace}, nil
}

func (d *Decoder) decodeBlob() (Blob, error) {
	url, err := d.decodeStringData()
	if err != nil {
		return Blob{}, err
	}
	blobType, err := d.decodeStringData()
	if err != nil {
		return Blob{}, err
	}
	size, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return Blob{}, errors.Wrap(err, "dfindexeddb/webkit: blob size")
	}
	var memoryCost *uint64
	if d.version >= 11 {
		mc, err := d.r.DecodeUint64(stream.LittleEndian)
		if err != nil {
			return Blob{}, errors.Wrap(err, "dfindexeddb/webkit: blob memory cost")
		}
		memoryCost = &mc
	}
	return Blob{URL: url, Type: blobType, Size: size, MemoryCost: memoryCost}, nil
}

func (d *Decoder) decodeRegExp() (RegExp, error) {
	pattern, err := d.decodeStringData()
	if err != nil {
		return RegExp{}, err
	}
	flags, err := d.decodeStringData()
	if err != nil {
		return RegExp{}, err
	}
	return RegExp{Pattern: pattern, Flags: flags}, nil
}

func (d *Decoder) decodeMapData() (*JSMap, error) {
	tag, err := d.peekSerializationTag()
	if err != nil {
		return nil, err
	}
	m := &JSMap{}
	for tag != TagNonMapProperties {
		_, key, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		_, value, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, value)
		tag, err = d.peekSerializationTag()
		if err != nil {
			return nil, err
		}
	}
	if _, _, err := d.decodeSerializationTag(); err != nil { // consume NON_MAP_PROPERTIES
		return nil, err
	}

	poolTag, err := d.peekTag()
	if err != nil {
		return nil, err
	}
	for poolTag != TerminatorTag {
		name, err := d.decodeStringData()
		if err != nil {
			return nil, err
		}
		_, value, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, name)
		m.Values = append(m.Values, value)
		poolTag, err = d.peekTag()
		if err != nil {
			return nil, err
		}
	}
	if _, err := d.decodeUint32(); err != nil { // consume TerminatorTag
		return nil, err
	}
	return m, nil
}

func (d *Decoder) decodeSetData() (*JSSet, error) {
	tag, err := d.peekSerializationTag()
	if err != nil {
		return nil, err
	}
	s := &JSSet{Properties: map[string]any{}}
	for tag != TagNonSetProperties {
		_, key, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		s.Elements = append(s.Elements, key)
		tag, err = d.peekSerializationTag()
		if err != nil {
			return nil, err
		}
	}
	if _, _, err := d.decodeSerializationTag(); err != nil { // consume NON_SET_PROPERTIES
		return nil, err
	}

	poolTag, err := d.peekTag()
	if err != nil {
		return nil, err
	}
	for poolTag != TerminatorTag {
		name, err := d.decodeStringData()
		if err != nil {
			return nil, err
		}
		_, value, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		s.Properties[name] = value
		poolTag, err = d.peekTag()
		if err != nil {
			return nil, err
		}
	}
	if _, err := d.decodeUint32(); err != nil { // consume TerminatorTag
		return nil, err
	}
	return s, nil
}

func (d *Decoder) decodeCryptoKey() (CryptoKey, error) {
	length, err := d.decodeUint32()
	if err != nil {
		return CryptoKey{}, errors.Wrap(err, "dfindexeddb/webkit: crypto key length")
	}
	wrapped, err := d.r.ReadBytes(int(length))
	if err != nil {
		return CryptoKey{}, errors.Wrap(err, "dfindexeddb/webkit: crypto key bytes")
	}
	var tree any
	if _, err := plist.Unmarshal(bytes.NewReader(wrapped), &tree); err != nil {
		return CryptoKey{}, errors.Wrap(err, "dfindexeddb/webkit: crypto key property list")
	}
	return CryptoKey{Plist: tree}, nil
}

func (d *Decoder) decodeBigIntData() (BigInt, error) {
	sign, err := d.r.DecodeUint8()
	if err != nil {
		return BigInt{}, errors.Wrap(err, "dfindexeddb/webkit: bigint sign")
	}
	numElements, err := d.decodeUint32()
	if err != nil {
		return BigInt{}, errors.Wrap(err, "dfindexeddb/webkit: bigint element count")
	}
	contents := make([]byte, 0, numElements*8)
	for i := uint32(0); i < numElements; i++ {
		element, err := d.r.ReadBytes(8)
		if err != nil {
			return BigInt{}, errors.Wrap(err, "dfindexeddb/webkit: bigint words")
		}
		contents = append(contents, element...)
	}
	return BigInt{Value: contents, Negative: sign != 0}, nil
}

func (d *Decoder) decodeArrayBuffer() (ArrayBuffer, error) {
	byteLength, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return ArrayBuffer{}, errors.Wrap(err, "dfindexeddb/webkit: array buffer length")
	}
	buf, err := d.r.ReadBytes(int(byteLength))
	if err != nil {
		return ArrayBuffer{}, errors.Wrap(err, "dfindexeddb/webkit: array buffer bytes")
	}
	out := ArrayBuffer{Bytes: append([]byte(nil), buf...)}
	d.objectPool = append(d.objectPool, out)
	return out, nil
}

func (d *Decoder) decodeResizableArrayBuffer() (ResizableArrayBuffer, error) {
	byteLength, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return ResizableArrayBuffer{}, errors.Wrap(err, "dfindexeddb/webkit: resizable array buffer length")
	}
	maxLength, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return ResizableArrayBuffer{}, errors.Wrap(err, "dfindexeddb/webkit: resizable array buffer max length")
	}
	buf, err := d.r.ReadBytes(int(byteLength))
	if err != nil {
		return ResizableArrayBuffer{}, errors.Wrap(err, "dfindexeddb/webkit: resizable array buffer bytes")
	}
	out := ResizableArrayBuffer{Bytes: append([]byte(nil), buf...), MaxLength: maxLength}
	d.objectPool = append(d.objectPool, out)
	return out, nil
}

func (d *Decoder) decodeObjectReference() (any, error) {
	ref, err := d.r.DecodeUint8()
	if err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/webkit: object reference index")
	}
	idx := int(ref) - 1
	if idx < 0 || idx >= len(d.objectPool) {
		return nil, errors.Newf("dfindexeddb/webkit: object reference %d out of range", ref)
	}
	return d.objectPool[idx], nil
}

func (d *Decoder) decodeArrayBufferView() (ArrayBufferView, error) {
	subtagByte, err := d.r.DecodeUint8()
	if err != nil {
		return ArrayBufferView{}, errors.Wrap(err, "dfindexeddb/webkit: array buffer view subtag")
	}
	byteOffset, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return ArrayBufferView{}, errors.Wrap(err, "dfindexeddb/webkit: array buffer view offset")
	}
	byteLength, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return ArrayBufferView{}, errors.Wrap(err, "dfindexeddb/webkit: array buffer view length")
	}
	_, nextTag, err := d.decodeSerializationTag()
	if err != nil {
		return ArrayBufferView{}, err
	}

	var value any
	switch nextTag {
	case TagArrayBuffer:
		value, err = d.decodeArrayBuffer()
	case TagObjectReference:
		value, err = d.decodeObjectReference()
	default:
		return ArrayBufferView{}, errors.Newf("dfindexeddb/webkit: unexpected serialization tag %d in array buffer view", nextTag)
	}
	if err != nil {
		return ArrayBufferView{}, err
	}
	return ArrayBufferView{
		Subtag: ArrayBufferViewSubtag(subtagByte),
		Buffer: value,
		Offset: byteOffset,
		Length: byteLength,
	}, nil
}

// decodeValue decodes a single tagged value, returning the offset the tag
// byte was read from alongside the decoded value.
func (d *Decoder) decodeValue() (int, any, error) {
	offset, tag, err := d.decodeSerializationTag()
	if err != nil {
		return 0, nil, err
	}

	var value any
	switch tag {
	case TagArray:
		value, err = d.decodeArray()
	case TagObject:
		value, err = d.decodeObject()
	case TagUndefined:
		value = Undefined{}
	case TagNull:
		value = Null{}
	case TagInt:
		value, err = d.r.DecodeInt32(stream.LittleEndian)
	case TagZero:
		value = int32(0)
	case TagOne:
		value = int32(1)
	case TagFalse:
		value = false
	case TagTrue:
		value = true
	case TagDouble:
		value, err = d.r.DecodeDouble(stream.LittleEndian)
	case TagDate:
		value, err = d.decodeDate()
	case TagFile:
		value, err = d.decodeFileData()
	case TagFileList:
		value, err = d.decodeFileList()
	case TagImageData:
		value, err = d.decodeImageData()
	case TagBlob:
		value, err = d.decodeBlob()
	case TagString:
		value, err = d.decodeStringData()
	case TagEmptyString:
		value = ""
	case TagRegExp:
		value, err = d.decodeRegExp()
	case TagObjectReference:
		value, err = d.decodeObjectReference()
	case TagArrayBuffer:
		value, err = d.decodeArrayBuffer()
	case TagArrayBufferView:
		value, err = d.decodeArrayBufferView()
	case TagArrayBufferTransfer:
		value, err = d.decodeUint32()
	case TagTrueObject:
		d.objectPool = append(d.objectPool, true)
		value = true
	case TagFalseObject:
		d.objectPool = append(d.objectPool, false)
		value = false
	case TagStringObject:
		value, err = d.decodeStringData()
		if err == nil {
			d.objectPool = append(d.objectPool, value)
		}
	case TagEmptyStringObject:
		value = ""
		d.objectPool = append(d.objectPool, value)
	case TagNumberObject:
		value, err = d.r.DecodeDouble(stream.LittleEndian)
		if err == nil {
			d.objectPool = append(d.objectPool, value)
		}
	case TagSetObject:
		value, err = d.decodeSetData()
	case TagMapObject:
		value, err = d.decodeMapData()
	case TagCryptoKey:
		value, err = d.decodeCryptoKey()
	case TagSharedArrayBuffer:
		value, err = d.decodeUint32()
	case TagResizableArrayBuffer:
		value, err = d.decodeResizableArrayBuffer()
	case TagBigInt:
		value, err = d.decodeBigIntData()
	case TagBigIntObject:
		value, err = d.decodeBigIntData()
		if err == nil {
			d.objectPool = append(d.objectPool, value)
		}
	default:
		return 0, nil, errors.Wrapf(stream.ErrNotImplemented, "dfindexeddb/webkit: unhandled serialization tag %d", tag)
	}
	if err != nil {
		return 0, nil, err
	}
	return offset, value, nil
}
