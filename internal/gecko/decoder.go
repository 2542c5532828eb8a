// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package gecko

import (
	"bytes"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// Decode parses a Gecko JSStructuredClone-encoded IndexedDB value. raw may
// be a snappy-framed container (beginning with the "sNaPpY" magic) or a
// single whole-buffer snappy blob; either way the decompressed bytes are a
// stream of (tag, data) pairs as described in spec.md §4.8.
func Decode(raw []byte) (any, error) {
	payload, err := unwrapContainer(raw)
	if err != nil {
		return nil, err
	}
	d := &decoder{r: stream.NewReader(payload)}
	return d.decodeValue()
}

type decoder struct {
	r       *stream.Reader
	objects []any
	stack   []*containerFrame
}

// containerFrame is the explicit work-stack entry for one in-progress
// ARRAY_OBJECT, OBJECT_OBJECT, MAP_OBJECT, or SET_OBJECT body.
type containerFrame struct {
	arr *JSArray
	obj *JSObject
	mp  *JSMap
	set *JSSet
}

func unwrapContainer(raw []byte) ([]byte, error) {
	if len(raw) < len(frameHeader) || !bytes.Equal(raw[:len(frameHeader)], frameHeader) {
		out, err := snappy.Decode(nil, raw)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/gecko: snappy-decode whole buffer")
		}
		return out, nil
	}

	pos := len(frameHeader)
	var out []byte
	for pos < len(raw) {
		if pos+8 > len(raw) {
			return nil, errors.Newf("dfindexeddb/gecko: truncated snappy frame at offset %d", pos)
		}
		isUncompressed := raw[pos]
		blockSize := uint32(raw[pos+1]) | uint32(raw[pos+2])<<8 | uint32(raw[pos+3])<<16
		if blockSize < 4 {
			return nil, errors.Newf("dfindexeddb/gecko: invalid snappy frame block size %d", blockSize)
		}
		payloadLen := int(blockSize) - 4
		payloadStart := pos + 8
		if payloadStart+payloadLen > len(raw) {
			return nil, errors.Newf("dfindexeddb/gecko: snappy frame payload runs past buffer end")
		}
		payload := raw[payloadStart : payloadStart+payloadLen]
		if isUncompressed == 1 {
			out = append(out, payload...)
		} else {
			decoded, err := snappy.Decode(nil, payload)
			if err != nil {
				return nil, errors.Wrap(err, "dfindexeddb/gecko: snappy-decode frame")
			}
			out = append(out, decoded...)
		}
		pos = payloadStart + payloadLen
	}
	return out, nil
}

func alignTo8(r *stream.Reader) error {
	rem := r.Offset() % 8
	if rem == 0 {
		return nil
	}
	skip := 8 - rem
	if skip > r.NumRemaining() {
		skip = r.NumRemaining()
	}
	if skip == 0 {
		return nil
	}
	_, err := r.ReadBytes(skip)
	return err
}

func (d *decoder) readPair() (StructuredDataType, uint32, uint64, error) {
	pair, err := d.r.DecodeUint64(stream.LittleEndian)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "dfindexeddb/gecko: tag/data pair")
	}
	return StructuredDataType(pair >> 32), uint32(pair & 0xFFFFFFFF), pair, nil
}

func (d *decoder) peekPair() (StructuredDataType, uint32, error) {
	raw, err := d.r.PeekBytes(8)
	if err != nil {
		return 0, 0, errors.Wrap(err, "dfindexeddb/gecko: peek tag/data pair")
	}
	var pair uint64
	for i := 7; i >= 0; i-- {
		pair = pair<<8 | uint64(raw[i])
	}
	return StructuredDataType(pair >> 32), uint32(pair & 0xFFFFFFFF), nil
}

func (d *decoder) decodeValue() (any, error) {
	tag, _, _, err := d.readPair()
	if err != nil {
		return nil, err
	}
	if tag != TagHeader {
		return nil, errors.Newf("dfindexeddb/gecko: expected HEADER tag, got %#x", uint32(tag))
	}

	tag, data, pair, err := d.readPair()
	if err != nil {
		return nil, err
	}
	if tag == TagTransferMapHeader {
		return nil, errors.Wrap(stream.ErrNotImplemented, "dfindexeddb/gecko: transfer maps are not supported")
	}
	root, err := d.readNode(tag, data, pair)
	if err != nil {
		return nil, err
	}
	if err := d.drainStack(); err != nil {
		return nil, err
	}
	return root, nil
}

func (d *decoder) drainStack() error {
	for len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]
		if err := alignTo8(d.r); err != nil {
			return err
		}
		tag, _, err := d.peekPair()
		if err != nil {
			return err
		}
		if tag == TagEndOfKeys {
			if _, _, _, err := d.readPair(); err != nil {
				return err
			}
			if err := alignTo8(d.r); err != nil {
				return err
			}
			d.stack = d.stack[:len(d.stack)-1]
			continue
		}

		ktag, kdata, kpair, err := d.readPair()
		if err != nil {
			return err
		}
		key, err := d.readNode(ktag, kdata, kpair)
		if err != nil {
			return err
		}

		if top.set != nil {
			top.set.Elements = append(top.set.Elements, key)
			continue
		}

		vtag, vdata, vpair, err := d.readPair()
		if err != nil {
			return err
		}
		value, err := d.readNode(vtag, vdata, vpair)
		if err != nil {
			return err
		}
		switch {
		case top.arr != nil:
			top.arr.Elements = append(top.arr.Elements, value)
		case top.obj != nil:
			top.obj.Set(key, value)
		case top.mp != nil:
			top.mp.Keys = append(top.mp.Keys, key)
			top.mp.Values = append(top.mp.Values, value)
		}
	}
	return nil
}

func (d *decoder) readNode(tag StructuredDataType, data uint32, pair uint64) (result any, err error) {
	defer func() {
		if err == nil {
			err = alignTo8(d.r)
		}
	}()

	switch tag {
	case TagNull:
		return Null{}, nil
	case TagUndefined:
		return Undefined{}, nil
	case TagInt32:
		return int32(data), nil
	case TagBoolean:
		return data != 0, nil
	case TagBooleanObject:
		v := data != 0
		d.objects = append(d.objects, v)
		return v, nil
	case TagString:
		return d.readString(data)
	case TagStringObject:
		v, err := d.readString(data)
		if err != nil {
			return nil, err
		}
		d.objects = append(d.objects, v)
		return v, nil
	case TagNumberObject:
		v, err := d.r.DecodeDouble(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/gecko: NUMBER_OBJECT")
		}
		d.objects = append(d.objects, v)
		return v, nil
	case TagBigInt:
		return d.readBigInt(data)
	case TagBigIntObject:
		v, err := d.readBigInt(data)
		if err != nil {
			return nil, err
		}
		d.objects = append(d.objects, v)
		return v, nil
	case TagDateObject:
		ms, err := d.r.DecodeDouble(stream.LittleEndian)
		if err != nil {
			return nil, errors.Wrap(err, "dfindexeddb/gecko: DATE_OBJECT")
		}
		v := Date(time.UnixMilli(int64(ms)).UTC())
		d.objects = append(d.objects, v)
		return v, nil
	case TagRegexpObject:
		v, err := d.readRegexp(data)
		if err != nil {
			return nil, err
		}
		d.objects = append(d.objects, v)
		return v, nil
	case TagArrayObject:
		c := &JSArray{}
		d.objects = append(d.objects, c)
		d.stack = append(d.stack, &containerFrame{arr: c})
		return c, nil
	case TagObjectObject:
		c := &JSObject{}
		d.objects = append(d.objects, c)
		d.stack = append(d.stack, &containerFrame{obj: c})
		return c, nil
	case TagMapObject:
		c := &JSMap{}
		d.objects = append(d.objects, c)
		d.stack = append(d.stack, &containerFrame{mp: c})
		return c, nil
	case TagSetObject:
		c := &JSSet{}
		d.objects = append(d.objects, c)
		d.stack = append(d.stack, &containerFrame{set: c})
		return c, nil
	case TagBackReferenceObject:
		idx := int(data)
		if idx < 0 || idx >= len(d.objects) {
			return nil, errors.Newf("dfindexeddb/gecko: back-reference %d out of range", idx)
		}
		return d.objects[idx], nil
	case TagArrayBufferObjectV2, TagArrayBufferObject, TagResizableArrayBuffer:
		return d.readArrayBuffer(tag, data)
	case TagTypedArrayObjectV2, TagTypedArrayObject:
		return d.readTypedArray(tag, data)
	default:
		if tag <= sctagFloatMax {
			return math.Float64frombits(pair), nil
		}
		return nil, errors.Wrapf(stream.ErrNotImplemented, "dfindexeddb/gecko: unsupported tag %#x", uint32(tag))
	}
}

func (d *decoder) readString(data uint32) (string, error) {
	numberChars := data & 0x7FFFFFFF
	if numberChars > maxLength {
		return "", errors.Newf("dfindexeddb/gecko: string length %d exceeds maximum", numberChars)
	}
	latin1 := data&0x80000000 != 0
	if latin1 {
		b, err := d.r.ReadBytes(int(numberChars))
		if err != nil {
			return "", errors.Wrap(err, "dfindexeddb/gecko: latin1 string bytes")
		}
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return string(runes), nil
	}
	b, err := d.r.ReadBytes(int(numberChars) * 2)
	if err != nil {
		return "", errors.Wrap(err, "dfindexeddb/gecko: utf-16 string bytes")
	}
	units := make([]uint16, numberChars)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return string(utf16ToRunes(units)), nil
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

func (d *decoder) readBigInt(data uint32) (BigInt, error) {
	length := data & 0x7FFFFFFF
	negative := data&0x80000000 != 0
	b, err := d.r.ReadBytes(int(length) * 8)
	if err != nil {
		return BigInt{}, errors.Wrap(err, "dfindexeddb/gecko: BIGINT words")
	}
	magnitude := make([]byte, len(b))
	copy(magnitude, b)
	return BigInt{Magnitude: magnitude, Negative: negative}, nil
}

func (d *decoder) readRegexp(flags uint32) (RegExp, error) {
	tag, data, _, err := d.readPair()
	if err != nil {
		return RegExp{}, err
	}
	if tag != TagString {
		return RegExp{}, errors.Newf("dfindexeddb/gecko: regexp pattern expected STRING tag, got %#x", uint32(tag))
	}
	pattern, err := d.readString(data)
	if err != nil {
		return RegExp{}, err
	}
	return RegExp{Pattern: pattern, Flags: strconv.Itoa(int(flags))}, nil
}

func (d *decoder) readArrayBuffer(tag StructuredDataType, data uint32) (ArrayBuffer, error) {
	var numberBytes uint64
	resizable := tag == TagResizableArrayBuffer
	if tag == TagArrayBufferObject || resizable {
		n, err := d.r.DecodeUint64(stream.LittleEndian)
		if err != nil {
			return ArrayBuffer{}, errors.Wrap(err, "dfindexeddb/gecko: array buffer byte length")
		}
		numberBytes = n
	} else {
		numberBytes = uint64(data)
	}
	var maxBytes uint64
	if resizable {
		n, err := d.r.DecodeUint64(stream.LittleEndian)
		if err != nil {
			return ArrayBuffer{}, errors.Wrap(err, "dfindexeddb/gecko: resizable array buffer max length")
		}
		maxBytes = n
	}
	b, err := d.r.ReadBytes(int(numberBytes))
	if err != nil {
		return ArrayBuffer{}, errors.Wrap(err, "dfindexeddb/gecko: array buffer bytes")
	}
	buf := make([]byte, len(b))
	copy(buf, b)
	return ArrayBuffer{Bytes: buf, Resizable: resizable, MaxBytes: maxBytes}, nil
}

func (d *decoder) readTypedArray(outerTag StructuredDataType, kind uint32) (TypedArray, error) {
	d.objects = append(d.objects, nil) // placeholder pool slot for self-referencing views
	slot := len(d.objects) - 1

	tag, data, pair, err := d.readPair()
	if err != nil {
		return TypedArray{}, err
	}
	var buf ArrayBuffer
	switch tag {
	case TagArrayBufferObjectV2, TagArrayBufferObject, TagResizableArrayBuffer:
		buf, err = d.readArrayBuffer(tag, data)
		if err != nil {
			return TypedArray{}, err
		}
		if err := alignTo8(d.r); err != nil {
			return TypedArray{}, err
		}
	default:
		v, err := d.readNode(tag, data, pair)
		if err != nil {
			return TypedArray{}, err
		}
		b, ok := v.(ArrayBuffer)
		if !ok {
			return TypedArray{}, errors.Newf("dfindexeddb/gecko: typed array underlying value is not an ArrayBuffer")
		}
		buf = b
	}

	ta := TypedArray{Buffer: buf, Kind: kind}
	d.objects[slot] = ta
	return ta, nil
}
