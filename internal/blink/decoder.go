// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package blink

import (
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
	"github.com/google/dfindexeddb-go/internal/v8"
)

const (
	minVersionForSeparateEnvelope = 16
	minWireFormatVersionForTrailer = 21
)

// Decoder implements v8.HostObjectDelegate over the Blink host-object tag
// set, and owns the two-envelope framing described in spec.md §4.7.
type Decoder struct {
	version uint32
	d       *v8.Deserializer
}

// Decode parses a Blink V8 SSV blob: the optional Blink envelope, the
// optional trailer-offset record, and the inner V8 ValueDeserializer
// stream, with this Decoder wired in as its host-object delegate.
func Decode(data []byte) (any, error) {
	envelopeBytes, version, trailerOffset, err := readVersionEnvelope(data)
	if err != nil {
		return nil, err
	}
	v8Slice := data[envelopeBytes:]
	if trailerOffset > 0 {
		if uint64(envelopeBytes) >= trailerOffset || trailerOffset > uint64(len(data)) {
			return nil, errors.Newf("dfindexeddb/blink: trailer_offset %d out of range", trailerOffset)
		}
		v8Slice = data[envelopeBytes:trailerOffset]
	}

	dec := &Decoder{version: version}
	dec.d = v8.NewDeserializer(stream.NewReader(v8Slice), dec)
	if err := dec.d.ReadHeader(); err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/blink: unsupported V8 header")
	}
	return dec.d.ReadValue()
}

// readVersionEnvelope reads the optional Blink envelope: `0xFF
// version:varint`, and, for version >= 21, the trailer-offset record
// `0xFE trailer_offset:u64be trailer_size:u32be`. It returns the number of
// bytes consumed by the envelope(s) and, when present, the trailer offset.
func readVersionEnvelope(data []byte) (consumed int, version uint32, trailerOffset uint64, err error) {
	if len(data) == 0 {
		return 0, 0, 0, nil
	}
	r := stream.NewReader(data)
	tag, err := r.DecodeUint8()
	if err != nil {
		return 0, 0, 0, err
	}
	if Tag(tag) != TagVersion {
		return 0, 0, 0, nil
	}
	v, err := r.DecodeVarint(5)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "dfindexeddb/blink: version envelope varint")
	}
	if v < minVersionForSeparateEnvelope {
		return 0, 0, 0, nil
	}
	version = uint32(v)
	consumed = r.Offset()

	if version >= minWireFormatVersionForTrailer {
		trailerTag, err := r.DecodeUint8()
		if err != nil {
			return 0, 0, 0, err
		}
		if Tag(trailerTag) != TagTrailerOffset {
			return 0, 0, 0, errors.New("dfindexeddb/blink: trailer offset tag not found")
		}
		off, err := r.DecodeInt(8, stream.BigEndian, false)
		if err != nil {
			return 0, 0, 0, err
		}
		if _, err := r.DecodeInt(4, stream.BigEndian, false); err != nil {
			return 0, 0, 0, err
		}
		consumed = r.Offset()
		if consumed >= len(data) {
			return 0, 0, 0, nil
		}
		trailerOffset = uint64(off)
	}
	return consumed, version, trailerOffset, nil
}

func (dec *Decoder) readTag() (Tag, error) {
	b, err := dec.d.ReadRawBytes(1)
	if err != nil {
		return 0, err
	}
	return Tag(b[0]), nil
}

// ReadHostObject implements v8.HostObjectDelegate: read one Blink
// serialization tag and dispatch to the matching host-object reader.
func (dec *Decoder) ReadHostObject(d *v8.Deserializer) (any, error) {
	tag, err := dec.readTag()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagBlob:
		return dec.readBlob()
	case TagBlobIndex:
		return dec.readBlobIndex()
	case TagFile:
		return dec.readFile()
	case TagFileIndex:
		return dec.readFileIndex()
	case TagFileList:
		return dec.readFileList()
	case TagFileListIndex:
		return dec.readFileListIndex()
	case TagDOMPoint, TagDOMPointReadOnly:
		return dec.readDOMPoint()
	case TagDOMRect, TagDOMRectReadOnly:
		return dec.readDOMRect()
	case TagDOMQuad:
		return dec.readDOMQuad()
	case TagDOMMatrix2D, TagDOMMatrix2DReadOnly:
		return dec.readDOMMatrix2D()
	case TagDOMMatrix, TagDOMMatrixReadOnly:
		return dec.readDOMMatrix()
	case TagMessagePort, TagMojoHandle, TagImageBitmapTransfer,
		TagReadableStreamTransfer, TagWritableStreamTransfer, TagTransformStreamTransfer,
		TagRTCEncodedAudioFrame, TagRTCEncodedVideoFrame, TagAudioData, TagVideoFrame,
		TagEncodedAudioChunk, TagEncodedVideoChunk, TagMediaSourceHandle:
		idx, err := dec.d.ReadUint32Varint()
		if err != nil {
			return nil, err
		}
		return TransferredIndex{Kind: tag, Index: idx}, nil
	case TagOffscreenCanvasTransfer:
		return dec.readOffscreenCanvasTransfer()
	case TagDOMException:
		return dec.readDOMException()
	case TagCryptoKey:
		return dec.readCryptoKey()
	case TagDOMFileSystem:
		return dec.readDOMFileSystem()
	case TagFileSystemFileHandle:
		return dec.readFileSystemFileHandle()
	case TagImageBitmap, TagImageData:
		return nil, errors.Wrapf(stream.ErrNotImplemented, "dfindexeddb/blink: host object tag %q", rune(tag))
	case TagMediaStreamTrack, TagCropTarget, TagRestrictionTarget, TagFencedFrameConfig:
		return nil, errors.Wrapf(stream.ErrNotImplemented, "dfindexeddb/blink: host object tag %q", rune(tag))
	default:
		return nil, errors.Newf("dfindexeddb/blink: unknown host object tag %q", rune(tag))
	}
}

func (dec *Decoder) readBlob() (Blob, error) {
	uuid, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return Blob{}, err
	}
	typ, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return Blob{}, err
	}
	size, err := dec.d.R.DecodeVarint(10)
	if err != nil {
		return Blob{}, err
	}
	return Blob{UUID: uuid, Type: typ, Size: size}, nil
}

func (dec *Decoder) readBlobIndex() (BlobIndex, error) {
	idx, err := dec.d.ReadUint32Varint()
	return BlobIndex{Index: idx}, err
}

func (dec *Decoder) readFile() (File, error) {
	var f File
	path, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return File{}, err
	}
	f.Path = path
	if dec.version >= 4 {
		if f.Name, err = dec.d.ReadRawUTF8String(); err != nil {
			return File{}, err
		}
		if f.RelativePath, err = dec.d.ReadRawUTF8String(); err != nil {
			return File{}, err
		}
	}
	if f.UUID, err = dec.d.ReadRawUTF8String(); err != nil {
		return File{}, err
	}
	if f.Type, err = dec.d.ReadRawUTF8String(); err != nil {
		return File{}, err
	}
	if dec.version >= 4 {
		hasSnapshot, err := dec.d.ReadUint32Varint()
		if err != nil {
			return File{}, err
		}
		f.HasSnapshot = hasSnapshot != 0
		if f.HasSnapshot {
			size, err := dec.d.ReadRawDouble()
			if err != nil {
				return File{}, err
			}
			lastModified, err := dec.d.ReadRawDouble()
			if err != nil {
				return File{}, err
			}
			f.Size = int64(size)
			f.LastModifiedMs = lastModified
			if dec.version < 8 {
				f.LastModifiedMs *= 1000
			}
		}
	}
	f.IsUserVisible = true
	if dec.version >= 7 {
		visible, err := dec.d.ReadUint32Varint()
		if err != nil {
			return File{}, err
		}
		f.IsUserVisible = visible != 0
	}
	return f, nil
}

func (dec *Decoder) readFileIndex() (FileIndex, error) {
	if dec.version < 6 {
		return FileIndex{}, nil
	}
	idx, err := dec.d.ReadUint32Varint()
	return FileIndex{Index: idx}, err
}

func (dec *Decoder) readFileList() (FileList, error) {
	count, err := dec.d.ReadUint32Varint()
	if err != nil {
		return FileList{}, err
	}
	files := make([]File, 0, count)
	for i := uint32(0); i < count; i++ {
		tag, err := dec.readTag()
		if err != nil {
			return FileList{}, err
		}
		if tag != TagFile {
			return FileList{}, errors.Newf("dfindexeddb/blink: expected FILE tag in FileList, got %q", rune(tag))
		}
		f, err := dec.readFile()
		if err != nil {
			return FileList{}, err
		}
		files = append(files, f)
	}
	return FileList{Files: files}, nil
}

func (dec *Decoder) readFileListIndex() (FileListIndex, error) {
	count, err := dec.d.ReadUint32Varint()
	if err != nil {
		return FileListIndex{}, err
	}
	indices := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		tag, err := dec.readTag()
		if err != nil {
			return FileListIndex{}, err
		}
		if tag != TagFileIndex {
			return FileListIndex{}, errors.Newf("dfindexeddb/blink: expected FILE_INDEX tag, got %q", rune(tag))
		}
		fi, err := dec.readFileIndex()
		if err != nil {
			return FileListIndex{}, err
		}
		indices = append(indices, fi.Index)
	}
	return FileListIndex{Indices: indices}, nil
}

func (dec *Decoder) readDoubles(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := dec.d.ReadRawDouble()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (dec *Decoder) readDOMPoint() (DOMPoint, error) {
	v, err := dec.readDoubles(4)
	if err != nil {
		return DOMPoint{}, err
	}
	return DOMPoint{X: v[0], Y: v[1], Z: v[2], W: v[3]}, nil
}

func (dec *Decoder) readDOMRect() (DOMRect, error) {
	v, err := dec.readDoubles(4)
	if err != nil {
		return DOMRect{}, err
	}
	return DOMRect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func (dec *Decoder) readDOMQuad() (DOMQuad, error) {
	points := make([]DOMPoint, 4)
	for i := range points {
		p, err := dec.readDOMPoint()
		if err != nil {
			return DOMQuad{}, err
		}
		points[i] = p
	}
	return DOMQuad{P1: points[0], P2: points[1], P3: points[2], P4: points[3]}, nil
}

func (dec *Decoder) readDOMMatrix2D() (DOMMatrix2D, error) {
	v, err := dec.readDoubles(6)
	if err != nil {
		return DOMMatrix2D{}, err
	}
	var m DOMMatrix2D
	copy(m.Values[:], v)
	return m, nil
}

func (dec *Decoder) readDOMMatrix() (DOMMatrix, error) {
	v, err := dec.readDoubles(16)
	if err != nil {
		return DOMMatrix{}, err
	}
	var m DOMMatrix
	copy(m.Values[:], v)
	return m, nil
}

func (dec *Decoder) readOffscreenCanvasTransfer() (OffscreenCanvasTransfer, error) {
	vals := make([]uint32, 6)
	for i := range vals {
		v, err := dec.d.ReadUint32Varint()
		if err != nil {
			return OffscreenCanvasTransfer{}, err
		}
		vals[i] = v
	}
	return OffscreenCanvasTransfer{
		Width: vals[0], Height: vals[1], CanvasID: vals[2],
		ClientID: vals[3], SinkID: vals[4], FilterQuality: vals[5],
	}, nil
}

func (dec *Decoder) readDOMException() (DOMException, error) {
	name, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return DOMException{}, err
	}
	message, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return DOMException{}, err
	}
	stack, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return DOMException{}, err
	}
	return DOMException{Name: name, Message: message, StackUnused: stack}, nil
}

func (dec *Decoder) readDOMFileSystem() (DOMFileSystem, error) {
	rawType, err := dec.d.ReadUint32Varint()
	if err != nil {
		return DOMFileSystem{}, err
	}
	name, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return DOMFileSystem{}, err
	}
	rootURL, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return DOMFileSystem{}, err
	}
	return DOMFileSystem{RawType: rawType, Name: name, RootURL: rootURL}, nil
}

func (dec *Decoder) readFileSystemFileHandle() (FileSystemFileHandle, error) {
	name, err := dec.d.ReadRawUTF8String()
	if err != nil {
		return FileSystemFileHandle{}, err
	}
	idx, err := dec.d.ReadUint32Varint()
	if err != nil {
		return FileSystemFileHandle{}, err
	}
	return FileSystemFileHandle{Name: name, TokenIndex: idx}, nil
}

func (dec *Decoder) readAESKey() (WebCryptoKeyType, map[string]any, error) {
	id, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	lengthBytes, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	return WebCryptoKeyTypeSecret, map[string]any{
		"id":          id,
		"length_bits": lengthBytes * 8,
	}, nil
}

func (dec *Decoder) readHMACKey() (WebCryptoKeyType, map[string]any, error) {
	lengthBytes, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	hash, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	return WebCryptoKeyTypeSecret, map[string]any{
		"id":          hash,
		"length_bits": lengthBytes * 8,
	}, nil
}

func (dec *Decoder) readRSAHashedKey() (WebCryptoKeyType, map[string]any, error) {
	id, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	rawKeyType, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	modulusLengthBits, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	publicExponentSize, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	publicExponentBytes, err := dec.d.ReadRawBytes(int(publicExponentSize))
	if err != nil {
		return 0, nil, err
	}
	hash, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	return WebCryptoKeyType(rawKeyType), map[string]any{
		"id":                    id,
		"modulus_length_bits":   modulusLengthBits,
		"public_exponent_size":  publicExponentSize,
		"public_exponent_bytes": publicExponentBytes,
		"hash":                  hash,
	}, nil
}

func (dec *Decoder) readECKey() (WebCryptoKeyType, map[string]any, error) {
	id, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	rawKeyType, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	namedCurve, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	return WebCryptoKeyType(rawKeyType), map[string]any{
		"id":          id,
		"named_curve": namedCurve,
	}, nil
}

func (dec *Decoder) readED25519Key() (WebCryptoKeyType, map[string]any, error) {
	id, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	rawKeyType, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	return WebCryptoKeyType(rawKeyType), map[string]any{"id": id}, nil
}

func (dec *Decoder) readNoParamsKey() (WebCryptoKeyType, map[string]any, error) {
	id, err := dec.d.ReadUint32Varint()
	if err != nil {
		return 0, nil, err
	}
	return WebCryptoKeyTypeSecret, map[string]any{"id": id}, nil
}

const cryptoKeyUsageExtractable = 1 << 0

func (dec *Decoder) readCryptoKey() (CryptoKey, error) {
	subTagByte, err := dec.d.R.DecodeUint8()
	if err != nil {
		return CryptoKey{}, err
	}
	var keyType WebCryptoKeyType
	var params map[string]any
	switch CryptoKeySubTag(subTagByte) {
	case CryptoKeySubTagAES:
		keyType, params, err = dec.readAESKey()
	case CryptoKeySubTagHMAC:
		keyType, params, err = dec.readHMACKey()
	case CryptoKeySubTagRSAHashed:
		keyType, params, err = dec.readRSAHashedKey()
	case CryptoKeySubTagEC:
		keyType, params, err = dec.readECKey()
	case CryptoKeySubTagED25519:
		keyType, params, err = dec.readED25519Key()
	case CryptoKeySubTagNoParams:
		keyType, params, err = dec.readNoParamsKey()
	default:
		return CryptoKey{}, errors.Newf("dfindexeddb/blink: unknown crypto key sub-tag %d", subTagByte)
	}
	if err != nil {
		return CryptoKey{}, err
	}
	usages, err := dec.d.ReadUint32Varint()
	if err != nil {
		return CryptoKey{}, err
	}
	keyDataLength, err := dec.d.ReadUint32Varint()
	if err != nil {
		return CryptoKey{}, err
	}
	keyData, err := dec.d.ReadRawBytes(int(keyDataLength))
	if err != nil {
		return CryptoKey{}, err
	}
	return CryptoKey{
		KeyType:             keyType,
		AlgorithmParameters: params,
		Extractable:         usages&cryptoKeyUsageExtractable != 0,
		Usages:              usages,
		KeyData:             keyData,
	}, nil
}
