// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package blink decodes Blink's outer envelope around a V8 ValueDeserializer
// stream and the Blink host-object tag set (Blob, File, DOMPoint, CryptoKey,
// and friends) that the inner V8 decoder delegates to. See spec.md §4.7.
package blink

// Tag is a Blink host-object serialization tag byte.
type Tag byte

const (
	TagMessagePort               Tag = 'M'
	TagMojoHandle                Tag = 'h'
	TagBlob                      Tag = 'b'
	TagBlobIndex                 Tag = 'i'
	TagFile                      Tag = 'f'
	TagFileIndex                 Tag = 'e'
	TagDOMFileSystem             Tag = 'd'
	TagFileSystemFileHandle      Tag = 'n'
	TagFileSystemDirectoryHandle Tag = 'N'
	TagFileList                  Tag = 'l'
	TagFileListIndex             Tag = 'L'
	TagImageData                 Tag = '#'
	TagImageBitmap               Tag = 'g'
	TagImageBitmapTransfer       Tag = 'G'
	TagOffscreenCanvasTransfer   Tag = 'H'
	TagReadableStreamTransfer    Tag = 'r'
	TagTransformStreamTransfer   Tag = 'm'
	TagWritableStreamTransfer    Tag = 'w'
	TagMediaStreamTrack          Tag = 's'
	TagDOMPoint                  Tag = 'Q'
	TagDOMPointReadOnly          Tag = 'W'
	TagDOMRect                   Tag = 'E'
	TagDOMRectReadOnly           Tag = 'R'
	TagDOMQuad                   Tag = 'T'
	TagDOMMatrix                 Tag = 'Y'
	TagDOMMatrixReadOnly         Tag = 'U'
	TagDOMMatrix2D               Tag = 'I'
	TagDOMMatrix2DReadOnly       Tag = 'O'
	TagCryptoKey                 Tag = 'K'
	TagRTCCertificate            Tag = 'k'
	TagRTCEncodedAudioFrame      Tag = 'A'
	TagRTCEncodedVideoFrame      Tag = 'V'
	TagAudioData                 Tag = 'a'
	TagVideoFrame                Tag = 'v'
	TagEncodedAudioChunk         Tag = 'y'
	TagEncodedVideoChunk         Tag = 'z'
	TagCropTarget                Tag = 'c'
	TagRestrictionTarget         Tag = 'D'
	TagMediaSourceHandle         Tag = 'S'
	TagFencedFrameConfig         Tag = 'C'
	TagDOMException              Tag = 'x'
	TagTrailerOffset             Tag = 0xFE
	TagVersion                   Tag = 0xFF
)

// CryptoKeySubTag distinguishes the algorithm family of a CryptoKey host
// object.
type CryptoKeySubTag byte

const (
	CryptoKeySubTagAES        CryptoKeySubTag = 1
	CryptoKeySubTagHMAC       CryptoKeySubTag = 2
	CryptoKeySubTagRSAHashed  CryptoKeySubTag = 4
	CryptoKeySubTagEC         CryptoKeySubTag = 5
	CryptoKeySubTagNoParams   CryptoKeySubTag = 6
	CryptoKeySubTagED25519    CryptoKeySubTag = 7
)

// WebCryptoKeyType classifies the key material a CryptoKey wraps.
type WebCryptoKeyType int

const (
	WebCryptoKeyTypeSecret WebCryptoKeyType = iota
	WebCryptoKeyTypePublic
	WebCryptoKeyTypePrivate
)

// Blob is a parsed Javascript Blob.
type Blob struct {
	UUID string
	Type string
	Size uint64
}

// BlobIndex is a parsed out-of-line Blob reference.
type BlobIndex struct{ Index uint32 }

// File is a parsed Javascript File.
type File struct {
	Path            string
	Name            string
	RelativePath    string
	UUID            string
	Type            string
	HasSnapshot     bool
	Size            int64
	LastModifiedMs  float64
	IsUserVisible   bool
}

// FileIndex is a parsed out-of-line File reference.
type FileIndex struct{ Index uint32 }

// FileList is a parsed Javascript FileList.
type FileList struct{ Files []File }

// FileListIndex is a parsed out-of-line FileList reference.
type FileListIndex struct{ Indices []uint32 }

// DOMPoint is a parsed DOMPoint/DOMPointReadOnly.
type DOMPoint struct{ X, Y, Z, W float64 }

// DOMRect is a parsed DOMRect/DOMRectReadOnly.
type DOMRect struct{ X, Y, Width, Height float64 }

// DOMQuad is a parsed DOMQuad: four corner points.
type DOMQuad struct{ P1, P2, P3, P4 DOMPoint }

// DOMMatrix2D is a parsed 2D DOMMatrix/DOMMatrix2D(ReadOnly): 6 components.
type DOMMatrix2D struct{ Values [6]float64 }

// DOMMatrix is a parsed 4x4 DOMMatrix/DOMMatrixReadOnly: 16 components.
type DOMMatrix struct{ Values [16]float64 }

// MessagePort, MojoHandle, and the stream/media-transfer host objects all
// resolve to a transferred index into a side channel this decoder does not
// reconstruct; only the index is retained.
type TransferredIndex struct {
	Kind  Tag
	Index uint32
}

// OffscreenCanvasTransfer is a parsed offscreen-canvas transfer record.
type OffscreenCanvasTransfer struct {
	Width, Height, CanvasID, ClientID, SinkID, FilterQuality uint32
}

// DOMException is a parsed Javascript DOMException.
type DOMException struct{ Name, Message, StackUnused string }

// CryptoKey is a parsed Web Crypto key.
type CryptoKey struct {
	KeyType              WebCryptoKeyType
	AlgorithmParameters  map[string]any
	Extractable          bool
	Usages               uint32
	KeyData              []byte
}

// DOMFileSystem is a parsed Javascript DOMFileSystem.
type DOMFileSystem struct {
	RawType uint32
	Name    string
	RootURL string
}

// FileSystemFileHandle is a parsed File System Access file handle.
type FileSystemFileHandle struct {
	Name       string
	TokenIndex uint32
}
