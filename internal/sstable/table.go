// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package sstable reads LevelDB sorted-string tables: footer, index block,
// data blocks, and the shared/unshared-prefix key encoding within them. See
// spec.md §4.3.
//
// Only sequential iteration is implemented; restart points are parsed but
// not used for binary-search lookup, since forensic recovery only needs to
// walk every record in a table once.
package sstable

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/google/dfindexeddb-go/internal/stream"
)

const (
	footerLen  = 48
	magicLen   = 8
	magicBytes = "\x57\xfb\x80\x8b\x24\x75\x47\xdb"

	trailerLen = 5 // compression tag (1) + crc32c (4)
)

// CompressionType is the per-block compression tag stored in a block's
// trailer.
type CompressionType byte

const (
	NoCompression     CompressionType = 0
	SnappyCompression CompressionType = 1
	ZstdCompression   CompressionType = 2
)

// BlockHandle is an (offset, length) pair pointing at a block, excluding its
// 5-byte trailer.
type BlockHandle struct {
	Offset uint64
	Length uint64
}

// KeyValueRecord is one decoded entry of a data block, with the trailing
// 8-byte internal-key tail split out.
type KeyValueRecord struct {
	UserKey  []byte
	Sequence uint64
	Type     byte
	Value    []byte
	// Offset is the file offset of the block containing this record.
	Offset int64
}

// Reader reads a single SST/LDB file.
type Reader struct {
	f    *os.File
	size int64

	metaindexHandle BlockHandle
	indexHandle     BlockHandle
}

// Open validates the trailing magic number and footer, and returns a Reader
// ready to iterate.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dfindexeddb/sstable: open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()
	if size < footerLen {
		f.Close()
		return nil, errors.Newf("dfindexeddb/sstable: %s too small to contain a footer", path)
	}
	footerBuf := make([]byte, footerLen)
	if _, err := f.ReadAt(footerBuf, size-footerLen); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "dfindexeddb/sstable: read footer of %s", path)
	}
	magicOffset := footerLen - magicLen
	if string(footerBuf[magicOffset:]) != magicBytes {
		f.Close()
		return nil, errors.Newf("dfindexeddb/sstable: %s has bad magic number", path)
	}
	r := stream.NewReader(footerBuf[:magicOffset])
	metaOffset, err := r.DecodeVarint(0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sstable: metaindex handle offset")
	}
	metaLen, err := r.DecodeVarint(0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sstable: metaindex handle length")
	}
	idxOffset, err := r.DecodeVarint(0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sstable: index handle offset")
	}
	idxLen, err := r.DecodeVarint(0)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sstable: index handle length")
	}
	return &Reader{
		f:               f,
		size:            size,
		metaindexHandle: BlockHandle{Offset: metaOffset, Length: metaLen},
		indexHandle:     BlockHandle{Offset: idxOffset, Length: idxLen},
	}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// readBlock loads the block named by h, strips its trailer, and decompresses
// its payload according to the trailer's compression tag.
func (r *Reader) readBlock(h BlockHandle) ([]byte, error) {
	buf := make([]byte, h.Length+trailerLen)
	if _, err := r.f.ReadAt(buf, int64(h.Offset)); err != nil {
		return nil, errors.Wrapf(err, "dfindexeddb/sstable: read block at offset %d", h.Offset)
	}
	payload := buf[:h.Length]
	trailer := buf[h.Length:]
	switch CompressionType(trailer[0]) {
	case NoCompression:
		return payload, nil
	case SnappyCompression:
		out, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, errors.Wrapf(err, "dfindexeddb/sstable: snappy decompress block at offset %d", h.Offset)
		}
		return out, nil
	case ZstdCompression:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "dfindexeddb/sstable: zstd decompress block at offset %d", h.Offset)
		}
		return out, nil
	default:
		return nil, errors.Newf("dfindexeddb/sstable: unknown compression tag %d at offset %d", trailer[0], h.Offset)
	}
}

// decodeBlockHandle reads a varint-encoded (offset, length) pair, as found
// inside index-block and metaindex-block values.
func decodeBlockHandle(b []byte) (BlockHandle, error) {
	r := stream.NewReader(b)
	off, err := r.DecodeVarint(0)
	if err != nil {
		return BlockHandle{}, err
	}
	length, err := r.DecodeVarint(0)
	if err != nil {
		return BlockHandle{}, err
	}
	return BlockHandle{Offset: off, Length: length}, nil
}

// blockEntry is one shared/unshared-prefix entry decoded from a data block.
type blockEntry struct {
	key   []byte
	value []byte
}

// decodeBlockEntries walks every shared/unshared-prefix entry in a
// (decompressed, trailer-stripped) block payload, ignoring the trailing
// restart-point index (sequential scan does not need it).
func decodeBlockEntries(payload []byte) ([]blockEntry, error) {
	if len(payload) < 4 {
		return nil, errors.Newf("dfindexeddb/sstable: block payload too small (%d bytes)", len(payload))
	}
	numRestarts := int(payload[len(payload)-4]) | int(payload[len(payload)-3])<<8 |
		int(payload[len(payload)-2])<<16 | int(payload[len(payload)-1])<<24
	restartsLen := 4 + numRestarts*4
	if restartsLen > len(payload) {
		return nil, errors.Newf("dfindexeddb/sstable: restart trailer (%d bytes) exceeds block (%d bytes)", restartsLen, len(payload))
	}
	body := payload[:len(payload)-restartsLen]

	var entries []blockEntry
	var priorKey []byte
	r := stream.NewReader(body)
	for r.NumRemaining() > 0 {
		shared, err := r.DecodeVarint(0)
		if err != nil {
			return entries, errors.Wrap(err, "dfindexeddb/sstable: entry shared-prefix length")
		}
		unshared, err := r.DecodeVarint(0)
		if err != nil {
			return entries, errors.Wrap(err, "dfindexeddb/sstable: entry unshared length")
		}
		valueLen, err := r.DecodeVarint(0)
		if err != nil {
			return entries, errors.Wrap(err, "dfindexeddb/sstable: entry value length")
		}
		delta, err := r.ReadBytes(int(unshared))
		if err != nil {
			return entries, errors.Wrap(err, "dfindexeddb/sstable: entry key delta")
		}
		value, err := r.ReadBytes(int(valueLen))
		if err != nil {
			return entries, errors.Wrap(err, "dfindexeddb/sstable: entry value")
		}
		if int(shared) > len(priorKey) {
			return entries, errors.Newf("dfindexeddb/sstable: shared length %d exceeds prior key length %d", shared, len(priorKey))
		}
		key := make([]byte, 0, int(shared)+len(delta))
		key = append(key, priorKey[:shared]...)
		key = append(key, delta...)
		entries = append(entries, blockEntry{key: key, value: value})
		priorKey = key
	}
	return entries, nil
}

// splitInternalKeyTail splits the trailing 8 bytes of a full key into
// (user key, sequence, type) per LevelDB's internal-key tail convention:
// 7 bytes of sequence number followed by 1 byte of record type.
func splitInternalKeyTail(fullKey []byte) ([]byte, uint64, byte, error) {
	if len(fullKey) < 8 {
		return nil, 0, 0, errors.Newf("dfindexeddb/sstable: internal key %d bytes, need >= 8", len(fullKey))
	}
	tail := fullKey[len(fullKey)-8:]
	userKey := fullKey[:len(fullKey)-8]
	var seq uint64
	for i := 6; i >= 0; i-- {
		seq = seq<<8 | uint64(tail[i])
	}
	return userKey, seq, tail[7], nil
}

// GetKeyValueRecords decodes every data block referenced by the index block,
// in file order, yielding keys in non-decreasing order under byte-wise
// comparison of the user-key portion.
func (r *Reader) GetKeyValueRecords() ([]KeyValueRecord, error) {
	indexPayload, err := r.readBlock(r.indexHandle)
	if err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/sstable: read index block")
	}
	indexEntries, err := decodeBlockEntries(indexPayload)
	if err != nil {
		return nil, errors.Wrap(err, "dfindexeddb/sstable: decode index block")
	}

	var out []KeyValueRecord
	for _, ie := range indexEntries {
		handle, err := decodeBlockHandle(ie.value)
		if err != nil {
			return out, errors.Wrap(err, "dfindexeddb/sstable: decode data block handle")
		}
		dataPayload, err := r.readBlock(handle)
		if err != nil {
			return out, errors.Wrapf(err, "dfindexeddb/sstable: read data block at offset %d", handle.Offset)
		}
		entries, err := decodeBlockEntries(dataPayload)
		if err != nil {
			return out, errors.Wrapf(err, "dfindexeddb/sstable: decode data block at offset %d", handle.Offset)
		}
		for _, e := range entries {
			userKey, seq, typ, err := splitInternalKeyTail(e.key)
			if err != nil {
				return out, err
			}
			out = append(out, KeyValueRecord{
				UserKey:  userKey,
				Sequence: seq,
				Type:     typ,
				Value:    e.value,
				Offset:   int64(handle.Offset),
			})
		}
	}
	return out, nil
}
