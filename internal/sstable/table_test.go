// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sstable

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func putUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// encodeDataBlockEntry encodes one shared/unshared-prefix entry with shared=0
// (every key is written in full, for test simplicity).
func encodeDataBlockEntry(buf []byte, key, value []byte) []byte {
	buf = putUvarint(buf, 0)
	buf = putUvarint(buf, uint64(len(key)))
	buf = putUvarint(buf, uint64(len(value)))
	buf = append(buf, key...)
	buf = append(buf, value...)
	return buf
}

func withRestartTrailer(body []byte, restarts []uint32) []byte {
	for _, off := range restarts {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], off)
		body = append(body, b[:]...)
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(restarts)))
	return append(body, n[:]...)
}

func withTrailer(block []byte, compression CompressionType) []byte {
	block = append(block, byte(compression))
	var crc [4]byte // checksum verification is not enforced by this reader
	return append(block, crc[:]...)
}

func internalKey(userKey string, seq uint64, typ byte) []byte {
	key := []byte(userKey)
	tail := make([]byte, 8)
	s := seq
	for i := 0; i < 7; i++ {
		tail[i] = byte(s)
		s >>= 8
	}
	tail[7] = typ
	return append(key, tail...)
}

// buildTestTable assembles a minimal one-data-block SST file with entries in
// increasing user-key order.
func buildTestTable(t *testing.T, path string, kvs []struct {
	key   string
	seq   uint64
	typ   byte
	value string
}) {
	t.Helper()
	var dataBody []byte
	for _, kv := range kvs {
		dataBody = encodeDataBlockEntry(dataBody, internalKey(kv.key, kv.seq, kv.typ), []byte(kv.value))
	}
	dataBody = withRestartTrailer(dataBody, []uint32{0})
	dataBlock := withTrailer(dataBody, NoCompression)

	var file []byte
	dataOffset := uint64(len(file))
	file = append(file, dataBlock...)

	// Index block: single entry pointing at the data block; key is
	// irrelevant for a sequential scan.
	handleBuf := putUvarint(putUvarint(nil, dataOffset), uint64(len(dataBody)))
	var indexBody []byte
	indexBody = encodeDataBlockEntry(indexBody, []byte("~"), handleBuf)
	indexBody = withRestartTrailer(indexBody, []uint32{0})
	indexOffset := uint64(len(file))
	indexBlock := withTrailer(indexBody, NoCompression)
	file = append(file, indexBlock...)

	// Empty metaindex block.
	metaBody := withRestartTrailer(nil, nil)
	metaOffset := uint64(len(file))
	metaBlock := withTrailer(metaBody, NoCompression)
	file = append(file, metaBlock...)

	footer := make([]byte, 0, footerLen)
	footer = putUvarint(footer, metaOffset)
	footer = putUvarint(footer, uint64(len(metaBody)))
	footer = putUvarint(footer, indexOffset)
	footer = putUvarint(footer, uint64(len(indexBody)))
	for len(footer) < footerLen-magicLen {
		footer = append(footer, 0)
	}
	footer = append(footer, magicBytes...)
	file = append(file, footer...)

	require.NoError(t, os.WriteFile(path, file, 0o644))
}

func TestReaderDecodesKeyValueRecordsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "000001.ldb")
	buildTestTable(t, path, []struct {
		key   string
		seq   uint64
		typ   byte
		value string
	}{
		{"apple", 1, 1, "red"},
		{"banana", 2, 1, "yellow"},
		{"cherry", 3, 1, "red"},
	})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	recs, err := r.GetKeyValueRecords()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, []byte("apple"), recs[0].UserKey)
	require.Equal(t, []byte("banana"), recs[1].UserKey)
	require.Equal(t, []byte("cherry"), recs[2].UserKey)
	require.Equal(t, uint64(2), recs[1].Sequence)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ldb")
	require.NoError(t, os.WriteFile(path, make([]byte, footerLen), 0o644))
	_, err := Open(path)
	require.Error(t, err)
}
