// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package folder

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testFooterLen  = 48
	testMagicBytes = "\x57\xfb\x80\x8b\x24\x75\x47\xdb"
)

// buildSingleEntryTable writes a minimal one-data-block SST file containing
// a single internal key, with padding bytes before the data block so two
// tables built with different padding land their (only) block at different
// file offsets -- letting tests exercise offset-based tie-breaking without
// needing a multi-block table.
func buildSingleEntryTable(t *testing.T, path string, padding int, key string, seq uint64, value string) {
	t.Helper()
	ik := internalKeyBytesTable(key, seq, 1)

	var dataBody []byte
	dataBody = putUvarintTable(dataBody, 0)
	dataBody = putUvarintTable(dataBody, uint64(len(ik)))
	dataBody = putUvarintTable(dataBody, uint64(len(value)))
	dataBody = append(dataBody, ik...)
	dataBody = append(dataBody, []byte(value)...)
	dataBody = withRestartTrailerTable(dataBody, []uint32{0})
	dataBlock := withTrailerTable(dataBody)

	file := make([]byte, padding)
	dataOffset := uint64(len(file))
	file = append(file, dataBlock...)

	handleBuf := putUvarintTable(putUvarintTable(nil, dataOffset), uint64(len(dataBody)))
	var indexBody []byte
	indexBody = putUvarintTable(indexBody, 0)
	indexBody = putUvarintTable(indexBody, 1)
	indexBody = putUvarintTable(indexBody, uint64(len(handleBuf)))
	indexBody = append(indexBody, '~')
	indexBody = append(indexBody, handleBuf...)
	indexBody = withRestartTrailerTable(indexBody, []uint32{0})
	indexOffset := uint64(len(file))
	file = append(file, withTrailerTable(indexBody)...)

	metaBody := withRestartTrailerTable(nil, nil)
	metaOffset := uint64(len(file))
	file = append(file, withTrailerTable(metaBody)...)

	footer := make([]byte, 0, testFooterLen)
	footer = putUvarintTable(footer, metaOffset)
	footer = putUvarintTable(footer, uint64(len(metaBody)))
	footer = putUvarintTable(footer, indexOffset)
	footer = putUvarintTable(footer, uint64(len(indexBody)))
	for len(footer) < testFooterLen-len(testMagicBytes) {
		footer = append(footer, 0)
	}
	footer = append(footer, testMagicBytes...)
	file = append(file, footer...)

	require.NoError(t, os.WriteFile(path, file, 0o644))
}

func putUvarintTable(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func withRestartTrailerTable(body []byte, restarts []uint32) []byte {
	for _, off := range restarts {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], off)
		body = append(body, b[:]...)
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(restarts)))
	return append(body, n[:]...)
}

func withTrailerTable(block []byte) []byte {
	block = append(block, 0) // NoCompression
	var crc [4]byte          // checksum verification is not enforced by this reader
	return append(block, crc[:]...)
}

func internalKeyBytesTable(userKey string, seq uint64, typ byte) []byte {
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

func writeLogFile(t *testing.T, path string, seq uint64, key, value string) {
	t.Helper()
	body := make([]byte, 12)
	binary.LittleEndian.PutUint64(body[0:8], seq)
	binary.LittleEndian.PutUint32(body[8:12], 1)
	body = append(body, 1) // ValueType
	body = appendLenPrefixed(body, []byte(key))
	body = appendLenPrefixed(body, []byte(value))

	header := make([]byte, 7)
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(body)))
	header[6] = 1 // FullType
	buf := append(header, body...)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func appendLenPrefixed(buf []byte, b []byte) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(b)))
	buf = append(buf, tmp[:n]...)
	return append(buf, b...)
}

func appendPhysicalRecord(buf []byte, typ byte, payload []byte) []byte {
	header := make([]byte, 7)
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(payload)))
	header[6] = typ
	buf = append(buf, header...)
	return append(buf, payload...)
}

func TestAdHocConcatenatesLogFiles(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, filepath.Join(dir, "000001.log"), 1, "k1", "v1")

	recs, err := AdHoc(dir)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Nil(t, recs[0].Level)
	require.Nil(t, recs[0].Recovered)
	require.Equal(t, []byte("k1"), recs[0].Key)
}

func TestManifestErrorsWithoutCurrent(t *testing.T) {
	dir := t.TempDir()
	_, err := Manifest(dir)
	require.Error(t, err)
}

func putLenPrefixedTable(buf []byte, b []byte) []byte {
	buf = putUvarintTable(buf, uint64(len(b)))
	return append(buf, b...)
}

// buildManifest writes a single-VersionEdit MANIFEST file (plus the CURRENT
// file naming it) that puts one new_file entry per (level, fileNum) pair
// into dir.
func buildManifest(t *testing.T, dir string, newFiles [][2]uint64) {
	t.Helper()
	var body []byte
	for _, nf := range newFiles {
		level, fileNum := nf[0], nf[1]
		body = putUvarintTable(body, 7) // tagNewFile
		body = putUvarintTable(body, level)
		body = putUvarintTable(body, fileNum)
		body = putUvarintTable(body, 1024) // size
		body = putLenPrefixedTable(body, internalKeyBytesTable("dup", 100, 1))
		body = putLenPrefixedTable(body, internalKeyBytesTable("dup", 100, 1))
	}
	buf := appendPhysicalRecord(nil, 1, body) // FullType

	require.NoError(t, os.WriteFile(filepath.Join(dir, "MANIFEST-000001"), buf, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("MANIFEST-000001\n"), 0o644))
}

// TestManifestBreaksLevel0SequenceTiesByOffset proves that two level-0
// tables flushed with the same (duplicated) sequence number resolve which
// one is "live" deterministically by block offset, not by Go's randomized
// map iteration order: the lower-offset copy always wins regardless of
// which file number is higher (spec.md §4.5/§5).
func TestManifestBreaksLevel0SequenceTiesByOffset(t *testing.T) {
	dir := t.TempDir()
	buildManifest(t, dir, [][2]uint64{{0, 3}, {0, 2}})
	buildSingleEntryTable(t, filepath.Join(dir, "000002.ldb"), 0, "dup", 100, "from-2")
	buildSingleEntryTable(t, filepath.Join(dir, "000003.ldb"), 64, "dup", 100, "from-3")

	for i := 0; i < 5; i++ {
		recs, err := Manifest(dir)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		require.Equal(t, "from-2", string(recs[0].Value))
		require.False(t, *recs[0].Recovered)
		require.Equal(t, "from-3", string(recs[1].Value))
		require.True(t, *recs[1].Recovered)
	}
}

// TestReadLogRecordsRecoversAfterOrphan proves that a corrupt WriteBatch
// partway through a .log file doesn't hide every WriteBatch after it:
// readLogRecords must keep scanning past a framing error instead of
// stopping at the first non-EOF error from the underlying record.Reader
// (spec.md §7).
func TestReadLogRecordsRecoversAfterOrphan(t *testing.T) {
	var buf []byte
	buf = appendPhysicalRecord(buf, 3, []byte("orphan")) // MiddleType with no preceding FIRST

	body := make([]byte, 12)
	binary.LittleEndian.PutUint64(body[0:8], 9)
	binary.LittleEndian.PutUint32(body[8:12], 1)
	body = append(body, 1) // ValueType
	body = appendLenPrefixed(body, []byte("k9"))
	body = appendLenPrefixed(body, []byte("v9"))
	buf = appendPhysicalRecord(buf, 1, body) // FullType

	dir := t.TempDir()
	path := filepath.Join(dir, "000001.log")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	recs, err := readLogRecords(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, []byte("k9"), recs[0].Key)
	require.Equal(t, []byte("v9"), recs[0].Value)
}
