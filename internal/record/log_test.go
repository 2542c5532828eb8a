// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package record

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func appendPhysicalRecord(buf []byte, typ PhysicalRecordType, payload []byte) []byte {
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], crc32.ChecksumIEEE(append([]byte{byte(typ)}, payload...)))
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(payload)))
	header[6] = byte(typ)
	buf = append(buf, header...)
	buf = append(buf, payload...)
	return buf
}

func writeBatchBytes(seq uint64, entries ...ParsedInternalKey) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint64(buf[0:8], seq)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(entries)))
	for _, e := range entries {
		buf = append(buf, byte(e.Type))
		buf = appendLenPrefixed(buf, e.Key)
		if e.Type == ValueType {
			buf = appendLenPrefixed(buf, e.Value)
		}
	}
	return buf
}

func appendLenPrefixed(buf []byte, b []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	buf = append(buf, lenBuf[:n]...)
	buf = append(buf, b...)
	return buf
}

func TestReaderFullRecordRoundTrip(t *testing.T) {
	payload := writeBatchBytes(42, ParsedInternalKey{Type: ValueType, Key: []byte("k1"), Value: []byte("v1")})
	buf := appendPhysicalRecord(nil, FullType, payload)

	dir := t.TempDir()
	path := filepath.Join(dir, "000001.log")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.NextWriteBatch()
	require.NoError(t, err)
	require.Equal(t, uint64(42), batch.Sequence)
	require.Len(t, batch.Entries, 1)
	require.Equal(t, []byte("k1"), batch.Entries[0].Key)
	require.Equal(t, []byte("v1"), batch.Entries[0].Value)
	require.Equal(t, uint64(42), batch.Entries[0].Sequence)
}

func TestReaderSplitRecord(t *testing.T) {
	payload := writeBatchBytes(7, ParsedInternalKey{Type: ValueType, Key: []byte("split-key"), Value: []byte("split-value")})
	var buf []byte
	buf = appendPhysicalRecord(buf, FirstType, payload[:5])
	buf = appendPhysicalRecord(buf, MiddleType, payload[5:10])
	buf = appendPhysicalRecord(buf, LastType, payload[10:])

	dir := t.TempDir()
	path := filepath.Join(dir, "000002.log")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.NextWriteBatch()
	require.NoError(t, err)
	require.Equal(t, uint64(7), batch.Sequence)
	require.Equal(t, []byte("split-key"), batch.Entries[0].Key)
}

func TestReaderOrphanMiddleIsAnError(t *testing.T) {
	buf := appendPhysicalRecord(nil, MiddleType, []byte("orphan"))

	dir := t.TempDir()
	path := filepath.Join(dir, "000003.log")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.NextWriteBatch()
	require.Error(t, err)
}

// TestReaderRecoversAfterOrphanRecord proves that the orphan detected by
// TestReaderOrphanMiddleIsAnError doesn't swallow what follows it: a caller
// that keeps calling NextWriteBatch after an error (rather than stopping at
// the first one) must still see the valid batch that comes after the
// corrupt record, per spec.md §7's "one bad record never hides the records
// that follow it".
func TestReaderRecoversAfterOrphanRecord(t *testing.T) {
	buf := appendPhysicalRecord(nil, MiddleType, []byte("orphan"))
	payload := writeBatchBytes(9, ParsedInternalKey{Type: ValueType, Key: []byte("k9"), Value: []byte("v9")})
	buf = appendPhysicalRecord(buf, FullType, payload)

	dir := t.TempDir()
	path := filepath.Join(dir, "000005.log")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.NextWriteBatch()
	require.Error(t, err)

	batch, err := r.NextWriteBatch()
	require.NoError(t, err)
	require.Equal(t, uint64(9), batch.Sequence)
	require.Equal(t, []byte("k9"), batch.Entries[0].Key)
	require.Equal(t, []byte("v9"), batch.Entries[0].Value)
}

func TestReaderDeletedEntryHasNoValue(t *testing.T) {
	payload := writeBatchBytes(1, ParsedInternalKey{Type: DeletedType, Key: []byte("gone")})
	buf := appendPhysicalRecord(nil, FullType, payload)

	dir := t.TempDir()
	path := filepath.Join(dir, "000004.log")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	batch, err := r.NextWriteBatch()
	require.NoError(t, err)
	require.Equal(t, DeletedType, batch.Entries[0].Type)
	require.Empty(t, batch.Entries[0].Value)
}
