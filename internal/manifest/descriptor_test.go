// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

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

func putLenPrefixed(buf []byte, b []byte) []byte {
	buf = putUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

func internalKeyBytes(userKey string, seq uint64, typ byte) []byte {
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

func TestDecodeVersionEditNewFile(t *testing.T) {
	var body []byte
	body = putUvarint(body, tagLogNumber)
	body = putUvarint(body, 7)
	body = putUvarint(body, tagNewFile)
	body = putUvarint(body, 0) // level
	body = putUvarint(body, 42) // file number
	body = putUvarint(body, 1024) // size
	body = putLenPrefixed(body, internalKeyBytes("a", 1, 1))
	body = putLenPrefixed(body, internalKeyBytes("z", 2, 1))

	edit, err := DecodeVersionEdit(body)
	require.NoError(t, err)
	require.True(t, edit.HasLogNumber)
	require.Equal(t, uint64(7), edit.LogNumber)
	require.Len(t, edit.NewFiles, 1)
	require.Equal(t, uint64(42), edit.NewFiles[0].FileNum)
	require.Equal(t, []byte("a"), edit.NewFiles[0].Smallest.UserKey)
	require.Equal(t, []byte("z"), edit.NewFiles[0].Largest.UserKey)
}

func TestFoldVersionEditsAppliesDeletes(t *testing.T) {
	edits := []VersionEdit{
		{NewFiles: []NewFileEntry{{Level: 1, FileNum: 1}, {Level: 1, FileNum: 2}}},
		{DeletedFiles: []DeletedFileEntry{{Level: 1, FileNum: 1}}},
		{HasLastSequence: true, LastSequence: 99},
	}
	v := FoldVersionEdits(edits)
	require.Len(t, v.Active[1], 1)
	_, ok := v.Active[1][2]
	require.True(t, ok)
	_, ok = v.Active[1][1]
	require.False(t, ok)
	require.Equal(t, uint64(99), v.LastSequence)
}

func TestResolveCurrent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("MANIFEST-000001\n"), 0o644))
	path, err := ResolveCurrent(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "MANIFEST-000001"), path)
}

func TestResolveCurrentRejectsMalformedName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CURRENT"), []byte("not-a-manifest\n"), 0o644))
	_, err := ResolveCurrent(dir)
	require.Error(t, err)
}

func appendPhysicalRecord(buf []byte, typ byte, payload []byte) []byte {
	header := make([]byte, 7)
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(payload)))
	header[6] = typ
	buf = append(buf, header...)
	return append(buf, payload...)
}

// TestReadVersionEditsRecoversAfterOrphan proves a corrupt descriptor
// record doesn't hide every VersionEdit after it: ReadVersionEdits must
// keep scanning past a framing error instead of stopping at the first
// non-EOF error from the underlying record.Reader (spec.md §7).
func TestReadVersionEditsRecoversAfterOrphan(t *testing.T) {
	var buf []byte
	buf = appendPhysicalRecord(buf, 3, []byte("orphan")) // MiddleType with no preceding FIRST

	var body []byte
	body = putUvarint(body, tagLastSequence)
	body = putUvarint(body, 99)
	buf = appendPhysicalRecord(buf, 1, body) // FullType

	dir := t.TempDir()
	path := filepath.Join(dir, "MANIFEST-000001")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	edits, err := ReadVersionEdits(path)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	require.True(t, edits[0].HasLastSequence)
	require.Equal(t, uint64(99), edits[0].LastSequence)
}
