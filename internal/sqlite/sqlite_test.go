// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedChromium(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE records (
		row_id INTEGER PRIMARY KEY,
		object_store_id INTEGER,
		compression_type INTEGER,
		key BLOB,
		value BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO records VALUES (1, 3, 0, ?, ?)`,
		[]byte{0x01, 0x02}, []byte{0xAA, 0xBB})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO records VALUES (2, 3, 1, ?, ?)`,
		[]byte{0x03}, []byte{0xCC})
	require.NoError(t, err)
}

func TestOpenChromiumIteratesAllRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idb.sqlite3")
	seedChromium(t, path)

	it, err := OpenChromium(context.Background(), path)
	require.NoError(t, err)
	defer it.Close()

	var rows []Row
	for {
		row, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}

	require.Len(t, rows, 2)
	require.Equal(t, int64(1), rows[0].RowID)
	require.Equal(t, int64(3), rows[0].ObjectStoreID)
	require.Equal(t, 0, rows[0].CompressionType)
	require.Equal(t, []byte{0x01, 0x02}, rows[0].RawKey)
	require.Equal(t, []byte{0xAA, 0xBB}, rows[0].RawValue)
	require.Equal(t, 1, rows[1].CompressionType)
}

func TestOpenChromiumMissingFile(t *testing.T) {
	_, err := OpenChromium(context.Background(), filepath.Join(t.TempDir(), "missing.sqlite3"))
	require.Error(t, err)
}
