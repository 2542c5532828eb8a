// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package sqlite is the external collaborator boundary for the three
// SQLite-backed IndexedDB backends (Chromium, Firefox, Safari). It opens a
// database read-only and yields rows as opaque byte tuples; it never
// decodes a key or value. Decoding those bytes is internal/chromium's,
// internal/gecko's and internal/webkit's job respectively. See spec.md §6.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	// modernc.org/sqlite is a pure-Go SQLite driver, avoiding the cgo
	// dependency a database/sql driver would otherwise force on every
	// caller of this module.
	_ "modernc.org/sqlite"
)

// Row is a single opaque IndexedDB record observed in a SQLite-backed
// store, normalized across the three backend schemas named in spec.md §6.
// CompressionType is always 0 (uncompressed) for Firefox and Safari, which
// don't have a per-row compression flag.
type Row struct {
	RowID           int64
	ObjectStoreID   int64
	CompressionType int
	RawKey          []byte
	RawValue        []byte
}

// RowIterator yields Rows one at a time until exhausted.
type RowIterator interface {
	// Next advances to the next row. It returns ok=false once exhausted,
	// with err nil on clean exhaustion.
	Next(ctx context.Context) (row Row, ok bool, err error)
	Close() error
}

type rowsIterator struct {
	rows *sql.Rows
	scan func(*sql.Rows) (Row, error)
	db   *sql.DB
}

func (it *rowsIterator) Next(ctx context.Context) (Row, bool, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return Row{}, false, errors.Wrap(err, "dfindexeddb/sqlite: row iteration")
		}
		return Row{}, false, nil
	}
	row, err := it.scan(it.rows)
	if err != nil {
		return Row{}, false, errors.Wrap(err, "dfindexeddb/sqlite: scan row")
	}
	return row, true, nil
}

func (it *rowsIterator) Close() error {
	cerr := it.rows.Close()
	derr := it.db.Close()
	if cerr != nil {
		return errors.Wrap(cerr, "dfindexeddb/sqlite: close rows")
	}
	if derr != nil {
		return errors.Wrap(derr, "dfindexeddb/sqlite: close database")
	}
	return nil
}

func open(ctx context.Context, filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+filename+"?mode=ro&immutable=1")
	if err != nil {
		return nil, errors.Wrapf(err, "dfindexeddb/sqlite: open %s", filename)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "dfindexeddb/sqlite: ping %s", filename)
	}
	return db, nil
}

func scanChromiumRow(rows *sql.Rows) (Row, error) {
	var row Row
	if err := rows.Scan(&row.RowID, &row.ObjectStoreID, &row.CompressionType,
		&row.RawKey, &row.RawValue); err != nil {
		return Row{}, err
	}
	return row, nil
}

// OpenChromium opens a Chromium IndexedDB sqlite3 database (the
// `records` table: row_id, object_store_id, compression_type, key, value)
// and returns an iterator over every row.
func OpenChromium(ctx context.Context, filename string) (RowIterator, error) {
	db, err := open(ctx, filename)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT row_id, object_store_id, compression_type, key, value FROM records")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sqlite: query chromium records")
	}
	return &rowsIterator{rows: rows, scan: scanChromiumRow, db: db}, nil
}

func scanUncompressedRow(rows *sql.Rows) (Row, error) {
	var row Row
	if err := rows.Scan(&row.RowID, &row.ObjectStoreID, &row.RawKey,
		&row.RawValue); err != nil {
		return Row{}, err
	}
	return row, nil
}

// OpenFirefox opens a Firefox IndexedDB sqlite3 database. Firefox keys one
// record table per object store and does not number rows directly, so
// object_data's own rowid stands in for RowID; object_store_id, key and data
// are read from object_data's own columns, with no join.
func OpenFirefox(ctx context.Context, filename string) (RowIterator, error) {
	db, err := open(ctx, filename)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT object_data.rowid, object_data.object_store_id, "+
			"object_data.key, object_data.data "+
			"FROM object_data")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sqlite: query firefox object_data")
	}
	return &rowsIterator{rows: rows, scan: scanUncompressedRow, db: db}, nil
}

// OpenSafari opens a Safari IndexedDB sqlite3 database, following the
// Records/ObjectStoreInfo schema named in spec.md §6
// (Records.key, Records.value, objectStoreID, ObjectStoreInfo.name,
// recordID).
func OpenSafari(ctx context.Context, filename string) (RowIterator, error) {
	db, err := open(ctx, filename)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT recordID, objectStoreID, key, value FROM Records")
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "dfindexeddb/sqlite: query safari Records")
	}
	return &rowsIterator{rows: rows, scan: scanUncompressedRow, db: db}, nil
}
