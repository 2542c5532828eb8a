// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package folder reconciles every .log and .ldb file in a LevelDB directory
// into a single record stream, optionally cross-referenced against the
// active file set named by CURRENT/MANIFEST so that superseded
// ("recovered") writes can be told apart from live state. See spec.md §4.5.
package folder

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/manifest"
	"github.com/google/dfindexeddb-go/internal/record"
	"github.com/google/dfindexeddb-go/internal/sstable"
)

// Record is a single reconciled key/value observation, uniformly shaped
// whether it came from a .log WriteBatch entry or an .ldb KeyValueRecord.
type Record struct {
	Key      []byte
	Value    []byte
	Deleted  bool
	Sequence uint64
	Source   string // file path this record was read from

	// Offset is the file offset of the block this entry's table record was
	// read from (0 for log entries). It breaks ties on Sequence
	// deterministically, per spec.md §4.5/§5's "file-type precedence...
	// then by offset ascending".
	Offset int64

	// Level and Recovered are nil in ad-hoc mode (no CURRENT/MANIFEST
	// reachable, or the caller did not ask for manifest mode).
	Level     *int
	Recovered *bool
}

var fileNumPattern = regexp.MustCompile(`^(\d{6})\.(log|ldb|sst)$`)

type dirFile struct {
	path    string
	fileNum uint64
	isLog   bool
}

func listDir(dir string) ([]dirFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "dfindexeddb/folder: read dir %s", dir)
	}
	var files []dirFile
	for _, e := range entries {
		m := fileNumPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			continue
		}
		files = append(files, dirFile{
			path:    filepath.Join(dir, e.Name()),
			fileNum: n,
			isLog:   m[2] == "log",
		})
	}
	return files, nil
}

func readLogRecords(path string) ([]Record, error) {
	r, err := record.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []Record
	for {
		batch, err := r.NextWriteBatch()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Framing error: record.Reader has already resumed at the next
			// FULL/FIRST physical record, so one corrupt WriteBatch never
			// hides the ones that follow it (spec.md §7).
			continue
		}
		for _, e := range batch.Entries {
			out = append(out, Record{
				Key:      e.Key,
				Value:    e.Value,
				Deleted:  e.Type == record.DeletedType,
				Sequence: e.Sequence,
				Source:   path,
			})
		}
	}
	return out, nil
}

func readTableRecords(path string) ([]Record, error) {
	r, err := sstable.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	kvs, err := r.GetKeyValueRecords()
	if err != nil && len(kvs) == 0 {
		return nil, err
	}
	out := make([]Record, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, Record{
			Key:      kv.UserKey,
			Value:    kv.Value,
			Deleted:  kv.Type == 0,
			Sequence: kv.Sequence,
			Source:   path,
			Offset:   kv.Offset,
		})
	}
	return out, nil
}

// AdHoc concatenates every .log file's WriteBatch entries followed by every
// .ldb file's KeyValueRecords, with no level/recovered annotation.
func AdHoc(dir string) ([]Record, error) {
	files, err := listDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].isLog != files[j].isLog {
			return files[i].isLog // logs before tables, both in fileNum order
		}
		return files[i].fileNum < files[j].fileNum
	})
	var logs, tables []Record
	for _, f := range files {
		if f.isLog {
			recs, err := readLogRecords(f.path)
			if err != nil {
				continue
			}
			logs = append(logs, recs...)
		} else {
			recs, err := readTableRecords(f.path)
			if err != nil {
				continue
			}
			tables = append(tables, recs...)
		}
	}
	return append(logs, tables...), nil
}

func keyHash(k []byte) uint64 { return xxhash.Sum64(k) }

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// Manifest reconciles dir against CURRENT/MANIFEST: it resolves the latest
// LevelDBVersion, walks the current log and level-0 files newest-sequence
// first to mark exactly one record per key as the live ("not recovered")
// one, then walks levels 1..N, then emits any remaining on-disk files that
// were not part of the active set (all marked recovered).
func Manifest(dir string) ([]Record, error) {
	currentPath, err := manifest.ResolveCurrent(dir)
	if err != nil {
		return nil, err
	}
	edits, err := manifest.ReadVersionEdits(currentPath)
	if err != nil {
		return nil, err
	}
	version := manifest.FoldVersionEdits(edits)

	files, err := listDir(dir)
	if err != nil {
		return nil, err
	}
	byFileNum := make(map[uint64]dirFile, len(files))
	for _, f := range files {
		byFileNum[f.fileNum] = f
	}
	activeFileNums := make(map[uint64]bool)
	for _, lvl := range version.Active {
		for fn := range lvl {
			activeFileNums[fn] = true
		}
	}

	var out []Record
	seen := make(map[uint64]bool) // xxhash(key) -> already marked not-recovered

	// Step 2-3: current log + level-0 tables, newest sequence first.
	var youngRecs []Record
	if f, ok := byFileNum[version.CurrentLog]; ok && f.isLog {
		recs, err := readLogRecords(f.path)
		if err == nil {
			youngRecs = append(youngRecs, recs...)
		}
	}
	l0FileNums := make([]uint64, 0, len(version.Active[0]))
	for fn := range version.Active[0] {
		l0FileNums = append(l0FileNums, fn)
	}
	sort.Slice(l0FileNums, func(i, j int) bool { return l0FileNums[i] < l0FileNums[j] })
	for _, fn := range l0FileNums {
		if f, ok := byFileNum[fn]; ok {
			recs, err := readTableRecords(f.path)
			if err == nil {
				youngRecs = append(youngRecs, recs...)
			}
		}
	}
	sort.SliceStable(youngRecs, func(i, j int) bool {
		if youngRecs[i].Sequence != youngRecs[j].Sequence {
			return youngRecs[i].Sequence > youngRecs[j].Sequence
		}
		return youngRecs[i].Offset < youngRecs[j].Offset
	})
	for i := range youngRecs {
		h := keyHash(youngRecs[i].Key)
		recovered := seen[h]
		youngRecs[i].Level = intPtr(0)
		youngRecs[i].Recovered = boolPtr(recovered)
		seen[h] = true
	}
	out = append(out, youngRecs...)

	// Step 4: ascending higher levels.
	levels := make([]int, 0, len(version.Active))
	for lvl := range version.Active {
		if lvl > 0 {
			levels = append(levels, lvl)
		}
	}
	sort.Ints(levels)
	for _, lvl := range levels {
		fileNums := make([]uint64, 0, len(version.Active[lvl]))
		for fn := range version.Active[lvl] {
			fileNums = append(fileNums, fn)
		}
		sort.Slice(fileNums, func(i, j int) bool { return fileNums[i] < fileNums[j] })
		for _, fn := range fileNums {
			f, ok := byFileNum[fn]
			if !ok {
				continue
			}
			recs, err := readTableRecords(f.path)
			if err != nil {
				continue
			}
			for i := range recs {
				h := keyHash(recs[i].Key)
				recovered := seen[h]
				lvlCopy := lvl
				recs[i].Level = &lvlCopy
				recs[i].Recovered = boolPtr(recovered)
				seen[h] = true
			}
			out = append(out, recs...)
		}
	}

	// Step 5: orphan files not in the active set.
	var orphanPaths []string
	for _, f := range files {
		if f.isLog && f.fileNum == version.CurrentLog {
			continue
		}
		if !f.isLog && activeFileNums[f.fileNum] {
			continue
		}
		orphanPaths = append(orphanPaths, f.path)
	}
	sort.Strings(orphanPaths)
	for _, p := range orphanPaths {
		var recs []Record
		var err error
		if strings.HasSuffix(p, ".log") {
			recs, err = readLogRecords(p)
		} else {
			recs, err = readTableRecords(p)
		}
		if err != nil {
			continue
		}
		for i := range recs {
			recs[i].Recovered = boolPtr(true)
		}
		out = append(out, recs...)
	}

	return out, nil
}
