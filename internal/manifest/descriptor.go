// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/dfindexeddb-go/internal/record"
)

var currentManifestPattern = regexp.MustCompile(`^MANIFEST-\d{6}$`)

// ResolveCurrent reads a directory's CURRENT file and returns the full path
// of the descriptor it names.
func ResolveCurrent(dir string) (string, error) {
	b, err := os.ReadFile(filepath.Join(dir, "CURRENT"))
	if err != nil {
		return "", errors.Wrap(err, "dfindexeddb/manifest: read CURRENT")
	}
	name := strings.TrimSpace(string(b))
	if !currentManifestPattern.MatchString(name) {
		return "", errors.Newf("dfindexeddb/manifest: CURRENT names %q, not MANIFEST-NNNNNN", name)
	}
	return filepath.Join(dir, name), nil
}

// ReadVersionEdits opens a descriptor file and decodes every logical record
// in it as a VersionEdit, in file order. The descriptor shares the log
// file's physical record framing (spec.md §4.4), so this is backed by the
// same record.Reader as a .log file.
func ReadVersionEdits(path string) ([]VersionEdit, error) {
	r, err := record.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var edits []VersionEdit
	for {
		body, _, err := r.NextLogicalRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Framing error: record.Reader has already resumed at the next
			// FULL/FIRST physical record, so one corrupt logical record
			// never hides the ones that follow it (spec.md §7).
			continue
		}
		edit, err := DecodeVersionEdit(body)
		if err != nil {
			continue // malformed record: skip, keep scanning (spec.md §7).
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// LevelDBVersion is the fold of every VersionEdit in a descriptor: for each
// level, the set of file numbers currently active, plus the current log
// number and last sequence number.
type LevelDBVersion struct {
	ComparatorName string
	CurrentLog     uint64
	LastSequence   uint64
	// Active maps level -> file number -> metadata, for files still live
	// after folding every VersionEdit's new_file/deleted_file lists.
	Active map[int]map[uint64]NewFileEntry
}

// FoldVersionEdits applies a sequence of VersionEdits in order to produce
// the latest LevelDBVersion.
func FoldVersionEdits(edits []VersionEdit) LevelDBVersion {
	v := LevelDBVersion{Active: make(map[int]map[uint64]NewFileEntry)}
	for _, e := range edits {
		if e.ComparatorName != "" {
			v.ComparatorName = e.ComparatorName
		}
		if e.HasLogNumber {
			v.CurrentLog = e.LogNumber
		}
		if e.HasLastSequence {
			v.LastSequence = e.LastSequence
		}
		for _, nf := range e.NewFiles {
			if v.Active[nf.Level] == nil {
				v.Active[nf.Level] = make(map[uint64]NewFileEntry)
			}
			v.Active[nf.Level][nf.FileNum] = nf
		}
		for _, df := range e.DeletedFiles {
			if lvl, ok := v.Active[df.Level]; ok {
				delete(lvl, df.FileNum)
			}
		}
	}
	return v
}

// MaxLevel returns the highest level with at least one active file, or -1 if
// Active is empty.
func (v LevelDBVersion) MaxLevel() int {
	max := -1
	for lvl, files := range v.Active {
		if len(files) > 0 && lvl > max {
			max = lvl
		}
	}
	return max
}
