// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package manifest decodes LevelDB descriptor (MANIFEST) files: the
// physical-record-framed stream of VersionEdits, and their fold into the
// active file set of the latest LevelDBVersion. See spec.md §4.4.
package manifest

import (
	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/stream"
)

// Tags for the VersionEdit wire format. Tag 8 is historical and unused.
const (
	tagComparator     = 1
	tagLogNumber      = 2
	tagNextFileNumber = 3
	tagLastSequence   = 4
	tagCompactPointer = 5
	tagDeletedFile    = 6
	tagNewFile        = 7
	tagPrevLogNumber  = 9
)

// DeletedFileEntry identifies a file removed from a level by a VersionEdit.
type DeletedFileEntry struct {
	Level   int
	FileNum uint64
}

// NewFileEntry describes a file added to a level by a VersionEdit.
type NewFileEntry struct {
	Level    int
	FileNum  uint64
	Size     uint64
	Smallest InternalKey
	Largest  InternalKey
}

// InternalKey is a length-prefixed slice whose trailing 8 bytes split into a
// user key, sequence number, and record type, exactly as in an SST's data
// block (spec.md §4.4).
type InternalKey struct {
	UserKey  []byte
	Sequence uint64
	Type     byte
}

func decodeInternalKey(b []byte) (InternalKey, error) {
	if len(b) < 8 {
		return InternalKey{}, errors.Newf("dfindexeddb/manifest: internal key too short (%d bytes)", len(b))
	}
	tail := b[len(b)-8:]
	var seq uint64
	for i := 6; i >= 0; i-- {
		seq = seq<<8 | uint64(tail[i])
	}
	return InternalKey{UserKey: b[:len(b)-8], Sequence: seq, Type: tail[7]}, nil
}

// CompactPointer records a compaction cursor; this core never acts on it but
// surfaces it for completeness when dumping a descriptor.
type CompactPointer struct {
	Level int
	Key   []byte
}

// VersionEdit is the decode of a single logical descriptor record: an
// ordered stream of (tag, payload) pairs until the record ends. Every field
// is optional; an empty record decodes to an empty VersionEdit.
type VersionEdit struct {
	ComparatorName    string
	HasLogNumber      bool
	LogNumber         uint64
	HasPrevLogNumber  bool
	PrevLogNumber     uint64
	HasNextFileNumber bool
	NextFileNumber    uint64
	HasLastSequence   bool
	LastSequence      uint64
	CompactPointers   []CompactPointer
	DeletedFiles      []DeletedFileEntry
	NewFiles          []NewFileEntry
}

// DecodeVersionEdit parses a single logical record (the already-assembled
// body of a physical-record run) as a VersionEdit.
func DecodeVersionEdit(body []byte) (VersionEdit, error) {
	var edit VersionEdit
	r := stream.NewReader(body)
	for r.NumRemaining() > 0 {
		tag, err := r.DecodeVarint(0)
		if err != nil {
			return edit, errors.Wrap(err, "dfindexeddb/manifest: edit tag")
		}
		switch tag {
		case tagComparator:
			s, err := r.DecodeLengthPrefixedSlice()
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: comparator name")
			}
			edit.ComparatorName = string(s)
		case tagLogNumber:
			n, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: log_number")
			}
			edit.LogNumber, edit.HasLogNumber = n, true
		case tagPrevLogNumber:
			n, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: prev_log_number")
			}
			edit.PrevLogNumber, edit.HasPrevLogNumber = n, true
		case tagNextFileNumber:
			n, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: next_file_number")
			}
			edit.NextFileNumber, edit.HasNextFileNumber = n, true
		case tagLastSequence:
			n, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: last_sequence")
			}
			edit.LastSequence, edit.HasLastSequence = n, true
		case tagCompactPointer:
			level, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: compact_pointer level")
			}
			key, err := r.DecodeLengthPrefixedSlice()
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: compact_pointer key")
			}
			edit.CompactPointers = append(edit.CompactPointers, CompactPointer{Level: int(level), Key: key})
		case tagDeletedFile:
			level, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: deleted_file level")
			}
			fileNum, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: deleted_file number")
			}
			edit.DeletedFiles = append(edit.DeletedFiles, DeletedFileEntry{Level: int(level), FileNum: fileNum})
		case tagNewFile:
			level, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: new_file level")
			}
			fileNum, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: new_file number")
			}
			size, err := r.DecodeVarint(0)
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: new_file size")
			}
			smallestBytes, err := r.DecodeLengthPrefixedSlice()
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: new_file smallest key")
			}
			largestBytes, err := r.DecodeLengthPrefixedSlice()
			if err != nil {
				return edit, errors.Wrap(err, "dfindexeddb/manifest: new_file largest key")
			}
			smallest, err := decodeInternalKey(smallestBytes)
			if err != nil {
				return edit, err
			}
			largest, err := decodeInternalKey(largestBytes)
			if err != nil {
				return edit, err
			}
			edit.NewFiles = append(edit.NewFiles, NewFileEntry{
				Level: int(level), FileNum: fileNum, Size: size, Smallest: smallest, Largest: largest,
			})
		default:
			return edit, errors.Newf("dfindexeddb/manifest: unknown version edit tag %d", tag)
		}
	}
	return edit, nil
}
