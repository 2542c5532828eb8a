// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package manifest

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

func formatVersionEdit(e VersionEdit) string {
	var sb strings.Builder
	if e.ComparatorName != "" {
		fmt.Fprintf(&sb, "comparator=%s\n", e.ComparatorName)
	}
	if e.HasLogNumber {
		fmt.Fprintf(&sb, "log_number=%d\n", e.LogNumber)
	}
	if e.HasPrevLogNumber {
		fmt.Fprintf(&sb, "prev_log_number=%d\n", e.PrevLogNumber)
	}
	if e.HasNextFileNumber {
		fmt.Fprintf(&sb, "next_file_number=%d\n", e.NextFileNumber)
	}
	if e.HasLastSequence {
		fmt.Fprintf(&sb, "last_sequence=%d\n", e.LastSequence)
	}
	for _, c := range e.CompactPointers {
		fmt.Fprintf(&sb, "compact_pointer level=%d key=%q\n", c.Level, c.Key)
	}
	for _, d := range e.DeletedFiles {
		fmt.Fprintf(&sb, "deleted_file level=%d file_num=%d\n", d.Level, d.FileNum)
	}
	for _, n := range e.NewFiles {
		fmt.Fprintf(&sb, "new_file level=%d file_num=%d size=%d smallest=(%q,%d,%d) largest=(%q,%d,%d)\n",
			n.Level, n.FileNum, n.Size,
			n.Smallest.UserKey, n.Smallest.Sequence, n.Smallest.Type,
			n.Largest.UserKey, n.Largest.Sequence, n.Largest.Type)
	}
	return sb.String()
}

// TestDataDriven decodes hex-encoded VersionEdit records against golden
// output: a "decode-edit" command takes a hex blob of a logical descriptor
// record and prints the VersionEdit it folds out of it.
func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			switch td.Cmd {
			case "decode-edit":
				body, err := hex.DecodeString(strings.TrimSpace(td.Input))
				if err != nil {
					return err.Error() + "\n"
				}
				edit, err := DecodeVersionEdit(body)
				if err != nil {
					return err.Error() + "\n"
				}
				return formatVersionEdit(edit)
			default:
				t.Fatalf("unknown command: %s", td.Cmd)
				return ""
			}
		})
	})
}
