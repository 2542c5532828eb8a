// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package record

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

// formatWriteBatch renders a WriteBatch the way the "decode-batch"
// datadriven command pins it to testdata/: one line per entry, since the
// default struct formatting of a []byte-heavy type is too noisy to make a
// readable golden file.
func formatWriteBatch(b WriteBatch) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "sequence=%d count=%d\n", b.Sequence, b.Count)
	for _, e := range b.Entries {
		typ := "value"
		if e.Type == DeletedType {
			typ = "deleted"
		}
		fmt.Fprintf(&sb, "  seq=%d %s key=%q", e.Sequence, typ, e.Key)
		if e.Type == ValueType {
			fmt.Fprintf(&sb, " value=%q", e.Value)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// TestDataDriven decodes hex-encoded WriteBatch bodies against golden
// output, in the same command/golden-file shape the pack's own
// data_test.go uses for pebble's DB-level commands: a "decode-batch"
// command takes a hex blob of a logical record's payload and prints the
// WriteBatch it decodes to.
func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			switch td.Cmd {
			case "decode-batch":
				body, err := hex.DecodeString(strings.TrimSpace(td.Input))
				if err != nil {
					return err.Error() + "\n"
				}
				batch, err := decodeWriteBatch(body)
				if err != nil {
					return err.Error() + "\n"
				}
				return formatWriteBatch(batch)
			default:
				t.Fatalf("unknown command: %s", td.Cmd)
				return ""
			}
		})
	})
}
