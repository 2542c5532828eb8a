// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/google/dfindexeddb-go/internal/manifest"
	"github.com/google/dfindexeddb-go/internal/record"
	"github.com/google/dfindexeddb-go/internal/sstable"
)

func newLeveldbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leveldb",
		Short: "Inspect raw LevelDB files (.log, .ldb/.sst, MANIFEST/CURRENT)",
	}
	cmd.AddCommand(newLogCmd(), newLdbCmd(), newDescriptorCmd())
	return cmd
}

func newLogCmd() *cobra.Command {
	var structureType string
	cmd := &cobra.Command{
		Use:   "log <path>",
		Short: "Dump a .log file's write batches or flattened entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogCmd(args[0], structureType)
		},
	}
	cmd.Flags().StringVar(&structureType, "structure-type", "records",
		"one of: write-batches, records")
	return cmd
}

func runLogCmd(path, structureType string) error {
	r, err := record.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	switch structureType {
	case "write-batches":
		table := newTable([]string{"offset", "sequence", "count"})
		for {
			batch, err := r.NextWriteBatch()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				// Framing error: the reader has already resumed at the
				// next FULL/FIRST record, so one corrupt batch never hides
				// the ones that follow it (spec.md §7).
				continue
			}
			table.Append([]string{
				"", strconv.FormatUint(batch.Sequence, 10), strconv.FormatUint(uint64(batch.Count), 10),
			})
		}
		table.Render()
	case "records":
		table := newTable([]string{"sequence", "type", "key", "value"})
		for {
			batch, err := r.NextWriteBatch()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				continue
			}
			for _, e := range batch.Entries {
				table.Append([]string{
					strconv.FormatUint(e.Sequence, 10),
					entryTypeString(e.Type),
					fmt.Sprintf("%x", e.Key),
					fmt.Sprintf("%x", e.Value),
				})
			}
		}
		table.Render()
	default:
		return fmt.Errorf("dfindexeddb: unknown structure-type %q for log", structureType)
	}
	return nil
}

func entryTypeString(t record.EntryType) string {
	if t == record.DeletedType {
		return "deleted"
	}
	return "value"
}

func newLdbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ldb <path>",
		Short: "Dump a .ldb/.sst file's key/value records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLdbCmd(args[0])
		},
	}
	return cmd
}

func runLdbCmd(path string) error {
	r, err := sstable.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	kvs, err := r.GetKeyValueRecords()
	if err != nil && len(kvs) == 0 {
		return err
	}
	table := newTable([]string{"sequence", "type", "key", "value"})
	for _, kv := range kvs {
		table.Append([]string{
			strconv.FormatUint(kv.Sequence, 10),
			strconv.Itoa(int(kv.Type)),
			fmt.Sprintf("%x", kv.UserKey),
			fmt.Sprintf("%x", kv.Value),
		})
	}
	table.Render()
	return nil
}

func newDescriptorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "descriptor <dir>",
		Short: "Resolve CURRENT and fold the MANIFEST into the active file set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescriptorCmd(args[0])
		},
	}
	return cmd
}

func runDescriptorCmd(dir string) error {
	path, err := manifest.ResolveCurrent(dir)
	if err != nil {
		return err
	}
	edits, err := manifest.ReadVersionEdits(path)
	if err != nil {
		return err
	}
	version := manifest.FoldVersionEdits(edits)

	fmt.Printf("comparator=%s current_log=%d last_sequence=%d max_level=%d\n",
		version.ComparatorName, version.CurrentLog, version.LastSequence, version.MaxLevel())

	table := newTable([]string{"level", "file_number", "size"})
	for level, files := range version.Active {
		for fileNum, entry := range files {
			table.Append([]string{
				strconv.Itoa(level),
				strconv.FormatUint(fileNum, 10),
				strconv.FormatUint(entry.Size, 10),
			})
		}
	}
	table.Render()
	return nil
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}
