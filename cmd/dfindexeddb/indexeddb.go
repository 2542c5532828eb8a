// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/google/dfindexeddb-go/internal/chromium"
	"github.com/google/dfindexeddb-go/internal/folder"
)

func newIndexeddbCmd() *cobra.Command {
	var useManifest bool
	cmd := &cobra.Command{
		Use:   "indexeddb <dir>",
		Short: "Reconcile a Chromium IndexedDB LevelDB folder and decode every record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexeddbCmd(args[0], useManifest)
		},
	}
	cmd.Flags().BoolVar(&useManifest, "manifest", false,
		"cross-reference CURRENT/MANIFEST to annotate level and recovered status")
	return cmd
}

func runIndexeddbCmd(dir string, useManifest bool) error {
	var recs []folder.Record
	var err error
	if useManifest {
		recs, err = folder.Manifest(dir)
	} else {
		recs, err = folder.AdHoc(dir)
	}
	if err != nil {
		return err
	}

	table := newTable([]string{"source", "sequence", "deleted", "key-prefix-type", "value"})
	for _, r := range recs {
		row := []string{r.Source, fmt.Sprintf("%d", r.Sequence), fmt.Sprintf("%v", r.Deleted)}

		if r.Deleted {
			row = append(row, "", "")
			table.Append(row)
			continue
		}

		rec, err := chromium.DecodeRecord(r.Key, r.Value)
		if err != nil {
			row = append(row, "error", err.Error())
			table.Append(row)
			continue
		}

		row = append(row, keyPrefixTypeString(rec.Type), formatValue(recordValue(rec)))
		table.Append(row)
	}
	table.Render()
	return nil
}

// recordValue picks the most informative decoded value out of a
// chromium.Record for display, in the same priority order the original
// CLI's IndexeddbCommand prints: the structured-clone payload first, then
// the metadata value, then the user key itself.
func recordValue(rec chromium.Record) any {
	switch {
	case rec.StructuredCloneVal != nil:
		return rec.StructuredCloneVal
	case rec.ObjectStoreValue != nil && rec.ObjectStoreValue.Wrapped:
		return *rec.ObjectStoreValue
	case rec.GlobalMetadataValue != nil:
		return rec.GlobalMetadataValue
	case rec.DatabaseMetadataKey != nil:
		return *rec.DatabaseMetadataKey
	case len(rec.ExternalObjects) > 0:
		return rec.ExternalObjects
	case rec.UserKey != nil:
		return *rec.UserKey
	default:
		return nil
	}
}

func keyPrefixTypeString(t chromium.KeyPrefixType) string {
	switch t {
	case chromium.GlobalMetadata:
		return "global-metadata"
	case chromium.DatabaseMetadata:
		return "database-metadata"
	case chromium.ObjectStoreData:
		return "object-store-data"
	case chromium.ExistsEntry:
		return "exists-entry"
	case chromium.BlobEntry:
		return "blob-entry"
	case chromium.IndexData:
		return "index-data"
	default:
		return "invalid"
	}
}
