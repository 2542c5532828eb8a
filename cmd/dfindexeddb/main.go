// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Command dfindexeddb is a thin CLI over the internal/* decoders: it opens
// a file or directory, runs the matching decoder, and prints a tabular
// dump. All parsing logic lives in internal/*; this package only wires
// flags to function calls and renders results.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dfindexeddb",
		Short:         "Inspect Chromium/Firefox/Safari IndexedDB on-disk artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLeveldbCmd())
	root.AddCommand(newIndexeddbCmd())
	return root
}
