// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package plugin is the process-wide registry of named LevelDB record
// decoders. It lets a subsystem (an application built on this module, a
// protobuf-decoded notification parser, a future format) attach a decoder
// for a specific key/value shape without the core packages knowing about
// it. See spec.md §6.
package plugin

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/google/dfindexeddb-go/internal/folder"
)

// Decoder turns a reconciled folder.Record into an application-specific
// value. Implementations typically inspect Record.Key to decide whether
// they recognize the record before doing any work, and return
// (nil, nil) when they don't.
type Decoder interface {
	// Decode parses rec, or returns (nil, nil) if rec is not of a shape
	// this decoder recognizes.
	Decode(rec folder.Record) (any, error)
}

// registry is the process-wide name -> Decoder map. A package-level
// mutex-guarded map mirrors the teacher's sync.Map-free style of guarding
// small maps directly with sync.RWMutex rather than pulling in a
// generic cache.
var (
	mu       sync.RWMutex
	decoders = map[string]Decoder{}
)

// Register adds a decoder under name. Registration is idempotent:
// registering the same name with the same Decoder value twice is a no-op,
// but registering a different Decoder under an already-registered name is
// an error.
func Register(name string, d Decoder) error {
	if name == "" {
		return errors.New("dfindexeddb/plugin: empty plugin name")
	}
	if d == nil {
		return errors.Newf("dfindexeddb/plugin: nil decoder for %q", name)
	}

	mu.Lock()
	defer mu.Unlock()

	if existing, ok := decoders[name]; ok {
		if existing == d {
			return nil
		}
		return errors.Newf("dfindexeddb/plugin: plugin already registered: %s", name)
	}
	decoders[name] = d
	return nil
}

// Get retrieves the decoder registered under name.
func Get(name string) (Decoder, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := decoders[name]
	if !ok {
		return nil, errors.Newf("dfindexeddb/plugin: plugin not found: %s", name)
	}
	return d, nil
}

// Names returns the currently registered plugin names, for diagnostics.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	return names
}

// Clear removes every registration. Primarily useful for tests, which must
// not leak registrations into each other given the registry is
// process-wide state.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	decoders = map[string]Decoder{}
}
