// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/google/dfindexeddb-go/internal/folder"
)

type stubDecoder struct {
	name string
}

func (s stubDecoder) Decode(rec folder.Record) (any, error) {
	return s.name, nil
}

func TestRegisterGet(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	d := stubDecoder{name: "chrome_notifications"}
	require.NoError(t, Register("chrome_notifications", d))

	got, err := Get("chrome_notifications")
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestRegisterIdempotentBySameDecoder(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	d := stubDecoder{name: "x"}
	require.NoError(t, Register("x", d))
	require.NoError(t, Register("x", d))
}

func TestRegisterConflictingDecoderIsError(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.NoError(t, Register("x", stubDecoder{name: "first"}))
	err := Register("x", stubDecoder{name: "second"})
	require.Error(t, err)
}

func TestGetUnregisteredIsError(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	_, err := Get("does-not-exist")
	require.Error(t, err)
}

func TestClearRemovesRegistrations(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.NoError(t, Register("x", stubDecoder{name: "x"}))
	Clear()
	_, err := Get("x")
	require.Error(t, err)
	require.Empty(t, Names())
}
