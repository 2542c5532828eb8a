// Copyright 2026 The dfindexeddb-go Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"

	"github.com/cockroachdb/redact"

	"github.com/google/dfindexeddb-go/internal/blink"
	"github.com/google/dfindexeddb-go/internal/webkit"
)

// formatValue renders a decoded structured-clone value for display. Crypto
// key material is opaque per spec.md's Non-goals ("not interpreted"), so it
// is run through cockroachdb/redact rather than printed as a plain string;
// redact treats unmarked arguments as unsafe and replaces them with a
// redaction marker once Redact() is called.
func formatValue(v any) string {
	switch key := v.(type) {
	case blink.CryptoKey:
		return fmt.Sprintf("CryptoKey{KeyType:%v Extractable:%v Usages:%d KeyData:%s}",
			key.KeyType, key.Extractable, key.Usages, redactBytes(key.KeyData))
	case webkit.CryptoKey:
		return fmt.Sprintf("CryptoKey{Plist:%s}", redactBytes([]byte(fmt.Sprintf("%v", key.Plist))))
	default:
		return fmt.Sprintf("%+v", v)
	}
}

func redactBytes(b []byte) string {
	return string(redact.Sprintf("%x", b).Redact())
}
