// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import (
	"crypto/subtle"
	"runtime"
)

// WipeBytes overwrites b with zeros. The constant-time compare against the
// zero buffer gives the stores an observable use, so the compiler cannot
// eliminate them as dead writes; KeepAlive pins both buffers until the
// compare has happened. The garbage collector may already have copied the
// slice elsewhere, so this shortens the lifetime of key material in memory
// rather than guaranteeing erasure.
func WipeBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	copy(b, zeros)
	subtle.ConstantTimeCompare(b, zeros)
	runtime.KeepAlive(b)
	runtime.KeepAlive(zeros)
}

// WipeDHKey erases a key pair, the private component included. Callers
// drop the key after this; a wiped key no longer satisfies the
// pub-derives-from-priv invariant.
func WipeDHKey(key *DHKey) {
	if key == nil {
		return
	}
	WipeBytes(key.Private)
	WipeBytes(key.Public)
}
