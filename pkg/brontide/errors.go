// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package brontide implements the BOLT #8 encrypted transport for Lightning
// Network peers: the three-act Noise_XK handshake framing, the encrypted
// length-prefixed message stream with periodic key rotation, and TCP
// dialer/listener plumbing.
package brontide

import "errors"

// Sentinel errors for the brontide package.
var (
	// ErrInvalidVersion indicates an act carried a handshake version this
	// implementation does not speak.
	ErrInvalidVersion = errors.New("brontide: invalid handshake version")

	// ErrInvalidActSize indicates an act of the wrong length.
	ErrInvalidActSize = errors.New("brontide: invalid act size")

	// ErrHandshakeFailed indicates the Noise handshake did not complete.
	ErrHandshakeFailed = errors.New("brontide: handshake failed")

	// ErrHandshakeIncomplete indicates transport encryption was attempted
	// before the handshake finished.
	ErrHandshakeIncomplete = errors.New("brontide: handshake not complete")

	// ErrMessageTooLarge indicates a plaintext longer than the transport's
	// 65535-byte ceiling.
	ErrMessageTooLarge = errors.New("brontide: message too large")

	// ErrConnectionFailed indicates a TCP connection could not be
	// established or used.
	ErrConnectionFailed = errors.New("brontide: connection failed")

	// ErrTimeout indicates an I/O operation exceeded its deadline.
	ErrTimeout = errors.New("brontide: operation timeout")

	// ErrRateLimited indicates an inbound peer was rejected by per-IP
	// rate limiting.
	ErrRateLimited = errors.New("brontide: rate limited")
)
