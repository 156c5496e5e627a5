// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package noise implements the Noise Protocol Framework state machines used
// by the Lightning Network transport layer: cipher state, symmetric state,
// and handshake state for the NN and XK patterns, instantiated as
// Noise_XK_secp256k1_ChaChaPoly_SHA256 per BOLT #8.
package noise

import "errors"

// Sentinel errors for the noise package. They fall into three kinds:
// authentication failures (ErrAuthenticationFailed), protocol violations
// (ErrShortMessage, ErrNoMessagesLeft, ErrOutOfTurn), and configuration
// errors (the rest). None of them is recoverable; the connection must be
// torn down.
var (
	// ErrAuthenticationFailed indicates an AEAD tag did not verify during
	// decryption. The peer is either not who it claims to be or the bytes
	// were corrupted in transit.
	ErrAuthenticationFailed = errors.New("noise: message authentication failed")

	// ErrShortMessage indicates a handshake message is too short to contain
	// the key material its pattern requires.
	ErrShortMessage = errors.New("noise: handshake message too short")

	// ErrNoMessagesLeft indicates WriteMessage or ReadMessage was called
	// after the handshake pattern was exhausted.
	ErrNoMessagesLeft = errors.New("noise: no handshake messages left")

	// ErrOutOfTurn indicates a WriteMessage call when the state machine
	// expects to read, or vice versa.
	ErrOutOfTurn = errors.New("noise: out-of-turn handshake call")

	// ErrInvalidKeySize indicates a key of a length other than the cipher
	// key size (or zero) was supplied.
	ErrInvalidKeySize = errors.New("noise: invalid key size")

	// ErrInvalidPreMessage indicates a handshake pattern declares a
	// pre-message sequence other than one of: empty, e, s, or e then s.
	ErrInvalidPreMessage = errors.New("noise: invalid pre-message pattern")

	// ErrInvalidPattern indicates a malformed handshake pattern, such as an
	// unknown token or an empty message list.
	ErrInvalidPattern = errors.New("noise: invalid handshake pattern")

	// ErrUnsupportedHash indicates a hash function whose output length is
	// not the cipher key size. The HKDF truncation rules for wider hashes
	// have no configured primitive, so construction rejects them.
	ErrUnsupportedHash = errors.New("noise: unsupported hash output length")

	// ErrMissingKey indicates a handshake was configured without a key that
	// its pattern requires, such as the responder static for XK initiators.
	ErrMissingKey = errors.New("noise: required key not configured")

	// ErrInvalidIKM indicates HKDF input keying material of a length other
	// than 0 or the DH output size.
	ErrInvalidIKM = errors.New("noise: invalid HKDF input length")
)
