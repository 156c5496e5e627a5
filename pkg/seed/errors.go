// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package seed implements BOLT #10 DNS bootstrap: discovering Lightning
// Network nodes by querying a DNS seed for SRV records whose targets carry
// bech32-encoded node identities.
package seed

import "errors"

// Sentinel errors for the seed package.
var (
	// ErrResolverConfig indicates the resolver configuration is invalid.
	ErrResolverConfig = errors.New("seed: invalid resolver configuration")

	// ErrLookupFailed indicates a DNS query failed or returned a non-success
	// response code.
	ErrLookupFailed = errors.New("seed: DNS lookup failed")

	// ErrNoNodes indicates the seed returned no usable node records.
	ErrNoNodes = errors.New("seed: no nodes found")

	// ErrInvalidNodeID indicates an SRV target whose leading label is not a
	// bech32-encoded 33-byte node public key.
	ErrInvalidNodeID = errors.New("seed: invalid node identifier")
)
