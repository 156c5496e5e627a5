// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import "fmt"

// HKDF is the two-output key derivation function fixed by the Noise
// specification:
//
//	tempKey = HMAC-HASH(chainingKey, ikm)
//	out1    = HMAC-HASH(tempKey, 0x01)
//	out2    = HMAC-HASH(tempKey, out1 || 0x02)
//
// The input keying material must be empty or a DH output (KeySize bytes).
// It is exported because the BOLT #8 transport reuses the same derivation
// for key rotation.
func HKDF(hash HashFunc, chainingKey, ikm []byte) ([]byte, []byte, error) {
	if len(ikm) != 0 && len(ikm) != KeySize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrInvalidIKM, len(ikm))
	}

	tempKey := hash.HMAC(chainingKey, ikm)
	defer WipeBytes(tempKey)

	out1 := hash.HMAC(tempKey, []byte{0x01})
	out2 := hash.HMAC(tempKey, append(append([]byte{}, out1...), 0x02))
	return out1, out2, nil
}
