// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import "fmt"

// CipherState holds a cipher function together with a key and a monotonic
// nonce. Before a key has been mixed in it operates in pass-through mode:
// encryption and decryption return their input unchanged and the nonce does
// not advance. Once keyed, every successful operation consumes exactly one
// nonce, so a (k, n) pair is never reused.
type CipherState struct {
	cipher CipherFunc
	k      []byte
	n      uint64
}

// NewCipherState returns an unkeyed cipher state for the given cipher
// function.
func NewCipherState(cipher CipherFunc) *CipherState {
	return &CipherState{cipher: cipher}
}

// InitializeKey sets the cipher key and resets the nonce to zero. An empty
// key returns the state to pass-through mode. Any length other than zero or
// KeySize is a configuration error.
func (cs *CipherState) InitializeKey(key []byte) error {
	if len(key) != 0 && len(key) != KeySize {
		return fmt.Errorf("%w: %d bytes, want 0 or %d",
			ErrInvalidKeySize, len(key), KeySize)
	}
	WipeBytes(cs.k)
	if len(key) == 0 {
		cs.k = nil
	} else {
		cs.k = append(cs.k[:0], key...)
	}
	cs.n = 0
	return nil
}

// HasKey reports whether a key has been mixed into the state.
func (cs *CipherState) HasKey() bool {
	return cs.k != nil
}

// Nonce returns the next nonce that will be used.
func (cs *CipherState) Nonce() uint64 {
	return cs.n
}

// Key returns a copy of the current cipher key, or nil in pass-through
// mode. The BOLT #8 transport uses it as HKDF input when rotating keys.
func (cs *CipherState) Key() []byte {
	if cs.k == nil {
		return nil
	}
	return append([]byte(nil), cs.k...)
}

// EncryptWithAd encrypts plaintext bound to the associated data and
// advances the nonce. In pass-through mode the plaintext is returned
// unmodified.
func (cs *CipherState) EncryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if cs.k == nil {
		return append([]byte(nil), plaintext...), nil
	}
	ciphertext, err := cs.cipher.Encrypt(cs.k, cs.n, ad, plaintext)
	if err != nil {
		return nil, err
	}
	cs.n++
	return ciphertext, nil
}

// DecryptWithAd decrypts ciphertext bound to the associated data and
// advances the nonce. On authentication failure the state is unchanged:
// the nonce does not advance. In pass-through mode the ciphertext is
// returned unmodified.
func (cs *CipherState) DecryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if cs.k == nil {
		return append([]byte(nil), ciphertext...), nil
	}
	plaintext, err := cs.cipher.Decrypt(cs.k, cs.n, ad, ciphertext)
	if err != nil {
		return nil, err
	}
	cs.n++
	return plaintext, nil
}

// Wipe erases the cipher key. The state is unusable afterwards.
func (cs *CipherState) Wipe() {
	WipeBytes(cs.k)
	cs.k = nil
}
