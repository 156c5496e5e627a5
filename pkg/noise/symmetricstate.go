// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

// SymmetricState wraps a CipherState with the chaining key ck, which
// accumulates every DH output of the handshake, and the running transcript
// hash h, which authenticates every byte exchanged so far and serves as the
// associated data for handshake encryption.
type SymmetricState struct {
	cs    *CipherState
	suite CipherSuite
	ck    []byte
	h     []byte
}

// NewSymmetricState seeds a symmetric state from the full protocol name,
// e.g. "Noise_XK_secp256k1_ChaChaPoly_SHA256". Names no longer than the
// hash length are zero-padded; longer names are hashed.
func NewSymmetricState(suite CipherSuite, protocolName []byte) *SymmetricState {
	hashLen := suite.Hash.HashLen()

	var h []byte
	if len(protocolName) <= hashLen {
		h = make([]byte, hashLen)
		copy(h, protocolName)
	} else {
		h = suite.Hash.Hash(protocolName)
	}

	return &SymmetricState{
		cs:    NewCipherState(suite.Cipher),
		suite: suite,
		ck:    append([]byte(nil), h...),
		h:     h,
	}
}

// MixKey runs the chaining key and the input keying material through HKDF,
// replacing ck with the first output and keying the cipher state with the
// second. The transcript hash is untouched.
func (ss *SymmetricState) MixKey(ikm []byte) error {
	ck, temp, err := HKDF(ss.suite.Hash, ss.ck, ikm)
	if err != nil {
		return err
	}
	WipeBytes(ss.ck)
	ss.ck = ck
	err = ss.cs.InitializeKey(temp[:KeySize])
	WipeBytes(temp)
	return err
}

// MixHash absorbs data into the transcript hash: h = HASH(h || data).
func (ss *SymmetricState) MixHash(data []byte) {
	ss.h = ss.suite.Hash.Hash(append(append([]byte{}, ss.h...), data...))
}

// EncryptAndHash encrypts plaintext with the transcript hash as associated
// data, then absorbs the ciphertext. Before the first MixKey the
// "ciphertext" is the plaintext itself, but it is still absorbed.
func (ss *SymmetricState) EncryptAndHash(plaintext []byte) ([]byte, error) {
	ciphertext, err := ss.cs.EncryptWithAd(ss.h, plaintext)
	if err != nil {
		return nil, err
	}
	ss.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndHash decrypts ciphertext with the transcript hash as associated
// data, then absorbs the ciphertext. Absorbing the ciphertext rather than
// the plaintext is what keeps both transcripts identical. On failure the
// state is unchanged.
func (ss *SymmetricState) DecryptAndHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := ss.cs.DecryptWithAd(ss.h, ciphertext)
	if err != nil {
		return nil, err
	}
	ss.MixHash(ciphertext)
	return plaintext, nil
}

// Split derives the two transport cipher states from the chaining key. The
// first is keyed for the initiator-to-responder direction, the second for
// responder-to-initiator. The final chaining key is returned alongside for
// use as the transport key-rotation salt.
func (ss *SymmetricState) Split() (*CipherState, *CipherState, []byte, error) {
	t1, t2, err := HKDF(ss.suite.Hash, ss.ck, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	c1 := NewCipherState(ss.suite.Cipher)
	if err := c1.InitializeKey(t1[:KeySize]); err != nil {
		return nil, nil, nil, err
	}
	c2 := NewCipherState(ss.suite.Cipher)
	if err := c2.InitializeKey(t2[:KeySize]); err != nil {
		return nil, nil, nil, err
	}
	WipeBytes(t1)
	WipeBytes(t2)

	ck := append([]byte(nil), ss.ck...)
	return c1, c2, ck, nil
}

// HandshakeHash returns the current transcript hash. After the final
// message it uniquely identifies the session and can be used for channel
// binding.
func (ss *SymmetricState) HandshakeHash() []byte {
	return ss.h
}

// Wipe erases the chaining key and the handshake cipher key.
func (ss *SymmetricState) Wipe() {
	WipeBytes(ss.ck)
	ss.cs.Wipe()
}
