// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherState_Passthrough(t *testing.T) {
	cs := NewCipherState(CipherChaChaPoly)
	assert.False(t, cs.HasKey())

	plaintext := []byte("in the clear")
	out, err := cs.EncryptWithAd([]byte("ad"), plaintext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)
	assert.Equal(t, uint64(0), cs.Nonce(), "passthrough must not consume nonces")

	back, err := cs.DecryptWithAd([]byte("ad"), out)
	require.NoError(t, err)
	assert.Equal(t, plaintext, back)
}

func TestCipherState_InitializeKey(t *testing.T) {
	cases := []struct {
		name    string
		key     []byte
		wantErr bool
		keyed   bool
	}{
		{name: "empty key stays passthrough", key: nil, keyed: false},
		{name: "32-byte key", key: bytes.Repeat([]byte{0x01}, KeySize), keyed: true},
		{name: "short key rejected", key: make([]byte, 16), wantErr: true},
		{name: "long key rejected", key: make([]byte, 33), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cs := NewCipherState(CipherChaChaPoly)
			err := cs.InitializeKey(tc.key)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidKeySize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.keyed, cs.HasKey())
			assert.Equal(t, uint64(0), cs.Nonce())
		})
	}
}

func TestCipherState_NonceMonotonic(t *testing.T) {
	cs := NewCipherState(CipherChaChaPoly)
	require.NoError(t, cs.InitializeKey(bytes.Repeat([]byte{0x42}, KeySize)))

	plaintext := []byte("same plaintext every time")
	seen := make(map[string]struct{})

	for i := 0; i < 16; i++ {
		assert.Equal(t, uint64(i), cs.Nonce())
		ciphertext, err := cs.EncryptWithAd(nil, plaintext)
		require.NoError(t, err)

		_, dup := seen[string(ciphertext)]
		assert.False(t, dup, "nonce reuse would repeat ciphertexts")
		seen[string(ciphertext)] = struct{}{}
	}
}

func TestCipherState_Roundtrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)

	enc := NewCipherState(CipherChaChaPoly)
	require.NoError(t, enc.InitializeKey(key))
	dec := NewCipherState(CipherChaChaPoly)
	require.NoError(t, dec.InitializeKey(key))

	for _, msg := range []string{"first", "second", "third"} {
		ciphertext, err := enc.EncryptWithAd([]byte("ad"), []byte(msg))
		require.NoError(t, err)

		plaintext, err := dec.DecryptWithAd([]byte("ad"), ciphertext)
		require.NoError(t, err)
		assert.Equal(t, msg, string(plaintext))
	}
}

func TestCipherState_DecryptFailureLeavesNonce(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)

	enc := NewCipherState(CipherChaChaPoly)
	require.NoError(t, enc.InitializeKey(key))
	dec := NewCipherState(CipherChaChaPoly)
	require.NoError(t, dec.InitializeKey(key))

	ciphertext, err := enc.EncryptWithAd(nil, []byte("payload"))
	require.NoError(t, err)

	tampered := append([]byte(nil), ciphertext...)
	tampered[len(tampered)-1] ^= 0x01
	_, err = dec.DecryptWithAd(nil, tampered)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, uint64(0), dec.Nonce(), "failed decrypt must not burn a nonce")

	// The untampered ciphertext still decrypts at the same nonce.
	plaintext, err := dec.DecryptWithAd(nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plaintext)
}

func TestCipherState_KeyAccessorCopies(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, KeySize)
	cs := NewCipherState(CipherChaChaPoly)
	require.NoError(t, cs.InitializeKey(key))

	got := cs.Key()
	assert.Equal(t, key, got)
	got[0] ^= 0xff
	assert.Equal(t, key, cs.Key(), "Key must return a copy")
}

func TestCipherState_Wipe(t *testing.T) {
	cs := NewCipherState(CipherChaChaPoly)
	require.NoError(t, cs.InitializeKey(bytes.Repeat([]byte{0x42}, KeySize)))

	cs.Wipe()
	assert.False(t, cs.HasKey())
	assert.Nil(t, cs.Key())
}
