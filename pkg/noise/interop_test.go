// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import (
	"bytes"
	"encoding/hex"
	"io"
	"testing"

	flynn "github.com/flynn/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flynnSecp256k1 adapts the secp256k1 DH family to flynn/noise, giving an
// independent implementation of the full state machine to check every DH
// step against. flynn measures public keys with DHLen, so it reports the
// compressed-point size.
type flynnSecp256k1 struct{}

func (flynnSecp256k1) GenerateKeypair(rng io.Reader) (flynn.DHKey, error) {
	priv := make([]byte, KeySize)
	if _, err := io.ReadFull(rng, priv); err != nil {
		return flynn.DHKey{}, err
	}
	key, err := DHSecp256k1.GenerateKeypair(priv)
	if err != nil {
		return flynn.DHKey{}, err
	}
	return flynn.DHKey{Private: key.Private, Public: key.Public}, nil
}

func (flynnSecp256k1) DH(privkey, pubkey []byte) ([]byte, error) {
	return DHSecp256k1.DH(privkey, pubkey)
}

func (flynnSecp256k1) DHLen() int     { return PubKeySize }
func (flynnSecp256k1) DHName() string { return "secp256k1" }

func flynnXKState(t *testing.T, initiator bool, ephemeralByte byte) *flynn.HandshakeState {
	t.Helper()

	suite := flynn.NewCipherSuite(flynnSecp256k1{}, flynn.CipherChaChaPoly, flynn.HashSHA256)

	cfg := flynn.Config{
		CipherSuite: suite,
		Pattern:     flynn.HandshakeXK,
		Initiator:   initiator,
		Prologue:    []byte("lightning"),
		Random:      bytes.NewReader(bytes.Repeat([]byte{ephemeralByte}, KeySize)),
	}

	if initiator {
		local := mustKeypair(t, initiatorStaticHex)
		remote := mustKeypair(t, responderStaticHex)
		cfg.StaticKeypair = flynn.DHKey{Private: local.Private, Public: local.Public}
		cfg.PeerStatic = remote.Public
	} else {
		local := mustKeypair(t, responderStaticHex)
		cfg.StaticKeypair = flynn.DHKey{Private: local.Private, Public: local.Public}
	}

	hs, err := flynn.NewHandshakeState(cfg)
	require.NoError(t, err)
	return hs
}

// TestInterop_XK_AgainstFlynnResponder runs our initiator against the
// flynn/noise responder and checks the acts match the BOLT #8 vectors on
// both implementations.
func TestInterop_XK_AgainstFlynnResponder(t *testing.T) {
	initiator, _ := xkPair(t)
	responder := flynnXKState(t, false, 0x22)

	actOne, _, _, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	assert.Equal(t, actOneHex, hex.EncodeToString(actOne))

	_, _, _, err = responder.ReadMessage(nil, actOne)
	require.NoError(t, err)

	actTwo, _, _, err := responder.WriteMessage(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, actTwoHex, hex.EncodeToString(actTwo))

	_, _, _, err = initiator.ReadMessage(actTwo)
	require.NoError(t, err)

	actThree, iSend, iRecv, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	assert.Equal(t, actThreeHex, hex.EncodeToString(actThree))

	_, fRecv, fSend, err := responder.ReadMessage(nil, actThree)
	require.NoError(t, err)
	require.NotNil(t, fRecv)
	require.NotNil(t, fSend)

	// Transport interop in both directions.
	ciphertext, err := iSend.EncryptWithAd(nil, []byte("to flynn"))
	require.NoError(t, err)
	plaintext, err := fRecv.Decrypt(nil, nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("to flynn"), plaintext)

	ciphertext, err = fSend.Encrypt(nil, nil, []byte("from flynn"))
	require.NoError(t, err)
	plaintext, err = iRecv.DecryptWithAd(nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("from flynn"), plaintext)
}

// TestInterop_XK_AgainstFlynnInitiator runs the handshake in the mirrored
// arrangement: flynn initiates, our responder answers.
func TestInterop_XK_AgainstFlynnInitiator(t *testing.T) {
	initiator := flynnXKState(t, true, 0x12)
	_, responder := xkPair(t)

	actOne, _, _, err := initiator.WriteMessage(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, actOneHex, hex.EncodeToString(actOne))

	_, _, _, err = responder.ReadMessage(actOne)
	require.NoError(t, err)

	actTwo, _, _, err := responder.WriteMessage(nil)
	require.NoError(t, err)
	assert.Equal(t, actTwoHex, hex.EncodeToString(actTwo))

	_, _, _, err = initiator.ReadMessage(nil, actTwo)
	require.NoError(t, err)

	actThree, fSend, fRecv, err := initiator.WriteMessage(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, actThreeHex, hex.EncodeToString(actThree))

	_, rRecv, rSend, err := responder.ReadMessage(actThree)
	require.NoError(t, err)
	require.NotNil(t, rRecv)

	assert.Equal(t, sendKeyHex, hex.EncodeToString(rRecv.Key()))
	assert.Equal(t, recvKeyHex, hex.EncodeToString(rSend.Key()))

	ciphertext, err := fSend.Encrypt(nil, nil, []byte("to ours"))
	require.NoError(t, err)
	plaintext, err := rRecv.DecryptWithAd(nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("to ours"), plaintext)

	ciphertext, err = rSend.EncryptWithAd(nil, []byte("from ours"))
	require.NoError(t, err)
	plaintext, err = fRecv.Decrypt(nil, nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("from ours"), plaintext)
}

// TestInterop_NN_AgainstFlynn checks the unauthenticated fixture pattern
// cross-implements as well.
func TestInterop_NN_AgainstFlynn(t *testing.T) {
	suite := testSuite(t)

	initiator, err := NewHandshakeState(&Config{
		Suite:     suite,
		Pattern:   HandshakeNN,
		Initiator: true,
		Random:    bytes.NewReader(bytes.Repeat([]byte{0x31}, KeySize)),
	})
	require.NoError(t, err)

	fSuite := flynn.NewCipherSuite(flynnSecp256k1{}, flynn.CipherChaChaPoly, flynn.HashSHA256)
	responder, err := flynn.NewHandshakeState(flynn.Config{
		CipherSuite: fSuite,
		Pattern:     flynn.HandshakeNN,
		Random:      bytes.NewReader(bytes.Repeat([]byte{0x32}, KeySize)),
	})
	require.NoError(t, err)

	msg1, _, _, err := initiator.WriteMessage([]byte("ping"))
	require.NoError(t, err)
	payload, _, _, err := responder.ReadMessage(nil, msg1)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), payload)

	msg2, fRecv, fSend, err := responder.WriteMessage(nil, []byte("pong"))
	require.NoError(t, err)
	require.NotNil(t, fRecv)

	payload, iSend, iRecv, err := initiator.ReadMessage(msg2)
	require.NoError(t, err)
	require.NotNil(t, iSend)
	assert.Equal(t, []byte("pong"), payload)

	ciphertext, err := iSend.EncryptWithAd(nil, []byte("transport"))
	require.NoError(t, err)
	plaintext, err := fRecv.Decrypt(nil, nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("transport"), plaintext)

	ciphertext, err = fSend.Encrypt(nil, nil, []byte("reply"))
	require.NoError(t, err)
	plaintext, err = iRecv.DecryptWithAd(nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("reply"), plaintext)
}
