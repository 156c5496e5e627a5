// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The deterministic BOLT #8 handshake fixture: static and ephemeral keys
// from the initiator and responder test vectors, prologue "lightning".
const (
	initiatorStaticHex = "1111111111111111111111111111111111111111111111111111111111111111"
	responderStaticHex = "2121212121212121212121212121212121212121212121212121212121212121"
	responderPubHex    = "028d7500dd4c12685d1f568b4c2b5048e8534b873319f3a8daa612b469132ec7f7"

	// Act contents as produced by the noise core. The single leading
	// version byte of each act on the wire belongs to the transport layer
	// and is absent here.
	actOneHex   = "036360e856310ce5d294e8be33fc807077dc56ac80d95d9cd4ddbd21325eff73f70df6086551151f58b8afe6c195782c6a"
	actTwoHex   = "02466d7fcae563e5cb09a0d1870bb580344804617879a14949cf22285f1bae3f276e2470b93aac583c9ef6eafca3f730ae"
	actThreeHex = "b9e3a702e93e3a9948c2ed6e5fd7590a6e1c3a0344cfc9d5b57357049aa22355361aa02e55a8fc28fef5bd6d71ad0c38228dc68b1c466263b47fdf31e560e139ba"

	sendKeyHex  = "969ab31b4d288cedf6218839b27a3e2140827047f2c0f01bf5c04435d43511a9"
	recvKeyHex  = "bb9020b8965f4df047e07f955f3c4b88418984aadc5cdb35096b9ea8fa5c3442"
	chainKeyHex = "919219dbb2920afa8db80f9a51787a840bcf111ed8d588caf9ab4be716e42b01"
)

func mustKeypair(t *testing.T, privHex string) DHKey {
	t.Helper()
	key, err := DHSecp256k1.GenerateKeypair(mustHex(t, privHex))
	require.NoError(t, err)
	return key
}

// xkPair builds the two ends of the BOLT #8 XK handshake with the
// deterministic ephemeral keys drawn from fixed readers.
func xkPair(t *testing.T) (*HandshakeState, *HandshakeState) {
	t.Helper()
	suite := testSuite(t)

	localStatic := mustKeypair(t, initiatorStaticHex)
	remoteStatic := mustKeypair(t, responderStaticHex)

	initiator, err := NewHandshakeState(&Config{
		Suite:         suite,
		Pattern:       HandshakeXK,
		Initiator:     true,
		Prologue:      []byte("lightning"),
		StaticKeypair: localStatic,
		PeerStatic:    remoteStatic.Public,
		Random:        bytes.NewReader(bytes.Repeat([]byte{0x12}, KeySize)),
	})
	require.NoError(t, err)

	responder, err := NewHandshakeState(&Config{
		Suite:         suite,
		Pattern:       HandshakeXK,
		Initiator:     false,
		Prologue:      []byte("lightning"),
		StaticKeypair: remoteStatic,
		Random:        bytes.NewReader(bytes.Repeat([]byte{0x22}, KeySize)),
	})
	require.NoError(t, err)

	return initiator, responder
}

func TestXKHandshake_BOLT8Vectors(t *testing.T) {
	initiator, responder := xkPair(t)

	// Act one: -> e, es
	actOne, c1, c2, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	require.Nil(t, c1)
	require.Nil(t, c2)
	assert.Equal(t, actOneHex, hex.EncodeToString(actOne))

	payload, c1, c2, err := responder.ReadMessage(actOne)
	require.NoError(t, err)
	require.Nil(t, c1)
	require.Nil(t, c2)
	assert.Empty(t, payload)

	// Act two: <- e, ee
	actTwo, c1, c2, err := responder.WriteMessage(nil)
	require.NoError(t, err)
	require.Nil(t, c1)
	require.Nil(t, c2)
	assert.Equal(t, actTwoHex, hex.EncodeToString(actTwo))

	_, _, _, err = initiator.ReadMessage(actTwo)
	require.NoError(t, err)

	// Act three: -> s, se
	actThree, iSend, iRecv, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	require.NotNil(t, iSend)
	require.NotNil(t, iRecv)
	assert.Equal(t, actThreeHex, hex.EncodeToString(actThree))

	_, rRecv, rSend, err := responder.ReadMessage(actThree)
	require.NoError(t, err)
	require.NotNil(t, rRecv)
	require.NotNil(t, rSend)

	// Transport keys and final chaining key match on both sides.
	assert.Equal(t, sendKeyHex, hex.EncodeToString(iSend.Key()))
	assert.Equal(t, recvKeyHex, hex.EncodeToString(iRecv.Key()))
	assert.Equal(t, iSend.Key(), rRecv.Key())
	assert.Equal(t, iRecv.Key(), rSend.Key())
	assert.Equal(t, chainKeyHex, hex.EncodeToString(initiator.ChainingKey()))
	assert.Equal(t, initiator.ChainingKey(), responder.ChainingKey())

	// The responder learned the initiator's static key in act three.
	localStatic := mustKeypair(t, initiatorStaticHex)
	assert.Equal(t, localStatic.Public, responder.PeerStatic())

	// Channel binding converges.
	assert.Equal(t, initiator.ChannelBinding(), responder.ChannelBinding())
}

func TestXKHandshake_TamperedActTwo(t *testing.T) {
	initiator, responder := xkPair(t)

	actOne, _, _, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	_, _, _, err = responder.ReadMessage(actOne)
	require.NoError(t, err)

	actTwo, _, _, err := responder.WriteMessage(nil)
	require.NoError(t, err)

	tampered := append([]byte(nil), actTwo...)
	tampered[len(tampered)-1] ^= 0x01

	_, _, _, err = initiator.ReadMessage(tampered)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestXKHandshake_ShortMessages(t *testing.T) {
	initiator, responder := xkPair(t)

	// Too short for the ephemeral key of act one.
	_, _, _, err := responder.ReadMessage(make([]byte, PubKeySize-1))
	require.ErrorIs(t, err, ErrShortMessage)

	actOne, _, _, err := initiator.WriteMessage(nil)
	require.NoError(t, err)

	// Truncated mid-payload: the trailing AEAD tag is incomplete, so the
	// payload decryption fails authentication.
	_, _, _, err = responder.ReadMessage(actOne[:len(actOne)-1])
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestXKHandshake_OutOfTurn(t *testing.T) {
	initiator, responder := xkPair(t)

	_, _, _, err := initiator.ReadMessage([]byte{0x00})
	require.ErrorIs(t, err, ErrOutOfTurn)

	_, _, _, err = responder.WriteMessage(nil)
	require.ErrorIs(t, err, ErrOutOfTurn)
}

func TestXKHandshake_ExhaustedMessages(t *testing.T) {
	initiator, responder := xkPair(t)

	for i := 0; i < 3; i++ {
		var msg []byte
		var err error
		if i%2 == 0 {
			msg, _, _, err = initiator.WriteMessage(nil)
			require.NoError(t, err)
			_, _, _, err = responder.ReadMessage(msg)
			require.NoError(t, err)
		} else {
			msg, _, _, err = responder.WriteMessage(nil)
			require.NoError(t, err)
			_, _, _, err = initiator.ReadMessage(msg)
			require.NoError(t, err)
		}
	}

	_, _, _, err := responder.WriteMessage(nil)
	require.ErrorIs(t, err, ErrNoMessagesLeft)
	_, _, _, err = initiator.ReadMessage(nil)
	require.ErrorIs(t, err, ErrNoMessagesLeft)
}

func TestXKHandshake_InitiatorRequiresPeerStatic(t *testing.T) {
	suite := testSuite(t)
	_, err := NewHandshakeState(&Config{
		Suite:         suite,
		Pattern:       HandshakeXK,
		Initiator:     true,
		Prologue:      []byte("lightning"),
		StaticKeypair: mustKeypair(t, initiatorStaticHex),
	})
	require.ErrorIs(t, err, ErrMissingKey)
}

func TestNNHandshake_Lockstep(t *testing.T) {
	suite := testSuite(t)

	initiator, err := NewHandshakeState(&Config{
		Suite:     suite,
		Pattern:   HandshakeNN,
		Initiator: true,
		Random:    rand.Reader,
	})
	require.NoError(t, err)

	responder, err := NewHandshakeState(&Config{
		Suite:   suite,
		Pattern: HandshakeNN,
	})
	require.NoError(t, err)

	msg1, _, _, err := initiator.WriteMessage([]byte("hello"))
	require.NoError(t, err)
	payload, _, _, err := responder.ReadMessage(msg1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), payload)

	msg2, rRecv, rSend, err := responder.WriteMessage([]byte("world"))
	require.NoError(t, err)
	require.NotNil(t, rRecv)

	payload, iSend, iRecv, err := initiator.ReadMessage(msg2)
	require.NoError(t, err)
	require.NotNil(t, iSend)
	assert.Equal(t, []byte("world"), payload)

	// Identical split on both sides; the first state carries the
	// initiator-to-responder direction on each.
	assert.Equal(t, iSend.Key(), rRecv.Key())
	assert.Equal(t, iRecv.Key(), rSend.Key())
	assert.Equal(t, initiator.ChainingKey(), responder.ChainingKey())

	ciphertext, err := iSend.EncryptWithAd(nil, []byte("transport"))
	require.NoError(t, err)
	plaintext, err := rRecv.DecryptWithAd(nil, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("transport"), plaintext)
}

func TestHandshake_Wipe(t *testing.T) {
	initiator, responder := xkPair(t)

	actOne, _, _, err := initiator.WriteMessage(nil)
	require.NoError(t, err)
	_, _, _, err = responder.ReadMessage(actOne)
	require.NoError(t, err)

	eph := initiator.LocalEphemeral()
	require.NotEmpty(t, eph.Private)

	initiator.Wipe()
	assert.Equal(t, make([]byte, KeySize), eph.Private)
}
