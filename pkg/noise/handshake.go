// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Config assembles everything a handshake needs. The zero value is not
// usable; at minimum a Suite and Pattern are required, plus whichever keys
// the pattern's pre-messages and tokens reference.
type Config struct {
	// Suite selects the DH, cipher, and hash function families.
	Suite CipherSuite

	// Pattern is the handshake pattern to execute, e.g. HandshakeXK.
	Pattern HandshakePattern

	// Initiator indicates whether this side sends the first message.
	Initiator bool

	// Prologue is mixed into the transcript hash before the first message
	// and must match on both sides. For Lightning it is "lightning".
	Prologue []byte

	// StaticKeypair is the local long-term identity key. Required whenever
	// the pattern transmits or pre-shares the local static key.
	StaticKeypair DHKey

	// PeerStatic is the remote static public key, required when the
	// pattern pre-shares it (the initiator side of XK).
	PeerStatic []byte

	// PeerEphemeral is the remote ephemeral public key, required only for
	// patterns that pre-share it.
	PeerEphemeral []byte

	// Random is the source the handshake draws ephemeral private keys
	// from. Nil selects crypto/rand.Reader. Tests inject a deterministic
	// reader to produce reproducible handshakes.
	Random io.Reader
}

// HandshakeState executes the messages of a handshake pattern one call at a
// time, alternating between WriteMessage and ReadMessage. When the final
// message has been processed, both return the two transport cipher states
// and the handshake is complete. A HandshakeState is owned by a single
// connection attempt and must not be shared.
type HandshakeState struct {
	ss          *SymmetricState
	suite       CipherSuite
	s           DHKey
	e           DHKey
	rs          []byte
	re          []byte
	messages    [][]Token
	msgIdx      int
	initiator   bool
	shouldWrite bool
	rng         io.Reader
	chainingKey []byte
}

// NewHandshakeState seeds a handshake: it derives the protocol name, mixes
// the prologue and the pre-message public keys into the transcript, and
// returns a state ready for the first WriteMessage (initiator) or
// ReadMessage (responder). Pre-message keys that the configuration does not
// supply are configuration errors surfaced here, not later.
func NewHandshakeState(cfg *Config) (*HandshakeState, error) {
	if err := cfg.Pattern.validate(); err != nil {
		return nil, err
	}

	hs := &HandshakeState{
		suite:       cfg.Suite,
		s:           cfg.StaticKeypair,
		rs:          append([]byte(nil), cfg.PeerStatic...),
		re:          append([]byte(nil), cfg.PeerEphemeral...),
		messages:    cfg.Pattern.Messages,
		initiator:   cfg.Initiator,
		shouldWrite: cfg.Initiator,
		rng:         cfg.Random,
	}
	if hs.rng == nil {
		hs.rng = rand.Reader
	}

	protocolName := []byte("Noise_" + cfg.Pattern.Name + "_" + cfg.Suite.Name())
	hs.ss = NewSymmetricState(cfg.Suite, protocolName)
	hs.ss.MixHash(cfg.Prologue)

	if err := hs.mixPreMessages(cfg.Pattern.InitiatorPreMessages, cfg.Initiator); err != nil {
		return nil, err
	}
	if err := hs.mixPreMessages(cfg.Pattern.ResponderPreMessages, !cfg.Initiator); err != nil {
		return nil, err
	}

	return hs, nil
}

// mixPreMessages absorbs one side's pre-message public keys into the
// transcript. local indicates whether the keys being mixed belong to this
// side of the handshake.
func (hs *HandshakeState) mixPreMessages(tokens []Token, local bool) error {
	for _, token := range tokens {
		var pub []byte
		switch {
		case token == TokenE && local:
			pub = hs.e.Public
		case token == TokenS && local:
			pub = hs.s.Public
		case token == TokenE && !local:
			pub = hs.re
		case token == TokenS && !local:
			pub = hs.rs
		default:
			return fmt.Errorf("%w: token %q", ErrInvalidPreMessage, token)
		}
		if len(pub) == 0 {
			return fmt.Errorf("%w: pre-message %q", ErrMissingKey, token)
		}
		hs.ss.MixHash(pub)
	}
	return nil
}

// WriteMessage produces the next handshake message carrying the given
// payload. If this message completes the handshake, the two transport
// cipher states are returned: the first keyed for the initiator-to-
// responder direction, the second for the reverse. It is an error to call
// WriteMessage when the state machine expects to read.
func (hs *HandshakeState) WriteMessage(payload []byte) ([]byte, *CipherState, *CipherState, error) {
	if !hs.shouldWrite {
		return nil, nil, nil, fmt.Errorf("%w: expected ReadMessage", ErrOutOfTurn)
	}
	if hs.msgIdx >= len(hs.messages) {
		return nil, nil, nil, ErrNoMessagesLeft
	}

	var out []byte
	for _, token := range hs.messages[hs.msgIdx] {
		switch token {
		case TokenE:
			priv := make([]byte, hs.suite.DH.DHLen())
			if _, err := io.ReadFull(hs.rng, priv); err != nil {
				return nil, nil, nil, fmt.Errorf("noise: ephemeral key generation: %w", err)
			}
			e, err := hs.suite.DH.GenerateKeypair(priv)
			WipeBytes(priv)
			if err != nil {
				return nil, nil, nil, err
			}
			hs.e = e
			hs.ss.MixHash(hs.e.Public)
			out = append(out, hs.e.Public...)

		case TokenS:
			if len(hs.s.Public) == 0 {
				return nil, nil, nil, fmt.Errorf("%w: local static", ErrMissingKey)
			}
			ciphertext, err := hs.ss.EncryptAndHash(hs.s.Public)
			if err != nil {
				return nil, nil, nil, err
			}
			out = append(out, ciphertext...)

		default:
			if err := hs.mixDH(token); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	ciphertext, err := hs.ss.EncryptAndHash(payload)
	if err != nil {
		return nil, nil, nil, err
	}
	out = append(out, ciphertext...)

	hs.shouldWrite = false
	hs.msgIdx++
	if hs.msgIdx == len(hs.messages) {
		c1, c2, err := hs.finish()
		return out, c1, c2, err
	}
	return out, nil, nil, nil
}

// ReadMessage consumes the next handshake message and returns its payload.
// If this message completes the handshake, the two transport cipher states
// are returned in the same orientation as WriteMessage. On any failure the
// handshake is unusable and the connection must be abandoned.
func (hs *HandshakeState) ReadMessage(message []byte) ([]byte, *CipherState, *CipherState, error) {
	if hs.shouldWrite {
		return nil, nil, nil, fmt.Errorf("%w: expected WriteMessage", ErrOutOfTurn)
	}
	if hs.msgIdx >= len(hs.messages) {
		return nil, nil, nil, ErrNoMessagesLeft
	}

	for _, token := range hs.messages[hs.msgIdx] {
		switch token {
		case TokenE:
			pubLen := hs.suite.DH.PubKeyLen()
			if len(message) < pubLen {
				return nil, nil, nil, fmt.Errorf("%w: %d bytes for %q", ErrShortMessage, len(message), token)
			}
			hs.re = append(hs.re[:0], message[:pubLen]...)
			message = message[pubLen:]
			hs.ss.MixHash(hs.re)

		case TokenS:
			expected := hs.suite.DH.PubKeyLen()
			if hs.ss.cs.HasKey() {
				expected += TagSize
			}
			if len(message) < expected {
				return nil, nil, nil, fmt.Errorf("%w: %d bytes for %q", ErrShortMessage, len(message), token)
			}
			rs, err := hs.ss.DecryptAndHash(message[:expected])
			if err != nil {
				return nil, nil, nil, err
			}
			hs.rs = rs
			message = message[expected:]

		default:
			if err := hs.mixDH(token); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	payload, err := hs.ss.DecryptAndHash(message)
	if err != nil {
		return nil, nil, nil, err
	}

	hs.shouldWrite = true
	hs.msgIdx++
	if hs.msgIdx == len(hs.messages) {
		c1, c2, err := hs.finish()
		return payload, c1, c2, err
	}
	return payload, nil, nil, nil
}

// mixDH performs the DH operation a token names and mixes the shared
// secret into the chaining key. Each role only ever holds one of the two
// key pairings a token can describe: for "es" the initiator combines its
// ephemeral with the remote static while the responder combines its static
// with the remote ephemeral, and both arrive at the same secret.
func (hs *HandshakeState) mixDH(token Token) error {
	var local DHKey
	var remote []byte

	switch token {
	case TokenEE:
		local, remote = hs.e, hs.re
	case TokenSS:
		local, remote = hs.s, hs.rs
	case TokenES:
		if hs.initiator {
			local, remote = hs.e, hs.rs
		} else {
			local, remote = hs.s, hs.re
		}
	case TokenSE:
		if hs.initiator {
			local, remote = hs.s, hs.re
		} else {
			local, remote = hs.e, hs.rs
		}
	default:
		return fmt.Errorf("%w: unknown token %q", ErrInvalidPattern, token)
	}

	if len(local.Private) == 0 || len(remote) == 0 {
		return fmt.Errorf("%w: token %q", ErrMissingKey, token)
	}

	secret, err := hs.suite.DH.DH(local.Private, remote)
	if err != nil {
		return err
	}
	err = hs.ss.MixKey(secret)
	WipeBytes(secret)
	return err
}

// finish splits the symmetric state into the transport cipher states,
// records the final chaining key, and erases the handshake secrets.
func (hs *HandshakeState) finish() (*CipherState, *CipherState, error) {
	c1, c2, ck, err := hs.ss.Split()
	if err != nil {
		return nil, nil, err
	}
	hs.chainingKey = ck
	WipeBytes(hs.e.Private)
	hs.ss.Wipe()
	return c1, c2, nil
}

// ChainingKey returns the final chaining key after the handshake has
// completed, or nil before then. BOLT #8 uses it as the initial key
// rotation salt for both transport directions.
func (hs *HandshakeState) ChainingKey() []byte {
	return hs.chainingKey
}

// ChannelBinding returns the final transcript hash, which uniquely
// identifies the session.
func (hs *HandshakeState) ChannelBinding() []byte {
	return hs.ss.HandshakeHash()
}

// PeerStatic returns the remote static public key, once known.
func (hs *HandshakeState) PeerStatic() []byte {
	return hs.rs
}

// LocalEphemeral returns the local ephemeral key pair generated during the
// handshake.
func (hs *HandshakeState) LocalEphemeral() DHKey {
	return hs.e
}

// Wipe erases all key material held by the handshake. Call it when a
// handshake is abandoned before completion.
func (hs *HandshakeState) Wipe() {
	WipeBytes(hs.e.Private)
	WipeBytes(hs.chainingKey)
	hs.ss.Wipe()
}
