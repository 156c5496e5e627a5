// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package brontide

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/jeremyhahn/go-brontide/pkg/noise"
)

// Protocol constants fixed by BOLT #8.
const (
	// HandshakeVersion is the single version byte prefixed to each act.
	HandshakeVersion = 0x00

	// ActOneSize is the size of act one on the wire: version, the
	// initiator's ephemeral key, and the tag over the empty payload.
	ActOneSize = 1 + noise.PubKeySize + noise.TagSize

	// ActTwoSize mirrors act one for the responder's ephemeral key.
	ActTwoSize = 1 + noise.PubKeySize + noise.TagSize

	// ActThreeSize carries the initiator's encrypted static key and the
	// final payload tag.
	ActThreeSize = 1 + noise.PubKeySize + noise.TagSize + noise.TagSize

	// LengthHeaderSize is the plaintext size of the per-message length
	// prefix, encrypted separately from the body.
	LengthHeaderSize = 2

	// MaxMessageSize is the largest plaintext a single transport message
	// can carry.
	MaxMessageSize = 65535

	// KeyRotationInterval is the number of AEAD operations after which a
	// transport key is rotated forward.
	KeyRotationInterval = 1000
)

// encHeaderSize is the on-wire size of an encrypted length prefix.
const encHeaderSize = LengthHeaderSize + noise.TagSize

// Config assembles the keys and seams a Machine needs.
type Config struct {
	// Initiator indicates whether this side dials or answers.
	Initiator bool

	// LocalStatic is the node's long-term identity key pair.
	LocalStatic noise.DHKey

	// RemoteStatic is the remote node's static public key. Required for
	// the initiator, ignored for the responder (it learns the key in act
	// three).
	RemoteStatic []byte

	// Prologue overrides the handshake prologue. Nil selects the
	// Lightning prologue "lightning".
	Prologue []byte

	// Random sources ephemeral keys; nil selects crypto/rand.
	Random io.Reader

	// Logger receives handshake and rotation debug events. Nil selects
	// slog.Default().
	Logger *slog.Logger
}

// transportCipher is one direction of the post-handshake stream: a keyed
// cipher state plus the rotation salt that ratchets it forward every
// KeyRotationInterval operations.
type transportCipher struct {
	cs   *noise.CipherState
	salt []byte
	hash noise.HashFunc
}

func (tc *transportCipher) encrypt(plaintext []byte) ([]byte, error) {
	ciphertext, err := tc.cs.EncryptWithAd(nil, plaintext)
	if err != nil {
		return nil, err
	}
	return ciphertext, tc.maybeRotate()
}

func (tc *transportCipher) decrypt(ciphertext []byte) ([]byte, error) {
	plaintext, err := tc.cs.DecryptWithAd(nil, ciphertext)
	if err != nil {
		return nil, err
	}
	return plaintext, tc.maybeRotate()
}

// maybeRotate ratchets the key once the nonce has been used
// KeyRotationInterval times: the old salt and key feed HKDF, the first
// output becomes the next salt, the second the next key, and the nonce
// restarts at zero.
func (tc *transportCipher) maybeRotate() error {
	if tc.cs.Nonce() < KeyRotationInterval {
		return nil
	}

	oldKey := tc.cs.Key()
	salt, key, err := noise.HKDF(tc.hash, tc.salt, oldKey)
	noise.WipeBytes(oldKey)
	if err != nil {
		return err
	}

	noise.WipeBytes(tc.salt)
	tc.salt = salt
	err = tc.cs.InitializeKey(key)
	noise.WipeBytes(key)
	return err
}

func (tc *transportCipher) wipe() {
	tc.cs.Wipe()
	noise.WipeBytes(tc.salt)
}

// Machine drives one peer connection through the three BOLT #8 acts and
// then carries the encrypted message stream. It is owned by a single
// connection and is not safe for concurrent use; Conn serializes access.
type Machine struct {
	hs        *noise.HandshakeState
	send      *transportCipher
	recv      *transportCipher
	suite     noise.CipherSuite
	initiator bool
	logger    *slog.Logger
}

// NewMachine creates a handshake machine in the given role. The initiator
// must supply the remote node's static public key.
func NewMachine(cfg *Config) (*Machine, error) {
	suite, err := noise.NewCipherSuite(noise.DHSecp256k1, noise.CipherChaChaPoly, noise.HashSHA256)
	if err != nil {
		return nil, err
	}

	prologue := cfg.Prologue
	if prologue == nil {
		prologue = []byte("lightning")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Initiator && len(cfg.RemoteStatic) != noise.PubKeySize {
		return nil, fmt.Errorf("%w: remote static key must be %d bytes, got %d",
			ErrHandshakeFailed, noise.PubKeySize, len(cfg.RemoteStatic))
	}

	hs, err := noise.NewHandshakeState(&noise.Config{
		Suite:         suite,
		Pattern:       noise.HandshakeXK,
		Initiator:     cfg.Initiator,
		Prologue:      prologue,
		StaticKeypair: cfg.LocalStatic,
		PeerStatic:    cfg.RemoteStatic,
		Random:        cfg.Random,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	return &Machine{
		hs:        hs,
		suite:     suite,
		initiator: cfg.Initiator,
		logger:    logger,
	}, nil
}

// genAct produces the next handshake message prefixed with the version
// byte. The cipher states are non-nil only for the final act.
func (m *Machine) genAct() ([]byte, *noise.CipherState, *noise.CipherState, error) {
	msg, c1, c2, err := m.hs.WriteMessage(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	return append([]byte{HandshakeVersion}, msg...), c1, c2, nil
}

// recvAct validates the version byte and feeds the act into the handshake.
func (m *Machine) recvAct(act []byte, wantSize int) (*noise.CipherState, *noise.CipherState, error) {
	if len(act) != wantSize {
		return nil, nil, fmt.Errorf("%w: got %d bytes, want %d",
			ErrInvalidActSize, len(act), wantSize)
	}
	if act[0] != HandshakeVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidVersion, act[0])
	}
	_, c1, c2, err := m.hs.ReadMessage(act[1:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	return c1, c2, nil
}

// GenActOne produces act one (initiator).
func (m *Machine) GenActOne() ([]byte, error) {
	act, _, _, err := m.genAct()
	return act, err
}

// RecvActOne consumes act one (responder).
func (m *Machine) RecvActOne(act []byte) error {
	_, _, err := m.recvAct(act, ActOneSize)
	return err
}

// GenActTwo produces act two (responder).
func (m *Machine) GenActTwo() ([]byte, error) {
	act, _, _, err := m.genAct()
	return act, err
}

// RecvActTwo consumes act two (initiator).
func (m *Machine) RecvActTwo(act []byte) error {
	_, _, err := m.recvAct(act, ActTwoSize)
	return err
}

// GenActThree produces act three and arms the transport ciphers
// (initiator).
func (m *Machine) GenActThree() ([]byte, error) {
	act, c1, c2, err := m.genAct()
	if err != nil {
		return nil, err
	}
	m.split(c1, c2)
	return act, nil
}

// RecvActThree consumes act three and arms the transport ciphers
// (responder).
func (m *Machine) RecvActThree(act []byte) error {
	c1, c2, err := m.recvAct(act, ActThreeSize)
	if err != nil {
		return err
	}
	m.split(c1, c2)
	return nil
}

// split orients the two cipher states by role and seeds both rotation
// salts with the final chaining key.
func (m *Machine) split(c1, c2 *noise.CipherState) {
	ck := m.hs.ChainingKey()
	sendCS, recvCS := c1, c2
	if !m.initiator {
		sendCS, recvCS = c2, c1
	}
	m.send = &transportCipher{cs: sendCS, salt: append([]byte(nil), ck...), hash: m.suite.Hash}
	m.recv = &transportCipher{cs: recvCS, salt: append([]byte(nil), ck...), hash: m.suite.Hash}
	m.logger.Debug("brontide handshake complete",
		"remote", fmt.Sprintf("%x", m.hs.PeerStatic()))
}

// HandshakeComplete reports whether the transport ciphers are armed.
func (m *Machine) HandshakeComplete() bool {
	return m.send != nil && m.recv != nil
}

// RemoteStatic returns the remote node's static public key: configured up
// front for the initiator, learned in act three by the responder.
func (m *Machine) RemoteStatic() []byte {
	return m.hs.PeerStatic()
}

// WriteMessage encrypts payload as a BOLT #8 transport message: the
// 2-byte big-endian plaintext length is encrypted as its own AEAD frame,
// followed by the encrypted body.
func (m *Machine) WriteMessage(w io.Writer, payload []byte) error {
	if m.send == nil {
		return ErrHandshakeIncomplete
	}
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceeds %d",
			ErrMessageTooLarge, len(payload), MaxMessageSize)
	}

	var header [LengthHeaderSize]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(payload)))

	encHeader, err := m.send.encrypt(header[:])
	if err != nil {
		return err
	}
	encBody, err := m.send.encrypt(payload)
	if err != nil {
		return err
	}

	if _, err := w.Write(encHeader); err != nil {
		return fmt.Errorf("%w: write header: %w", ErrConnectionFailed, err)
	}
	if _, err := w.Write(encBody); err != nil {
		return fmt.Errorf("%w: write body: %w", ErrConnectionFailed, err)
	}
	return nil
}

// ReadMessage reads and decrypts the next transport message from r.
func (m *Machine) ReadMessage(r io.Reader) ([]byte, error) {
	if m.recv == nil {
		return nil, ErrHandshakeIncomplete
	}

	encHeader := make([]byte, encHeaderSize)
	if _, err := io.ReadFull(r, encHeader); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrConnectionFailed, err)
	}
	header, err := m.recv.decrypt(encHeader)
	if err != nil {
		return nil, err
	}

	bodyLen := binary.BigEndian.Uint16(header)
	encBody := make([]byte, int(bodyLen)+noise.TagSize)
	if _, err := io.ReadFull(r, encBody); err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrConnectionFailed, err)
	}
	body, err := m.recv.decrypt(encBody)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = []byte{}
	}
	return body, nil
}

// Wipe erases all key material held by the machine.
func (m *Machine) Wipe() {
	m.hs.Wipe()
	if m.send != nil {
		m.send.wipe()
	}
	if m.recv != nil {
		m.recv.wipe()
	}
}
