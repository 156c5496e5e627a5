// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sizes shared by the secp256k1/ChaChaPoly/SHA256 suite.
const (
	// KeySize is the size of cipher keys, DH private keys, and DH outputs.
	KeySize = 32

	// PubKeySize is the size of a compressed secp256k1 public key.
	PubKeySize = 33

	// TagSize is the Poly1305 authentication tag size.
	TagSize = 16
)

// DHKey is a Diffie-Hellman key pair. The Public component is the
// compressed encoding; an empty Private slice marks an absent key.
type DHKey struct {
	Private []byte
	Public  []byte
}

// DHFunc is a Diffie-Hellman function family as defined by the Noise
// specification.
type DHFunc interface {
	// GenerateKeypair derives a key pair from the given private key bytes.
	GenerateKeypair(priv []byte) (DHKey, error)

	// DH performs a Diffie-Hellman calculation between the private key and
	// the remote public key, returning a shared secret of DHLen bytes.
	DH(priv, pub []byte) ([]byte, error)

	// DHLen returns the size of private keys and DH outputs.
	DHLen() int

	// PubKeyLen returns the on-wire size of public keys.
	PubKeyLen() int

	// DHName returns the name of the DH function.
	DHName() string
}

// CipherFunc is an AEAD cipher function family.
type CipherFunc interface {
	// Encrypt seals plaintext under key k with nonce n and associated
	// data ad, returning ciphertext with the trailing tag.
	Encrypt(k []byte, n uint64, ad, plaintext []byte) ([]byte, error)

	// Decrypt opens ciphertext produced by Encrypt. It returns
	// ErrAuthenticationFailed if the tag does not verify.
	Decrypt(k []byte, n uint64, ad, ciphertext []byte) ([]byte, error)

	// CipherName returns the name of the cipher function.
	CipherName() string
}

// HashFunc is a hash function family.
type HashFunc interface {
	// Hash returns the digest of data.
	Hash(data []byte) []byte

	// HMAC returns the keyed MAC of data.
	HMAC(key, data []byte) []byte

	// HashLen returns the digest size.
	HashLen() int

	// BlockLen returns the internal block size.
	BlockLen() int

	// HashName returns the name of the hash function.
	HashName() string
}

// CipherSuite bundles one member of each function family.
type CipherSuite struct {
	DH     DHFunc
	Cipher CipherFunc
	Hash   HashFunc
}

// NewCipherSuite constructs a cipher suite. Hash functions whose output
// length differs from the cipher key size are rejected, since the key
// truncation rules for wider hashes have no configured primitive here.
func NewCipherSuite(dh DHFunc, cipher CipherFunc, hash HashFunc) (CipherSuite, error) {
	if hash.HashLen() != KeySize {
		return CipherSuite{}, fmt.Errorf("%w: %s produces %d bytes, want %d",
			ErrUnsupportedHash, hash.HashName(), hash.HashLen(), KeySize)
	}
	return CipherSuite{DH: dh, Cipher: cipher, Hash: hash}, nil
}

// Name returns the suite portion of the Noise protocol name,
// e.g. "secp256k1_ChaChaPoly_SHA256".
func (s CipherSuite) Name() string {
	return s.DH.DHName() + "_" + s.Cipher.CipherName() + "_" + s.Hash.HashName()
}

// Concrete primitives. One tuple per protocol version; the families exist
// so the state machines never touch a curve or cipher library directly.
var (
	// DHSecp256k1 is the secp256k1 ECDH function used by BOLT #8.
	DHSecp256k1 DHFunc = secp256k1DH{}

	// CipherChaChaPoly is the ChaCha20-Poly1305 AEAD.
	CipherChaChaPoly CipherFunc = chaChaPoly{}

	// HashSHA256 is SHA-256 with HMAC-SHA256.
	HashSHA256 HashFunc = sha256Hash{}
)

type secp256k1DH struct{}

func (secp256k1DH) GenerateKeypair(priv []byte) (DHKey, error) {
	if len(priv) != KeySize {
		return DHKey{}, fmt.Errorf("%w: private key is %d bytes, want %d",
			ErrInvalidKeySize, len(priv), KeySize)
	}
	privKey, pubKey := btcec.PrivKeyFromBytes(priv)
	return DHKey{
		Private: privKey.Serialize(),
		Public:  pubKey.SerializeCompressed(),
	}, nil
}

// DH returns the SHA-256 of the compressed encoding of the shared point,
// matching secp256k1_ecdh. Raw x-coordinate ECDH is not interoperable with
// other Lightning implementations.
func (secp256k1DH) DH(priv, pub []byte) ([]byte, error) {
	if len(priv) != KeySize {
		return nil, fmt.Errorf("%w: private key is %d bytes, want %d",
			ErrInvalidKeySize, len(priv), KeySize)
	}
	pubKey, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: remote public key: %w", ErrInvalidKeySize, err)
	}
	privKey, _ := btcec.PrivKeyFromBytes(priv)

	var point, shared btcec.JacobianPoint
	pubKey.AsJacobian(&point)
	btcec.ScalarMultNonConst(&privKey.Key, &point, &shared)
	shared.ToAffine()

	sharedPub := btcec.NewPublicKey(&shared.X, &shared.Y)
	digest := sha256.Sum256(sharedPub.SerializeCompressed())
	return digest[:], nil
}

func (secp256k1DH) DHLen() int     { return KeySize }
func (secp256k1DH) PubKeyLen() int { return PubKeySize }
func (secp256k1DH) DHName() string { return "secp256k1" }

type chaChaPoly struct{}

// nonce lays out the 96-bit AEAD nonce as 4 zero bytes followed by the
// little-endian counter, per BOLT #8.
func (chaChaPoly) nonce(n uint64) []byte {
	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], n)
	return nonce[:]
}

func (c chaChaPoly) Encrypt(k []byte, n uint64, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeySize, err)
	}
	return aead.Seal(nil, c.nonce(n), plaintext, ad), nil
}

func (c chaChaPoly) Decrypt(k []byte, n uint64, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeySize, err)
	}
	plaintext, err := aead.Open(nil, c.nonce(n), ciphertext, ad)
	if err != nil {
		// Open does not distinguish a bad key from a bad tag, and
		// neither do we.
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func (chaChaPoly) CipherName() string { return "ChaChaPoly" }

type sha256Hash struct{}

func (sha256Hash) Hash(data []byte) []byte {
	digest := sha256.Sum256(data)
	return digest[:]
}

func (sha256Hash) HMAC(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func (sha256Hash) HashLen() int     { return sha256.Size }
func (sha256Hash) BlockLen() int    { return sha256.BlockSize }
func (sha256Hash) HashName() string { return "SHA256" }
