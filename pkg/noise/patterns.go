// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package noise

import "fmt"

// Token represents either a public key that is transmitted or received, or
// a DH operation both sides perform. Ordered token lists make up handshake
// messages.
type Token string

// The six message tokens of the Noise one-way and interactive patterns
// supported here.
const (
	TokenE  Token = "e"
	TokenS  Token = "s"
	TokenEE Token = "ee"
	TokenES Token = "es"
	TokenSE Token = "se"
	TokenSS Token = "ss"
)

// HandshakePattern is a named sequence of pre-messages and messages. The
// initiator sends Messages[0]; direction alternates from there.
type HandshakePattern struct {
	// Name is the pattern portion of the protocol name, e.g. "XK".
	Name string

	// InitiatorPreMessages lists keys the responder knows about the
	// initiator before the handshake begins.
	InitiatorPreMessages []Token

	// ResponderPreMessages lists keys the initiator knows about the
	// responder before the handshake begins.
	ResponderPreMessages []Token

	// Messages holds the token list of each handshake message in order.
	Messages [][]Token
}

// HandshakeNN is the unauthenticated ephemeral-only pattern:
//
//	-> e
//	<- e, ee
var HandshakeNN = HandshakePattern{
	Name: "NN",
	Messages: [][]Token{
		{TokenE},
		{TokenE, TokenEE},
	},
}

// HandshakeXK is the pattern mandated by BOLT #8: the responder's static
// key is known in advance, and the initiator transmits its static key
// encrypted in the final act:
//
//	<- s
//	...
//	-> e, es
//	<- e, ee
//	-> s, se
var HandshakeXK = HandshakePattern{
	Name:                 "XK",
	ResponderPreMessages: []Token{TokenS},
	Messages: [][]Token{
		{TokenE, TokenES},
		{TokenE, TokenEE},
		{TokenS, TokenSE},
	},
}

// validPreMessages are the only pre-message sequences the Noise
// specification defines.
var validPreMessages = [][]Token{
	{},
	{TokenE},
	{TokenS},
	{TokenE, TokenS},
}

func tokensEqual(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// validate rejects patterns with no messages or with pre-message sequences
// outside the specification's closed set.
func (p HandshakePattern) validate() error {
	if len(p.Messages) == 0 {
		return fmt.Errorf("%w: %q has no messages", ErrInvalidPattern, p.Name)
	}
	for _, pre := range [][]Token{p.InitiatorPreMessages, p.ResponderPreMessages} {
		ok := false
		for _, valid := range validPreMessages {
			if tokensEqual(pre, valid) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%w: %q declares %v", ErrInvalidPreMessage, p.Name, pre)
		}
	}
	return nil
}
