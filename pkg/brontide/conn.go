// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package brontide

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jeremyhahn/go-brontide/pkg/noise"
)

// Default timeouts for connection establishment and the handshake acts.
const (
	// DefaultConnectTimeout bounds the TCP dial.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultHandshakeTimeout bounds the full three-act exchange.
	DefaultHandshakeTimeout = 5 * time.Second
)

// DialConfig configures an outbound brontide connection.
type DialConfig struct {
	// Address is the TCP address of the remote node (e.g. "host:9735").
	Address string

	// LocalStatic is this node's identity key pair.
	LocalStatic noise.DHKey

	// RemoteStatic is the remote node's 33-byte static public key, known
	// in advance per the XK pattern.
	RemoteStatic []byte

	// ConnectTimeout bounds the TCP dial. Zero value selects
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// HandshakeTimeout bounds the act exchange. Zero value selects
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// Logger receives connection events. Nil selects slog.Default().
	Logger *slog.Logger
}

// Conn is a net.Conn whose byte stream is carried inside encrypted BOLT #8
// transport messages. Reads are buffered per message; writes are split
// into maximum-size messages.
type Conn struct {
	conn    net.Conn
	machine *Machine
	logger  *slog.Logger

	readMu  sync.Mutex
	writeMu sync.Mutex
	readBuf []byte
}

// Dial connects to a remote node and runs acts one through three as the
// initiator. The context bounds the TCP connect; the acts are bounded by
// HandshakeTimeout alone.
func Dial(ctx context.Context, cfg *DialConfig) (*Conn, error) {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	handshakeTimeout := cfg.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	machine, err := NewMachine(&Config{
		Initiator:    true,
		LocalStatic:  cfg.LocalStatic,
		RemoteStatic: cfg.RemoteStatic,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: connectTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, cfg.Address, err)
	}

	if err := initiatorHandshake(tcpConn, machine, time.Now().Add(handshakeTimeout)); err != nil {
		machine.Wipe()
		tcpConn.Close()
		return nil, err
	}

	logger.Debug("brontide connection established",
		"remote_addr", tcpConn.RemoteAddr().String(),
		"remote_key", fmt.Sprintf("%x", machine.RemoteStatic()))

	return &Conn{conn: tcpConn, machine: machine, logger: logger}, nil
}

// initiatorHandshake runs acts one through three over the connection with
// the given deadline applied to every read and write.
func initiatorHandshake(conn net.Conn, machine *Machine, deadline time.Time) error {
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrTimeout, err)
	}
	defer conn.SetDeadline(time.Time{})

	actOne, err := machine.GenActOne()
	if err != nil {
		return err
	}
	if _, err := conn.Write(actOne); err != nil {
		return fmt.Errorf("%w: write act one: %w", ErrConnectionFailed, err)
	}

	actTwo := make([]byte, ActTwoSize)
	if _, err := io.ReadFull(conn, actTwo); err != nil {
		return fmt.Errorf("%w: read act two: %w", ErrConnectionFailed, err)
	}
	if err := machine.RecvActTwo(actTwo); err != nil {
		return err
	}

	actThree, err := machine.GenActThree()
	if err != nil {
		return err
	}
	if _, err := conn.Write(actThree); err != nil {
		return fmt.Errorf("%w: write act three: %w", ErrConnectionFailed, err)
	}
	return nil
}

// responderHandshake runs the responder side of acts one through three.
func responderHandshake(conn net.Conn, machine *Machine, deadline time.Time) error {
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrTimeout, err)
	}
	defer conn.SetDeadline(time.Time{})

	actOne := make([]byte, ActOneSize)
	if _, err := io.ReadFull(conn, actOne); err != nil {
		return fmt.Errorf("%w: read act one: %w", ErrConnectionFailed, err)
	}
	if err := machine.RecvActOne(actOne); err != nil {
		return err
	}

	actTwo, err := machine.GenActTwo()
	if err != nil {
		return err
	}
	if _, err := conn.Write(actTwo); err != nil {
		return fmt.Errorf("%w: write act two: %w", ErrConnectionFailed, err)
	}

	actThree := make([]byte, ActThreeSize)
	if _, err := io.ReadFull(conn, actThree); err != nil {
		return fmt.Errorf("%w: read act three: %w", ErrConnectionFailed, err)
	}
	return machine.RecvActThree(actThree)
}

// ReadNextMessage returns the plaintext of the next complete transport
// message.
func (c *Conn) ReadNextMessage() ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()
	return c.machine.ReadMessage(c.conn)
}

// WriteMessage encrypts and sends a single transport message.
func (c *Conn) WriteMessage(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.machine.WriteMessage(c.conn, payload)
}

// Read implements net.Conn, draining any buffered remainder of the last
// message before decrypting the next one.
func (c *Conn) Read(b []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if len(c.readBuf) == 0 {
		msg, err := c.machine.ReadMessage(c.conn)
		if err != nil {
			return 0, err
		}
		c.readBuf = msg
	}

	n := copy(b, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

// Write implements net.Conn, fragmenting b into maximum-size transport
// messages.
func (c *Conn) Write(b []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	written := 0
	for len(b) > 0 {
		chunk := b
		if len(chunk) > MaxMessageSize {
			chunk = chunk[:MaxMessageSize]
		}
		if err := c.machine.WriteMessage(c.conn, chunk); err != nil {
			return written, err
		}
		written += len(chunk)
		b = b[len(chunk):]
	}
	return written, nil
}

// RemoteStatic returns the remote node's static public key.
func (c *Conn) RemoteStatic() []byte {
	return c.machine.RemoteStatic()
}

// Close wipes the transport keys and closes the underlying connection.
func (c *Conn) Close() error {
	c.machine.Wipe()
	return c.conn.Close()
}

// LocalAddr implements net.Conn.
func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr implements net.Conn.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetDeadline implements net.Conn.
func (c *Conn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

// SetReadDeadline implements net.Conn.
func (c *Conn) SetReadDeadline(t time.Time) error { return c.conn.SetReadDeadline(t) }

// SetWriteDeadline implements net.Conn.
func (c *Conn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
