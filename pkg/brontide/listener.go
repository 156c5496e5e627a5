// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package brontide

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/jeremyhahn/go-brontide/pkg/noise"
)

// Defaults for the listener.
const (
	// DefaultRateLimit is the per-IP token refill rate (handshakes per
	// second).
	DefaultRateLimit = 10.0

	// DefaultRateBurst is the maximum handshake burst per IP.
	DefaultRateBurst = 20

	// throttleIdleAfter is how long an idle per-IP bucket survives.
	throttleIdleAfter = 10 * time.Minute

	// throttleSweepEach is the minimum spacing between prune sweeps.
	throttleSweepEach = time.Minute
)

// ListenerConfig configures an inbound brontide listener.
type ListenerConfig struct {
	// ListenAddr is the TCP address to bind (e.g. ":9735").
	ListenAddr string

	// LocalStatic is this node's identity key pair. Initiators must know
	// its public component to complete the XK handshake.
	LocalStatic noise.DHKey

	// HandshakeTimeout bounds the act exchange per connection. Zero value
	// selects DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration

	// RateLimit is the per-IP handshake refill rate. Zero value selects
	// DefaultRateLimit.
	RateLimit float64

	// RateBurst is the per-IP burst allowance. Zero value selects
	// DefaultRateBurst.
	RateBurst int

	// Logger receives accept and handshake events. Nil selects
	// slog.Default().
	Logger *slog.Logger
}

// Listener accepts TCP connections and answers the XK handshake as the
// responder, yielding authenticated *Conn values.
type Listener struct {
	config   *ListenerConfig
	tcp      net.Listener
	throttle *peerThrottle
	logger   *slog.Logger
	timeout  time.Duration
}

// Listen binds the configured address and returns a listener ready to
// accept brontide connections.
func Listen(cfg *ListenerConfig) (*Listener, error) {
	if len(cfg.LocalStatic.Private) != noise.KeySize {
		return nil, fmt.Errorf("%w: local static key must be %d bytes",
			ErrHandshakeFailed, noise.KeySize)
	}

	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}
	rateBurst := cfg.RateBurst
	if rateBurst <= 0 {
		rateBurst = DefaultRateBurst
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tcp, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s: %w", ErrConnectionFailed, cfg.ListenAddr, err)
	}

	return &Listener{
		config:   cfg,
		tcp:      tcp,
		throttle: newPeerThrottle(rateLimit, rateBurst, throttleIdleAfter, throttleSweepEach),
		logger:   logger,
		timeout:  timeout,
	}, nil
}

// Accept waits for the next inbound connection that passes rate limiting
// and completes the handshake. Connections that fail either are closed
// and skipped; only listener-level failures are returned.
func (l *Listener) Accept() (*Conn, error) {
	for {
		tcpConn, err := l.tcp.Accept()
		if err != nil {
			return nil, fmt.Errorf("%w: accept: %w", ErrConnectionFailed, err)
		}

		ip := remoteIP(tcpConn)
		if !l.throttle.allow(ip) {
			l.logger.Warn("rejecting rate-limited peer", "ip", ip)
			tcpConn.Close()
			continue
		}

		conn, err := l.answer(tcpConn)
		if err != nil {
			l.logger.Debug("inbound handshake failed", "ip", ip, "error", err)
			tcpConn.Close()
			continue
		}
		return conn, nil
	}
}

// answer runs the responder handshake over an accepted connection.
func (l *Listener) answer(tcpConn net.Conn) (*Conn, error) {
	machine, err := NewMachine(&Config{
		Initiator:   false,
		LocalStatic: l.config.LocalStatic,
		Logger:      l.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := responderHandshake(tcpConn, machine, time.Now().Add(l.timeout)); err != nil {
		machine.Wipe()
		return nil, err
	}

	l.logger.Debug("inbound brontide connection established",
		"remote_addr", tcpConn.RemoteAddr().String(),
		"remote_key", fmt.Sprintf("%x", machine.RemoteStatic()))

	return &Conn{conn: tcpConn, machine: machine, logger: l.logger}, nil
}

// Close stops accepting connections.
func (l *Listener) Close() error {
	return l.tcp.Close()
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr {
	return l.tcp.Addr()
}

// remoteIP extracts the IP portion of a connection's remote address,
// falling back to the whole string when it has no port.
func remoteIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
