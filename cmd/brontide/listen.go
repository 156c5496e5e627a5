// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-brontide/pkg/brontide"
)

// defaultListenAddr is the conventional Lightning peer port.
const defaultListenAddr = ":9735"

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Accept inbound peer connections",
	Long: `Listen for inbound BOLT #8 connections, answer the XK handshake with
the node identity key, and echo each decrypted message back to the peer.
Runs until interrupted.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().String("key-file", defaultKeyFile, "path to hex-encoded private key file")
	listenCmd.Flags().String("addr", defaultListenAddr, "TCP address to listen on")
}

func runListen(cmd *cobra.Command, args []string) error {
	keyFile, _ := cmd.Flags().GetString("key-file")
	addr, _ := cmd.Flags().GetString("addr")

	key, err := loadKey(keyFile)
	if err != nil {
		return err
	}

	listener, err := brontide.Listen(&brontide.ListenerConfig{
		ListenAddr:  addr,
		LocalStatic: key,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	defer listener.Close()

	slog.Info("listening for peers",
		"addr", listener.Addr().String(),
		"node_key", fmt.Sprintf("%x", key.Public))

	// Shut the listener down on SIGINT/SIGTERM; Accept then returns an
	// error and the command exits cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrConnectFailed, err)
		}
		go echoPeer(conn)
	}
}

// echoPeer reflects every message a peer sends until the connection drops.
func echoPeer(conn *brontide.Conn) {
	defer conn.Close()

	remote := fmt.Sprintf("%x", conn.RemoteStatic())
	slog.Info("peer connected", "remote_key", remote,
		"remote_addr", conn.RemoteAddr().String())

	for {
		msg, err := conn.ReadNextMessage()
		if err != nil {
			slog.Info("peer disconnected", "remote_key", remote, "error", err)
			return
		}
		slog.Debug("echoing message", "remote_key", remote, "bytes", len(msg))
		if err := conn.WriteMessage(msg); err != nil {
			slog.Warn("echo failed", "remote_key", remote, "error", err)
			return
		}
	}
}
