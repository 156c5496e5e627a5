// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-brontide/pkg/brontide"
	"github.com/jeremyhahn/go-brontide/pkg/noise"
)

// defaultDialTimeout bounds the TCP connect and, separately, the message
// exchange after the handshake; the acts themselves run under
// brontide.DefaultHandshakeTimeout.
const defaultDialTimeout = 15 * time.Second

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Connect to a remote node",
	Long: `Dial a remote node, run the XK handshake against its advertised static
key, and optionally send a message over the encrypted transport. The
remote key pins the node identity: a peer that cannot prove possession
of the matching private key never completes act two.`,
	RunE: runDial,
}

func init() {
	dialCmd.Flags().String("key-file", defaultKeyFile, "path to hex-encoded private key file")
	dialCmd.Flags().String("addr", "", "remote TCP address (host:port) (required)")
	dialCmd.Flags().String("remote-key", "", "hex-encoded remote node public key (required)")
	dialCmd.Flags().String("send", "", "message to send after the handshake")
	dialCmd.Flags().Duration("timeout", defaultDialTimeout, "overall operation timeout")
}

func runDial(cmd *cobra.Command, args []string) error {
	keyFile, _ := cmd.Flags().GetString("key-file")
	addr, _ := cmd.Flags().GetString("addr")
	remoteKeyHex, _ := cmd.Flags().GetString("remote-key")
	send, _ := cmd.Flags().GetString("send")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if addr == "" {
		return fmt.Errorf("%w: --addr is required", ErrInvalidInput)
	}
	if remoteKeyHex == "" {
		return fmt.Errorf("%w: --remote-key is required", ErrInvalidInput)
	}

	remoteKey, err := hex.DecodeString(remoteKeyHex)
	if err != nil {
		return fmt.Errorf("%w: invalid remote key encoding: %w", ErrInvalidInput, err)
	}
	if len(remoteKey) != noise.PubKeySize {
		return fmt.Errorf("%w: remote key must be %d bytes, got %d",
			ErrInvalidInput, noise.PubKeySize, len(remoteKey))
	}

	key, err := loadKey(keyFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	conn, err := brontide.Dial(ctx, &brontide.DialConfig{
		Address:      addr,
		LocalStatic:  key,
		RemoteStatic: remoteKey,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	defer conn.Close()

	slog.Info("connected", "addr", addr, "remote_key", remoteKeyHex)

	if send == "" {
		return nil
	}

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	if err := conn.WriteMessage([]byte(send)); err != nil {
		return fmt.Errorf("%w: send: %w", ErrConnectFailed, err)
	}

	reply, err := conn.ReadNextMessage()
	if err != nil {
		return fmt.Errorf("%w: read reply: %w", ErrConnectFailed, err)
	}
	fmt.Printf("%s\n", reply)
	return nil
}
