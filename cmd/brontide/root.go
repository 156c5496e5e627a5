// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbosity string
	jsonLogs  bool
)

var rootCmd = &cobra.Command{
	Use:   "brontide",
	Short: "Lightning Network transport tool",
	Long: `brontide speaks the BOLT #8 encrypted transport: an authenticated
Noise_XK handshake over secp256k1 followed by an encrypted message stream
with rotating keys.

Commands:
  keys    - generate or inspect node identity keys
  listen  - accept inbound peer connections and echo their messages
  dial    - connect to a remote node and exchange a message
  seed    - discover nodes through a BOLT #10 DNS seed`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(dialCmd)
	rootCmd.AddCommand(seedCmd)
}

// setupLogging installs the process-wide slog logger on stderr. The
// --verbosity flag names any level slog can parse; unparseable values fall
// back to info rather than failing the command. Debug level also records
// source locations, since it exists to trace handshake internals.
func setupLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(verbosity)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
