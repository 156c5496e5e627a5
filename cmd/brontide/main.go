// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"log/slog"
	"os"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the failure to an exit code, so
// scripts can tell bad invocations from failed connections.
func run() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	slog.Error("command failed", "error", err)
	if errors.Is(err, ErrInvalidInput) {
		return ExitConfigError
	}
	return ExitConnectFailed
}
