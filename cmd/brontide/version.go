// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped at release time via -ldflags "-X main.version=...".
var version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of brontide",
	Long:  "Print the brontide version, from release ldflags or the embedded module build info.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("brontide version %s\n", resolveVersion())
	},
}

// resolveVersion prefers the release stamp and otherwise falls back to the
// module version Go embeds in the binary. Source builds report "dev".
func resolveVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
