// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-brontide/pkg/seed"
)

// defaultSeedTimeout bounds the DNS seed walk.
const defaultSeedTimeout = 10 * time.Second

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Discover nodes through a DNS seed",
	Long: `Query a BOLT #10 DNS seed for bootstrap candidates and print each
node's public key and address. Supports plain DNS and DNS-over-TLS.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("domain", "", "seed root domain, e.g. nodes.lightning.directory (required)")
	seedCmd.Flags().String("server", "", "DNS server to query (default: system resolver)")
	seedCmd.Flags().Bool("tls", false, "query the DNS server over TLS")
	seedCmd.Flags().Duration("timeout", defaultSeedTimeout, "overall query timeout")
}

func runSeed(cmd *cobra.Command, args []string) error {
	domain, _ := cmd.Flags().GetString("domain")
	server, _ := cmd.Flags().GetString("server")
	useTLS, _ := cmd.Flags().GetBool("tls")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if domain == "" {
		return fmt.Errorf("%w: --domain is required", ErrInvalidInput)
	}

	resolver, err := seed.NewResolver(&seed.Config{
		Seed:   domain,
		Server: server,
		UseTLS: useTLS,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	nodes, err := resolver.Nodes(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	for _, node := range nodes {
		fmt.Printf("%x %s:%d\n", node.ID, node.Host, node.Port)
	}
	return nil
}
