// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-brontide/pkg/noise"
)

// defaultKeyFile is the default path for the node identity key.
const defaultKeyFile = "node.key"

// keysCmd is the parent command for node identity key operations.
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Node identity key operations",
	Long: `Tools for secp256k1 node identity key management.

Subcommands:
  generate - Generate a new secp256k1 identity keypair
  show     - Display the public key from a key file`,
}

// keysGenerateCmd generates a new identity keypair.
var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a node identity keypair",
	Long: `Generate a new secp256k1 identity keypair. The private key is written
as a hex-encoded string to the output file. The corresponding compressed
public key is displayed on stdout.`,
	RunE: runKeysGenerate,
}

// keysShowCmd displays the public key from a key file.
var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the public key from a key file",
	Long: `Read a hex-encoded private key from a file and display the
corresponding compressed secp256k1 public key as a hex string.`,
	RunE: runKeysShow,
}

func init() {
	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysShowCmd)

	keysGenerateCmd.Flags().String("output", defaultKeyFile, "output file path for the private key")
	keysShowCmd.Flags().String("key-file", "", "path to hex-encoded private key file (required)")
}

func runKeysGenerate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	priv := make([]byte, noise.KeySize)
	if _, err := rand.Read(priv); err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	key, err := noise.DHSecp256k1.GenerateKeypair(priv)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	defer noise.WipeDHKey(&key)

	if err := os.WriteFile(output, []byte(hex.EncodeToString(key.Private)), 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	fmt.Printf("public key: %x\n", key.Public)
	fmt.Printf("private key written to %s\n", output)
	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	keyFile, _ := cmd.Flags().GetString("key-file")
	if keyFile == "" {
		return fmt.Errorf("%w: --key-file is required", ErrInvalidInput)
	}

	key, err := loadKey(keyFile)
	if err != nil {
		return err
	}
	defer noise.WipeDHKey(&key)

	fmt.Printf("public key: %x\n", key.Public)
	return nil
}

// loadKey reads a hex-encoded private key file and derives the full
// keypair.
func loadKey(path string) (noise.DHKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return noise.DHKey{}, fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	priv, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return noise.DHKey{}, fmt.Errorf("%w: invalid hex encoding: %w", ErrKeyOperation, err)
	}
	defer noise.WipeBytes(priv)

	key, err := noise.DHSecp256k1.GenerateKeypair(priv)
	if err != nil {
		return noise.DHKey{}, fmt.Errorf("%w: %w", ErrKeyOperation, err)
	}
	return key, nil
}
