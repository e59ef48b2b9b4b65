package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emailbuilder/emailbuilder/internal/auth"
	"github.com/emailbuilder/emailbuilder/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Credential tooling for the EmailBuilder admin API",
}

var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Generate a random admin API key and print it with its hash",
	RunE:  runGenerateKey,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key",
	Short: "Hash an admin API key read from stdin for security.admin_api_key_hash",
	RunE:  runHashKey,
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue an admin bearer token signed with security.jwt_secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(generateKeyCmd)
	rootCmd.AddCommand(hashKeyCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runGenerateKey(cmd *cobra.Command, args []string) error {
	key, err := auth.GenerateAPIKey()
	if err != nil {
		return err
	}
	hash, err := auth.HashAPIKey(key, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API key: %s\nHash:    %s\n", key, hash)
	return nil
}

func runHashKey(cmd *cobra.Command, args []string) error {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("failed to read api key: %w", err)
	}
	key := strings.TrimSpace(line)

	if err := auth.ValidateAPIKey(key); err != nil {
		return err
	}
	hash, err := auth.HashAPIKey(key, nil)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	token, err := auth.NewTokenService(cfg.Security).IssueToken(args[0], tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
