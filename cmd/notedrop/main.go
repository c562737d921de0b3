// Package main is the entry point for the notedrop MCP server.
//
// The default command speaks MCP over stdio, which is how MCP clients
// (Claude Desktop and friends) are expected to launch it. Startup
// sequence:
//
// 1. Load .env if present
// 2. Initialize logging (stderr; stdout carries JSON-RPC)
// 3. Load configuration from disk and environment
// 4. Resolve the Notion token from environment or OS keyring
// 5. Serve tools over stdio until the client disconnects
//
// The databases and check subcommands are one-shot diagnostics for
// setting the integration up.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"notedrop/internal/config"
	"notedrop/internal/logging"
	"notedrop/internal/mcp"
	"notedrop/internal/notion"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notedrop",
	Short: "MCP server that turns local files into Notion pages",
	Long: `Notedrop is a Model Context Protocol server. It reads text, JSON and CSV
files from an allow-listed set of directories and creates Notion pages
from their content.

Run without arguments to serve MCP over stdio.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio (the default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List Notion databases shared with the integration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatabases(cmd)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and Notion connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, databasesCmd, checkCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig runs the shared startup sequence for every command.
func loadConfig(logger *logging.AppLogger) (config.Config, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return config.Config{}, err
	}
	cfg.NotionToken = config.ResolveNotionToken(logger)
	return cfg, nil
}

func runServe() error {
	_ = godotenv.Load()
	logger := logging.NewAppLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return err
	}

	srv, err := mcp.NewServer(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize server", "error", err)
		return err
	}
	return srv.Serve()
}

func runDatabases(cmd *cobra.Command) error {
	_ = godotenv.Load()
	logger := logging.NewAppLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}
	if cfg.NotionToken == "" {
		return fmt.Errorf("no Notion token configured; set %s or store one in the OS keyring", config.EnvNotionToken)
	}

	client, err := notion.NewClient(cfg.NotionToken, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	databases, err := client.SearchDatabases(ctx)
	if err != nil {
		return err
	}
	if len(databases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No databases are shared with this integration.")
		return nil
	}
	for _, db := range databases {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", db.ID, db.Title)
	}
	return nil
}

func runCheck(cmd *cobra.Command) error {
	_ = godotenv.Load()
	logger := logging.NewAppLogger()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "config file:    %s\n", config.ConfigPath())
	fmt.Fprintf(out, "allowed dirs:   %v\n", cfg.AllowedDirs)
	fmt.Fprintf(out, "max file size:  %d bytes\n", cfg.MaxFileSize)
	if cfg.DefaultDatabaseID != "" {
		fmt.Fprintf(out, "default db:     %s\n", cfg.DefaultDatabaseID)
	}

	// A server constructed here exercises the same validation serve does,
	// including the allow-list canonicalization.
	if _, err := mcp.NewServer(cfg, logger); err != nil {
		return fmt.Errorf("configuration is not usable: %w", err)
	}

	if cfg.NotionToken == "" {
		fmt.Fprintln(out, "notion token:   not configured (file tools only)")
		return nil
	}

	client, err := notion.NewClient(cfg.NotionToken, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	databases, err := client.SearchDatabases(ctx)
	if err != nil {
		return fmt.Errorf("notion token:   configured, but the API rejected it: %w", err)
	}
	fmt.Fprintf(out, "notion token:   ok (%d databases reachable)\n", len(databases))
	return nil
}
