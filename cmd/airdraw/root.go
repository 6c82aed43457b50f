package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/airdraw/internal/store"
)

var (
	// DB is the drawing gallery shared by subcommands.
	DB *store.Store
	// dbPath is the SQLite file location.
	dbPath string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "airdraw",
	Short:   "Draw in the air with your index finger",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			dir, err := dataDir()
			if err != nil {
				return err
			}
			dbPath = filepath.Join(dir, "airdraw.db")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		var err error
		DB, err = store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			DB.Close()
		}
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dataDir returns ~/.airdraw.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".airdraw"), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: ~/.airdraw/airdraw.db)")
}
