package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"m209/internal/logging"
)

var (
	// Global flags
	logLevel string
	logJSON  bool
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "m209",
	Short: "M-209 cipher machine and key recovery",
	Long: `m209 simulates the M-209 cipher machine and recovers its keys.

It encrypts and decrypts with a key file, generates random keys, lists the
lug settings a machine version allows, and runs ciphertext-only or
known-plaintext attacks on intercepted messages.`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the logger selected by the global flags.
func newLogger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		JSON:    logJSON,
		Quiet:   quiet,
		Service: "m209",
	}), nil
}
