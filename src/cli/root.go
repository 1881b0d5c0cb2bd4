// Package cli implements the deepguard command line.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	logger "github.com/Easy-Infra-Ltd/easy-logger"
	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/config"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/transport"
)

// ErrThreatsFound is returned by scan when at least one file is unsafe.
var ErrThreatsFound = errors.New("threats found")

// NewRootCmd builds the deepguard command tree. Commands log through
// console.
func NewRootCmd(console *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "deepguard",
		Short:         "File safety pre-screener",
		Long:          "DeepGuard screens uploaded files for executables, disguised extensions, spoofed types and embedded scripts, as a CLI or as an MCP server.",
		Version:       transport.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Config file (.json, .yaml or .yml); defaults apply when empty")

	root.AddCommand(newServeCmd(console))
	root.AddCommand(newScanCmd(console))
	root.AddCommand(newSanitizeCmd())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	console := logger.CreateLoggerFromEnv(nil, "blue").With("process", "deepguard")

	if err := NewRootCmd(console).Execute(); err != nil {
		if !errors.Is(err, ErrThreatsFound) {
			fmt.Fprintf(os.Stderr, "deepguard: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads --config, or returns the defaults when it is unset.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
