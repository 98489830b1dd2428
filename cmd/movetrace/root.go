package main

import (
	"fmt"
	"os"

	"github.com/arloliu/movetrace"
	"github.com/spf13/cobra"
)

// Global flags
var cfgFile string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movetrace",
		Short: "Movetrace - traced dance move lookup service",
		Long: `Movetrace answers dance move lookups over HTTP and gRPC.

Every request produces one trace: the ingress span, the handler span and the
move lookup span, delivered to each configured exporter (otlp, console, nats).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (YAML or JSON)")

	cmd.AddCommand(newServeCmd(), newProbeCmd(), newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads path, or builds the config from defaults and the
// environment when path is empty.
func loadConfig(path string) (*movetrace.Config, error) {
	if path == "" {
		cfg, err := movetrace.DefaultConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build default config: %w", err)
		}

		return cfg, nil
	}

	cfg, err := movetrace.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return cfg, nil
}
