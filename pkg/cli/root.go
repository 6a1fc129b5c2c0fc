// Package cli implements the ax command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/goax/pkg/config"
	"github.com/dshills/goax/pkg/logging"
)

const (
	// Version is the current version of ax
	Version = "0.4.0"
)

// Config holds the global flags for the ax CLI
type Config struct {
	ConfigDir string
	Debug     bool
	Fixture   string
	JSON      bool
}

// GlobalConfig is the shared flag instance
var GlobalConfig = &Config{}

// state is what PersistentPreRunE resolves for every subcommand.
type state struct {
	dir    string
	cfg    config.Config
	logger *slog.Logger
}

var current = &state{cfg: config.Default(), logger: logging.Discard()}

// NewRootCommand creates the root cobra command for ax
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ax",
		Short: "ax - accessibility tree navigation and training data collection",
		Long: `ax reads the accessibility tree of the frontmost application, acts on its
elements, watches it for changes, and records (command, element) pairs as
training data for element-selection models.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initRuntime(cmd); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
	}

	// Persistent flags (available to all subcommands)
	cmd.PersistentFlags().BoolVar(&GlobalConfig.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&GlobalConfig.ConfigDir, "config-dir", "", "Configuration directory (default: ~/.goax)")
	cmd.PersistentFlags().StringVar(&GlobalConfig.Fixture, "fixture", "", "Fixture file or stored fixture name to use as the accessibility provider")
	cmd.PersistentFlags().BoolVar(&GlobalConfig.JSON, "json", false, "Output as JSON")

	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewTreeCommand())
	cmd.AddCommand(NewFocusCommand())
	cmd.AddCommand(NewAtCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewClickCommand())
	cmd.AddCommand(NewTypeCommand())
	cmd.AddCommand(NewDoCommand())
	cmd.AddCommand(NewInteractiveCommand())
	cmd.AddCommand(NewCollectCommand())
	cmd.AddCommand(NewSessionsCommand())
	cmd.AddCommand(NewSessionCommand())
	cmd.AddCommand(NewDatasetCommand())
	cmd.AddCommand(NewFixturesCommand())
	cmd.AddCommand(NewConfigCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// initRuntime resolves the configuration directory, loads config.yaml
// (creating it on first run) and installs the logger.
func initRuntime(cmd *cobra.Command) error {
	dir, err := config.ResolveDir(GlobalConfig.ConfigDir)
	if err != nil {
		return err
	}
	cfg, err := config.Init(dir)
	if err != nil {
		return err
	}

	logger, err := logging.FromConfig(cfg.Logging, GlobalConfig.Debug, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	current = &state{dir: dir, cfg: cfg, logger: logger}
	logger.Debug("configuration loaded", "dir", dir, "source", cfg.Source)
	return nil
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// NewVersionCommand prints the version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ax version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if GlobalConfig.JSON {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": Version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ax %s\n", Version)
			return nil
		},
	}
}
