package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/config"
	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string
	Manifest   string

	// Config is loaded before any subcommand runs, with flag overrides
	// applied.
	Config config.Config

	// Logger is built from Config and Verbose.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the isolate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "isolate",
		Version: ir.Version,
		Short:   "isolate - find the add-on causing a problem",
		Long: `Isolate finds the single installed add-on that causes a problem by
bisection. Each step enables half of the remaining candidates and asks
whether the problem persists. Every add-on is put back into its original
state when the search ends, however it ends.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Manifest, "manifest", "", "path to add-on manifest (overrides config)")

	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewWhitelistCommand(opts))
	cmd.AddCommand(NewQuietCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// setup loads the config, applies flag overrides and installs the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.DB = o.Database
	}
	if o.Manifest != "" {
		cfg.Manifest = o.Manifest
	}
	o.Config = cfg

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.LogLevel,
		Verbose: o.Verbose,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	o.Logger = logger
	slog.SetDefault(logger)

	if cfg.Source != "" {
		logger.Debug("config loaded", "file", cfg.Source)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
