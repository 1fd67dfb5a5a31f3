package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kdimtricp/xgtag/internal/app"
	"github.com/kdimtricp/xgtag/internal/config"
	"github.com/kdimtricp/xgtag/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for xgtagctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "xgtagctl",
		Short: "Maintenance tool for xgtag shot and annotation records",
		Long: `Inspect and maintain the records behind the xgtag annotation server.

Commands read the same configuration as the server: an optional YAML file
(--config or $XGTAG_CONFIG) overridden by environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
	}
}

func (o *RootOptions) loadConfig() (config.Config, *logger.Logger, error) {
	if err := config.LoadDotEnv(""); err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "failed to read .env", err)
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}
	return cfg, log, nil
}

// withServices wires the configured backends, runs fn and releases them.
func (o *RootOptions) withServices(ctx context.Context, fn func(*app.Services) error) error {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	services, err := app.Wire(ctx, cfg, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open storage", err)
	}
	defer services.Close()

	return fn(services)
}
