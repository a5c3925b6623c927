package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/poetry-migrate/internal/config"
	"github.com/aidanlsb/poetry-migrate/internal/ui"
)

var (
	configPath string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "poetry-migrate [flags] [path]",
		Short: "Migrate pyproject.toml from Poetry v1 to PEP 621",
		Long: `poetry-migrate moves the metadata of a Poetry v1 project from [tool.poetry]
to the standard [project] table (PEP 621), as understood by Poetry 2.

Whatever [project] cannot express stays in [tool.poetry]. Nothing is
overwritten: when both places hold a value, [project] wins and a warning
is printed. Run with --dry-run (and --diff) first to preview the result.

The path defaults to ./pyproject.toml; a directory means its pyproject.toml.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help", "completion", "init":
				cfg = &config.Config{}
				return nil
			}

			var err error
			cfg, resolvedConfigPath, err = loadConfig()
			if err != nil {
				return handleError(cmd.OutOrStdout(), ErrConfigInvalid, err, "Fix the file or pass --config with another path")
			}
			ui.ConfigureTheme(cfg.UI.Accent)
			return nil
		},
		RunE: runMigrate,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config file (default ~/.config/poetry-migrate/config.toml)")
	pf.BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	addMigrateFlags(rootCmd.Flags())

	rootCmd.AddCommand(newVersionCmd(), newConfigCmd())
	return rootCmd
}

// loadConfig reads --config when given, the default location otherwise.
// An explicit path must exist.
func loadConfig() (*config.Config, string, error) {
	if configPath == "" {
		path := config.DefaultPath()
		c, err := config.Load()
		return c, path, err
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, configPath, fmt.Errorf("config file %s: %w", configPath, err)
	}
	c, err := config.LoadFrom(configPath)
	return c, configPath, err
}

// Execute runs the CLI.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, ui.Errorf("%v", err))
	}
	return err
}
