package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/poetry-migrate/internal/config"
	"github.com/aidanlsb/poetry-migrate/internal/migrate"
	"github.com/aidanlsb/poetry-migrate/internal/ui"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a commented configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	})
	return configCmd
}

func configTargetPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := configTargetPath()
	created, err := config.CreateDefault(path)
	if err != nil {
		return handleError(out, ErrFileWriteError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(out, map[string]interface{}{"config_path": path, "created": created}, nil)
		return nil
	}
	if created {
		fmt.Fprintln(out, ui.Successf("Created %s", ui.FilePath(path)))
	} else {
		fmt.Fprintln(out, ui.Infof("%s already exists", ui.FilePath(path)))
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	_, statErr := os.Stat(resolvedConfigPath)
	exists := statErr == nil

	presets := cfg.Presets
	if len(presets) == 0 {
		presets = migrate.DefaultPresets
	}
	data := map[string]interface{}{
		"config_path":  resolvedConfigPath,
		"exists":       exists,
		"literal":      cfg.UseLiteral(),
		"backup":       cfg.MakeBackup(),
		"check":        cfg.RunCheck(),
		"check_strict": cfg.CheckStrict,
		"presets":      presets,
		"ui": map[string]interface{}{
			"accent": cfg.UI.Accent,
		},
	}

	if isJSONOutput() {
		outputSuccess(out, data, nil)
		return nil
	}

	if exists {
		fmt.Fprintf(out, "config: %s\n", ui.FilePath(resolvedConfigPath))
	} else {
		fmt.Fprintf(out, "config: %s %s\n", ui.FilePath(resolvedConfigPath), ui.Hint("(not found, run 'poetry-migrate config init')"))
	}
	tbl := ui.NewTable(2)
	tbl.AddRow("literal", fmt.Sprint(cfg.UseLiteral()))
	tbl.AddRow("backup", fmt.Sprint(cfg.MakeBackup()))
	tbl.AddRow("check", fmt.Sprint(cfg.RunCheck()))
	tbl.AddRow("check_strict", fmt.Sprint(cfg.CheckStrict))
	tbl.AddRow("presets", fmt.Sprint(presets))
	if cfg.UI.Accent != "" {
		tbl.AddRow("ui.accent", cfg.UI.Accent)
	}
	fmt.Fprint(out, tbl.String())
	return nil
}
