package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/poetry-migrate/internal/atomicfile"
	"github.com/aidanlsb/poetry-migrate/internal/check"
	"github.com/aidanlsb/poetry-migrate/internal/config"
	"github.com/aidanlsb/poetry-migrate/internal/decide"
	"github.com/aidanlsb/poetry-migrate/internal/migrate"
	"github.com/aidanlsb/poetry-migrate/internal/tomldoc"
	"github.com/aidanlsb/poetry-migrate/internal/ui"
)

const pyprojectName = "pyproject.toml"

// migrateOptions are the flags merged over the config file.
type migrateOptions struct {
	path          string
	check         bool
	checkStrict   bool
	backup        bool
	dryRun        bool
	diff          bool
	literal       bool
	noInteraction bool
	quiet         bool
	presets       []string
}

type migrateData struct {
	Path      string          `json:"path"`
	Backup    string          `json:"backup,omitempty"`
	DryRun    bool            `json:"dry_run"`
	Changed   bool            `json:"changed"`
	Written   bool            `json:"written"`
	Decisions []decide.Record `json:"decisions,omitempty"`
	Document  string          `json:"document,omitempty"`
	Diff      string          `json:"diff,omitempty"`
}

func addMigrateFlags(fs *pflag.FlagSet) {
	fs.Bool("no-check", false, "Skip the structural check of pyproject.toml")
	fs.Bool("check-strict", false, "Fail if the check reports warnings")
	fs.Bool("no-backup", false, "Do not create a backup of pyproject.toml before migration")
	fs.Bool("dry-run", false, "Print the migrated file instead of writing it")
	fs.Bool("diff", false, "With --dry-run, print a unified diff instead of the whole file (implies --dry-run)")
	fs.Bool("no-literal", false, "Use basic strings instead of literal strings for new values")
	fs.BoolP("no-interaction", "n", false, "Do not ask any question; take the default answers")
	fs.BoolP("quiet", "q", false, "Only print warnings and the generated file (implies --no-interaction)")
}

// resolveMigrateOptions applies the config file first and explicitly set
// flags second.
func resolveMigrateOptions(fs *pflag.FlagSet, c *config.Config, args []string) migrateOptions {
	if c == nil {
		c = &config.Config{}
	}
	opts := migrateOptions{
		check:       c.RunCheck(),
		checkStrict: c.CheckStrict,
		backup:      c.MakeBackup(),
		literal:     c.UseLiteral(),
		presets:     c.Presets,
	}

	flag := func(name string) bool {
		v, _ := fs.GetBool(name)
		return v
	}
	if fs.Changed("no-check") {
		opts.check = !flag("no-check")
	}
	if fs.Changed("check-strict") {
		opts.checkStrict = flag("check-strict")
	}
	if fs.Changed("no-backup") {
		opts.backup = !flag("no-backup")
	}
	if fs.Changed("no-literal") {
		opts.literal = !flag("no-literal")
	}
	opts.dryRun = flag("dry-run")
	opts.diff = flag("diff")
	opts.quiet = flag("quiet")
	opts.noInteraction = flag("no-interaction") || opts.quiet
	if opts.diff {
		opts.dryRun = true
	}
	if len(opts.presets) == 0 {
		opts.presets = migrate.DefaultPresets
	}

	opts.path = pyprojectName
	if len(args) > 0 {
		opts.path = args[0]
	}
	if st, err := os.Stat(opts.path); err == nil && st.IsDir() {
		opts.path = filepath.Join(opts.path, pyprojectName)
	}
	return opts
}

// printer writes human output; progress lines are dropped in quiet and
// JSON modes.
type printer struct {
	out, err io.Writer
	quiet    bool
}

func (p printer) progress(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p printer) warn(msg string) {
	if jsonOutput {
		return
	}
	fmt.Fprintln(p.err, ui.Warningf("Warning: %s", msg))
}

func runMigrate(cmd *cobra.Command, args []string) error {
	opts := resolveMigrateOptions(cmd.Flags(), cfg, args)
	stdout := cmd.OutOrStdout()
	p := printer{out: stdout, err: cmd.ErrOrStderr(), quiet: opts.quiet || jsonOutput}

	original, err := os.ReadFile(opts.path)
	if err != nil {
		if os.IsNotExist(err) {
			return handleError(stdout, ErrFileNotFound, fmt.Errorf("%s not found", opts.path), "Pass the path of a pyproject.toml or a directory containing one")
		}
		return handleError(stdout, ErrFileReadError, fmt.Errorf("failed to read %s: %w", opts.path, err), "")
	}

	var warnings []Warning
	if opts.check {
		issues, err := runCheck(p, opts, original)
		if err != nil {
			return handleErrorWithDetails(stdout, ErrCheckFailed, err, "Fix the reported issues or pass --no-check", issues)
		}
		for _, i := range issues {
			warnings = append(warnings, Warning{Code: WarnCheck, Message: i.Message, Field: i.Field})
		}
	}

	doc, err := tomldoc.Parse(original)
	if err != nil {
		return handleError(stdout, ErrParseError, fmt.Errorf("failed to parse %s: %w", opts.path, err), "")
	}

	data := migrateData{Path: opts.path, DryRun: opts.dryRun}
	if opts.backup && !opts.dryRun {
		p.progress("Creating backup at %s", ui.FilePath(atomicfile.BackupPath(opts.path)))
		data.Backup, err = atomicfile.Backup(opts.path)
		if err != nil {
			return handleError(stdout, ErrFileWriteError, err, "Pass --no-backup to migrate without a backup")
		}
	}

	p.progress("Migrating %s...", ui.FilePath(opts.path))
	decider, promptErr := newDecider(opts.noInteraction)
	m := migrate.New(decider, migrate.WithLiteral(opts.literal), migrate.WithPresets(opts.presets))
	result := m.Run(doc)
	if err := promptErr(); err != nil {
		if errors.Is(err, decide.ErrAborted) {
			return handleError(stdout, ErrAborted, errors.New("migration aborted; nothing was written"), "")
		}
		return handleError(stdout, ErrAborted, fmt.Errorf("migration stopped: %w", err), "Pass --no-interaction to take the default answers")
	}
	data.Decisions = result.Decisions

	for _, w := range result.Warnings {
		p.warn(w)
		warnings = append(warnings, Warning{Code: WarnMigration, Message: w})
	}
	if opts.noInteraction {
		printDecisions(p, result.Decisions)
	}

	migrated := result.Document.Bytes()
	data.Changed = string(migrated) != string(original)

	if opts.dryRun {
		if opts.diff {
			data.Diff, err = unifiedDiff(opts.path, original, migrated)
			if err != nil {
				return handleError(stdout, ErrInternal, err, "")
			}
		} else {
			data.Document = string(migrated)
		}
		if jsonOutput {
			outputSuccess(stdout, data, warnings)
			return nil
		}
		p.progress("\n%s\n", ui.Header("Generated file"))
		if opts.diff {
			printDiff(stdout, data.Diff)
		} else {
			fmt.Fprint(stdout, data.Document)
		}
		return nil
	}

	data.Written, err = atomicfile.Replace(opts.path, migrated)
	if err != nil {
		return handleError(stdout, ErrFileWriteError, fmt.Errorf("failed to write %s: %w", opts.path, err), "")
	}
	if jsonOutput {
		outputSuccess(stdout, data, warnings)
		return nil
	}
	if !data.Written {
		p.progress("%s", ui.Successf("%s is already migrated; nothing to write", opts.path))
		return nil
	}
	p.progress("%s", ui.Successf("Wrote %s", ui.FilePath(opts.path)))
	p.progress("%s", ui.Hint("It is recommended to run `poetry lock && poetry install` after migration."))
	return nil
}

// runCheck prints the check report and fails when it blocks migration.
func runCheck(p printer, opts migrateOptions, data []byte) ([]check.Issue, error) {
	p.progress("Checking %s", ui.FilePath(opts.path))
	report := check.Run(data)

	for _, i := range report.Issues {
		if i.Level == check.LevelError {
			p.progress("  %s", ui.Error(i.String()))
		} else {
			p.progress("  %s", ui.Warning(i.String()))
		}
	}
	errs, warns := len(report.Errors()), len(report.Warnings())
	if report.Failed(opts.checkStrict) {
		if !jsonOutput {
			fmt.Fprintln(p.err, ui.Errorf("Migration aborted due to errors in %s %s", opts.path, ui.ErrorWarningCounts(errs, warns)))
		}
		return report.Issues, fmt.Errorf("check failed %s", ui.ErrorWarningCounts(errs, warns))
	}
	if warns > 0 {
		p.progress("%s\n", ui.Successf("Check passed %s", ui.ErrorWarningCounts(0, warns)))
	} else {
		p.progress("%s\n", ui.Success("Check passed"))
	}
	return report.Issues, nil
}

func printDecisions(p printer, records []decide.Record) {
	tbl := ui.NewTable(2)
	for _, r := range records {
		answer := r.Answer
		if r.IsDefault {
			answer += " " + ui.Hint("(default)")
		}
		tbl.AddRow("  "+r.Prompt, ui.Accent.Render(answer))
	}
	if tbl.Len() == 0 {
		return
	}
	p.progress("%s\n%s", ui.Header("Decisions"), tbl.String())
}
