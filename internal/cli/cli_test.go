package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacySource = `[tool.poetry]
name = "pkg"
version = "1.2.3"

[tool.poetry.dependencies]
python = "^3.9"
`

const migratedSource = `[tool.poetry]
version = "1.2.3"

[tool.poetry.dependencies]
python = "^3.9"

[project]
name = "pkg"
dynamic = ["version"]
requires-python = '>=3.9,<4.0'
`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI runs the root command with an empty config file unless args
// already carry --config.
func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	hasConfig := false
	for _, a := range args {
		if a == "--config" {
			hasConfig = true
		}
	}
	if !hasConfig {
		cfgFile := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(cfgFile, nil, 0o644))
		args = append([]string{"--config", cfgFile}, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func decodeResponse(t *testing.T, out string) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestMigrateWritesFileAndBackup(t *testing.T) {
	path := writeProject(t, legacySource)

	res := runCLI(t, "-n", path)
	require.NoError(t, res.err)

	assert.Equal(t, migratedSource, readFile(t, path))
	assert.Equal(t, legacySource, readFile(t, filepath.Join(filepath.Dir(path), "pyproject.bak.toml")))
	assert.Contains(t, res.stdout, "Creating backup at")
	assert.Contains(t, res.stdout, "poetry lock && poetry install")
	assert.Contains(t, res.stdout, "Decisions")
}

func TestMigrateNoBackup(t *testing.T) {
	path := writeProject(t, legacySource)

	res := runCLI(t, "-n", "--no-backup", path)
	require.NoError(t, res.err)

	_, err := os.Stat(filepath.Join(filepath.Dir(path), "pyproject.bak.toml"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, migratedSource, readFile(t, path))
}

func TestMigrateDirectoryArgument(t *testing.T) {
	path := writeProject(t, legacySource)

	res := runCLI(t, "-n", "--no-backup", filepath.Dir(path))
	require.NoError(t, res.err)
	assert.Equal(t, migratedSource, readFile(t, path))
}

func TestMigrateDryRunLeavesFileAlone(t *testing.T) {
	path := writeProject(t, legacySource)

	res := runCLI(t, "-n", "--dry-run", path)
	require.NoError(t, res.err)

	assert.Equal(t, legacySource, readFile(t, path))
	assert.Contains(t, res.stdout, "Generated file")
	assert.Contains(t, res.stdout, migratedSource)
	_, err := os.Stat(filepath.Join(filepath.Dir(path), "pyproject.bak.toml"))
	assert.True(t, os.IsNotExist(err), "dry runs make no backup")
}

func TestMigrateDiffImpliesDryRun(t *testing.T) {
	path := writeProject(t, legacySource)

	res := runCLI(t, "-q", "--diff", path)
	require.NoError(t, res.err)

	assert.Equal(t, legacySource, readFile(t, path))
	assert.Contains(t, res.stdout, "+[project]")
	assert.Contains(t, res.stdout, "-name = \"pkg\"")
	assert.NotContains(t, res.stdout, "Migrating")
}

func TestMigrateAlreadyMigrated(t *testing.T) {
	path := writeProject(t, migratedSource)

	res := runCLI(t, "-n", "--no-backup", path)
	require.NoError(t, res.err)

	assert.Equal(t, migratedSource, readFile(t, path))
	assert.Contains(t, res.stdout, "already migrated")
}

func TestMigrateWarningsGoToStderr(t *testing.T) {
	path := writeProject(t, `[tool.poetry]
name = "old"

[project]
name = "new"
`)

	res := runCLI(t, "-n", "--no-backup", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "⚠ Warning: project.name and tool.poetry.name are both set; the former is kept")
}

func TestMigrateMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "pyproject.toml")

	res := runCLI(t, "--json", "-n", missing)
	require.ErrorIs(t, res.err, errReported)

	resp := decodeResponse(t, res.stdout)
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrFileNotFound, resp.Error.Code)
}

func TestMigrateCheckFailureAborts(t *testing.T) {
	src := "[tool.poetry]\nversion = \"1.0\"\n"
	path := writeProject(t, src)

	res := runCLI(t, "--json", "-n", path)
	require.ErrorIs(t, res.err, errReported)

	resp := decodeResponse(t, res.stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCheckFailed, resp.Error.Code)
	assert.Equal(t, src, readFile(t, path))
	_, err := os.Stat(filepath.Join(filepath.Dir(path), "pyproject.bak.toml"))
	assert.True(t, os.IsNotExist(err))

	res = runCLI(t, "-n", "--no-check", "--no-backup", path)
	require.NoError(t, res.err, "--no-check skips the check")
}

func TestMigrateCheckStrict(t *testing.T) {
	src := legacySource + "\n[tool.poetry.dev-dependencies]\npytest = \"^8.0\"\n"
	path := writeProject(t, src)

	res := runCLI(t, "-n", "--dry-run", path)
	require.NoError(t, res.err, "warnings pass by default")

	res = runCLI(t, "-n", "--dry-run", "--check-strict", path)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "check failed (1 warning)")
}

func TestMigrateParseError(t *testing.T) {
	path := writeProject(t, "[tool.poetry\nname = 1\n")

	res := runCLI(t, "--json", "--no-check", "-n", path)
	require.ErrorIs(t, res.err, errReported)

	resp := decodeResponse(t, res.stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrParseError, resp.Error.Code)
}

func TestMigrateJSONOutput(t *testing.T) {
	path := writeProject(t, legacySource)

	res := runCLI(t, "--json", "--dry-run", path)
	require.NoError(t, res.err)

	var resp struct {
		OK   bool        `json:"ok"`
		Data migrateData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp), res.stdout)
	assert.True(t, resp.OK)
	assert.True(t, resp.Data.DryRun)
	assert.True(t, resp.Data.Changed)
	assert.False(t, resp.Data.Written)
	assert.Equal(t, migratedSource, resp.Data.Document)
	assert.Len(t, resp.Data.Decisions, 4)
	assert.Empty(t, res.stderr)
}

func TestConfigOverridesAndFlags(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("literal = false\nbackup = false\n"), 0o644))
	path := writeProject(t, legacySource)

	res := runCLI(t, "--config", cfgFile, "-n", path)
	require.NoError(t, res.err)
	assert.Contains(t, readFile(t, path), `requires-python = ">=3.9,<4.0"`)
	_, err := os.Stat(filepath.Join(filepath.Dir(path), "pyproject.bak.toml"))
	assert.True(t, os.IsNotExist(err), "backup = false in config")
}

func TestInvalidConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("presets = [\"nope\"]\n"), 0o644))

	res := runCLI(t, "--config", cfgFile, "--json", "-n", writeProject(t, legacySource))
	require.ErrorIs(t, res.err, errReported)
	resp := decodeResponse(t, res.stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrConfigInvalid, resp.Error.Code)
}

func TestConfigInitAndShow(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "nested", "config.toml")

	res := runCLI(t, "--config", cfgFile, "config", "init")
	require.NoError(t, res.err)
	assert.Contains(t, readFile(t, cfgFile), "# poetry-migrate configuration")

	res = runCLI(t, "--config", cfgFile, "--json", "config")
	require.NoError(t, res.err)
	resp := decodeResponse(t, res.stdout)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["exists"])
	assert.Equal(t, true, data["literal"])
}
