package atomicfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyproject.toml")

	require.NoError(t, WriteFile(path, []byte("a"), 0))
	require.NoError(t, WriteFile(path, []byte("b"), 0))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestWriteFileKeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	require.NoError(t, WriteFile(path, []byte("b"), 0))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestReplaceSkipsIdenticalContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyproject.toml")

	changed, err := Replace(path, []byte("x"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = Replace(path, []byte("x"))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestBackupPath(t *testing.T) {
	tests := map[string]string{
		"pyproject.toml":        "pyproject.bak.toml",
		"/a/b/pyproject.toml":   "/a/b/pyproject.bak.toml",
		"noext":                 "noext.bak",
		"dir.v1/pyproject.toml": "dir.v1/pyproject.bak.toml",
		"archive.tar.gz":        "archive.tar.bak.gz",
	}
	for in, want := range tests {
		assert.Equal(t, want, BackupPath(in), in)
	}
}

func TestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tool.poetry]\n"), 0o644))

	dst, err := Backup(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "pyproject.bak.toml"), dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "[tool.poetry]\n", string(got))

	_, err = Backup(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
