// Package atomicfile replaces files through a temporary sibling and keeps
// backups of what it replaces.
package atomicfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultPerm os.FileMode = 0o644

// WriteFile writes data to path through a temporary file in the same
// directory followed by a rename, so readers never see a partial file.
//
// A zero perm keeps the mode of the file being replaced, or 0644 for a new
// file.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = modeOf(path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	// Not every filesystem supports chmod on an open file.
	_ = tmp.Chmod(perm)

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := rename(tmpPath, path); err != nil {
		return err
	}

	committed = true
	return nil
}

// Replace writes data to path unless the file already holds exactly data.
// It reports whether the file changed.
func Replace(path string, data []byte) (bool, error) {
	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := WriteFile(path, data, 0); err != nil {
		return false, err
	}
	return true, nil
}

// BackupPath returns the backup location for path: the extension is kept
// last so editors still recognize the file, e.g. pyproject.bak.toml.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".bak" + ext
}

// Backup copies path to BackupPath(path), replacing an older backup, and
// returns the backup location.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	dst := BackupPath(path)
	if err := WriteFile(dst, data, modeOf(path)); err != nil {
		return "", fmt.Errorf("write backup %s: %w", dst, err)
	}
	return dst, nil
}

func modeOf(path string) os.FileMode {
	if st, err := os.Stat(path); err == nil {
		return st.Mode().Perm()
	}
	return defaultPerm
}

// rename moves tmp over path. Windows refuses to rename over an existing
// file, so the target is removed and the rename retried once.
func rename(tmp, path string) error {
	err := os.Rename(tmp, path)
	if err == nil {
		return nil
	}
	_ = os.Remove(path)
	if err2 := os.Rename(tmp, path); err2 != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
