// Package config handles the poetry-migrate configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/poetry-migrate/internal/atomicfile"
	"github.com/aidanlsb/poetry-migrate/internal/constraint"
)

const appName = "poetry-migrate"

// Config represents the user configuration. Unset booleans fall back to
// the command defaults, so they are pointers.
type Config struct {
	// Literal writes new string values as TOML literal strings.
	Literal *bool `toml:"literal"`

	// Backup writes pyproject.bak.toml before the file is replaced.
	Backup *bool `toml:"backup"`

	// Check runs the structural check before migrating.
	Check *bool `toml:"check"`

	// CheckStrict makes check warnings fatal.
	CheckStrict bool `toml:"check_strict"`

	// Presets replaces the version constraints offered for requires-poetry
	// and poetry-core.
	Presets []string `toml:"presets"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent"`
}

// UseLiteral reports whether literal strings are enabled (default true).
func (c *Config) UseLiteral() bool {
	return c.Literal == nil || *c.Literal
}

// MakeBackup reports whether backups are enabled (default true).
func (c *Config) MakeBackup() bool {
	return c.Backup == nil || *c.Backup
}

// RunCheck reports whether the pre-flight check is enabled (default true).
func (c *Config) RunCheck() bool {
	return c.Check == nil || *c.Check
}

// Validate rejects presets that are not version constraints.
func (c *Config) Validate() error {
	for _, p := range c.Presets {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("presets: empty constraint")
		}
		if _, err := constraint.Parse(p); err != nil {
			return fmt.Errorf("presets: %q: %w", p, err)
		}
	}
	return nil
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads and validates the configuration at path. Unknown keys are
// an error so that typos do not silently fall back to defaults.
func LoadFrom(path string) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/poetry-migrate/config.toml first,
// then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", appName, "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, appName, "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# poetry-migrate configuration

# Write new string values as TOML literal strings ('...').
# literal = true

# Write pyproject.bak.toml next to the migrated file.
# backup = true

# Check the file structure before migrating; check_strict fails on warnings.
# check = true
# check_strict = false

# Version constraints offered for requires-poetry and poetry-core.
# presets = [">=2.0", ">=2.0,<3.0", ">=2.0.0", ">=2.0.0,<3.0.0"]

# Optional accent color, ANSI code (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
`

// CreateDefault writes a commented config file at path unless one already
// exists. It returns true when the file was created.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
