// Package config loads optional chatpatch defaults from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	LocalFile = ".chatpatch.toml"
	AppDir    = "chatpatch"
	UserFile  = "config.toml"
)

// File is the on-disk configuration. Every field is optional.
type File struct {
	LookupDirs []string `toml:"lookup_dirs"`
	Extensions []string `toml:"extensions"`
	Output     string   `toml:"output"`
	Workers    int      `toml:"workers"`
	Verify     bool     `toml:"verify"`

	path string
}

// Path returns the file the configuration was read from, or "" when no
// file was found.
func (f *File) Path() string {
	return f.path
}

// Candidates returns the config paths searched by Load, in priority order.
func Candidates() []string {
	var paths []string
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, LocalFile))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, AppDir, UserFile))
	}
	return paths
}

// Load reads the first existing candidate file. A missing file is not an
// error and yields an empty configuration.
func Load() (*File, error) {
	for _, path := range Candidates() {
		cfg, err := LoadFrom(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return &File{}, nil
}

// LoadFrom reads the configuration at path.
func LoadFrom(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg File
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid config %s: workers must not be negative", path)
	}
	cfg.path = path
	return &cfg, nil
}
