package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yndnr/supertracker-go/internal/infra/confloader"
)

// Load reads the configuration from defaults, the YAML file at path and
// SUPERTRACKER_ environment variables, then verifies it.
//
// A missing file is an error only when path was given explicitly; an
// empty path tries DefaultConfigPath and silently skips it if absent.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg := Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
