package app

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
)

// ErrWatchRequiresOsFs is returned when watching is enabled for definitions
// that are not read from the OS file system.
var ErrWatchRequiresOsFs = errors.New("watching definitions requires the OS file system")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DefinitionsPath string // hcl files with metamodels and layers
	RootDir         string // file references resolve against this directory

	Listen string
	Watch  bool

	LogFormat string
	LogLevel  string

	// Fs is the file system definitions and referenced files are read from.
	// Nil means the OS file system.
	Fs afero.Fs
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DefinitionsPath == "" {
		return nil, errors.New("DefinitionsPath is a required configuration field and cannot be empty")
	}
	if cfg.RootDir == "" {
		cfg.RootDir = "."
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if err := cfg.checkWatch(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkWatch rejects Watch on any Fs but the OS one, since file system
// notifications only exist for real directories.
func (c *Config) checkWatch() error {
	if !c.Watch {
		return nil
	}
	if _, ok := c.Fs.(*afero.OsFs); !ok {
		return fmt.Errorf("%w: got %T", ErrWatchRequiresOsFs, c.Fs)
	}
	return nil
}
