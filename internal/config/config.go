// Package config loads the optional .localnav.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

// FileName is the project configuration file looked up from the working
// directory towards the filesystem root.
const FileName = ".localnav.toml"

// Config is the project configuration. Zero values mean "use the default".
type Config struct {
	DB        string   `toml:"db"`
	Languages []string `toml:"languages"`
	Workers   int      `toml:"workers"`
	Parallel  bool     `toml:"parallel"`
	SkipDirs  []string `toml:"skip_dirs"`
	LogLevel  string   `toml:"log_level"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{DB: ".localnav.db", Parallel: true, LogLevel: "warn"}
}

// Find walks from startDir up to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("config: resolving %s: %w", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path over the defaults. Unknown keys are logged and ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		log.WithField("file", path).Warnf("config: unknown key %q", key.String())
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads the configuration for startDir, falling back to
// the defaults when there is no file.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if strings.TrimSpace(c.DB) == "" {
		return errors.New("db must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level means warn.
func (c Config) Level() (log.Level, error) {
	if c.LogLevel == "" {
		return log.WarnLevel, nil
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
