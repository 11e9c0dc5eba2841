package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Names tried in each directory, first match wins.
var configFileNames = []string{
	"mkparse.yml",
	"mkparse.yaml",
	".mkparse.yml",
	".mkparse.yaml",
}

// Discover returns the config file closest to dir, looking in dir and then
// each parent up to the file system root, so a Makefile.am deep in a source
// tree picks up the project's config. It returns "" when there is none.
func Discover(dir string) string {
	for {
		for _, name := range configFileNames {
			path := filepath.Join(dir, name)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load returns the configuration at configPath, or the one Discover finds
// from the working directory when configPath is empty. Settings the file
// omits keep their DefaultConfig values; keys mkparse does not know are an
// error.
func Load(configPath string) (*Config, error) {
	return LoadWith(configPath, nil)
}

// LoadWith is Load followed by Overlay of the keys v has set. A nil v
// applies no overlay.
func LoadWith(configPath string, v *viper.Viper) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		configPath = Discover(wd)
	}

	cfg := DefaultConfig()
	if configPath != "" {
		if err := decodeFile(configPath, cfg); err != nil {
			return nil, err
		}
	}
	if v != nil {
		if err := Overlay(cfg, v); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
