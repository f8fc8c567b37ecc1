// Package config loads the optional YAML or TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSource = "./prisma/schema.prisma"
	DefaultOutput = "./xataSchema.json"
	DefaultFormat = "json"

	// DatabaseURLEnv is read when the config file names no database URL
	DatabaseURLEnv = "XATASCHEMA_DATABASE_URL"
)

// Config holds the settings of one conversion run
type Config struct {
	Source        string   `yaml:"source" toml:"source"`
	Output        string   `yaml:"output" toml:"output"`
	Format        string   `yaml:"format" toml:"format"`
	ExcludeModels []string `yaml:"exclude_models" toml:"exclude_models"`
	Strict        bool     `yaml:"strict" toml:"strict"`
	Database      Database `yaml:"database" toml:"database"`
}

// Database configures introspection of a live database instead of a schema file
type Database struct {
	URL    string `yaml:"url" toml:"url"`
	Schema string `yaml:"schema" toml:"schema"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Source: DefaultSource,
		Output: DefaultOutput,
		Format: DefaultFormat,
	}
}

// Load reads a config file. The format follows the extension: .toml, or
// .yaml/.yml. Relative source and output paths are resolved against the
// directory of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	source, output := cfg.Source, cfg.Output
	cfg.Source, cfg.Output = "", ""

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			keys := make([]string, len(unknown))
			for i, k := range unknown {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (use .yaml, .yml or .toml)", ext)
	}

	dir := filepath.Dir(path)
	if cfg.Source == "" {
		cfg.Source = source
	} else {
		cfg.Source = resolvePath(dir, cfg.Source)
	}
	if cfg.Output == "" {
		cfg.Output = output
	} else if cfg.Output != "-" {
		cfg.Output = resolvePath(dir, cfg.Output)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv fills the database URL from the environment. File values take
// precedence.
func (c *Config) ApplyEnv() {
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv(DatabaseURLEnv)
	}
}

// Validate checks the settings and fills empty values with defaults
func (c *Config) Validate() error {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	switch c.Format {
	case "json", "text", "markdown":
	default:
		return fmt.Errorf("format must be one of: json, text, markdown")
	}

	if c.Source == "" && c.Database.URL == "" {
		return fmt.Errorf("source or database.url is required")
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}

	for i, name := range c.ExcludeModels {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("exclude_models[%d] is empty", i)
		}
	}

	return nil
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
