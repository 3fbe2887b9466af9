package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/skrider/astpretty/pkg/pretty"
)

var ErrUnknownFormat = errors.New("unknown config format")

// FileNames are searched, in order, by Discover.
var FileNames = []string{".astpretty.toml", ".astpretty.yaml", ".astpretty.yml"}

type Config struct {
	ShowOffsets     bool   `toml:"show_offsets" yaml:"show_offsets"`
	Indent          string `toml:"indent" yaml:"indent"`
	IndentLevel     int    `toml:"indent_level" yaml:"indent_level"`
	NamespacePrefix string `toml:"namespace_prefix" yaml:"namespace_prefix"`
	Colorize        bool   `toml:"colorize" yaml:"colorize"`
	Lang            string `toml:"lang" yaml:"lang"`
	Jobs            int    `toml:"jobs" yaml:"jobs"`
	Verbose         bool   `toml:"verbose" yaml:"verbose"`
}

func NewConfig() Config {
	return Config{
		ShowOffsets: true,
		Indent:      "    ",
	}
}

// Load reads a TOML or YAML file, picked by extension, over the defaults.
func Load(path string) (Config, error) {
	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("%s: unknown keys %v", path, undecoded)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	return cfg, cfg.Validate()
}

// Discover returns the first config file of FileNames present in dir, or
// "" when there is none.
func Discover(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func (c Config) Validate() error {
	if c.IndentLevel < 0 {
		return fmt.Errorf("indent level must not be negative, got %d", c.IndentLevel)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	return nil
}

// Pretty returns the formatter settings of c.
func (c Config) Pretty() pretty.Config {
	cfg := pretty.DefaultConfig()
	cfg.ShowOffsets = c.ShowOffsets
	cfg.Indent = c.Indent
	cfg.IndentLevel = c.IndentLevel
	cfg.NamespacePrefix = c.NamespacePrefix
	return cfg
}
