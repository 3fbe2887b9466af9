package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	want := Config{
		ShowOffsets:     false,
		Indent:          "\t",
		IndentLevel:     1,
		NamespacePrefix: "ast",
		Colorize:        true,
		Lang:            "go",
		Jobs:            4,
		Verbose:         false,
	}

	tomlPath := write(t, dir, "c.toml", `show_offsets = false
indent = "\t"
indent_level = 1
namespace_prefix = "ast"
colorize = true
lang = "go"
jobs = 4
`)
	yamlPath := write(t, dir, "c.yaml", `show_offsets: false
indent: "\t"
indent_level: 1
namespace_prefix: ast
colorize: true
lang: go
jobs: 4
`)
	for _, path := range []string{tomlPath, yamlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := write(t, t.TempDir(), "c.yml", "lang: python\n")
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := NewConfig()
	want.Lang = "python"
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		is      error
	}{
		{"unknown extension", "c.ini", "x=1", ErrUnknownFormat},
		{"unknown toml key", "c.toml", "colour = true\n", nil},
		{"bad yaml", "c.yaml", "indent: [\n", nil},
		{"negative level", "neg.toml", "indent_level = -1\n", nil},
		{"negative jobs", "jobs.yaml", "jobs: -2\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, dir, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load() succeeded")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Load() error = %v, want %v", err, tt.is)
			}
		})
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	if got := Discover(dir); got != "" {
		t.Errorf("Discover(empty) = %q", got)
	}
	yml := write(t, dir, ".astpretty.yml", "jobs: 1\n")
	if got := Discover(dir); got != yml {
		t.Errorf("Discover() = %q, want %q", got, yml)
	}
	tomlPath := write(t, dir, ".astpretty.toml", "jobs = 1\n")
	if got := Discover(dir); got != tomlPath {
		t.Errorf("Discover() = %q, want %q", got, tomlPath)
	}
}

func TestPretty(t *testing.T) {
	c := NewConfig()
	c.NamespacePrefix = "ast"
	c.IndentLevel = 2
	p := c.Pretty()
	if p.Indent != "    " || !p.ShowOffsets || p.IndentLevel != 2 || p.NamespacePrefix != "ast" {
		t.Errorf("Pretty() = %+v", p)
	}
}
