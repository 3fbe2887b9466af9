package tree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a schema document.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the schema encoding from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("schema %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

type schemaDoc struct {
	Name          string                `toml:"name" yaml:"name"`
	Literals      string                `toml:"literals" yaml:"literals"`
	AttributeSets map[string][]string   `toml:"attribute_sets" yaml:"attribute_sets"`
	Types         map[string]schemaType `toml:"types" yaml:"types"`
}

type schemaType struct {
	Category   string   `toml:"category" yaml:"category"`
	Attributes string   `toml:"attributes" yaml:"attributes"`
	Fields     []string `toml:"fields" yaml:"fields"`
}

// LoadSchema decodes a schema document. Each type names its attribute
// fields through a shared attribute set so position fields are declared
// once per schema.
func LoadSchema(r io.Reader, format Format) (*Schema, error) {
	var doc schemaDoc
	switch format {
	case FormatTOML:
		meta, err := toml.NewDecoder(r).Decode(&doc)
		if err != nil {
			return nil, fmt.Errorf("decode schema: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode schema: unknown key %s", undecoded[0])
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode schema: unknown format %q", format)
	}

	literals, err := LiteralStyleByName(doc.Literals)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", doc.Name, err)
	}
	s := NewSchema(doc.Name, literals)

	names := make([]string, 0, len(doc.Types))
	for name := range doc.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := doc.Types[name]
		var attrs []string
		if t.Attributes != "" {
			set, ok := doc.AttributeSets[t.Attributes]
			if !ok {
				return nil, fmt.Errorf("schema %s: type %s: unknown attribute set %q", doc.Name, name, t.Attributes)
			}
			attrs = set
		}
		if _, err := s.Define(Descriptor{
			Name:       name,
			Category:   Category(t.Category),
			Attributes: attrs,
			Fields:     t.Fields,
		}); err != nil {
			return nil, fmt.Errorf("schema %s: %w", doc.Name, err)
		}
	}
	return s, nil
}

func LoadSchemaFile(path string) (*Schema, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSchema(f, format)
}
