package pretty

import (
	"strings"

	"github.com/skrider/astpretty/pkg/tree"
)

// NamespaceSeparator ends a non-empty namespace prefix.
const NamespaceSeparator = "."

// Config controls the layout of formatted output.
type Config struct {
	// IndentLevel is the nesting depth of the outermost node.
	IndentLevel int
	// Indent is repeated once per depth.
	Indent string
	// ShowOffsets includes attribute fields (source positions).
	ShowOffsets bool
	// NamespacePrefix is prepended to every type name.
	NamespacePrefix string
	// Literals overrides the literal style of the tree's schema.
	Literals tree.LiteralStyle
}

func DefaultConfig() Config {
	return Config{
		Indent:      "    ",
		ShowOffsets: true,
	}
}

type Option func(*Config)

func WithIndent(indent string) Option {
	return func(c *Config) { c.Indent = indent }
}

func WithIndentLevel(level int) Option {
	return func(c *Config) { c.IndentLevel = level }
}

func WithShowOffsets(show bool) Option {
	return func(c *Config) { c.ShowOffsets = show }
}

func WithNamespacePrefix(prefix string) Option {
	return func(c *Config) { c.NamespacePrefix = prefix }
}

func WithLiterals(style tree.LiteralStyle) Option {
	return func(c *Config) { c.Literals = style }
}

// WithConfig replaces the whole configuration; later options still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

func (c Config) normalized() Config {
	if c.IndentLevel < 0 {
		c.IndentLevel = 0
	}
	if c.NamespacePrefix != "" && !strings.HasSuffix(c.NamespacePrefix, NamespaceSeparator) {
		c.NamespacePrefix += NamespaceSeparator
	}
	return c
}
