// Package lang maps language names and file extensions to parsers.
package lang

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/skrider/astpretty/pkg/cst"
	"github.com/skrider/astpretty/pkg/goast"
	"github.com/skrider/astpretty/pkg/pretty"
	"github.com/skrider/astpretty/pkg/pyast"
	"github.com/skrider/astpretty/pkg/tree"
)

var ErrUnknownLanguage = errors.New("unknown language")

const (
	Python        = "python"
	Go            = "go"
	PythonCST     = "python-cst"
	GoCST         = "go-cst"
	JavaScriptCST = "javascript-cst"
)

// Default is used for stdin when no language is given.
const Default = Python

var parsers = map[string]pretty.Parser{
	Python:        pyast.NewParser(),
	Go:            goast.NewParser(),
	PythonCST:     cst.NewParser(PythonCST, python.GetLanguage(), tree.PythonLiterals),
	GoCST:         cst.NewParser(GoCST, golang.GetLanguage(), tree.GoLiterals),
	JavaScriptCST: cst.NewParser(JavaScriptCST, javascript.GetLanguage(), tree.GoLiterals),
}

var extensions = map[string]string{
	".py":  Python,
	".pyi": Python,
	".go":  Go,
	".js":  JavaScriptCST,
	".mjs": JavaScriptCST,
	".cjs": JavaScriptCST,
}

func Lookup(name string) (pretty.Parser, error) {
	p, ok := parsers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownLanguage, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// ForPath picks the language of path by its extension.
func ForPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%s: %w for extension %q", path, ErrUnknownLanguage, ext)
	}
	return name, nil
}

// Known reports whether path has an extension some parser handles.
func Known(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func Names() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
