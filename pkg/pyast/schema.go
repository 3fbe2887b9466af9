// Package pyast produces Python ast shaped trees: node types, fields and
// positions follow CPython's ast module so formatted output matches what
// Python developers expect to see.
package pyast

import (
	"bytes"
	_ "embed"

	"github.com/skrider/astpretty/pkg/tree"
)

//go:embed python.toml
var schemaDoc []byte

var schema *tree.Schema

func init() {
	s, err := tree.LoadSchema(bytes.NewReader(schemaDoc), tree.FormatTOML)
	if err != nil {
		panic(err)
	}
	schema = s
}

// Schema returns the descriptors of every Python ast node type.
func Schema() *tree.Schema { return schema }

// PositionFields are the attribute fields of positioned node types.
var PositionFields = []string{"lineno", "col_offset", "end_lineno", "end_col_offset"}
