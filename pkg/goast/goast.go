// Package goast adapts go/ast trees for formatting. Node types and fields
// are discovered by reflection the first time a type is seen and cached
// as descriptors in a shared schema.
package goast

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"

	"fortio.org/safecast"

	"github.com/skrider/astpretty/pkg/tree"
)

var (
	schema = tree.NewSchema("go", tree.GoLiterals)

	nodeType  = reflect.TypeOf((*ast.Node)(nil)).Elem()
	posType   = reflect.TypeOf(token.Pos(0))
	tokenType = reflect.TypeOf(token.Token(0))
)

// skipped fields either point back up the tree or duplicate other fields.
var skipped = map[string]bool{
	"Obj":        true,
	"Scope":      true,
	"Imports":    true,
	"Unresolved": true,
	"Comments":   true,
}

// PositionFields are the attribute fields of every converted node, derived
// from Pos and End.
var PositionFields = []string{"lineno", "col_offset", "end_lineno", "end_col_offset"}

// Schema returns the descriptors of every go/ast type converted so far.
func Schema() *tree.Schema { return schema }

// Parser parses Go source files with go/parser.
type Parser struct {
	Mode parser.Mode
}

func NewParser() *Parser {
	return &Parser{Mode: parser.ParseComments | parser.SkipObjectResolution}
}

// Parse returns the converted *ast.File. Parse errors come back as
// go/scanner error lists.
func (p *Parser) Parse(ctx context.Context, name string, src []byte) (*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, name, src, p.Mode)
	if err != nil {
		return nil, err
	}
	return Convert(fset, f)
}

// Convert turns any go/ast node into a tree node. Positions are resolved
// against fset.
func Convert(fset *token.FileSet, n ast.Node) (*tree.Node, error) {
	c := &converter{fset: fset}
	v, err := c.value(reflect.ValueOf(n))
	if err != nil {
		return nil, err
	}
	if v.Kind() != tree.KindNode {
		return nil, fmt.Errorf("goast: %T did not convert to a node", n)
	}
	return v.Node(), nil
}

type converter struct {
	fset *token.FileSet
}

func (c *converter) value(rv reflect.Value) (tree.Value, error) {
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return tree.None(), nil
		}
		if rv.Kind() == reflect.Interface {
			return c.value(rv.Elem())
		}
		if rv.Type().Implements(nodeType) && rv.Elem().Kind() == reflect.Struct {
			return c.node(rv.Elem())
		}
		return c.value(rv.Elem())
	case reflect.Slice:
		elems := make([]tree.Value, rv.Len())
		for i := range elems {
			v, err := c.value(rv.Index(i))
			if err != nil {
				return tree.None(), err
			}
			elems[i] = v
		}
		return tree.Seq(elems...), nil
	}

	if rv.Type() == tokenType {
		return tree.String(token.Token(rv.Int()).String()), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return tree.String(rv.String()), nil
	case reflect.Bool:
		return tree.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return tree.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, err := safecast.Conv[int64](rv.Uint())
		if err != nil {
			return tree.None(), err
		}
		return tree.Int(i), nil
	case reflect.Struct:
		return c.node(rv)
	default:
		return tree.String(fmt.Sprint(rv.Interface())), nil
	}
}

// positions resolves the span of n to the four position attributes.
// Columns are 0-based byte offsets.
func (c *converter) positions(n ast.Node, fields tree.Fields) {
	for i, p := range []token.Pos{n.Pos(), n.End()} {
		line, col := tree.None(), tree.None()
		if p.IsValid() {
			pp := c.fset.Position(p)
			line, col = tree.Int(int64(pp.Line)), tree.Int(int64(pp.Column-1))
		}
		fields[PositionFields[2*i]] = line
		fields[PositionFields[2*i+1]] = col
	}
}

func (c *converter) node(rv reflect.Value) (tree.Value, error) {
	d, err := describe(rv.Type())
	if err != nil {
		return tree.None(), err
	}
	fields := make(tree.Fields, len(d.Names()))
	for _, name := range d.Attributes {
		fields[name] = tree.None()
	}
	if len(d.Attributes) > 0 && rv.CanAddr() {
		if n, ok := rv.Addr().Interface().(ast.Node); ok {
			c.positions(n, fields)
		}
	}
	for _, name := range d.Fields {
		v, err := c.value(rv.FieldByName(name))
		if err != nil {
			return tree.None(), fmt.Errorf("%s.%s: %w", d.Name, name, err)
		}
		fields[name] = v
	}
	n, err := d.New(fields)
	if err != nil {
		return tree.None(), err
	}
	return tree.NodeValue(n), nil
}

// describe returns the cached descriptor for struct type t, defining it on
// first use. Node types get the position attributes; content is every
// exported field except raw token.Pos values.
func describe(t reflect.Type) (*tree.Descriptor, error) {
	if d, ok := schema.Lookup(t.Name()); ok {
		return d, nil
	}
	d := tree.Descriptor{Name: t.Name()}
	if reflect.PointerTo(t).Implements(nodeType) {
		d.Attributes = PositionFields
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || skipped[f.Name] || f.Type == posType {
			continue
		}
		d.Fields = append(d.Fields, f.Name)
	}
	desc, err := schema.Define(d)
	if err != nil {
		// Another goroutine got there first.
		if existing, ok := schema.Lookup(t.Name()); ok {
			return existing, nil
		}
		return nil, err
	}
	return desc, nil
}
