package pyast

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/skrider/astpretty/pkg/tree"
)

// ErrUnsupported is returned for syntax outside the lowered subset
// (f-strings, match statements, ...).
var ErrUnsupported = errors.New("unsupported syntax")

// SyntaxError reports source the grammar rejected. Line and Col are
// 1-based.
type SyntaxError struct {
	Filename string
	Line     int
	Col      int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Col, e.Msg)
}

// Parser parses Python source with tree-sitter and lowers the concrete
// syntax tree to Python ast nodes.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(ctx context.Context, name string, src []byte) (*tree.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	root := t.RootNode()
	if root.HasError() {
		return nil, syntaxError(name, root)
	}

	l := &lowerer{filename: name, src: src}
	mod := l.module(root)
	if l.err != nil {
		return nil, l.err
	}
	return mod, nil
}

// syntaxError locates the first ERROR or MISSING node below n.
func syntaxError(name string, n *sitter.Node) error {
	bad := firstError(n)
	if bad == nil {
		bad = n
	}
	msg := "invalid syntax"
	if bad.IsMissing() {
		msg = fmt.Sprintf("expected %q", bad.Type())
	}
	p := bad.StartPoint()
	return &SyntaxError{
		Filename: name,
		Line:     int(p.Row) + 1,
		Col:      int(p.Column) + 1,
		Msg:      msg,
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}
