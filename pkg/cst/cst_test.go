package cst

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/skrider/astpretty/pkg/pretty"
	"github.com/skrider/astpretty/pkg/tree"
)

func TestParsePython(t *testing.T) {
	p := NewParser("python-cst", python.GetLanguage(), tree.PythonLiterals)
	root, err := p.Parse(context.Background(), "x.py", []byte("x = 1\n"))
	if err != nil {
		t.Fatal(err)
	}

	got := pretty.Format(tree.NodeValue(root), pretty.WithShowOffsets(false))
	want := `module(
    children=[
        expression_statement(
            children=[
                assignment(
                    left=identifier(text='x'),
                    right=integer(text='1'),
                ),
            ],
        ),
    ],
)`
	if got != want {
		t.Errorf("formatted =\n%s\nwant\n%s", got, want)
	}

	id := root.Field(ChildrenField).Elems()[0].Node().
		Field(ChildrenField).Elems()[0].Node().
		Field("right").Node()
	wantPos := map[string]int64{"lineno": 1, "col_offset": 4, "end_lineno": 1, "end_col_offset": 5}
	for name, want := range wantPos {
		if got := id.Field(name).Primitive(); got != want {
			t.Errorf("%s = %v, want %d", name, got, want)
		}
	}
}

func TestParseGo(t *testing.T) {
	p := NewParser("go-cst", golang.GetLanguage(), tree.GoLiterals)
	root, err := p.Parse(context.Background(), "p.go", []byte("package p\n"))
	if err != nil {
		t.Fatal(err)
	}
	got := pretty.Format(tree.NodeValue(root), pretty.WithShowOffsets(false))
	want := `source_file(
    children=[
        package_clause(
            children=[package_identifier(text="p")],
        ),
    ],
)`
	if got != want {
		t.Errorf("formatted =\n%s\nwant\n%s", got, want)
	}
}

func TestRepeatedFields(t *testing.T) {
	p := NewParser("go-cst", golang.GetLanguage(), tree.GoLiterals)
	root, err := p.Parse(context.Background(), "p.go", []byte("package p\n\nvar a, b = 1, 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	var spec *tree.Node
	tree.Walk(root, func(n *tree.Node) {
		if n.Type() == "var_spec" {
			spec = n
		}
	})
	if spec == nil {
		t.Fatal("no var_spec in tree")
	}
	names := spec.Field("name")
	if names.Kind() != tree.KindSequence || len(names.Elems()) != 2 {
		t.Fatalf("name = %v, want a sequence of two identifiers", names)
	}
	for i, want := range []string{"a", "b"} {
		if got := names.Elems()[i].Node().Field(TextField).Primitive(); got != want {
			t.Errorf("name[%d] = %v, want %s", i, got, want)
		}
	}
}

func TestSeparatorsDropped(t *testing.T) {
	p := NewParser("go-cst", golang.GetLanguage(), tree.GoLiterals)
	root, err := p.Parse(context.Background(), "p.go", []byte("package p\n\nvar a, b = 1, 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	got := pretty.New(pretty.WithShowOffsets(false)).FormatNode(root)
	if strings.Contains(got, `","`) {
		t.Errorf("separator token kept in a named field:\n%s", got)
	}
}

func TestAnonymousFieldKept(t *testing.T) {
	p := NewParser("go-cst", golang.GetLanguage(), tree.GoLiterals)
	root, err := p.Parse(context.Background(), "p.go", []byte("package p\n\nvar c = a + b\n"))
	if err != nil {
		t.Fatal(err)
	}
	var bin *tree.Node
	tree.Walk(root, func(n *tree.Node) {
		if n.Type() == "binary_expression" {
			bin = n
		}
	})
	if bin == nil {
		t.Fatal("no binary_expression in tree")
	}
	if op := bin.Field("operator"); op.Kind() != tree.KindPrimitive || op.Primitive() != "+" {
		t.Errorf("operator = %v, want \"+\"", op)
	}
}

func TestParseSyntaxError(t *testing.T) {
	p := NewParser("python-cst", python.GetLanguage(), tree.PythonLiterals)
	if _, err := p.Parse(context.Background(), "bad.py", []byte("def (\n")); !errors.Is(err, ErrSyntax) {
		t.Errorf("Parse() error = %v, want ErrSyntax", err)
	}
}
