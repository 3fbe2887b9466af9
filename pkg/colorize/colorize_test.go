package colorize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

func TestColorizeRoundTrip(t *testing.T) {
	inputs := []string{
		"Module(\n    body=[\n        Expr(\n            value=Constant(value=1.5e-07, kind=None),\n        ),\n    ],\n    type_ignores=[],\n)",
		`ast.Name(lineno=1, col_offset=0, id='it\'s', ctx=ast.Load())`,
		`Constant(value=b'\x00', kind='u')`,
		`BasicLit(Kind="STRING", Value="\"é\"")`,
		`Global(names=['x', 'y'])`,
		`unterminated('abc\`,
	}
	c := New([]string{"Module", "Expr", "Constant", "Name", "Load", "BasicLit", "Global"})
	for _, in := range inputs {
		got := c.Colorize(in)
		if got == in {
			t.Errorf("Colorize(%q) added no color", in)
		}
		if plain := ansi.ReplaceAllString(got, ""); plain != in {
			t.Errorf("stripped output = %q, want %q", plain, in)
		}
	}
}

func TestColorizeTokens(t *testing.T) {
	c := New([]string{"Name", "Load"})
	got := c.Colorize(`Name(id='x', ctx=Load(), n=-12, v=None, Other())`)

	wants := []string{
		paint("Name", color.FgBlue, color.Bold),
		paint("Load", color.FgBlue, color.Bold),
		paint("id", color.FgYellow),
		paint("ctx", color.FgYellow),
		paint("'x'", color.FgGreen),
		"-" + paint("12", color.FgMagenta),
		paint("None", color.FgCyan),
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("Colorize() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, paint("Other", color.FgBlue, color.Bold)) {
		t.Errorf("unknown type name was colored: %q", got)
	}
}
