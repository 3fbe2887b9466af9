// Package colorize adds terminal colors to formatted trees.
package colorize

import (
	"strings"

	"github.com/fatih/color"
)

var keywords = map[string]bool{
	"None":  true,
	"True":  true,
	"False": true,
	"nil":   true,
	"true":  true,
	"false": true,
}

type Colorizer struct {
	types map[string]bool

	typeColor    *color.Color
	fieldColor   *color.Color
	stringColor  *color.Color
	numberColor  *color.Color
	keywordColor *color.Color
}

// New returns a colorizer that highlights the given node type names. It
// always emits escape sequences; callers decide whether the output is a
// terminal.
func New(typeNames []string) *Colorizer {
	c := &Colorizer{
		types:        make(map[string]bool, len(typeNames)),
		typeColor:    color.New(color.FgBlue, color.Bold),
		fieldColor:   color.New(color.FgYellow),
		stringColor:  color.New(color.FgGreen),
		numberColor:  color.New(color.FgMagenta),
		keywordColor: color.New(color.FgCyan),
	}
	for _, name := range typeNames {
		c.types[name] = true
	}
	for _, col := range []*color.Color{c.typeColor, c.fieldColor, c.stringColor, c.numberColor, c.keywordColor} {
		col.EnableColor()
	}
	return c
}

func (c *Colorizer) Colorize(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 2)
	for i := 0; i < len(text); {
		ch := text[i]
		switch {
		case ch == '\'' || ch == '"':
			j := scanString(text, i)
			b.WriteString(c.stringColor.Sprint(text[i:j]))
			i = j
		case ch == 'b' && i+1 < len(text) && (text[i+1] == '\'' || text[i+1] == '"') && !identByte(prev(text, i)):
			j := scanString(text, i+1)
			b.WriteString(c.stringColor.Sprint(text[i:j]))
			i = j
		case isDigit(ch) && !identByte(prev(text, i)):
			j := scanNumber(text, i)
			b.WriteString(c.numberColor.Sprint(text[i:j]))
			i = j
		case identStart(ch):
			j := i
			for j < len(text) && (identByte(text[j]) || text[j] == '.' && j+1 < len(text) && identStart(text[j+1])) {
				j++
			}
			b.WriteString(c.word(text[i:j], next(text, j)))
			i = j
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

func (c *Colorizer) word(w string, after byte) string {
	switch {
	case after == '(':
		name := w
		if k := strings.LastIndexByte(w, '.'); k >= 0 {
			name = w[k+1:]
		}
		if c.types[name] {
			return c.typeColor.Sprint(w)
		}
	case after == '=' && !strings.Contains(w, "."):
		return c.fieldColor.Sprint(w)
	case keywords[w]:
		return c.keywordColor.Sprint(w)
	}
	return w
}

// scanString returns the index just past the quoted literal starting at i.
func scanString(text string, i int) int {
	q := text[i]
	j := i + 1
	for j < len(text) {
		switch text[j] {
		case '\\':
			if j+2 > len(text) {
				return len(text)
			}
			j += 2
			continue
		case q:
			return j + 1
		case '\n':
			return j
		}
		j++
	}
	return len(text)
}

func scanNumber(text string, i int) int {
	j := i
	for j < len(text) {
		ch := text[j]
		switch {
		case isDigit(ch) || ch == '.' || ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z':
			j++
		case (ch == '+' || ch == '-') && (text[j-1] == 'e' || text[j-1] == 'E'):
			j++
		default:
			return j
		}
	}
	return j
}

func prev(text string, i int) byte {
	if i == 0 {
		return 0
	}
	return text[i-1]
}

func next(text string, i int) byte {
	if i >= len(text) {
		return 0
	}
	return text[i]
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func identStart(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func identByte(ch byte) bool { return identStart(ch) || isDigit(ch) }
