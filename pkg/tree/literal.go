package tree

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LiteralStyle renders primitive payloads as unambiguous source literals.
type LiteralStyle interface {
	Name() string
	Literal(prim any) string
}

var (
	PythonLiterals LiteralStyle = pythonLiterals{}
	GoLiterals     LiteralStyle = goLiterals{}
)

// LiteralStyleByName resolves "python" or "go".
func LiteralStyleByName(name string) (LiteralStyle, error) {
	switch name {
	case "python":
		return PythonLiterals, nil
	case "go", "":
		return GoLiterals, nil
	default:
		return nil, fmt.Errorf("unknown literal style %q", name)
	}
}

type pythonLiterals struct{}

func (pythonLiterals) Name() string { return "python" }

func (pythonLiterals) Literal(prim any) string {
	switch v := prim.(type) {
	case nil:
		return "None"
	case string:
		return pyQuote(v)
	case []byte:
		return "b" + pyQuoteBytes(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(v, 10)
	case *big.Int:
		return v.String()
	case float64:
		return pyFloat(v, true)
	case complex128:
		return pyComplex(v)
	case Symbol:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// pyQuote follows CPython's str repr: single quotes unless the text holds
// a single quote and no double quote.
func pyQuote(s string) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			if sr, ok := surrogateAt(s, i); ok {
				fmt.Fprintf(&b, `\u%04x`, sr)
				i += 3
				continue
			}
			fmt.Fprintf(&b, `\x%02x`, s[i])
			i++
			continue
		}
		i += size
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteByte(quote)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < utf8.RuneSelf || unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// surrogateAt decodes a lone UTF-16 surrogate stored in generalized UTF-8
// at s[i:].
func surrogateAt(s string, i int) (rune, bool) {
	if i+3 > len(s) || s[i] != 0xed || s[i+1] < 0xa0 || s[i+1] > 0xbf || s[i+2] < 0x80 || s[i+2] > 0xbf {
		return 0, false
	}
	return 0xd000 | rune(s[i+1]&0x3f)<<6 | rune(s[i+2]&0x3f), true
}

func pyQuoteBytes(p []byte) string {
	quote := byte('\'')
	if strings.IndexByte(string(p), '\'') >= 0 && strings.IndexByte(string(p), '"') < 0 {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, c := range p {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == quote:
			b.WriteByte('\\')
			b.WriteByte(quote)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c < ' ' || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// pyFloat renders the shortest round-trip form the way CPython's float
// repr does: positional for exponents in [-4, 16), scientific otherwise.
// forcePoint appends ".0" to integral positional values.
func pyFloat(f float64, forcePoint bool) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return sci
	}
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if forcePoint && !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func pyComplex(c complex128) string {
	re, im := real(c), imag(c)
	if re == 0 && !math.Signbit(re) {
		return pyFloat(im, false) + "j"
	}
	sign := "+"
	if math.Signbit(im) && !math.IsNaN(im) {
		sign = ""
	}
	return "(" + pyFloat(re, false) + sign + pyFloat(im, false) + "j)"
}

type goLiterals struct{}

func (goLiterals) Name() string { return "go" }

func (goLiterals) Literal(prim any) string {
	switch v := prim.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case []byte:
		return fmt.Sprintf("[]byte(%q)", v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case *big.Int:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case complex128:
		return strconv.FormatComplex(v, 'g', -1, 128)
	case Symbol:
		return string(v)
	default:
		return fmt.Sprintf("%#v", v)
	}
}
