package pyast

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/skrider/astpretty/pkg/tree"
)

var errMixedBytes = errors.New("cannot mix bytes and nonbytes literals")

// parseNumber decodes an integer, float or imaginary literal.
func parseNumber(text string) (tree.Value, error) {
	clean := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(clean)

	if strings.HasSuffix(lower, "j") {
		f, err := strconv.ParseFloat(lower[:len(lower)-1], 64)
		if err != nil {
			return tree.None(), fmt.Errorf("invalid imaginary literal %q", text)
		}
		return tree.Complex(complex(0, f)), nil
	}

	isFloat := strings.ContainsAny(lower, ".")
	if !strings.HasPrefix(lower, "0x") && strings.ContainsAny(lower, "e") {
		isFloat = true
	}
	if isFloat {
		f, err := strconv.ParseFloat(lower, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return tree.None(), fmt.Errorf("invalid float literal %q", text)
		}
		return tree.Float(f), nil
	}

	// Python accepts leading zeros only for zero itself; base 0 would read
	// them as octal.
	if strings.TrimLeft(lower, "0") == "" {
		return tree.Int(0), nil
	}
	i, ok := new(big.Int).SetString(lower, 0)
	if !ok {
		return tree.None(), fmt.Errorf("invalid integer literal %q", text)
	}
	return tree.BigInt(i), nil
}

type strPiece struct {
	prefix string
	value  string
	bytes  bool
}

// str lowers a string or an implicitly concatenated run of strings into a
// single Constant.
func (l *lowerer) str(n *sitter.Node) tree.Value {
	parts := []*sitter.Node{n}
	if n.Type() == "concatenated_string" {
		parts = named(n)
	}

	var sb strings.Builder
	var isBytes bool
	kind := tree.None()
	for i, p := range parts {
		piece, err := decodeString(l.text(p))
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				return l.fail(p, ErrUnsupported, strings.TrimPrefix(err.Error(), ErrUnsupported.Error()+": "))
			}
			return l.fail(p, err, l.text(p))
		}
		if i == 0 {
			isBytes = piece.bytes
			if strings.ContainsAny(piece.prefix, "uU") {
				kind = tree.String("u")
			}
		} else if piece.bytes != isBytes {
			return l.fail(p, errMixedBytes, l.text(n))
		}
		sb.WriteString(piece.value)
	}

	value := tree.String(sb.String())
	if isBytes {
		value = tree.Bytes([]byte(sb.String()))
	}
	return l.constant(spanOf(n), value, kind)
}

// decodeString strips the prefix and quotes of one string literal and
// resolves its escape sequences.
func decodeString(lit string) (strPiece, error) {
	i := strings.IndexAny(lit, `'"`)
	if i < 0 {
		return strPiece{}, fmt.Errorf("malformed string literal %q", lit)
	}
	prefix := lit[:i]
	body := lit[i:]
	q := body[:1]
	if strings.HasPrefix(body, q+q+q) && len(body) >= 6 {
		q = q + q + q
	}
	if len(body) < 2*len(q) {
		return strPiece{}, fmt.Errorf("malformed string literal %q", lit)
	}
	body = body[len(q) : len(body)-len(q)]

	lp := strings.ToLower(prefix)
	if strings.Contains(lp, "f") {
		return strPiece{}, fmt.Errorf("%w: f-string", ErrUnsupported)
	}
	piece := strPiece{prefix: prefix, bytes: strings.Contains(lp, "b")}
	if strings.Contains(lp, "r") {
		piece.value = body
		return piece, nil
	}
	v, err := unescape(body, piece.bytes)
	if err != nil {
		return strPiece{}, err
	}
	piece.value = v
	return piece, nil
}

// unescape resolves backslash escapes the way Python does. In bytes mode
// \x and octal escapes produce raw bytes and \u, \U and \N are kept as
// written. Unknown escapes keep their backslash.
func unescape(s string, bytesMode bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	writeCode := func(c rune) {
		if bytesMode {
			sb.WriteByte(byte(c))
			return
		}
		if utf16.IsSurrogate(c) {
			// Lone surrogates keep their generalized UTF-8 form.
			sb.WriteByte(byte(0xe0 | c>>12))
			sb.WriteByte(byte(0x80 | c>>6&0x3f))
			sb.WriteByte(byte(0x80 | c&0x3f))
			return
		}
		var buf [utf8.UTFMax]byte
		sb.Write(buf[:utf8.EncodeRune(buf[:], c)])
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		e := s[i]
		switch e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			code, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(rune(code))
			i = j - 1
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if e != 'x' && bytesMode {
				sb.WriteByte('\\')
				sb.WriteByte(e)
				continue
			}
			if i+1+width > len(s) {
				return "", fmt.Errorf("truncated \\%c escape", e)
			}
			code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", fmt.Errorf("truncated \\%c escape", e)
			}
			if code > utf8.MaxRune {
				return "", fmt.Errorf("illegal Unicode character \\%c%s", e, s[i+1:i+1+width])
			}
			writeCode(rune(code))
			i += width
		case 'N':
			if bytesMode {
				sb.WriteString(`\N`)
				continue
			}
			return "", fmt.Errorf("%w: \\N{...} escape", ErrUnsupported)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}
