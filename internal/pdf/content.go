// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf

import (
	"bytes"
	"strconv"
	"strings"
	stdunicode "unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// tjSpaceThreshold is the TJ kerning adjustment (thousandths of an em)
// beyond which a word break is assumed.
const tjSpaceThreshold = -200

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokNumber
	tokString
	tokArrayStart
	tokArrayEnd
	tokOther
)

type token struct {
	kind tokenKind
	raw  []byte // operator name, number text or decoded string bytes
}

// TextFromContent extracts the visible text of a decoded page content
// stream whose fonts all use a single-byte standard encoding.
func TextFromContent(data []byte) string {
	return ExtractText(data, nil)
}

// ExtractText extracts the visible text of a decoded page content stream.
// It follows the text-showing operators (Tj, TJ, ' and ") and turns line
// moves into newlines. Strings are decoded with the font selected by the
// last Tf, looked up by resource name in fonts; fonts missing from the map
// fall back to WinAnsi. Glyph positioning beyond that is ignored.
func ExtractText(data []byte, fonts map[string]*Font) string {
	var (
		sb       strings.Builder
		operands []token
		inArray  bool
		array    []token
		font     *Font
	)

	newline := func() {
		s := sb.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			sb.WriteByte('\n')
		}
	}
	show := func(t token) {
		sb.WriteString(font.decode(t.raw))
	}

	lex := lexer{data: data}
	for {
		t, ok := lex.next()
		if !ok {
			break
		}
		switch t.kind {
		case tokArrayStart:
			inArray = true
			array = array[:0]
			continue
		case tokArrayEnd:
			inArray = false
			continue
		}
		if inArray {
			array = append(array, t)
			continue
		}
		if t.kind != tokOperator {
			operands = append(operands, t)
			continue
		}

		switch string(t.raw) {
		case "Tf":
			font = nil
			for _, op := range operands {
				if op.kind == tokOther && len(op.raw) > 1 && op.raw[0] == '/' {
					font = fonts[string(op.raw[1:])]
				}
			}
		case "Tj":
			if s, ok := lastString(operands); ok {
				show(s)
			}
		case "'", `"`:
			newline()
			if s, ok := lastString(operands); ok {
				show(s)
			}
		case "TJ":
			for _, el := range array {
				switch el.kind {
				case tokString:
					show(el)
				case tokNumber:
					if n, err := strconv.ParseFloat(string(el.raw), 64); err == nil && n < tjSpaceThreshold {
						sb.WriteByte(' ')
					}
				}
			}
			array = array[:0]
		case "Td", "TD":
			if len(operands) >= 2 && !isZero(operands[len(operands)-1]) {
				newline()
			} else if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case "T*", "ET":
			newline()
		}
		operands = operands[:0]
	}
	return cleanText(sb.String())
}

func lastString(ops []token) (token, bool) {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].kind == tokString {
			return ops[i], true
		}
	}
	return token{}, false
}

func isZero(t token) bool {
	if t.kind != tokNumber {
		return false
	}
	n, err := strconv.ParseFloat(string(t.raw), 64)
	return err == nil && n == 0
}

// decodeString maps raw PDF string bytes to UTF-8. Strings starting with a
// UTF-16 byte order mark are decoded as UTF-16; everything else is treated
// as WinAnsi, which covers the standard 14 fonts. Single-byte encodings
// never show NUL, so a string containing one holds multi-byte glyph codes
// of an unknown font and decodes to nothing.
func decodeString(raw []byte) string {
	if bytes.HasPrefix(raw, []byte{0xfe, 0xff}) {
		out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err == nil {
			return string(out)
		}
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		return ""
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// cleanText drops control and other non-graphic runes, trims trailing
// spaces from every line, drops blank runs and normalises to NFC.
func cleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case !stdunicode.IsGraphic(r):
			return -1
		}
		return r
	}, s)
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return norm.NFC.String(strings.Join(out, "\n"))
}

// lexer splits a content or CMap stream into the tokens ExtractText and
// ParseCMap need.
// Dictionaries and inline image data are skipped as opaque tokens.
type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) next() (token, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			return token{kind: tokString, raw: l.literal()}, true
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return token{kind: tokOther, raw: []byte("<<")}, true
			}
			return token{kind: tokString, raw: l.hex()}, true
		case c == '>':
			l.pos++
			if l.pos < len(l.data) && l.data[l.pos] == '>' {
				l.pos++
			}
			return token{kind: tokOther, raw: []byte(">>")}, true
		case c == '[':
			l.pos++
			return token{kind: tokArrayStart}, true
		case c == ']':
			l.pos++
			return token{kind: tokArrayEnd}, true
		case c == '/':
			start := l.pos
			l.pos++
			l.word()
			return token{kind: tokOther, raw: l.data[start:l.pos]}, true
		case c == '{' || c == '}' || c == ')':
			l.pos++
		default:
			start := l.pos
			l.word()
			if l.pos == start {
				l.pos++
				continue
			}
			w := l.data[start:l.pos]
			if isNumber(w) {
				return token{kind: tokNumber, raw: w}, true
			}
			if bytes.Equal(w, []byte("BI")) {
				l.skipInlineImage()
				continue
			}
			return token{kind: tokOperator, raw: w}, true
		}
	}
	return token{}, false
}

func (l *lexer) word() {
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
}

func isNumber(w []byte) bool {
	if len(w) == 0 {
		return false
	}
	for _, c := range w {
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			return false
		}
	}
	return true
}

// literal reads a parenthesised string, resolving escapes and balanced
// nested parentheses.
func (l *lexer) literal() []byte {
	l.pos++ // (
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return out
			}
			out = append(out, c)
		case '\\':
			if l.pos >= len(l.data) {
				return out
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for i := 0; i < 2 && l.pos < len(l.data); i++ {
					d := l.data[l.pos]
					if d < '0' || d > '7' {
						break
					}
					v = v*8 + int(d-'0')
					l.pos++
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// hex reads a <...> hex string. An odd final digit is padded with zero.
func (l *lexer) hex() []byte {
	l.pos++ // <
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return out
}

// skipInlineImage jumps past BI ... ID <binary> EI.
func (l *lexer) skipInlineImage() {
	if i := bytes.Index(l.data[l.pos:], []byte("ID")); i >= 0 {
		l.pos += i + 2
	}
	if i := bytes.Index(l.data[l.pos:], []byte("EI")); i >= 0 {
		l.pos += i + 2
		return
	}
	l.pos = len(l.data)
}
