// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf

import (
	"slices"
	"strings"
	"unicode/utf16"
)

// maxRangeSize bounds how many codes a single bfrange may expand to.
const maxRangeSize = 1 << 16

type cmapKey struct {
	n    int
	code uint32
}

// CMap is a parsed /ToUnicode character map. It maps the byte codes a font
// shows to the Unicode text they stand for.
type CMap struct {
	lens []int // code lengths in bytes, longest first
	m    map[cmapKey]string
}

// cmapItem is one operand inside a bf block: a hex string or an array of
// them.
type cmapItem struct {
	code  []byte
	array [][]byte
}

// ParseCMap reads the codespace, bfchar and bfrange sections of a ToUnicode
// stream. Sections it does not understand are skipped.
func ParseCMap(data []byte) *CMap {
	c := &CMap{m: map[cmapKey]string{}}
	var (
		items   []cmapItem
		inArray bool
		array   [][]byte
	)

	lex := lexer{data: data}
	for {
		t, ok := lex.next()
		if !ok {
			break
		}
		switch t.kind {
		case tokArrayStart:
			inArray = true
			array = nil
			continue
		case tokArrayEnd:
			inArray = false
			items = append(items, cmapItem{array: array})
			continue
		case tokString:
			if inArray {
				array = append(array, t.raw)
			} else {
				items = append(items, cmapItem{code: t.raw})
			}
			continue
		case tokOperator:
		default:
			continue
		}

		switch string(t.raw) {
		case "begincodespacerange", "beginbfchar", "beginbfrange":
			items = items[:0]
		case "endcodespacerange":
			for i := 0; i+1 < len(items); i += 2 {
				c.addLen(len(items[i].code))
			}
		case "endbfchar":
			for i := 0; i+1 < len(items); i += 2 {
				c.set(items[i].code, utf16Text(units(items[i+1].code)))
			}
		case "endbfrange":
			for i := 0; i+2 < len(items); i += 3 {
				c.setRange(items[i].code, items[i+1].code, items[i+2])
			}
		}
	}

	if len(c.lens) == 0 {
		for k := range c.m {
			c.addLen(k.n)
		}
	}
	if len(c.lens) == 0 {
		c.lens = []int{1}
	}
	slices.SortFunc(c.lens, func(a, b int) int { return b - a })
	return c
}

// Len is the number of mapped codes.
func (c *CMap) Len() int { return len(c.m) }

// Decode maps raw string bytes to text. At each position the longest code
// length with a mapping wins; unmapped codes are dropped.
func (c *CMap) Decode(raw []byte) string {
	var sb strings.Builder
	shortest := c.lens[len(c.lens)-1]
	for i := 0; i < len(raw); {
		step := shortest
		for _, n := range c.lens {
			if i+n > len(raw) {
				continue
			}
			if s, ok := c.m[key(raw[i:i+n])]; ok {
				sb.WriteString(s)
				step = n
				break
			}
		}
		i += step
	}
	return sb.String()
}

func (c *CMap) addLen(n int) {
	if n < 1 || n > 4 || slices.Contains(c.lens, n) {
		return
	}
	c.lens = append(c.lens, n)
}

func (c *CMap) set(code []byte, text string) {
	if len(code) == 0 || len(code) > 4 {
		return
	}
	c.m[key(code)] = text
}

// setRange expands lo..hi. A string destination is incremented in its last
// UTF-16 unit per code; an array destination lists each code's text.
func (c *CMap) setRange(lo, hi []byte, dst cmapItem) {
	if len(lo) != len(hi) || len(lo) == 0 || len(lo) > 4 {
		return
	}
	from, to := key(lo).code, key(hi).code
	if to < from || to-from >= maxRangeSize {
		return
	}
	n := len(lo)
	if dst.array != nil {
		for i, d := range dst.array {
			if from+uint32(i) > to {
				break
			}
			c.m[cmapKey{n: n, code: from + uint32(i)}] = utf16Text(units(d))
		}
		return
	}
	base := units(dst.code)
	if len(base) == 0 {
		return
	}
	for off := uint32(0); off <= to-from; off++ {
		u := slices.Clone(base)
		u[len(u)-1] += uint16(off)
		c.m[cmapKey{n: n, code: from + off}] = utf16Text(u)
	}
}

func key(b []byte) cmapKey {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return cmapKey{n: len(b), code: v}
}

// units splits big-endian bytes into UTF-16 code units. A trailing odd
// byte is read as a single unit.
func units(b []byte) []uint16 {
	out := make([]uint16, 0, (len(b)+1)/2)
	for i := 0; i+1 < len(b); i += 2 {
		out = append(out, uint16(b[i])<<8|uint16(b[i+1]))
	}
	if len(b)%2 == 1 {
		out = append(out, uint16(b[len(b)-1]))
	}
	return out
}

func utf16Text(u []uint16) string {
	return string(utf16.Decode(u))
}

// Font decodes the strings shown with one page font.
type Font struct {
	// Composite is set for Type0 fonts, whose codes are CIDs rather than
	// a single-byte encoding.
	Composite bool

	// ToUnicode is the font's Unicode map, if it has one.
	ToUnicode *CMap
}

// decode maps raw string bytes shown with f to text. Composite fonts
// without a Unicode map yield nothing: their codes are glyph ids, and the
// page has to be read by OCR instead.
func (f *Font) decode(raw []byte) string {
	switch {
	case f == nil:
		return decodeString(raw)
	case f.ToUnicode != nil:
		return f.ToUnicode.Decode(raw)
	case f.Composite:
		return ""
	default:
		return decodeString(raw)
	}
}
