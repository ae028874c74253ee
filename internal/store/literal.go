package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/user/movie-planner-go/internal/model"
)

var errLiteral = errors.New("malformed literal")

// literalParser reads the loosely-quoted list/dict notation used by the dataset's
// object columns, e.g. [{'id': 16, 'name': 'Animation'}]. Both quote styles are
// accepted, as are None/True/False, tuples and trailing commas.
type literalParser struct {
	s   string
	pos int
}

// parseLiteral parses a whole cell into strings, float64s, bools, nil,
// []any and map[string]any values
func parseLiteral(s string) (any, error) {
	p := &literalParser{s: s}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("%w: trailing data at %d", errLiteral, p.pos)
	}
	return v, nil
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, fmt.Errorf("%w: unexpected end", errLiteral)
	}
	switch c := p.s[p.pos]; {
	case c == '[':
		return p.sequence(']')
	case c == '(':
		return p.sequence(')')
	case c == '{':
		return p.dict()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.ident()
	}
}

func (p *literalParser) sequence(closer byte) (any, error) {
	p.pos++
	items := []any{}
	for {
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == closer {
			p.pos++
			return items, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("%w: unterminated list", errLiteral)
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case closer:
		default:
			return nil, fmt.Errorf("%w: expected ',' at %d", errLiteral, p.pos)
		}
	}
}

func (p *literalParser) dict() (any, error) {
	p.pos++
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == '}' {
			p.pos++
			return out, nil
		}
		k, err := p.value()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return nil, fmt.Errorf("%w: expected ':' at %d", errLiteral, p.pos)
		}
		p.pos++
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[scalarString(k)] = v
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("%w: unterminated dict", errLiteral)
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, fmt.Errorf("%w: expected ',' at %d", errLiteral, p.pos)
		}
	}
}

func (p *literalParser) str() (any, error) {
	quote := p.s[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\' && p.pos+1 < len(p.s):
			p.pos++
			p.escape(&b)
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("%w: unterminated string", errLiteral)
}

// escape decodes the escape sequence at p.pos; unknown escapes are kept verbatim
func (p *literalParser) escape(b *strings.Builder) {
	c := p.s[p.pos]
	p.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if p.pos+width <= len(p.s) {
			if n, err := strconv.ParseUint(p.s[p.pos:p.pos+width], 16, 32); err == nil && utf8.ValidRune(rune(n)) {
				b.WriteRune(rune(n))
				p.pos += width
				return
			}
		}
		b.WriteByte('\\')
		b.WriteByte(c)
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	for p.pos < len(p.s) && strings.IndexByte("+-.0123456789eE", p.s[p.pos]) >= 0 {
		p.pos++
	}
	f, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad number %q", errLiteral, p.s[start:p.pos])
	}
	return f, nil
}

func (p *literalParser) ident() (any, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			break
		}
		p.pos++
	}
	switch word := p.s[start:p.pos]; word {
	case "None", "null", "nan", "NaN":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %q at %d", errLiteral, word, start)
	}
}

// scalarString renders a parsed scalar the way it appears in the source
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}

// ParseEntries parses a list-of-object cell. A blank or malformed cell yields an
// empty list; list elements that are not objects are dropped.
func ParseEntries(cell string) []model.Entry {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return []model.Entry{}
	}
	v, err := parseLiteral(cell)
	if err != nil {
		return []model.Entry{}
	}
	items, ok := v.([]any)
	if !ok {
		return []model.Entry{}
	}
	entries := make([]model.Entry, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, model.Entry{
			ID:         scalarString(obj["id"]),
			Name:       scalarString(obj["name"]),
			Job:        scalarString(obj["job"]),
			Department: scalarString(obj["department"]),
			Character:  scalarString(obj["character"]),
			ISO:        scalarString(firstPresent(obj, "iso_3166_1", "iso_639_1")),
		})
	}
	return entries
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}
