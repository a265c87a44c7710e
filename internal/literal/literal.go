package literal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax wraps every parse failure so callers can classify them with errors.Is.
var ErrSyntax = errors.New("invalid literal syntax")

// Kind identifies the shape of a parsed Value.
type Kind uint8

const (
	String Kind = iota
	Int
	Float
	List
	Map
)

// String returns the human-readable name used in decode error messages.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "float"
	case List:
		return "sequence"
	case Map:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is one node of a parsed literal. Exactly one payload field is
// meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	List  []Value
	Map   []Pair
}

// Pair is a single key/value entry of a mapping literal. Pairs keep their
// source order so duplicate keys can resolve last-wins at construction time.
type Pair struct {
	Key   Value
	Value Value
}

// Parse reads a complete literal from input: a scalar (integer, float,
// quoted or bare string), a bracketed sequence "[a, b]", or a braced mapping
// "{k: v}", nested to any depth. Whitespace around tokens is ignored and a
// trailing comma before a closing bracket is accepted. Empty input is an
// error; so is anything left over after a bracketed or quoted value.
func Parse(input string) (Value, error) {
	p := &parser{src: input}
	p.skipSpace()
	if p.eof() {
		return Value{}, fmt.Errorf("%w: empty value", ErrSyntax)
	}
	v, err := p.parseValue("")
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Value{}, fmt.Errorf("%w: unexpected %q after value", ErrSyntax, p.src[p.pos:])
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

// parseValue parses the next value. term holds the bytes that end a bare
// scalar in the current context; it is empty at the top level so an unquoted
// top-level scalar consumes the remaining input.
func (p *parser) parseValue(term string) (Value, error) {
	p.skipSpace()
	if p.eof() {
		return Value{}, fmt.Errorf("%w: missing value at offset %d", ErrSyntax, p.pos)
	}
	switch c := p.peek(); c {
	case '[':
		return p.parseList()
	case '{':
		return p.parseMap()
	case '"', '\'':
		s, err := p.parseQuoted()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: String, Str: s}, nil
	default:
		return p.parseBare(term)
	}
}

func (p *parser) parseList() (Value, error) {
	p.pos++ // consume '['
	out := Value{Kind: List, List: []Value{}}
	for {
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated sequence", ErrSyntax)
		}
		if p.peek() == ']' {
			p.pos++
			return out, nil
		}
		v, err := p.parseValue(",]")
		if err != nil {
			return Value{}, err
		}
		out.List = append(out.List, v)

		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated sequence", ErrSyntax)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return out, nil
		default:
			return Value{}, fmt.Errorf("%w: unexpected %q in sequence at offset %d", ErrSyntax, string(p.peek()), p.pos)
		}
	}
}

func (p *parser) parseMap() (Value, error) {
	p.pos++ // consume '{'
	out := Value{Kind: Map, Map: []Pair{}}
	for {
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated mapping", ErrSyntax)
		}
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}

		key, err := p.parseKey()
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if p.eof() || p.peek() != ':' {
			return Value{}, fmt.Errorf("%w: missing ':' after mapping key at offset %d", ErrSyntax, p.pos)
		}
		p.pos++ // consume ':'

		v, err := p.parseValue(",}")
		if err != nil {
			return Value{}, err
		}
		out.Map = append(out.Map, Pair{Key: key, Value: v})

		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("%w: unterminated mapping", ErrSyntax)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return Value{}, fmt.Errorf("%w: unexpected %q in mapping at offset %d", ErrSyntax, string(p.peek()), p.pos)
		}
	}
}

// parseKey parses a mapping key, which must be a scalar.
func (p *parser) parseKey() (Value, error) {
	switch c := p.peek(); c {
	case '[', '{':
		return Value{}, fmt.Errorf("%w: mapping keys must be scalars", ErrSyntax)
	case '"', '\'':
		s, err := p.parseQuoted()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: String, Str: s}, nil
	default:
		return p.parseBare(":")
	}
}

// parseBare reads an unquoted scalar token up to (but not including) any byte
// in term, trims surrounding whitespace, and classifies it as a number or a
// plain string.
func (p *parser) parseBare(term string) (Value, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(term, rune(p.peek())) {
		p.pos++
	}
	tok := strings.TrimSpace(p.src[start:p.pos])
	if tok == "" {
		return Value{}, fmt.Errorf("%w: missing value at offset %d", ErrSyntax, start)
	}
	return classifyBare(tok), nil
}

func (p *parser) parseQuoted() (string, error) {
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.eof() {
				return "", fmt.Errorf("%w: unterminated escape sequence", ErrSyntax)
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				return "", fmt.Errorf("%w: unsupported escape \\%s", ErrSyntax, string(e))
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("%w: unterminated quoted string", ErrSyntax)
}

func classifyBare(tok string) Value {
	if looksNumeric(tok) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return Value{Kind: Int, Int: i}
		}
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Value{Kind: Float, Float: f}
		}
	}
	return Value{Kind: String, Str: tok}
}

// looksNumeric reports whether tok is a plain decimal number. It deliberately
// rejects forms strconv would accept but the grammar should not: hex floats,
// "Inf", "NaN", and digit-separating underscores.
func looksNumeric(tok string) bool {
	i := 0
	if tok[i] == '+' || tok[i] == '-' {
		i++
	}
	digits, dot, exp := false, false, false
	for ; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && digits && !exp:
			exp = true
			digits = false // the exponent needs its own digits
			if i+1 < len(tok) && (tok[i+1] == '+' || tok[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}
	return digits
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
