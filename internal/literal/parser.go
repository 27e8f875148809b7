package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		case '\\':
			// explicit line joining
			if strings.HasPrefix(p.src[p.pos:], "\\\n") {
				p.pos += 2
			} else if strings.HasPrefix(p.src[p.pos:], "\\\r\n") {
				p.pos += 3
			} else {
				return
			}
		default:
			return
		}
	}
}

// parseTop allows a bare comma-separated sequence at the outermost level,
// which reads as a tuple: "'a', 'b'".
func (p *parser) parseTop() (any, error) {
	first, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() != ',' {
		return first, nil
	}
	items := Tuple{first}
	for p.peek() == ',' {
		p.pos++
		p.skipSpace()
		if p.eof() {
			break
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
	}
	return items, nil
}

func (p *parser) parseValue() (any, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	c := p.peek()
	switch {
	case c == '[':
		items, err := p.parseSeq('[', ']')
		if err != nil {
			return nil, err
		}
		return items, nil
	case c == '(':
		return p.parseParen()
	case c == '{':
		return p.parseBrace()
	case c == '\'' || c == '"':
		return p.parseStrings()
	case c == '+' || c == '-':
		return p.parseSigned()
	case c == '.' || isDigit(c):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parseName()
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorf("nesting deeper than %d", maxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// parseSeq reads open item, item, ... close with an optional trailing comma.
func (p *parser) parseSeq(open, close byte) ([]any, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.pos++ // open
	items := []any{}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("missing %q", close)
		}
		if p.peek() == close {
			p.pos++
			return items, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case close:
			p.pos++
			return items, nil
		default:
			if p.eof() {
				return nil, p.errorf("missing %q", close)
			}
			return nil, p.errorf("expected ',' or %q, found %q", close, p.peek())
		}
	}
}

// parseParen distinguishes a parenthesized value "(x)" from a tuple "(x,)".
func (p *parser) parseParen() (any, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.pos++
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return Tuple{}, nil
	}
	first, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	switch p.peek() {
	case ')':
		p.pos++
		return first, nil
	case ',':
	default:
		if p.eof() {
			return nil, p.errorf("missing ')'")
		}
		return nil, p.errorf("expected ',' or ')', found %q", p.peek())
	}

	items := Tuple{first}
	for {
		p.pos++ // ','
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return items, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
		case ')':
			p.pos++
			return items, nil
		default:
			if p.eof() {
				return nil, p.errorf("missing ')'")
			}
			return nil, p.errorf("expected ',' or ')', found %q", p.peek())
		}
	}
}

// parseBrace reads a dict or a set. "{}" is an empty dict.
func (p *parser) parseBrace() (any, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.pos++
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return Dict{}, nil
	}
	first, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == ':' {
		return p.finishDict(first)
	}
	return p.finishSet(first)
}

func (p *parser) finishDict(firstKey any) (Dict, error) {
	key := firstKey
	var d Dict
	for {
		p.pos++ // ':'
		if !hashable(key) {
			return nil, p.errorf("unhashable dict key of type %s", typeName(key))
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		d = append(d, Pair{Key: key, Value: val})
		p.skipSpace()
		switch p.peek() {
		case '}':
			p.pos++
			return d, nil
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return d, nil
			}
		default:
			if p.eof() {
				return nil, p.errorf("missing '}'")
			}
			return nil, p.errorf("expected ',' or '}', found %q", p.peek())
		}
		key, err = p.parseValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			if p.eof() {
				return nil, p.errorf("missing ':'")
			}
			return nil, p.errorf("expected ':', found %q", p.peek())
		}
	}
}

func (p *parser) finishSet(first any) (Set, error) {
	s := Set{first}
	for {
		if !hashable(s[len(s)-1]) {
			return nil, p.errorf("unhashable set item of type %s", typeName(s[len(s)-1]))
		}
		switch p.peek() {
		case '}':
			p.pos++
			return s, nil
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return s, nil
			}
		default:
			if p.eof() {
				return nil, p.errorf("missing '}'")
			}
			return nil, p.errorf("expected ',' or '}', found %q", p.peek())
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		s = append(s, v)
		p.skipSpace()
	}
}

func hashable(v any) bool {
	switch x := v.(type) {
	case []any, Set, Dict:
		return false
	case Tuple:
		for _, item := range x {
			if !hashable(item) {
				return false
			}
		}
	}
	return true
}

func (p *parser) parseName() (any, error) {
	start := p.pos
	for !p.eof() && isIdentPart(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]
	// a string prefix such as r'..' or b".."
	if !p.eof() && (p.peek() == '\'' || p.peek() == '"') && isStringPrefix(name) {
		p.pos = start
		return p.parseStrings()
	}
	switch name {
	case "None":
		return nil, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	}
	p.pos = start
	return nil, p.errorf("name %q is not a literal", name)
}

func (p *parser) parseSigned() (any, error) {
	neg := false
	for p.peek() == '+' || p.peek() == '-' {
		if p.peek() == '-' {
			neg = !neg
		}
		p.pos++
		p.skipSpace()
	}
	if p.eof() || !(isDigit(p.peek()) || p.peek() == '.') {
		return nil, p.errorf("sign must be followed by a number")
	}
	v, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if !neg {
		return v, nil
	}
	switch n := v.(type) {
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	}
	return v, nil
}

func (p *parser) parseNumber() (any, error) {
	start := p.pos
	if strings.HasPrefix(p.src[p.pos:], "0x") || strings.HasPrefix(p.src[p.pos:], "0X") ||
		strings.HasPrefix(p.src[p.pos:], "0o") || strings.HasPrefix(p.src[p.pos:], "0O") ||
		strings.HasPrefix(p.src[p.pos:], "0b") || strings.HasPrefix(p.src[p.pos:], "0B") {
		p.pos += 2
		for !p.eof() && (isHexDigit(p.peek()) || p.peek() == '_') {
			p.pos++
		}
		return p.finishInt(start, p.src[start:p.pos], 0)
	}

	isFloat := false
	p.digits()
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		p.digits()
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		isFloat = true
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if !isDigit(p.peek()) {
			return nil, p.errorf("malformed exponent")
		}
		p.digits()
	}
	if c := p.peek(); c == 'j' || c == 'J' {
		return nil, p.errorf("complex numbers are not supported")
	}
	if !p.eof() && isIdentPart(p.peek()) {
		return nil, p.errorf("malformed number")
	}
	text := p.src[start:p.pos]
	if text == "." {
		p.pos = start
		return nil, p.errorf("unexpected '.'")
	}
	if strings.Contains(text, "__") || strings.HasSuffix(text, "_") || strings.Contains(text, "_.") ||
		strings.Contains(text, "._") || strings.Contains(text, "_e") || strings.Contains(text, "_E") {
		p.pos = start
		return nil, p.errorf("malformed number %q", text)
	}
	if !isFloat {
		if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0_") != "" {
			p.pos = start
			return nil, p.errorf("leading zeros in decimal integer")
		}
		return p.finishInt(start, strings.ReplaceAll(text, "_", ""), 10)
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil && !isRangeErr(err) {
		p.pos = start
		return nil, p.errorf("malformed number %q", text)
	}
	return f, nil
}

func (p *parser) digits() {
	for !p.eof() && (isDigit(p.peek()) || p.peek() == '_') {
		p.pos++
	}
}

func (p *parser) finishInt(start int, text string, base int) (any, error) {
	n, err := strconv.ParseInt(text, base, 64)
	if err == nil {
		return n, nil
	}
	if isRangeErr(err) {
		// keep magnitude for integers wider than 64 bits
		u, uerr := strconv.ParseUint(text, base, 64)
		if uerr == nil {
			return float64(u), nil
		}
		return math.Inf(1), nil
	}
	p.pos = start
	return nil, p.errorf("malformed integer %q", text)
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// parseStrings reads one or more adjacent string literals and concatenates
// them, as 'a' "b" reads as "ab".
func (p *parser) parseStrings() (any, error) {
	var sb strings.Builder
	var kind byte // 's' text, 'b' bytes
	for {
		start := p.pos
		for !p.eof() && isIdentPart(p.peek()) {
			p.pos++
		}
		prefix := strings.ToLower(p.src[start:p.pos])
		if !isStringPrefix(prefix) || (p.peek() != '\'' && p.peek() != '"') {
			p.pos = start
			break
		}
		k := byte('s')
		if strings.Contains(prefix, "b") {
			k = 'b'
		}
		if kind != 0 && kind != k {
			return nil, p.errorf("cannot mix bytes and text literals")
		}
		kind = k
		s, err := p.parseString(strings.Contains(prefix, "r"), k == 'b')
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
		p.skipSpace()
		if p.eof() {
			break
		}
		if c := p.peek(); c != '\'' && c != '"' && !isIdentStart(c) {
			break
		}
	}
	if kind == 'b' {
		return Bytes(sb.String()), nil
	}
	return sb.String(), nil
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "", "r", "u", "b", "br", "rb":
		return true
	}
	return false
}

func (p *parser) parseString(raw, bytesLit bool) (string, error) {
	quote := p.peek()
	triple := strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3))
	if triple {
		p.pos += 3
	} else {
		p.pos++
	}
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.peek()
		if c == quote {
			if !triple {
				p.pos++
				return sb.String(), nil
			}
			if strings.HasPrefix(p.src[p.pos:], strings.Repeat(string(quote), 3)) {
				p.pos += 3
				return sb.String(), nil
			}
		}
		if (c == '\n' || c == '\r') && !triple {
			return "", p.errorf("newline in single-quoted string")
		}
		if c == '\\' {
			if raw {
				// a raw string keeps the backslash but it still escapes the quote
				sb.WriteByte('\\')
				p.pos++
				if p.eof() {
					return "", p.errorf("unterminated string")
				}
				sb.WriteByte(p.peek())
				p.pos++
				continue
			}
			if err := p.escape(&sb, bytesLit); err != nil {
				return "", err
			}
			continue
		}
		if bytesLit && c >= utf8.RuneSelf {
			return "", p.errorf("bytes literal may only contain ASCII")
		}
		sb.WriteByte(c)
		p.pos++
	}
}

func (p *parser) escape(sb *strings.Builder, bytesLit bool) error {
	p.pos++ // backslash
	if p.eof() {
		return p.errorf("unterminated string")
	}
	c := p.peek()
	p.pos++
	switch c {
	case '\n':
	case '\r':
		if p.peek() == '\n' {
			p.pos++
		}
	case '\\', '\'', '"':
		sb.WriteByte(c)
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
		n := int(c - '0')
		for i := 0; i < 2 && p.peek() >= '0' && p.peek() <= '7'; i++ {
			n = n*8 + int(p.peek()-'0')
			p.pos++
		}
		p.writeCode(sb, n, bytesLit)
	case 'x':
		return p.hexEscape(sb, 2, bytesLit)
	case 'u', 'U':
		if bytesLit {
			sb.WriteByte('\\')
			sb.WriteByte(c)
			return nil
		}
		width := 4
		if c == 'U' {
			width = 8
		}
		return p.hexEscape(sb, width, false)
	case 'N':
		return p.errorf("named unicode escapes are not supported")
	default:
		// unknown escapes are kept verbatim
		sb.WriteByte('\\')
		sb.WriteByte(c)
	}
	return nil
}

func (p *parser) hexEscape(sb *strings.Builder, width int, bytesLit bool) error {
	if p.pos+width > len(p.src) {
		return p.errorf("truncated escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+width], 16, 32)
	if err != nil {
		return p.errorf("invalid hex escape")
	}
	if n > unicode.MaxRune {
		return p.errorf("escape outside unicode range")
	}
	p.pos += width
	p.writeCode(sb, int(n), bytesLit)
	return nil
}

func (p *parser) writeCode(sb *strings.Builder, n int, bytesLit bool) {
	if bytesLit {
		sb.WriteByte(byte(n))
		return
	}
	sb.WriteRune(rune(n))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
