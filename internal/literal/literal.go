// Package literal parses text holding a literal data structure, such as
// "['python', 'sql']", into Go values. Only literals are accepted: strings,
// numbers, booleans, None, and lists, tuples, sets and dicts of those. Names,
// calls, operators other than a leading sign, and everything else are
// rejected, so parsing untrusted text never evaluates anything.
package literal

import (
	"errors"
	"fmt"
)

// Bytes is a bytes literal such as b'abc'. It is kept apart from string so a
// bytes item never passes for text.
type Bytes []byte

// Tuple is a parenthesized sequence such as ('a', 'b').
type Tuple []any

// Set is a braced sequence without keys such as {'a', 'b'}.
type Set []any

// Pair is one key/value entry of a Dict.
type Pair struct {
	Key   any
	Value any
}

// Dict keeps entries in source order.
type Dict []Pair

// SyntaxError describes where the input stopped being a valid literal.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("literal: %s at offset %d", e.Msg, e.Offset)
}

var ErrNotStringList = errors.New("literal: value is not a sequence of strings")

// maxDepth bounds container nesting.
const maxDepth = 64

// Parse parses src as a single literal. The result is one of nil, bool,
// int64, float64, string, Bytes, []any, Tuple, Set or Dict.
func Parse(src string) (any, error) {
	p := &parser{src: src}
	p.skipSpace()
	v, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after literal", p.peek())
	}
	return v, nil
}

// StringList parses src and requires a list or tuple whose items are all
// strings. A None literal yields ok=false with no error.
func StringList(src string) (items []string, ok bool, err error) {
	v, err := Parse(src)
	if err != nil {
		return nil, false, err
	}
	var seq []any
	switch x := v.(type) {
	case nil:
		return nil, false, nil
	case []any:
		seq = x
	case Tuple:
		seq = x
	default:
		return nil, false, fmt.Errorf("%w: got %s", ErrNotStringList, typeName(v))
	}
	items = make([]string, 0, len(seq))
	for i, item := range seq {
		s, isStr := item.(string)
		if !isStr {
			return nil, false, fmt.Errorf("%w: item %d is %s", ErrNotStringList, i, typeName(item))
		}
		items = append(items, s)
	}
	return items, true, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "None"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case Bytes:
		return "bytes"
	case []any:
		return "list"
	case Tuple:
		return "tuple"
	case Set:
		return "set"
	case Dict:
		return "dict"
	default:
		return fmt.Sprintf("%T", v)
	}
}
