package table

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	Missing Kind = iota
	Text
	Number
	Time
	List
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Time:
		return "time"
	case List:
		return "list"
	default:
		return "missing"
	}
}

// Value is a single nullable cell. The zero Value is missing.
//
// Fields are exported so a table can be gob-encoded; use the constructors
// and accessors instead of setting them directly.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	At   time.Time
	Strs []string
}

func Null() Value { return Value{} }

func TextOf(s string) Value { return Value{Kind: Text, Str: s} }

func NumberOf(f float64) Value { return Value{Kind: Number, Num: f} }

func TimeOf(t time.Time) Value { return Value{Kind: Time, At: t} }

// ListOf copies items so the caller may reuse its slice. A nil slice becomes
// an empty list, not a missing value.
func ListOf(items []string) Value {
	strs := make([]string, len(items))
	copy(strs, items)
	return Value{Kind: List, Strs: strs}
}

func (v Value) IsMissing() bool { return v.Kind == Missing }

func (v Value) Text() (string, bool) { return v.Str, v.Kind == Text }

func (v Value) Number() (float64, bool) { return v.Num, v.Kind == Number }

func (v Value) Time() (time.Time, bool) { return v.At, v.Kind == Time }

func (v Value) List() ([]string, bool) { return v.Strs, v.Kind == List }

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Text:
		return v.Str == o.Str
	case Number:
		return v.Num == o.Num
	case Time:
		return v.At.Equal(o.At)
	case List:
		if len(v.Strs) != len(o.Strs) {
			return false
		}
		for i := range v.Strs {
			if v.Strs[i] != o.Strs[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Str
	case Number:
		return fmt.Sprintf("%g", v.Num)
	case Time:
		return v.At.Format(time.RFC3339Nano)
	case List:
		return fmt.Sprintf("%q", v.Strs)
	default:
		return "<missing>"
	}
}

// MarshalJSON writes the natural JSON form: null, string, number, RFC 3339
// string or array of strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Text:
		return json.Marshal(v.Str)
	case Number:
		return json.Marshal(v.Num)
	case Time:
		return json.Marshal(v.At.Format(time.RFC3339Nano))
	case List:
		if v.Strs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Strs)
	default:
		return []byte("null"), nil
	}
}
