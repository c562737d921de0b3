package content

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"notedrop/internal/errs"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is an explicit tagged representation of a JSON value. Exactly one
// variant is populated, matching Kind. Object members keep the key order
// of the source document so re-serialization is deterministic.
type Value struct {
	kind  ValueKind
	b     bool
	num   string // number lexeme as it appeared in the source
	str   string
	items []Value
	mems  []Member
}

// Member is one ordered key/value pair of an object Value.
type Member struct {
	Key   string
	Value Value
}

func Null() Value           { return Value{kind: KindNull} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number builds a numeric Value from a Go float.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NumberLit builds a numeric Value from a source lexeme, preserving the
// exact textual form (no float round-trip).
func NumberLit(lexeme string) Value {
	return Value{kind: KindNumber, num: lexeme}
}

func Array(items ...Value) Value { return Value{kind: KindArray, items: items} }

func Object(mems ...Member) Value { return Value{kind: KindObject, mems: mems} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Bool() bool       { return v.b }
func (v Value) Str() string      { return v.str }
func (v Value) NumberLexeme() string { return v.num }

// Float returns the numeric variant as a float64.
func (v Value) Float() (float64, error) {
	return strconv.ParseFloat(v.num, 64)
}

func (v Value) Items() []Value    { return v.items }
func (v Value) Members() []Member { return v.mems }

// Get looks up a member by key on an object Value.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.mems {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// String renders the value as a compact JSON-like literal. Used for
// key:value record rendering, so it must be deterministic.
func (v Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v Value) render(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		sb.WriteString(v.num)
	case KindString:
		sb.WriteString(v.str)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.render(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, m := range v.mems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.Key)
			sb.WriteString(": ")
			m.Value.render(sb)
		}
		sb.WriteByte('}')
	}
}

// MarshalJSON emits the value in its original JSON shape, preserving
// object key order and number lexemes.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindNumber:
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			sb.Write(b)
		}
		sb.WriteByte(']')
		return []byte(sb.String()), nil
	case KindObject:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, m := range v.mems {
			if i > 0 {
				sb.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return nil, err
			}
			sb.Write(k)
			sb.WriteByte(':')
			b, err := m.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			sb.Write(b)
		}
		sb.WriteByte('}')
		return []byte(sb.String()), nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// FromAny converts a decoded-JSON Go value (as produced by encoding/json
// into any) to a Value. Map keys are sorted so the result is
// deterministic regardless of Go's map iteration order.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case json.Number:
		return NumberLit(t.String())
	case string:
		return String(t)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, FromAny(item))
		}
		return Value{kind: KindArray, items: items}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		mems := make([]Member, 0, len(keys))
		for _, k := range keys {
			mems = append(mems, Member{Key: k, Value: FromAny(t[k])})
		}
		return Value{kind: KindObject, mems: mems}
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// DecodeValue parses a full JSON document into a Value. Trailing non-space
// input after the document is malformed. Syntax errors are reported with
// the line and column of the offending byte.
func DecodeValue(data []byte) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	v, err := decodeNext(dec)
	if err != nil {
		return Value{}, syntaxError(data, dec, err)
	}

	// Anything left over besides whitespace is a second document.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errs.New(errs.KindMalformedData,
			"invalid JSON: unexpected trailing content at %s", position(data, dec.InputOffset()))
	}

	return v, nil
}

func decodeNext(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return NumberLit(t.String()), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeNext(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return Value{kind: KindArray, items: items}, nil
		case '{':
			var mems []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeNext(dec)
				if err != nil {
					return Value{}, err
				}
				mems = append(mems, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Value{}, err
			}
			return Value{kind: KindObject, mems: mems}, nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// syntaxError converts a decoder failure into a MalformedData error with
// line/column information.
func syntaxError(data []byte, dec *json.Decoder, err error) error {
	offset := dec.InputOffset()
	if serr, ok := err.(*json.SyntaxError); ok {
		offset = serr.Offset
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errs.New(errs.KindMalformedData, "invalid JSON: unexpected end of input at %s", position(data, int64(len(data))))
	}
	return errs.Wrap(errs.KindMalformedData, err, "invalid JSON at %s", position(data, offset))
}

// position renders a byte offset as "line L, column C" (both 1-based).
func position(data []byte, offset int64) string {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line := 1
	col := 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return fmt.Sprintf("line %d, column %d", line, col)
}
