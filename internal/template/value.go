package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of runtime value types the template
// language operates on.
type Kind int

const (
	KindUndefined Kind = iota
	KindNone
	KindBool
	KindInt
	KindNumber // non-integral JSON number, kept as its source literal
	KindString
	KindList
	KindObject
	KindNamespace
)

// Field is one key/value pair of an object. Objects keep insertion order so
// tojson reproduces keys exactly as provided.
type Field struct {
	Key string
	Val Value
}

// Namespace is the mutable bag of fields created by namespace(...). It is
// shared by reference so `set ns.field = ...` persists across loop
// iterations, and is local to a single render.
type Namespace struct {
	fields []Field
}

// Get returns the named field, or an undefined Value.
func (ns *Namespace) Get(name string) Value {
	for _, f := range ns.fields {
		if f.Key == name {
			return f.Val
		}
	}
	return Value{}
}

// Set replaces or appends the named field.
func (ns *Namespace) Set(name string, v Value) {
	for i, f := range ns.fields {
		if f.Key == name {
			ns.fields[i].Val = v
			return
		}
	}
	ns.fields = append(ns.fields, Field{Key: name, Val: v})
}

// Value is a tagged variant holding any template runtime value. The zero
// Value is undefined.
type Value struct {
	kind Kind
	b    bool
	n    int
	s    string // string value, or the literal for KindNumber
	list []Value
	obj  []Field
	ns   *Namespace
}

func Undefined() Value          { return Value{} }
func None() Value               { return Value{kind: KindNone} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Int(n int) Value           { return Value{kind: KindInt, n: n} }
func Str(s string) Value        { return Value{kind: KindString, s: s} }
func List(vs []Value) Value     { return Value{kind: KindList, list: vs} }
func Object(fs []Field) Value   { return Value{kind: KindObject, obj: fs} }
func NamespaceValue(ns *Namespace) Value {
	return Value{kind: KindNamespace, ns: ns}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Truthy implements the language's truthiness rules: undefined and none are
// false, numbers are true when non-zero, strings/lists/objects when
// non-empty.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.n != 0
	case KindNumber:
		return v.s != "0" && v.s != "0.0"
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindObject:
		return len(v.obj) > 0
	case KindNamespace:
		return true
	default: // undefined, none
		return false
	}
}

// Text stringifies a value for output. Booleans and none render with the
// lowercase literals the template source uses; undefined renders empty.
func (v Value) Text() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.Itoa(v.n)
	case KindNumber:
		return v.s
	case KindString:
		return v.s
	case KindList, KindObject:
		return v.JSON()
	default:
		return ""
	}
}

// Attr returns the named attribute. Missing attributes are undefined, never
// an error; only unknown top-level variables fail a render.
func (v Value) Attr(name string) Value {
	switch v.kind {
	case KindObject:
		for _, f := range v.obj {
			if f.Key == name {
				return f.Val
			}
		}
	case KindNamespace:
		return v.ns.Get(name)
	}
	return Value{}
}

// Equal reports value equality across matching kinds. Values of different
// kinds are unequal rather than an error, matching `==` semantics.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNone:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.n == o.n
	case KindNumber, KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for i := range v.obj {
			if v.obj[i].Key != o.obj[i].Key || !v.obj[i].Val.Equal(o.obj[i].Val) {
				return false
			}
		}
		return true
	case KindNamespace:
		return v.ns == o.ns
	}
	return false
}

// Len returns the length used by the `length` filter, or -1 when the value
// has no length.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.s))
	case KindList:
		return len(v.list)
	case KindObject:
		return len(v.obj)
	}
	return -1
}

// JSON serializes the value the way the `tojson` filter requires: object
// keys in stored order, `", "` and `": "` separators, no ASCII or HTML
// escaping.
func (v Value) JSON() string {
	var sb strings.Builder
	v.writeJSON(&sb)
	return sb.String()
}

func (v Value) writeJSON(sb *strings.Builder) {
	switch v.kind {
	case KindUndefined, KindNone:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindInt:
		sb.WriteString(strconv.Itoa(v.n))
	case KindNumber:
		sb.WriteString(v.s)
	case KindString:
		sb.WriteString(encodeJSONString(v.s))
	case KindList:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeJSON(sb)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		for i, f := range v.obj {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(encodeJSONString(f.Key))
			sb.WriteString(": ")
			f.Val.writeJSON(sb)
		}
		sb.WriteByte('}')
	case KindNamespace:
		sb.WriteByte('{')
		for i, f := range v.ns.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(encodeJSONString(f.Key))
			sb.WriteString(": ")
			f.Val.writeJSON(sb)
		}
		sb.WriteByte('}')
	}
}

func encodeJSONString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Strings always encode; keep the signature simple.
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// FromJSON decodes raw JSON into a Value, preserving object key order.
func FromJSON(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("decoding JSON value: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Key: key, Val: val})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Value{}, err
			}
			return Object(fields), nil
		case '[':
			var elems []Value
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return List(elems), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)

	case string:
		return Str(t), nil
	case json.Number:
		lit := t.String()
		if !strings.ContainsAny(lit, ".eE") {
			n, err := strconv.Atoi(lit)
			if err == nil {
				return Int(n), nil
			}
		}
		return Value{kind: KindNumber, s: lit}, nil
	case bool:
		return Bool(t), nil
	case nil:
		return None(), nil
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}
