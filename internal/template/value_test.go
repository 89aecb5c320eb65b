package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_PreservesFieldOrder(t *testing.T) {
	raw := `{"zeta": 1, "alpha": {"y": true, "x": null}, "mid": [1, "two", 3.5]}`
	v, err := FromJSON([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, v.JSON())
}

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{name: "none", val: None(), want: "null"},
		{name: "bool", val: Bool(true), want: "true"},
		{name: "int", val: Int(-7), want: "-7"},
		{name: "string", val: Str("a\"b\n"), want: `"a\"b\n"`},
		{name: "no html escaping", val: Str("<tag> & 'q'"), want: `"<tag> & 'q'"`},
		{name: "empty list", val: List(nil), want: "[]"},
		{name: "empty object", val: Object(nil), want: "{}"},
		{
			name: "nested",
			val: Object([]Field{
				{Key: "b", Val: List([]Value{Int(1), Bool(false)})},
				{Key: "a", Val: Str("s")},
			}),
			want: `{"b": [1, false], "a": "s"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.JSON())
		})
	}
}

func TestValue_NumberLiteralPreserved(t *testing.T) {
	v, err := FromJSON([]byte(`{"a": 2.0, "b": 1e3, "c": 42}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a": 2.0, "b": 1e3, "c": 42}`, v.JSON())

	c := v.Attr("c")
	assert.Equal(t, KindInt, c.Kind())
	a := v.Attr("a")
	assert.Equal(t, KindNumber, a.Kind())
}

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want bool
	}{
		{name: "undefined", val: Undefined(), want: false},
		{name: "none", val: None(), want: false},
		{name: "false", val: Bool(false), want: false},
		{name: "true", val: Bool(true), want: true},
		{name: "zero", val: Int(0), want: false},
		{name: "nonzero", val: Int(-1), want: true},
		{name: "empty string", val: Str(""), want: false},
		{name: "string", val: Str("x"), want: true},
		{name: "empty list", val: List(nil), want: false},
		{name: "list", val: List([]Value{Int(1)}), want: true},
		{name: "empty object", val: Object(nil), want: false},
		{name: "object", val: Object([]Field{{Key: "k", Val: Int(1)}}), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Truthy())
		})
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{name: "undefined renders empty", val: Undefined(), want: ""},
		{name: "none", val: None(), want: "none"},
		{name: "true", val: Bool(true), want: "true"},
		{name: "false", val: Bool(false), want: "false"},
		{name: "int", val: Int(12), want: "12"},
		{name: "string", val: Str("hi"), want: "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Text())
		})
	}
}

func TestValue_Len(t *testing.T) {
	assert.Equal(t, 3, List([]Value{Int(1), Int(2), Int(3)}).Len())
	// Strings measure characters, not bytes.
	assert.Equal(t, 2, Str("héllo"[:3]).Len())
	assert.Equal(t, 5, Str("héllo").Len())
	assert.Equal(t, -1, Int(3).Len())
}

func TestValue_AttrMissingIsUndefined(t *testing.T) {
	obj := Object([]Field{{Key: "present", Val: Int(1)}})
	assert.Equal(t, KindUndefined, obj.Attr("absent").Kind())
	assert.Equal(t, KindInt, obj.Attr("present").Kind())
}

func TestNamespace_SharedMutation(t *testing.T) {
	ns := &Namespace{}
	a := NamespaceValue(ns)
	b := a // copies the Value, shares the namespace
	ns.Set("n", Int(1))
	assert.Equal(t, Int(1), b.Attr("n"))
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Str("a").Equal(Str("a")))
	assert.False(t, Str("a").Equal(Str("b")))
	assert.True(t, Int(1).Equal(Int(1)))
	assert.False(t, Int(1).Equal(Str("1")))
	assert.True(t, None().Equal(None()))
	assert.True(t, Bool(false).Equal(Bool(false)))
}
