package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Primitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"int", 42, `42`},
		{"int64", int64(-7), `-7`},
		{"bool true", true, `true`},
		{"bool false", false, `false`},
		{"no html escaping", "a<b>&c", `"a<b>&c"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_ObjectKeysSorted(t *testing.T) {
	got, err := Marshal(Object{
		"b": Int(2),
		"a": Int(1),
		"c": Int(3),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(got))
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+1D306 (non-BMP, surrogate pair in UTF-16) sorts before U+FF01 in
	// UTF-8 byte order but after it in UTF-16 code unit order.
	got, err := Marshal(Object{
		"\U0001D306": Int(1),
		"！":     Int(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"！\":2,\"\U0001D306\":1}", string(got))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	// "é" as 'e' + combining acute must normalize to the composed form.
	decomposed := "é"
	got, err := Marshal(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"é\"", string(got))
}

func TestMarshal_FloatsForbidden(t *testing.T) {
	_, err := Marshal(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestMarshal_NullForbidden(t *testing.T) {
	_, err := Marshal(nil)
	require.Error(t, err)

	_, err = Marshal(map[string]any{"k": nil})
	require.Error(t, err)
}

func TestMarshal_NestedStructures(t *testing.T) {
	got, err := Marshal(map[string]any{
		"items": []any{"a", "b"},
		"count": 2,
		"flags": map[string]any{"open": true},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count":2,"flags":{"open":true},"items":["a","b"]}`, string(got))
}

func TestMarshal_Deterministic(t *testing.T) {
	obj := Object{"z": String("last"), "a": String("first"), "m": Int(5)}

	first, err := Marshal(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Marshal(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncode_Struct(t *testing.T) {
	type cart struct {
		Items []string `json:"items"`
		Total int      `json:"total"`
	}

	got, err := Encode(cart{Items: []string{"sku-1"}, Total: 9})
	require.NoError(t, err)
	assert.Equal(t, `{"items":["sku-1"],"total":9}`, string(got))
}

func TestEncode_RejectsFractionalNumbers(t *testing.T) {
	type bad struct {
		Ratio float64 `json:"ratio"`
	}

	_, err := Encode(bad{Ratio: 0.5})
	require.Error(t, err)
}

func TestEncode_IntegralFloatAllowed(t *testing.T) {
	// A float that is integral survives the json.Number round trip.
	type edge struct {
		N float64 `json:"n"`
	}

	got, err := Encode(edge{N: 3})
	require.NoError(t, err)
	assert.Equal(t, `{"n":3}`, string(got))
}

func TestUnescapeLineSeparators(t *testing.T) {
	got, err := Marshal("a b c")
	require.NoError(t, err)
	assert.Equal(t, "\"a b c\"", string(got))

	// A literal backslash followed by the text u2028 must stay escaped.
	got, err = Marshal(` `)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(got))
}
