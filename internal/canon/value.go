// Package canon produces deterministic canonical JSON (an RFC 8785
// subset) for snapshot serialization and golden trace comparison.
//
// Canonical bytes are stable across processes and platforms:
// object keys are sorted by UTF-16 code units, strings are NFC
// normalized, HTML characters are not escaped, and floats and nulls are
// forbidden outright. Identical values always canonicalize to identical
// bytes, which is what makes snapshot hashing and golden files reliable.
package canon

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the canonical value types.
// Only String, Int, Bool, Array, and Object implement it.
// There is deliberately no float and no null: both break determinism.
type Value interface {
	canonValue()
}

// String is a canonical string value.
type String string

func (String) canonValue() {}

// Int is a canonical integer value. Always int64, never float64.
type Int int64

func (Int) canonValue() {}

// Bool is a canonical boolean value.
type Bool bool

func (Bool) canonValue() {}

// Array is an ordered list of canonical values.
type Array []Value

func (Array) canonValue() {}

// Object maps string keys to canonical values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonValue() {}

// SortedKeys returns the object's keys in RFC 8785 canonical order.
// Ordering is by UTF-16 code units; Go's sort.Strings compares UTF-8
// bytes, which produces a different order for strings outside the BMP.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares two strings by UTF-16 code units, which handles
// surrogate pairs the way RFC 8785 requires.
func compareUTF16(a, b string) int {
	au := utf16.Encode([]rune(a))
	bu := utf16.Encode([]rune(b))

	n := min(len(au), len(bu))
	for i := 0; i < n; i++ {
		if au[i] != bu[i] {
			if au[i] < bu[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(au) < len(bu):
		return -1
	case len(au) > len(bu):
		return 1
	default:
		return 0
	}
}
