// Package dataset provides the typed row/column container shared by the
// preprocessing and indicator-evaluation pipelines, including the per-row
// provenance tree stored under the reserved `_meta` key.
package dataset

import (
	"fmt"
	"strconv"
)

// Kind identifies the runtime type of a field value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindText
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a tagged variant over float64, bool, string and null.
// The zero value is null.
type Value struct {
	kind Kind
	num  float64
	flag bool
	text string
}

// Null returns the null value
func Null() Value {
	return Value{}
}

// Number creates a numeric value
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Bool creates a boolean value
func Bool(v bool) Value {
	return Value{kind: KindBool, flag: v}
}

// Text creates a text value
func Text(v string) Value {
	return Value{kind: KindText, text: v}
}

// Kind returns the value's runtime type tag
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Number returns the numeric payload and whether the value holds one
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns the boolean payload and whether the value holds one
func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Text returns the text payload and whether the value holds one
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Interface returns the value as a plain interface{} suitable for JSON or
// YAML encoding: float64, bool, string or nil.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindText:
		return v.text
	default:
		return nil
	}
}

// DisplayString renders the value for fall-back display purposes.
// Null renders as the empty string.
func (v Value) DisplayString() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		if v.flag {
			return "true"
		}
		return "false"
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports whether two values hold the same tag and payload
func (v Value) Equal(other Value) bool {
	return v == other
}

// FromInterface converts a decoded scalar (as produced by encoding/json or
// yaml.v3) into a Value. Nested objects and sequences are rejected.
func FromInterface(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case float64:
		return Number(val), nil
	case float32:
		return Number(float64(val)), nil
	case int:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint:
		return Number(float64(val)), nil
	case uint32:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case map[string]interface{}, []interface{}:
		return Null(), fmt.Errorf("nested values are not supported in dataset fields")
	default:
		return Null(), fmt.Errorf("unsupported field value type %T", raw)
	}
}
