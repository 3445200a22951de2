package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the raw prediction output: either a single scalar or a keyed
// mapping of scalars.  The zero Value means nothing was returned.
type Value struct {
	scalar  interface{}
	mapping *Mapping
}

// ScalarValue wraps a scalar.  Go numeric types are stored as json.Number so
// the original digits survive serialization.
func ScalarValue(v interface{}) Value {
	return Value{scalar: normalizeScalar(v)}
}

// MappingValue wraps a keyed result.
func MappingValue(m *Mapping) Value {
	if m == nil {
		return Value{}
	}
	return Value{mapping: m}
}

// ValueOf classifies a decoded JSON value.
func ValueOf(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case *Mapping:
		return MappingValue(t)
	case map[string]interface{}:
		return MappingValue(MappingFrom(t))
	}
	return ScalarValue(v)
}

// IsZero reports whether the value is empty.
func (v Value) IsZero() bool { return v.scalar == nil && v.mapping == nil }

// IsMapping reports whether the value is a keyed result.
func (v Value) IsMapping() bool { return v.mapping != nil }

// Scalar returns the scalar, or nil for mappings.
func (v Value) Scalar() interface{} { return v.scalar }

// Mapping returns the keyed result, or nil for scalars.
func (v Value) Mapping() *Mapping { return v.mapping }

// Select returns the value for target: the scalar itself, or the entry keyed
// by the target name.
func (v Value) Select(target Target) (interface{}, bool) {
	if v.mapping != nil {
		return v.mapping.Get(string(target))
	}
	if v.scalar == nil {
		return nil, false
	}
	return v.scalar, true
}

// MarshalJSON writes the scalar or the mapping; the zero Value is null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.mapping != nil {
		return v.mapping.MarshalJSON()
	}
	return encodeJSON(v.scalar)
}

// UnmarshalJSON accepts any JSON value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	decoded, err := DecodeJSONValue(data)
	if err != nil {
		return err
	}
	*v = ValueOf(decoded)
	return nil
}

func normalizeScalar(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return json.Number(strconv.Itoa(t))
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case float32:
		return floatNumber(float64(t), 32)
	case float64:
		return floatNumber(t, 64)
	}
	return v
}

// floatNumber keeps a float's type visible in its digits: 3.0 becomes "3.0",
// not "3".
func floatNumber(f float64, bits int) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s)
}

// ─────────────────────────────────────────────────────────────────────────────
// Numeric helpers
// ─────────────────────────────────────────────────────────────────────────────

// NumberKind classifies a scalar for formatting.
type NumberKind int

const (
	NotNumber NumberKind = iota
	IntNumber
	FloatNumber
)

// Numeric reports whether v is a number and whether it is integral in form.
// json.Number is integral when its literal has no fraction or exponent.
// Booleans are not numbers.
func Numeric(v interface{}) (float64, NumberKind) {
	switch t := v.(type) {
	case json.Number:
		s := string(t)
		if strings.ContainsAny(s, ".eE") {
			f, err := t.Float64()
			if err != nil {
				return 0, NotNumber
			}
			return f, FloatNumber
		}
		if i, err := t.Int64(); err == nil {
			return float64(i), IntNumber
		}
		f, err := t.Float64()
		if err != nil {
			return 0, NotNumber
		}
		return f, IntNumber
	case float64:
		return t, FloatNumber
	case float32:
		return float64(t), FloatNumber
	case int:
		return float64(t), IntNumber
	case int32:
		return float64(t), IntNumber
	case int64:
		return float64(t), IntNumber
	case uint:
		return float64(t), IntNumber
	case uint32:
		return float64(t), IntNumber
	case uint64:
		return float64(t), IntNumber
	}
	return 0, NotNumber
}

// TypeName returns the short type tag shown in the detailed table.
func TypeName(v interface{}) string {
	if _, kind := Numeric(v); kind != NotNumber {
		if kind == FloatNumber {
			return "float"
		}
		return "int"
	}
	switch v.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case []interface{}:
		return "list"
	case *Mapping, map[string]interface{}:
		return "dict"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
