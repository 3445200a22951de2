package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mapping is a JSON object that remembers the order its keys arrived in.
// Nested objects decode as *Mapping, arrays as []interface{} and numbers as
// json.Number, so a decode/encode cycle reproduces the input exactly.
type Mapping struct {
	keys   []string
	values map[string]interface{}
}

// Features3D is the flat descriptor mapping returned by the 3D collaborator.
type Features3D = Mapping

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]interface{})}
}

// Set stores v under key.  A new key goes to the end; an existing key keeps
// its position.
func (m *Mapping) Set(key string, v interface{}) {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value under key.  A key holding JSON null reports ok=true
// with a nil value.
func (m *Mapping) Get(key string) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key.
func (m *Mapping) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for every entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, v interface{}) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	out := NewMapping()
	for _, k := range m.keys {
		out.Set(k, cloneValue(m.values[k]))
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *Mapping:
		return t.Clone()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	return v
}

// MappingFrom builds a mapping from a plain map with keys in the given order.
// Keys absent from order are appended in no particular order.
func MappingFrom(values map[string]interface{}, order ...string) *Mapping {
	m := NewMapping()
	for _, k := range order {
		if v, ok := values[k]; ok {
			m.Set(k, v)
		}
	}
	for k, v := range values {
		if _, ok := m.values[k]; !ok {
			m.Set(k, v)
		}
	}
	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON
// ─────────────────────────────────────────────────────────────────────────────

// MarshalJSON writes the entries in order.  HTML characters are not escaped.
// Values encoding/json rejects (NaN, channels, funcs) are written as their
// fmt string form.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := encodeJSON(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := encodeJSON(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("prediction: expected JSON object, got %v", tok)
	}
	out, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*m = *out
	return nil
}

// DecodeJSONValue decodes any JSON document the way Mapping does: objects
// become *Mapping, numbers json.Number.
func DecodeJSONValue(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("prediction: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); ok {
		switch d {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("prediction: unexpected delimiter %q", d)
	}
	return tok, nil
}

func decodeObject(dec *json.Decoder) (*Mapping, error) {
	m := NewMapping()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("prediction: object key %v is not a string", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) ([]interface{}, error) {
	out := []interface{}{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeJSON marshals v without HTML escaping, falling back to the string
// form for unsupported values.
func encodeJSON(v interface{}) ([]byte, error) {
	b, err := marshalNoEscape(v)
	if err == nil {
		return b, nil
	}
	switch err.(type) {
	case *json.UnsupportedTypeError, *json.UnsupportedValueError:
		return marshalNoEscape(fmt.Sprint(v))
	}
	return nil, err
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
