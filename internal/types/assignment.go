package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldValue is one selector → value pair produced by the classifier.
type FieldValue struct {
	Selector string
	Value    string
}

// OrderedMapping is a JSON object of selector → string that keeps the order in
// which keys appeared. Non-string scalars are converted to their literal text.
type OrderedMapping []FieldValue

// Get returns the value for a selector.
func (m OrderedMapping) Get(selector string) (string, bool) {
	for _, fv := range m {
		if fv.Selector == selector {
			return fv.Value, true
		}
	}
	return "", false
}

// Selectors returns the keys in order.
func (m OrderedMapping) Selectors() []string {
	out := make([]string, 0, len(m))
	for _, fv := range m {
		out = append(out, fv.Selector)
	}
	return out
}

// MarshalJSON writes the mapping as an object, preserving order.
func (m OrderedMapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fv := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fv.Selector)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, preserving key order. Duplicate keys keep the last value
// at the position of the first occurrence.
func (m *OrderedMapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	out := OrderedMapping{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			out[i].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, FieldValue{Selector: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// FieldAssignment is the classifier output: selector → value, selector → file type,
// and questions the classifier could not answer from the user info.
type FieldAssignment struct {
	FieldMapping     OrderedMapping `json:"field_mapping"`
	FileRequirements OrderedMapping `json:"file_requirements,omitempty"`
	UnknownQuestions []string       `json:"unknown_questions"`
}
