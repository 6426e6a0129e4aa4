package propbind

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Properties is an insertion-ordered map of keys to raw values.
// Re-setting an existing key replaces its value but keeps its position.
// A nil *Properties reads as empty. Not safe for concurrent writes.
type Properties struct {
	keys   []string
	values map[string]any
}

// NewProperties returns an empty Properties.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]any)}
}

// Set stores value under key, appending key if it is new.
func (p *Properties) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// SetIfAbsent stores value only when key is not present yet.
// Reports whether the value was stored.
func (p *Properties) SetIfAbsent(key string, value any) bool {
	if _, ok := p.Get(key); ok {
		return false
	}
	p.Set(key, value)
	return true
}

// Get returns the value stored under key.
func (p *Properties) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return []string{}
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of entries.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// All iterates entries in insertion order.
func (p *Properties) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}

// ToMap copies the entries into a plain map. Order is lost.
func (p *Properties) ToMap() map[string]any {
	out := make(map[string]any, p.Len())
	for k, v := range p.All() {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (p *Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range p.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
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

// UnmarshalJSON decodes a JSON object, keeping the order of its members.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: invalid key %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("properties: key %q: %w", key, err)
		}
		p.Set(key, value)
	}

	_, err = dec.Token()
	return err
}

// cloneValue deep-copies the list and map shapes sources produce, so a value
// handed out can be modified without reaching back into a layer.
// Other values are returned as-is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = cloneValue(elem)
		}
		return out
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[k] = cloneValue(elem)
		}
		return out
	case map[any]any:
		if t == nil {
			return t
		}
		out := make(map[any]any, len(t))
		for k, elem := range t {
			out[k] = cloneValue(elem)
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
