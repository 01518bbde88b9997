package eid

import (
	"bytes"
	"encoding/json"
)

// Map is an insertion-ordered mapping from old eIds to new eIds.
// The first mapping recorded for an old eId wins.
type Map struct {
	keys []string
	m    map[string]string
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{m: make(map[string]string)}
}

// Set records old -> next unless old is already mapped.
func (m *Map) Set(old, next string) {
	if _, ok := m.m[old]; ok {
		return
	}
	m.keys = append(m.keys, old)
	m.m[old] = next
}

// Has reports whether old is mapped.
func (m *Map) Has(old string) bool {
	_, ok := m.m[old]
	return ok
}

// Get returns the replacement for old.
func (m *Map) Get(old string) (string, bool) {
	v, ok := m.m[old]
	return v, ok
}

// Lookup returns the replacement for old, or old itself when unmapped.
func (m *Map) Lookup(old string) string {
	if v, ok := m.m[old]; ok {
		return v
	}
	return old
}

// Keys returns old eIds in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Values returns new eIds in insertion order of their keys.
func (m *Map) Values() []string {
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.m[k])
	}
	return out
}

// Len is the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Changed returns the entries whose eId actually changed, in order.
func (m *Map) Changed() [][2]string {
	var out [][2]string
	for _, k := range m.keys {
		if v := m.m[k]; v != k {
			out = append(out, [2]string{k, v})
		}
	}
	return out
}

// Merge copies entries of other that are not yet present.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Set(k, other.m[k])
	}
}

// MarshalJSON writes the map as a JSON object with keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
