package value

import (
	"strings"
	"unicode/utf8"
)

// Map is a string-keyed map that remembers insertion order.
// A Map is mutable while it is being built; once handed to the renderer it
// is treated as read-only.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap creates an empty map
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set stores v under key. New keys are appended, existing keys keep their position.
func (m *Map) Set(key string, v Value) *Map {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Get returns the value stored under key
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Absent(), false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

// Delete removes key
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.vals[k].Clone())
	}
	return out
}

// Merge shallow-merges maps left to right: keys of later maps override
// earlier ones while keeping the position of their first appearance.
func Merge(maps ...*Map) *Map {
	out := NewMap()
	for _, m := range maps {
		if m == nil {
			continue
		}
		for _, k := range m.keys {
			out.Set(k, m.vals[k])
		}
	}
	return out
}

// SplitPath splits a dotted path into its segments. Empty segments are dropped.
func SplitPath(path string) []string {
	parts := strings.Split(strings.TrimSpace(path), ".")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Dig walks segments through nested maps and lists starting at v. Lists are
// indexed by decimal segments, and lists and strings answer "length".
// Any missing step yields Absent.
func Dig(v Value, segments []string) Value {
	cur := v
	for _, seg := range segments {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m.Get(seg)
			if !ok {
				return Absent()
			}
			cur = next
		case KindList:
			if seg == "length" {
				cur = Number(float64(len(cur.list)))
				continue
			}
			idx, ok := listIndex(seg, len(cur.list))
			if !ok {
				return Absent()
			}
			cur = cur.list[idx]
		case KindString:
			if seg != "length" {
				return Absent()
			}
			cur = Number(float64(utf8.RuneCountInString(cur.s)))
		default:
			return Absent()
		}
	}
	return cur
}

// Lookup resolves a dotted path against v
func Lookup(v Value, path string) Value {
	return Dig(v, SplitPath(path))
}

func listIndex(seg string, n int) (int, bool) {
	idx := 0
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
		idx = idx*10 + int(r-'0')
		if idx >= n {
			return 0, false
		}
	}
	return idx, seg != ""
}
