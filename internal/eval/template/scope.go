package template

import (
	"github.com/aescanero/dago-sitegen/internal/value"
)

// Names resolved by the scope itself rather than by the data. They are
// checked before any data key, so a data field with one of these names is
// shadowed inside the template.
const (
	KeyThis   = "this"
	KeyIndex  = "@index"
	KeyFirst  = "@first"
	KeyLast   = "@last"
	KeyParent = "@parent"
	KeyRoot   = "@root"
)

// Scope is one layer of the rendering context. The root layer holds the page
// data; every {{#each}} iteration pushes a layer holding the current element
// and its loop position. Lookups walk the chain innermost first, so layers
// never copy or mutate the data below them.
type Scope struct {
	parent *Scope
	data   value.Value
	loop   *loopState
}

type loopState struct {
	index  int
	length int
}

// NewScope creates a root scope over data
func NewScope(data value.Value) *Scope {
	return &Scope{data: data}
}

// Child pushes a loop layer for element index of a sequence of length items
func (s *Scope) Child(item value.Value, index, length int) *Scope {
	return &Scope{
		parent: s,
		data:   item,
		loop:   &loopState{index: index, length: length},
	}
}

// Parent returns the enclosing scope, nil at the root
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Resolve looks up a dotted path split into segments. Only the first segment
// walks the chain; the rest descend into the value it found.
func (s *Scope) Resolve(path []string) value.Value {
	if len(path) == 0 {
		return value.Absent()
	}
	head, rest := path[0], path[1:]

	switch head {
	case KeyThis:
		return value.Dig(s.data, rest)
	case KeyRoot:
		root := s
		for root.parent != nil {
			root = root.parent
		}
		return value.Dig(root.data, rest)
	case KeyIndex, KeyFirst, KeyLast:
		if s.loop == nil || len(rest) > 0 {
			return value.Absent()
		}
		switch head {
		case KeyIndex:
			return value.Number(float64(s.loop.index))
		case KeyFirst:
			return value.Bool(s.loop.index == 0)
		default:
			return value.Bool(s.loop.index == s.loop.length-1)
		}
	case KeyParent:
		if s.parent == nil {
			return value.Absent()
		}
		if len(rest) == 0 {
			return s.parent.Flatten()
		}
		return s.parent.Resolve(rest)
	}

	for cur := s; cur != nil; cur = cur.parent {
		m, ok := cur.data.AsMap()
		if !ok {
			continue
		}
		if v, ok := m.Get(head); ok {
			return value.Dig(v, rest)
		}
	}
	return value.Absent()
}

// Flatten merges the map layers of the chain into one map, inner layers
// winning. It backs {{json @parent}} and similar whole-context reads.
func (s *Scope) Flatten() value.Value {
	var layers []*value.Map
	for cur := s; cur != nil; cur = cur.parent {
		if m, ok := cur.data.AsMap(); ok {
			layers = append(layers, m)
		}
	}
	for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
		layers[i], layers[j] = layers[j], layers[i]
	}
	return value.Object(value.Merge(layers...))
}
