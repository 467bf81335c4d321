package translate

import (
	"strconv"
	"strings"

	"github.com/aescanero/dago-sitegen/internal/value"
)

// Entry is a string that exists in the default language but not in the
// target language
type Entry struct {
	Path   []string
	Source string
}

// Key returns the dotted path of the entry
func (e Entry) Key() string {
	return strings.Join(e.Path, ".")
}

func pathKey(path []string) string {
	return strings.Join(path, "\x1f")
}

// collectMissing walks src in document order and records every non-empty
// string leaf that dst lacks or holds as an empty string
func collectMissing(src, dst value.Value, path []string, out []Entry) []Entry {
	switch src.Kind() {
	case value.KindMap:
		m, _ := src.AsMap()
		dm, _ := dst.AsMap()
		if !dst.IsNil() && dm == nil {
			return out
		}
		for _, k := range m.Keys() {
			sv, _ := m.Get(k)
			dv := value.Absent()
			if dm != nil {
				dv, _ = dm.Get(k)
			}
			out = collectMissing(sv, dv, appendPath(path, k), out)
		}
	case value.KindList:
		items, _ := src.AsList()
		ditems, isList := dst.AsList()
		if !dst.IsNil() && !isList {
			return out
		}
		for i, item := range items {
			dv := value.Absent()
			if i < len(ditems) {
				dv = ditems[i]
			}
			out = collectMissing(item, dv, appendPath(path, strconv.Itoa(i)), out)
		}
	case value.KindString:
		s, _ := src.AsString()
		if s == "" {
			return out
		}
		if ds, ok := dst.AsString(); dst.IsNil() || (ok && ds == "") {
			out = append(out, Entry{Path: path, Source: s})
		}
	}
	return out
}

// merge overlays translations onto dst following the shape of src. Existing
// target values always win; keys only the target has are kept after the
// source keys. Non-string leaves and empty strings are copied. An
// untranslated string is left out of maps and becomes null in lists so that
// indexes stay aligned.
func merge(src, dst value.Value, path []string, translations map[string]string) value.Value {
	switch src.Kind() {
	case value.KindMap:
		dm, isMap := dst.AsMap()
		if !dst.IsNil() && !isMap {
			return dst
		}
		m, _ := src.AsMap()
		result := value.NewMap()
		for _, k := range m.Keys() {
			sv, _ := m.Get(k)
			dv := value.Absent()
			if isMap {
				dv, _ = dm.Get(k)
			}
			if v := merge(sv, dv, appendPath(path, k), translations); !v.IsAbsent() {
				result.Set(k, v)
			}
		}
		if isMap {
			for _, k := range dm.Keys() {
				if !m.Has(k) {
					dv, _ := dm.Get(k)
					result.Set(k, dv)
				}
			}
		}
		return value.Object(result)

	case value.KindList:
		ditems, isList := dst.AsList()
		if !dst.IsNil() && !isList {
			return dst
		}
		items, _ := src.AsList()
		out := make([]value.Value, 0, len(items))
		for i, item := range items {
			dv := value.Absent()
			if i < len(ditems) {
				dv = ditems[i]
			}
			v := merge(item, dv, appendPath(path, strconv.Itoa(i)), translations)
			if v.IsAbsent() {
				v = value.Null()
			}
			out = append(out, v)
		}
		if len(ditems) > len(items) {
			out = append(out, ditems[len(items):]...)
		}
		return value.List(out...)

	case value.KindString:
		if s, _ := src.AsString(); s == "" && dst.IsAbsent() {
			return src
		}
		if ds, ok := dst.AsString(); ok && ds != "" {
			return dst
		}
		if !dst.IsNil() && dst.Kind() != value.KindString {
			return dst
		}
		if tr, ok := translations[pathKey(path)]; ok {
			return value.String(tr)
		}
		return dst

	default:
		if dst.IsAbsent() {
			return src
		}
		return dst
	}
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

