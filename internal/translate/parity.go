package translate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aescanero/dago-sitegen/internal/value"
)

// DriftKind names how a language file departs from the default language
type DriftKind string

const (
	// DriftMissing is a key or string the target lacks, holds empty or null
	DriftMissing DriftKind = "missing"
	// DriftExtra is a key only the target has
	DriftExtra DriftKind = "extra"
	// DriftType is a value whose kind differs from the default language
	DriftType DriftKind = "type"
	// DriftLength is a list with a different number of items
	DriftLength DriftKind = "length"
)

// Drift is one difference between a page's target language data and its
// default language data. An empty Path means the whole page.
type Drift struct {
	Page   string    `json:"page"`
	Lang   string    `json:"lang"`
	Path   []string  `json:"path"`
	Kind   DriftKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Key returns the dotted path of the drift
func (d Drift) Key() string {
	return strings.Join(d.Path, ".")
}

func (d Drift) String() string {
	var b strings.Builder
	b.WriteString(d.Page + "/" + d.Lang)
	if len(d.Path) > 0 {
		b.WriteString(" " + d.Key())
	}
	b.WriteString(": " + string(d.Kind))
	if d.Detail != "" {
		b.WriteString(" (" + d.Detail + ")")
	}
	return b.String()
}

// Parity compares the page data of every target language with the default
// language, key by key and in document order. A language without its own
// file for a page is reported once for the whole page.
func (t *Translator) Parity() ([]Drift, error) {
	targets, err := t.targetLanguages()
	if err != nil {
		return nil, err
	}
	def := t.site.Default()

	var out []Drift
	for _, page := range t.site.Pages {
		src := value.Object(page.Data[def.Code])
		for _, lang := range targets {
			if _, ok := page.Sources[lang.Code]; !ok {
				out = append(out, Drift{
					Page:   page.Name,
					Lang:   lang.Code,
					Kind:   DriftMissing,
					Detail: "no data file, " + def.Code + " is used",
				})
				continue
			}
			drifts := collectDrift(src, value.Object(page.Data[lang.Code]), nil, nil)
			for i := range drifts {
				drifts[i].Page = page.Name
				drifts[i].Lang = lang.Code
			}
			out = append(out, drifts...)
		}
	}
	return out, nil
}

// collectDrift walks src and dst together. Missing strings are the ones
// collectMissing finds, so a clean translate run leaves only structural
// drift behind.
func collectDrift(src, dst value.Value, path []string, out []Drift) []Drift {
	switch {
	case src.Kind() == value.KindString && (dst.IsNil() || dst.Kind() == value.KindString):
		if s, _ := src.AsString(); s == "" && dst.IsAbsent() {
			return append(out, Drift{Path: path, Kind: DriftMissing})
		}
		for _, e := range collectMissing(src, dst, path, nil) {
			out = append(out, Drift{Path: e.Path, Kind: DriftMissing, Detail: missingDetail(dst)})
		}
		return out

	case dst.IsAbsent():
		return missingTree(src, path, out)

	case src.Kind() != dst.Kind():
		return append(out, Drift{
			Path:   path,
			Kind:   DriftType,
			Detail: fmt.Sprintf("%s, default has %s", dst.Kind(), src.Kind()),
		})
	}

	switch src.Kind() {
	case value.KindMap:
		m, _ := src.AsMap()
		dm, _ := dst.AsMap()
		for _, k := range m.Keys() {
			sv, _ := m.Get(k)
			dv, _ := dm.Get(k)
			out = collectDrift(sv, dv, appendPath(path, k), out)
		}
		for _, k := range dm.Keys() {
			if !m.Has(k) {
				out = append(out, Drift{Path: appendPath(path, k), Kind: DriftExtra})
			}
		}

	case value.KindList:
		items, _ := src.AsList()
		ditems, _ := dst.AsList()
		if len(items) != len(ditems) {
			out = append(out, Drift{
				Path:   path,
				Kind:   DriftLength,
				Detail: fmt.Sprintf("%d items, default has %d", len(ditems), len(items)),
			})
		}
		for i := 0; i < len(items) && i < len(ditems); i++ {
			out = collectDrift(items[i], ditems[i], appendPath(path, strconv.Itoa(i)), out)
		}
	}
	return out
}

// missingTree reports every leaf of src, or src itself when it is an empty
// map or list
func missingTree(src value.Value, path []string, out []Drift) []Drift {
	switch src.Kind() {
	case value.KindMap:
		m, _ := src.AsMap()
		if m.Len() == 0 {
			return append(out, Drift{Path: path, Kind: DriftMissing})
		}
		for _, k := range m.Keys() {
			sv, _ := m.Get(k)
			out = collectDrift(sv, value.Absent(), appendPath(path, k), out)
		}
		return out
	case value.KindList:
		items, _ := src.AsList()
		if len(items) == 0 {
			return append(out, Drift{Path: path, Kind: DriftMissing})
		}
		for i, item := range items {
			out = collectDrift(item, value.Absent(), appendPath(path, strconv.Itoa(i)), out)
		}
		return out
	default:
		return append(out, Drift{Path: path, Kind: DriftMissing})
	}
}

func missingDetail(dst value.Value) string {
	switch dst.Kind() {
	case value.KindString:
		return "empty"
	case value.KindNull:
		return "null"
	default:
		return ""
	}
}
