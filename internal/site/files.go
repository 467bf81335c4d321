package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aescanero/dago-sitegen/internal/value"
)

// Format is the encoding of a data file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// dataExts lists recognised data file extensions in lookup order
var dataExts = []string{".json", ".yaml", ".yml"}

// Source locates a decoded data file
type Source struct {
	Path   string
	Format Format
}

// FormatOf returns the format implied by a file extension
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Decode parses data in the given format
func Decode(data []byte, format Format) (value.Value, error) {
	switch format {
	case FormatJSON:
		return value.ParseJSON(data)
	case FormatYAML:
		return value.ParseYAML(data)
	default:
		return value.Absent(), fmt.Errorf("unknown data format %q", format)
	}
}

// readDoc reads and decodes one data file; the top level must be an object
func readDoc(path string) (*value.Map, Source, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, Source{}, fmt.Errorf("%s: not a data file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	v, err := Decode(data, format)
	if err != nil {
		return nil, Source{}, fmt.Errorf("%s: %w", path, err)
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, Source{}, fmt.Errorf("%s: top level must be an object, got %s", path, v.Kind())
	}
	return m, Source{Path: path, Format: format}, nil
}

// findDoc locates dir/stem.{json,yaml,yml}. It reports false when none
// exists and fails when more than one does.
func findDoc(dir, stem string) (string, bool, error) {
	var found []string
	for _, ext := range dataExts {
		path := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			found = append(found, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	switch len(found) {
	case 0:
		return "", false, nil
	case 1:
		return found[0], true, nil
	default:
		return "", false, fmt.Errorf("ambiguous data files: %s", strings.Join(found, ", "))
	}
}

// listDocs returns the data files directly inside dir keyed by stem. A
// missing dir yields no files.
func listDocs(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	docs := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FormatOf(entry.Name()); !ok {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if prev, dup := docs[stem]; dup {
			return nil, fmt.Errorf("ambiguous data files: %s, %s", prev, filepath.Join(dir, entry.Name()))
		}
		docs[stem] = filepath.Join(dir, entry.Name())
	}
	return docs, nil
}

// loadTemplates reads every *.html directly inside dir keyed by file stem
func loadTemplates(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	templates := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", path, err)
		}
		templates[strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))] = string(data)
	}
	return templates, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
