package translate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/aescanero/dago-sitegen/internal/site"
	"github.com/aescanero/dago-sitegen/internal/value"
)

const defaultIndent = "  "

// writeDoc atomically writes v to the file in its format. JSON keeps the
// indentation of the file it replaces.
func writeDoc(file site.Source, v value.Value) error {
	var data []byte
	switch file.Format {
	case site.FormatJSON:
		indent := defaultIndent
		if old, err := os.ReadFile(file.Path); err == nil {
			indent = detectIndent(old)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
		out, err := value.Indent(v, indent)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", file.Path, err)
		}
		data = []byte(out + "\n")

	case site.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(len(defaultIndent))
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode %s: %w", file.Path, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode %s: %w", file.Path, err)
		}
		data = buf.Bytes()

	default:
		return fmt.Errorf("%s: unknown data format %q", file.Path, file.Format)
	}

	if err := os.MkdirAll(filepath.Dir(file.Path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", file.Path, err)
	}
	if err := atomic.WriteFile(file.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", file.Path, err)
	}
	return nil
}

// detectIndent returns the leading whitespace of the first indented line
func detectIndent(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" && len(trimmed) < len(line) {
			return line[:len(line)-len(trimmed)]
		}
	}
	return defaultIndent
}
