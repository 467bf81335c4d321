package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Flavor names accepted by NewConverter
const (
	FlavorSubset = "subset"
	FlavorGFM    = "gfm"
)

// Converter turns markdown source into HTML in block or inline mode.
// Implementations must be safe for concurrent use and must not fail.
type Converter interface {
	Block(text string) string
	Inline(text string) string
}

// NewConverter returns the converter for a flavor name. An empty name
// selects the subset dialect.
func NewConverter(flavor string) (Converter, error) {
	switch strings.ToLower(flavor) {
	case "", FlavorSubset:
		return Subset{}, nil
	case FlavorGFM:
		return NewGFM(), nil
	default:
		return nil, fmt.Errorf("unknown markdown flavor: %s", flavor)
	}
}

// Subset is the built-in dialect implemented by Block and Inline.
type Subset struct{}

// Block implements Converter
func (Subset) Block(text string) string { return Block(text) }

// Inline implements Converter
func (Subset) Inline(text string) string { return Inline(text) }

// GFM renders GitHub-flavored markdown through goldmark. Raw HTML in the
// source is passed through, matching the unescaped output of the subset.
type GFM struct {
	md goldmark.Markdown
}

// NewGFM creates a goldmark-backed converter
func NewGFM() *GFM {
	return &GFM{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithUnsafe(),
			),
		),
	}
}

// Block implements Converter
func (g *GFM) Block(text string) string {
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(text), &buf); err != nil {
		// Convert only fails when the writer does
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Inline implements Converter. A single rendered paragraph is unwrapped so
// the result can sit inside an existing element.
func (g *GFM) Inline(text string) string {
	out := g.Block(text)
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") &&
		strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out
}
