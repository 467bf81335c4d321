package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aymerick/raymond"
	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/markdown"
	"github.com/aescanero/dago-sitegen/internal/value"
)

const (
	// DefaultJSONIndent is the per-level indent of {{json}} output
	DefaultJSONIndent = "      "

	// DefaultMaxDepth bounds partial nesting
	DefaultMaxDepth = 32
)

// Engine renders templates against a context. It holds only read-only state
// after construction and is safe for concurrent use.
type Engine struct {
	partials   map[string]string
	markdown   markdown.Converter
	logger     *zap.Logger
	jsonIndent string
	maxDepth   int
}

// Option configures an Engine
type Option func(*Engine)

// WithPartials sets the partial registry. The map is copied.
func WithPartials(partials map[string]string) Option {
	return func(e *Engine) {
		e.partials = make(map[string]string, len(partials))
		for name, src := range partials {
			e.partials[name] = src
		}
	}
}

// WithLogger sets the logger used for render diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMarkdown replaces the converter behind {{md}} and {{mdi}}
func WithMarkdown(conv markdown.Converter) Option {
	return func(e *Engine) {
		if conv != nil {
			e.markdown = conv
		}
	}
}

// WithJSONIndent sets the per-level indent of {{json}} output
func WithJSONIndent(indent string) Option {
	return func(e *Engine) {
		e.jsonIndent = indent
	}
}

// WithMaxDepth bounds how deeply partials may include each other
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// NewEngine creates a new template engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		partials:   map[string]string{},
		markdown:   markdown.Subset{},
		logger:     zap.NewNop(),
		jsonIndent: DefaultJSONIndent,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a successful render
type Result struct {
	Output   string
	Warnings []Warning
}

// Render renders a template with the given data. Warnings are logged and
// otherwise dropped; use Execute to inspect them.
func (e *Engine) Render(templateStr string, data value.Value) (string, error) {
	res, err := e.Execute("", templateStr, data)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Execute renders a named template. The name only appears in diagnostics.
// A structural error aborts the render and no output is returned.
func (e *Engine) Execute(name, templateStr string, data value.Value) (*Result, error) {
	nodes, err := parse(name, templateStr)
	if err != nil {
		return nil, err
	}

	r := &renderer{engine: e, name: name, src: templateStr}
	var b strings.Builder
	if err := r.render(&b, nodes, NewScope(data)); err != nil {
		return nil, err
	}

	return &Result{Output: b.String(), Warnings: r.warnings}, nil
}

// ValidateTemplate parses a named template without rendering it
func (e *Engine) ValidateTemplate(name, templateStr string) error {
	_, err := parse(name, templateStr)
	return err
}

// LintHandlebars checks that a template also parses as Handlebars. The tag
// vocabulary is a Handlebars subset, so a failure here points at syntax that
// other tooling will not understand even if this engine accepts it.
func (e *Engine) LintHandlebars(templateStr string) error {
	if _, err := raymond.Parse(templateStr); err != nil {
		return fmt.Errorf("not valid handlebars: %w", err)
	}
	return nil
}

// Partials returns the registered partial names, sorted
func (e *Engine) Partials() []string {
	names := make([]string, 0, len(e.partials))
	for name := range e.partials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Partial returns the source of a registered partial
func (e *Engine) Partial(name string) (string, bool) {
	src, ok := e.partials[name]
	return src, ok
}
