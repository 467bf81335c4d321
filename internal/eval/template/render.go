package template

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/value"
)

// renderer carries the per-call state of one Execute. A fresh renderer is
// used for every partial so diagnostics point into the right source.
type renderer struct {
	engine   *Engine
	name     string
	src      string
	depth    int
	warnings []Warning
}

func (r *renderer) render(b *strings.Builder, nodes []node, s *Scope) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *textNode:
			b.WriteString(n.text)

		case *variableNode:
			b.WriteString(s.Resolve(n.path).String())

		case *eachNode:
			items, ok := s.Resolve(n.path).AsList()
			if !ok {
				continue
			}
			for i, item := range items {
				if err := r.render(b, n.body, s.Child(item, i, len(items))); err != nil {
					return err
				}
			}

		case *ifNode:
			branch := n.otherwise
			if s.Resolve(n.path).Truthy() {
				branch = n.then
			}
			if err := r.render(b, branch, s); err != nil {
				return err
			}

		case *partialNode:
			if err := r.include(b, n, s); err != nil {
				return err
			}

		case *markdownNode:
			v := s.Resolve(n.path)
			if v.IsNil() {
				continue
			}
			if n.inline {
				b.WriteString(r.engine.markdown.Inline(v.String()))
			} else {
				b.WriteString(r.engine.markdown.Block(v.String()))
			}

		case *jsonNode:
			v := s.Resolve(n.path)
			if v.IsAbsent() {
				continue
			}
			out, err := value.Indent(v, r.engine.jsonIndent)
			if err != nil {
				line, col := position(r.src, n.pos)
				return fmt.Errorf("%s:%d:%d: %w", r.name, line, col, err)
			}
			b.WriteString(out)
		}
	}
	return nil
}

func (r *renderer) include(b *strings.Builder, n *partialNode, s *Scope) error {
	src, ok := r.engine.partials[n.name]
	if !ok {
		r.warn(n.pos, fmt.Sprintf("partial %q not found", n.name))
		return nil
	}

	if r.depth+1 > r.engine.maxDepth {
		return newSyntaxError(r.name, r.src, n.pos,
			"partial nesting deeper than %d, is {{> %s}} including itself?", r.engine.maxDepth, n.name)
	}

	nodes, err := parse(n.name, src)
	if err != nil {
		return err
	}

	child := &renderer{engine: r.engine, name: n.name, src: src, depth: r.depth + 1}
	err = child.render(b, nodes, s)
	r.warnings = append(r.warnings, child.warnings...)
	return err
}

func (r *renderer) warn(pos int, msg string) {
	line, col := position(r.src, pos)
	w := Warning{Template: r.name, Line: line, Column: col, Message: msg}
	r.warnings = append(r.warnings, w)

	r.engine.logger.Warn("template warning",
		zap.String("template", r.name),
		zap.Int("line", line),
		zap.Int("column", col),
		zap.String("message", msg),
	)
}
