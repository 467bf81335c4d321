package template

import (
	"github.com/aescanero/dago-sitegen/internal/value"
)

type node interface {
	offset() int
}

type textNode struct {
	pos  int
	text string
}

type variableNode struct {
	pos  int
	path []string
}

type eachNode struct {
	pos  int
	path []string
	body []node
}

type ifNode struct {
	pos       int
	path      []string
	then      []node
	otherwise []node
}

type partialNode struct {
	pos  int
	name string
}

type markdownNode struct {
	pos    int
	path   []string
	inline bool
}

type jsonNode struct {
	pos  int
	path []string
}

func (n *textNode) offset() int     { return n.pos }
func (n *variableNode) offset() int { return n.pos }
func (n *eachNode) offset() int     { return n.pos }
func (n *ifNode) offset() int       { return n.pos }
func (n *partialNode) offset() int  { return n.pos }
func (n *markdownNode) offset() int { return n.pos }
func (n *jsonNode) offset() int     { return n.pos }

// parser builds a tree from the token stream. Blocks are matched by
// recursion: each opener consumes tokens until the close tag of its own
// level, so same-named tags at other depths never pair up.
type parser struct {
	name   string
	src    string
	tokens []token
	next   int
}

func parse(name, src string) ([]node, error) {
	tokens, err := scan(name, src)
	if err != nil {
		return nil, err
	}
	p := &parser{name: name, src: src, tokens: tokens}

	nodes, stop, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, p.errorf(*stop, "unexpected %s with no open block", stop.tag(src))
	}
	return nodes, nil
}

// parseList collects nodes until a block keyword (else, /each, /if) or the
// end of input. The keyword that stopped it is returned, nil at end of input.
func (p *parser) parseList() ([]node, *token, error) {
	var nodes []node
	for p.next < len(p.tokens) {
		tok := p.tokens[p.next]
		p.next++

		switch tok.kind {
		case tokenText:
			nodes = append(nodes, &textNode{pos: tok.pos, text: tok.val})
		case tokenVariable:
			nodes = append(nodes, &variableNode{pos: tok.pos, path: value.SplitPath(tok.val)})
		case tokenPartial:
			nodes = append(nodes, &partialNode{pos: tok.pos, name: tok.val})
		case tokenMarkdown, tokenMarkdownInline:
			nodes = append(nodes, &markdownNode{
				pos:    tok.pos,
				path:   value.SplitPath(tok.val),
				inline: tok.kind == tokenMarkdownInline,
			})
		case tokenJSON:
			nodes = append(nodes, &jsonNode{pos: tok.pos, path: value.SplitPath(tok.val)})
		case tokenEach:
			n, err := p.parseEach(tok)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		case tokenIf:
			n, err := p.parseIf(tok)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		case tokenElse, tokenEndEach, tokenEndIf:
			return nodes, &tok, nil
		}
	}
	return nodes, nil, nil
}

func (p *parser) parseEach(open token) (*eachNode, error) {
	body, stop, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if stop == nil {
		return nil, p.errorf(open, "unterminated block %s: missing {{/each}}", open.tag(p.src))
	}
	switch stop.kind {
	case tokenEndEach:
		return &eachNode{pos: open.pos, path: value.SplitPath(open.val), body: body}, nil
	case tokenElse:
		return nil, p.errorf(*stop, "{{else}} is only allowed inside {{#if}}, found in %s", open.tag(p.src))
	default:
		return nil, p.mismatch(open, *stop)
	}
}

func (p *parser) parseIf(open token) (*ifNode, error) {
	n := &ifNode{pos: open.pos, path: value.SplitPath(open.val)}

	then, stop, err := p.parseList()
	if err != nil {
		return nil, err
	}
	n.then = then
	if stop == nil {
		return nil, p.errorf(open, "unterminated block %s: missing {{/if}}", open.tag(p.src))
	}
	if stop.kind == tokenEndEach {
		return nil, p.mismatch(open, *stop)
	}
	if stop.kind == tokenEndIf {
		return n, nil
	}

	otherwise, stop, err := p.parseList()
	if err != nil {
		return nil, err
	}
	n.otherwise = otherwise
	if stop == nil {
		return nil, p.errorf(open, "unterminated block %s: missing {{/if}}", open.tag(p.src))
	}
	switch stop.kind {
	case tokenEndIf:
		return n, nil
	case tokenElse:
		return nil, p.errorf(*stop, "duplicate {{else}} in %s", open.tag(p.src))
	default:
		return nil, p.mismatch(open, *stop)
	}
}

func (p *parser) mismatch(open, stop token) error {
	line, col := position(p.src, open.pos)
	return p.errorf(stop, "unexpected %s: %s opened at %d:%d is still open",
		stop.tag(p.src), open.tag(p.src), line, col)
}

func (p *parser) errorf(at token, format string, args ...interface{}) error {
	return newSyntaxError(p.name, p.src, at.pos, format, args...)
}
