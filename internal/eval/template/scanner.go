package template

import (
	"errors"
	"strings"
	"unicode"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

var (
	errMissingPath    = errors.New("missing path")
	errMissingPartial = errors.New("missing partial name")
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenVariable
	tokenEach
	tokenIf
	tokenElse
	tokenEndEach
	tokenEndIf
	tokenPartial
	tokenMarkdown
	tokenMarkdownInline
	tokenJSON
)

func (k tokenKind) String() string {
	switch k {
	case tokenText:
		return "text"
	case tokenVariable:
		return "variable"
	case tokenEach:
		return "#each"
	case tokenIf:
		return "#if"
	case tokenElse:
		return "else"
	case tokenEndEach:
		return "/each"
	case tokenEndIf:
		return "/if"
	case tokenPartial:
		return ">"
	case tokenMarkdown:
		return "md"
	case tokenMarkdownInline:
		return "mdi"
	case tokenJSON:
		return "json"
	default:
		return "unknown"
	}
}

// token is one element of the flat stream produced by scan. For text tokens
// val is the literal; for tags it is the path or partial name.
type token struct {
	kind tokenKind
	val  string
	pos  int // offset of the first byte
	end  int // offset just past the last byte
}

// tag returns the source text of the token
func (t token) tag(src string) string {
	return src[t.pos:t.end]
}

// scan splits src into text and tag tokens in a single forward pass.
func scan(name, src string) ([]token, error) {
	var tokens []token
	pos := 0
	for pos < len(src) {
		rel := strings.Index(src[pos:], openDelim)
		if rel < 0 {
			tokens = append(tokens, token{kind: tokenText, val: src[pos:], pos: pos, end: len(src)})
			break
		}
		start := pos + rel
		if start > pos {
			tokens = append(tokens, token{kind: tokenText, val: src[pos:start], pos: pos, end: start})
		}

		inner := start + len(openDelim)
		rel = strings.Index(src[inner:], closeDelim)
		if rel < 0 {
			return nil, newSyntaxError(name, src, start,
				"unterminated tag %q: missing %s", excerpt(src[start:]), closeDelim)
		}
		end := inner + rel + len(closeDelim)

		tok, err := classify(strings.TrimSpace(src[inner : inner+rel]))
		if err != nil {
			return nil, newSyntaxError(name, src, start, "%v in %q", err, excerpt(src[start:end]))
		}
		tok.pos, tok.end = start, end
		tokens = append(tokens, tok)
		pos = end
	}
	return tokens, nil
}

// classify dispatches trimmed tag content. Block openers come first, then
// partials, markdown and json, then the block keywords; anything else is a
// variable path.
func classify(content string) (token, error) {
	keyword, arg := splitKeyword(content)
	switch {
	case keyword == "#each":
		if arg == "" {
			return token{}, errMissingPath
		}
		return token{kind: tokenEach, val: arg}, nil
	case keyword == "#if":
		if arg == "" {
			return token{}, errMissingPath
		}
		return token{kind: tokenIf, val: arg}, nil
	case strings.HasPrefix(content, ">"):
		partial := strings.TrimSpace(content[1:])
		if partial == "" {
			return token{}, errMissingPartial
		}
		return token{kind: tokenPartial, val: partial}, nil
	case keyword == "md" && arg != "":
		return token{kind: tokenMarkdown, val: arg}, nil
	case keyword == "mdi" && arg != "":
		return token{kind: tokenMarkdownInline, val: arg}, nil
	case keyword == "json" && arg != "":
		return token{kind: tokenJSON, val: arg}, nil
	case content == "else":
		return token{kind: tokenElse}, nil
	case content == "/each":
		return token{kind: tokenEndEach}, nil
	case content == "/if":
		return token{kind: tokenEndIf}, nil
	default:
		return token{kind: tokenVariable, val: content}, nil
	}
}

// splitKeyword splits content at its first run of whitespace
func splitKeyword(content string) (string, string) {
	i := strings.IndexFunc(content, unicode.IsSpace)
	if i < 0 {
		return content, ""
	}
	return content[:i], strings.TrimSpace(content[i:])
}
