package template

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrSyntax is matched by every structural template error
var ErrSyntax = errors.New("template syntax error")

// SyntaxError reports a structural problem in a template: an unterminated tag
// or block, a close tag without an opener, or runaway partial nesting.
// Rendering stops at the first one and produces no output.
type SyntaxError struct {
	Template string
	Line     int
	Column   int
	Message  string
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Template != "" {
		loc = e.Template + ":" + loc
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// Unwrap lets errors.Is match ErrSyntax
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Warning is a non-fatal diagnostic raised while rendering
type Warning struct {
	Template string `json:"template,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

// String formats the warning like a compiler diagnostic
func (w Warning) String() string {
	loc := fmt.Sprintf("%d:%d", w.Line, w.Column)
	if w.Template != "" {
		loc = w.Template + ":" + loc
	}
	return loc + ": " + w.Message
}

func newSyntaxError(name, src string, offset int, format string, args ...interface{}) *SyntaxError {
	line, col := position(src, offset)
	return &SyntaxError{
		Template: name,
		Line:     line,
		Column:   col,
		Message:  fmt.Sprintf(format, args...),
	}
}

// position converts a byte offset into a 1-based line and column
func position(src string, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return line, utf8.RuneCountInString(before[lineStart:]) + 1
}

// excerpt shortens a tag for use in messages
func excerpt(s string) string {
	const max = 40
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
