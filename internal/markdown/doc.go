// Package markdown converts the small markdown dialect used in content records
// into HTML fragments.
//
// Two modes are provided:
//
//	markdown.Block("## Title\n\nFirst **bold** para")
//	// <h2>Title</h2>
//	// <p>First <strong>bold</strong> para</p>
//
//	markdown.Inline("see [docs](https://example.com)\nnext line")
//	// see <a href="https://example.com" target="_blank" rel="noopener">docs</a><br>next line
//
// Supported syntax:
//   - **bold**
//   - [text](url), always opened in a new tab
//   - ## and ### headings (block mode only)
//   - blank-line separated paragraphs (block mode only)
//   - single newlines become <br> line breaks
//
// Conversion never fails; unmatched markers are left as literal text. Output
// is not escaped, content is trusted.
//
// A Converter wraps either dialect so callers can swap in the goldmark-backed
// GFM flavor:
//
//	conv, err := markdown.NewConverter("gfm")
package markdown
