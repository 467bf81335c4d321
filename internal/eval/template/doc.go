// Package template provides the mustache-like template engine used to render site pages.
//
// The engine walks a template once, resolving tags against a layered context.
// Output is never escaped.
//
// Example usage:
//
//	engine := template.NewEngine(
//	    template.WithPartials(map[string]string{"footer": "<footer>{{site.name}}</footer>"}),
//	    template.WithLogger(logger),
//	)
//
//	data, _ := value.ParseJSON([]byte(`{"title": "Hello", "items": [{"x": 1}, {"x": 2}]}`))
//
//	result, err := engine.Render("<h1>{{title}}</h1>{{#each items}}{{x}}{{/each}}{{> footer}}", data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: <h1>Hello</h1>12<footer></footer>
//
// Tags:
//   - {{path}} - Dotted path lookup, absent or null renders nothing
//   - {{#each path}}...{{/each}} - Repeat for every list element
//   - {{#if path}}...{{else}}...{{/if}} - Conditional, empty lists are false
//   - {{> name}} - Include a partial with the current context
//   - {{md path}} - Block markdown (paragraphs and headings)
//   - {{mdi path}} - Inline markdown (bold, links, line breaks)
//   - {{json path}} - Pretty-printed JSON literal
//
// Inside {{#each}} the element's fields shadow the outer context. These names
// are always available there and take precedence over data fields:
//
//	{{this}}        # the current element
//	{{@index}}      # zero-based position
//	{{@first}}      # true on the first element
//	{{@last}}       # true on the last element
//	{{@parent.x}}   # lookup in the enclosing context
//	{{@root.x}}     # lookup in the page context
//
// Unterminated tags and blocks fail the render with a *SyntaxError carrying
// the line and column. A missing partial renders nothing and is reported as
// a Warning.
package template
