// Package router decides, for every page in every language, whether it is
// built and which page template renders it.
//
// Routing is deterministic: an optional build filter runs first, then the
// rules are evaluated in order and the first true condition wins. A rule
// whose condition fails to evaluate is logged and skipped. When nothing
// matches, the page is rendered with the template of the same name.
//
// Example routes.yaml:
//
//	filter: "page != 'drafts'"
//	rules:
//	  - condition: "page.startsWith('blog-')"
//	    template: post
//	  - condition: "!default_lang && has(data.untranslated) && data.untranslated"
//	    skip: true
//
// Example usage:
//
//	r := router.NewRouter(logger)
//	decision, err := r.Route(ctx, router.Target{Page: "blog-1", Lang: "de", Data: pageData}, config)
//	if err != nil {
//	    return err
//	}
//	if decision.Skip {
//	    return nil
//	}
//	tmpl := templates[decision.Template]
package router
