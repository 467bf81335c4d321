// Package site loads the data and templates of a multilingual site.
//
// Layout:
//
//	data/
//	    site.yaml                 # global layer, optional
//	    routes.yaml               # routing rules, optional
//	    languages/en.json         # one file per language
//	    languages/de.yaml
//	    pages/index/en.json       # one directory per page, one file per language
//	    pages/index/de.json
//	templates/
//	    index.html                # page templates, by file stem
//	    partials/footer.html      # partials, by file stem
//
// Data files may be JSON or YAML; object keys keep their file order. A page
// without data for some language is rendered from the default language's
// data and the gap is recorded as a warning.
//
// Example usage:
//
//	s, err := site.Load(site.Options{
//	    DataDir:         "data",
//	    TemplateDir:     "templates",
//	    DefaultLanguage: "en",
//	    Logger:          logger,
//	})
//	if err != nil {
//	    return err
//	}
//	ctx, err := s.Context("index", "de")
package site
