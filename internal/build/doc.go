// Package build renders a loaded site to an output directory.
//
// Every page is built once per language. Pages are routed, rendered and
// written concurrently, bounded by the worker count; each output file is
// replaced atomically. A page that fails is recorded in the report and does
// not stop the others.
//
// The output directory is never allowed to hold the data, template or static
// directory, and a filtered build leaves it uncleaned.
//
// Example usage:
//
//	engine := template.NewEngine(template.WithPartials(s.Partials))
//	b := build.NewBuilder(s, engine, router.NewRouter(logger), build.Options{
//	    OutDir:      "dist",
//	    StaticDir:   "static",
//	    DataDir:     "data",
//	    TemplateDir: "templates",
//	    Workers:     4,
//	    Clean:       true,
//	    Logger:      logger,
//	})
//
//	report, err := b.Build(ctx)
//	if err != nil {
//	    // err lists every failed page; report is still populated
//	}
package build
