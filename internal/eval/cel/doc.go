// Package cel provides the CEL (Common Expression Language) evaluator behind
// build filters and template routing rules.
//
// Every expression sees the same four variables describing one page in one
// language:
//
//	page          string  # page name, e.g. "about"
//	lang          string  # language code, e.g. "de"
//	default_lang  bool    # true for the default language
//	data          map     # the merged page context
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	vars := map[string]interface{}{
//	    "page":         "blog",
//	    "lang":         "de",
//	    "default_lang": false,
//	    "data":         map[string]interface{}{"layout": "wide"},
//	}
//
//	matched, err := evaluator.EvaluateBool(ctx, "page == 'blog' && data.layout == 'wide'", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Compiled programs are cached per expression string and shared by all
// goroutines.
package cel
