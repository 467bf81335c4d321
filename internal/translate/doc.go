// Package translate fills the gaps in translated page data with a language
// model.
//
// Every non-empty string of a page's default-language data is compared with
// the same path in each other language. Strings the target lacks are sent to
// the model in batches, keyed "1", "2", ... in a JSON object embedded in a
// prompt rendered by the site's own template engine. The reply is merged back
// in source order and the target file is rewritten atomically in its own
// format. Existing translations are never overwritten.
//
// Example usage:
//
//	client, err := llm.NewClient(&llm.Config{Provider: "anthropic", APIKey: key, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	tr := translate.NewTranslator(s, engine, translate.NewLLMCompleter(client, model, 4096), translate.Options{
//	    DataDir: "data",
//	    Logger:  logger,
//	})
//	results, err := tr.Run(ctx, false)
package translate
