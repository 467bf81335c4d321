// Package value provides the typed data model templates are rendered against.
//
// A Value is a tagged union of absent, null, bool, number, string, list and
// ordered map. Data files are decoded straight into Values so that object key
// order survives into {{json}} output:
//
//	page, err := value.ParseJSON(data)
//	if err != nil {
//	    return err
//	}
//	title := value.Lookup(page, "hero.title") // Absent when any segment is missing
//
// Contexts for a page are shallow merges, later maps winning:
//
//	ctx := value.Merge(site, language, page)
package value
