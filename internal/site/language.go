package site

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/aescanero/dago-sitegen/internal/value"
)

// NameKey is the language file key that overrides the display name
const NameKey = "name"

// Language is one configured site language
type Language struct {
	Code    string // canonical BCP 47 code, e.g. "pt-BR"
	Tag     language.Tag
	Name    string
	Default bool
	Data    *value.Map
	Source  Source
}

// ParseCode validates a language code and returns its canonical form
func ParseCode(code string) (language.Tag, string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	if tag == language.Und {
		return language.Und, "", fmt.Errorf("invalid language code %q", code)
	}
	return tag, tag.String(), nil
}

// displayName returns the name a language calls itself, capitalised the
// way that language does it, unless the language file sets one
func displayName(tag language.Tag, data *value.Map) string {
	if v, ok := data.Get(NameKey); ok {
		if s, ok := v.AsString(); ok && s != "" {
			return s
		}
	}
	name := display.Self.Name(tag)
	if name == "" {
		return tag.String()
	}
	return cases.Title(tag).String(name)
}
