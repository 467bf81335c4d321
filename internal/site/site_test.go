package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-sitegen/internal/value"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func fixture(t *testing.T, extra map[string]string) Options {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"data/site.yaml":           "title: Acme\nyear: 2024\n",
		"data/languages/en.json":   `{"cta": "Buy"}`,
		"data/languages/de.yaml":   "cta: Kaufen\n",
		"data/languages/fr.json":   `{"name": "FR", "cta": "Acheter"}`,
		"data/pages/index/en.json": `{"title": "Home", "hero": {"heading": "Hi"}}`,
		"data/pages/index/de.json": `{"title": "Start"}`,
		"data/pages/about/en.yaml": "title: About\n",
		"data/routes.yaml":         "rules:\n  - condition: \"page == 'about'\"\n    template: plain\n",
		"templates/index.html":     "<h1>{{title}}</h1>",
		"templates/plain.html":     "<p>{{title}}</p>",
		"templates/notes.txt":      "ignored",
	}
	files["templates/partials/nav.html"] = "{{#each languages}}{{code}}{{/each}}"
	for k, v := range extra {
		files[k] = v
	}
	writeFiles(t, root, files)
	return Options{
		DataDir:         filepath.Join(root, "data"),
		TemplateDir:     filepath.Join(root, "templates"),
		DefaultLanguage: "en",
	}
}

func TestLoad(t *testing.T) {
	s, err := Load(fixture(t, nil))
	require.NoError(t, err)

	codes := make([]string, len(s.Languages))
	for i, l := range s.Languages {
		codes[i] = l.Code
	}
	assert.Equal(t, []string{"en", "de", "fr"}, codes)
	assert.Equal(t, "en", s.Default().Code)

	de, ok := s.Language("DE")
	require.True(t, ok)
	assert.Equal(t, "Deutsch", de.Name)
	assert.Equal(t, FormatYAML, de.Source.Format)

	fr, _ := s.Language("fr")
	assert.Equal(t, "FR", fr.Name)

	require.Len(t, s.Pages, 2)
	assert.Equal(t, "about", s.Pages[0].Name)
	assert.Equal(t, "index", s.Pages[1].Name)

	assert.Equal(t, []string{"index", "plain"}, sortedKeys(s.Templates))
	assert.Equal(t, []string{"nav"}, sortedKeys(s.Partials))
	require.Len(t, s.Routes.Rules, 1)
	assert.Equal(t, "plain", s.Routes.Rules[0].Template)

	// about lacks de and fr, index lacks fr
	assert.Len(t, s.Warnings, 3)
	assert.Contains(t, s.Warnings, "page about: no de data, using en")
}

func TestContextLayers(t *testing.T) {
	s, err := Load(fixture(t, map[string]string{
		"data/languages/de.yaml": "cta: Kaufen\ntitle: Sprache\n",
	}))
	require.NoError(t, err)

	ctx, err := s.Context("index", "de")
	require.NoError(t, err)

	m, ok := ctx.AsMap()
	require.True(t, ok)
	assert.Equal(t,
		[]string{"page", "lang", "isDefaultLanguage", "url", "languages", "title", "year", "cta"},
		m.Keys())

	assert.Equal(t, "Start", value.Lookup(ctx, "title").String(), "page data wins")
	assert.Equal(t, "Kaufen", value.Lookup(ctx, "cta").String())
	assert.Equal(t, "2024", value.Lookup(ctx, "year").String())
	assert.Equal(t, "de", value.Lookup(ctx, "lang").String())
	assert.Equal(t, "false", value.Lookup(ctx, "isDefaultLanguage").String())
	assert.Equal(t, "/de/", value.Lookup(ctx, "url").String())

	assert.Equal(t, "en", value.Lookup(ctx, "languages.0.code").String())
	assert.Equal(t, "/", value.Lookup(ctx, "languages.0.url").String())
	assert.Equal(t, "true", value.Lookup(ctx, "languages.1.current").String())
	assert.Equal(t, "English", value.Lookup(ctx, "languages.0.name").String())
}

func TestContextFallsBackToDefaultLanguage(t *testing.T) {
	s, err := Load(fixture(t, nil))
	require.NoError(t, err)

	data, fallback, err := s.PageData("about", "fr")
	require.NoError(t, err)
	assert.True(t, fallback)
	title, _ := data.Get("title")
	assert.Equal(t, "About", title.String())

	ctx, err := s.Context("about", "fr")
	require.NoError(t, err)
	assert.Equal(t, "About", value.Lookup(ctx, "title").String())
	assert.Equal(t, "Acheter", value.Lookup(ctx, "cta").String())
	assert.Equal(t, "fr", value.Lookup(ctx, "lang").String())

	_, err = s.Context("nope", "en")
	assert.Error(t, err)
	_, err = s.Context("about", "xx")
	assert.Error(t, err)
}

func TestOutputPathAndURL(t *testing.T) {
	s, err := Load(fixture(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "about.html", s.OutputPath("about", "en"))
	assert.Equal(t, filepath.Join("de", "about.html"), s.OutputPath("about", "de"))
	assert.Equal(t, "/about.html", s.URL("about", "en"))
	assert.Equal(t, "/de/about.html", s.URL("about", "de"))
	assert.Equal(t, "/", s.URL("index", "en"))
	assert.Equal(t, "/fr/", s.URL("index", "fr"))
}

func TestTargets(t *testing.T) {
	s, err := Load(fixture(t, nil))
	require.NoError(t, err)

	targets := s.Targets()
	require.Len(t, targets, 6)
	assert.Equal(t, "about", targets[0].Page)
	assert.Equal(t, "en", targets[0].Lang)
	assert.True(t, targets[0].Default)
	assert.Equal(t, "index", targets[5].Page)
	assert.Equal(t, "fr", targets[5].Lang)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra map[string]string
		opts  func(*Options)
		msg   string
	}{
		{
			name: "missing default language",
			opts: func(o *Options) { o.DefaultLanguage = "es" },
			msg:  "default language es has no file",
		},
		{
			name: "invalid default language",
			opts: func(o *Options) { o.DefaultLanguage = "not a language" },
			msg:  "default language",
		},
		{
			name:  "page without default data",
			extra: map[string]string{"data/pages/orphan/de.json": `{}`},
			msg:   "page orphan has no data for default language en",
		},
		{
			name:  "ambiguous files",
			extra: map[string]string{"data/languages/en.yml": "cta: x\n"},
			msg:   "ambiguous data files",
		},
		{
			name:  "bad json",
			extra: map[string]string{"data/pages/index/en.json": `{"title": `},
			msg:   "invalid json",
		},
		{
			name:  "top level list",
			extra: map[string]string{"data/site.yaml": "- a\n- b\n"},
			msg:   "top level must be an object",
		},
		{
			name:  "bad routes",
			extra: map[string]string{"data/routes.yaml": "rules: nope\n"},
			msg:   "rules must be a list",
		},
		{
			name:  "bad language code",
			extra: map[string]string{"data/languages/zz-zz-zz-zz.json": `{}`},
			msg:   "invalid language code",
		},
		{
			name: "missing data dir",
			opts: func(o *Options) { o.DataDir = filepath.Join(o.DataDir, "nope") },
			msg:  "data directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fixture(t, tt.extra)
			if tt.opts != nil {
				tt.opts(&opts)
			}
			_, err := Load(opts)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestLoadIgnoresUnknownPageLanguage(t *testing.T) {
	s, err := Load(fixture(t, map[string]string{"data/pages/index/es.json": `{"title": "Inicio"}`}))
	require.NoError(t, err)

	p, ok := s.Page("index")
	require.True(t, ok)
	assert.NotContains(t, p.Data, "es")
	assert.Contains(t, s.Warnings, "page index: ignoring data for unknown language es")
}
