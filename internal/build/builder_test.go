package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/aescanero/dago-sitegen/internal/eval/template"
	"github.com/aescanero/dago-sitegen/internal/router"
	"github.com/aescanero/dago-sitegen/internal/site"
)

type fixture struct {
	root string
	site *site.Site
}

func newFixture(t *testing.T, extra map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"data/site.json":           `{"brand": "Acme"}`,
		"data/languages/en.json":   `{"greeting": "Hello"}`,
		"data/languages/de.json":   `{"greeting": "Hallo"}`,
		"data/pages/index/en.json": `{"title": "Home", "items": ["a", "b"]}`,
		"data/pages/index/de.json": `{"title": "Start", "items": ["x"]}`,
		"data/pages/about/en.json": `{"title": "About", "body": "**bold**"}`,
		"templates/index.html":     "<h1>{{title}}</h1>{{#each items}}<i>{{this}}</i>{{/each}}{{> nav}}",
		"templates/about.html":     "<h1>{{greeting}} {{title}}</h1>{{mdi body}}",
		"static/css/site.css":      "body{}",
		"static/robots.txt":        "User-agent: *",
	}
	files["templates/partials/nav.html"] = `<nav>{{#each languages}}<a href="{{url}}">{{code}}</a>{{/each}}</nav>`
	for k, v := range extra {
		files[k] = v
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	s, err := site.Load(site.Options{
		DataDir:         filepath.Join(root, "data"),
		TemplateDir:     filepath.Join(root, "templates"),
		DefaultLanguage: "en",
	})
	require.NoError(t, err)
	return &fixture{root: root, site: s}
}

func (f *fixture) builder(opts Options) *Builder {
	if opts.OutDir == "" {
		opts.OutDir = filepath.Join(f.root, "dist")
	}
	if opts.StaticDir == "" {
		opts.StaticDir = filepath.Join(f.root, "static")
	}
	opts.DataDir = filepath.Join(f.root, "data")
	opts.TemplateDir = filepath.Join(f.root, "templates")
	engine := template.NewEngine(template.WithPartials(f.site.Partials))
	return NewBuilder(f.site, engine, router.NewRouter(nil), opts)
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, "dist", filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuildWritesEveryPage(t *testing.T) {
	f := newFixture(t, nil)

	report, err := f.builder(Options{Workers: 3, Clean: true}).Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 4, report.Rendered)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.StaticFiles)
	assert.True(t, report.OK())
	assert.Len(t, report.SiteWarnings, 1, "about has no de data")

	assert.Equal(t,
		`<h1>Home</h1><i>a</i><i>b</i><nav><a href="/">en</a><a href="/de/">de</a></nav>`,
		f.read(t, "index.html"))
	assert.Equal(t,
		`<h1>Start</h1><i>x</i><nav><a href="/">en</a><a href="/de/">de</a></nav>`,
		f.read(t, "de/index.html"))
	assert.Equal(t, "<h1>Hello About</h1><strong>bold</strong>", f.read(t, "about.html"))
	assert.Equal(t, "<h1>Hallo About</h1><strong>bold</strong>", f.read(t, "de/about.html"))
	assert.Equal(t, "body{}", f.read(t, "css/site.css"))

	var total int64
	for _, p := range report.Pages {
		total += int64(p.Bytes)
	}
	assert.Equal(t, total, report.Bytes)
}

func TestBuildCleansOutput(t *testing.T) {
	f := newFixture(t, nil)
	stale := filepath.Join(f.root, "dist", "stale.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := f.builder(Options{Workers: 1}).Build(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, stale)

	_, err = f.builder(Options{Workers: 1, Clean: true}).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestBuildIsolatesPageFailures(t *testing.T) {
	f := newFixture(t, map[string]string{
		"templates/about.html": "<h1>{{#if title}}never closed",
	})

	report, err := f.builder(Options{Workers: 2}).Build(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)

	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "about/en")
	assert.Contains(t, err.Error(), "about.html:1:5")
	assert.Equal(t, 2, report.Rendered)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.OK())

	assert.FileExists(t, filepath.Join(f.root, "dist", "index.html"))
	assert.NoFileExists(t, filepath.Join(f.root, "dist", "about.html"))
}

func TestBuildWarnings(t *testing.T) {
	extra := map[string]string{"templates/about.html": "{{title}}{{> missing}}"}

	f := newFixture(t, extra)
	report, err := f.builder(Options{Workers: 1}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Warnings)
	assert.Equal(t, "About", f.read(t, "about.html"))

	f = newFixture(t, extra)
	report, err = f.builder(Options{Workers: 1, FailOnWarning: true}).Build(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, ErrWarnings.Error())
	assert.Equal(t, 2, report.Failed)
}

func TestBuildRoutesAndFilters(t *testing.T) {
	f := newFixture(t, map[string]string{
		"data/routes.yaml": "rules:\n" +
			"  - condition: \"page == 'about' && !default_lang\"\n" +
			"    skip: true\n" +
			"  - condition: \"page == 'index' && lang == 'de'\"\n" +
			"    template: about\n",
	})

	report, err := f.builder(Options{Workers: 2}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rendered)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "<h1>Hallo Start</h1>", f.read(t, "de/index.html"))
	assert.NoFileExists(t, filepath.Join(f.root, "dist", "de", "about.html"))

	f = newFixture(t, nil)
	report, err = f.builder(Options{Workers: 2, Filter: "default_lang"}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rendered)
	assert.Equal(t, 2, report.Skipped)
}

func TestBuildMissingTemplate(t *testing.T) {
	f := newFixture(t, map[string]string{"data/pages/contact/en.json": `{}`})

	report, err := f.builder(Options{Workers: 1}).Build(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, `no template "contact"`)
	assert.Equal(t, 2, report.Failed)
}

func TestBuildCancelled(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.builder(Options{Workers: 1}).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}

func TestRenderPage(t *testing.T) {
	f := newFixture(t, nil)
	b := f.builder(Options{})

	out, decision, warnings, err := b.RenderPage(context.Background(), "about", "DE")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hallo About</h1><strong>bold</strong>", out)
	assert.Equal(t, "about", decision.Template)
	assert.Empty(t, warnings)

	_, _, _, err = b.RenderPage(context.Background(), "about", "fr")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.builder(Options{}).Validate(context.Background()))
	assert.NoError(t, f.builder(Options{}).LintHandlebars())

	f = newFixture(t, map[string]string{
		"templates/broken.html":       "{{#each x}}",
		"templates/partials/bad.html": "{{/if}}",
		"data/routes.json":            `{"rules": [{"condition": "true", "template": "ghost"}]}`,
	})
	err := f.builder(Options{}).Validate(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.ErrorContains(t, err, `unknown template "ghost"`)
	assert.ErrorContains(t, err, "broken.html:1:1")
	assert.ErrorContains(t, err, "bad:1:1")
}

func TestValidatePageWithoutTemplate(t *testing.T) {
	f := newFixture(t, map[string]string{"data/pages/blog/en.json": `{"title": "Blog"}`})

	err := f.builder(Options{}).Validate(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1, "reported once for both languages")
	assert.ErrorContains(t, err, `page blog: no template "blog"`)

	f = newFixture(t, map[string]string{
		"data/pages/blog/en.json": `{"title": "Blog"}`,
		"data/routes.json":        `{"rules": [{"condition": "page == 'blog'", "template": "about"}]}`,
	})
	assert.NoError(t, f.builder(Options{}).Validate(context.Background()))

	f = newFixture(t, map[string]string{
		"data/pages/blog/en.json": `{"title": "Blog"}`,
		"data/routes.json":        `{"filter": "page != 'blog'"}`,
	})
	assert.NoError(t, f.builder(Options{}).Validate(context.Background()))
}

func TestFilteredBuildKeepsOtherPages(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.builder(Options{Workers: 2, Clean: true}).Build(context.Background())
	require.NoError(t, err)
	stale := filepath.Join(f.root, "dist", "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	report, err := f.builder(Options{Workers: 2, Clean: true, Filter: "lang == 'de'"}).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rendered)
	assert.Equal(t, 2, report.Skipped)

	assert.FileExists(t, filepath.Join(f.root, "dist", "index.html"))
	assert.FileExists(t, filepath.Join(f.root, "dist", "about.html"))
	assert.FileExists(t, filepath.Join(f.root, "dist", "de", "index.html"))
	assert.FileExists(t, stale, "filtered builds do not clean")
}

func TestBuildRefusesUnsafeOutDir(t *testing.T) {
	tests := []struct {
		name  string
		out   func(root string) string
		clean bool
	}{
		{"site root holding the sources", func(root string) string { return root }, true},
		{"data dir", func(root string) string { return filepath.Join(root, "data") }, false},
		{"inside data dir", func(root string) string { return filepath.Join(root, "data", "out") }, false},
		{"template dir", func(root string) string { return filepath.Join(root, "templates") }, true},
		{"inside static dir", func(root string) string { return filepath.Join(root, "static", "dist") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			report, err := f.builder(Options{OutDir: tt.out(f.root), Clean: tt.clean}).Build(context.Background())
			require.ErrorIs(t, err, ErrUnsafeOutDir)
			assert.Nil(t, report)

			assert.DirExists(t, filepath.Join(f.root, "data", "pages"))
			assert.FileExists(t, filepath.Join(f.root, "templates", "index.html"))
			assert.FileExists(t, filepath.Join(f.root, "static", "robots.txt"))
		})
	}
}

func TestCombineFilters(t *testing.T) {
	assert.Equal(t, "", CombineFilters("", ""))
	assert.Equal(t, "a", CombineFilters("a", ""))
	assert.Equal(t, "b", CombineFilters("", "b"))
	assert.Equal(t, "(a) && (b)", CombineFilters("a", "b"))
}
