package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"data/site.json":           `{"brand": "Acme"}`,
		"data/languages/en.json":   `{"name": "English"}`,
		"data/languages/de.json":   `{"name": "Deutsch"}`,
		"data/pages/index/en.json": `{"title": "Home", "lead": "Hello"}`,
		"data/pages/index/de.json": `{"title": "Start"}`,
		"templates/index.html":     "<h1>{{title}}</h1>{{> footer}}",
		"static/robots.txt":        "User-agent: *",
	}
	files["templates/partials/footer.html"] = "<footer>{{brand}}</footer>"
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	base := []string{
		"--data", filepath.Join(root, "data"),
		"--templates", filepath.Join(root, "templates"),
		"--static", filepath.Join(root, "static"),
		"--out", filepath.Join(root, "dist"),
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	root := writeSite(t)

	out, err := run(t, root, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rendered, 0 skipped, 0 failed, 1 static files")

	html, err := os.ReadFile(filepath.Join(root, "dist", "de", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Start</h1><footer>Acme</footer>", string(html))
	assert.FileExists(t, filepath.Join(root, "dist", "index.html"))
	assert.FileExists(t, filepath.Join(root, "dist", "robots.txt"))
}

func TestBuildCommandJSON(t *testing.T) {
	root := writeSite(t)

	out, err := run(t, root, "build", "--json", "--filter", "lang == 'de'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gjson.Get(out, "rendered").Int())
	assert.Equal(t, int64(1), gjson.Get(out, "skipped").Int())
	assert.Equal(t, "de/index.html", gjson.Get(out, `pages.#(lang=="de").output`).String())
}

func TestBuildCommandFails(t *testing.T) {
	root := writeSite(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "index.html"), []byte("{{#if title}}open"), 0o644))

	out, err := run(t, root, "build")
	require.Error(t, err)
	assert.Contains(t, out, "FAIL  index/en")
}

func TestRenderCommand(t *testing.T) {
	root := writeSite(t)

	out, err := run(t, root, "render", "index", "de")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Start</h1><footer>Acme</footer>", out)
	assert.NoDirExists(t, filepath.Join(root, "dist"))

	_, err = run(t, root, "render", "index", "xx")
	assert.Error(t, err)

	_, err = run(t, root, "render", "index")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	root := writeSite(t)

	out, err := run(t, root, "validate", "--handlebars")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "partials", "footer.html"), []byte("{{#each x}}"), 0o644))
	out, err = run(t, root, "validate")
	require.Error(t, err)
	assert.Contains(t, out, "error:")
}

func TestValidateParity(t *testing.T) {
	root := writeSite(t)

	out, err := run(t, root, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = run(t, root, "validate", "--parity")
	require.Error(t, err)
	assert.Contains(t, out, "error: parity index/de lead: missing")
	assert.Contains(t, err.Error(), "1 problems found")

	de := filepath.Join(root, "data", "pages", "index", "de.json")
	require.NoError(t, os.WriteFile(de, []byte(`{"title": "Start", "lead": "Hallo", "draft": true}`), 0o644))
	out, err = run(t, root, "validate", "--parity")
	require.Error(t, err)
	assert.Contains(t, out, "error: parity index/de draft: extra")

	require.NoError(t, os.WriteFile(de, []byte(`{"title": "Start", "lead": "Hallo"}`), 0o644))
	out, err = run(t, root, "validate", "--parity")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
}

func TestTranslateDryRun(t *testing.T) {
	root := writeSite(t)

	out, err := run(t, root, "translate", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "index/de: 1 missing")
	assert.Contains(t, out, "lead")
}

func TestTranslateNeedsAPIKey(t *testing.T) {
	root := writeSite(t)
	t.Setenv("LLM_API_KEY", "")

	_, err := run(t, root, "translate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestFlagOverridesAreValidated(t *testing.T) {
	root := writeSite(t)

	_, err := run(t, root, "build", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestInitLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := initLogger("debug", format)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
