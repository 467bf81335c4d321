package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "templates", cfg.TemplateDir)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 4, cfg.BuildWorkers)
	assert.True(t, cfg.CleanOutDir)
	assert.Equal(t, "      ", cfg.Indent())
	assert.Equal(t, 32, cfg.MaxPartialDepth)
	assert.Equal(t, time.Second, cfg.BlockTime)
	assert.Equal(t, "sitegen:build:last", cfg.LastBuildKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/site/data")
	t.Setenv("BUILD_WORKERS", "9")
	t.Setenv("BUILD_FILTER", "lang == 'de'")
	t.Setenv("MARKDOWN_FLAVOR", "gfm")
	t.Setenv("JSON_INDENT", "2")
	t.Setenv("BLOCK_TIME", "250ms")
	t.Setenv("LLM_API_KEY", "sk-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/site/data", cfg.DataDir)
	assert.Equal(t, 9, cfg.BuildWorkers)
	assert.Equal(t, "gfm", cfg.MarkdownFlavor)
	assert.Equal(t, "  ", cfg.Indent())
	assert.Equal(t, 250*time.Millisecond, cfg.BlockTime)
	assert.NotContains(t, cfg.String(), "sk-secret")
	assert.Contains(t, cfg.String(), `BuildFilter="lang == 'de'"`)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, val, msg string
	}{
		{"BUILD_WORKERS", "0", "BUILD_WORKERS"},
		{"BUILD_WORKERS", "many", "failed to parse config"},
		{"MARKDOWN_FLAVOR", "commonmark", "MARKDOWN_FLAVOR"},
		{"JSON_INDENT", "-1", "JSON_INDENT"},
		{"MAX_PARTIAL_DEPTH", "0", "MAX_PARTIAL_DEPTH"},
		{"HEALTH_PORT", "70000", "HEALTH_PORT"},
		{"LOG_LEVEL", "trace", "LOG_LEVEL"},
		{"LOG_FORMAT", "xml", "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
