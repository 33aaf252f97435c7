package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", " gem-key ")
	t.Setenv("FRIDGEFRIEND_DEMO_MODE", "true")
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"databases": {"sqlite3": {"dsn": "data/app.db"}}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	name, provider := cfg.Provider()
	assert.Equal(t, DefaultProvider, name)
	assert.Equal(t, DefaultModel, provider.Model)
	assert.Equal(t, "gem-key", provider.APIKey)
	assert.True(t, cfg.BasicConfig.DemoMode)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Generation.MaxWorkers)
	assert.Equal(t, filepath.Join(dir, "data/app.db"), cfg.Databases["sqlite3"].DSN)
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	prev, hadPrev := os.LookupEnv("ANTHROPIC_API_KEY")
	os.Unsetenv("ANTHROPIC_API_KEY")
	t.Cleanup(func() {
		if hadPrev {
			os.Setenv("ANTHROPIC_API_KEY", prev)
		} else {
			os.Unsetenv("ANTHROPIC_API_KEY")
		}
	})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ANTHROPIC_API_KEY=from-dotenv\n"), 0o600))
	path := writeConfig(t, dir, `{
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"generation": {"provider": "claude"},
		"providers": {"claude": {"model": "claude-3-5-haiku-latest"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	name, provider := cfg.Provider()
	assert.Equal(t, "claude", name)
	assert.Equal(t, "from-dotenv", provider.APIKey)
	assert.Equal(t, ":memory:", cfg.Databases["sqlite3"].DSN)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeConfig(t, dir, `{}`))
	assert.Error(t, err, "no database configured")

	_, err = Load(writeConfig(t, dir, `{"databases": {"sqlite3": {"dsn": ":memory:"}}, "log": {"level": "loud"}}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, dir, `{"databases": {"sqlite3": {"dsn": ":memory:"}}, "generation": {"provider": "mistral"}}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, dir, `{"databases": {"sqlite3": {"dsn": ":memory:"}}, "generation": {"rate_per_minute": -1}}`))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
