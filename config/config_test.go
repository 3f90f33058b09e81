package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/rdl2/dso"
	"github.com/Neumenon/rdl2/internal/fixture"
	"github.com/Neumenon/rdl2/rdla"
	"github.com/Neumenon/rdl2/rdlb"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Setenv(dso.EnvDsoPath, "")
	path := writeConfig(t, `
dso_path = "/classes/a:/classes/b"
proxy_mode = true
log_level = "debug"

[text]
skip_defaults = false
elements_per_line = 4

[binary]
compress = true
split_threshold = 4096
warnings_as_errors = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "/classes/a"+string(os.PathListSeparator)+"/classes/b", cfg.DsoPath)
	assert.True(t, cfg.ProxyMode)
	assert.Equal(t, TextConfig{ElementsPerLine: 4}, cfg.Text)
	assert.Equal(t, BinaryConfig{SkipDefaults: true, Compress: true, SplitThreshold: 4096, WarningsAsErrors: true}, cfg.Binary)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(dso.EnvDsoPath, "")
	homedir.Reset()
	t.Cleanup(homedir.Reset)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, Default().Text, cfg.Text)
	assert.ErrorIs(t, cfg.Validate(), ErrDsoPathMissing)
}

func TestEnvironmentOverridesDsoPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)
	t.Setenv(dso.EnvDsoPath, "~/classes")

	cfg, err := Load(writeConfig(t, `dso_path = "/ignored"`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "classes"), cfg.DsoPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(dso.EnvDsoPath, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `dso_path = [`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "dso_path = \"/x\"\ncolour = \"red\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"no dso path", func(c *Config) { c.DsoPath = " " }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"negative wrap", func(c *Config) { c.Text.ElementsPerLine = -1 }, false},
		{"negative split", func(c *Config) { c.Binary.SplitThreshold = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.DsoPath = "/classes"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// ============================================================
// Wiring
// ============================================================

func TestCodecOptions(t *testing.T) {
	cfg := Default()
	cfg.Text.SkipDefaults = false
	cfg.Binary.Compress = true
	cfg.Binary.SplitThreshold = 256

	sc, err := fixture.NewContext()
	require.NoError(t, err)
	require.NoError(t, fixture.Populate(sc, 4))

	text, err := rdla.NewWriter(sc, cfg.TextWriterOptions()...).String()
	require.NoError(t, err)
	defaults, err := rdla.NewWriter(sc).String()
	require.NoError(t, err)
	assert.Greater(t, len(text), len(defaults))

	manifest, _, err := rdlb.NewWriter(sc, cfg.BinaryWriterOptions()...).ToBytes()
	require.NoError(t, err)
	summary, err := rdlb.ShowManifest(manifest)
	require.NoError(t, err)
	assert.Contains(t, summary, "flags=split,compressed")

	other, err := fixture.NewContext()
	require.NoError(t, err)
	_, err = rdla.NewReader(other, cfg.TextReaderOptions()...).ReadString(text)
	require.NoError(t, err)
	assert.Empty(t, fixture.Diff(sc, other))
	assert.Len(t, cfg.BinaryReaderOptions(), 1)
}

func TestContextOptions(t *testing.T) {
	cfg := Default()
	cfg.DsoPath = filepath.Join("..", "dso", "testdata", "classes")
	cfg.ProxyMode = true

	sc, err := fixture.NewContext(cfg.ContextOptions(slog.Default())...)
	require.NoError(t, err)
	assert.True(t, sc.ProxyModeEnabled())
	assert.Equal(t, cfg.DsoPath, sc.DsoPath())
}
