package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PYGNUPLOT_TERM", "PYGNUPLOT_GNUPLOT", "SP_GATEWAY_URL", "SP_GATEWAY_SECRET"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8800, cfg.Port)
	assert.Equal(t, "x11", cfg.Term)
	assert.Equal(t, "gnuplot", cfg.GnuplotPath)
	assert.Equal(t, []string{"-p"}, cfg.GnuplotArgs)
	assert.False(t, cfg.PTY)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadFile(&cfg, filepath.Join(t.TempDir(), "none.yaml")))
	assert.Equal(t, Default().Term, cfg.Term)
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("term: wxt\nport: 9000\npty: true\ngnuplot_args: [\"-p\", \"-d\"]\n"), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(&cfg, path))
	assert.Equal(t, "wxt", cfg.Term)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.PTY)
	assert.Equal(t, []string{"-p", "-d"}, cfg.GnuplotArgs)
	assert.Equal(t, "gnuplot", cfg.GnuplotPath)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [nope\n"), 0o644))

	cfg := Default()
	assert.Error(t, LoadFile(&cfg, path))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PYGNUPLOT_TERM":    "qt",
		"SP_GATEWAY_URL":    "wss://gw/tunnel",
		"SP_GATEWAY_SECRET": "s3cret",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, "qt", cfg.Term)
	assert.Equal(t, "gnuplot", cfg.GnuplotPath)
	assert.Equal(t, "wss://gw/tunnel", cfg.GatewayURL)
	assert.Equal(t, "s3cret", cfg.GatewaySecret)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("term: wxt\nport: 9000\n"), 0o644))
	t.Setenv("PYGNUPLOT_TERM", "qt")

	cfg, err := Load([]string{"-config", path, "-port", "9100"})
	require.NoError(t, err)
	assert.Equal(t, "qt", cfg.Term)
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PYGNUPLOT_TERM", "qt")

	cfg, err := Load([]string{"-config", filepath.Join(t.TempDir(), "none.yaml"), "-term", "dumb"})
	require.NoError(t, err)
	assert.Equal(t, "dumb", cfg.Term)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"empty term", func(c *Config) { c.Term = "" }},
		{"empty gnuplot", func(c *Config) { c.GnuplotPath = "" }},
		{"gateway without secret", func(c *Config) { c.GatewayURL = "wss://gw/tunnel" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
