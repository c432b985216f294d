package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadDefaults tests that an empty path yields the defaults
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "workspaces", cfg.Namespace)
	assert.Equal(t, 3*time.Second, cfg.Intervals.Creation)
}

// TestLoadOverridesDefaults tests partial config files
func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
namespace: dev-envs
intervals:
  cleanup: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev-envs", cfg.Namespace)
	assert.Equal(t, 10*time.Minute, cfg.Intervals.Cleanup)
	// Untouched fields keep their defaults
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 60*time.Second, cfg.Intervals.Schedule)
}

// TestLoadErrors tests config files the worker must refuse
func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "namespace: [unterminated"},
		{name: "empty namespace", content: `namespace: ""`},
		{name: "zero interval", content: "intervals:\n  expiry: 0s"},
		{name: "negative interval", content: "intervals:\n  schedule: -1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

// TestLoadMissingFile tests that a named but absent file is an error
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestValidate tests the validation rules directly
func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Namespace = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Intervals.Creation = 0
	assert.Error(t, cfg.Validate())
}
