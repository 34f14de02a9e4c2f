// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "form-pipeline/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3*time.Second, cfg.Forms.HighlightDuration())
	assert.Equal(t, int64(5*1024*1024), cfg.Forms.Image.MaxSizeBytes)
	assert.Equal(t, []string{"image/jpeg", "image/jpg", "image/png"}, cfg.Forms.Image.AllowedTypes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, IsVariantEnabled(cfg, "uncontrolled"))
	assert.True(t, IsVariantEnabled(cfg, "hookForm"))
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  name: forms-demo
logging:
  level: debug
forms:
  highlight_timeout: 1500
  image:
    max_size_bytes: 1048576
    allowed_types: ["image/png"]
variants:
  uncontrolled:
    enabled: false
  hookForm:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "forms-demo", cfg.App.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1500*time.Millisecond, cfg.Forms.HighlightDuration())
	assert.Equal(t, int64(1048576), cfg.Forms.Image.MaxSizeBytes)
	assert.Equal(t, []string{"image/png"}, cfg.Forms.Image.AllowedTypes)
	assert.False(t, IsVariantEnabled(cfg, "uncontrolled"))
	assert.True(t, IsVariantEnabled(cfg, "hookForm"))
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("FORMS_HIGHLIGHT_TIMEOUT", "250")
	path := writeConfig(t, "forms:\n  highlight_timeout: 1000\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Forms.HighlightDuration())
}

func TestLoadFromFile_HighlightTimeout(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		env      string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "unset falls back to the default",
			body: "app:\n  name: forms-demo\n",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3*time.Second, cfg.Forms.HighlightDuration())
			},
		},
		{
			name: "explicit zero disables the clear",
			body: "forms:\n  highlight_timeout: 0\n",
			validate: func(t *testing.T, cfg *Config) {
				assert.Zero(t, cfg.Forms.HighlightDuration())
			},
		},
		{
			name: "zero from the environment",
			body: "forms:\n  highlight_timeout: 1000\n",
			env:  "0",
			validate: func(t *testing.T, cfg *Config) {
				assert.Zero(t, cfg.Forms.HighlightDuration())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("FORMS_HIGHLIGHT_TIMEOUT", tt.env)
			}
			cfg, err := LoadFromFile(writeConfig(t, tt.body))
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	dir := t.TempDir()
	countries := filepath.Join(dir, "countries.txt")
	require.NoError(t, os.WriteFile(countries, []byte("France\n"), 0o600))
	t.Setenv("COUNTRY_LIST", countries)

	path := writeConfig(t, "forms:\n  countries_file: ${COUNTRY_LIST}\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, countries, cfg.Forms.CountriesFile)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative timeout", "forms:\n  highlight_timeout: -1\n"},
		{"non image type", "forms:\n  image:\n    allowed_types: [\"text/plain\"]\n"},
		{"missing countries file", "forms:\n  countries_file: /does/not/exist.txt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, &apperrors.StandardError{Code: apperrors.ErrCodeConfigInvalid})
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
