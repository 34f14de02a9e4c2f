// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig                `mapstructure:"app"`
	Logging  LoggingConfig            `mapstructure:"logging"`
	Forms    FormsConfig              `mapstructure:"forms"`
	Variants map[string]VariantConfig `mapstructure:"variants"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// FormsConfig holds the submission pipeline settings shared by both variants.
type FormsConfig struct {
	HighlightTimeout int         `mapstructure:"highlight_timeout"` // milliseconds
	Image            ImageConfig `mapstructure:"image"`
	CountriesFile    string      `mapstructure:"countries_file"`
}

type ImageConfig struct {
	MaxSizeBytes int64    `mapstructure:"max_size_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// VariantConfig toggles a form variant.
type VariantConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HighlightDuration is how long the newest submission stays highlighted.
func (f FormsConfig) HighlightDuration() time.Duration {
	return GetDuration(f.HighlightTimeout)
}
