// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "form-pipeline/internal/common/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultHighlightTimeout = 3000
	defaultMaxImageSize     = 5 * 1024 * 1024
)

var defaultImageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// Load reads configs/config.yaml (if present), merges config.<env>.yaml and
// applies environment overrides such as FORMS_HIGHLIGHT_TIMEOUT.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// Default returns a configuration with every default applied and no file
// or environment involved.
func Default() *Config {
	cfg := &Config{}
	cfg.Forms.HighlightTimeout = defaultHighlightTimeout
	applyDefaults(cfg)
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Set here rather than in applyDefaults so an explicit 0 survives.
	v.SetDefault("forms.highlight_timeout", defaultHighlightTimeout)
	// AutomaticEnv only covers keys viper already knows about.
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"logging.level", "logging.format", "logging.output",
		"forms.highlight_timeout", "forms.countries_file",
		"forms.image.max_size_bytes", "forms.image.allowed_types",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the project root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "form-pipeline"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Forms.Image.MaxSizeBytes == 0 {
		cfg.Forms.Image.MaxSizeBytes = defaultMaxImageSize
	}
	if len(cfg.Forms.Image.AllowedTypes) == 0 {
		cfg.Forms.Image.AllowedTypes = append([]string(nil), defaultImageTypes...)
	}

	if cfg.Variants == nil {
		cfg.Variants = make(map[string]VariantConfig)
	}
	// viper lower-cases map keys, so variant names are stored lower-case.
	for _, name := range []string{"uncontrolled", "hookform"} {
		if _, ok := cfg.Variants[name]; !ok {
			cfg.Variants[name] = VariantConfig{Enabled: true}
		}
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Forms.HighlightTimeout < 0 {
		return apperrors.NewConfigInvalidError("forms.highlight_timeout must not be negative")
	}
	if cfg.Forms.Image.MaxSizeBytes < 0 {
		return apperrors.NewConfigInvalidError("forms.image.max_size_bytes must not be negative")
	}
	for _, t := range cfg.Forms.Image.AllowedTypes {
		if !strings.HasPrefix(t, "image/") {
			return apperrors.NewConfigInvalidError(fmt.Sprintf("forms.image.allowed_types: %q is not an image type", t))
		}
	}
	if cfg.Forms.CountriesFile != "" {
		if _, err := os.Stat(cfg.Forms.CountriesFile); err != nil {
			return apperrors.NewConfigInvalidError(fmt.Sprintf("forms.countries_file: %v", err))
		}
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// IsVariantEnabled checks if a form variant is enabled
func IsVariantEnabled(cfg *Config, formType string) bool {
	if variant, exists := cfg.Variants[strings.ToLower(formType)]; exists {
		return variant.Enabled
	}
	return true
}
