package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config holds all daemon configuration. Configure via YAML file
// (config/readerd.yaml, or READERD_CONFIG_FILE) or environment variables.
// Environment variables use uppercase with underscores (e.g. CACHE_DIR).
type Config struct {
	// Cache settings
	CacheDir         string `koanf:"cache_dir" json:"cache_dir" validate:"required"`
	CacheBudgetBytes int64  `koanf:"cache_budget_bytes" json:"cache_budget_bytes"`

	// Server settings
	ServerHost string `koanf:"server_host" json:"server_host"`
	ServerPort int    `koanf:"server_port" json:"server_port"`

	// Prefetch settings
	PrefetchAhead  uint32 `koanf:"prefetch_ahead" json:"prefetch_ahead"`
	PrefetchBehind uint32 `koanf:"prefetch_behind" json:"prefetch_behind"`

	// Logging
	LogLevel string `koanf:"log_level" json:"log_level"`
}

// defaults returns a Config with default values.
func defaults() *Config {
	return &Config{
		CacheBudgetBytes: 512 * 1024 * 1024,
		ServerHost:       "127.0.0.1",
		ServerPort:       0,
		PrefetchAhead:    3,
		PrefetchBehind:   1,
		LogLevel:         "info",
	}
}

// New creates a new Config by loading from file and environment variables.
// Load order (later sources override earlier):
//  1. Defaults
//  2. Config file (config/readerd.yaml, or READERD_CONFIG_FILE env var)
//  3. Environment variables
func New() (*Config, error) {
	k := koanf.New(".")

	cfg := defaults()

	configPath := os.Getenv("READERD_CONFIG_FILE")
	if configPath == "" {
		configPath = "config/readerd.yaml"
	}
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		// File not existing is fine - we'll use defaults and env vars.
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load config file %s", configPath)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest creates a Config for testing with minimal required fields.
func NewForTest(cacheDir string) *Config {
	cfg := defaults()
	cfg.CacheDir = cacheDir
	cfg.ServerPort = 0
	return cfg
}

// validateConfig validates the config and returns user-friendly error messages.
func validateConfig(cfg *Config) error {
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "config validation failed")
	}

	var msgs []string
	for _, e := range validationErrors {
		field := e.StructField()
		tag := e.Tag()

		switch tag {
		case "required":
			yamlKey := strcase.ToSnake(field)
			envVar := strings.ToUpper(yamlKey)
			msgs = append(msgs, fmt.Sprintf(
				"missing required config: %s\n  Set via environment variable: %s\n  Or in config file: %s",
				field, envVar, yamlKey,
			))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid config %s: %s", field, tag))
		}
	}

	return errors.New("configuration validation failed:\n\n" + strings.Join(msgs, "\n\n"))
}
