// ABOUTME: Application configuration - defaults, optional YAML file, and
// ABOUTME: MCPCHAT_ environment variable overrides, merged in that order.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every runtime setting.
type Config struct {
	Addr         string `koanf:"addr"`
	DatabasePath string `koanf:"database-path"`
	ImageDir     string `koanf:"image-dir"`
	BaseURL      string `koanf:"base-url"`
	GeminiAPIKey string `koanf:"gemini-api-key"`
	Model        string `koanf:"model"`
	SystemPrompt string `koanf:"system-prompt"`
}

func defaults() map[string]any {
	return map[string]any{
		"addr":          ":8080",
		"database-path": "mcpchat.db",
		"image-dir":     "images",
		"base-url":      "http://localhost:8080",
		"model":         "gemini-2.0-flash-001",
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path or a missing file is fine. Environment variables with the MCPCHAT_
// prefix override file values (MCPCHAT_BASE_URL -> base-url). GEMINI_API_KEY
// is honored as a fallback for the API key.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return Config{}, err
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	// MCPCHAT_BASE_URL -> base-url, MCPCHAT_GEMINI_API_KEY -> gemini-api-key.
	err := k.Load(env.ProviderWithValue("MCPCHAT_", "", func(key, value string) (string, interface{}) {
		configKey := strings.TrimPrefix(key, "MCPCHAT_")
		configKey = strings.ToLower(strings.ReplaceAll(configKey, "_", "-"))
		return configKey, value
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	return cfg, nil
}
