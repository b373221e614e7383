// Package config loads the settings shared by the chat relay and progress services.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every automatically bound environment variable,
// eg. gemini.model -> CHATRELAY_GEMINI_MODEL.
const EnvPrefix = "CHATRELAY"

// Environment variables the Gemini key is read from, in order. The first non-empty one wins.
var apiKeyEnvVars = []string{"VITE_GEMINI_API_KEY", "GEMINI_API_KEY"}

// Config is the resolved configuration for one process.
type Config struct {
	Port     string
	Debug    bool
	Gemini   GeminiConfig
	Relay    RelayConfig
	Database DatabaseConfig

	// v is kept so secrets can be read at call time instead of being captured at startup.
	v *viper.Viper
}

// GeminiConfig holds the upstream provider settings.
type GeminiConfig struct {
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	TopP            float32
	TopK            float32
	// HeaderTimeout bounds dialing and waiting for the upstream response headers.
	// The streamed body itself has no deadline.
	HeaderTimeout time.Duration
}

// RelayConfig holds behaviour switches for the chat relay.
type RelayConfig struct {
	// StrictValidation answers malformed chat payloads with 400 instead of 500.
	StrictValidation bool
	// SystemPromptFile replaces the built in persona prompt when set.
	SystemPromptFile string
}

// DatabaseConfig holds the Postgres settings used by the progress service.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	// Migrate creates the tables on startup when they are missing.
	Migrate bool
}

// InitViper creates a *viper.Viper with every default registered, the optional
// config file read in, and environment variables bound.
//
// Precedence (highest first): bound CLI flags, env vars, config file, defaults.
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("chatrelay")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when nobody asked for one explicitly.
		if configFile != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// These keep the names the deployment platform already uses.
	bindings := [][]string{
		append([]string{"gemini.api_key"}, apiKeyEnvVars...),
		{"port", "PORT"},
		{"database.url", "DB_CONNECTION_STRING"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", b[0], err)
		}
	}

	return v, nil
}

func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("port", d.Port)
	v.SetDefault("debug", d.Debug)

	v.SetDefault("gemini.base_url", d.Gemini.BaseURL)
	v.SetDefault("gemini.model", d.Gemini.Model)
	v.SetDefault("gemini.temperature", d.Gemini.Temperature)
	v.SetDefault("gemini.max_output_tokens", d.Gemini.MaxOutputTokens)
	v.SetDefault("gemini.top_p", d.Gemini.TopP)
	v.SetDefault("gemini.top_k", d.Gemini.TopK)
	v.SetDefault("gemini.header_timeout", d.Gemini.HeaderTimeout)

	v.SetDefault("relay.strict_validation", d.Relay.StrictValidation)
	v.SetDefault("relay.system_prompt_file", d.Relay.SystemPromptFile)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.migrate", d.Database.Migrate)
}

// Load resolves a Config out of an initialised viper instance.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:  v.GetString("port"),
		Debug: v.GetBool("debug"),
		Gemini: GeminiConfig{
			BaseURL:         strings.TrimRight(v.GetString("gemini.base_url"), "/"),
			Model:           v.GetString("gemini.model"),
			Temperature:     float32(v.GetFloat64("gemini.temperature")),
			MaxOutputTokens: v.GetInt32("gemini.max_output_tokens"),
			TopP:            float32(v.GetFloat64("gemini.top_p")),
			TopK:            float32(v.GetFloat64("gemini.top_k")),
			HeaderTimeout:   v.GetDuration("gemini.header_timeout"),
		},
		Relay: RelayConfig{
			StrictValidation: v.GetBool("relay.strict_validation"),
			SystemPromptFile: v.GetString("relay.system_prompt_file"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
			Migrate:      v.GetBool("database.migrate"),
		},
		v: v,
	}

	if cfg.Port == "" {
		return nil, errors.New("port must not be empty")
	}
	if cfg.Gemini.BaseURL == "" || cfg.Gemini.Model == "" {
		return nil, errors.New("gemini base_url and model are required")
	}

	return cfg, nil
}

// GeminiAPIKey returns the provider key as currently configured.
// It is read on every call so a key added to the environment is picked up without a restart.
func (c *Config) GeminiAPIKey() string {
	if c.v == nil {
		for _, name := range apiKeyEnvVars {
			if key := os.Getenv(name); key != "" {
				return key
			}
		}
		return ""
	}
	return c.v.GetString("gemini.api_key")
}

// ListenAddr is the address the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return ":" + c.Port
}
