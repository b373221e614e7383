package config

import "time"

const (
	defaultPort = "8080"

	defaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel     = "gemini-2.0-flash-exp"
	defaultTemperature     = 0.8
	defaultMaxOutputTokens = 2048
	defaultTopP            = 0.95
	defaultTopK            = 40
	defaultHeaderTimeout   = 30 * time.Second

	defaultDatabaseMaxConns  = 10
	defaultDatabaseIdleConns = 5
)

// NewDefaultConfig returns a Config with the defaults for every field.
// InitViper registers these same values, so this is the one place to change them.
func NewDefaultConfig() *Config {
	return &Config{
		Port: defaultPort,
		Gemini: GeminiConfig{
			BaseURL:         defaultGeminiBaseURL,
			Model:           defaultGeminiModel,
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxOutputTokens,
			TopP:            defaultTopP,
			TopK:            defaultTopK,
			HeaderTimeout:   defaultHeaderTimeout,
		},
		Database: DatabaseConfig{
			MaxOpenConns: defaultDatabaseMaxConns,
			MaxIdleConns: defaultDatabaseIdleConns,
		},
	}
}
