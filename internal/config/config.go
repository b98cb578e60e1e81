// Package config loads and validates the assistant's configuration from
// environment variables and an optional .cfarc YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Defaults applied when the corresponding setting is absent.
const (
	DefaultBridgeImage      = "ghcr.io/sooperset/mcp-atlassian:latest"
	DefaultGeminiModel      = "gemini-1.5-flash"
	DefaultMaxContentLength = 8000
	DefaultMaxSearchResults = 50
)

// Config holds every external setting the assistant needs. It is loaded once
// at startup and validated before any component is constructed.
type Config struct {
	// Gemini API.
	GoogleAPIKey string
	GeminiModel  string

	// Document store reached through the bridge process.
	ConfluenceURL          string
	ConfluenceUsername     string
	ConfluenceAPIToken     string
	ConfluenceSpacesFilter string

	// Container image for the bridge process.
	BridgeImage string

	// Application settings.
	Debug            bool
	MaxContentLength int
	MaxSearchResults int
}

// Load reads configuration from the environment and, when present, a .cfarc
// file in the current directory. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".cfarc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("google_api_key", "")
	v.SetDefault("gemini_model", DefaultGeminiModel)
	v.SetDefault("confluence_url", "")
	v.SetDefault("confluence_username", "")
	v.SetDefault("confluence_api_token", "")
	v.SetDefault("confluence_spaces_filter", "")
	v.SetDefault("mcp_docker_image", DefaultBridgeImage)
	v.SetDefault("debug", false)
	v.SetDefault("max_content_length", DefaultMaxContentLength)
	v.SetDefault("max_search_results", DefaultMaxSearchResults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .cfarc: %w", err)
		}
	}

	return &Config{
		GoogleAPIKey:           v.GetString("google_api_key"),
		GeminiModel:            v.GetString("gemini_model"),
		ConfluenceURL:          v.GetString("confluence_url"),
		ConfluenceUsername:     v.GetString("confluence_username"),
		ConfluenceAPIToken:     v.GetString("confluence_api_token"),
		ConfluenceSpacesFilter: v.GetString("confluence_spaces_filter"),
		BridgeImage:            v.GetString("mcp_docker_image"),
		Debug:                  v.GetBool("debug"),
		MaxContentLength:       v.GetInt("max_content_length"),
		MaxSearchResults:       v.GetInt("max_search_results"),
	}, nil
}

// requiredFields maps display names to accessor functions, in the order they
// are reported.
func (c *Config) requiredFields() []struct {
	name  string
	value string
} {
	return []struct {
		name  string
		value string
	}{
		{"GOOGLE_API_KEY", c.GoogleAPIKey},
		{"CONFLUENCE_URL", c.ConfluenceURL},
		{"CONFLUENCE_USERNAME", c.ConfluenceUsername},
		{"CONFLUENCE_API_TOKEN", c.ConfluenceAPIToken},
	}
}

// Validate checks that every required setting is present and not an obvious
// placeholder. All offending fields are reported in one combined error so a
// misconfigured environment can be fixed in a single pass.
func (c *Config) Validate() error {
	var missing, placeholder []string

	for _, f := range c.requiredFields() {
		switch {
		case f.value == "":
			missing = append(missing, f.name)
		case strings.HasPrefix(f.value, "your_"):
			placeholder = append(placeholder, f.name)
		}
	}

	var errs []string
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("missing required settings: %s", strings.Join(missing, ", ")))
	}
	if len(placeholder) > 0 {
		errs = append(errs, fmt.Sprintf("placeholder values must be replaced for: %s", strings.Join(placeholder, ", ")))
	}
	if c.MaxContentLength <= 0 {
		errs = append(errs, fmt.Sprintf("max_content_length must be positive, got %d", c.MaxContentLength))
	}
	if c.MaxSearchResults <= 0 {
		errs = append(errs, fmt.Sprintf("max_search_results must be positive, got %d", c.MaxSearchResults))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// BridgeCommand builds the command line that launches the bridge process.
func (c *Config) BridgeCommand() []string {
	return []string{
		"docker", "run", "-i", "--rm",
		c.BridgeImage,
		"--confluence-url", c.ConfluenceURL,
		"--confluence-username", c.ConfluenceUsername,
		"--confluence-token", c.ConfluenceAPIToken,
	}
}

// DebugInfo returns a redacted snapshot of the configuration suitable for
// logging. Credential values are reported only as present or absent.
func (c *Config) DebugInfo() map[string]any {
	return map[string]any{
		"google_api_configured":          c.GoogleAPIKey != "",
		"gemini_model":                   c.GeminiModel,
		"confluence_url":                 c.ConfluenceURL,
		"confluence_username":            c.ConfluenceUsername,
		"confluence_api_token_configured": c.ConfluenceAPIToken != "",
		"bridge_image":                   c.BridgeImage,
		"debug":                          c.Debug,
		"max_content_length":             c.MaxContentLength,
		"max_search_results":             c.MaxSearchResults,
	}
}
