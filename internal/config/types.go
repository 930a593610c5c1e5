package config

import "strings"

// AIConfig selects and configures the flashcard generation provider.
type AIConfig struct {
	Provider       string `yaml:"provider"` // openrouter | openai | anthropic | gemini | mock
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	DefaultModel   string `yaml:"default_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Mock           bool   `yaml:"mock"`
	MockDelayMs    int    `yaml:"mock_delay_ms"`
	SiteURL        string `yaml:"site_url"`
	SiteName       string `yaml:"site_name"`
}

// UseMock reports whether generation runs offline.
func (a AIConfig) UseMock() bool {
	return a.Mock || a.Provider == ProviderMock
}

// HasAPIKey reports whether a secret is configured for the selected provider.
func (a AIConfig) HasAPIKey() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	switch t {
	case "open-router":
		return ProviderOpenRouter
	case "claude":
		return ProviderAnthropic
	case "google", "google-genai", "genai":
		return ProviderGemini
	}
	return t
}
