package config

import (
	"encoding/json"
	"os"
	"strings"
)

// Options is the runtime settings snapshot: display preferences and AI
// provider credentials. Unlike Config it can change while the service runs,
// so AI analysis re-reads it per request via CurrentOptions.
type Options struct {
	Currency string `json:"currency"`
	Language string `json:"language"`

	AIProvider string `json:"ai_provider"`

	AnthropicAPIKey string `json:"anthropic_api_key"`
	AnthropicModel  string `json:"anthropic_model"`

	OpenAIAPIKey string `json:"openai_api_key"`
	OpenAIModel  string `json:"openai_model"`

	OpenRouterAPIKey string `json:"openrouter_api_key"`
	OpenRouterModel  string `json:"openrouter_model"`

	OllamaHost  string `json:"ollama_host"`
	OllamaModel string `json:"ollama_model"`
}

// DefaultOptions returns the documented option defaults.
func DefaultOptions() Options {
	return Options{
		Currency:        "CHF",
		Language:        "de",
		AIProvider:      "none",
		AnthropicModel:  "claude-opus-4-6",
		OpenAIModel:     "gpt-5.2",
		OpenRouterModel: "anthropic/claude-opus-4.6",
		OllamaHost:      "http://localhost:11434",
		OllamaModel:     "llava",
	}
}

// CurrentOptions reads the options file fresh on every call so credential
// changes take effect without a restart. A missing or malformed file yields
// the defaults.
func (c *Config) CurrentOptions() Options {
	opts := DefaultOptions()

	data, err := os.ReadFile(c.OptionsPath)
	if err == nil {
		// Ignore a broken file rather than failing the request; the
		// defaults keep the rest of the app usable.
		_ = json.Unmarshal(data, &opts)
	}

	// Backward compat with pre-multi-provider configs: an Anthropic key
	// without an explicit provider selection means Anthropic.
	if strings.TrimSpace(opts.AIProvider) == "" {
		opts.AIProvider = "none"
	}
	if opts.AIProvider == "none" && strings.TrimSpace(opts.AnthropicAPIKey) != "" {
		opts.AIProvider = "anthropic"
	}

	return opts
}

// Provider returns the normalized provider selection.
func (o Options) Provider() string {
	return strings.ToLower(strings.TrimSpace(o.AIProvider))
}

// ProviderConfigured reports whether the selected provider has the
// credential or host it needs.
func (o Options) ProviderConfigured() bool {
	switch o.Provider() {
	case "anthropic":
		return strings.TrimSpace(o.AnthropicAPIKey) != ""
	case "openai":
		return strings.TrimSpace(o.OpenAIAPIKey) != ""
	case "openrouter":
		return strings.TrimSpace(o.OpenRouterAPIKey) != ""
	case "ollama":
		return strings.TrimSpace(o.OllamaHost) != ""
	}
	return false
}
