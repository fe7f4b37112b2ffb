package aiprovider

import "strings"

// Normalize applies the per-vendor quirks: Ollama's base
// URL must end in "/api", Azure needs an apiVersion, and "custom" is
// treated as an OpenAI-compatible endpoint with no further rewriting.
func Normalize(cfg ModelConfig) ModelConfig {
	switch cfg.Vendor {
	case VendorOllama:
		cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		if !strings.HasSuffix(cfg.BaseURL, "/api") {
			cfg.BaseURL += "/api"
		}
	case VendorAzure:
		if cfg.APIVersion == "" {
			cfg.APIVersion = "2024-02-01"
		}
	}
	return cfg
}

// usesOpenAICompatibleAPI reports whether cfg's vendor should be routed
// through the OpenAI-shaped client (chat completions + embeddings), which
// covers every vendor except Anthropic and Google.
func usesOpenAICompatibleAPI(v Vendor) bool {
	switch v {
	case VendorAnthropic, VendorGoogle:
		return false
	default:
		return true
	}
}
