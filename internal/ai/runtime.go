package ai

import (
	"context"
	"strings"
)

// Runtime is implemented by chat completion backends such as OpenRouter
// and a local Ollama daemon.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the registry and the config layer.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// vendorPrefixes maps bare model family names to their OpenRouter vendor.
var vendorPrefixes = []struct {
	contains string
	vendor   string
}{
	{"claude", "anthropic"},
	{"gemini", "google"},
	{"gpt", "openai"},
	{"llama", "meta-llama"},
	{"mistral", "mistralai"},
}

// NormalizeModel qualifies a bare model name such as "claude-3-haiku" with
// its OpenRouter vendor. Names that already carry a vendor, and every name
// for other providers, are returned unchanged.
func NormalizeModel(provider, model string) string {
	model = strings.TrimSpace(model)
	if provider != ProviderOpenRouter || model == "" || strings.Contains(model, "/") {
		return model
	}
	lower := strings.ToLower(model)
	for _, p := range vendorPrefixes {
		if strings.Contains(lower, p.contains) {
			return p.vendor + "/" + model
		}
	}
	return model
}
