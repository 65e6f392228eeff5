package ai

import "sort"

// ModelInfo carries the context window and illustrative pricing used to
// size prompts and report an estimated cost.
type ModelInfo struct {
	Name          string
	ContextTokens int
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

// DefaultContextTokens is assumed for models missing from the catalog.
const DefaultContextTokens = 8192

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini":                {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"openai/gpt-4o":                     {Name: "openai/gpt-4o", ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	"anthropic/claude-3-haiku":          {Name: "anthropic/claude-3-haiku", ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
	"anthropic/claude-3-haiku-20240307": {Name: "anthropic/claude-3-haiku-20240307", ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
	"anthropic/claude-3.5-haiku":        {Name: "anthropic/claude-3.5-haiku", ContextTokens: 200000, InputPerK: 0.0008, OutputPerK: 0.004},
	"anthropic/claude-3.5-sonnet":       {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015},
	"google/gemini-1.5-flash":           {Name: "google/gemini-1.5-flash", ContextTokens: 1000000, InputPerK: 0.000075, OutputPerK: 0.0003},
	"google/gemini-1.5-pro":             {Name: "google/gemini-1.5-pro", ContextTokens: 1000000, InputPerK: 0.00125, OutputPerK: 0.005},
	"meta-llama/llama-3.1-8b-instruct":  {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	"llama3:latest":                     {Name: "llama3:latest", ContextTokens: 8192},
	"llama3.1:8b":                       {Name: "llama3.1:8b", ContextTokens: 131072},
	"mistral:7b-instruct":               {Name: "mistral:7b-instruct", ContextTokens: 32768},
	"phi3:mini-4k-instruct":             {Name: "phi3:mini-4k-instruct", ContextTokens: 4096},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// ContextTokens returns the model context window, or DefaultContextTokens
// when the model is unknown.
func ContextTokens(name string) int {
	if mi, ok := models[name]; ok && mi.ContextTokens > 0 {
		return mi.ContextTokens
	}
	return DefaultContextTokens
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	in := (float64(promptTokens) / 1000.0) * mi.InputPerK
	out := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return in + out, true
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
