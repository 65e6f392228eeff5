// Package insights turns a dataset profile into a short natural language
// assessment by forwarding it to a chat completion runtime.
package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tdprofiler/internal/ai"
	"github.com/KaramelBytes/tdprofiler/internal/analysis"
	apperrors "github.com/KaramelBytes/tdprofiler/internal/errors"
	"github.com/KaramelBytes/tdprofiler/internal/logger"
	"github.com/KaramelBytes/tdprofiler/internal/utils"
)

// FallbackSummary is reported when the model could not be reached or its
// answer could not be parsed.
const FallbackSummary = "Error generating AI insights. Please check your API keys and connection."

const systemPrompt = `You are an expert data quality analyst. Analyze the data profiling results and respond with ONLY valid JSON (no markdown, no code blocks).

The JSON must have this exact structure with string values only:
{
  "executive_summary": "A 2-3 sentence overview of the data quality.",
  "critical_issues": ["Issue 1 description", "Issue 2 description"],
  "recommendations": ["Recommendation 1", "Recommendation 2"],
  "dbt_tests": ["unique: column_name", "not_null: column_name"]
}

IMPORTANT: All array items must be simple strings, not objects. For dbt_tests, use simple test notation like "unique: id" or "not_null: email".`

const (
	userPrefix      = "PROFILING RESULTS:\n"
	userSuffix      = "\n\nRespond with valid JSON only."
	truncatedMarker = "\n...[truncated]"
	// promptSlack leaves room for chat framing tokens.
	promptSlack = 256
)

// Insights is the structured answer of the model.
type Insights struct {
	ExecutiveSummary string     `json:"executive_summary"`
	CriticalIssues   StringList `json:"critical_issues"`
	Recommendations  StringList `json:"recommendations"`
	DBTTests         StringList `json:"dbt_tests"`
}

// Fallback returns the insights reported when generation fails.
func Fallback() Insights {
	return Insights{
		ExecutiveSummary: FallbackSummary,
		CriticalIssues:   StringList{},
		Recommendations:  StringList{},
		DBTTests:         StringList{},
	}
}

// Config holds generation defaults.
type Config struct {
	Provider     string
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

// Generator asks a runtime for insights about a profile.
type Generator struct {
	rt  ai.Runtime
	cfg Config
	log *logger.Logger
}

// NewGenerator builds a Generator. A nil logger disables logging.
func NewGenerator(rt ai.Runtime, cfg Config, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.Provider == "" {
		cfg.Provider = ai.ProviderOpenRouter
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Generator{rt: rt, cfg: cfg, log: log}
}

// ResolveModel returns the model a request for model would use.
func (g *Generator) ResolveModel(model string) string {
	if strings.TrimSpace(model) == "" {
		model = g.cfg.DefaultModel
	}
	return ai.NormalizeModel(g.cfg.Provider, model)
}

// Generate asks the runtime for insights. On any failure it returns the
// fallback insights together with the error so callers can still answer.
func (g *Generator) Generate(ctx context.Context, p *analysis.DatasetProfile, model string) (Insights, error) {
	if p == nil {
		return Fallback(), apperrors.InvalidInput("profile is required")
	}
	if g.rt == nil {
		return Fallback(), apperrors.New(apperrors.CodeExternalService, "no insights runtime configured")
	}
	model = g.ResolveModel(model)
	if model == "" {
		return Fallback(), apperrors.InvalidInput("model is required")
	}

	user, err := g.userPrompt(p, model)
	if err != nil {
		return Fallback(), apperrors.Wrap(err, "build prompt")
	}
	log := g.log.WithFields(map[string]any{"model": model, "prompt_tokens_est": utils.CountTokens(user)})
	log.Debug("requesting insights")

	resp, err := g.rt.Generate(ctx, ai.GenerateRequest{
		Model: model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		log.Warnw("insights generation failed", "error", err)
		return Fallback(), apperrors.ExternalServiceError("insights", err)
	}
	if cost, ok := ai.EstimateCostUSD(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok {
		log.Debugw("insights generated", "total_tokens", resp.Usage.TotalTokens, "cost_usd", cost)
	}

	out, err := Parse(resp.Content())
	if err != nil {
		log.Warnw("insights response not valid JSON", "error", err)
		return Fallback(), apperrors.ExternalServiceError("insights", err)
	}
	return out, nil
}

// userPrompt renders the profile and fits it into the model context window.
// Oversized profiles drop per-column value tables first, then get cut.
func (g *Generator) userPrompt(p *analysis.DatasetProfile, model string) (string, error) {
	budget := ai.ContextTokens(model) - g.cfg.MaxTokens - utils.CountTokens(systemPrompt) -
		utils.CountTokens(userPrefix+userSuffix) - promptSlack
	if budget < 1 {
		budget = 1
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if utils.CountTokens(string(body)) > budget {
		if body, err = json.Marshal(slim(p)); err != nil {
			return "", err
		}
	}
	text := utils.TruncateToTokenLimit(string(body), budget, truncatedMarker)
	return userPrefix + text + userSuffix, nil
}

// slim copies a profile without top values and patterns.
func slim(p *analysis.DatasetProfile) *analysis.DatasetProfile {
	out := *p
	out.Columns = make([]analysis.ColumnProfile, len(p.Columns))
	for i, c := range p.Columns {
		c.TopValues = nil
		c.Patterns = analysis.Patterns{}
		out.Columns[i] = c
	}
	return &out
}

// Parse extracts the insights JSON object from a model reply. Code fences
// and prose around the object are ignored.
func Parse(reply string) (Insights, error) {
	doc := extractJSON(reply)
	if doc == "" {
		return Insights{}, fmt.Errorf("no JSON object in reply")
	}
	var out Insights
	dec := json.NewDecoder(strings.NewReader(doc))
	if err := dec.Decode(&out); err != nil {
		return Insights{}, fmt.Errorf("decode insights: %w", err)
	}
	if out.CriticalIssues == nil {
		out.CriticalIssues = StringList{}
	}
	if out.Recommendations == nil {
		out.Recommendations = StringList{}
	}
	if out.DBTTests == nil {
		out.DBTTests = StringList{}
	}
	return out, nil
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

// StringList decodes a JSON array whose items should be strings. Models
// occasionally answer with objects; those are kept as compact JSON text.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = StringList{}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(StringList, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, item); err != nil {
			return err
		}
		out = append(out, buf.String())
	}
	*l = out
	return nil
}
