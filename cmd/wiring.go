package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/tdprofiler/internal/ai"
	"github.com/KaramelBytes/tdprofiler/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tdprofiler/internal/config"
	"github.com/KaramelBytes/tdprofiler/internal/insights"
	"github.com/KaramelBytes/tdprofiler/internal/parser"
	"github.com/KaramelBytes/tdprofiler/internal/table"
)

// profilerFor builds a profiler from config with optional flag overrides.
func profilerFor(c *cfgpkg.Global, workers, topN int) *analysis.Profiler {
	opts := analysis.DefaultOptions()
	opts.Workers = c.Workers
	opts.TopN = c.TopN
	if workers > 0 {
		opts.Workers = workers
	}
	if topN > 0 {
		opts.TopN = topN
	}
	return analysis.New(opts)
}

// loadTable parses path. A sheet name only applies to spreadsheets.
func loadTable(path, sheet string) (*table.Table, error) {
	if sheet == "" {
		return parser.ParseFile(path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return nil, fmt.Errorf("--sheet only applies to Excel files, got %s", ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parser.ParseXLSX(content, sheet)
}

// runtimeFor selects the configured AI runtime.
func runtimeFor(c *cfgpkg.Global) (ai.Runtime, error) {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		Host:        c.OllamaHost,
	}
	if c.DefaultProvider == ai.ProviderOllama && c.OllamaTimeoutSec > 0 {
		rc.HTTPTimeout = time.Duration(c.OllamaTimeoutSec) * time.Second
	}
	rt, ok := ai.GetRuntime(c.DefaultProvider, rc)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", c.DefaultProvider, strings.Join(ai.Providers(), ", "))
	}
	return rt, nil
}

// generatorFor builds the insights generator for the configured provider.
func generatorFor(c *cfgpkg.Global) (*insights.Generator, error) {
	rt, err := runtimeFor(c)
	if err != nil {
		return nil, err
	}
	return insights.NewGenerator(rt, insights.Config{
		Provider:     c.DefaultProvider,
		DefaultModel: c.DefaultModel,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
	}, appLog), nil
}
