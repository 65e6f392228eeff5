package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix = "TDPROFILER"
	dirName   = ".tdprofiler"
)

// Global configuration structure.
type Global struct {
	// Server
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	TrustProxy  bool   `mapstructure:"trust_proxy" yaml:"trust_proxy"`

	// Job bookkeeping
	JobTTLMinutes   int `mapstructure:"job_ttl_minutes" yaml:"job_ttl_minutes"`
	JobSweepSeconds int `mapstructure:"job_sweep_seconds" yaml:"job_sweep_seconds"`

	// Rate limits, requests per window per client IP
	UploadLimit       int `mapstructure:"upload_limit" yaml:"upload_limit"`
	InsightsLimit     int `mapstructure:"insights_limit" yaml:"insights_limit"`
	RateWindowMinutes int `mapstructure:"rate_window_minutes" yaml:"rate_window_minutes"`

	// Profiling
	Workers int `mapstructure:"workers" yaml:"workers"`
	TopN    int `mapstructure:"top_n" yaml:"top_n"`

	// AI insights
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogOutput string `mapstructure:"log_output" yaml:"log_output"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	Output string // stdout, stderr, or file path
}

// Logging returns the logging section.
func (g *Global) Logging() *LoggingConfig {
	return &LoggingConfig{Level: g.LogLevel, Format: g.LogFormat, Output: g.LogOutput}
}

// JobTTL returns how long finished jobs are kept.
func (g *Global) JobTTL() time.Duration { return time.Duration(g.JobTTLMinutes) * time.Minute }

// SweepInterval returns the expired-job janitor period.
func (g *Global) SweepInterval() time.Duration {
	return time.Duration(g.JobSweepSeconds) * time.Second
}

// RateWindow returns the rate limiting window.
func (g *Global) RateWindow() time.Duration {
	return time.Duration(g.RateWindowMinutes) * time.Minute
}

// MaxUploadBytes returns the upload size cap in bytes.
func (g *Global) MaxUploadBytes() int64 { return int64(g.MaxUploadMB) << 20 }

// Validate rejects settings the server cannot start with.
func (g *Global) Validate() error {
	var errs []error
	if g.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr must not be empty"))
	}
	if g.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max_upload_mb must be positive"))
	}
	if g.JobTTLMinutes <= 0 {
		errs = append(errs, errors.New("job_ttl_minutes must be positive"))
	}
	if g.JobSweepSeconds <= 0 {
		errs = append(errs, errors.New("job_sweep_seconds must be positive"))
	}
	if g.RateWindowMinutes <= 0 {
		errs = append(errs, errors.New("rate_window_minutes must be positive"))
	}
	if g.UploadLimit < 0 || g.InsightsLimit < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	switch g.DefaultProvider {
	case "openrouter", "ollama":
	default:
		errs = append(errs, fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", g.DefaultProvider))
	}
	return errors.Join(errs...)
}

// DefaultPath returns ~/.tdprofiler/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tdprofiler/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("trust_proxy", false)
	v.SetDefault("job_ttl_minutes", 60)
	v.SetDefault("job_sweep_seconds", 60)
	v.SetDefault("upload_limit", 5)
	v.SetDefault("insights_limit", 3)
	v.SetDefault("rate_window_minutes", 60)
	v.SetDefault("workers", 1)
	v.SetDefault("top_n", 10)
	v.SetDefault("api_key", "")
	v.SetDefault("default_model", "openai/gpt-4o-mini")
	v.SetDefault("default_provider", "openrouter")
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.2)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 120)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_output", "stderr")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded into the environment first when present; variables
// already set are not overridden.
func Load(cfgFile string) (*Global, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, dirName))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
