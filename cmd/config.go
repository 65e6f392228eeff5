package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tdprofiler/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TD Profiler configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "trust_proxy: %t\n", c.TrustProxy)
		fmt.Fprintf(out, "job_ttl_minutes: %d\n", c.JobTTLMinutes)
		fmt.Fprintf(out, "upload_limit: %d\n", c.UploadLimit)
		fmt.Fprintf(out, "insights_limit: %d\n", c.InsightsLimit)
		fmt.Fprintf(out, "rate_window_minutes: %d\n", c.RateWindowMinutes)
		fmt.Fprintf(out, "workers: %d\n", c.Workers)
		fmt.Fprintf(out, "top_n: %d\n", c.TopN)
		fmt.Fprintf(out, "api_key: %s\n", mask(c.APIKey))
		fmt.Fprintf(out, "default_provider: %s\n", c.DefaultProvider)
		fmt.Fprintf(out, "default_model: %s\n", c.DefaultModel)
		fmt.Fprintf(out, "max_tokens: %d\n", c.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", c.Temperature)
		if c.DefaultProvider == "ollama" {
			fmt.Fprintf(out, "ollama_host: %s\n", c.OllamaHost)
		}
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi(1)
	case "trust_proxy":
		c.TrustProxy, err = strconv.ParseBool(val)
	case "job_ttl_minutes":
		c.JobTTLMinutes, err = atoi(1)
	case "upload_limit":
		c.UploadLimit, err = atoi(0)
	case "insights_limit":
		c.InsightsLimit, err = atoi(0)
	case "rate_window_minutes":
		c.RateWindowMinutes, err = atoi(1)
	case "workers":
		c.Workers, err = atoi(1)
	case "top_n":
		c.TopN, err = atoi(1)
	case "api_key":
		c.APIKey = val
	case "default_model":
		c.DefaultModel = val
	case "default_provider":
		switch strings.ToLower(val) {
		case "openrouter":
			c.DefaultProvider = "openrouter"
		case "ollama", "local":
			c.DefaultProvider = "ollama"
		default:
			return fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
		}
	case "ollama_host":
		c.OllamaHost = val
	case "max_tokens":
		c.MaxTokens, err = atoi(1)
	case "temperature":
		c.Temperature, err = strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for temperature: %w", err)
		}
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	case "log_output":
		c.LogOutput = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
