package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tdprofiler/internal/config"
	"github.com/KaramelBytes/tdprofiler/internal/logger"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	appLog = logger.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tdprofiler",
	Short: "TD Profiler: data quality profiling for tabular files",
	Long: `TD Profiler profiles CSV, TSV, Excel and JSON record files column by column,
scores their quality, exports reports, and can ask an AI model for insights.
Run it once with "profile" or start the HTTP API with "serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tdprofiler/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report it themselves
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	lc := cfg.Logging()
	if logLevel != "" {
		lc.Level = logLevel
	}
	if debug {
		lc.Level = "debug"
	}
	l, err := logger.New(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to open log output %q: %v\n", lc.Output, err)
		l = logger.NewDefault()
	}
	appLog = l
}

// requireConfig returns the loaded config or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return cfg, nil
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: "+strings.TrimSuffix(format, "\n")+"\n", args...)
}
