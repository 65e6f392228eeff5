package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tdprofiler/internal/jobs"
	"github.com/KaramelBytes/tdprofiler/internal/middleware"
	"github.com/KaramelBytes/tdprofiler/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the profiling HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			c.ListenAddr = serveAddr
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		defer func() { _ = appLog.Sync() }()

		store := jobs.NewStore(c.JobTTL())
		go store.Run(ctx, c.SweepInterval(), func(n int) {
			appLog.Debugw("expired jobs removed", "count", n)
		})

		window := c.RateWindow()
		limiter := middleware.NewLimiter(map[string]middleware.Limit{
			middleware.ActionUpload:   {Requests: c.UploadLimit, Window: window},
			middleware.ActionInsights: {Requests: c.InsightsLimit, Window: window},
		})
		go limiter.Run(ctx, c.SweepInterval(), 2*window)

		gen, err := generatorFor(c)
		if err != nil {
			warnf(cmd, "insights disabled: %v", err)
		}

		srv := server.New(server.Config{
			Addr:           c.ListenAddr,
			MaxUploadBytes: c.MaxUploadBytes(),
			TrustProxy:     c.TrustProxy,
		}, server.Deps{
			Jobs:     store,
			Limiter:  limiter,
			Profiler: profilerFor(c, 0, 0),
			Insights: gen,
			Logger:   appLog,
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ TD Profiler API listening on %s\n", c.ListenAddr)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config listen_addr)")
}
