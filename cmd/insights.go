package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tdprofiler/internal/insights"
	"github.com/KaramelBytes/tdprofiler/internal/utils"
)

var (
	insModel   string
	insTimeout time.Duration
)

type insightsOutput struct {
	File      string            `json:"file"`
	ModelUsed string            `json:"model_used"`
	Insights  insights.Insights `json:"insights"`
}

var insightsCmd = &cobra.Command{
	Use:   "insights <file>",
	Short: "Profile a file and ask the configured AI model for quality insights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		gen, err := generatorFor(c)
		if err != nil {
			return err
		}
		path := args[0]
		t, err := loadTable(path, "")
		if err != nil {
			return err
		}
		p := profilerFor(c, 0, 0).Profile(t)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if insTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, insTimeout)
			defer cancel()
		}
		model := gen.ResolveModel(insModel)
		out, err := gen.Generate(ctx, p, model)
		if err != nil {
			return fmt.Errorf("generate insights with %s: %w", model, err)
		}
		b, err := utils.PrettyJSON(insightsOutput{File: filepath.Base(path), ModelUsed: model, Insights: out})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVarP(&insModel, "model", "m", "", "model to use (default from config)")
	insightsCmd.Flags().DurationVar(&insTimeout, "timeout", 2*time.Minute, "overall time limit for the model call")
}
