package cmd

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tdprofiler/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models with their context windows and pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		nameWidth := runewidth.StringWidth("MODEL")
		for _, m := range cat {
			if w := runewidth.StringWidth(m.Name); w > nameWidth {
				nameWidth = w
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %9s  %10s  %10s\n", runewidth.FillRight("MODEL", nameWidth), "CONTEXT", "IN $/1K", "OUT $/1K")
		for _, m := range cat {
			fmt.Fprintf(out, "%s  %9d  %10.5f  %10.5f\n", runewidth.FillRight(m.Name, nameWidth), m.ContextTokens, m.InputPerK, m.OutputPerK)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
