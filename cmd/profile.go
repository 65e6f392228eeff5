package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tdprofiler/internal/report"
	"github.com/KaramelBytes/tdprofiler/internal/utils"
)

const formatSummary = "summary"

var (
	profFormat  string
	profOutput  string
	profWorkers int
	profTopN    int
	profSheet   string
	profQuiet   bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV, TSV, Excel or JSON file and print a quality report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		path := args[0]
		name := filepath.Base(path)
		log := appLog.WithFile(name)

		var f report.Format
		if profFormat != formatSummary {
			if f, err = report.ParseFormat(profFormat); err != nil {
				return err
			}
		}

		start := time.Now()
		t, err := loadTable(path, profSheet)
		if err != nil {
			return err
		}
		p := profilerFor(c, profWorkers, profTopN).Profile(t)
		log.Debugw("profiled file", "rows", t.NumRows(), "columns", t.NumCols(), "duration", time.Since(start))

		if profFormat == formatSummary {
			if profOutput != "" {
				return fmt.Errorf("--output needs a report format (json, csv, markdown or html)")
			}
			writeSummary(cmd.OutOrStdout(), name, p)
			return nil
		}

		body, err := report.Render(f, name, p)
		if err != nil {
			return err
		}
		if profOutput == "" {
			_, err = cmd.OutOrStdout().Write(body)
			if err == nil && !profQuiet {
				fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(name, p))
			}
			return err
		}
		if err := utils.SafeWriteFile(profOutput, body); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if !profQuiet {
			fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(name, p))
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s report to %s (%s)\n", f, profOutput, utils.HumanBytes(int64(len(body))))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profFormat, "format", "f", formatSummary, "output: summary, json, csv, markdown or html")
	profileCmd.Flags().StringVarP(&profOutput, "output", "o", "", "write the report to this file instead of stdout")
	profileCmd.Flags().IntVar(&profWorkers, "workers", 0, "profile columns concurrently (overrides config)")
	profileCmd.Flags().IntVar(&profTopN, "top-n", 0, "number of top values per column (overrides config)")
	profileCmd.Flags().StringVar(&profSheet, "sheet", "", "Excel sheet to profile (default: first sheet)")
	profileCmd.Flags().BoolVarP(&profQuiet, "quiet", "q", false, "suppress the status line on stderr")
}
