package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gabe/consultant/internal/apierr"
	"github.com/gabe/consultant/internal/display"
	"github.com/spf13/cobra"
)

var (
	reportRaw   bool
	reportOut   string
	reportWidth int
)

var reportCmd = &cobra.Command{
	Use:   "report <problem-id>",
	Short: "Show the final report of a problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			report, err := a.client.GetReport(ctx, args[0])
			if errors.Is(err, apierr.ErrNotFound) {
				return fmt.Errorf("no report for %s yet, the agent may still be working", args[0])
			}
			if err != nil {
				return err
			}

			if reportOut != "" {
				if err := os.WriteFile(reportOut, []byte(report.Content), 0644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", reportOut)
				return nil
			}

			if a.format != display.FormatTable {
				return display.Write(cmd.OutOrStdout(), a.format, report, nil)
			}
			if reportRaw {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Content)
				return err
			}

			rendered, err := display.RenderMarkdown(report.Content, reportWidth)
			if err != nil {
				a.logger.Warn("markdown render failed, printing raw", "error", err)
				rendered = report.Content
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		})
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "print the markdown source")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the markdown to a file")
	reportCmd.Flags().IntVar(&reportWidth, "width", display.DefaultWrapWidth, "wrap width for rendered output")
	rootCmd.AddCommand(reportCmd)
}
