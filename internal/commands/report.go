package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"decisiondash/internal/services/presenter"
	"decisiondash/internal/tui"
)

func newReportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Risk reports",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "latest",
			Short: "Show the most recent report",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openSession(cmd, opts)
				if err != nil {
					return err
				}
				r, err := a.Client.LatestReport(cmd.Context())
				if err != nil {
					return apiError(a, err, "Failed to load report")
				}
				if r == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No report yet. Run `dashctl report generate` to create one.")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(presenter.Report(r)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "generate",
			Short: "Generate a new report from current data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openSession(cmd, opts)
				if err != nil {
					return err
				}
				r, err := a.Client.GenerateReport(cmd.Context())
				if err != nil {
					return apiError(a, err, "Failed to generate report")
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(presenter.Report(r)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "history",
			Short: "List earlier reports, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openSession(cmd, opts)
				if err != nil {
					return err
				}
				rs, err := a.Client.ReportHistory(cmd.Context())
				if err != nil {
					return apiError(a, err, "Failed to load report history")
				}
				out := cmd.OutOrStdout()
				if len(rs) == 0 {
					fmt.Fprintln(out, "No reports yet.")
					return nil
				}
				for _, v := range presenter.Reports(rs) {
					fmt.Fprintf(out, "%-20s %6s  %-12s %d warnings, %d opportunities\n",
						v.GeneratedAt, v.Score, v.Label, len(v.Warnings), len(v.Opportunities))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "trigger-weekly",
			Short: "Queue the weekly report email",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openSession(cmd, opts)
				if err != nil {
					return err
				}
				msg, err := a.Client.TriggerWeeklyReport(cmd.Context())
				if err != nil {
					return apiError(a, err, "Failed to trigger weekly report")
				}
				if msg == "" {
					msg = "Weekly report queued"
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			},
		},
	)

	return cmd
}
