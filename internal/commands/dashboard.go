package commands

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"decisiondash/internal/api"
	"decisiondash/internal/app"
	"decisiondash/internal/models"
	"decisiondash/internal/tui"
)

// periodFlag resolves --period, falling back to the configured default
func periodFlag(a *app.App, value string) (models.Period, error) {
	if value == "" {
		return a.Config.DefaultPeriod, nil
	}
	return models.ParsePeriod(value)
}

func newDashboardCommand(opts *globalOptions) *cobra.Command {
	var periodValue string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			p, err := periodFlag(a, periodValue)
			if err != nil {
				return err
			}

			view, err := a.Dashboard(cmd.Context(), p)
			if err != nil {
				return apiError(a, err, "Failed to load dashboard")
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.Render(view))
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodValue, "period", "p", "", "days to show: 7, 30, 90 or 365")

	return cmd
}

func newWatchCommand(opts *globalOptions) *cobra.Command {
	var periodValue string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive dashboard (1-4 pick a period, r refreshes, q quits)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			p, err := periodFlag(a, periodValue)
			if err != nil {
				return err
			}

			prog := tea.NewProgram(tui.New(a, p),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			final, err := prog.Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("running dashboard: %w", err)
			}
			if m, ok := final.(tui.Model); ok && m.SignedOut {
				return apiError(a, &api.AuthError{}, "")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodValue, "period", "p", "", "days to show first: 7, 30, 90 or 365")

	return cmd
}
