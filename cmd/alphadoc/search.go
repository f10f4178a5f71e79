package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Ask a question answered from the repository",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			answer, err := a.infra.Search.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.println(a.render.Narrative(answer.Text))
			return nil
		},
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the briefing for the latest document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			summary, err := a.infra.Search.RefreshDashboard(ctx)
			if err != nil {
				return err
			}
			a.println(a.render.Narrative(summary))
			return nil
		},
	}
}
