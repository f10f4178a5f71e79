package main

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse committed documents",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the current versions in the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.infra.History.Refresh(ctx); err != nil {
				return err
			}
			a.println(a.render.History(a.infra.History.Entries()))
			return nil
		},
	}

	var export bool
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the intelligence report of a committed version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			draft, err := a.infra.History.LoadAsDraft(ctx, args[0])
			if err != nil {
				return err
			}
			a.println(a.render.Draft(draft))

			if export {
				return a.export(ctx)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&export, "export", false, "Write the intelligence report to the export directory")

	deactivate := &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Remove a version from the active repository (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.infra.History.Deactivate(ctx, args[0]); err != nil {
				return err
			}
			a.success("version %s removed from the active repository", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, deactivate)
	return cmd
}
