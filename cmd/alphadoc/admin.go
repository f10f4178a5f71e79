package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/alphadoc/internal/admin"
)

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Show the workspace audit log (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			entries, err := a.infra.Audit.Fetch(ctx)
			if err != nil {
				return err
			}
			a.println(a.render.Audit(entries))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure the workspace engines (admin)",
	}

	engineKey := &cobra.Command{
		Use:   "engine-key <key>",
		Short: "Set the analysis engine key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			msg, err := a.infra.Settings.SetEngineKey(ctx, args[0])
			if err != nil {
				return err
			}
			a.success("%s", msg)
			return nil
		},
	}

	var index string
	storage := &cobra.Command{
		Use:   "storage <uri>",
		Short: "Link the document store and vector index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			msg, err := a.infra.Settings.LinkStorage(ctx, args[0], index)
			if err != nil {
				return err
			}
			a.success("%s", msg)
			a.println(a.render.Styles().Muted.Render("create the vector index with `alphadoc config index-template` if it does not exist"))
			return nil
		},
	}
	storage.Flags().StringVar(&index, "index", admin.DefaultVectorIndex, "Vector search index name")

	template := &cobra.Command{
		Use:   "index-template",
		Short: "Print the vector search index definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := admin.NewIndexDefinition().JSON()
			if err != nil {
				return err
			}
			a.println(string(data))
			return nil
		},
	}

	cmd.AddCommand(engineKey, storage, template)
	return cmd
}
