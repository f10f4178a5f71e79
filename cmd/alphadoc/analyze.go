package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/alphadoc/internal/exports"
	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/intelligence"
	"github.com/JaimeStill/alphadoc/internal/render"
	"github.com/JaimeStill/alphadoc/internal/workflow"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		commit   bool
		replace  bool
		forceNew bool
		export   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a document and optionally commit it to the repository",
		Long: `Upload a PDF or Word document for analysis and print the extracted
intelligence. With --commit the draft is stored; a filename collision is
resolved interactively unless --replace (admins only) or --new is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replace && forceNew {
				return workflow.ErrConflictingOptions
			}

			upload, err := intelligence.OpenUpload(args[0], a.infra.Config.Client.MaxUploadSizeBytes())
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			a.println(a.render.Styles().Muted.Render(fmt.Sprintf("analyzing %s...", upload.Filename)))
			draft, err := a.infra.Workflow.Submit(ctx, upload)
			if err != nil {
				return err
			}
			a.println(a.render.Draft(draft))

			if export {
				if err := a.export(ctx); err != nil {
					return err
				}
			}

			if !commit && !replace && !forceNew {
				a.infra.Workflow.Discard()
				a.println(a.render.Styles().Muted.Render("draft not stored; run with --commit to store it"))
				return nil
			}

			return a.commit(ctx, workflow.CommitOptions{ConfirmUpdate: replace, ForceNew: forceNew})
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "Store the draft after analysis")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the current version on a filename collision (admin)")
	cmd.Flags().BoolVar(&forceNew, "new", false, "Store as a new document on a filename collision")
	cmd.Flags().BoolVar(&export, "export", false, "Write the intelligence report to the export directory")
	return cmd
}

func (a *app) commit(ctx context.Context, opts workflow.CommitOptions) error {
	wf := a.infra.Workflow

	res, err := wf.Commit(ctx, opts)
	if failures.IsKind(err, failures.Conflict) {
		conflict, _ := wf.Conflict()
		a.println(a.render.Styles().Warning.Render(render.Describe(err).Title))

		resolved, ok, perr := a.resolve(conflict)
		if perr != nil {
			wf.Cancel()
			return perr
		}
		if !ok {
			wf.Cancel()
			a.println(a.render.Styles().Muted.Render("commit cancelled; draft discarded"))
			return nil
		}
		res, err = wf.Commit(ctx, resolved)
	}
	if err != nil {
		return err
	}

	verb := "stored"
	if res.Replaced {
		verb = "replaced current version of"
	}
	a.success("%s %s (doc id %s)", verb, res.Filename, res.DocID)
	return nil
}

// resolve asks how to settle a filename collision. Replacing is offered only
// to admins.
func (a *app) resolve(c workflow.Conflict) (workflow.CommitOptions, bool, error) {
	s, err := a.infra.Session.Require()
	if err != nil {
		return workflow.CommitOptions{}, false, err
	}

	choices := "save as [n]ew, [c]ancel"
	if s.IsAdmin() {
		choices = "[r]eplace current version, " + choices
	}

	for {
		answer, err := a.prompt(fmt.Sprintf("%s: %s? ", c.Filename, choices))
		if err != nil {
			return workflow.CommitOptions{}, false, err
		}

		switch strings.ToLower(answer) {
		case "n", "new":
			return workflow.CommitOptions{ForceNew: true}, true, nil
		case "r", "replace":
			if s.IsAdmin() {
				return workflow.CommitOptions{ConfirmUpdate: true}, true, nil
			}
		case "c", "cancel", "":
			return workflow.CommitOptions{}, false, nil
		}
	}
}

func (a *app) export(ctx context.Context) error {
	snap, err := a.infra.Workflow.Export()
	if err != nil {
		return err
	}

	res, err := a.infra.Exports.Write(ctx, snap)
	if res != nil {
		a.success("report written to %s", res.Path)
		if res.Location != "" {
			a.println(a.render.Styles().Muted.Render("archived at " + res.Location))
		}
	}
	if errors.Is(err, exports.ErrArchive) {
		a.println(a.render.Styles().Warning.Render(err.Error()))
		return nil
	}
	return err
}
