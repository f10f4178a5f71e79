package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/alphadoc/internal/failures"
	"github.com/JaimeStill/alphadoc/internal/render"
	"github.com/JaimeStill/alphadoc/internal/session"
)

// probe is the outcome of one status check.
type probe struct {
	label string
	state string
	err   error
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and the workspace engine configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.infra.Session.Require()
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			probes, err := a.probe(ctx)
			if err != nil {
				return err
			}

			st := a.render.Styles()
			a.println(fmt.Sprintf("%s %s (%s) in %s", st.Label.Render("session:"), s.Username, s.Role, s.WorkspaceID))
			for _, p := range probes {
				state := st.Success.Render(p.state)
				if p.err != nil {
					state = st.Warning.Render(p.state)
				}
				a.println(fmt.Sprintf("%s %s", st.Label.Render(p.label+":"), state))
			}
			return nil
		},
	}
}

// probe checks storage and engine configuration concurrently. Configuration
// failures are reported per probe; an expired session aborts the command.
func (a *app) probe(ctx context.Context) ([]probe, error) {
	var storage, engine probe
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		storage = probe{label: "storage"}
		err := a.infra.History.Refresh(ctx)
		switch {
		case err == nil:
			storage.state = fmt.Sprintf("linked, %d current document(s)", len(a.infra.History.Entries()))
		case failures.IsKind(err, failures.StorageNotConfigured):
			storage.state, storage.err = "not linked", err
		default:
			storage.state, storage.err = render.Describe(err).Title, err
		}
		return fatal(err)
	})

	g.Go(func() error {
		engine = probe{label: "engine"}
		_, err := a.infra.Search.RefreshDashboard(ctx)
		switch {
		case err == nil:
			engine.state = "configured"
		case failures.IsKind(err, failures.EngineNotConfigured):
			engine.state, engine.err = "not configured", err
		case failures.IsKind(err, failures.StorageNotConfigured):
			engine.state, engine.err = "unknown until storage is linked", err
		case failures.IsKind(err, failures.Generic):
			engine.state, engine.err = "unknown: "+render.Describe(err).Title, err
		default:
			engine.state, engine.err = render.Describe(err).Title, err
		}
		return fatal(err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return []probe{storage, engine}, nil
}

func fatal(err error) error {
	if failures.IsKind(err, failures.Unauthenticated) || session.IsNoSession(err) {
		return err
	}
	return nil
}
