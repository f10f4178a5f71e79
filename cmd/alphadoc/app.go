package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/alphadoc/internal/config"
	"github.com/JaimeStill/alphadoc/internal/infrastructure"
	"github.com/JaimeStill/alphadoc/internal/render"
)

// app holds the state shared by every command. infra and render are built
// in the root command's pre-run hook.
type app struct {
	out io.Writer
	in  io.Reader

	plain   bool
	width   int
	timeout time.Duration

	infra  *infrastructure.Infrastructure
	render *render.Renderer
	lines  *bufio.Reader
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "alphadoc",
		Short:         "Analyze, store and search documents in an AlphaDoc workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().BoolVar(&a.plain, "plain", false, "Disable colors and markdown styling")
	root.PersistentFlags().IntVar(&a.width, "width", 0, "Wrap width for narrative text (default 100)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Minute, "Overall command timeout")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newSignupCmd(a),
		newAnalyzeCmd(a),
		newHistoryCmd(a),
		newSearchCmd(a),
		newDashboardCmd(a),
		newStatusCmd(a),
		newAuditCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.infra != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	r, err := render.New(a.out, render.Options{Width: a.width, Plain: a.plain})
	if err != nil {
		return err
	}

	infra, err := infrastructure.New(cfg, infrastructure.Options{})
	if err != nil {
		return err
	}

	a.render = r
	a.infra = infra
	a.lines = bufio.NewReader(a.in)
	return nil
}

func (a *app) close() {
	if a.infra != nil {
		a.infra.Close()
	}
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

func (a *app) describe(err error) string {
	if a.render == nil {
		return "error: " + err.Error()
	}
	return a.render.Failure(err)
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *app) success(format string, args ...any) {
	a.println(a.render.Styles().Success.Render(fmt.Sprintf(format, args...)))
}

// prompt reads one trimmed line of input after printing label.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
