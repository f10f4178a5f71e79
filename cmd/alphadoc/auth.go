package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/alphadoc/internal/session"
)

// EnvPassword supplies the password for login and signup without a prompt.
const EnvPassword = "ALPHADOC_PASSWORD"

func (a *app) password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(EnvPassword); v != "" {
		return v, nil
	}
	return a.prompt("password: ")
}

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				var err error
				if username, err = a.prompt("username: "); err != nil {
					return err
				}
			}
			pw, err := a.password(password)
			if err != nil {
				return err
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			s, err := a.infra.Session.Login(ctx, a.infra.Client, session.Credentials{Username: username, Password: pw})
			if err != nil {
				return err
			}
			a.success("logged in as %s (%s) in workspace %s", s.Username, s.Role, s.WorkspaceID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (or set "+EnvPassword+")")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.infra.Session.Clear(); err != nil {
				return err
			}
			a.success("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.infra.Session.Require()
			if err != nil {
				return err
			}
			st := a.render.Styles()
			a.println(fmt.Sprintf("%s %s", st.Label.Render("user:     "), s.Username))
			a.println(fmt.Sprintf("%s %s", st.Label.Render("role:     "), s.Role))
			a.println(fmt.Sprintf("%s %s", st.Label.Render("workspace:"), s.WorkspaceID))
			a.println(fmt.Sprintf("%s %s", st.Label.Render("service:  "), a.infra.Client.BaseURL()))
			return nil
		},
	}
}

func newSignupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
	}

	var admin session.AdminSignup
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Create a workspace and its first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password(admin.Password)
			if err != nil {
				return err
			}
			admin.Password = pw

			ctx, cancel := a.context(cmd)
			defer cancel()

			res, err := a.infra.Client.SignupAdmin(ctx, admin)
			if err != nil {
				return err
			}
			a.success("%s", res.Message)
			a.println("workspace id: " + res.WorkspaceID)
			a.println(a.render.Styles().Muted.Render("share the workspace id with researchers, then run `alphadoc login`"))
			return nil
		},
	}
	adminCmd.Flags().StringVarP(&admin.Username, "username", "u", "", "Admin username")
	adminCmd.Flags().StringVarP(&admin.Password, "password", "p", "", "Admin password (or set "+EnvPassword+")")
	adminCmd.Flags().StringVar(&admin.WorkspaceName, "workspace", "", "Workspace name")
	adminCmd.Flags().StringVar(&admin.EngineKey, "engine-key", "", "Analysis engine API key")

	var researcher session.ResearcherSignup
	researcherCmd := &cobra.Command{
		Use:   "researcher",
		Short: "Join an existing workspace as a researcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := a.password(researcher.Password)
			if err != nil {
				return err
			}
			researcher.Password = pw

			ctx, cancel := a.context(cmd)
			defer cancel()

			res, err := a.infra.Client.SignupResearcher(ctx, researcher)
			if err != nil {
				return err
			}
			a.success("%s", res.Message)
			return nil
		},
	}
	researcherCmd.Flags().StringVarP(&researcher.Username, "username", "u", "", "Researcher username")
	researcherCmd.Flags().StringVarP(&researcher.Password, "password", "p", "", "Researcher password (or set "+EnvPassword+")")
	researcherCmd.Flags().StringVar(&researcher.WorkspaceID, "workspace-id", "", "Workspace id from your admin")

	cmd.AddCommand(adminCmd, researcherCmd)
	return cmd
}
