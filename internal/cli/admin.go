package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yourusername/assessment-api/internal/admin"
)

func newAdminCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator dashboard",
	}

	view := func() *admin.View {
		return admin.NewView(a.api, a.store, a.cfg.Admin)
	}

	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in as administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				// пароль из stdin, чтобы не оставлять его в истории shell
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required")
				}
				password = strings.TrimRight(line, "\r\n")
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err := view().Login(email, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Admin login successful")
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", "", "admin email")
	login.Flags().StringVar(&password, "password", "", "admin password (read from stdin when omitted)")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Log out of the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := view().Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	dashboardCommand := func(use, short string, render func(*cobra.Command, *admin.Dashboard)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := view().Dashboard(cmd.Context())
				if errors.Is(err, admin.ErrNotLoggedIn) {
					return errors.New("admin login required, run `assessment admin login` first")
				}
				if err != nil {
					return err
				}
				render(cmd, d)
				return nil
			},
		}
	}

	cmd.AddCommand(
		login,
		logout,
		dashboardCommand("stats", "Show totals", func(c *cobra.Command, d *admin.Dashboard) {
			renderStats(c.OutOrStdout(), d)
		}),
		dashboardCommand("users", "List users", func(c *cobra.Command, d *admin.Dashboard) {
			renderUsers(c.OutOrStdout(), d)
		}),
		dashboardCommand("submissions", "List submissions", func(c *cobra.Command, d *admin.Dashboard) {
			renderSubmissions(c.OutOrStdout(), d)
		}),
	)
	return cmd
}
