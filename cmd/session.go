package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/frahmantamala/construction-dashboard/internal/auth"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername string
	loginPassword string

	registerReq     user.RegisterRequest
	registerRole    string
	registerCompany int64
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		in := bufio.NewReader(cmd.InOrStdin())
		username := loginUsername
		if username == "" {
			if username, err = prompt(cmd.ErrOrStderr(), in, "Username: "); err != nil {
				return err
			}
		}
		password := loginPassword
		if password == "" {
			if password, err = promptSecret(cmd.ErrOrStderr(), in, "Password: "); err != nil {
				return err
			}
		}

		res := deps.Sessions.Login(ctx, username, password)
		if !res.OK {
			return errors.New(res.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", res.User.Username, res.User.Role.Label())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and drop the persisted token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		if err := deps.Sessions.Logout(ctx); err != nil {
			return fmt.Errorf("failed to clear the stored token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account (does not sign in)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		req := registerReq
		if registerRole != "" {
			role, err := user.ParseRole(registerRole)
			if err != nil {
				return err
			}
			req.Role = role
		}
		if registerCompany > 0 {
			companyID := registerCompany
			req.CompanyID = &companyID
		}
		if req.Password == "" {
			in := bufio.NewReader(cmd.InOrStdin())
			if req.Password, err = promptSecret(cmd.ErrOrStderr(), in, "Password: "); err != nil {
				return err
			}
		}

		res := deps.Sessions.Register(ctx, &req)
		if !res.OK {
			return errors.New(res.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s; run `construction-dashboard login` to sign in\n", req.Username)
		return nil
	},
}

type whoami struct {
	User            *user.User `json:"user"`
	RoleLabel       string     `json:"role_label"`
	RoleDescription string     `json:"role_description"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Expires         string     `json:"expires,omitempty"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and when the token expires",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(_ context.Context, deps *Dependencies, snap session.Snapshot) error {
			out := whoami{
				User:            snap.User,
				RoleLabel:       snap.User.Role.Label(),
				RoleDescription: snap.User.Role.Description(),
			}
			if exp, ok := deps.Sessions.TokenExpiry(); ok {
				out.ExpiresAt = &exp
				out.Expires = humanize.Time(exp)
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the role-scoped counts of the dashboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			res := deps.Stats.ForSession(ctx)
			if res.Err != nil {
				deps.Logger.Warn("stats unavailable", "error", res.Err)
			}
			return printJSON(cmd.OutOrStdout(), res.Stats)
		})
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "List the views and actions available to the signed-in role",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(_ context.Context, _ *Dependencies, snap session.Snapshot) error {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"menu":    auth.VisibleMenu(snap.User),
				"actions": auth.NewPermissionChecker().AllowedActions(snap.User),
			})
		})
	},
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo on a terminal and falls back to a plain
// line otherwise.
func promptSecret(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(w, in, label)
	}
	fmt.Fprint(w, label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (prompted when empty)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when empty)")

	registerCmd.Flags().StringVar(&registerReq.Username, "username", "", "username")
	registerCmd.Flags().StringVar(&registerReq.Email, "email", "", "email address")
	registerCmd.Flags().StringVar(&registerReq.Password, "password", "", "password (prompted when empty)")
	registerCmd.Flags().StringVar(&registerRole, "role", "", "admin, manager, engineer or client")
	registerCmd.Flags().Int64Var(&registerCompany, "company-id", 0, "company to join")

	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, statsCmd, menuCmd)
}
