package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-bizcard-client/authapi"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func newLoginCommand(c *cli) *cobra.Command {
	var (
		loginID  string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and open the last visited page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}

			ctx := commandContext(cmd)
			d, err := c.app.Login(ctx, loginID, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", c.app.State().Snapshot().UserInfo.Name)
			return renderDecision(ctx, cmd.OutOrStdout(), c.app, d)
		},
	}

	cmd.Flags().StringVar(&loginID, "id", "", "Login id")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted on stdin when omitted)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Logout()
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and access token expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			printWhoami(cmd.OutOrStdout(), c.app.State().Snapshot(), time.Now())
			return nil
		},
	}
}

func newOpenCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open [route]",
		Short: "Open a page such as /feed, /friends/2 or /notifications",
		Long:  "Open a page. Protected pages redirect to /login without a session. With no route the last visited page is opened.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route := c.app.Guard().LastRoute()
			if len(args) == 1 {
				route = args[0]
			}

			ctx := commandContext(cmd)
			d, err := c.app.Navigate(ctx, route)
			if err != nil {
				return err
			}
			return renderDecision(ctx, cmd.OutOrStdout(), c.app, d)
		},
	}
}

func newSignupCommand(c *cli) *cobra.Command {
	var req authapi.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new business card",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			available, err := c.app.Auth().CheckLoginID(ctx, req.UserID)
			if err != nil {
				return err
			}
			if !available {
				return fmt.Errorf("login id %q is already taken", req.UserID)
			}

			if req.Password == "" {
				if req.Password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			if err := c.app.Auth().Signup(ctx, req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Log in with `bizcard login --id %s`.\n", req.Username, req.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.UserID, "id", "", "Login id")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted on stdin when omitted)")
	cmd.Flags().StringVar(&req.Username, "name", "", "Name printed on the card")
	cmd.Flags().StringVar(&req.Company, "company", "", "Company")
	cmd.Flags().StringVar(&req.Department, "department", "", "Department")
	cmd.Flags().StringVar(&req.Position, "position", "", "Position")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Contact, "phone", "", "Phone number")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPasswordCommand(c *cli) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password of the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			msg, err := c.app.API().ChangePassword(commandContext(cmd), current, next, next)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			fmt.Fprintln(cmd.OutOrStdout(), "Other sessions are signed out. Log in again with the new password.")
			return c.app.Logout()
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password")
	cmd.Flags().StringVar(&next, "new", "", "New password")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), figure.NewFigure("bizcard", "cybermedium", true).String())
			fmt.Fprintf(cmd.OutOrStdout(), "\nversion %s\n", Version)
		},
	}
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
