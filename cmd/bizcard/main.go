package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jrsteele09/go-bizcard-client/app"
	"github.com/jrsteele09/go-bizcard-client/internal/config"
	"github.com/jrsteele09/go-bizcard-client/internal/errors"
	"github.com/jrsteele09/go-bizcard-client/internal/logging"
	"github.com/jrsteele09/go-bizcard-client/internal/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	c := &cli{}
	err := newRootCommand(c).Execute()
	c.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds what every command shares once the root command has set it up
type cli struct {
	envFile string

	cfg             config.Config
	app             *app.App
	shutdownTracing func(context.Context) error
}

func newRootCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bizcard",
		Short:         "Business card networking from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&c.envFile, "env-file", "", "Optional .env file to load before the environment")

	cmd.AddCommand(
		newLoginCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newOpenCommand(c),
		newSignupCommand(c),
		newPasswordCommand(c),
		newFeedCommand(c),
		newPostsCommand(c),
		newContactsCommand(c),
		newNotificationsCommand(c),
		newVersionCommand(),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	var envFiles []string
	if c.envFile != "" {
		envFiles = append(envFiles, c.envFile)
	}

	cfg, err := config.New(envFiles...)
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}
	c.cfg = cfg
	logging.SetupWriter(cmd.ErrOrStderr(), cfg.GetLogLevel(), cfg.GetEnv() == "DEV")

	c.shutdownTracing, err = telemetry.Init(commandContext(cmd), cfg.GetAppName()+"-cli", cfg.GetOTLPEndpoint())
	if err != nil {
		return err
	}

	c.app, err = app.New(cfg, app.WithNavigator(&printNavigator{w: cmd.ErrOrStderr()}))
	if err != nil {
		return err
	}
	return c.app.Start()
}

func (c *cli) close() {
	if c.app != nil {
		_ = c.app.Close()
		c.app = nil
	}
	if c.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.shutdownTracing(ctx); err != nil {
			log.Err(err).Msg("telemetry shutdown")
		}
		c.shutdownTracing = nil
	}
}

// requireLogin fails fast instead of sending a request that can only come back 401
func (c *cli) requireLogin() error {
	if !c.app.State().Snapshot().IsAuthenticated {
		return fmt.Errorf("run `bizcard login` first: %w", errors.ErrNotAuthenticated)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
