package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/drivetools/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google Drive authorization",
		Long: `Manage the OAuth credential drivetools uses to access Google Drive.

The OAuth client secrets file (credentials.json) comes from the Google Cloud
console. The resulting access and refresh token is stored in the token file
and reused by every other command.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		noBrowser bool
		port      int
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize drivetools to access Google Drive",
		Long: `Run the OAuth authorization flow and store the resulting credential.

A local callback server receives the redirect from Google. If no local port
can be opened, the authorization code can be pasted manually instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noBrowser {
				cfg.Auth.OpenBrowser = false
			}
			if cmd.Flags().Changed("port") {
				cfg.Auth.CallbackPort = port
			}

			logger, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			auth, err := newAuthorizer(cfg, logger, nil)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if _, err := auth.Authorize(ctx); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}
			cmd.Printf("Authorization successful. Credential saved to %s\n", auth.Store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	cmd.Flags().IntVar(&port, "port", 0, "Local port for the OAuth callback (default: any free port)")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			auth, err := newAuthorizer(cfg, logger, nil)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st := auth.Status(ctx)
			cmd.Printf("Token file: %s\n", st.TokenFile)
			if !st.Exists {
				cmd.Println("Status: not authorized (run 'drivetools auth login')")
				return nil
			}
			if st.Err != nil {
				cmd.Printf("Status: unusable (%v)\n", st.Err)
				return fmt.Errorf("stored credential cannot be used")
			}

			cmd.Println("Status: authorized")
			cmd.Printf("Refresh token: %t\n", st.HasRefreshToken)
			if !st.Expiry.IsZero() {
				cmd.Printf("Access token expires: %s\n", st.Expiry.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store := google.NewTokenStore(cfg.TokenFile)
			err = store.Delete()
			if errors.Is(err, google.ErrNoToken) {
				cmd.Println("No credential stored")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to delete credential: %w", err)
			}
			cmd.Printf("Removed credential %s\n", store.Path())
			return nil
		},
	}
}
