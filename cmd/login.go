package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabe/consultant/internal/auth"
	"github.com/spf13/cobra"
)

var (
	loginToken     string
	loginEmail     string
	loginExpiresIn time.Duration
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for the backend",
	Long: `Store a bearer token in the credentials file. Running sessions pick up
the new token without restarting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			token := strings.TrimSpace(loginToken)
			if token == "" {
				return errors.New("--token is required")
			}
			creds := &auth.Credentials{
				AccessToken: token,
				TokenType:   "Bearer",
				Email:       loginEmail,
			}
			if loginExpiresIn > 0 {
				creds.Expiry = time.Now().Add(loginExpiresIn)
			}
			if err := a.store.Write(creds); err != nil {
				return err
			}
			a.logger.Info("stored credentials", "path", a.store.Path(), "email", loginEmail)

			who := loginEmail
			if who == "" {
				who = "token"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in (%s). Credentials saved to %s\n", who, a.store.Path())
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "access token issued by the backend")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email, for display only")
	loginCmd.Flags().DurationVar(&loginExpiresIn, "expires-in", 0, "token lifetime (0 means no expiry)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
