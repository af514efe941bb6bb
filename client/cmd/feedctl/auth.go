package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yhonda-ohishi/articlefeed/client"
)

func (a *app) signupCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "signup <login>",
		Short: "Create an account and save its token",
		Long: `Create an account on the feed server and save the returned token to the
credentials file. Later commands use the saved token.

The password is read from the first line of standard input when --password
is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			login := args[0]
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			c, err := a.newClient()
			if err != nil {
				return err
			}
			token, err := c.SignUp(cmd.Context(), login, password)
			if err != nil {
				return err
			}

			creds := &client.Credentials{BaseURL: a.cfg.API.BaseURL, Login: login, Token: token}
			if err := client.SaveCredentials(a.cfg.CredentialsFile, creds); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed up as %s\n", login)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.RemoveCredentials(a.cfg.CredentialsFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved account and token expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			creds, err := client.LoadCredentials(a.cfg.CredentialsFile)
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Login:   %s\n", creds.Login)
			fmt.Fprintf(out, "Server:  %s\n", creds.BaseURL)
			info, err := client.InspectToken(creds.Token)
			if err != nil {
				fmt.Fprintln(out, "Token:   opaque")
				return nil
			}
			if info.ExpiresAt.IsZero() {
				fmt.Fprintln(out, "Expires: never")
				return nil
			}
			fmt.Fprintf(out, "Expires: %s\n", info.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
