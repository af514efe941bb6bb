package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yhonda-ohishi/articlefeed/client"
	"github.com/yhonda-ohishi/articlefeed/internal/config"
	"github.com/yhonda-ohishi/articlefeed/internal/logging"
)

const version = "0.1.0"

// app holds what every command needs once flags are parsed.
type app struct {
	configFile string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "feedctl",
		Short: "feedctl - article feed command line client",
		Long: `feedctl talks to an article feed server.

It signs up and remembers the account token, reads and publishes articles,
and streams article images into local directories, a journal file, NATS or
Redis. Captured image streams can be decoded offline.

Configuration is read from the file given with --config, then overridden by
ARTICLEFEED_* environment variables (for example ARTICLEFEED_API_BASE_URL).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "",
		"config file path (defaults and environment only if empty)")

	root.AddCommand(a.signupCmd())
	root.AddCommand(a.logoutCmd())
	root.AddCommand(a.whoamiCmd())
	root.AddCommand(a.articlesCmd())
	root.AddCommand(a.imagesCmd())
	root.AddCommand(a.decodeCmd())
	root.AddCommand(a.journalCmd())
	root.AddCommand(a.configCmd())
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// newClient returns an API client carrying the saved token, if any.
func (a *app) newClient() (*client.Client, error) {
	var token string
	creds, err := client.LoadCredentials(a.cfg.CredentialsFile)
	switch {
	case err == nil:
		token = creds.Token
		if creds.BaseURL != "" && creds.BaseURL != a.cfg.API.BaseURL {
			a.log.WithFields(logrus.Fields{
				"saved_for": creds.BaseURL,
				"base_url":  a.cfg.API.BaseURL,
			}).Warn("saved token was issued by another server")
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	return client.New(client.Config{
		BaseURL:   a.cfg.API.BaseURL,
		Token:     token,
		Timeout:   a.cfg.API.Timeout,
		Boundary:  a.cfg.Stream.Boundary,
		ChunkSize: a.cfg.Stream.ChunkSize,
		Logger:    a.log,
	})
}

// printYAML writes v to w as a YAML document.
func printYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// parseIDs converts command arguments to integer ids.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
