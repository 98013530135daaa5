package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/taskdesk/internal/config"
	"github.com/gurkanbulca/taskdesk/internal/transport"
	"github.com/gurkanbulca/taskdesk/pkg/auth"
)

type options struct {
	backendURL string
	secret     string
	service    string
	timeout    time.Duration
}

func (o *options) tokenManager() *auth.TokenManager {
	return auth.NewTokenManager(o.secret, time.Minute)
}

func (o *options) client() *transport.Client {
	return transport.New(o.backendURL,
		transport.WithTimeout(o.timeout),
		transport.WithTokenSource(auth.NewTokenSource(o.tokenManager(), o.service)),
		transport.WithUserAgent(o.service),
	)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	defaults, err := config.Load()
	if err != nil {
		defaults = &config.Config{}
	}

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Inspect and manage tasks on the TaskDesk backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.backendURL, "backend", defaults.Backend.BaseURL, "backend base URL (BACKEND_URL)")
	flags.StringVar(&opts.secret, "secret", defaults.Auth.ServiceSecret, "service token secret (SERVICE_TOKEN_SECRET)")
	flags.StringVar(&opts.service, "service", "taskctl", "service name presented in tokens")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(
		newTasksCmd(opts),
		newContractTypesCmd(opts),
		newStatusesCmd(opts),
		newTokenCmd(opts),
	)
	return root
}
