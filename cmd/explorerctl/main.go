package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-explorer/internal/api"
	"media-explorer/internal/logging"
	"media-explorer/internal/startup"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "explorerctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds the global flags and the lazily created client.
type app struct {
	server  string
	timeout time.Duration
	output  string
	verbose bool

	client *api.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "explorerctl",
		Short:         "Command line client for the media indexing service",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !a.verbose {
				logging.SetLevel(logging.LevelWarn)
			}
			switch a.output {
			case outputText, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q", a.output)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.server, "server", "s", "", "indexing service URL (default from SERVER_URL)")
	flags.DurationVar(&a.timeout, "timeout", 0, "request timeout (default from REQUEST_TIMEOUT)")
	flags.StringVarP(&a.output, "output", "o", outputText, "output format: text, json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log configuration and requests")

	root.AddCommand(newDirsCmd(a))
	root.AddCommand(newRegisterCmd(a))
	root.AddCommand(newUnregisterCmd(a))
	root.AddCommand(newCancelCmd(a))
	root.AddCommand(newPickCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newSimilarCmd(a))
	root.AddCommand(newSuggestCmd(a))
	root.AddCommand(newVersionCmd(a))

	return root
}

// api returns the client, creating it from the configuration and flags on
// first use.
func (a *app) api() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	config, err := startup.LoadConfig()
	if err != nil {
		return nil, err
	}
	opts := api.Options{
		BaseURL:     config.ServerURL,
		Timeout:     config.RequestTimeout,
		RequestRate: config.RequestRate,
	}
	if a.server != "" {
		opts.BaseURL = a.server
	}
	if a.timeout > 0 {
		opts.Timeout = a.timeout
	}

	a.client, err = api.New(opts)
	return a.client, err
}
