package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sdraeger/nsg-cli"
)

type globalOptions struct {
	url   string
	debug bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "nsg",
		Short:         "CLI for the Neuroscience Gateway (NSG) REST API",
		Long:          "Submit jobs, check status and download results from NSG HPC clusters.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if opts.debug {
				level = zerolog.DebugLevel
			}

			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}

	root.PersistentFlags().StringVar(&opts.url, "url", "", "NSG API endpoint (overrides config)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newSubmitCmd(opts))
	root.AddCommand(newDownloadCmd(opts))
	root.AddCommand(newLocalRunCmd())

	return root
}

var logger = zerolog.Nop()

// newClient loads stored credentials and user settings and builds an API
// client honoring the --url override.
func newClient(opts *globalOptions) (*nsg.Client, nsg.Credentials, error) {
	creds, err := nsg.LoadCredentials()
	if err != nil {
		return nil, nsg.Credentials{}, err
	}

	settings, err := nsg.LoadSettings()
	if err != nil {
		return nil, nsg.Credentials{}, err
	}

	url := settings.URL
	if opts.url != "" {
		url = opts.url
	}

	client := nsg.NewClient(creds,
		nsg.WithBaseURL(url),
		nsg.WithLogger(logger),
		nsg.WithHTTPClient(&http.Client{Timeout: settings.Timeout}),
	)

	return client, creds, nil
}
