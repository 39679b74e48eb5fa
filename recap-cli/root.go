package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"recap/client"
	"recap/config"
	"recap/logging"
)

type rootOptions struct {
	apiURL string
	token  string
	gzip   bool
	json   bool
	debug  bool
}

func newRootCmd() *cobra.Command {
	_ = config.LoadDotEnv(os.Getenv("ENV_FILE"))

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "recap",
		Short:         "Upload meeting notes and manage action items",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", config.String("RECAP_API_URL", "http://localhost:8080"), "recap API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("RECAP_TOKEN"), "bearer token")
	flags.BoolVar(&opts.gzip, "gzip", false, "gzip request bodies")
	flags.BoolVar(&opts.json, "json", false, "output as JSON")
	flags.BoolVarP(&opts.debug, "debug", "v", false, "debug logging")

	cmd.AddCommand(
		uploadCmd(opts),
		meetingsCmd(opts),
		meetingCmd(opts),
		boardCmd(opts),
		moveCmd(opts),
		advanceCmd(opts),
		ownerCmd(opts),
		deadlineCmd(opts),
		addTaskCmd(opts),
		searchCmd(opts),
		dashboardCmd(opts),
		tokenCmd(),
	)
	return cmd
}

func (o *rootOptions) client() *client.Client {
	c := client.New(o.apiURL, o.token)
	c.Gzip = o.gzip
	return c
}

// logger writes to stderr so command output stays parseable.
func (o *rootOptions) logger() *log.Logger {
	logger := log.New()
	if err := logging.Configure(logger, logging.Options{Debug: o.debug}); err != nil {
		logger.WithError(err).Warn("logging setup")
	}
	return logger
}
