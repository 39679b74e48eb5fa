package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"recap/client"
)

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [user-id]",
		Short: "Sign a token for an API running in local auth mode",
		Long: `Sign an HS256 token with LOCAL_AUTH_SHARED_SECRET. The audience is taken
from AUTH_AUDIENCE when set.

Example:
  export RECAP_TOKEN=$(recap token alice)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := client.LocalToken(os.Getenv("LOCAL_AUTH_SHARED_SECRET"), args[0], os.Getenv("AUTH_AUDIENCE"), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
