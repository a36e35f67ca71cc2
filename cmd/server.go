package cmd

import (
	"github.com/spf13/cobra"

	"reel-ingest/config"
	server2 "reel-ingest/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start ingest reconciliation server",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
