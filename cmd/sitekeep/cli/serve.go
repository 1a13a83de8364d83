package cli

import (
	"github.com/AtRiskMedia/sitekeep/internal/application/startup"
	"github.com/AtRiskMedia/sitekeep/pkg/config"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Start the HTTP API serving the sync endpoint, the admin mutation endpoints and the maintenance passes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				config.Port = port
			}
			return startup.Initialize()
		},
	}

	cmd.Flags().StringVar(&port, "port", config.Port, "listen port")

	return cmd
}
