// Package cli defines the sitekeep command tree.
package cli

import (
	"fmt"

	"github.com/AtRiskMedia/sitekeep/pkg/config"
	"github.com/spf13/cobra"
)

// VersionInfo is stamped at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var (
		logLevel      string
		channelLevels string
	)

	cmd := &cobra.Command{
		Use:           "sitekeep",
		Short:         "Content consistency and media integrity service",
		Long:          "sitekeep keeps rendered pages fresh after content edits, finds and repairs broken image references, and moves media out of legacy storage folders.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("log-level") {
				config.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-channels") {
				config.LogChannelLevels = channelLevels
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", config.LogLevel, "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&channelLevels, "log-channels", config.LogChannelLevels, "per channel log levels, e.g. integrity=debug,database=warn")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}
