package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		timezone string
	)

	root := &cobra.Command{
		Use:           "campaignctl",
		Short:         "Inspect email campaign exports offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&timezone, "tz", "Local", "timezone used for send times and date filters")

	root.AddCommand(newReportCmd(&logLevel, &timezone))

	return root
}
