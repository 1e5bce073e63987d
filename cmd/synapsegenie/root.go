package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath       string
	logLevel         string
	endpoint         string
	authToken        string
	policy           string
	registryPackages []string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "synapsegenie",
		Short:         "synapsegenie validates and processes center file submissions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().StringSliceVar(&flags.registryPackages, "format-registry-packages", nil,
		"Registry package name(s) to get valid file formats from (default: all registered)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "", "Store REST endpoint")
	cmd.PersistentFlags().StringVar(&flags.authToken, "auth-token", "", "Store auth token (defaults to $SYNAPSE_AUTH_TOKEN)")
	cmd.PersistentFlags().StringVar(&flags.policy, "policy", "", "Registry conflict policy (strict or override)")

	cmd.AddCommand(newBootstrapCmd(flags))
	cmd.AddCommand(newProcessCmd(flags))
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newFileErrorsCmd(flags))
	cmd.AddCommand(newReplaceDBCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
