package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"sinspect/pkg/config"
)

const defaultConfigPath = "sinspect.yaml"

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sinspect",
		Short: "Select, normalise and export multi-channel spectroscopy regions",
		Long: `sinspect loads a measurement file of groups of regions, applies the channel
selections and normalisation references from its configuration and exports
every selected region as a delimited .xy file, one directory per group.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "configuration file (defaults are used when it does not exist)")

	cmd.AddCommand(
		newExportCmd(&configPath),
		newListCmd(&configPath),
		newInitConfigCmd(),
	)
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a configuration file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
			return nil
		},
	}
}

// newLogger logs to the command's stderr when verbose output is on.
func newLogger(cmd *cobra.Command, verbose bool) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}
