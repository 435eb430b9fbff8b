// Command taskctl works with a household task list from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	settings := newSettings()

	rootCmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "taskctl - shared household task list",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return settings.load(cmd)
		},
	}
	settings.bind(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(listCmd(settings))
	rootCmd.AddCommand(addCmd(settings))
	rootCmd.AddCommand(doneCmd(settings))
	rootCmd.AddCommand(rmCmd(settings))
	rootCmd.AddCommand(reorderCmd(settings))
	rootCmd.AddCommand(watchCmd(settings))
	rootCmd.AddCommand(vapidKeysCmd())

	return rootCmd
}
