// Package main is the entry point for the toy workshop game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toy-server",
		Short: "Authoritative server for the toy workshop",
		Long: `toy-server runs the toy workshop round loop.

Examples:
  toy-server serve --config configs/config.yaml
  toy-server simulate --sessions 3 --seed 42 --miss-rate 0.1`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default ./config.yaml or ./configs/config.yaml)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSimulateCommand())
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
