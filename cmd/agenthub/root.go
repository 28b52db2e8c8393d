package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agenthub",
	Short: "Agent coordination hub",
	Long: `Agenthub is an orchestrator hub for multi-party agent coordination.

It exposes three duplex endpoints (Agent, Client, Service), routes
messages between them, tracks task lifecycles, and multiplexes tool
calls out to MCP subprocess servers.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "agenthub.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
