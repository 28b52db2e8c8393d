package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridctl/agenthub/pkg/config"
	"github.com/gridctl/agenthub/pkg/output"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Validate a configuration file without starting the hub",
	RunE:  runValidateConfig,
}

func runValidateConfig(cmd *cobra.Command, args []string) error {
	printer := output.New()

	cfg, err := config.Load(configPath)
	if err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			printer.Error("config is invalid", "path", configPath)
			for _, e := range verrs {
				printer.Println("  -", e.Error())
			}
			os.Exit(1)
		}
		printer.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	printer.Info("config is valid", "path", configPath,
		"agent-port", cfg.Ports.Agent, "client-port", cfg.Ports.Client, "service-port", cfg.Ports.Service,
		"agents", len(cfg.Agents), "services", len(cfg.Services), "mcp-servers", len(cfg.MCPServers))
	return nil
}
