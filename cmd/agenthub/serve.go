package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gridctl/agenthub/internal/app"
	"github.com/gridctl/agenthub/internal/tracing"
	"github.com/gridctl/agenthub/pkg/config"
	"github.com/gridctl/agenthub/pkg/logging"
	"github.com/gridctl/agenthub/pkg/output"
)

var (
	flagAgentPort   int
	flagClientPort  int
	flagServicePort int
	flagLogLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orchestrator hub",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagAgentPort, "port", 0, "Agent endpoint listen port (overrides config and PORT)")
	serveCmd.Flags().IntVar(&flagClientPort, "client-port", 0, "Client endpoint listen port (overrides config and CLIENT_PORT)")
	serveCmd.Flags().IntVar(&flagServicePort, "service-port", 0, "Service endpoint listen port (overrides config and SERVICE_PORT)")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config and LOG_LEVEL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyOverrides(cfg, cmd)

	logger, closeLog := buildLogger(cfg)
	defer closeLog()

	printer := output.New()
	printer.Banner(version)
	printer.Info("starting agenthub", "agent-port", cfg.Ports.Agent, "client-port", cfg.Ports.Client, "service-port", cfg.Ports.Service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, version)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without it", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a := app.New(cfg, logger)
	if err := a.Run(ctx, configPath); err != nil {
		return fmt.Errorf("running orchestrator: %w", err)
	}

	printer.Info("agenthub stopped")
	return nil
}

// applyOverrides layers environment variables, then CLI flags, on top
// of the values config.Load already resolved from the file and its own
// built-in defaults (resolution order: flags > file > env > defaults).
// An environment variable applies only where no flag was given and the
// field still holds its built-in default, so a file value equal to the
// default is treated as unset.
func applyOverrides(cfg *config.OrchestratorConfig, cmd *cobra.Command) {
	if v := os.Getenv("PORT"); v != "" && !cmd.Flags().Changed("port") && cfg.Ports.Agent == config.DefaultAgentPort {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Ports.Agent = p
		}
	}
	if v := os.Getenv("CLIENT_PORT"); v != "" && !cmd.Flags().Changed("client-port") && cfg.Ports.Client == config.DefaultClientPort {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Ports.Client = p
		}
	}
	if v := os.Getenv("SERVICE_PORT"); v != "" && !cmd.Flags().Changed("service-port") && cfg.Ports.Service == config.DefaultServicePort {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Ports.Service = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" && !cmd.Flags().Changed("log-level") && cfg.Logging.Level == "info" {
		cfg.Logging.Level = v
	}

	if cmd.Flags().Changed("port") {
		cfg.Ports.Agent = flagAgentPort
	}
	if cmd.Flags().Changed("client-port") {
		cfg.Ports.Client = flagClientPort
	}
	if cmd.Flags().Changed("service-port") {
		cfg.Ports.Service = flagServicePort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
}

// buildLogger assembles the structured-logging stack: redaction always
// on, JSON/text per config, and a rotating file sink alongside stderr
// when Logging.File is set. The returned closer flushes the file sink.
func buildLogger(cfg *config.OrchestratorConfig) (*slog.Logger, func()) {
	var out io.Writer = os.Stderr
	closer := func() {}

	if cfg.Logging.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotator)
		closer = func() { _ = rotator.Close() }
	}

	base := logging.NewStructuredLogger(logging.Config{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		Format:    logging.ParseFormat(cfg.Logging.Format),
		Output:    out,
		AddSource: cfg.Logging.AddSource,
		Component: "agenthub",
	})

	redacted := slog.New(logging.NewRedactingHandler(base.Handler()))
	return redacted, closer
}
