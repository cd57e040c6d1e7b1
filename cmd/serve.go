package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivetools/internal/config"
	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/logging"
	"github.com/teemow/drivetools/internal/server"
	"github.com/teemow/drivetools/internal/tools/drive_tools"
)

// serveOptions holds the serve flags that were set explicitly.
type serveOptions struct {
	transport   string
	httpAddr    string
	metricsAddr string
	yolo        bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Drive
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Safety Mode:
  By default, the server operates in read-only mode, providing only search,
  read and list. Use --yolo to enable create, update and delete.

Authorization:
  The server uses the credential stored by 'drivetools auth login' and never
  opens a browser. Without one, every tool reports that Google Drive is not
  authenticated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyServeFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http. Can also use DRIVETOOLS_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use DRIVETOOLS_HTTP_ADDR env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9090", "Metrics and health server address (for streamable-http transport); empty disables it. Can also use DRIVETOOLS_METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (create, update, delete). Default is read-only mode.")

	return cmd
}

// applyServeFlags overrides cfg with the flags the user set explicitly, so
// config file and environment values survive flag defaults.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, opts serveOptions) {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Server.Transport = opts.transport
	}
	if flags.Changed("http-addr") {
		cfg.Server.HTTPAddr = opts.httpAddr
	}
	if flags.Changed("metrics-addr") {
		cfg.Server.MetricsAddr = opts.metricsAddr
	}
	if flags.Changed("yolo") {
		cfg.Server.ReadOnly = !opts.yolo
	}
}

func runServe(cfg *config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	metrics := provider.Metrics()

	driveAdapter := buildAdapter(shutdownCtx, cfg, logger, metrics, false)

	serverContext := server.NewServerContext(shutdownCtx, driveAdapter)
	serverContext.SetMetrics(metrics)
	if provider.Enabled() {
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext, cfg.Server.ReadOnly)
	if err != nil {
		return err
	}

	if cfg.Server.ReadOnly {
		logger.Info("starting server in read-only mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with write operations enabled")
	}

	switch cfg.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(mcpSrv, serverContext, cfg, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Server.Transport)
	}
}

// newMCPServer creates the MCP server with every Drive tool registered.
func newMCPServer(sc *server.ServerContext, readOnly bool) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("drivetools", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := drive_tools.RegisterDriveTools(mcpSrv, sc, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register Drive tools: %w", err)
	}
	return mcpSrv, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) error {
	health := server.NewHealthChecker(sc)

	if cfg.Server.MetricsAddr != "" && provider.Enabled() {
		metricsServer, err := startMetricsServer(cfg.Server.MetricsAddr, provider, health, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	httpServer := server.NewHTTPServer(mcpSrv, sc.Metrics(), logger)
	health.SetReady(true)
	defer health.SetReady(false)

	logger.Info("starting MCP server",
		"transport", config.TransportStreamableHTTP,
		"addr", cfg.Server.HTTPAddr,
		"endpoint", server.MCPEndpointPath)
	return httpServer.Start(sc.Context(), cfg.Server.HTTPAddr)
}

func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		HealthChecker:           health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.ListenAddr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}
