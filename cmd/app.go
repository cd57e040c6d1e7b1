package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teemow/drivetools/internal/adapter"
	"github.com/teemow/drivetools/internal/config"
	"github.com/teemow/drivetools/internal/drive"
	"github.com/teemow/drivetools/internal/google"
	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/logging"
)

// loadConfig resolves the configuration and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to w, never stdout,
// so the stdio transport and CLI output stay clean.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, w)
	if err != nil {
		return nil, fmt.Errorf("invalid log configuration: %w", err)
	}
	return logger, nil
}

func newAuthorizer(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*google.Authorizer, error) {
	oauthConfig, err := google.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return &google.Authorizer{
		Config:       oauthConfig,
		Store:        google.NewTokenStore(cfg.TokenFile),
		In:           os.Stdin,
		Out:          os.Stderr,
		OpenBrowser:  cfg.Auth.OpenBrowser,
		CallbackPort: cfg.Auth.CallbackPort,
		Timeout:      cfg.Auth.Timeout,
		Logger:       logger,
		Metrics:      metrics,
	}, nil
}

// buildAdapter returns a Drive adapter backed by a live client. When no
// usable credential is available it returns an adapter without a client, so
// every operation reports that the user is not authenticated. interactive
// allows the browser authorization flow to run.
func buildAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, interactive bool) *adapter.Adapter {
	client, err := newDriveClient(ctx, cfg, logger, metrics, interactive)
	if err != nil {
		switch {
		case errors.Is(err, google.ErrNotAuthorized), errors.Is(err, google.ErrNoCredentials):
			logger.Warn("Google Drive is not available", logging.Err(err))
		default:
			logger.Error("failed to initialize Google Drive client", logging.Err(err))
		}
		return adapter.New(nil, logger)
	}
	return adapter.New(client, logger)
}

func newDriveClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, interactive bool) (*drive.Client, error) {
	auth, err := newAuthorizer(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	getTokenSource := auth.TokenSource
	if interactive {
		getTokenSource = auth.Bootstrap
	}
	ts, err := getTokenSource(ctx)
	if err != nil {
		return nil, err
	}

	return drive.NewClient(ctx, ts,
		drive.WithLogger(logger),
		drive.WithMetrics(metrics),
		drive.WithRateLimiter(drive.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
		drive.WithRetryPolicy(drive.RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			MaxElapsed:      cfg.Retry.MaxElapsed,
		}),
	)
}
