// Package logging provides structured logging utilities for drivetools.
//
// This package centralizes logging patterns so that every component logs
// with the same attribute names, using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger once from configuration:
//
//	logger, err := logging.New("info", "text", os.Stderr)
//
// Attach standard attributes:
//
//	logger = logging.WithOperation(logger, "drive.list")
//	logger.Info("listing files", logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// OAuth tokens are never logged directly; use SanitizeToken when a token needs
// to appear in a diagnostic message. File contents are never logged.
package logging
