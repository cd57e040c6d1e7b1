// Package instrumentation provides OpenTelemetry instrumentation for drivetools.
//
// # Metrics
//
// Drive API:
//   - drive_api_operations_total: Drive API calls by operation and status
//   - drive_api_operation_duration_seconds: Drive API call latency, retries included
//   - drive_api_retries_total: retried Drive API calls by operation and error kind
//
// OAuth:
//   - oauth_auth_total: authorization attempts by flow (stored, loopback, manual) and result
//   - oauth_token_refresh_total: token refreshes by result
//
// MCP tools:
//   - mcp_tool_invocations_total: tool invocations by tool and status (success, empty, error)
//   - mcp_tool_duration_seconds: tool execution latency
//
// HTTP transport:
//   - http_requests_total, http_request_duration_seconds
//
// # Tracing
//
// Spans are named tool.<name> for tool invocations and drive.<operation> for
// Drive API calls.
//
// # Configuration
//
// Instrumentation reads the standard environment variables:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: drivetools)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_FILE_IDS
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "drive_list_files", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
